package harness

import (
	"fmt"

	"spine_treats/internal/spine"
)

// Callback 每个动画事件打印一行，打印后立即刷新
func (h *Harness) Callback(state *spine.AnimationState, kind spine.EventType, entry *spine.TrackEntry, event *spine.Event) {
	name := animationName(entry)
	switch kind {
	case spine.EventStart, spine.EventInterrupt, spine.EventEnd, spine.EventComplete, spine.EventDispose:
		fmt.Fprintf(h.Out, "%d %s: %s\n", entry.TrackIndex, kind, name)
	case spine.EventEvent:
		fmt.Fprintf(h.Out, "%d event: %s, %s: %d, %f, %s %f %f\n", entry.TrackIndex, name,
			event.Data.Name, event.Int, event.Float, event.String, event.Volume, event.Balance)
	default:
		return
	}
	h.flush()
}

func animationName(entry *spine.TrackEntry) string {
	if entry == nil || entry.Animation == nil {
		return "(null)"
	}
	return entry.Animation.Name
}
