package spine

import (
	"math"
)

type Animation struct {
	Name        string
	Timelines   []Timeline
	Duration    float32
	timelineIDs map[int]struct{}
}

// NewAnimation duration 小于 0 时取所有时间线最后一帧的最大值
func NewAnimation(name string, timelines []Timeline, duration float32) *Animation {
	res := &Animation{Name: name, Timelines: timelines, Duration: duration, timelineIDs: make(map[int]struct{})}
	for _, item := range timelines {
		res.timelineIDs[item.PropertyID()] = struct{}{}
	}
	if duration < 0 {
		res.Duration = 0
		for _, item := range timelines {
			res.Duration = max(res.Duration, item.Duration())
		}
	}
	return res
}

func (a *Animation) HasTimeline(id int) bool {
	_, ok := a.timelineIDs[id]
	return ok
}

// Apply 循环时把时间折回到动画时长内
func (a *Animation) Apply(skeleton *Skeleton, lastTime, time float32, loop bool, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	if loop && a.Duration != 0 {
		time = float32(math.Mod(float64(time), float64(a.Duration)))
		if lastTime > 0 {
			lastTime = float32(math.Mod(float64(lastTime), float64(a.Duration)))
		}
	}
	for _, item := range a.Timelines {
		item.Apply(skeleton, lastTime, time, events, alpha, blend, direction)
	}
}

func (a *Animation) String() string {
	return a.Name
}
