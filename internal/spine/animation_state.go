package spine

import (
	"fmt"
	"math"
)

type EventType uint8

const (
	EventStart EventType = iota
	EventInterrupt
	EventEnd
	EventComplete
	EventDispose
	EventEvent
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventInterrupt:
		return "interrupt"
	case EventEnd:
		return "end"
	case EventComplete:
		return "complete"
	case EventDispose:
		return "dispose"
	case EventEvent:
		return "event"
	default:
		return fmt.Sprintf("EventType(%d)", t)
	}
}

// Listener event 只在 EventEvent 时不为 nil
type Listener func(state *AnimationState, kind EventType, entry *TrackEntry, event *Event)

// 时间线在混合中的模式
const (
	modeSubsequent = iota
	modeFirst
	modeHoldSubsequent
	modeHoldFirst
	modeHoldMix
)

// 槽位附件状态
const (
	attachmentSetup   = 1
	attachmentCurrent = 2
)

var emptyAnimation = NewAnimation("<empty>", nil, 0)

type TrackEntry struct {
	Animation           *Animation
	Next                *TrackEntry
	MixingFrom          *TrackEntry
	MixingTo            *TrackEntry
	Listener            Listener
	TrackIndex          int
	Loop                bool
	HoldPrevious        bool
	EventThreshold      float32
	AttachmentThreshold float32
	DrawOrderThreshold  float32
	AnimationStart      float32
	AnimationEnd        float32
	AnimationLast       float32
	Delay               float32
	TrackTime           float32
	TrackLast           float32
	TrackEnd            float32
	TimeScale           float32
	Alpha               float32
	MixTime             float32
	MixDuration         float32
	MixBlend            MixBlend

	nextAnimationLast float32
	nextTrackLast     float32
	interruptAlpha    float32
	totalAlpha        float32
	timelineMode      []int
	timelineHoldMix   []*TrackEntry
	timelinesRotation []float32
}

// AnimationTime 循环时折回 [AnimationStart, AnimationEnd)
func (e *TrackEntry) AnimationTime() float32 {
	if e.Loop {
		duration := e.AnimationEnd - e.AnimationStart
		if duration == 0 {
			return e.AnimationStart
		}
		return float32(math.Mod(float64(e.TrackTime), float64(duration))) + e.AnimationStart
	}
	return min(e.TrackTime+e.AnimationStart, e.AnimationEnd)
}

func (e *TrackEntry) IsComplete() bool {
	return e.TrackTime >= e.AnimationEnd-e.AnimationStart
}

func (e *TrackEntry) ResetRotationDirections() {
	e.timelinesRotation = e.timelinesRotation[:0]
}

func (e *TrackEntry) String() string {
	if e.Animation == nil {
		return "<none>"
	}
	return e.Animation.Name
}

type queuedEvent struct {
	kind  EventType
	entry *TrackEntry
	event *Event
}

// eventQueue 先入队，最后统一通知监听者，drain 不可重入
type eventQueue struct {
	state         *AnimationState
	items         []queuedEvent
	drainDisabled bool
}

func (q *eventQueue) start(entry *TrackEntry) {
	q.items = append(q.items, queuedEvent{kind: EventStart, entry: entry})
	q.state.animationsChanged = true
}

func (q *eventQueue) interrupt(entry *TrackEntry) {
	q.items = append(q.items, queuedEvent{kind: EventInterrupt, entry: entry})
}

func (q *eventQueue) end(entry *TrackEntry) {
	q.items = append(q.items, queuedEvent{kind: EventEnd, entry: entry})
	q.state.animationsChanged = true
}

func (q *eventQueue) dispose(entry *TrackEntry) {
	q.items = append(q.items, queuedEvent{kind: EventDispose, entry: entry})
}

func (q *eventQueue) complete(entry *TrackEntry) {
	q.items = append(q.items, queuedEvent{kind: EventComplete, entry: entry})
}

func (q *eventQueue) event(entry *TrackEntry, event *Event) {
	q.items = append(q.items, queuedEvent{kind: EventEvent, entry: entry, event: event})
}

func (q *eventQueue) notify(kind EventType, entry *TrackEntry, event *Event) {
	if entry.Listener != nil {
		entry.Listener(q.state, kind, entry, event)
	}
	for _, item := range q.state.listeners {
		item(q.state, kind, entry, event)
	}
}

func (q *eventQueue) drain() {
	if q.drainDisabled {
		return
	}
	q.drainDisabled = true
	for i := 0; i < len(q.items); i++ { // 监听者里可能继续入队
		item := q.items[i]
		q.notify(item.kind, item.entry, item.event)
		if item.kind == EventEnd { // end 之后总是 dispose
			q.notify(EventDispose, item.entry, nil)
		}
	}
	q.items = q.items[:0]
	q.drainDisabled = false
}

type AnimationState struct {
	Data      *AnimationStateData
	Tracks    []*TrackEntry
	TimeScale float32

	events            []*Event
	listeners         []Listener
	queue             *eventQueue
	propertyIDs       map[int]struct{}
	animationsChanged bool
	unkeyedState      int
}

func NewAnimationState(data *AnimationStateData) *AnimationState {
	res := &AnimationState{Data: data, TimeScale: 1, propertyIDs: make(map[int]struct{})}
	res.queue = &eventQueue{state: res}
	return res
}

func (s *AnimationState) AddListener(listener Listener) {
	s.listeners = append(s.listeners, listener)
}

func (s *AnimationState) ClearListeners() {
	s.listeners = nil
}

// ClearListenerNotifications 丢弃还没有通知的事件
func (s *AnimationState) ClearListenerNotifications() {
	s.queue.items = s.queue.items[:0]
}

// Update 推进各轨道时间，处理延迟、排队的下一个动画与混合结束
func (s *AnimationState) Update(delta float32) {
	delta *= s.TimeScale
	for i, current := range s.Tracks {
		if current == nil {
			continue
		}
		current.AnimationLast = current.nextAnimationLast
		current.TrackLast = current.nextTrackLast
		currentDelta := delta * current.TimeScale
		if current.Delay > 0 {
			current.Delay -= currentDelta
			if current.Delay > 0 {
				continue
			}
			currentDelta = -current.Delay
			current.Delay = 0
		}
		if next := current.Next; next != nil {
			// 下一个动画的延迟到了就切换，保留多出来的时间
			nextTime := current.TrackLast - next.Delay
			if nextTime >= 0 {
				next.Delay = 0
				if current.TimeScale != 0 {
					next.TrackTime += (nextTime/current.TimeScale + delta) * next.TimeScale
				}
				current.TrackTime += currentDelta
				s.setCurrent(i, next, true)
				for next.MixingFrom != nil {
					next.MixTime += delta
					next = next.MixingFrom
				}
				continue
			}
		} else if current.TrackLast >= current.TrackEnd && current.MixingFrom == nil {
			s.Tracks[i] = nil
			s.queue.end(current)
			s.disposeNext(current)
			continue
		}
		if current.MixingFrom != nil && s.updateMixingFrom(current, delta) {
			from := current.MixingFrom
			current.MixingFrom = nil
			if from != nil {
				from.MixingTo = nil
			}
			for ; from != nil; from = from.MixingFrom {
				s.queue.end(from)
			}
		}
		current.TrackTime += currentDelta
	}
	s.queue.drain()
}

// updateMixingFrom 所有淡出的动画都结束时返回 true
func (s *AnimationState) updateMixingFrom(to *TrackEntry, delta float32) bool {
	from := to.MixingFrom
	if from == nil {
		return true
	}
	finished := s.updateMixingFrom(from, delta)
	from.AnimationLast = from.nextAnimationLast
	from.TrackLast = from.nextTrackLast
	if to.MixTime > 0 && to.MixTime >= to.MixDuration { // 至少应用过一次
		if from.totalAlpha == 0 || to.MixDuration == 0 {
			to.MixingFrom = from.MixingFrom
			if from.MixingFrom != nil {
				from.MixingFrom.MixingTo = to
			}
			to.interruptAlpha = from.interruptAlpha
			s.queue.end(from)
		}
		return finished
	}
	from.TrackTime += delta * from.TimeScale
	to.MixTime += delta
	return false
}

// Apply 把所有轨道应用到骨架上，返回是否有轨道生效
func (s *AnimationState) Apply(skeleton *Skeleton) bool {
	if s.animationsChanged {
		s.computeTimelineModes()
	}
	applied := false
	for i, current := range s.Tracks {
		if current == nil || current.Delay > 0 {
			continue
		}
		applied = true
		// 轨道 0 不用于叠加，第一帧之前不显示之前的姿势
		blend := current.MixBlend
		if i == 0 {
			blend = MixFirst
		}
		mix := current.Alpha
		if current.MixingFrom != nil {
			mix *= s.applyMixingFrom(current, skeleton, blend)
		} else if current.TrackTime >= current.TrackEnd && current.Next == nil {
			mix = 0 // 最后一次应用时回到 setup 姿势
		}
		animationLast, animationTime := current.AnimationLast, current.AnimationTime()
		timelines := current.Animation.Timelines
		if (i == 0 && mix == 1) || blend == MixAdd {
			for _, timeline := range timelines {
				if item, ok := timeline.(*AttachmentTimeline); ok {
					s.applyAttachmentTimeline(item, skeleton, animationTime, blend, true)
				} else {
					timeline.Apply(skeleton, animationLast, animationTime, &s.events, mix, blend, MixIn)
				}
			}
		} else {
			firstFrame := len(current.timelinesRotation) == 0
			if firstFrame {
				current.timelinesRotation = make([]float32, len(timelines)<<1)
			}
			for ii, timeline := range timelines {
				timelineBlend := MixSetup
				if current.timelineMode[ii] == modeSubsequent {
					timelineBlend = blend
				}
				switch item := timeline.(type) {
				case *RotateTimeline:
					s.applyRotateTimeline(item, skeleton, animationTime, mix, timelineBlend, current.timelinesRotation, ii<<1, firstFrame)
				case *AttachmentTimeline:
					s.applyAttachmentTimeline(item, skeleton, animationTime, blend, true)
				default:
					timeline.Apply(skeleton, animationLast, animationTime, &s.events, mix, timelineBlend, MixIn)
				}
			}
		}
		s.queueEvents(current, animationTime)
		s.events = s.events[:0]
		current.nextAnimationLast = animationTime
		current.nextTrackLast = current.TrackTime
	}

	// 淡出的动画设置过附件、但之后没有时间线再设置的槽位，还原 setup 附件
	setupState := s.unkeyedState + attachmentSetup
	for _, slot := range skeleton.Slots {
		if slot.attachmentState == setupState {
			name := slot.Data.AttachmentName
			if name == "" {
				slot.SetAttachment(nil)
			} else {
				slot.SetAttachment(skeleton.GetAttachmentByIndex(slot.Data.Index, name))
			}
		}
	}
	s.unkeyedState += 2

	s.queue.drain()
	return applied
}

func (s *AnimationState) applyMixingFrom(to *TrackEntry, skeleton *Skeleton, blend MixBlend) float32 {
	from := to.MixingFrom
	if from.MixingFrom != nil {
		s.applyMixingFrom(from, skeleton, blend)
	}
	var mix float32
	if to.MixDuration == 0 { // 单帧过渡，用于撤销 from 的修改
		mix = 1
		if blend == MixFirst {
			blend = MixSetup
		}
	} else {
		mix = min(to.MixTime/to.MixDuration, 1)
		if blend != MixFirst {
			blend = from.MixBlend
		}
	}

	var events *[]*Event
	if mix < from.EventThreshold {
		events = &s.events
	}
	attachments := mix < from.AttachmentThreshold
	drawOrder := mix < from.DrawOrderThreshold
	animationLast, animationTime := from.AnimationLast, from.AnimationTime()
	timelines := from.Animation.Timelines
	alphaHold := from.Alpha * to.interruptAlpha
	alphaMix := alphaHold * (1 - mix)
	if blend == MixAdd {
		for _, timeline := range timelines {
			timeline.Apply(skeleton, animationLast, animationTime, events, alphaMix, blend, MixOut)
		}
	} else {
		firstFrame := len(from.timelinesRotation) == 0
		if firstFrame {
			from.timelinesRotation = make([]float32, len(timelines)<<1)
		}
		from.totalAlpha = 0
		for i, timeline := range timelines {
			direction := MixOut
			var timelineBlend MixBlend
			var alpha float32
			switch from.timelineMode[i] {
			case modeSubsequent:
				if _, ok := timeline.(*DrawOrderTimeline); ok && !drawOrder {
					continue
				}
				timelineBlend, alpha = blend, alphaMix
			case modeFirst:
				timelineBlend, alpha = MixSetup, alphaMix
			case modeHoldSubsequent:
				timelineBlend, alpha = blend, alphaHold
			case modeHoldFirst:
				timelineBlend, alpha = MixSetup, alphaHold
			default:
				holdMix := from.timelineHoldMix[i]
				timelineBlend = MixSetup
				alpha = alphaHold * max(0, 1-holdMix.MixTime/holdMix.MixDuration)
			}
			from.totalAlpha += alpha
			switch item := timeline.(type) {
			case *RotateTimeline:
				s.applyRotateTimeline(item, skeleton, animationTime, alpha, timelineBlend, from.timelinesRotation, i<<1, firstFrame)
			case *AttachmentTimeline:
				s.applyAttachmentTimeline(item, skeleton, animationTime, timelineBlend, attachments)
			default:
				if _, ok := timeline.(*DrawOrderTimeline); ok && drawOrder && timelineBlend == MixSetup {
					direction = MixIn
				}
				timeline.Apply(skeleton, animationLast, animationTime, events, alpha, timelineBlend, direction)
			}
		}
	}

	if to.MixDuration > 0 {
		s.queueEvents(from, animationTime)
	}
	s.events = s.events[:0]
	from.nextAnimationLast = animationTime
	from.nextTrackLast = from.TrackTime
	return mix
}

// applyAttachmentTimeline attachments 为 false 时只为了让后续的 deform 生效
func (s *AnimationState) applyAttachmentTimeline(timeline *AttachmentTimeline, skeleton *Skeleton, time float32, blend MixBlend, attachments bool) {
	slot := skeleton.Slots[timeline.SlotIndex]
	if !slot.Bone.IsActive() {
		return
	}
	if time < timeline.Frames[0].Time {
		if blend == MixSetup || blend == MixFirst {
			s.setAttachment(skeleton, slot, slot.Data.AttachmentName, attachments)
		}
	} else {
		idx := min(frameIndex(timeline.Frames, time), len(timeline.Frames)-1)
		s.setAttachment(skeleton, slot, timeline.Frames[idx].Name, attachments)
	}
	if slot.attachmentState <= s.unkeyedState {
		slot.attachmentState = s.unkeyedState + attachmentSetup
	}
}

func (s *AnimationState) setAttachment(skeleton *Skeleton, slot *Slot, name string, attachments bool) {
	if name == "" {
		slot.SetAttachment(nil)
	} else {
		slot.SetAttachment(skeleton.GetAttachmentByIndex(slot.Data.Index, name))
	}
	if attachments {
		slot.attachmentState = s.unkeyedState + attachmentCurrent
	}
}

// applyRotateTimeline 混合旋转时保持第一次选择的最短方向，并检测跨越
func (s *AnimationState) applyRotateTimeline(timeline *RotateTimeline, skeleton *Skeleton, time, alpha float32, blend MixBlend,
	timelinesRotation []float32, i int, firstFrame bool) {
	if firstFrame {
		timelinesRotation[i] = 0
	}
	if alpha == 1 {
		timeline.Apply(skeleton, 0, time, nil, 1, blend, MixIn)
		return
	}
	bone := skeleton.Bones[timeline.BoneIndex]
	if !bone.IsActive() {
		return
	}
	frames := timeline.Frames
	var r1, r2 float32
	if time < frames[0].Time {
		switch blend {
		case MixSetup:
			bone.Rotation = bone.Data.Rotation
			return
		case MixFirst:
			r1, r2 = bone.Rotation, bone.Data.Rotation
		default:
			return
		}
	} else {
		r1 = bone.Rotation
		if blend == MixSetup {
			r1 = bone.Data.Rotation
		}
		idx := frameIndex(frames, time)
		if idx >= len(frames)-1 {
			r2 = bone.Data.Rotation + frames[len(frames)-1].Value
		} else {
			pre, next := frames[idx], frames[idx+1]
			r2 = pre.Value + WrapDegrees(next.Value-pre.Value)*framePercent(pre.KeyFrame, next.KeyFrame, time) + bone.Data.Rotation
			r2 = WrapDegrees(r2)
		}
	}
	var total float32
	diff := WrapDegrees(r2 - r1)
	if diff == 0 {
		total = timelinesRotation[i]
	} else {
		lastTotal, lastDiff := float32(0), diff
		if !firstFrame {
			lastTotal = timelinesRotation[i]  // 包含整圈的混合角度
			lastDiff = timelinesRotation[i+1] // 上次的差值
		}
		current := diff > 0
		dir := lastTotal >= 0
		if Signum(lastDiff) != Signum(diff) && Abs(lastDiff) <= 90 { // 在 0 处跨越
			if Abs(lastTotal) > 180 {
				lastTotal += 360 * Signum(lastTotal)
			}
			dir = current
		}
		total = diff + lastTotal - float32(math.Mod(float64(lastTotal), 360))
		if dir != current {
			total += 360 * Signum(lastTotal)
		}
		timelinesRotation[i] = total
	}
	timelinesRotation[i+1] = diff
	r1 += total * alpha
	bone.Rotation = WrapDegrees(r1)
}

// queueEvents complete 之前与之后的事件分开入队
func (s *AnimationState) queueEvents(entry *TrackEntry, animationTime float32) {
	animationStart, animationEnd := entry.AnimationStart, entry.AnimationEnd
	duration := animationEnd - animationStart
	trackLastWrapped := float32(math.Mod(float64(entry.TrackLast), float64(duration)))
	i, n := 0, len(s.events)
	for ; i < n; i++ {
		event := s.events[i]
		if event.Time < trackLastWrapped {
			break
		}
		if event.Time > animationEnd {
			continue
		}
		s.queue.event(entry, event)
	}
	var complete bool
	if entry.Loop {
		complete = duration == 0 || trackLastWrapped > float32(math.Mod(float64(entry.TrackTime), float64(duration)))
	} else {
		complete = animationTime >= animationEnd && entry.AnimationLast < animationEnd
	}
	if complete {
		s.queue.complete(entry)
	}
	for ; i < n; i++ {
		event := s.events[i]
		if event.Time < animationStart {
			continue
		}
		s.queue.event(entry, event)
	}
}

func (s *AnimationState) ClearTracks() {
	oldDrainDisabled := s.queue.drainDisabled
	s.queue.drainDisabled = true
	for i := range s.Tracks {
		s.ClearTrack(i)
	}
	s.Tracks = s.Tracks[:0]
	s.queue.drainDisabled = oldDrainDisabled
	s.queue.drain()
}

func (s *AnimationState) ClearTrack(trackIndex int) {
	if trackIndex >= len(s.Tracks) {
		return
	}
	current := s.Tracks[trackIndex]
	if current == nil {
		return
	}
	s.queue.end(current)
	s.disposeNext(current)
	for entry := current; entry.MixingFrom != nil; {
		from := entry.MixingFrom
		s.queue.end(from)
		entry.MixingFrom = nil
		entry.MixingTo = nil
		entry = from
	}
	s.Tracks[current.TrackIndex] = nil
	s.queue.drain()
}

func (s *AnimationState) setCurrent(index int, current *TrackEntry, interrupt bool) {
	from := s.expandToIndex(index)
	s.Tracks[index] = current
	if from != nil {
		if interrupt {
			s.queue.interrupt(from)
		}
		current.MixingFrom = from
		from.MixingTo = current
		current.MixTime = 0
		if from.MixingFrom != nil && from.MixDuration > 0 { // 记录被打断时的混合比例
			current.interruptAlpha *= min(1, from.MixTime/from.MixDuration)
		}
		from.timelinesRotation = from.timelinesRotation[:0]
	}
	s.queue.start(current)
}

func (s *AnimationState) SetAnimationByName(trackIndex int, name string, loop bool) (*TrackEntry, error) {
	animation := s.Data.SkeletonData.FindAnimation(name)
	if animation == nil {
		return nil, fmt.Errorf("%w: %s", ErrAnimationNotFound, name)
	}
	return s.SetAnimation(trackIndex, animation, loop), nil
}

// SetAnimation 替换轨道上的当前动画，之前排队的动画都会被丢弃
func (s *AnimationState) SetAnimation(trackIndex int, animation *Animation, loop bool) *TrackEntry {
	interrupt := true
	current := s.expandToIndex(trackIndex)
	if current != nil {
		if current.nextTrackLast == -1 { // 从没应用过的不参与混合
			s.Tracks[trackIndex] = current.MixingFrom
			s.queue.interrupt(current)
			s.queue.end(current)
			s.disposeNext(current)
			current = current.MixingFrom
			interrupt = false
		} else {
			s.disposeNext(current)
		}
	}
	entry := s.newTrackEntry(trackIndex, animation, loop, current)
	s.setCurrent(trackIndex, entry, interrupt)
	s.queue.drain()
	return entry
}

func (s *AnimationState) AddAnimationByName(trackIndex int, name string, loop bool, delay float32) (*TrackEntry, error) {
	animation := s.Data.SkeletonData.FindAnimation(name)
	if animation == nil {
		return nil, fmt.Errorf("%w: %s", ErrAnimationNotFound, name)
	}
	return s.AddAnimation(trackIndex, animation, loop, delay), nil
}

// AddAnimation delay <= 0 时在上一个动画结束（减去混合时长）后开始
func (s *AnimationState) AddAnimation(trackIndex int, animation *Animation, loop bool, delay float32) *TrackEntry {
	last := s.expandToIndex(trackIndex)
	if last != nil {
		for last.Next != nil {
			last = last.Next
		}
	}
	entry := s.newTrackEntry(trackIndex, animation, loop, last)
	if last == nil {
		s.setCurrent(trackIndex, entry, true)
		s.queue.drain()
	} else {
		last.Next = entry
		if delay <= 0 {
			duration := last.AnimationEnd - last.AnimationStart
			if duration != 0 {
				if last.Loop {
					delay += duration * float32(1+int(last.TrackTime/duration))
				} else {
					delay += max(duration, last.TrackTime)
				}
				delay -= s.Data.GetMix(last.Animation, animation)
			} else {
				delay = last.TrackTime
			}
		}
	}
	entry.Delay = delay
	return entry
}

func (s *AnimationState) SetEmptyAnimation(trackIndex int, mixDuration float32) *TrackEntry {
	entry := s.SetAnimation(trackIndex, emptyAnimation, false)
	entry.MixDuration = mixDuration
	entry.TrackEnd = mixDuration
	return entry
}

func (s *AnimationState) AddEmptyAnimation(trackIndex int, mixDuration, delay float32) *TrackEntry {
	if delay <= 0 {
		delay -= mixDuration
	}
	entry := s.AddAnimation(trackIndex, emptyAnimation, false, delay)
	entry.MixDuration = mixDuration
	entry.TrackEnd = mixDuration
	return entry
}

func (s *AnimationState) SetEmptyAnimations(mixDuration float32) {
	oldDrainDisabled := s.queue.drainDisabled
	s.queue.drainDisabled = true
	for _, current := range s.Tracks {
		if current != nil {
			s.SetEmptyAnimation(current.TrackIndex, mixDuration)
		}
	}
	s.queue.drainDisabled = oldDrainDisabled
	s.queue.drain()
}

func (s *AnimationState) expandToIndex(index int) *TrackEntry {
	if index < len(s.Tracks) {
		return s.Tracks[index]
	}
	for len(s.Tracks) <= index {
		s.Tracks = append(s.Tracks, nil)
	}
	return nil
}

func (s *AnimationState) newTrackEntry(trackIndex int, animation *Animation, loop bool, last *TrackEntry) *TrackEntry {
	res := &TrackEntry{
		TrackIndex:        trackIndex,
		Animation:         animation,
		Loop:              loop,
		AnimationEnd:      animation.Duration,
		AnimationLast:     -1,
		nextAnimationLast: -1,
		TrackLast:         -1,
		nextTrackLast:     -1,
		TrackEnd:          math.MaxFloat32,
		TimeScale:         1,
		Alpha:             1,
		interruptAlpha:    1,
		MixBlend:          MixReplace,
	}
	if last != nil {
		res.MixDuration = s.Data.GetMix(last.Animation, animation)
	}
	return res
}

func (s *AnimationState) disposeNext(entry *TrackEntry) {
	for next := entry.Next; next != nil; next = next.Next {
		s.queue.dispose(next)
	}
	entry.Next = nil
}

// computeTimelineModes 按应用顺序计算每条时间线的混合模式
func (s *AnimationState) computeTimelineModes() {
	s.animationsChanged = false
	clear(s.propertyIDs)
	for _, entry := range s.Tracks {
		if entry == nil {
			continue
		}
		for entry.MixingFrom != nil { // 从最早的开始
			entry = entry.MixingFrom
		}
		for ; entry != nil; entry = entry.MixingTo {
			if entry.MixingTo == nil || entry.MixBlend != MixAdd {
				s.computeHold(entry)
			}
		}
	}
}

func (s *AnimationState) addPropertyID(id int) bool {
	if _, ok := s.propertyIDs[id]; ok {
		return false
	}
	s.propertyIDs[id] = struct{}{}
	return true
}

func (s *AnimationState) computeHold(entry *TrackEntry) {
	to := entry.MixingTo
	timelines := entry.Animation.Timelines
	entry.timelineMode = make([]int, len(timelines))
	entry.timelineHoldMix = make([]*TrackEntry, len(timelines))
	if to != nil && to.HoldPrevious {
		for i, timeline := range timelines {
			if s.addPropertyID(timeline.PropertyID()) {
				entry.timelineMode[i] = modeHoldFirst
			} else {
				entry.timelineMode[i] = modeHoldSubsequent
			}
		}
		return
	}
outer:
	for i, timeline := range timelines {
		id := timeline.PropertyID()
		if !s.addPropertyID(id) {
			entry.timelineMode[i] = modeSubsequent
			continue
		}
		switch timeline.(type) {
		case *AttachmentTimeline, *DrawOrderTimeline, *EventTimeline:
			entry.timelineMode[i] = modeFirst
			continue
		}
		if to == nil || !to.Animation.HasTimeline(id) {
			entry.timelineMode[i] = modeFirst
			continue
		}
		for next := to.MixingTo; next != nil; next = next.MixingTo {
			if next.Animation.HasTimeline(id) {
				continue
			}
			if entry.MixDuration > 0 {
				entry.timelineMode[i] = modeHoldMix
				entry.timelineHoldMix[i] = next
				continue outer
			}
			break
		}
		entry.timelineMode[i] = modeHoldFirst
	}
}

func (s *AnimationState) GetCurrent(trackIndex int) *TrackEntry {
	if trackIndex < 0 || trackIndex >= len(s.Tracks) {
		return nil
	}
	return s.Tracks[trackIndex]
}
