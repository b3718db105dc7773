package spine

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MixBlend 决定时间线的值如何与当前姿势混合
type MixBlend uint8

const (
	MixSetup   MixBlend = iota // 从 setup 姿势混合，没有关键帧时还原 setup
	MixFirst                   // 从当前姿势混合，没有关键帧时还原 setup
	MixReplace                 // 从当前姿势混合，没有关键帧时不修改
	MixAdd                     // 叠加到当前姿势上
)

// MixDirection 淡出时部分时间线（附件、绘制顺序）不再生效
type MixDirection uint8

const (
	MixIn MixDirection = iota
	MixOut
)

type TimelineType uint8

const (
	TimelineRotate TimelineType = iota
	TimelineTranslate
	TimelineScale
	TimelineShear
	TimelineAttachment
	TimelineColor
	TimelineDeform
	TimelineEvent
	TimelineDrawOrder
	TimelineIkConstraint
	TimelineTransformConstraint
	TimelinePathConstraintPosition
	TimelinePathConstraintSpacing
	TimelinePathConstraintMix
	TimelineTwoColor
)

type Timeline interface {
	// Apply events 不为 nil 时事件时间线会追加触发的事件
	Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection)
	// PropertyID 同一属性的时间线在 AnimationState 中共享混合状态
	PropertyID() int
	Duration() float32
}

func propertyID(kind TimelineType, index int) int {
	return int(kind)<<24 + index
}

func lastFrameTime[F frame](frames []F) float32 {
	if len(frames) == 0 {
		return 0
	}
	return frames[len(frames)-1].frameTime()
}

type ValueFrame struct {
	KeyFrame
	Value float32
}

type Vec2Frame struct {
	KeyFrame
	Value mgl32.Vec2
}

func sampleValue(frames []ValueFrame, time float32) float32 {
	idx := frameIndex(frames, time)
	if idx >= len(frames)-1 {
		return frames[len(frames)-1].Value
	}
	pre, next := frames[idx], frames[idx+1]
	return Lerp(pre.Value, next.Value, framePercent(pre.KeyFrame, next.KeyFrame, time))
}

func sampleVec2(frames []Vec2Frame, time float32) mgl32.Vec2 {
	idx := frameIndex(frames, time)
	if idx >= len(frames)-1 {
		return frames[len(frames)-1].Value
	}
	pre, next := frames[idx], frames[idx+1]
	return Vec2Lerp(pre.Value, next.Value, framePercent(pre.KeyFrame, next.KeyFrame, time))
}

type RotateTimeline struct {
	BoneIndex int
	Frames    []ValueFrame // 相对 setup 的角度
}

func (t *RotateTimeline) PropertyID() int   { return propertyID(TimelineRotate, t.BoneIndex) }
func (t *RotateTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *RotateTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	bone := skeleton.Bones[t.BoneIndex]
	if !bone.IsActive() {
		return
	}
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			bone.Rotation = bone.Data.Rotation
		case MixFirst:
			bone.Rotation += WrapDegrees(bone.Data.Rotation-bone.Rotation) * alpha
		}
		return
	}
	var r float32
	idx := frameIndex(t.Frames, time)
	if idx >= len(t.Frames)-1 {
		r = t.Frames[len(t.Frames)-1].Value
	} else { // 走最短路径
		pre, next := t.Frames[idx], t.Frames[idx+1]
		r = pre.Value + WrapDegrees(next.Value-pre.Value)*framePercent(pre.KeyFrame, next.KeyFrame, time)
	}
	switch blend {
	case MixSetup:
		bone.Rotation = bone.Data.Rotation + WrapDegrees(r)*alpha
	case MixFirst, MixReplace:
		r += bone.Data.Rotation - bone.Rotation
		fallthrough
	case MixAdd:
		bone.Rotation += WrapDegrees(r) * alpha
	}
}

type TranslateTimeline struct {
	BoneIndex int
	Frames    []Vec2Frame
}

func (t *TranslateTimeline) PropertyID() int   { return propertyID(TimelineTranslate, t.BoneIndex) }
func (t *TranslateTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *TranslateTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	bone := skeleton.Bones[t.BoneIndex]
	if !bone.IsActive() {
		return
	}
	data := bone.Data
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			bone.X, bone.Y = data.X, data.Y
		case MixFirst:
			bone.X += (data.X - bone.X) * alpha
			bone.Y += (data.Y - bone.Y) * alpha
		}
		return
	}
	val := sampleVec2(t.Frames, time)
	switch blend {
	case MixSetup:
		bone.X = data.X + val.X()*alpha
		bone.Y = data.Y + val.Y()*alpha
	case MixFirst, MixReplace:
		bone.X += (data.X + val.X() - bone.X) * alpha
		bone.Y += (data.Y + val.Y() - bone.Y) * alpha
	case MixAdd:
		bone.X += val.X() * alpha
		bone.Y += val.Y() * alpha
	}
}

type ScaleTimeline struct {
	BoneIndex int
	Frames    []Vec2Frame // 相对 setup 的倍数
}

func (t *ScaleTimeline) PropertyID() int   { return propertyID(TimelineScale, t.BoneIndex) }
func (t *ScaleTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *ScaleTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	bone := skeleton.Bones[t.BoneIndex]
	if !bone.IsActive() {
		return
	}
	data := bone.Data
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			bone.ScaleX, bone.ScaleY = data.ScaleX, data.ScaleY
		case MixFirst:
			bone.ScaleX += (data.ScaleX - bone.ScaleX) * alpha
			bone.ScaleY += (data.ScaleY - bone.ScaleY) * alpha
		}
		return
	}
	val := sampleVec2(t.Frames, time)
	x, y := val.X()*data.ScaleX, val.Y()*data.ScaleY
	if alpha == 1 {
		if blend == MixAdd {
			bone.ScaleX += x - data.ScaleX
			bone.ScaleY += y - data.ScaleY
		} else {
			bone.ScaleX, bone.ScaleY = x, y
		}
		return
	}
	// 混合时保持符号，避免缩放穿过 0
	if direction == MixOut {
		switch blend {
		case MixSetup:
			bx, by := data.ScaleX, data.ScaleY
			bone.ScaleX = bx + (Abs(x)*Signum(bx)-bx)*alpha
			bone.ScaleY = by + (Abs(y)*Signum(by)-by)*alpha
		case MixFirst, MixReplace:
			bx, by := bone.ScaleX, bone.ScaleY
			bone.ScaleX = bx + (Abs(x)*Signum(bx)-bx)*alpha
			bone.ScaleY = by + (Abs(y)*Signum(by)-by)*alpha
		case MixAdd:
			bx, by := bone.ScaleX, bone.ScaleY
			bone.ScaleX = bx + (Abs(x)*Signum(bx)-data.ScaleX)*alpha
			bone.ScaleY = by + (Abs(y)*Signum(by)-data.ScaleY)*alpha
		}
		return
	}
	switch blend {
	case MixSetup:
		bx := Abs(data.ScaleX) * Signum(x)
		by := Abs(data.ScaleY) * Signum(y)
		bone.ScaleX = bx + (x-bx)*alpha
		bone.ScaleY = by + (y-by)*alpha
	case MixFirst, MixReplace:
		bx := Abs(bone.ScaleX) * Signum(x)
		by := Abs(bone.ScaleY) * Signum(y)
		bone.ScaleX = bx + (x-bx)*alpha
		bone.ScaleY = by + (y-by)*alpha
	case MixAdd:
		bx, by := Signum(x), Signum(y)
		bone.ScaleX = Abs(bone.ScaleX)*bx + (x-Abs(data.ScaleX)*bx)*alpha
		bone.ScaleY = Abs(bone.ScaleY)*by + (y-Abs(data.ScaleY)*by)*alpha
	}
}

type ShearTimeline struct {
	BoneIndex int
	Frames    []Vec2Frame
}

func (t *ShearTimeline) PropertyID() int   { return propertyID(TimelineShear, t.BoneIndex) }
func (t *ShearTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *ShearTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	bone := skeleton.Bones[t.BoneIndex]
	if !bone.IsActive() {
		return
	}
	data := bone.Data
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			bone.ShearX, bone.ShearY = data.ShearX, data.ShearY
		case MixFirst:
			bone.ShearX += (data.ShearX - bone.ShearX) * alpha
			bone.ShearY += (data.ShearY - bone.ShearY) * alpha
		}
		return
	}
	val := sampleVec2(t.Frames, time)
	switch blend {
	case MixSetup:
		bone.ShearX = data.ShearX + val.X()*alpha
		bone.ShearY = data.ShearY + val.Y()*alpha
	case MixFirst, MixReplace:
		bone.ShearX += (data.ShearX + val.X() - bone.ShearX) * alpha
		bone.ShearY += (data.ShearY + val.Y() - bone.ShearY) * alpha
	case MixAdd:
		bone.ShearX += val.X() * alpha
		bone.ShearY += val.Y() * alpha
	}
}

type ColorFrame struct {
	KeyFrame
	Color mgl32.Vec4
}

type ColorTimeline struct {
	SlotIndex int
	Frames    []ColorFrame
}

func (t *ColorTimeline) PropertyID() int   { return propertyID(TimelineColor, t.SlotIndex) }
func (t *ColorTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *ColorTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	slot := skeleton.Slots[t.SlotIndex]
	if !slot.Bone.IsActive() {
		return
	}
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			slot.Color = slot.Data.Color
		case MixFirst:
			slot.Color = Vec4Lerp(slot.Color, slot.Data.Color, alpha)
		}
		return
	}
	var color mgl32.Vec4
	idx := frameIndex(t.Frames, time)
	if idx >= len(t.Frames)-1 {
		color = t.Frames[len(t.Frames)-1].Color
	} else {
		pre, next := t.Frames[idx], t.Frames[idx+1]
		color = Vec4Lerp(pre.Color, next.Color, framePercent(pre.KeyFrame, next.KeyFrame, time))
	}
	if alpha == 1 {
		slot.Color = color
		return
	}
	if blend == MixSetup {
		slot.Color = slot.Data.Color
	}
	slot.Color = Vec4Lerp(slot.Color, color, alpha)
}

type TwoColorFrame struct {
	KeyFrame
	Light mgl32.Vec4
	Dark  mgl32.Vec4 // 只使用 rgb
}

type TwoColorTimeline struct {
	SlotIndex int
	Frames    []TwoColorFrame
}

func (t *TwoColorTimeline) PropertyID() int   { return propertyID(TimelineTwoColor, t.SlotIndex) }
func (t *TwoColorTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *TwoColorTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	slot := skeleton.Slots[t.SlotIndex]
	if !slot.Bone.IsActive() {
		return
	}
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			slot.Color = slot.Data.Color
			slot.DarkColor = slot.Data.DarkColor
		case MixFirst:
			slot.Color = Vec4Lerp(slot.Color, slot.Data.Color, alpha)
			slot.DarkColor = darkLerp(slot.DarkColor, slot.Data.DarkColor, alpha)
		}
		return
	}
	var light, dark mgl32.Vec4
	idx := frameIndex(t.Frames, time)
	if idx >= len(t.Frames)-1 {
		last := t.Frames[len(t.Frames)-1]
		light, dark = last.Light, last.Dark
	} else {
		pre, next := t.Frames[idx], t.Frames[idx+1]
		percent := framePercent(pre.KeyFrame, next.KeyFrame, time)
		light = Vec4Lerp(pre.Light, next.Light, percent)
		dark = darkLerp(pre.Dark, next.Dark, percent)
	}
	if alpha == 1 {
		slot.Color = light
		slot.DarkColor = mgl32.Vec4{dark[0], dark[1], dark[2], slot.DarkColor[3]}
		return
	}
	if blend == MixSetup {
		slot.Color = slot.Data.Color
		slot.DarkColor = slot.Data.DarkColor
	}
	slot.Color = Vec4Lerp(slot.Color, light, alpha)
	slot.DarkColor = darkLerp(slot.DarkColor, dark, alpha)
}

func darkLerp(a, b mgl32.Vec4, rate float32) mgl32.Vec4 {
	return mgl32.Vec4{Lerp(a[0], b[0], rate), Lerp(a[1], b[1], rate), Lerp(a[2], b[2], rate), a[3]}
}

type AttachmentFrame struct {
	KeyFrame
	Name string // 空表示清空附件
}

type AttachmentTimeline struct {
	SlotIndex int
	Frames    []AttachmentFrame
}

func (t *AttachmentTimeline) PropertyID() int   { return propertyID(TimelineAttachment, t.SlotIndex) }
func (t *AttachmentTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *AttachmentTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	slot := skeleton.Slots[t.SlotIndex]
	if !slot.Bone.IsActive() {
		return
	}
	if direction == MixOut {
		if blend == MixSetup {
			t.setAttachment(skeleton, slot, slot.Data.AttachmentName)
		}
		return
	}
	if time < t.Frames[0].Time {
		if blend == MixSetup || blend == MixFirst {
			t.setAttachment(skeleton, slot, slot.Data.AttachmentName)
		}
		return
	}
	idx := min(frameIndex(t.Frames, time), len(t.Frames)-1)
	t.setAttachment(skeleton, slot, t.Frames[idx].Name)
}

func (t *AttachmentTimeline) setAttachment(skeleton *Skeleton, slot *Slot, name string) {
	if name == "" {
		slot.SetAttachment(nil)
		return
	}
	slot.SetAttachment(skeleton.GetAttachmentByIndex(t.SlotIndex, name))
}

type DeformFrame struct {
	KeyFrame
	Vertices []mgl32.Vec2 // 非权重为完整顶点，权重为偏移
}

type DeformTimeline struct {
	SlotIndex  int
	Attachment *VertexAttachment
	Frames     []DeformFrame
}

func (t *DeformTimeline) PropertyID() int {
	return int(TimelineDeform)<<27 + t.Attachment.ID + t.SlotIndex
}

func (t *DeformTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *DeformTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	slot := skeleton.Slots[t.SlotIndex]
	if !slot.Bone.IsActive() {
		return
	}
	attacher, ok := slot.Attachment().(VertexAttacher)
	if !ok || attacher.Vertex().DeformAttachment != t.Attachment {
		return
	}
	vertex := attacher.Vertex()
	if len(slot.Deform) == 0 {
		blend = MixSetup
	}
	vertexCount := len(t.Frames[0].Vertices)
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			slot.Deform = slot.Deform[:0]
		case MixFirst:
			if alpha == 1 {
				slot.Deform = slot.Deform[:0]
				return
			}
			deform := resizeVec2(slot.Deform, vertexCount)
			if !vertex.Weighted() {
				for i, item := range vertex.Vertices {
					deform[i] = Vec2Lerp(deform[i], item, alpha)
				}
			} else {
				for i := range deform {
					deform[i] = deform[i].Mul(1 - alpha)
				}
			}
			slot.Deform = deform
		}
		return
	}
	deform := resizeVec2(slot.Deform, vertexCount)
	slot.Deform = deform
	var target []mgl32.Vec2
	idx := frameIndex(t.Frames, time)
	if idx >= len(t.Frames)-1 {
		target = t.Frames[len(t.Frames)-1].Vertices
	} else {
		pre, next := t.Frames[idx], t.Frames[idx+1]
		percent := framePercent(pre.KeyFrame, next.KeyFrame, time)
		target = make([]mgl32.Vec2, vertexCount)
		for i := range target {
			target[i] = Vec2Lerp(pre.Vertices[i], next.Vertices[i], percent)
		}
	}
	if alpha == 1 {
		if blend != MixAdd {
			copy(deform, target)
			return
		}
		for i := range deform {
			if vertex.Weighted() {
				deform[i] = deform[i].Add(target[i])
			} else {
				deform[i] = deform[i].Add(target[i].Sub(vertex.Vertices[i]))
			}
		}
		return
	}
	switch blend {
	case MixSetup:
		for i := range deform {
			if vertex.Weighted() {
				deform[i] = target[i].Mul(alpha)
			} else {
				deform[i] = Vec2Lerp(vertex.Vertices[i], target[i], alpha)
			}
		}
	case MixFirst, MixReplace:
		for i := range deform {
			deform[i] = Vec2Lerp(deform[i], target[i], alpha)
		}
	case MixAdd:
		for i := range deform {
			if vertex.Weighted() {
				deform[i] = deform[i].Add(target[i].Mul(alpha))
			} else {
				deform[i] = deform[i].Add(target[i].Sub(vertex.Vertices[i]).Mul(alpha))
			}
		}
	}
}

// resizeVec2 保留原有内容，新增部分为 0
func resizeVec2(items []mgl32.Vec2, size int) []mgl32.Vec2 {
	if cap(items) >= size {
		old := len(items)
		items = items[:size]
		if size > old {
			clear(items[old:])
		}
		return items
	}
	res := make([]mgl32.Vec2, size)
	copy(res, items)
	return res
}

func (e *Event) frameTime() float32 {
	return e.Time
}

type EventTimeline struct {
	Frames []*Event
}

func (t *EventTimeline) PropertyID() int   { return propertyID(TimelineEvent, 0) }
func (t *EventTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

// Apply 触发 (lastTime, time] 区间内的事件，循环回绕时先补上尾部的事件
func (t *EventTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	if events == nil || len(t.Frames) == 0 {
		return
	}
	frameCount := len(t.Frames)
	if lastTime > time {
		t.Apply(skeleton, lastTime, float32(1<<31-1), events, alpha, blend, direction)
		lastTime = -1
	} else if lastTime >= t.Frames[frameCount-1].Time {
		return
	}
	if time < t.Frames[0].Time {
		return
	}
	var idx int
	if lastTime < t.Frames[0].Time {
		idx = 0
	} else {
		idx = frameIndex(t.Frames, lastTime) + 1
		frameTime := t.Frames[min(idx, frameCount-1)].Time
		for idx > 0 && t.Frames[idx-1].Time == frameTime { // 同一时间的多个事件
			idx--
		}
	}
	for ; idx < frameCount && time >= t.Frames[idx].Time; idx++ {
		*events = append(*events, t.Frames[idx])
	}
}

type DrawOrderFrame struct {
	KeyFrame
	DrawOrder []int // 每个绘制位置对应的 setup 槽位，nil 表示 setup 顺序
}

type DrawOrderTimeline struct {
	Frames []DrawOrderFrame
}

func (t *DrawOrderTimeline) PropertyID() int   { return propertyID(TimelineDrawOrder, 0) }
func (t *DrawOrderTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *DrawOrderTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	if direction == MixOut {
		if blend == MixSetup {
			copy(skeleton.DrawOrder, skeleton.Slots)
		}
		return
	}
	if time < t.Frames[0].Time {
		if blend == MixSetup || blend == MixFirst {
			copy(skeleton.DrawOrder, skeleton.Slots)
		}
		return
	}
	idx := min(frameIndex(t.Frames, time), len(t.Frames)-1)
	drawOrder := t.Frames[idx].DrawOrder
	if drawOrder == nil {
		copy(skeleton.DrawOrder, skeleton.Slots)
		return
	}
	for i, item := range drawOrder {
		skeleton.DrawOrder[i] = skeleton.Slots[item]
	}
}

type IkFrame struct {
	KeyFrame
	Mix           float32
	Softness      float32
	BendDirection int
	Compress      bool
	Stretch       bool
}

type IkConstraintTimeline struct {
	ConstraintIndex int
	Frames          []IkFrame
}

func (t *IkConstraintTimeline) PropertyID() int {
	return propertyID(TimelineIkConstraint, t.ConstraintIndex)
}

func (t *IkConstraintTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *IkConstraintTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	constraint := skeleton.IkConstraints[t.ConstraintIndex]
	if !constraint.IsActive() {
		return
	}
	data := constraint.Data
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			constraint.SetToSetupPose()
		case MixFirst:
			constraint.Mix += (data.Mix - constraint.Mix) * alpha
			constraint.Softness += (data.Softness - constraint.Softness) * alpha
			constraint.BendDirection = data.BendDirection
			constraint.Compress = data.Compress
			constraint.Stretch = data.Stretch
		}
		return
	}
	idx := frameIndex(t.Frames, time)
	pre := t.Frames[min(idx, len(t.Frames)-1)]
	mix, softness := pre.Mix, pre.Softness
	if idx < len(t.Frames)-1 {
		next := t.Frames[idx+1]
		percent := framePercent(pre.KeyFrame, next.KeyFrame, time)
		mix = Lerp(pre.Mix, next.Mix, percent)
		softness = Lerp(pre.Softness, next.Softness, percent)
	}
	if blend == MixSetup {
		constraint.Mix = Lerp(data.Mix, mix, alpha)
		constraint.Softness = Lerp(data.Softness, softness, alpha)
		if direction == MixOut {
			constraint.BendDirection = data.BendDirection
			constraint.Compress = data.Compress
			constraint.Stretch = data.Stretch
			return
		}
	} else {
		constraint.Mix += (mix - constraint.Mix) * alpha
		constraint.Softness += (softness - constraint.Softness) * alpha
		if direction == MixOut {
			return
		}
	}
	constraint.BendDirection = pre.BendDirection
	constraint.Compress = pre.Compress
	constraint.Stretch = pre.Stretch
}

type TransformFrame struct {
	KeyFrame
	Rotate, Translate, Scale, Shear float32
}

type TransformConstraintTimeline struct {
	ConstraintIndex int
	Frames          []TransformFrame
}

func (t *TransformConstraintTimeline) PropertyID() int {
	return propertyID(TimelineTransformConstraint, t.ConstraintIndex)
}

func (t *TransformConstraintTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *TransformConstraintTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	constraint := skeleton.TransformConstraints[t.ConstraintIndex]
	if !constraint.IsActive() {
		return
	}
	data := constraint.Data
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			constraint.SetToSetupPose()
		case MixFirst:
			constraint.RotateMix += (data.RotateMix - constraint.RotateMix) * alpha
			constraint.TranslateMix += (data.TranslateMix - constraint.TranslateMix) * alpha
			constraint.ScaleMix += (data.ScaleMix - constraint.ScaleMix) * alpha
			constraint.ShearMix += (data.ShearMix - constraint.ShearMix) * alpha
		}
		return
	}
	idx := frameIndex(t.Frames, time)
	pre := t.Frames[min(idx, len(t.Frames)-1)]
	rotate, translate, scale, shear := pre.Rotate, pre.Translate, pre.Scale, pre.Shear
	if idx < len(t.Frames)-1 {
		next := t.Frames[idx+1]
		percent := framePercent(pre.KeyFrame, next.KeyFrame, time)
		rotate = Lerp(pre.Rotate, next.Rotate, percent)
		translate = Lerp(pre.Translate, next.Translate, percent)
		scale = Lerp(pre.Scale, next.Scale, percent)
		shear = Lerp(pre.Shear, next.Shear, percent)
	}
	if blend == MixSetup {
		constraint.RotateMix = Lerp(data.RotateMix, rotate, alpha)
		constraint.TranslateMix = Lerp(data.TranslateMix, translate, alpha)
		constraint.ScaleMix = Lerp(data.ScaleMix, scale, alpha)
		constraint.ShearMix = Lerp(data.ShearMix, shear, alpha)
		return
	}
	constraint.RotateMix += (rotate - constraint.RotateMix) * alpha
	constraint.TranslateMix += (translate - constraint.TranslateMix) * alpha
	constraint.ScaleMix += (scale - constraint.ScaleMix) * alpha
	constraint.ShearMix += (shear - constraint.ShearMix) * alpha
}

type PathConstraintPositionTimeline struct {
	ConstraintIndex int
	Frames          []ValueFrame
}

func (t *PathConstraintPositionTimeline) PropertyID() int {
	return propertyID(TimelinePathConstraintPosition, t.ConstraintIndex)
}

func (t *PathConstraintPositionTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *PathConstraintPositionTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	constraint := skeleton.PathConstraints[t.ConstraintIndex]
	if !constraint.IsActive() {
		return
	}
	constraint.Position = applyValue(t.Frames, time, constraint.Position, constraint.Data.Position, alpha, blend)
}

type PathConstraintSpacingTimeline struct {
	ConstraintIndex int
	Frames          []ValueFrame
}

func (t *PathConstraintSpacingTimeline) PropertyID() int {
	return propertyID(TimelinePathConstraintSpacing, t.ConstraintIndex)
}

func (t *PathConstraintSpacingTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *PathConstraintSpacingTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	constraint := skeleton.PathConstraints[t.ConstraintIndex]
	if !constraint.IsActive() {
		return
	}
	constraint.Spacing = applyValue(t.Frames, time, constraint.Spacing, constraint.Data.Spacing, alpha, blend)
}

// applyValue 单个浮点属性的通用混合
func applyValue(frames []ValueFrame, time, current, setup, alpha float32, blend MixBlend) float32 {
	if time < frames[0].Time {
		switch blend {
		case MixSetup:
			return setup
		case MixFirst:
			return current + (setup-current)*alpha
		}
		return current
	}
	val := sampleValue(frames, time)
	if blend == MixSetup {
		return setup + (val-setup)*alpha
	}
	return current + (val-current)*alpha
}

type PathMixFrame struct {
	KeyFrame
	Rotate, Translate float32
}

type PathConstraintMixTimeline struct {
	ConstraintIndex int
	Frames          []PathMixFrame
}

func (t *PathConstraintMixTimeline) PropertyID() int {
	return propertyID(TimelinePathConstraintMix, t.ConstraintIndex)
}

func (t *PathConstraintMixTimeline) Duration() float32 { return lastFrameTime(t.Frames) }

func (t *PathConstraintMixTimeline) Apply(skeleton *Skeleton, lastTime, time float32, events *[]*Event, alpha float32, blend MixBlend, direction MixDirection) {
	constraint := skeleton.PathConstraints[t.ConstraintIndex]
	if !constraint.IsActive() {
		return
	}
	data := constraint.Data
	if time < t.Frames[0].Time {
		switch blend {
		case MixSetup:
			constraint.RotateMix = data.RotateMix
			constraint.TranslateMix = data.TranslateMix
		case MixFirst:
			constraint.RotateMix += (data.RotateMix - constraint.RotateMix) * alpha
			constraint.TranslateMix += (data.TranslateMix - constraint.TranslateMix) * alpha
		}
		return
	}
	idx := frameIndex(t.Frames, time)
	pre := t.Frames[min(idx, len(t.Frames)-1)]
	rotate, translate := pre.Rotate, pre.Translate
	if idx < len(t.Frames)-1 {
		next := t.Frames[idx+1]
		percent := framePercent(pre.KeyFrame, next.KeyFrame, time)
		rotate = Lerp(pre.Rotate, next.Rotate, percent)
		translate = Lerp(pre.Translate, next.Translate, percent)
	}
	if blend == MixSetup {
		constraint.RotateMix = Lerp(data.RotateMix, rotate, alpha)
		constraint.TranslateMix = Lerp(data.TranslateMix, translate, alpha)
		return
	}
	constraint.RotateMix += (rotate - constraint.RotateMix) * alpha
	constraint.TranslateMix += (translate - constraint.TranslateMix) * alpha
}
