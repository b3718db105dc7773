package spine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveVal(t *testing.T) {
	assert.InDelta(t, 0.3, CurveVal(nil, 0.3), 1e-6)
	assert.InDelta(t, 0.3, CurveVal(LinearCurve, 0.3), 1e-6)
	assert.Zero(t, CurveVal(SteppedCurve, 0.9))
	assert.InDelta(t, 1, CurveVal(LinearCurve, 1.5), 1e-6)

	linear := NewBezierCurve(0, 0, 1, 1)
	for _, rate := range []float32{0.1, 0.5, 0.9} {
		assert.InDelta(t, rate, CurveVal(linear, rate), 1e-3)
	}
	easeIn := NewBezierCurve(0.42, 0, 1, 1)
	assert.Less(t, CurveVal(easeIn, 0.5), float32(0.5))
	assert.InDelta(t, 1, CurveVal(easeIn, 1), 1e-3)
}

func TestFrameIndex(t *testing.T) {
	frames := []KeyFrame{{Time: 0}, {Time: 0.5}, {Time: 1}}
	assert.Equal(t, -1, frameIndex(frames, -0.1))
	assert.Equal(t, 0, frameIndex(frames, 0))
	assert.Equal(t, 1, frameIndex(frames, 0.7))
	assert.Equal(t, 2, frameIndex(frames, 2))
}

func TestAnimationApply(t *testing.T) {
	data := loadJSONData(t)
	skeleton := NewSkeleton(data)
	falling := data.FindAnimation("falling")
	events := make([]*Event, 0)

	falling.Apply(skeleton, 0, 0.25, false, &events, 1, MixSetup, MixIn)
	assert.InDelta(t, 75, skeleton.FindBone("hip").Y, 1e-3)
	assert.InDelta(t, 0, skeleton.FindBone("head").Rotation, 1e-3)
	head := skeleton.FindSlot("head")
	assert.InDelta(t, 0.5, head.Color.Y(), 1e-3)
	assert.Same(t, head, skeleton.DrawOrder[0])
	require.Len(t, events, 1)
	assert.Equal(t, "land", events[0].Data.Name)

	events = events[:0]
	falling.Apply(skeleton, 0.25, 0.5, false, &events, 1, MixSetup, MixIn)
	assert.InDelta(t, 50, skeleton.FindBone("hip").Y, 1e-3)
	assert.InDelta(t, 30, skeleton.FindBone("head").Rotation, 1e-3)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, head.Color)
	assert.Empty(t, events)

	// 循环时时间折回，事件在回绕后重新触发
	falling.Apply(skeleton, 0.4, 0.8, true, &events, 1, MixSetup, MixIn)
	require.Len(t, events, 1)
	assert.InDelta(t, 70, skeleton.FindBone("hip").Y, 1e-3)
}

func TestAnimationMixAlpha(t *testing.T) {
	data := loadJSONData(t)
	skeleton := NewSkeleton(data)
	falling := data.FindAnimation("falling")

	falling.Apply(skeleton, 0, 0.5, false, nil, 0.5, MixSetup, MixIn)
	assert.InDelta(t, 75, skeleton.FindBone("hip").Y, 1e-3)
	assert.InDelta(t, 15, skeleton.FindBone("head").Rotation, 1e-3)

	// 叠加到当前姿势
	falling.Apply(skeleton, 0, 0.5, false, nil, 1, MixAdd, MixIn)
	assert.InDelta(t, 25, skeleton.FindBone("hip").Y, 1e-3)
}

func TestTimelineBeforeFirstFrame(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	hip := skeleton.FindBone("hip")
	timeline := &TranslateTimeline{BoneIndex: hip.Data.Index, Frames: []Vec2Frame{
		{KeyFrame: KeyFrame{Time: 1}, Value: mgl32.Vec2{10, 10}},
	}}
	hip.X, hip.Y = 5, 5
	timeline.Apply(skeleton, 0, 0.5, nil, 1, MixReplace, MixIn)
	assert.InDelta(t, 5, hip.X, 1e-6)
	timeline.Apply(skeleton, 0, 0.5, nil, 1, MixSetup, MixIn)
	assert.InDelta(t, 0, hip.X, 1e-6)
	assert.InDelta(t, 100, hip.Y, 1e-6)
}

func TestAttachmentTimeline(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	slot := skeleton.FindSlot("head")
	timeline := &AttachmentTimeline{SlotIndex: slot.Data.Index, Frames: []AttachmentFrame{
		{KeyFrame: KeyFrame{Time: 0}},
		{KeyFrame: KeyFrame{Time: 0.5}, Name: "head"},
	}}
	timeline.Apply(skeleton, 0, 0.2, nil, 1, MixSetup, MixIn)
	assert.Nil(t, slot.Attachment())
	timeline.Apply(skeleton, 0.2, 0.6, nil, 1, MixSetup, MixIn)
	require.NotNil(t, slot.Attachment())
	assert.Equal(t, "head", slot.Attachment().Name())
}

func TestDeformTimeline(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	slot := skeleton.FindSlot("head-bb")
	box := slot.Attachment().(*BoundingBoxAttachment)
	moved := make([]mgl32.Vec2, len(box.Vertices))
	for i, item := range box.Vertices {
		moved[i] = item.Add(mgl32.Vec2{10, 0})
	}
	timeline := &DeformTimeline{SlotIndex: slot.Data.Index, Attachment: &box.VertexAttachment, Frames: []DeformFrame{
		{KeyFrame: KeyFrame{Time: 0}, Vertices: box.Vertices},
		{KeyFrame: KeyFrame{Time: 1}, Vertices: moved},
	}}
	timeline.Apply(skeleton, 0, 0.5, nil, 1, MixSetup, MixIn)
	require.Len(t, slot.Deform, 4)
	assertVec2(t, box.Vertices[0].Add(mgl32.Vec2{5, 0}), slot.Deform[0])

	skeleton.UpdateWorldTransform()
	world := box.ComputeWorldVertices(slot, nil)
	assertVec2(t, mgl32.Vec2{-15, 150}, world[0])
}

func TestAnimationStateDataMix(t *testing.T) {
	data := loadJSONData(t)
	stateData := NewAnimationStateData(data)
	stateData.DefaultMix = 0.1
	require.NoError(t, stateData.SetMixByName("falling", "idle", 0.3))
	assert.InDelta(t, 0.3, stateData.GetMix(data.FindAnimation("falling"), data.FindAnimation("idle")), 1e-6)
	assert.InDelta(t, 0.1, stateData.GetMix(data.FindAnimation("idle"), data.FindAnimation("falling")), 1e-6)
	assert.ErrorIs(t, stateData.SetMixByName("falling", "jump", 0.2), ErrAnimationNotFound)
	assert.ErrorIs(t, stateData.SetMixByName("jump", "idle", 0.2), ErrAnimationNotFound)
}
