package spine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec2(t *testing.T, want, got mgl32.Vec2) {
	t.Helper()
	assert.InDelta(t, want.X(), got.X(), 1e-3, "x of %v", got)
	assert.InDelta(t, want.Y(), got.Y(), 1e-3, "y of %v", got)
}

func TestSkeletonWorldTransform(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	skeleton.X, skeleton.Y = 320, 390
	skeleton.UpdateWorldTransform()

	assertVec2(t, mgl32.Vec2{320, 390}, skeleton.RootBone().WorldPos)
	assertVec2(t, mgl32.Vec2{320, 490}, skeleton.FindBone("hip").WorldPos)
	head := skeleton.FindBone("head")
	assertVec2(t, mgl32.Vec2{320, 540}, head.WorldPos)
	assertVec2(t, mgl32.Vec2{320, 550}, head.LocalToWorld(mgl32.Vec2{0, 10}))
	assertVec2(t, mgl32.Vec2{0, 10}, head.WorldToLocal(mgl32.Vec2{320, 550}))

	// 屏幕坐标 y 向下
	skeleton.ScaleY = -1
	skeleton.UpdateWorldTransform()
	assertVec2(t, mgl32.Vec2{320, 290}, skeleton.FindBone("hip").WorldPos)
	assertVec2(t, mgl32.Vec2{320, 230}, head.LocalToWorld(mgl32.Vec2{0, 10}))
}

func TestBoneRotation(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	head := skeleton.FindBone("head")
	head.Rotation = 90
	skeleton.UpdateWorldTransform()
	assertVec2(t, mgl32.Vec2{0, 160}, head.LocalToWorld(mgl32.Vec2{10, 0}))
	assert.InDelta(t, 90, head.WorldRotationX(), 1e-3)
	assert.InDelta(t, 1, head.WorldScaleX(), 1e-3)

	head.RotateWorld(-90)
	assert.InDelta(t, 0, head.WorldRotationX(), 1e-3)
	head.UpdateAppliedTransform()
	assert.InDelta(t, 0, head.ARotation, 1e-3)
}

func TestBoneTransformModes(t *testing.T) {
	data := &SkeletonData{}
	root := &BoneData{Index: 0, Name: "root", ScaleX: 2, ScaleY: 2, Rotation: 90}
	child := &BoneData{Index: 1, Name: "child", Parent: root, X: 10, ScaleX: 1, ScaleY: 1}
	data.Bones = []*BoneData{root, child}
	tests := []struct {
		mode     TransformMode
		rotation float32
		scale    float32
	}{
		{mode: TransformNormal, rotation: 90, scale: 2},
		{mode: TransformOnlyTranslation, rotation: 0, scale: 1},
		{mode: TransformNoRotationOrReflection, rotation: 0, scale: 2},
		{mode: TransformNoScale, rotation: 90, scale: 1},
	}
	for _, tt := range tests {
		child.TransformMode = tt.mode
		skeleton := NewSkeleton(data)
		skeleton.UpdateWorldTransform()
		bone := skeleton.Bones[1]
		assertVec2(t, mgl32.Vec2{0, 20}, bone.WorldPos)
		assert.InDelta(t, tt.rotation, bone.WorldRotationX(), 1e-3, "mode %d", tt.mode)
		assert.InDelta(t, tt.scale, bone.WorldScaleX(), 1e-3, "mode %d", tt.mode)
	}
}

func TestSkeletonSetupPose(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	slot := skeleton.FindSlot("head")
	require.NotNil(t, slot)
	require.NotNil(t, slot.Attachment())
	assert.Equal(t, "head", slot.Attachment().Name())

	require.NoError(t, skeleton.SetAttachment("head", ""))
	assert.Nil(t, slot.Attachment())
	assert.ErrorIs(t, skeleton.SetAttachment("head", "hat"), ErrAttachmentNotFound)
	assert.ErrorIs(t, skeleton.SetAttachment("tail", "head"), ErrSlotNotFound)

	skeleton.FindBone("hip").Y = 0
	slot.Color = mgl32.Vec4{1, 0, 0, 1}
	skeleton.DrawOrder[0], skeleton.DrawOrder[1] = skeleton.DrawOrder[1], skeleton.DrawOrder[0]
	skeleton.SetToSetupPose()
	assert.InDelta(t, 100, skeleton.FindBone("hip").Y, 1e-6)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, slot.Color)
	assert.Equal(t, "head", slot.Attachment().Name())
	assert.Equal(t, skeleton.Slots, skeleton.DrawOrder)
}

func TestSkeletonSkins(t *testing.T) {
	data := loadJSONData(t)
	skin := NewSkin("red")
	hat := NewRegionAttachment("head")
	skin.SetAttachment(1, "head", hat)
	data.Skins = append(data.Skins, skin)

	skeleton := NewSkeleton(data)
	require.NoError(t, skeleton.SetSkinByName("red"))
	assert.Same(t, hat, skeleton.FindSlot("head").Attachment())
	// 默认皮肤兜底
	assert.NotNil(t, skeleton.GetAttachment("body", "body"))
	assert.ErrorIs(t, skeleton.SetSkinByName("blue"), ErrSkinNotFound)
	require.NoError(t, skeleton.SetSkinByName(""))
	assert.Nil(t, skeleton.Skin)
}

func TestSkeletonBounds(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	skeleton.UpdateWorldTransform()
	offset, size := skeleton.Bounds()
	// body 40x60 以 hip 为中心，head 40x40 以 (0, 170) 为中心
	assertVec2(t, mgl32.Vec2{-20, 70}, offset)
	assertVec2(t, mgl32.Vec2{40, 120}, size)
}

func TestSkeletonUpdateTime(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	slot := skeleton.FindSlot("head")
	skeleton.Update(0.5)
	assert.InDelta(t, 0.5, slot.AttachmentTime(), 1e-6)
	slot.SetAttachmentTime(0.1)
	skeleton.Update(0.2)
	assert.InDelta(t, 0.3, slot.AttachmentTime(), 1e-6)
}
