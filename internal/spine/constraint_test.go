package spine

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRig(t *testing.T, text string) *Skeleton {
	t.Helper()
	data, err := NewSkeletonJSON(NewAtlasAttachmentLoader(nil)).ReadSkeletonData(strings.NewReader(text))
	require.NoError(t, err)
	return NewSkeleton(data)
}

const ikRig = `{
	"bones": [
		{"name": "root"},
		{"name": "upper", "parent": "root", "length": 10},
		{"name": "lower", "parent": "upper", "length": 10, "x": 10},
		{"name": "arm", "parent": "root", "length": 10},
		{"name": "target", "parent": "root"}
	],
	"ik": [
		{"name": "aim", "bones": ["arm"], "target": "target"},
		{"name": "leg", "order": 1, "bones": ["upper", "lower"], "target": "target"}
	]
}`

func TestIkConstraintOneBone(t *testing.T) {
	tests := []struct {
		name     string
		target   mgl32.Vec2
		mix      float32
		compress bool
		stretch  bool
		rotation float32
		scaleX   float32
	}{
		{"up", mgl32.Vec2{0, 10}, 1, false, false, 90, 1},
		{"down", mgl32.Vec2{0, -10}, 1, false, false, -90, 1},
		{"half mix", mgl32.Vec2{0, 10}, 0.5, false, false, 45, 1},
		{"no mix", mgl32.Vec2{0, 10}, 0, false, false, 0, 1},
		{"stretch", mgl32.Vec2{0, 20}, 1, false, true, 90, 2},
		{"stretch ignored when near", mgl32.Vec2{0, 5}, 1, false, true, 90, 1},
		{"compress", mgl32.Vec2{0, 5}, 1, true, false, 90, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skeleton := newRig(t, ikRig)
			target := skeleton.FindBone("target")
			target.X, target.Y = tt.target.X(), tt.target.Y()
			aim := skeleton.FindIkConstraint("aim")
			require.NotNil(t, aim)
			aim.Mix, aim.Compress, aim.Stretch = tt.mix, tt.compress, tt.stretch
			skeleton.UpdateWorldTransform()

			arm := skeleton.FindBone("arm")
			assert.InDelta(t, tt.rotation, arm.WorldRotationX(), 1e-3)
			assert.InDelta(t, tt.scaleX, arm.WorldScaleX(), 1e-3)
		})
	}
}

func TestIkConstraintTwoBones(t *testing.T) {
	tests := []struct {
		name  string
		bend  int
		upper float32
		lower float32
	}{
		{"bend positive", 1, 0, 90},
		{"bend negative", -1, 90, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skeleton := newRig(t, ikRig)
			target := skeleton.FindBone("target")
			target.X, target.Y = 10, 10
			skeleton.FindIkConstraint("leg").BendDirection = tt.bend
			skeleton.UpdateWorldTransform()

			upper, lower := skeleton.FindBone("upper"), skeleton.FindBone("lower")
			assert.InDelta(t, tt.upper, upper.WorldRotationX(), 1e-3)
			assert.InDelta(t, tt.lower, lower.WorldRotationX(), 1e-3)
			// 末端落在目标上
			assertVec2(t, mgl32.Vec2{10, 10}, lower.LocalToWorld(mgl32.Vec2{10, 0}))
		})
	}

	// 目标超出长度时拉直
	skeleton := newRig(t, ikRig)
	target := skeleton.FindBone("target")
	target.X, target.Y = 0, 40
	skeleton.UpdateWorldTransform()
	assert.InDelta(t, 90, skeleton.FindBone("upper").WorldRotationX(), 1e-3)
	assert.InDelta(t, 90, skeleton.FindBone("lower").WorldRotationX(), 1e-3)
}

func transformRig(local, relative bool, mix float32, offsetRotation, offsetX float32) string {
	return fmt.Sprintf(`{
	"bones": [
		{"name": "root"},
		{"name": "follower", "parent": "root", "x": 5, "rotation": 10},
		{"name": "target", "parent": "root", "x": 50, "y": 20, "rotation": 30, "scaleX": 2}
	],
	"transform": [{
		"name": "follow", "bones": ["follower"], "target": "target",
		"local": %t, "relative": %t, "rotation": %g, "x": %g,
		"rotateMix": %g, "translateMix": %g, "scaleMix": %g, "shearMix": %g
	}]
}`, local, relative, offsetRotation, offsetX, mix, mix, mix, mix)
}

func TestTransformConstraint(t *testing.T) {
	tests := []struct {
		name     string
		local    bool
		relative bool
		mix      float32
		offsetR  float32
		offsetX  float32
		rotation float32
		pos      mgl32.Vec2
		scaleX   float32
	}{
		{"absolute world", false, false, 1, 0, 0, 30, mgl32.Vec2{50, 20}, 2},
		{"absolute world half mix", false, false, 0.5, 0, 0, 20, mgl32.Vec2{27.5, 10}, 1.5},
		{"absolute world offset", false, false, 1, 10, 10, 40, mgl32.Vec2{67.3205, 30}, 2},
		{"relative world", false, true, 1, 0, 0, 40, mgl32.Vec2{55, 20}, 2},
		{"absolute local", true, false, 1, 0, 0, 30, mgl32.Vec2{50, 20}, 2},
		{"absolute local half mix", true, false, 0.5, 0, 0, 20, mgl32.Vec2{27.5, 10}, 1.5},
		{"relative local", true, true, 1, 0, 0, 40, mgl32.Vec2{55, 20}, 2},
		{"no mix", false, false, 0, 0, 0, 10, mgl32.Vec2{5, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skeleton := newRig(t, transformRig(tt.local, tt.relative, tt.mix, tt.offsetR, tt.offsetX))
			skeleton.UpdateWorldTransform()
			follower := skeleton.FindBone("follower")
			assert.InDelta(t, tt.rotation, follower.WorldRotationX(), 1e-3)
			assertVec2(t, tt.pos, follower.WorldPos)
			assert.InDelta(t, tt.scaleX, follower.WorldScaleX(), 1e-3)
			assert.InDelta(t, 1, follower.WorldScaleY(), 1e-3)
			// 约束不改变目标
			assert.InDelta(t, 30, skeleton.FindBone("target").WorldRotationX(), 1e-3)
		})
	}
}

func TestTransformConstraintUpdateCache(t *testing.T) {
	world := newRig(t, transformRig(false, false, 1, 0, 0))
	follower := world.FindBone("follower")
	assert.Contains(t, world.updateCache, Updatable(follower))
	assert.Empty(t, world.updateCacheReset)

	// local 模式由约束计算骨骼，每帧先还原 applied 变换
	local := newRig(t, transformRig(true, false, 1, 0, 0))
	follower = local.FindBone("follower")
	assert.NotContains(t, local.updateCache, Updatable(follower))
	assert.Equal(t, []*Bone{follower}, local.updateCacheReset)
}

// 竖直的直线路径，控制点等距，曲线参数与长度成正比
func pathRig(positionMode, spacingMode, rotateMode string, position, spacing float32, constantSpeed bool) string {
	return fmt.Sprintf(`{
	"bones": [
		{"name": "root"},
		{"name": "b1", "parent": "root", "length": 50},
		{"name": "b2", "parent": "b1", "length": 50, "x": 50}
	],
	"slots": [{"name": "path", "bone": "root", "attachment": "path"}],
	"path": [{
		"name": "follow", "bones": ["b1", "b2"], "target": "path",
		"positionMode": %q, "spacingMode": %q, "rotateMode": %q,
		"position": %g, "spacing": %g
	}],
	"skins": [{
		"name": "default",
		"attachments": {"path": {"path": {
			"type": "path", "constantSpeed": %t, "lengths": [300, 600], "vertexCount": 6,
			"vertices": [0, -100, 0, 0, 0, 100, 0, 200, 0, 300, 0, 400]
		}}}
	}]
}`, positionMode, spacingMode, rotateMode, position, spacing, constantSpeed)
}

func TestPathConstraint(t *testing.T) {
	tests := []struct {
		name         string
		positionMode string
		spacingMode  string
		rotateMode   string
		position     float32
		spacing      float32
		constant     bool
		b1, b2       mgl32.Vec2
		scaleX       float32
	}{
		{"fixed tangent", "fixed", "length", "tangent", 100, 0, false, mgl32.Vec2{0, 100}, mgl32.Vec2{0, 150}, 1},
		{"percent fixed spacing", "percent", "fixed", "tangent", 0.5, 20, false, mgl32.Vec2{0, 150}, mgl32.Vec2{0, 170}, 1},
		{"chain", "fixed", "length", "chain", 0, 0, false, mgl32.Vec2{0, 0}, mgl32.Vec2{0, 50}, 1},
		{"chain scale", "fixed", "percent", "chainScale", 0, 0.25, false, mgl32.Vec2{0, 0}, mgl32.Vec2{0, 75}, 1.5},
		{"constant speed", "percent", "length", "tangent", 0.5, 0, true, mgl32.Vec2{0, 150}, mgl32.Vec2{0, 200}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skeleton := newRig(t, pathRig(tt.positionMode, tt.spacingMode, tt.rotateMode, tt.position, tt.spacing, tt.constant))
			require.IsType(t, &PathAttachment{}, skeleton.FindSlot("path").Attachment())
			skeleton.UpdateWorldTransform()

			b1, b2 := skeleton.FindBone("b1"), skeleton.FindBone("b2")
			assertVec2(t, tt.b1, b1.WorldPos)
			assertVec2(t, tt.b2, b2.WorldPos)
			for _, bone := range []*Bone{b1, b2} {
				assert.InDelta(t, 90, bone.WorldRotationX(), 1e-2, bone.Data.Name)
				assert.InDelta(t, tt.scaleX, bone.WorldScaleX(), 1e-3, bone.Data.Name)
			}
		})
	}
}

func TestPathConstraintWithoutPath(t *testing.T) {
	skeleton := newRig(t, pathRig("fixed", "length", "tangent", 100, 0, false))
	require.NoError(t, skeleton.SetAttachment("path", ""))
	skeleton.UpdateWorldTransform()
	// 没有路径附件时保持原样
	b2 := skeleton.FindBone("b2")
	assertVec2(t, mgl32.Vec2{50, 0}, b2.WorldPos)
	assert.InDelta(t, 0, b2.WorldRotationX(), 1e-3)
}

func TestUpdateCacheOrder(t *testing.T) {
	rig := func(ikOrder, transformOrder int) string {
		return fmt.Sprintf(`{
	"bones": [
		{"name": "root"},
		{"name": "a", "parent": "root"},
		{"name": "b", "parent": "root", "length": 10},
		{"name": "c", "parent": "root", "x": 10}
	],
	"ik": [{"name": "ik", "order": %d, "bones": ["b"], "target": "c"}],
	"transform": [{"name": "transform", "order": %d, "bones": ["a"], "target": "c"}]
}`, ikOrder, transformOrder)
	}
	tests := []struct {
		name      string
		ik, trans int
		ikFirst   bool
	}{
		{"ik first", 0, 1, true},
		{"transform first", 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skeleton := newRig(t, rig(tt.ik, tt.trans))
			cache := skeleton.updateCache
			ik := slices.Index(cache, Updatable(skeleton.FindIkConstraint("ik")))
			transform := slices.Index(cache, Updatable(skeleton.FindTransformConstraint("transform")))
			require.GreaterOrEqual(t, ik, 0)
			require.GreaterOrEqual(t, transform, 0)
			assert.Equal(t, tt.ikFirst, ik < transform)

			// 目标和被约束骨骼都在约束之前更新
			for _, name := range []string{"c", "b"} {
				assert.Less(t, slices.Index(cache, Updatable(skeleton.FindBone(name))), ik, name)
			}
			assert.Less(t, slices.Index(cache, Updatable(skeleton.FindBone("a"))), transform)
			assert.Len(t, cache, 6)
		})
	}
}
