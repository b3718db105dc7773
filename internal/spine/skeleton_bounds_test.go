package spine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkeletonBoundsUpdate(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	skeleton.UpdateWorldTransform()
	bounds := NewSkeletonBounds()
	bounds.Update(skeleton, true)

	require.Len(t, bounds.BoundingBoxes, 1)
	box := bounds.BoundingBoxes[0]
	assert.Equal(t, "head-bb", box.Name())
	assertVec2(t, mgl32.Vec2{-20, 150}, bounds.Min)
	assertVec2(t, mgl32.Vec2{20, 190}, bounds.Max)
	assert.InDelta(t, 40, bounds.Width(), 1e-3)
	assert.InDelta(t, 40, bounds.Height(), 1e-3)
	assert.Len(t, bounds.GetPolygon(box), 4)
	assert.Nil(t, bounds.GetPolygon(NewBoundingBoxAttachment("other")))

	assert.Same(t, box, bounds.ContainsPoint(mgl32.Vec2{0, 170}))
	assert.Nil(t, bounds.ContainsPoint(mgl32.Vec2{0, 100}))
	assert.True(t, bounds.AabbContainsPoint(mgl32.Vec2{19.9, 189.9}))
	assert.True(t, bounds.AabbContainsPoint(mgl32.Vec2{-19.9, 150.1}))
	assert.False(t, bounds.AabbContainsPoint(mgl32.Vec2{21, 190}))

	assert.Same(t, box, bounds.IntersectsSegment(mgl32.Vec2{-50, 170}, mgl32.Vec2{50, 170}))
	assert.Nil(t, bounds.IntersectsSegment(mgl32.Vec2{-50, 0}, mgl32.Vec2{50, 0}))
	assert.True(t, bounds.AabbIntersectsSegment(mgl32.Vec2{-50, 170}, mgl32.Vec2{50, 170}))
	assert.False(t, bounds.AabbIntersectsSegment(mgl32.Vec2{-50, 0}, mgl32.Vec2{50, 0}))

	other := &SkeletonBounds{Min: mgl32.Vec2{10, 180}, Max: mgl32.Vec2{30, 200}}
	assert.True(t, bounds.AabbIntersectsSkeleton(other))
	other.Min, other.Max = mgl32.Vec2{30, 180}, mgl32.Vec2{40, 200}
	assert.False(t, bounds.AabbIntersectsSkeleton(other))
}

func TestSkeletonBoundsFollowsSkeleton(t *testing.T) {
	skeleton := NewSkeleton(loadJSONData(t))
	skeleton.X, skeleton.Y = 320, 390
	skeleton.ScaleY = -1
	skeleton.UpdateWorldTransform()
	bounds := NewSkeletonBounds()
	bounds.Update(skeleton, false)
	require.Len(t, bounds.Polygons, 1)
	// 没有更新 aabb 时视为无限大
	assert.True(t, bounds.AabbContainsPoint(mgl32.Vec2{1e6, -1e6}))
	assert.NotNil(t, bounds.ContainsPoint(mgl32.Vec2{320, 220}))
	assert.Nil(t, bounds.ContainsPoint(mgl32.Vec2{320, 560}))

	require.NoError(t, skeleton.SetAttachment("head-bb", ""))
	bounds.Update(skeleton, true)
	assert.Empty(t, bounds.BoundingBoxes)
	assert.Nil(t, bounds.ContainsPoint(mgl32.Vec2{320, 220}))
}

func TestPolygonContainsPoint(t *testing.T) {
	// L 形凹多边形
	polygon := []mgl32.Vec2{{0, 0}, {20, 0}, {20, 10}, {10, 10}, {10, 20}, {0, 20}}
	tests := []struct {
		point mgl32.Vec2
		want  bool
	}{
		{point: mgl32.Vec2{5, 5}, want: true},
		{point: mgl32.Vec2{15, 5}, want: true},
		{point: mgl32.Vec2{5, 15}, want: true},
		{point: mgl32.Vec2{15, 15}, want: false},
		{point: mgl32.Vec2{-1, 5}, want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PolygonContainsPoint(polygon, tt.point), "point %v", tt.point)
	}
	assert.False(t, PolygonContainsPoint(nil, mgl32.Vec2{}))

	assert.True(t, PolygonIntersectsSegment(polygon, mgl32.Vec2{15, 15}, mgl32.Vec2{15, 5}))
	assert.False(t, PolygonIntersectsSegment(polygon, mgl32.Vec2{15, 15}, mgl32.Vec2{25, 25}))
	assert.False(t, PolygonIntersectsSegment(nil, mgl32.Vec2{}, mgl32.Vec2{1, 1}))
}
