package spine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangulateSquare(t *testing.T) {
	// 顺时针
	square := []mgl32.Vec2{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	var triangulator Triangulator
	triangles := triangulator.Triangulate(square)
	assert.Equal(t, []int{3, 0, 1, 3, 1, 2}, triangles)

	polygons := triangulator.Decompose(square, triangles)
	require.Len(t, polygons, 1)
	assert.Len(t, polygons[0], 4)
}

func TestTriangulateConcave(t *testing.T) {
	// 顺时针的 L 形
	polygon := []mgl32.Vec2{{0, 0}, {0, 20}, {10, 20}, {10, 10}, {20, 10}, {20, 0}}
	var triangulator Triangulator
	triangles := triangulator.Triangulate(polygon)
	require.Len(t, triangles, 12)
	var area float32
	for i := 0; i < len(triangles); i += 3 {
		p1, p2, p3 := polygon[triangles[i]], polygon[triangles[i+1]], polygon[triangles[i+2]]
		area += Abs(p2.Sub(p1).Vec3(0).Cross(p3.Sub(p1).Vec3(0)).Z()) / 2
	}
	assert.InDelta(t, 300, area, 1e-3)

	polygons := triangulator.Decompose(polygon, triangles)
	assert.GreaterOrEqual(t, len(polygons), 2)
}

func TestMakeClockwise(t *testing.T) {
	polygon := []mgl32.Vec2{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	makeClockwise(polygon)
	assert.Equal(t, []mgl32.Vec2{{0, 10}, {10, 10}, {10, 0}, {0, 0}}, polygon)
	makeClockwise(polygon)
	assert.Equal(t, []mgl32.Vec2{{0, 10}, {10, 10}, {10, 0}, {0, 0}}, polygon)
	makeClockwise(nil)
}

func newTestClip(t *testing.T) (*Skeleton, *Slot, *ClippingAttachment) {
	t.Helper()
	skeleton := NewSkeleton(loadJSONData(t))
	skeleton.UpdateWorldTransform()
	clip := NewClippingAttachment("clip")
	clip.Vertices = []mgl32.Vec2{{-10, 0}, {10, 0}, {10, 20}, {-10, 20}}
	clip.EndSlot = skeleton.FindSlot("body").Data
	return skeleton, skeleton.FindSlot("head-bb"), clip
}

func TestSkeletonClipping(t *testing.T) {
	skeleton, slot, clip := newTestClip(t)
	clipping := NewSkeletonClipping()
	assert.False(t, clipping.IsClipping())
	require.Equal(t, 1, clipping.ClipStart(slot, clip))
	assert.True(t, clipping.IsClipping())
	// 已经在裁剪时忽略新的裁剪附件
	assert.Zero(t, clipping.ClipStart(slot, clip))

	uvOf := func(items ...mgl32.Vec2) []mgl32.Vec2 {
		res := make([]mgl32.Vec2, len(items))
		for i, item := range items {
			res[i] = item.Mul(0.001)
		}
		return res
	}

	inside := []mgl32.Vec2{{-5, 155}, {0, 165}, {5, 155}}
	clipping.ClipTriangles(inside, []uint16{0, 1, 2}, uvOf(inside...))
	assert.Equal(t, inside, clipping.ClippedVertices)
	assert.Equal(t, []uint16{0, 1, 2}, clipping.ClippedTriangles)

	outside := []mgl32.Vec2{{500, 500}, {510, 500}, {505, 510}}
	clipping.ClipTriangles(outside, []uint16{0, 1, 2}, uvOf(outside...))
	assert.Empty(t, clipping.ClippedVertices)
	assert.Empty(t, clipping.ClippedTriangles)

	// 覆盖整个裁剪区域的三角形被裁成裁剪区域本身
	cover := []mgl32.Vec2{{-100, 100}, {100, 100}, {0, 300}}
	clipping.ClipTriangles(cover, []uint16{0, 1, 2}, uvOf(cover...))
	require.Len(t, clipping.ClippedVertices, 4)
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3}, clipping.ClippedTriangles)
	for i, item := range clipping.ClippedVertices {
		assert.InDelta(t, 10, Abs(item.X()), 1e-3)
		assert.True(t, Abs(item.Y()-150) < 1e-3 || Abs(item.Y()-170) < 1e-3, "vertex %v", item)
		// uv 是位置的线性函数，插值后保持不变
		assertVec2(t, item.Mul(0.001), clipping.ClippedUVs[i])
	}

	clipping.ClipEndWithSlot(skeleton.FindSlot("head"))
	assert.True(t, clipping.IsClipping())
	clipping.ClipEndWithSlot(skeleton.FindSlot("body"))
	assert.False(t, clipping.IsClipping())
	assert.Empty(t, clipping.ClippedVertices)
}

func TestSkeletonClippingDegenerate(t *testing.T) {
	_, slot, clip := newTestClip(t)
	clip.Vertices = clip.Vertices[:2]
	clipping := NewSkeletonClipping()
	assert.Zero(t, clipping.ClipStart(slot, clip))
	assert.False(t, clipping.IsClipping())
	clipping.ClipEnd()
}

func TestClipTrianglePartial(t *testing.T) {
	area := []mgl32.Vec2{{0, 10}, {10, 10}, {10, 0}, {0, 0}, {0, 10}}
	output, clipped := clipTriangle(mgl32.Vec2{5, 5}, mgl32.Vec2{15, 5}, mgl32.Vec2{5, 8}, area)
	require.True(t, clipped)
	require.Len(t, output, 4)
	for _, item := range output {
		assert.LessOrEqual(t, item.X(), float32(10.001))
	}

	output, clipped = clipTriangle(mgl32.Vec2{1, 1}, mgl32.Vec2{2, 1}, mgl32.Vec2{1, 2}, area)
	assert.False(t, clipped)
	assert.Len(t, output, 3)
}
