package spine

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SkeletonBounds 收集所有包围盒附件的世界坐标多边形，用于点击与碰撞检测
type SkeletonBounds struct {
	BoundingBoxes []*BoundingBoxAttachment
	Polygons      [][]mgl32.Vec2
	Min, Max      mgl32.Vec2
}

func NewSkeletonBounds() *SkeletonBounds {
	return &SkeletonBounds{}
}

// Update updateAabb 为 false 时包围盒视为无限大
func (b *SkeletonBounds) Update(skeleton *Skeleton, updateAabb bool) {
	b.BoundingBoxes = b.BoundingBoxes[:0]
	polygons := b.Polygons
	b.Polygons = b.Polygons[:0]
	for _, slot := range skeleton.Slots {
		if !slot.Bone.IsActive() {
			continue
		}
		box, ok := slot.Attachment().(*BoundingBoxAttachment)
		if !ok {
			continue
		}
		var polygon []mgl32.Vec2
		if idx := len(b.Polygons); idx < len(polygons) { // 复用之前的内存
			polygon = polygons[idx]
		}
		b.BoundingBoxes = append(b.BoundingBoxes, box)
		b.Polygons = append(b.Polygons, box.ComputeWorldVertices(slot, polygon))
	}
	if updateAabb {
		b.computeAabb()
		return
	}
	b.Min = mgl32.Vec2{-math.MaxFloat32, -math.MaxFloat32}
	b.Max = mgl32.Vec2{math.MaxFloat32, math.MaxFloat32}
}

func (b *SkeletonBounds) computeAabb() {
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, polygon := range b.Polygons {
		for _, item := range polygon {
			minX, minY = min(minX, item.X()), min(minY, item.Y())
			maxX, maxY = max(maxX, item.X()), max(maxY, item.Y())
		}
	}
	b.Min = mgl32.Vec2{minX, minY}
	b.Max = mgl32.Vec2{maxX, maxY}
}

func (b *SkeletonBounds) AabbContainsPoint(point mgl32.Vec2) bool {
	return point.X() >= b.Min.X() && point.X() <= b.Max.X() && point.Y() >= b.Min.Y() && point.Y() <= b.Max.Y()
}

func (b *SkeletonBounds) AabbIntersectsSegment(p1, p2 mgl32.Vec2) bool {
	minX, minY, maxX, maxY := b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()
	x1, y1, x2, y2 := p1.X(), p1.Y(), p2.X(), p2.Y()
	if (x1 <= minX && x2 <= minX) || (y1 <= minY && y2 <= minY) || (x1 >= maxX && x2 >= maxX) || (y1 >= maxY && y2 >= maxY) {
		return false
	}
	m := (y2 - y1) / (x2 - x1)
	if y := m*(minX-x1) + y1; y > minY && y < maxY {
		return true
	}
	if y := m*(maxX-x1) + y1; y > minY && y < maxY {
		return true
	}
	if x := (minY-y1)/m + x1; x > minX && x < maxX {
		return true
	}
	if x := (maxY-y1)/m + x1; x > minX && x < maxX {
		return true
	}
	return false
}

func (b *SkeletonBounds) AabbIntersectsSkeleton(other *SkeletonBounds) bool {
	return b.Min.X() < other.Max.X() && b.Max.X() > other.Min.X() && b.Min.Y() < other.Max.Y() && b.Max.Y() > other.Min.Y()
}

// ContainsPoint 返回第一个包含该点的包围盒，没有返回 nil
func (b *SkeletonBounds) ContainsPoint(point mgl32.Vec2) *BoundingBoxAttachment {
	for i, polygon := range b.Polygons {
		if PolygonContainsPoint(polygon, point) {
			return b.BoundingBoxes[i]
		}
	}
	return nil
}

// PolygonContainsPoint 奇偶规则
func PolygonContainsPoint(polygon []mgl32.Vec2, point mgl32.Vec2) bool {
	if len(polygon) == 0 {
		return false
	}
	x, y := point.X(), point.Y()
	inside := false
	prev := polygon[len(polygon)-1]
	for _, vertex := range polygon {
		if (vertex.Y() < y && prev.Y() >= y) || (prev.Y() < y && vertex.Y() >= y) {
			if vertex.X()+(y-vertex.Y())/(prev.Y()-vertex.Y())*(prev.X()-vertex.X()) < x {
				inside = !inside
			}
		}
		prev = vertex
	}
	return inside
}

// IntersectsSegment 返回第一个与线段相交的包围盒
func (b *SkeletonBounds) IntersectsSegment(p1, p2 mgl32.Vec2) *BoundingBoxAttachment {
	for i, polygon := range b.Polygons {
		if PolygonIntersectsSegment(polygon, p1, p2) {
			return b.BoundingBoxes[i]
		}
	}
	return nil
}

func PolygonIntersectsSegment(polygon []mgl32.Vec2, p1, p2 mgl32.Vec2) bool {
	if len(polygon) == 0 {
		return false
	}
	x1, y1, x2, y2 := p1.X(), p1.Y(), p2.X(), p2.Y()
	width12, height12 := x1-x2, y1-y2
	det1 := x1*y2 - y1*x2
	x3, y3 := polygon[len(polygon)-1].X(), polygon[len(polygon)-1].Y()
	for _, vertex := range polygon {
		x4, y4 := vertex.X(), vertex.Y()
		det2 := x3*y4 - y3*x4
		width34, height34 := x3-x4, y3-y4
		det3 := width12*height34 - height12*width34
		x := (det1*width34 - width12*det2) / det3
		if ((x >= x3 && x <= x4) || (x >= x4 && x <= x3)) && ((x >= x1 && x <= x2) || (x >= x2 && x <= x1)) {
			y := (det1*height34 - height12*det2) / det3
			if ((y >= y3 && y <= y4) || (y >= y4 && y <= y3)) && ((y >= y1 && y <= y2) || (y >= y2 && y <= y1)) {
				return true
			}
		}
		x3, y3 = x4, y4
	}
	return false
}

func (b *SkeletonBounds) GetPolygon(box *BoundingBoxAttachment) []mgl32.Vec2 {
	for i, item := range b.BoundingBoxes {
		if item == box {
			return b.Polygons[i]
		}
	}
	return nil
}

func (b *SkeletonBounds) Width() float32 {
	return b.Max.X() - b.Min.X()
}

func (b *SkeletonBounds) Height() float32 {
	return b.Max.Y() - b.Min.Y()
}
