package spine

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SkeletonClipping 用裁剪附件的多边形裁剪后续插槽的三角形，直到 EndSlot
type SkeletonClipping struct {
	ClippedVertices  []mgl32.Vec2
	ClippedUVs       []mgl32.Vec2
	ClippedTriangles []uint16

	triangulator     Triangulator
	clipAttachment   *ClippingAttachment
	clippingPolygons [][]mgl32.Vec2 // 顺时针且首尾闭合的凸多边形
}

func NewSkeletonClipping() *SkeletonClipping {
	return &SkeletonClipping{}
}

// ClipStart 返回拆分出的凸多边形数量，已经在裁剪或顶点不足时返回 0
func (c *SkeletonClipping) ClipStart(slot *Slot, clip *ClippingAttachment) int {
	if c.clipAttachment != nil {
		return 0
	}
	if clip.VertexCount() < 3 {
		return 0
	}
	c.clipAttachment = clip
	polygon := clip.ComputeWorldVertices(slot, nil)
	makeClockwise(polygon)
	triangles := c.triangulator.Triangulate(polygon)
	c.clippingPolygons = c.triangulator.Decompose(polygon, triangles)
	for i, item := range c.clippingPolygons {
		makeClockwise(item)
		c.clippingPolygons[i] = append(item, item[0])
	}
	return len(c.clippingPolygons)
}

// ClipEndWithSlot 到达裁剪附件的结束插槽时停止裁剪
func (c *SkeletonClipping) ClipEndWithSlot(slot *Slot) {
	if c.clipAttachment != nil && c.clipAttachment.EndSlot == slot.Data {
		c.ClipEnd()
	}
}

func (c *SkeletonClipping) ClipEnd() {
	if c.clipAttachment == nil {
		return
	}
	c.clipAttachment = nil
	c.clippingPolygons = nil
	c.ClippedVertices = c.ClippedVertices[:0]
	c.ClippedUVs = c.ClippedUVs[:0]
	c.ClippedTriangles = c.ClippedTriangles[:0]
}

func (c *SkeletonClipping) IsClipping() bool {
	return c.clipAttachment != nil
}

// ClipTriangles 结果写入 ClippedVertices ClippedUVs ClippedTriangles，uv 按重心坐标插值
func (c *SkeletonClipping) ClipTriangles(vertices []mgl32.Vec2, triangles []uint16, uvs []mgl32.Vec2) {
	c.ClippedVertices = c.ClippedVertices[:0]
	c.ClippedUVs = c.ClippedUVs[:0]
	c.ClippedTriangles = c.ClippedTriangles[:0]
	index := uint16(0)
outer:
	for i := 0; i+2 < len(triangles); i += 3 {
		i1, i2, i3 := triangles[i], triangles[i+1], triangles[i+2]
		p1, p2, p3 := vertices[i1], vertices[i2], vertices[i3]
		uv1, uv2, uv3 := uvs[i1], uvs[i2], uvs[i3]
		for _, polygon := range c.clippingPolygons {
			output, clipped := clipTriangle(p1, p2, p3, polygon)
			if !clipped { // 完全在内部
				c.ClippedVertices = append(c.ClippedVertices, p1, p2, p3)
				c.ClippedUVs = append(c.ClippedUVs, uv1, uv2, uv3)
				c.ClippedTriangles = append(c.ClippedTriangles, index, index+1, index+2)
				index += 3
				continue outer
			}
			if len(output) < 3 {
				continue
			}
			d0, d1, d2, d4 := p2.Y()-p3.Y(), p3.X()-p2.X(), p1.X()-p3.X(), p3.Y()-p1.Y()
			d := 1 / (d0*d2 + d1*(p1.Y()-p3.Y()))
			for _, point := range output {
				c0, c1 := point.X()-p3.X(), point.Y()-p3.Y()
				a := (d0*c0 + d1*c1) * d
				b := (d4*c0 + d2*c1) * d
				uv := uv1.Mul(a).Add(uv2.Mul(b)).Add(uv3.Mul(1 - a - b))
				c.ClippedVertices = append(c.ClippedVertices, point)
				c.ClippedUVs = append(c.ClippedUVs, uv)
			}
			for ii := 1; ii < len(output)-1; ii++ { // 凸多边形按扇形拆三角形
				c.ClippedTriangles = append(c.ClippedTriangles, index, index+uint16(ii), index+uint16(ii+1))
			}
			index += uint16(len(output))
		}
	}
}

// clipTriangle Sutherland-Hodgman 算法，area 必须顺时针且首尾闭合
// 三角形完全在内部时 clipped 为 false
func clipTriangle(p1, p2, p3 mgl32.Vec2, area []mgl32.Vec2) ([]mgl32.Vec2, bool) {
	clipped := false
	input := []mgl32.Vec2{p1, p2, p3, p1}
	for i := 0; i+1 < len(area); i++ {
		edge, edge2 := area[i], area[i+1]
		delta := edge.Sub(edge2)
		output := make([]mgl32.Vec2, 0, len(input)+1)
		for ii := 0; ii+1 < len(input); ii++ {
			in, in2 := input[ii], input[ii+1]
			side2 := delta.X()*(in2.Y()-edge2.Y())-delta.Y()*(in2.X()-edge2.X()) > 0
			if delta.X()*(in.Y()-edge2.Y())-delta.Y()*(in.X()-edge2.X()) > 0 {
				if side2 {
					output = append(output, in2)
					continue
				}
				output = append(output, intersect(edge, edge2, in, in2))
			} else if side2 {
				output = append(output, intersect(edge, edge2, in, in2), in2)
			}
			clipped = true
		}
		if len(output) == 0 { // 全部在外部
			return nil, true
		}
		input = append(output, output[0])
	}
	return input[:len(input)-1], clipped
}

func intersect(edge, edge2, in, in2 mgl32.Vec2) mgl32.Vec2 {
	c0, c2 := in2.Y()-in.Y(), in2.X()-in.X()
	s := c0*(edge2.X()-edge.X()) - c2*(edge2.Y()-edge.Y())
	if Abs(s) <= 0.000001 {
		return edge
	}
	ua := (c2*(edge.Y()-in.Y()) - c0*(edge.X()-in.X())) / s
	return edge.Add(edge2.Sub(edge).Mul(ua))
}

func makeClockwise(polygon []mgl32.Vec2) {
	if len(polygon) == 0 {
		return
	}
	last := polygon[len(polygon)-1]
	area := last.X()*polygon[0].Y() - polygon[0].X()*last.Y()
	for i := 0; i+1 < len(polygon); i++ {
		area += polygon[i].X()*polygon[i+1].Y() - polygon[i+1].X()*polygon[i].Y()
	}
	if area < 0 {
		return
	}
	for i, j := 0, len(polygon)-1; i < j; i, j = i+1, j-1 {
		polygon[i], polygon[j] = polygon[j], polygon[i]
	}
}
