package spine

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Triangulator 耳切法三角化简单多边形，再合并为凸多边形
type Triangulator struct {
	indices   []int
	concave   []bool
	triangles []int
}

// Triangulate 返回顶点下标，每三个一组
func (t *Triangulator) Triangulate(vertices []mgl32.Vec2) []int {
	vertexCount := len(vertices)
	t.indices = t.indices[:0]
	t.concave = t.concave[:0]
	for i := 0; i < vertexCount; i++ {
		t.indices = append(t.indices, i)
	}
	for i := 0; i < vertexCount; i++ {
		t.concave = append(t.concave, isConcave(i, vertexCount, vertices, t.indices))
	}
	t.triangles = t.triangles[:0]
	for vertexCount > 3 {
		// 找耳尖
		previous, i, next := vertexCount-1, 0, 1
		for {
			if !t.concave[i] && t.isEar(vertices, previous, i, next, vertexCount) {
				break
			}
			if next == 0 {
				for i > 0 && t.concave[i] {
					i--
				}
				break
			}
			previous, i, next = i, next, (next+1)%vertexCount
		}
		// 切掉耳尖
		t.triangles = append(t.triangles,
			t.indices[(vertexCount+i-1)%vertexCount], t.indices[i], t.indices[(i+1)%vertexCount])
		t.indices = append(t.indices[:i], t.indices[i+1:]...)
		t.concave = append(t.concave[:i], t.concave[i+1:]...)
		vertexCount--
		previousIndex := (vertexCount + i - 1) % vertexCount
		nextIndex := i
		if i == vertexCount {
			nextIndex = 0
		}
		t.concave[previousIndex] = isConcave(previousIndex, vertexCount, vertices, t.indices)
		t.concave[nextIndex] = isConcave(nextIndex, vertexCount, vertices, t.indices)
	}
	if vertexCount == 3 {
		t.triangles = append(t.triangles, t.indices[2], t.indices[0], t.indices[1])
	}
	return t.triangles
}

// isEar 三角形内没有凹点
func (t *Triangulator) isEar(vertices []mgl32.Vec2, previous, i, next, vertexCount int) bool {
	p1, p2, p3 := vertices[t.indices[previous]], vertices[t.indices[i]], vertices[t.indices[next]]
	for ii := (next + 1) % vertexCount; ii != previous; ii = (ii + 1) % vertexCount {
		if !t.concave[ii] {
			continue
		}
		v := vertices[t.indices[ii]]
		if positiveArea(p3, p1, v) && positiveArea(p1, p2, v) && positiveArea(p2, p3, v) {
			return false
		}
	}
	return true
}

// Decompose 把三角形合并成尽量少的凸多边形
func (t *Triangulator) Decompose(vertices []mgl32.Vec2, triangles []int) [][]mgl32.Vec2 {
	polygons := make([][]mgl32.Vec2, 0)
	polygonsIndices := make([][]int, 0)
	var polygon []mgl32.Vec2
	var polygonIndices []int
	// 相邻的三角形如果共用顶点且保持凸就合并成扇形
	fanBaseIndex, lastWinding := -1, 0
	for i := 0; i+2 < len(triangles); i += 3 {
		t1, t2, t3 := triangles[i], triangles[i+1], triangles[i+2]
		p1, p2, p3 := vertices[t1], vertices[t2], vertices[t3]
		merged := false
		if fanBaseIndex == t1 {
			o := len(polygon) - 2
			winding1 := winding(polygon[o], polygon[o+1], p3)
			winding2 := winding(p3, polygon[0], polygon[1])
			if winding1 == lastWinding && winding2 == lastWinding {
				polygon = append(polygon, p3)
				polygonIndices = append(polygonIndices, t3)
				merged = true
			}
		}
		if !merged {
			if len(polygon) > 0 {
				polygons = append(polygons, polygon)
				polygonsIndices = append(polygonsIndices, polygonIndices)
			}
			polygon = []mgl32.Vec2{p1, p2, p3}
			polygonIndices = []int{t1, t2, t3}
			lastWinding = winding(p1, p2, p3)
			fanBaseIndex = t1
		}
	}
	if len(polygon) > 0 {
		polygons = append(polygons, polygon)
		polygonsIndices = append(polygonsIndices, polygonIndices)
	}

	// 剩下的三角形再尝试并入扇形
	for i := range polygons {
		indices := polygonsIndices[i]
		if len(indices) == 0 {
			continue
		}
		firstIndex, lastIndex := indices[0], indices[len(indices)-1]
		o := len(polygons[i]) - 2
		prevPrev, prev := polygons[i][o], polygons[i][o+1]
		first, second := polygons[i][0], polygons[i][1]
		windingValue := winding(prevPrev, prev, first)
		for ii := 0; ii < len(polygons); ii++ {
			if ii == i {
				continue
			}
			otherIndices := polygonsIndices[ii]
			if len(otherIndices) != 3 {
				continue
			}
			if otherIndices[0] != firstIndex || otherIndices[1] != lastIndex {
				continue
			}
			p3 := polygons[ii][2]
			if winding(prevPrev, prev, p3) == windingValue && winding(p3, first, second) == windingValue {
				polygons[ii] = polygons[ii][:0]
				polygonsIndices[ii] = polygonsIndices[ii][:0]
				polygons[i] = append(polygons[i], p3)
				polygonsIndices[i] = append(polygonsIndices[i], otherIndices[2])
				lastIndex = otherIndices[2]
				prevPrev, prev = prev, p3
				ii = 0
			}
		}
	}

	res := make([][]mgl32.Vec2, 0, len(polygons))
	for _, item := range polygons {
		if len(item) > 0 {
			res = append(res, item)
		}
	}
	return res
}

func isConcave(index, vertexCount int, vertices []mgl32.Vec2, indices []int) bool {
	previous := vertices[indices[(vertexCount+index-1)%vertexCount]]
	current := vertices[indices[index]]
	next := vertices[indices[(index+1)%vertexCount]]
	return !positiveArea(previous, current, next)
}

func positiveArea(p1, p2, p3 mgl32.Vec2) bool {
	return p1.X()*(p3.Y()-p2.Y())+p2.X()*(p1.Y()-p3.Y())+p3.X()*(p2.Y()-p1.Y()) >= 0
}

func winding(p1, p2, p3 mgl32.Vec2) int {
	px, py := p2.X()-p1.X(), p2.Y()-p1.Y()
	if p3.X()*py-p3.Y()*px+px*p1.Y()-p1.X()*py >= 0 {
		return 1
	}
	return -1
}
