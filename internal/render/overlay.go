package render

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"spine_treats/internal/spine"
)

var (
	aabbColor  = color.RGBA{R: 0x40, G: 0x80, B: 0xff, A: 0xff}
	boxColor   = color.RGBA{G: 0xc0, A: 0xff}
	hoverColor = color.RGBA{R: 0xff, A: 0xff}
)

// DrawBounds 画出 AABB 与每个包围盒多边形，鼠标所在的包围盒高亮
func DrawBounds(screen *ebiten.Image, bounds *spine.SkeletonBounds, hover *spine.BoundingBoxAttachment) {
	if len(bounds.Polygons) == 0 {
		return
	}
	vector.StrokeRect(screen, bounds.Min.X(), bounds.Min.Y(), bounds.Width(), bounds.Height(), 1, aabbColor, false)
	for i, polygon := range bounds.Polygons {
		clr := boxColor
		if bounds.BoundingBoxes[i] == hover {
			clr = hoverColor
		}
		strokePolygon(screen, polygon, clr)
	}
}

func strokePolygon(screen *ebiten.Image, polygon []mgl32.Vec2, clr color.Color) {
	for i, item := range polygon {
		next := polygon[(i+1)%len(polygon)]
		vector.StrokeLine(screen, item.X(), item.Y(), next.X(), next.Y(), 1, clr, true)
	}
}
