package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/colorm"

	"spine_treats/internal/spine"
)

// 区域附件四个角 BL UL UR BR
var quadTriangles = []uint16{0, 1, 2, 2, 3, 0}

// Renderer 按绘制顺序画出骨骼的区域与网格附件
type Renderer struct {
	clipper  *spine.SkeletonClipping
	world    []mgl32.Vec2
	vertices []ebiten.Vertex
	colorM   colorm.ColorM
	options  *colorm.DrawTrianglesOptions
	shaderOp *ebiten.DrawTrianglesShaderOptions
	uniforms map[string]any
}

func NewRenderer() *Renderer {
	res := &Renderer{
		clipper:  spine.NewSkeletonClipping(),
		options:  &colorm.DrawTrianglesOptions{},
		shaderOp: &ebiten.DrawTrianglesShaderOptions{},
		uniforms: make(map[string]any, 2),
	}
	res.shaderOp.Uniforms = res.uniforms
	return res
}

func NewVertex(dx, dy, sx, sy float32) ebiten.Vertex {
	return ebiten.Vertex{
		DstX:   dx,
		DstY:   dy,
		SrcX:   sx,
		SrcY:   sy,
		ColorR: 1,
		ColorG: 1,
		ColorB: 1,
		ColorA: 1,
	}
}

// appendVertices uv 是页面内 0~1 的坐标，换算成贴图像素
func appendVertices(dst []ebiten.Vertex, world, uvs []mgl32.Vec2, w, h float32) []ebiten.Vertex {
	for i, item := range world {
		uv := uvs[i]
		dst = append(dst, NewVertex(item.X(), item.Y(), uv.X()*w, uv.Y()*h))
	}
	return dst
}

// slotColor 骨骼颜色 * 插槽颜色 * 附件颜色
func slotColor(skeleton *spine.Skeleton, slot *spine.Slot, attachment mgl32.Vec4) mgl32.Vec4 {
	return spine.Vec4Mul(spine.Vec4Mul(skeleton.Color, slot.Color), attachment)
}

func filterFor(page *spine.AtlasPage) ebiten.Filter {
	if page.MagFilter == spine.FilterLinear || page.MinFilter == spine.FilterLinear {
		return ebiten.FilterLinear
	}
	return ebiten.FilterNearest
}

func addressFor(page *spine.AtlasPage) ebiten.Address {
	if page.UWrap == "Repeat" || page.VWrap == "Repeat" {
		return ebiten.AddressRepeat
	}
	return ebiten.AddressUnsafe
}

func (r *Renderer) Draw(screen *ebiten.Image, skeleton *spine.Skeleton) {
	for _, slot := range skeleton.DrawOrder {
		r.drawSlot(screen, skeleton, slot)
		r.clipper.ClipEndWithSlot(slot)
	}
	r.clipper.ClipEnd()
}

func (r *Renderer) drawSlot(screen *ebiten.Image, skeleton *spine.Skeleton, slot *spine.Slot) {
	if !slot.Bone.IsActive() {
		return
	}
	var uvs []mgl32.Vec2
	var triangles []uint16
	var tint mgl32.Vec4
	var region *spine.AtlasRegion
	// 不同组件的展示是 动画控制的，没有附件就不画
	switch attachment := slot.Attachment().(type) {
	case *spine.RegionAttachment:
		r.world = attachment.ComputeWorldVertices(slot.Bone, r.world)
		uvs, triangles = attachment.UVs[:], quadTriangles
		tint, region = attachment.Color, attachment.Region
	case *spine.MeshAttachment:
		r.world = attachment.ComputeWorldVertices(slot, r.world)
		uvs, triangles = attachment.UVs, attachment.Triangles
		tint, region = attachment.Color, attachment.Region
	case *spine.ClippingAttachment:
		r.clipper.ClipStart(slot, attachment)
		return
	default:
		return
	}
	if region == nil {
		return
	}
	texture, ok := region.Page.Texture.(*ebiten.Image)
	if !ok {
		return // 没有加载贴图
	}
	world := r.world
	if r.clipper.IsClipping() {
		r.clipper.ClipTriangles(world, triangles, uvs)
		world, uvs, triangles = r.clipper.ClippedVertices, r.clipper.ClippedUVs, r.clipper.ClippedTriangles
	}
	if len(triangles) == 0 {
		return
	}
	bound := texture.Bounds()
	r.vertices = appendVertices(r.vertices[:0], world, uvs, float32(bound.Dx()), float32(bound.Dy()))
	color := slotColor(skeleton, slot, tint)
	blend := blendFor(slot.Data.BlendMode)

	if slot.Data.HasDarkColor {
		dark := slot.DarkColor
		r.uniforms["Light"] = []float32{color[0], color[1], color[2], color[3]}
		r.uniforms["Dark"] = []float32{dark[0], dark[1], dark[2], 1}
		r.shaderOp.Images[0] = texture
		r.shaderOp.Blend = blend
		screen.DrawTrianglesShader(r.vertices, triangles, ensureTwoColorShader(), r.shaderOp)
		return
	}
	r.colorM.Reset()
	r.colorM.Scale(float64(color[0]), float64(color[1]), float64(color[2]), float64(color[3]))
	r.options.Blend = blend
	r.options.Filter = filterFor(region.Page)
	r.options.Address = addressFor(region.Page)
	colorm.DrawTriangles(screen, r.vertices, triangles, texture, r.colorM, r.options)
}
