package spine

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

type AttachmentType uint8

const (
	AttachmentRegion AttachmentType = iota
	AttachmentBoundingBox
	AttachmentMesh
	AttachmentLinkedMesh
	AttachmentPath
	AttachmentPoint
	AttachmentClipping
)

var attachmentTypeNames = map[string]AttachmentType{
	"region":      AttachmentRegion,
	"boundingbox": AttachmentBoundingBox,
	"mesh":        AttachmentMesh,
	"linkedmesh":  AttachmentLinkedMesh,
	"path":        AttachmentPath,
	"point":       AttachmentPoint,
	"clipping":    AttachmentClipping,
}

func (t AttachmentType) String() string {
	for name, item := range attachmentTypeNames {
		if item == t {
			return name
		}
	}
	return fmt.Sprintf("AttachmentType(%d)", t)
}

type Attachment interface {
	Name() string
}

type attachmentBase struct {
	name string
}

func (a *attachmentBase) Name() string {
	return a.name
}

type WeightVertex struct {
	Bone   int        // 受那个骨骼影响
	Offset mgl32.Vec2 // 相对于骨骼位置偏移的大小
	Weight float32    // 受骨骼影响的权重
}

var nextVertexAttachmentID atomic.Int32

// VertexAttachment 非权重时使用 Vertices，权重时使用 WeightVertices
type VertexAttachment struct {
	attachmentBase
	ID               int
	Vertices         []mgl32.Vec2
	WeightVertices   [][]*WeightVertex
	DeformAttachment *VertexAttachment // 链接网格可以共用父网格的 deform 时间线
}

// VertexAttacher 所有顶点类附件都实现，用于比较 deform 来源
type VertexAttacher interface {
	Attachment
	Vertex() *VertexAttachment
}

func newVertexAttachment(name string) VertexAttachment {
	return VertexAttachment{attachmentBase: attachmentBase{name: name}, ID: int(nextVertexAttachmentID.Add(1))}
}

func (v *VertexAttachment) Vertex() *VertexAttachment {
	return v
}

func (v *VertexAttachment) Weighted() bool {
	return len(v.WeightVertices) > 0
}

func (v *VertexAttachment) VertexCount() int {
	if v.Weighted() {
		return len(v.WeightVertices)
	}
	return len(v.Vertices)
}

// DeformLength 权重网格按每个骨骼影响计数，非权重按顶点计数
func (v *VertexAttachment) DeformLength() int {
	if !v.Weighted() {
		return len(v.Vertices)
	}
	res := 0
	for _, items := range v.WeightVertices {
		res += len(items)
	}
	return res
}

// ComputeWorldVertices 计算所有顶点的世界坐标，slot 上的 deform 会叠加上去
func (v *VertexAttachment) ComputeWorldVertices(slot *Slot, out []mgl32.Vec2) []mgl32.Vec2 {
	out = out[:0]
	deform := slot.Deform
	if !v.Weighted() {
		vertices := v.Vertices
		if len(deform) > 0 {
			vertices = deform
		}
		for _, vertex := range vertices {
			out = append(out, slot.Bone.LocalToWorld(vertex))
		}
		return out
	}
	bones := slot.Bone.Skeleton.Bones
	idx := 0
	for _, items := range v.WeightVertices {
		res := mgl32.Vec2{}
		for _, item := range items {
			offset := item.Offset
			if len(deform) > 0 {
				offset = offset.Add(deform[idx])
			}
			idx++
			res = res.Add(bones[item.Bone].LocalToWorld(offset).Mul(item.Weight))
		}
		out = append(out, res)
	}
	return out
}

func (v *VertexAttachment) copyTo(other *VertexAttachment) {
	other.Vertices = v.Vertices
	other.WeightVertices = v.WeightVertices
}

// 四个角的顺序
const (
	BL = iota
	UL
	UR
	BR
)

type RegionAttachment struct {
	attachmentBase
	Path     string
	X, Y     float32
	ScaleX   float32
	ScaleY   float32
	Rotation float32
	Width    float32
	Height   float32
	Color    mgl32.Vec4
	Region   *AtlasRegion
	Offset   [4]mgl32.Vec2 // 骨骼局部坐标
	UVs      [4]mgl32.Vec2
}

func NewRegionAttachment(name string) *RegionAttachment {
	return &RegionAttachment{attachmentBase: attachmentBase{name: name}, ScaleX: 1, ScaleY: 1, Color: mgl32.Vec4{1, 1, 1, 1}}
}

func (r *RegionAttachment) SetRegion(region *AtlasRegion) {
	r.Region = region
	u, v, u2, v2 := region.U, region.V, region.U2, region.V2
	if region.Rotate { // 图集里逆时针旋转了 90 度
		r.UVs[UL] = mgl32.Vec2{u, v2}
		r.UVs[UR] = mgl32.Vec2{u, v}
		r.UVs[BR] = mgl32.Vec2{u2, v}
		r.UVs[BL] = mgl32.Vec2{u2, v2}
	} else {
		r.UVs[BL] = mgl32.Vec2{u, v2}
		r.UVs[UL] = mgl32.Vec2{u, v}
		r.UVs[UR] = mgl32.Vec2{u2, v}
		r.UVs[BR] = mgl32.Vec2{u2, v2}
	}
}

// UpdateOffset 根据尺寸、区域裁剪的空白与旋转计算四个角
func (r *RegionAttachment) UpdateOffset() {
	origW, origH := r.Width, r.Height
	packedW, packedH := r.Width, r.Height
	offsetX, offsetY := float32(0), float32(0)
	if r.Region != nil && r.Region.OrigW > 0 && r.Region.OrigH > 0 {
		origW, origH = float32(r.Region.OrigW), float32(r.Region.OrigH)
		packedW, packedH = float32(r.Region.W), float32(r.Region.H)
		offsetX, offsetY = float32(r.Region.OffsetX), float32(r.Region.OffsetY)
	}
	regionScaleX := r.Width / origW * r.ScaleX
	regionScaleY := r.Height / origH * r.ScaleY
	localX := -r.Width/2*r.ScaleX + offsetX*regionScaleX
	localY := -r.Height/2*r.ScaleY + offsetY*regionScaleY
	localX2 := localX + packedW*regionScaleX
	localY2 := localY + packedH*regionScaleY
	mat := RotateScale(r.Rotation, 1, 1)
	pos := mgl32.Vec2{r.X, r.Y}
	r.Offset[BL] = mat.Mul2x1(mgl32.Vec2{localX, localY}).Add(pos)
	r.Offset[UL] = mat.Mul2x1(mgl32.Vec2{localX, localY2}).Add(pos)
	r.Offset[UR] = mat.Mul2x1(mgl32.Vec2{localX2, localY2}).Add(pos)
	r.Offset[BR] = mat.Mul2x1(mgl32.Vec2{localX2, localY}).Add(pos)
}

func (r *RegionAttachment) ComputeWorldVertices(bone *Bone, out []mgl32.Vec2) []mgl32.Vec2 {
	out = out[:0]
	for _, item := range r.Offset {
		out = append(out, bone.LocalToWorld(item))
	}
	return out
}

type MeshAttachment struct {
	VertexAttachment
	Path          string
	Color         mgl32.Vec4
	RegionUVs     []mgl32.Vec2 // 0~1 相对原图
	UVs           []mgl32.Vec2 // 0~1 相对页面
	Triangles     []uint16
	HullLength    int
	Edges         []uint16
	Width, Height float32
	Region        *AtlasRegion
	ParentMesh    *MeshAttachment
}

func NewMeshAttachment(name string) *MeshAttachment {
	res := &MeshAttachment{VertexAttachment: newVertexAttachment(name), Color: mgl32.Vec4{1, 1, 1, 1}}
	res.DeformAttachment = &res.VertexAttachment
	return res
}

func (m *MeshAttachment) SetRegion(region *AtlasRegion) {
	m.Region = region
}

// UpdateUVs 把原图空间的 uv 映射到页面空间，考虑空白裁剪与旋转
func (m *MeshAttachment) UpdateUVs() {
	m.UVs = make([]mgl32.Vec2, len(m.RegionUVs))
	if m.Region == nil {
		copy(m.UVs, m.RegionUVs)
		return
	}
	region := m.Region
	pageW, pageH := float32(region.Page.W), float32(region.Page.H)
	if pageW == 0 || pageH == 0 {
		copy(m.UVs, m.RegionUVs)
		return
	}
	origW, origH := float32(region.OrigW), float32(region.OrigH)
	packedW, packedH := float32(region.W), float32(region.H)
	offsetX, offsetY := float32(region.OffsetX), float32(region.OffsetY)
	u, v := region.U, region.V
	if region.Rotate {
		u -= (origH - offsetY - packedH) / pageW
		v -= (origW - offsetX - packedW) / pageH
		w, h := origH/pageW, origW/pageH
		for i, uv := range m.RegionUVs {
			m.UVs[i] = mgl32.Vec2{u + uv.Y()*w, v + (1-uv.X())*h}
		}
		return
	}
	u -= offsetX / pageW
	v -= (origH - offsetY - packedH) / pageH
	w, h := origW/pageW, origH/pageH
	for i, uv := range m.RegionUVs {
		m.UVs[i] = mgl32.Vec2{u + uv.X()*w, v + uv.Y()*h}
	}
}

// SetParentMesh 链接网格共用父网格的几何数据
func (m *MeshAttachment) SetParentMesh(parent *MeshAttachment) {
	m.ParentMesh = parent
	if parent == nil {
		return
	}
	parent.VertexAttachment.copyTo(&m.VertexAttachment)
	m.RegionUVs = parent.RegionUVs
	m.Triangles = parent.Triangles
	m.HullLength = parent.HullLength
	m.Edges = parent.Edges
	m.Width = parent.Width
	m.Height = parent.Height
}

type BoundingBoxAttachment struct {
	VertexAttachment
	Color mgl32.Vec4
}

func NewBoundingBoxAttachment(name string) *BoundingBoxAttachment {
	res := &BoundingBoxAttachment{VertexAttachment: newVertexAttachment(name), Color: mgl32.Vec4{1, 1, 1, 1}}
	res.DeformAttachment = &res.VertexAttachment
	return res
}

type PathAttachment struct {
	VertexAttachment
	Closed        bool
	ConstantSpeed bool
	Lengths       []float32
	Color         mgl32.Vec4
}

func NewPathAttachment(name string) *PathAttachment {
	res := &PathAttachment{VertexAttachment: newVertexAttachment(name), Color: mgl32.Vec4{1, 1, 1, 1}}
	res.DeformAttachment = &res.VertexAttachment
	return res
}

type ClippingAttachment struct {
	VertexAttachment
	EndSlot *SlotData
	Color   mgl32.Vec4
}

func NewClippingAttachment(name string) *ClippingAttachment {
	res := &ClippingAttachment{VertexAttachment: newVertexAttachment(name), Color: mgl32.Vec4{1, 1, 1, 1}}
	res.DeformAttachment = &res.VertexAttachment
	return res
}

type PointAttachment struct {
	attachmentBase
	X, Y     float32
	Rotation float32
	Color    mgl32.Vec4
}

func NewPointAttachment(name string) *PointAttachment {
	return &PointAttachment{attachmentBase: attachmentBase{name: name}, Color: mgl32.Vec4{1, 1, 1, 1}}
}

func (p *PointAttachment) ComputeWorldPosition(bone *Bone) mgl32.Vec2 {
	return bone.LocalToWorld(mgl32.Vec2{p.X, p.Y})
}

func (p *PointAttachment) ComputeWorldRotation(bone *Bone) float32 {
	cos, sin := CosDeg(p.Rotation), SinDeg(p.Rotation)
	x := cos*bone.A() + sin*bone.B()
	y := cos*bone.C() + sin*bone.D()
	return Atan2(y, x) * RadDeg
}

// AttachmentLoader 解析器通过它创建附件，决定附件与图集区域的绑定
type AttachmentLoader interface {
	NewRegionAttachment(skin *Skin, name, path string) (*RegionAttachment, error)
	NewMeshAttachment(skin *Skin, name, path string) (*MeshAttachment, error)
	NewBoundingBoxAttachment(skin *Skin, name string) (*BoundingBoxAttachment, error)
	NewPathAttachment(skin *Skin, name string) (*PathAttachment, error)
	NewPointAttachment(skin *Skin, name string) (*PointAttachment, error)
	NewClippingAttachment(skin *Skin, name string) (*ClippingAttachment, error)
}

// AtlasAttachmentLoader Atlas 为 nil 时只创建附件不绑定区域
type AtlasAttachmentLoader struct {
	Atlas *Atlas
}

func NewAtlasAttachmentLoader(atlas *Atlas) *AtlasAttachmentLoader {
	return &AtlasAttachmentLoader{Atlas: atlas}
}

func (l *AtlasAttachmentLoader) findRegion(path, kind, name string) (*AtlasRegion, error) {
	if l.Atlas == nil {
		return nil, nil
	}
	region := l.Atlas.FindRegion(path)
	if region == nil {
		return nil, fmt.Errorf("region not found in atlas: %s (%s attachment: %s)", path, kind, name)
	}
	return region, nil
}

func (l *AtlasAttachmentLoader) NewRegionAttachment(skin *Skin, name, path string) (*RegionAttachment, error) {
	region, err := l.findRegion(path, "region", name)
	if err != nil {
		return nil, err
	}
	res := NewRegionAttachment(name)
	res.Path = path
	if region != nil {
		res.SetRegion(region)
	}
	return res, nil
}

func (l *AtlasAttachmentLoader) NewMeshAttachment(skin *Skin, name, path string) (*MeshAttachment, error) {
	region, err := l.findRegion(path, "mesh", name)
	if err != nil {
		return nil, err
	}
	res := NewMeshAttachment(name)
	res.Path = path
	res.Region = region
	return res, nil
}

func (l *AtlasAttachmentLoader) NewBoundingBoxAttachment(skin *Skin, name string) (*BoundingBoxAttachment, error) {
	return NewBoundingBoxAttachment(name), nil
}

func (l *AtlasAttachmentLoader) NewPathAttachment(skin *Skin, name string) (*PathAttachment, error) {
	return NewPathAttachment(name), nil
}

func (l *AtlasAttachmentLoader) NewPointAttachment(skin *Skin, name string) (*PointAttachment, error) {
	return NewPointAttachment(name), nil
}

func (l *AtlasAttachmentLoader) NewClippingAttachment(skin *Skin, name string) (*ClippingAttachment, error) {
	return NewClippingAttachment(name), nil
}
