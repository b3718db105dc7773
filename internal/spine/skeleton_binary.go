package spine

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// 时间线在二进制中的类型编号
const (
	binarySlotAttachment = 0
	binarySlotColor      = 1
	binarySlotTwoColor   = 2

	binaryBoneRotate    = 0
	binaryBoneTranslate = 1
	binaryBoneScale     = 2
	binaryBoneShear     = 3

	binaryPathPosition = 0
	binaryPathSpacing  = 1
	binaryPathMix      = 2
)

// SkeletonBinary 读取 .skel 导出文件
type SkeletonBinary struct {
	AttachmentLoader AttachmentLoader
	Scale            float32 // 作用于所有长度单位
}

func NewSkeletonBinary(loader AttachmentLoader) *SkeletonBinary {
	return &SkeletonBinary{AttachmentLoader: loader, Scale: 1}
}

func (b *SkeletonBinary) ReadSkeletonDataFile(path string) (*SkeletonData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	res, err := b.ReadSkeletonData(file)
	if err != nil {
		return nil, fmt.Errorf("read skeleton %s: %w", path, err)
	}
	res.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return res, nil
}

// maxCount 单个数组或字符串允许的最大长度
const maxCount = 1 << 20

// binaryError 解析过程中用 panic 传递错误，在入口处恢复
type binaryError struct {
	err error
}

func (b *SkeletonBinary) ReadSkeletonData(reader io.Reader) (res *SkeletonData, err error) {
	defer func() {
		if item := recover(); item != nil {
			switch temp := item.(type) {
			case binaryError:
				res, err = nil, temp.err
			case runtime.Error: // 越界的下标等
				res, err = nil, fmt.Errorf("corrupt skeleton data: %w", temp)
			default:
				panic(item)
			}
		}
	}()
	in := &binaryInput{reader: bufio.NewReader(reader)}
	return b.readSkeletonData(in), nil
}

type linkedMesh struct {
	mesh          *MeshAttachment
	skin          string
	slotIndex     int
	parent        string
	inheritDeform bool
}

type binaryInput struct {
	reader  *bufio.Reader
	strings []string
}

func (in *binaryInput) fail(format string, args ...any) {
	panic(binaryError{err: fmt.Errorf(format, args...)})
}

func (in *binaryInput) readBytes(count int) []byte {
	if count < 0 || count > maxCount {
		in.fail("invalid length: %d", count)
	}
	res := make([]byte, count)
	if _, err := io.ReadFull(in.reader, res); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		panic(binaryError{err: err})
	}
	return res
}

func (in *binaryInput) readByte() byte {
	res, err := in.reader.ReadByte()
	if err != nil {
		panic(binaryError{err: io.ErrUnexpectedEOF})
	}
	return res
}

func (in *binaryInput) readBool() bool {
	return in.readByte() != 0
}

// readVarint 每字节 7 位，最多 5 字节，optimizePositive 为 false 时是 zigzag 编码
func (in *binaryInput) readVarint(optimizePositive bool) int {
	temp := in.readByte()
	res := uint32(temp & 127)
	if temp&128 != 0 {
		temp = in.readByte()
		res |= uint32(temp&127) << 7
		if temp&128 != 0 {
			temp = in.readByte()
			res |= uint32(temp&127) << 14
			if temp&128 != 0 {
				temp = in.readByte()
				res |= uint32(temp&127) << 21
				if temp&128 != 0 {
					temp = in.readByte()
					res |= uint32(temp&127) << 28
				}
			}
		}
	}
	if optimizePositive {
		return int(int32(res)) // 保留负号
	}
	return int(int32(res>>1) ^ -int32(res&1))
}

func (in *binaryInput) readInt() int {
	return in.readVarint(true)
}

// readCount 长度或数量，超出范围说明文件已损坏
func (in *binaryInput) readCount() int {
	res := in.readInt()
	if res < 0 || res > maxCount {
		in.fail("invalid length: %d", res)
	}
	return res
}

func (in *binaryInput) readInt32() int32 {
	return int32(binary.BigEndian.Uint32(in.readBytes(4)))
}

func (in *binaryInput) readFloat() float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(in.readBytes(4)))
}

// readNullableString 长度 0 为 null，1 为空串
func (in *binaryInput) readNullableString() (string, bool) {
	count := in.readCount()
	switch count {
	case 0:
		return "", false
	case 1:
		return "", true
	}
	return string(in.readBytes(count - 1)), true
}

func (in *binaryInput) readString() string {
	res, _ := in.readNullableString()
	return res
}

func (in *binaryInput) readRefString() string {
	idx := in.readInt() - 1
	if idx < 0 {
		return ""
	}
	if idx >= len(in.strings) {
		in.fail("invalid string index: %d", idx)
	}
	return in.strings[idx]
}

// readColor rgba8888
func (in *binaryInput) readColor() mgl32.Vec4 {
	data := in.readBytes(4)
	return mgl32.Vec4{
		float32(data[0]) / 0xFF,
		float32(data[1]) / 0xFF,
		float32(data[2]) / 0xFF,
		float32(data[3]) / 0xFF,
	}
}

func (in *binaryInput) readShorts() []uint16 {
	count := in.readCount()
	res := make([]uint16, count)
	for i := range res {
		res[i] = binary.BigEndian.Uint16(in.readBytes(2))
	}
	return res
}

func (in *binaryInput) readVec2(scale float32) mgl32.Vec2 {
	x := in.readFloat()
	y := in.readFloat()
	return mgl32.Vec2{x * scale, y * scale}
}

func rgb888(value int32) mgl32.Vec4 {
	return mgl32.Vec4{
		float32((value>>16)&0xFF) / 0xFF,
		float32((value>>8)&0xFF) / 0xFF,
		float32(value&0xFF) / 0xFF,
		1,
	}
}

func (b *SkeletonBinary) readSkeletonData(in *binaryInput) *SkeletonData {
	scale := b.Scale
	res := &SkeletonData{}
	res.Hash = in.readString()
	res.Version = in.readString()
	if res.Version == "3.8.75" {
		in.fail("unsupported skeleton data version: %s, please export with a newer version of Spine", res.Version)
	}
	res.X = in.readFloat()
	res.Y = in.readFloat()
	res.Width = in.readFloat()
	res.Height = in.readFloat()
	nonessential := in.readBool()
	if nonessential { // 编辑器使用的数据
		res.FPS = in.readFloat()
		res.ImagesPath = in.readString()
		res.AudioPath = in.readString()
	}
	count := in.readCount()
	in.strings = make([]string, 0, count)
	for i := 0; i < count; i++ {
		in.strings = append(in.strings, in.readString())
	}

	// 骨骼
	count = in.readCount()
	for i := 0; i < count; i++ {
		data := &BoneData{Index: i, Name: in.readString()}
		if i > 0 {
			data.Parent = b.boneAt(in, res, in.readInt())
		}
		data.Rotation = in.readFloat()
		data.X = in.readFloat() * scale
		data.Y = in.readFloat() * scale
		data.ScaleX = in.readFloat()
		data.ScaleY = in.readFloat()
		data.ShearX = in.readFloat()
		data.ShearY = in.readFloat()
		data.Length = in.readFloat() * scale
		data.TransformMode = TransformMode(in.readInt())
		if data.TransformMode > TransformNoScaleOrReflection {
			in.fail("invalid transform mode: %d", data.TransformMode)
		}
		data.SkinRequired = in.readBool()
		if nonessential {
			data.Color = in.readColor()
		}
		res.Bones = append(res.Bones, data)
	}

	// 槽位
	count = in.readCount()
	for i := 0; i < count; i++ {
		data := &SlotData{Index: i, Name: in.readString()}
		data.BoneData = b.boneAt(in, res, in.readInt())
		data.Color = in.readColor()
		if dark := in.readInt32(); dark != -1 {
			data.DarkColor = rgb888(dark)
			data.HasDarkColor = true
		}
		data.AttachmentName = in.readRefString()
		data.BlendMode = BlendMode(in.readInt())
		res.Slots = append(res.Slots, data)
	}

	// IK 约束
	count = in.readCount()
	for i := 0; i < count; i++ {
		data := &IkConstraintData{Name: in.readString()}
		data.Order = in.readInt()
		data.SkinRequired = in.readBool()
		data.Bones = b.readBones(in, res)
		data.Target = b.boneAt(in, res, in.readInt())
		data.Mix = in.readFloat()
		data.Softness = in.readFloat() * scale
		data.BendDirection = int(int8(in.readByte()))
		data.Compress = in.readBool()
		data.Stretch = in.readBool()
		data.Uniform = in.readBool()
		res.IkConstraints = append(res.IkConstraints, data)
	}

	// 变换约束
	count = in.readCount()
	for i := 0; i < count; i++ {
		data := &TransformConstraintData{Name: in.readString()}
		data.Order = in.readInt()
		data.SkinRequired = in.readBool()
		data.Bones = b.readBones(in, res)
		data.Target = b.boneAt(in, res, in.readInt())
		data.Local = in.readBool()
		data.Relative = in.readBool()
		data.OffsetRotation = in.readFloat()
		data.OffsetX = in.readFloat() * scale
		data.OffsetY = in.readFloat() * scale
		data.OffsetScaleX = in.readFloat()
		data.OffsetScaleY = in.readFloat()
		data.OffsetShearY = in.readFloat()
		data.RotateMix = in.readFloat()
		data.TranslateMix = in.readFloat()
		data.ScaleMix = in.readFloat()
		data.ShearMix = in.readFloat()
		res.TransformConstraints = append(res.TransformConstraints, data)
	}

	// 路径约束
	count = in.readCount()
	for i := 0; i < count; i++ {
		data := &PathConstraintData{Name: in.readString()}
		data.Order = in.readInt()
		data.SkinRequired = in.readBool()
		data.Bones = b.readBones(in, res)
		data.Target = b.slotAt(in, res, in.readInt())
		data.PositionMode = PositionMode(in.readInt())
		data.SpacingMode = SpacingMode(in.readInt())
		data.RotateMode = RotateMode(in.readInt())
		data.OffsetRotation = in.readFloat()
		data.Position = in.readFloat()
		if data.PositionMode == PositionFixed {
			data.Position *= scale
		}
		data.Spacing = in.readFloat()
		if data.SpacingMode == SpacingLength || data.SpacingMode == SpacingFixed {
			data.Spacing *= scale
		}
		data.RotateMix = in.readFloat()
		data.TranslateMix = in.readFloat()
		res.PathConstraints = append(res.PathConstraints, data)
	}

	// 皮肤，默认皮肤没有名字
	linkedMeshes := make([]*linkedMesh, 0)
	if skin := b.readSkin(in, res, true, nonessential, &linkedMeshes); skin != nil {
		res.DefaultSkin = skin
		res.Skins = append(res.Skins, skin)
	}
	count = in.readCount()
	for i := 0; i < count; i++ {
		res.Skins = append(res.Skins, b.readSkin(in, res, false, nonessential, &linkedMeshes))
	}
	if err := resolveLinkedMeshes(res, linkedMeshes); err != nil {
		panic(binaryError{err: err})
	}

	// 事件
	count = in.readCount()
	for i := 0; i < count; i++ {
		data := &EventData{Name: in.readRefString()}
		data.Int = int32(in.readVarint(false))
		data.Float = in.readFloat()
		data.String = in.readString()
		audioPath, ok := in.readNullableString()
		data.AudioPath = audioPath
		if ok {
			data.Volume = in.readFloat()
			data.Balance = in.readFloat()
		}
		res.Events = append(res.Events, data)
	}

	count = in.readCount()
	for i := 0; i < count; i++ {
		name := in.readString()
		res.Animations = append(res.Animations, b.readAnimation(in, name, res))
	}
	return res
}

func (b *SkeletonBinary) boneAt(in *binaryInput, data *SkeletonData, idx int) *BoneData {
	if idx < 0 || idx >= len(data.Bones) {
		in.fail("invalid bone index: %d", idx)
	}
	return data.Bones[idx]
}

func (b *SkeletonBinary) slotAt(in *binaryInput, data *SkeletonData, idx int) *SlotData {
	if idx < 0 || idx >= len(data.Slots) {
		in.fail("invalid slot index: %d", idx)
	}
	return data.Slots[idx]
}

func (b *SkeletonBinary) readBones(in *binaryInput, data *SkeletonData) []*BoneData {
	count := in.readCount()
	res := make([]*BoneData, 0, count)
	for i := 0; i < count; i++ {
		res = append(res, b.boneAt(in, data, in.readInt()))
	}
	return res
}

// resolveLinkedMeshes 所有皮肤读完后再绑定链接网格的父网格
func resolveLinkedMeshes(data *SkeletonData, linkedMeshes []*linkedMesh) error {
	for _, item := range linkedMeshes {
		skin := data.DefaultSkin
		if item.skin != "" {
			skin = data.FindSkin(item.skin)
		}
		if skin == nil {
			return fmt.Errorf("%w: %s", ErrSkinNotFound, item.skin)
		}
		parent, ok := skin.GetAttachment(item.slotIndex, item.parent).(*MeshAttachment)
		if !ok {
			return fmt.Errorf("parent mesh not found: %s", item.parent)
		}
		if item.inheritDeform {
			item.mesh.DeformAttachment = &parent.VertexAttachment
		} else {
			item.mesh.DeformAttachment = &item.mesh.VertexAttachment
		}
		item.mesh.SetParentMesh(parent)
		item.mesh.UpdateUVs()
	}
	return nil
}

func (b *SkeletonBinary) readSkin(in *binaryInput, data *SkeletonData, defaultSkin, nonessential bool, linkedMeshes *[]*linkedMesh) *Skin {
	var skin *Skin
	var slotCount int
	if defaultSkin {
		slotCount = in.readCount()
		if slotCount == 0 {
			return nil
		}
		skin = NewSkin("default")
	} else {
		skin = NewSkin(in.readRefString())
		skin.Bones = b.readBones(in, data)
		count := in.readCount()
		for i := 0; i < count; i++ {
			idx := in.readInt()
			if idx >= len(data.IkConstraints) {
				in.fail("invalid ik constraint index: %d", idx)
			}
			skin.IkConstraints = append(skin.IkConstraints, data.IkConstraints[idx])
		}
		count = in.readCount()
		for i := 0; i < count; i++ {
			idx := in.readInt()
			if idx >= len(data.TransformConstraints) {
				in.fail("invalid transform constraint index: %d", idx)
			}
			skin.TransformConstraints = append(skin.TransformConstraints, data.TransformConstraints[idx])
		}
		count = in.readCount()
		for i := 0; i < count; i++ {
			idx := in.readInt()
			if idx >= len(data.PathConstraints) {
				in.fail("invalid path constraint index: %d", idx)
			}
			skin.PathConstraints = append(skin.PathConstraints, data.PathConstraints[idx])
		}
		slotCount = in.readCount()
	}
	for i := 0; i < slotCount; i++ {
		slotIndex := in.readInt()
		count := in.readCount()
		for j := 0; j < count; j++ {
			name := in.readRefString()
			attachment := b.readAttachment(in, data, skin, slotIndex, name, nonessential, linkedMeshes)
			if attachment != nil {
				skin.SetAttachment(slotIndex, name, attachment)
			}
		}
	}
	return skin
}

func (b *SkeletonBinary) readAttachment(in *binaryInput, data *SkeletonData, skin *Skin, slotIndex int, attachmentName string,
	nonessential bool, linkedMeshes *[]*linkedMesh) Attachment {
	scale := b.Scale
	name := in.readRefString()
	if name == "" {
		name = attachmentName
	}
	kind := AttachmentType(in.readByte())
	switch kind {
	case AttachmentRegion:
		path := in.readRefString()
		if path == "" {
			path = name
		}
		rotation := in.readFloat()
		pos := in.readVec2(scale)
		scaleX := in.readFloat()
		scaleY := in.readFloat()
		size := in.readVec2(scale)
		color := in.readColor()
		res, err := b.AttachmentLoader.NewRegionAttachment(skin, name, path)
		b.check(err)
		if res == nil {
			return nil
		}
		res.Path = path
		res.X, res.Y = pos.X(), pos.Y()
		res.ScaleX, res.ScaleY = scaleX, scaleY
		res.Rotation = rotation
		res.Width, res.Height = size.X(), size.Y()
		res.Color = color
		res.UpdateOffset()
		return res
	case AttachmentBoundingBox:
		vertexCount := in.readCount()
		vertices, weights := b.readVertices(in, vertexCount)
		var color mgl32.Vec4
		if nonessential {
			color = in.readColor()
		}
		res, err := b.AttachmentLoader.NewBoundingBoxAttachment(skin, name)
		b.check(err)
		if res == nil {
			return nil
		}
		res.Vertices, res.WeightVertices = vertices, weights
		res.Color = color
		return res
	case AttachmentMesh:
		path := in.readRefString()
		if path == "" {
			path = name
		}
		color := in.readColor()
		vertexCount := in.readCount()
		uvs := make([]mgl32.Vec2, vertexCount)
		for i := range uvs {
			uvs[i] = in.readVec2(1)
		}
		triangles := in.readShorts()
		vertices, weights := b.readVertices(in, vertexCount)
		hullLength := in.readCount()
		var edges []uint16
		var size mgl32.Vec2
		if nonessential {
			edges = in.readShorts()
			size = in.readVec2(scale)
		}
		res, err := b.AttachmentLoader.NewMeshAttachment(skin, name, path)
		b.check(err)
		if res == nil {
			return nil
		}
		res.Path = path
		res.Color = color
		res.Vertices, res.WeightVertices = vertices, weights
		res.Triangles = triangles
		res.RegionUVs = uvs
		res.UpdateUVs()
		res.HullLength = hullLength
		res.Edges = edges
		res.Width, res.Height = size.X(), size.Y()
		return res
	case AttachmentLinkedMesh:
		path := in.readRefString()
		if path == "" {
			path = name
		}
		color := in.readColor()
		skinName := in.readRefString()
		parent := in.readRefString()
		inheritDeform := in.readBool()
		var size mgl32.Vec2
		if nonessential {
			size = in.readVec2(scale)
		}
		res, err := b.AttachmentLoader.NewMeshAttachment(skin, name, path)
		b.check(err)
		if res == nil {
			return nil
		}
		res.Path = path
		res.Color = color
		res.Width, res.Height = size.X(), size.Y()
		*linkedMeshes = append(*linkedMeshes, &linkedMesh{mesh: res, skin: skinName, slotIndex: slotIndex,
			parent: parent, inheritDeform: inheritDeform})
		return res
	case AttachmentPath:
		closed := in.readBool()
		constantSpeed := in.readBool()
		vertexCount := in.readCount()
		vertices, weights := b.readVertices(in, vertexCount)
		lengths := make([]float32, vertexCount/3)
		for i := range lengths {
			lengths[i] = in.readFloat() * scale
		}
		var color mgl32.Vec4
		if nonessential {
			color = in.readColor()
		}
		res, err := b.AttachmentLoader.NewPathAttachment(skin, name)
		b.check(err)
		if res == nil {
			return nil
		}
		res.Closed = closed
		res.ConstantSpeed = constantSpeed
		res.Vertices, res.WeightVertices = vertices, weights
		res.Lengths = lengths
		res.Color = color
		return res
	case AttachmentPoint:
		rotation := in.readFloat()
		pos := in.readVec2(scale)
		var color mgl32.Vec4
		if nonessential {
			color = in.readColor()
		}
		res, err := b.AttachmentLoader.NewPointAttachment(skin, name)
		b.check(err)
		if res == nil {
			return nil
		}
		res.X, res.Y = pos.X(), pos.Y()
		res.Rotation = rotation
		res.Color = color
		return res
	case AttachmentClipping:
		endSlot := b.slotAt(in, data, in.readInt())
		vertexCount := in.readCount()
		vertices, weights := b.readVertices(in, vertexCount)
		var color mgl32.Vec4
		if nonessential {
			color = in.readColor()
		}
		res, err := b.AttachmentLoader.NewClippingAttachment(skin, name)
		b.check(err)
		if res == nil {
			return nil
		}
		res.EndSlot = endSlot
		res.Vertices, res.WeightVertices = vertices, weights
		res.Color = color
		return res
	default:
		in.fail("unknown attachment type: %d", kind)
		return nil
	}
}

func (b *SkeletonBinary) check(err error) {
	if err != nil {
		panic(binaryError{err: err})
	}
}

// readVertices 先读是否带权重
func (b *SkeletonBinary) readVertices(in *binaryInput, vertexCount int) ([]mgl32.Vec2, [][]*WeightVertex) {
	if !in.readBool() {
		vertices := make([]mgl32.Vec2, vertexCount)
		for i := range vertices {
			vertices[i] = in.readVec2(b.Scale)
		}
		return vertices, nil
	}
	weights := make([][]*WeightVertex, 0, vertexCount)
	for i := 0; i < vertexCount; i++ {
		boneCount := in.readCount()
		items := make([]*WeightVertex, 0, boneCount)
		for j := 0; j < boneCount; j++ {
			bone := in.readInt()
			offset := in.readVec2(b.Scale)
			items = append(items, &WeightVertex{Bone: bone, Offset: offset, Weight: in.readFloat()})
		}
		weights = append(weights, items)
	}
	return nil, weights
}

func (b *SkeletonBinary) readCurve(in *binaryInput) *Curve {
	kind := CurveType(in.readByte())
	switch kind {
	case CurveLinear:
		return LinearCurve
	case CurveStepped:
		return SteppedCurve
	case CurveBezier:
		cx1 := in.readFloat()
		cy1 := in.readFloat()
		cx2 := in.readFloat()
		cy2 := in.readFloat()
		return NewBezierCurve(cx1, cy1, cx2, cy2)
	default:
		in.fail("unknown curve type: %d", kind)
		return nil
	}
}

// readKeyFrame 时间之后是数据，最后一帧之外数据后面跟曲线
func (b *SkeletonBinary) readKeyFrame(in *binaryInput, idx, count int, readValue func()) KeyFrame {
	res := KeyFrame{Time: in.readFloat()}
	readValue()
	if idx < count-1 {
		res.Curve = b.readCurve(in)
	}
	return res
}

func (b *SkeletonBinary) readAnimation(in *binaryInput, name string, data *SkeletonData) *Animation {
	scale := b.Scale
	timelines := make([]Timeline, 0)

	// 槽位时间线
	count := in.readCount()
	for i := 0; i < count; i++ {
		slotIndex := b.slotAt(in, data, in.readInt()).Index
		timelineCount := in.readCount()
		for j := 0; j < timelineCount; j++ {
			kind := in.readByte()
			frameCount := in.readCount()
			switch kind {
			case binarySlotAttachment:
				frames := make([]AttachmentFrame, frameCount)
				for k := range frames {
					frames[k].Time = in.readFloat()
					frames[k].Name = in.readRefString()
				}
				timelines = append(timelines, &AttachmentTimeline{SlotIndex: slotIndex, Frames: frames})
			case binarySlotColor:
				frames := make([]ColorFrame, frameCount)
				for k := range frames {
					frames[k].KeyFrame = b.readKeyFrame(in, k, frameCount, func() {
						frames[k].Color = in.readColor()
					})
				}
				timelines = append(timelines, &ColorTimeline{SlotIndex: slotIndex, Frames: frames})
			case binarySlotTwoColor:
				frames := make([]TwoColorFrame, frameCount)
				for k := range frames {
					frames[k].KeyFrame = b.readKeyFrame(in, k, frameCount, func() {
						frames[k].Light = in.readColor()
						frames[k].Dark = rgb888(in.readInt32())
					})
				}
				timelines = append(timelines, &TwoColorTimeline{SlotIndex: slotIndex, Frames: frames})
			default:
				in.fail("unknown slot timeline type: %d", kind)
			}
		}
	}

	// 骨骼时间线
	count = in.readCount()
	for i := 0; i < count; i++ {
		boneIndex := b.boneAt(in, data, in.readInt()).Index
		timelineCount := in.readCount()
		for j := 0; j < timelineCount; j++ {
			kind := in.readByte()
			frameCount := in.readCount()
			switch kind {
			case binaryBoneRotate:
				frames := make([]ValueFrame, frameCount)
				for k := range frames {
					frames[k].KeyFrame = b.readKeyFrame(in, k, frameCount, func() {
						frames[k].Value = in.readFloat()
					})
				}
				timelines = append(timelines, &RotateTimeline{BoneIndex: boneIndex, Frames: frames})
			case binaryBoneTranslate, binaryBoneScale, binaryBoneShear:
				timelineScale := float32(1)
				if kind == binaryBoneTranslate {
					timelineScale = scale
				}
				frames := make([]Vec2Frame, frameCount)
				for k := range frames {
					frames[k].KeyFrame = b.readKeyFrame(in, k, frameCount, func() {
						frames[k].Value = in.readVec2(timelineScale)
					})
				}
				switch kind {
				case binaryBoneTranslate:
					timelines = append(timelines, &TranslateTimeline{BoneIndex: boneIndex, Frames: frames})
				case binaryBoneScale:
					timelines = append(timelines, &ScaleTimeline{BoneIndex: boneIndex, Frames: frames})
				default:
					timelines = append(timelines, &ShearTimeline{BoneIndex: boneIndex, Frames: frames})
				}
			default:
				in.fail("unknown bone timeline type: %d", kind)
			}
		}
	}

	// IK 约束时间线
	count = in.readCount()
	for i := 0; i < count; i++ {
		idx := in.readInt()
		frameCount := in.readCount()
		frames := make([]IkFrame, frameCount)
		for k := range frames {
			frames[k].KeyFrame = b.readKeyFrame(in, k, frameCount, func() {
				frames[k].Mix = in.readFloat()
				frames[k].Softness = in.readFloat() * scale
				frames[k].BendDirection = int(int8(in.readByte()))
				frames[k].Compress = in.readBool()
				frames[k].Stretch = in.readBool()
			})
		}
		timelines = append(timelines, &IkConstraintTimeline{ConstraintIndex: idx, Frames: frames})
	}

	// 变换约束时间线
	count = in.readCount()
	for i := 0; i < count; i++ {
		idx := in.readInt()
		frameCount := in.readCount()
		frames := make([]TransformFrame, frameCount)
		for k := range frames {
			frames[k].KeyFrame = b.readKeyFrame(in, k, frameCount, func() {
				frames[k].Rotate = in.readFloat()
				frames[k].Translate = in.readFloat()
				frames[k].Scale = in.readFloat()
				frames[k].Shear = in.readFloat()
			})
		}
		timelines = append(timelines, &TransformConstraintTimeline{ConstraintIndex: idx, Frames: frames})
	}

	// 路径约束时间线
	count = in.readCount()
	for i := 0; i < count; i++ {
		idx := in.readInt()
		if idx < 0 || idx >= len(data.PathConstraints) {
			in.fail("invalid path constraint index: %d", idx)
		}
		constraint := data.PathConstraints[idx]
		timelineCount := in.readCount()
		for j := 0; j < timelineCount; j++ {
			kind := in.readByte()
			frameCount := in.readCount()
			switch kind {
			case binaryPathPosition, binaryPathSpacing:
				timelineScale := float32(1)
				if kind == binaryPathSpacing {
					if constraint.SpacingMode == SpacingLength || constraint.SpacingMode == SpacingFixed {
						timelineScale = scale
					}
				} else if constraint.PositionMode == PositionFixed {
					timelineScale = scale
				}
				frames := make([]ValueFrame, frameCount)
				for k := range frames {
					frames[k].KeyFrame = b.readKeyFrame(in, k, frameCount, func() {
						frames[k].Value = in.readFloat() * timelineScale
					})
				}
				if kind == binaryPathSpacing {
					timelines = append(timelines, &PathConstraintSpacingTimeline{ConstraintIndex: idx, Frames: frames})
				} else {
					timelines = append(timelines, &PathConstraintPositionTimeline{ConstraintIndex: idx, Frames: frames})
				}
			case binaryPathMix:
				frames := make([]PathMixFrame, frameCount)
				for k := range frames {
					frames[k].KeyFrame = b.readKeyFrame(in, k, frameCount, func() {
						frames[k].Rotate = in.readFloat()
						frames[k].Translate = in.readFloat()
					})
				}
				timelines = append(timelines, &PathConstraintMixTimeline{ConstraintIndex: idx, Frames: frames})
			default:
				in.fail("unknown path timeline type: %d", kind)
			}
		}
	}

	// deform 时间线，按皮肤、槽位、附件分组
	count = in.readCount()
	for i := 0; i < count; i++ {
		skinIndex := in.readInt()
		if skinIndex < 0 || skinIndex >= len(data.Skins) {
			in.fail("invalid skin index: %d", skinIndex)
		}
		skin := data.Skins[skinIndex]
		slotCount := in.readCount()
		for j := 0; j < slotCount; j++ {
			slotIndex := in.readInt()
			attachmentCount := in.readCount()
			for k := 0; k < attachmentCount; k++ {
				attachmentName := in.readRefString()
				attacher, ok := skin.GetAttachment(slotIndex, attachmentName).(VertexAttacher)
				if !ok {
					in.fail("deform attachment not found: %s", attachmentName)
				}
				timelines = append(timelines, b.readDeformTimeline(in, slotIndex, attacher.Vertex()))
			}
		}
	}

	// 绘制顺序
	count = in.readCount()
	if count > 0 {
		slotCount := len(data.Slots)
		frames := make([]DrawOrderFrame, count)
		for i := range frames {
			frames[i].Time = in.readFloat()
			offsetCount := in.readCount()
			frames[i].DrawOrder = b.readDrawOrder(in, slotCount, offsetCount)
		}
		timelines = append(timelines, &DrawOrderTimeline{Frames: frames})
	}

	// 事件
	count = in.readCount()
	if count > 0 {
		frames := make([]*Event, count)
		for i := range frames {
			time := in.readFloat()
			idx := in.readInt()
			if idx < 0 || idx >= len(data.Events) {
				in.fail("invalid event index: %d", idx)
			}
			eventData := data.Events[idx]
			event := NewEvent(time, eventData)
			event.Int = int32(in.readVarint(false))
			event.Float = in.readFloat()
			if in.readBool() {
				event.String = in.readString()
			}
			if eventData.AudioPath != "" {
				event.Volume = in.readFloat()
				event.Balance = in.readFloat()
			}
			frames[i] = event
		}
		timelines = append(timelines, &EventTimeline{Frames: frames})
	}
	return NewAnimation(name, timelines, -1)
}

// readDeformTimeline 只写入变化的区间，非权重顶点加上 setup 位置
func (b *SkeletonBinary) readDeformTimeline(in *binaryInput, slotIndex int, attachment *VertexAttachment) *DeformTimeline {
	weighted := attachment.Weighted()
	deformLength := attachment.DeformLength()
	frameCount := in.readCount()
	frames := make([]DeformFrame, frameCount)
	for i := range frames {
		frames[i].KeyFrame = b.readKeyFrame(in, i, frameCount, func() {
			deform := make([]mgl32.Vec2, deformLength)
			end := in.readInt()
			if end == 0 {
				if !weighted {
					copy(deform, attachment.Vertices)
				}
				frames[i].Vertices = deform
				return
			}
			start := in.readInt()
			end += start
			if start < 0 || end > deformLength*2 {
				in.fail("invalid deform range: %d-%d", start, end)
			}
			for n := start; n < end; n++ {
				deform[n/2][n%2] = in.readFloat() * b.Scale
			}
			if !weighted {
				for n, item := range attachment.Vertices {
					deform[n] = deform[n].Add(item)
				}
			}
			frames[i].Vertices = deform
		})
	}
	return &DeformTimeline{SlotIndex: slotIndex, Attachment: attachment, Frames: frames}
}

// readDrawOrder 每项为 槽位下标 + 偏移
func (b *SkeletonBinary) readDrawOrder(in *binaryInput, slotCount, offsetCount int) []int {
	offsets := make([][2]int, offsetCount)
	for i := range offsets {
		offsets[i][0] = in.readInt()
		offsets[i][1] = in.readInt()
	}
	res, err := buildDrawOrder(slotCount, offsets)
	if err != nil {
		panic(binaryError{err: err})
	}
	return res
}

// buildDrawOrder 变化的槽位按偏移放置，其余保持原有相对顺序填入空位
// 结果的第 i 项是绘制位置 i 上的 setup 槽位下标
func buildDrawOrder(slotCount int, offsets [][2]int) ([]int, error) {
	if len(offsets) > slotCount {
		return nil, fmt.Errorf("invalid draw order offset count: %d", len(offsets))
	}
	res := make([]int, slotCount)
	for i := range res {
		res[i] = -1
	}
	unchanged := make([]int, 0, slotCount-len(offsets))
	originalIndex := 0
	for _, item := range offsets {
		slotIndex, offset := item[0], item[1]
		if slotIndex < originalIndex || slotIndex >= slotCount {
			return nil, fmt.Errorf("invalid draw order slot: %d", slotIndex)
		}
		for originalIndex < slotIndex {
			unchanged = append(unchanged, originalIndex)
			originalIndex++
		}
		idx := originalIndex + offset
		if idx < 0 || idx >= slotCount || res[idx] != -1 {
			return nil, fmt.Errorf("invalid draw order offset: slot %d to %d", slotIndex, idx)
		}
		res[idx] = originalIndex
		originalIndex++
	}
	for ; originalIndex < slotCount; originalIndex++ {
		unchanged = append(unchanged, originalIndex)
	}
	for i := slotCount - 1; i >= 0; i-- {
		if res[i] == -1 {
			res[i] = unchanged[len(unchanged)-1]
			unchanged = unchanged[:len(unchanged)-1]
		}
	}
	return res, nil
}
