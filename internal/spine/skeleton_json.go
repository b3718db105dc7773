package spine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// SkeletonJSON 读取 .json 导出文件
type SkeletonJSON struct {
	AttachmentLoader AttachmentLoader
	Scale            float32
}

func NewSkeletonJSON(loader AttachmentLoader) *SkeletonJSON {
	return &SkeletonJSON{AttachmentLoader: loader, Scale: 1}
}

func (j *SkeletonJSON) ReadSkeletonDataFile(path string) (*SkeletonData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	res, err := j.ReadSkeletonData(file)
	if err != nil {
		return nil, fmt.Errorf("read skeleton %s: %w", path, err)
	}
	res.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return res, nil
}

func (j *SkeletonJSON) ReadSkeletonData(reader io.Reader) (*SkeletonData, error) {
	root := &jsonSkeleton{}
	if err := json.NewDecoder(reader).Decode(root); err != nil {
		return nil, err
	}
	return j.readSkeletonData(root)
}

// orderedObject 保留 json 对象的键顺序，动画与事件的顺序依赖它
type orderedEntry[T any] struct {
	Key   string
	Value T
}

type orderedObject[T any] []orderedEntry[T]

func (o *orderedObject[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expect object, got %v", token)
	}
	res := make(orderedObject[T], 0)
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("expect key, got %v", token)
		}
		var value T
		if err = decoder.Decode(&value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		res = append(res, orderedEntry[T]{Key: key, Value: value})
	}
	if _, err = decoder.Token(); err != nil {
		return err
	}
	*o = res
	return nil
}

type jsonSkeleton struct {
	Skeleton   jsonHeader                    `json:"skeleton"`
	Bones      []*jsonBone                   `json:"bones"`
	Slots      []*jsonSlot                   `json:"slots"`
	Ik         []*jsonIk                     `json:"ik"`
	Transform  []*jsonTransform              `json:"transform"`
	Path       []*jsonPath                   `json:"path"`
	Skins      []*jsonSkin                   `json:"skins"`
	Events     orderedObject[*jsonEvent]     `json:"events"`
	Animations orderedObject[*jsonAnimation] `json:"animations"`
}

type jsonHeader struct {
	Hash   string  `json:"hash"`
	Spine  string  `json:"spine"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	FPS    float32 `json:"fps"`
	Images string  `json:"images"`
	Audio  string  `json:"audio"`
}

type jsonBone struct {
	Name      string  `json:"name"`
	Parent    string  `json:"parent"`
	Length    float32 `json:"length"`
	Rotation  float32 `json:"rotation"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	ScaleX    float32 `json:"scaleX"`
	ScaleY    float32 `json:"scaleY"`
	ShearX    float32 `json:"shearX"`
	ShearY    float32 `json:"shearY"`
	Transform string  `json:"transform"`
	Skin      bool    `json:"skin"`
	Color     string  `json:"color"`
}

func (b *jsonBone) UnmarshalJSON(data []byte) error {
	type alias jsonBone
	temp := alias{ScaleX: 1, ScaleY: 1, Transform: "normal"}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*b = jsonBone(temp)
	return nil
}

type jsonSlot struct {
	Name       string `json:"name"`
	Bone       string `json:"bone"`
	Color      string `json:"color"`
	Dark       string `json:"dark"`
	Attachment string `json:"attachment"`
	Blend      string `json:"blend"`
}

type jsonIk struct {
	Name         string   `json:"name"`
	Order        int      `json:"order"`
	Skin         bool     `json:"skin"`
	Bones        []string `json:"bones"`
	Target       string   `json:"target"`
	Mix          float32  `json:"mix"`
	Softness     float32  `json:"softness"`
	BendPositive bool     `json:"bendPositive"`
	Compress     bool     `json:"compress"`
	Stretch      bool     `json:"stretch"`
	Uniform      bool     `json:"uniform"`
}

func (k *jsonIk) UnmarshalJSON(data []byte) error {
	type alias jsonIk
	temp := alias{Mix: 1, BendPositive: true}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*k = jsonIk(temp)
	return nil
}

type jsonTransform struct {
	Name         string   `json:"name"`
	Order        int      `json:"order"`
	Skin         bool     `json:"skin"`
	Bones        []string `json:"bones"`
	Target       string   `json:"target"`
	Local        bool     `json:"local"`
	Relative     bool     `json:"relative"`
	Rotation     float32  `json:"rotation"`
	X            float32  `json:"x"`
	Y            float32  `json:"y"`
	ScaleX       float32  `json:"scaleX"`
	ScaleY       float32  `json:"scaleY"`
	ShearY       float32  `json:"shearY"`
	RotateMix    float32  `json:"rotateMix"`
	TranslateMix float32  `json:"translateMix"`
	ScaleMix     float32  `json:"scaleMix"`
	ShearMix     float32  `json:"shearMix"`
}

func (t *jsonTransform) UnmarshalJSON(data []byte) error {
	type alias jsonTransform
	temp := alias{RotateMix: 1, TranslateMix: 1, ScaleMix: 1, ShearMix: 1}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = jsonTransform(temp)
	return nil
}

type jsonPath struct {
	Name         string   `json:"name"`
	Order        int      `json:"order"`
	Skin         bool     `json:"skin"`
	Bones        []string `json:"bones"`
	Target       string   `json:"target"`
	PositionMode string   `json:"positionMode"`
	SpacingMode  string   `json:"spacingMode"`
	RotateMode   string   `json:"rotateMode"`
	Rotation     float32  `json:"rotation"`
	Position     float32  `json:"position"`
	Spacing      float32  `json:"spacing"`
	RotateMix    float32  `json:"rotateMix"`
	TranslateMix float32  `json:"translateMix"`
}

func (p *jsonPath) UnmarshalJSON(data []byte) error {
	type alias jsonPath
	temp := alias{PositionMode: "percent", SpacingMode: "length", RotateMode: "tangent", RotateMix: 1, TranslateMix: 1}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*p = jsonPath(temp)
	return nil
}

type jsonSkin struct {
	Name        string                                        `json:"name"`
	Bones       []string                                      `json:"bones"`
	Ik          []string                                      `json:"ik"`
	Transform   []string                                      `json:"transform"`
	Path        []string                                      `json:"path"`
	Attachments orderedObject[orderedObject[*jsonAttachment]] `json:"attachments"`
}

type jsonAttachment struct {
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Path          string    `json:"path"`
	X             float32   `json:"x"`
	Y             float32   `json:"y"`
	ScaleX        float32   `json:"scaleX"`
	ScaleY        float32   `json:"scaleY"`
	Rotation      float32   `json:"rotation"`
	Width         float32   `json:"width"`
	Height        float32   `json:"height"`
	Color         string    `json:"color"`
	UVs           []float32 `json:"uvs"`
	Triangles     []uint16  `json:"triangles"`
	Vertices      []float32 `json:"vertices"`
	VertexCount   int       `json:"vertexCount"`
	Hull          int       `json:"hull"`
	Edges         []uint16  `json:"edges"`
	Parent        string    `json:"parent"`
	Skin          string    `json:"skin"`
	Deform        bool      `json:"deform"`
	Closed        bool      `json:"closed"`
	ConstantSpeed bool      `json:"constantSpeed"`
	Lengths       []float32 `json:"lengths"`
	End           string    `json:"end"`
}

func (a *jsonAttachment) UnmarshalJSON(data []byte) error {
	type alias jsonAttachment
	temp := alias{Type: "region", ScaleX: 1, ScaleY: 1, Width: 32, Height: 32, Deform: true, ConstantSpeed: true}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*a = jsonAttachment(temp)
	return nil
}

type jsonEvent struct {
	Int     int32   `json:"int"`
	Float   float32 `json:"float"`
	String  string  `json:"string"`
	Audio   string  `json:"audio"`
	Volume  float32 `json:"volume"`
	Balance float32 `json:"balance"`
}

func (e *jsonEvent) UnmarshalJSON(data []byte) error {
	type alias jsonEvent
	temp := alias{Volume: 1}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*e = jsonEvent(temp)
	return nil
}

type jsonAnimation struct {
	Slots     orderedObject[orderedObject[json.RawMessage]]                 `json:"slots"`
	Bones     orderedObject[orderedObject[json.RawMessage]]                 `json:"bones"`
	Ik        orderedObject[[]*jsonIkKey]                                   `json:"ik"`
	Transform orderedObject[[]*jsonTransformKey]                            `json:"transform"`
	Path      orderedObject[orderedObject[json.RawMessage]]                 `json:"path"`
	Deform    orderedObject[orderedObject[orderedObject[[]*jsonDeformKey]]] `json:"deform"`
	DrawOrder []*jsonDrawOrderKey                                           `json:"drawOrder"`
	Events    []*jsonEventKey                                               `json:"events"`
}

// jsonKey 曲线为 "stepped" 或第一个控制点的 x，其余控制点在 c2 c3 c4
type jsonKey struct {
	Time  float32         `json:"time"`
	Curve json.RawMessage `json:"curve"`
	C2    *float32        `json:"c2"`
	C3    *float32        `json:"c3"`
	C4    *float32        `json:"c4"`
}

func (k *jsonKey) keyFrame() (KeyFrame, error) {
	res := KeyFrame{Time: k.Time}
	if len(k.Curve) == 0 {
		return res, nil
	}
	var name string
	if err := json.Unmarshal(k.Curve, &name); err == nil {
		if name == "stepped" {
			res.Curve = SteppedCurve
		}
		return res, nil
	}
	var cx1 float32
	if err := json.Unmarshal(k.Curve, &cx1); err != nil {
		return res, fmt.Errorf("invalid curve: %s", k.Curve)
	}
	cy1, cx2, cy2 := float32(0), float32(1), float32(1)
	if k.C2 != nil {
		cy1 = *k.C2
	}
	if k.C3 != nil {
		cx2 = *k.C3
	}
	if k.C4 != nil {
		cy2 = *k.C4
	}
	res.Curve = NewBezierCurve(cx1, cy1, cx2, cy2)
	return res, nil
}

type jsonAttachmentKey struct {
	Time float32 `json:"time"`
	Name string  `json:"name"`
}

type jsonColorKey struct {
	jsonKey
	Color string `json:"color"`
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

type jsonRotateKey struct {
	jsonKey
	Angle float32 `json:"angle"`
}

type jsonVec2Key struct {
	jsonKey
	X *float32 `json:"x"`
	Y *float32 `json:"y"`
}

type jsonIkKey struct {
	jsonKey
	Mix          float32 `json:"mix"`
	Softness     float32 `json:"softness"`
	BendPositive bool    `json:"bendPositive"`
	Compress     bool    `json:"compress"`
	Stretch      bool    `json:"stretch"`
}

func (k *jsonIkKey) UnmarshalJSON(data []byte) error {
	type alias jsonIkKey
	temp := alias{Mix: 1, BendPositive: true}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*k = jsonIkKey(temp)
	return nil
}

type jsonTransformKey struct {
	jsonKey
	RotateMix    float32 `json:"rotateMix"`
	TranslateMix float32 `json:"translateMix"`
	ScaleMix     float32 `json:"scaleMix"`
	ShearMix     float32 `json:"shearMix"`
}

func (k *jsonTransformKey) UnmarshalJSON(data []byte) error {
	type alias jsonTransformKey
	temp := alias{RotateMix: 1, TranslateMix: 1, ScaleMix: 1, ShearMix: 1}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*k = jsonTransformKey(temp)
	return nil
}

type jsonPathKey struct {
	jsonKey
	Position     float32 `json:"position"`
	Spacing      float32 `json:"spacing"`
	RotateMix    float32 `json:"rotateMix"`
	TranslateMix float32 `json:"translateMix"`
}

func (k *jsonPathKey) UnmarshalJSON(data []byte) error {
	type alias jsonPathKey
	temp := alias{RotateMix: 1, TranslateMix: 1}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*k = jsonPathKey(temp)
	return nil
}

type jsonDeformKey struct {
	jsonKey
	Offset   int       `json:"offset"`
	Vertices []float32 `json:"vertices"`
}

type jsonDrawOrderKey struct {
	Time    float32 `json:"time"`
	Offsets []struct {
		Slot   string `json:"slot"`
		Offset int    `json:"offset"`
	} `json:"offsets"`
}

type jsonEventKey struct {
	Time    float32  `json:"time"`
	Name    string   `json:"name"`
	Int     *int32   `json:"int"`
	Float   *float32 `json:"float"`
	String  *string  `json:"string"`
	Volume  *float32 `json:"volume"`
	Balance *float32 `json:"balance"`
}

// parseColor RRGGBBAA，hasAlpha 为 false 时是 RRGGBB
func parseColor(value string, hasAlpha bool) (mgl32.Vec4, error) {
	size := 8
	if !hasAlpha {
		size = 6
	}
	if len(value) != size {
		return mgl32.Vec4{}, fmt.Errorf("invalid color: %q", value)
	}
	temp, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("invalid color: %q", value)
	}
	if !hasAlpha {
		temp = temp<<8 | 0xFF
	}
	return mgl32.Vec4{
		float32(temp>>24&0xFF) / 0xFF,
		float32(temp>>16&0xFF) / 0xFF,
		float32(temp>>8&0xFF) / 0xFF,
		float32(temp&0xFF) / 0xFF,
	}, nil
}

// colorOr 为空时使用默认颜色
func colorOr(value, def string) (mgl32.Vec4, error) {
	if value == "" {
		value = def
	}
	return parseColor(value, true)
}

var (
	transformModeNames = map[string]TransformMode{
		"normal":                 TransformNormal,
		"onlyTranslation":        TransformOnlyTranslation,
		"noRotationOrReflection": TransformNoRotationOrReflection,
		"noScale":                TransformNoScale,
		"noScaleOrReflection":    TransformNoScaleOrReflection,
	}
	blendModeNames = map[string]BlendMode{
		"normal":   BlendNormal,
		"additive": BlendAdditive,
		"multiply": BlendMultiply,
		"screen":   BlendScreen,
	}
	positionModeNames = map[string]PositionMode{"fixed": PositionFixed, "percent": PositionPercent}
	spacingModeNames  = map[string]SpacingMode{"length": SpacingLength, "fixed": SpacingFixed, "percent": SpacingPercent}
	rotateModeNames   = map[string]RotateMode{"tangent": RotateTangent, "chain": RotateChain, "chainScale": RotateChainScale}
)

func lookupMode[T any](names map[string]T, value, kind string) (T, error) {
	res, ok := names[value]
	if !ok {
		return res, fmt.Errorf("invalid %s: %q", kind, value)
	}
	return res, nil
}

func (j *SkeletonJSON) readSkeletonData(root *jsonSkeleton) (*SkeletonData, error) {
	scale := j.Scale
	res := &SkeletonData{
		Hash:       root.Skeleton.Hash,
		Version:    root.Skeleton.Spine,
		X:          root.Skeleton.X,
		Y:          root.Skeleton.Y,
		Width:      root.Skeleton.Width,
		Height:     root.Skeleton.Height,
		FPS:        root.Skeleton.FPS,
		ImagesPath: root.Skeleton.Images,
		AudioPath:  root.Skeleton.Audio,
	}
	if res.FPS == 0 {
		res.FPS = 30
	}

	for i, item := range root.Bones {
		data := &BoneData{Index: i, Name: item.Name}
		if item.Parent != "" {
			data.Parent = res.FindBone(item.Parent)
			if data.Parent == nil {
				return nil, fmt.Errorf("bone %s: parent %w: %s", item.Name, ErrBoneNotFound, item.Parent)
			}
		}
		data.Length = item.Length * scale
		data.X = item.X * scale
		data.Y = item.Y * scale
		data.Rotation = item.Rotation
		data.ScaleX, data.ScaleY = item.ScaleX, item.ScaleY
		data.ShearX, data.ShearY = item.ShearX, item.ShearY
		mode, err := lookupMode(transformModeNames, item.Transform, "transform mode")
		if err != nil {
			return nil, fmt.Errorf("bone %s: %w", item.Name, err)
		}
		data.TransformMode = mode
		data.SkinRequired = item.Skin
		if item.Color != "" {
			if data.Color, err = parseColor(item.Color, true); err != nil {
				return nil, fmt.Errorf("bone %s: %w", item.Name, err)
			}
		}
		res.Bones = append(res.Bones, data)
	}

	for i, item := range root.Slots {
		bone := res.FindBone(item.Bone)
		if bone == nil {
			return nil, fmt.Errorf("slot %s: %w: %s", item.Name, ErrBoneNotFound, item.Bone)
		}
		data := &SlotData{Index: i, Name: item.Name, BoneData: bone, AttachmentName: item.Attachment}
		var err error
		if data.Color, err = colorOr(item.Color, "FFFFFFFF"); err != nil {
			return nil, fmt.Errorf("slot %s: %w", item.Name, err)
		}
		if item.Dark != "" {
			if data.DarkColor, err = parseColor(item.Dark, false); err != nil {
				return nil, fmt.Errorf("slot %s: %w", item.Name, err)
			}
			data.HasDarkColor = true
		}
		blend := item.Blend
		if blend == "" {
			blend = "normal"
		}
		if data.BlendMode, err = lookupMode(blendModeNames, blend, "blend mode"); err != nil {
			return nil, fmt.Errorf("slot %s: %w", item.Name, err)
		}
		res.Slots = append(res.Slots, data)
	}

	for _, item := range root.Ik {
		bones, err := j.findBones(res, item.Bones)
		if err != nil {
			return nil, fmt.Errorf("ik constraint %s: %w", item.Name, err)
		}
		target := res.FindBone(item.Target)
		if target == nil {
			return nil, fmt.Errorf("ik constraint %s: target %w: %s", item.Name, ErrBoneNotFound, item.Target)
		}
		data := &IkConstraintData{Name: item.Name, Order: item.Order, SkinRequired: item.Skin, Bones: bones, Target: target,
			Mix: item.Mix, Softness: item.Softness * scale, BendDirection: -1, Compress: item.Compress,
			Stretch: item.Stretch, Uniform: item.Uniform}
		if item.BendPositive {
			data.BendDirection = 1
		}
		res.IkConstraints = append(res.IkConstraints, data)
	}

	for _, item := range root.Transform {
		bones, err := j.findBones(res, item.Bones)
		if err != nil {
			return nil, fmt.Errorf("transform constraint %s: %w", item.Name, err)
		}
		target := res.FindBone(item.Target)
		if target == nil {
			return nil, fmt.Errorf("transform constraint %s: target %w: %s", item.Name, ErrBoneNotFound, item.Target)
		}
		res.TransformConstraints = append(res.TransformConstraints, &TransformConstraintData{
			Name: item.Name, Order: item.Order, SkinRequired: item.Skin, Bones: bones, Target: target,
			Local: item.Local, Relative: item.Relative, OffsetRotation: item.Rotation,
			OffsetX: item.X * scale, OffsetY: item.Y * scale, OffsetScaleX: item.ScaleX, OffsetScaleY: item.ScaleY,
			OffsetShearY: item.ShearY, RotateMix: item.RotateMix, TranslateMix: item.TranslateMix,
			ScaleMix: item.ScaleMix, ShearMix: item.ShearMix,
		})
	}

	for _, item := range root.Path {
		bones, err := j.findBones(res, item.Bones)
		if err != nil {
			return nil, fmt.Errorf("path constraint %s: %w", item.Name, err)
		}
		target := res.FindSlot(item.Target)
		if target == nil {
			return nil, fmt.Errorf("path constraint %s: target %w: %s", item.Name, ErrSlotNotFound, item.Target)
		}
		data := &PathConstraintData{Name: item.Name, Order: item.Order, SkinRequired: item.Skin, Bones: bones, Target: target,
			OffsetRotation: item.Rotation, Position: item.Position, Spacing: item.Spacing,
			RotateMix: item.RotateMix, TranslateMix: item.TranslateMix}
		if data.PositionMode, err = lookupMode(positionModeNames, item.PositionMode, "position mode"); err != nil {
			return nil, fmt.Errorf("path constraint %s: %w", item.Name, err)
		}
		if data.SpacingMode, err = lookupMode(spacingModeNames, item.SpacingMode, "spacing mode"); err != nil {
			return nil, fmt.Errorf("path constraint %s: %w", item.Name, err)
		}
		if data.RotateMode, err = lookupMode(rotateModeNames, item.RotateMode, "rotate mode"); err != nil {
			return nil, fmt.Errorf("path constraint %s: %w", item.Name, err)
		}
		if data.PositionMode == PositionFixed {
			data.Position *= scale
		}
		if data.SpacingMode == SpacingLength || data.SpacingMode == SpacingFixed {
			data.Spacing *= scale
		}
		res.PathConstraints = append(res.PathConstraints, data)
	}

	linkedMeshes := make([]*linkedMesh, 0)
	for _, item := range root.Skins {
		skin, err := j.readSkin(res, item, &linkedMeshes)
		if err != nil {
			return nil, fmt.Errorf("skin %s: %w", item.Name, err)
		}
		res.Skins = append(res.Skins, skin)
		if skin.Name == "default" {
			res.DefaultSkin = skin
		}
	}
	if err := resolveLinkedMeshes(res, linkedMeshes); err != nil {
		return nil, err
	}

	for _, item := range root.Events {
		data := &EventData{Name: item.Key, Int: item.Value.Int, Float: item.Value.Float, String: item.Value.String,
			AudioPath: item.Value.Audio}
		if data.AudioPath != "" {
			data.Volume = item.Value.Volume
			data.Balance = item.Value.Balance
		}
		res.Events = append(res.Events, data)
	}

	for _, item := range root.Animations {
		animation, err := j.readAnimation(res, item.Key, item.Value)
		if err != nil {
			return nil, fmt.Errorf("animation %s: %w", item.Key, err)
		}
		res.Animations = append(res.Animations, animation)
	}
	return res, nil
}

func (j *SkeletonJSON) findBones(data *SkeletonData, names []string) ([]*BoneData, error) {
	res := make([]*BoneData, 0, len(names))
	for _, name := range names {
		bone := data.FindBone(name)
		if bone == nil {
			return nil, fmt.Errorf("%w: %s", ErrBoneNotFound, name)
		}
		res = append(res, bone)
	}
	return res, nil
}

func (j *SkeletonJSON) readSkin(data *SkeletonData, item *jsonSkin, linkedMeshes *[]*linkedMesh) (*Skin, error) {
	res := NewSkin(item.Name)
	bones, err := j.findBones(data, item.Bones)
	if err != nil {
		return nil, err
	}
	res.Bones = bones
	for _, name := range item.Ik {
		constraint := data.FindIkConstraint(name)
		if constraint == nil {
			return nil, fmt.Errorf("ik constraint not found: %s", name)
		}
		res.IkConstraints = append(res.IkConstraints, constraint)
	}
	for _, name := range item.Transform {
		constraint := data.FindTransformConstraint(name)
		if constraint == nil {
			return nil, fmt.Errorf("transform constraint not found: %s", name)
		}
		res.TransformConstraints = append(res.TransformConstraints, constraint)
	}
	for _, name := range item.Path {
		constraint := data.FindPathConstraint(name)
		if constraint == nil {
			return nil, fmt.Errorf("path constraint not found: %s", name)
		}
		res.PathConstraints = append(res.PathConstraints, constraint)
	}
	for _, slotEntry := range item.Attachments {
		slot := data.FindSlot(slotEntry.Key)
		if slot == nil {
			return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slotEntry.Key)
		}
		for _, entry := range slotEntry.Value {
			attachment, err := j.readAttachment(data, res, slot.Index, entry.Key, entry.Value, linkedMeshes)
			if err != nil {
				return nil, fmt.Errorf("attachment %s: %w", entry.Key, err)
			}
			if attachment != nil {
				res.SetAttachment(slot.Index, entry.Key, attachment)
			}
		}
	}
	return res, nil
}

func (j *SkeletonJSON) readAttachment(data *SkeletonData, skin *Skin, slotIndex int, attachmentName string, item *jsonAttachment,
	linkedMeshes *[]*linkedMesh) (Attachment, error) {
	scale := j.Scale
	name := item.Name
	if name == "" {
		name = attachmentName
	}
	path := item.Path
	if path == "" {
		path = name
	}
	kind, ok := attachmentTypeNames[item.Type]
	if !ok {
		return nil, fmt.Errorf("unknown attachment type: %s", item.Type)
	}
	switch kind {
	case AttachmentRegion:
		res, err := j.AttachmentLoader.NewRegionAttachment(skin, name, path)
		if err != nil || res == nil {
			return nil, err
		}
		res.Path = path
		res.X, res.Y = item.X*scale, item.Y*scale
		res.ScaleX, res.ScaleY = item.ScaleX, item.ScaleY
		res.Rotation = item.Rotation
		res.Width, res.Height = item.Width*scale, item.Height*scale
		if res.Color, err = colorOr(item.Color, "FFFFFFFF"); err != nil {
			return nil, err
		}
		res.UpdateOffset()
		return res, nil
	case AttachmentBoundingBox:
		res, err := j.AttachmentLoader.NewBoundingBoxAttachment(skin, name)
		if err != nil || res == nil {
			return nil, err
		}
		if res.Vertices, res.WeightVertices, err = j.readVertices(item.Vertices, item.VertexCount); err != nil {
			return nil, err
		}
		if res.Color, err = colorOr(item.Color, "60F000FF"); err != nil {
			return nil, err
		}
		return res, nil
	case AttachmentMesh, AttachmentLinkedMesh:
		res, err := j.AttachmentLoader.NewMeshAttachment(skin, name, path)
		if err != nil || res == nil {
			return nil, err
		}
		res.Path = path
		if res.Color, err = colorOr(item.Color, "FFFFFFFF"); err != nil {
			return nil, err
		}
		res.Width, res.Height = item.Width*scale, item.Height*scale
		if item.Parent != "" {
			*linkedMeshes = append(*linkedMeshes, &linkedMesh{mesh: res, skin: item.Skin, slotIndex: slotIndex,
				parent: item.Parent, inheritDeform: item.Deform})
			return res, nil
		}
		if len(item.UVs)%2 != 0 {
			return nil, fmt.Errorf("invalid uvs length: %d", len(item.UVs))
		}
		uvs := make([]mgl32.Vec2, len(item.UVs)/2)
		for i := range uvs {
			uvs[i] = mgl32.Vec2{item.UVs[i*2], item.UVs[i*2+1]}
		}
		if res.Vertices, res.WeightVertices, err = j.readVertices(item.Vertices, len(uvs)); err != nil {
			return nil, err
		}
		res.Triangles = item.Triangles
		res.RegionUVs = uvs
		res.UpdateUVs()
		res.HullLength = item.Hull
		res.Edges = item.Edges
		return res, nil
	case AttachmentPath:
		res, err := j.AttachmentLoader.NewPathAttachment(skin, name)
		if err != nil || res == nil {
			return nil, err
		}
		res.Closed = item.Closed
		res.ConstantSpeed = item.ConstantSpeed
		if res.Vertices, res.WeightVertices, err = j.readVertices(item.Vertices, item.VertexCount); err != nil {
			return nil, err
		}
		res.Lengths = make([]float32, len(item.Lengths))
		for i, length := range item.Lengths {
			res.Lengths[i] = length * scale
		}
		if res.Color, err = colorOr(item.Color, "FF7F00FF"); err != nil {
			return nil, err
		}
		return res, nil
	case AttachmentPoint:
		res, err := j.AttachmentLoader.NewPointAttachment(skin, name)
		if err != nil || res == nil {
			return nil, err
		}
		res.X, res.Y = item.X*scale, item.Y*scale
		res.Rotation = item.Rotation
		if res.Color, err = colorOr(item.Color, "F1F100FF"); err != nil {
			return nil, err
		}
		return res, nil
	default:
		res, err := j.AttachmentLoader.NewClippingAttachment(skin, name)
		if err != nil || res == nil {
			return nil, err
		}
		if item.End != "" {
			if res.EndSlot = data.FindSlot(item.End); res.EndSlot == nil {
				return nil, fmt.Errorf("clipping end %w: %s", ErrSlotNotFound, item.End)
			}
		}
		if res.Vertices, res.WeightVertices, err = j.readVertices(item.Vertices, item.VertexCount); err != nil {
			return nil, err
		}
		if res.Color, err = colorOr(item.Color, "CE3A3AFF"); err != nil {
			return nil, err
		}
		return res, nil
	}
}

// readVertices 长度等于 2*vertexCount 时不带权重，否则每个顶点为 骨骼数,(骨骼,x,y,权重)...
func (j *SkeletonJSON) readVertices(values []float32, vertexCount int) ([]mgl32.Vec2, [][]*WeightVertex, error) {
	if len(values) == vertexCount*2 {
		vertices := make([]mgl32.Vec2, vertexCount)
		for i := range vertices {
			vertices[i] = mgl32.Vec2{values[i*2] * j.Scale, values[i*2+1] * j.Scale}
		}
		return vertices, nil, nil
	}
	weights := make([][]*WeightVertex, 0, vertexCount)
	for i := 0; i < len(values); {
		boneCount := int(values[i])
		i++
		if i+boneCount*4 > len(values) {
			return nil, nil, fmt.Errorf("invalid weighted vertices length: %d", len(values))
		}
		items := make([]*WeightVertex, 0, boneCount)
		for k := 0; k < boneCount; k++ {
			items = append(items, &WeightVertex{
				Bone:   int(values[i]),
				Offset: mgl32.Vec2{values[i+1] * j.Scale, values[i+2] * j.Scale},
				Weight: values[i+3],
			})
			i += 4
		}
		weights = append(weights, items)
	}
	if len(weights) != vertexCount {
		return nil, nil, fmt.Errorf("vertex count mismatch: %d != %d", len(weights), vertexCount)
	}
	return nil, weights, nil
}

func decodeKeys[T any](raw json.RawMessage) ([]T, error) {
	res := make([]T, 0)
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("timeline has no keys")
	}
	return res, nil
}

func (j *SkeletonJSON) readAnimation(data *SkeletonData, name string, item *jsonAnimation) (*Animation, error) {
	scale := j.Scale
	timelines := make([]Timeline, 0)

	for _, slotEntry := range item.Slots {
		slot := data.FindSlot(slotEntry.Key)
		if slot == nil {
			return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slotEntry.Key)
		}
		for _, entry := range slotEntry.Value {
			timeline, err := j.readSlotTimeline(slot.Index, entry.Key, entry.Value)
			if err != nil {
				return nil, fmt.Errorf("slot %s %s: %w", slotEntry.Key, entry.Key, err)
			}
			timelines = append(timelines, timeline)
		}
	}

	for _, boneEntry := range item.Bones {
		bone := data.FindBone(boneEntry.Key)
		if bone == nil {
			return nil, fmt.Errorf("%w: %s", ErrBoneNotFound, boneEntry.Key)
		}
		for _, entry := range boneEntry.Value {
			timeline, err := j.readBoneTimeline(bone.Index, entry.Key, entry.Value)
			if err != nil {
				return nil, fmt.Errorf("bone %s %s: %w", boneEntry.Key, entry.Key, err)
			}
			timelines = append(timelines, timeline)
		}
	}

	for _, entry := range item.Ik {
		idx := indexOf(data.IkConstraints, func(item *IkConstraintData) bool { return item.Name == entry.Key })
		if idx < 0 {
			return nil, fmt.Errorf("ik constraint not found: %s", entry.Key)
		}
		if len(entry.Value) == 0 {
			continue
		}
		frames := make([]IkFrame, len(entry.Value))
		for i, key := range entry.Value {
			frame, err := key.keyFrame()
			if err != nil {
				return nil, fmt.Errorf("ik %s: %w", entry.Key, err)
			}
			frames[i] = IkFrame{KeyFrame: frame, Mix: key.Mix, Softness: key.Softness * scale, BendDirection: -1,
				Compress: key.Compress, Stretch: key.Stretch}
			if key.BendPositive {
				frames[i].BendDirection = 1
			}
		}
		timelines = append(timelines, &IkConstraintTimeline{ConstraintIndex: idx, Frames: frames})
	}

	for _, entry := range item.Transform {
		idx := indexOf(data.TransformConstraints, func(item *TransformConstraintData) bool { return item.Name == entry.Key })
		if idx < 0 {
			return nil, fmt.Errorf("transform constraint not found: %s", entry.Key)
		}
		if len(entry.Value) == 0 {
			continue
		}
		frames := make([]TransformFrame, len(entry.Value))
		for i, key := range entry.Value {
			frame, err := key.keyFrame()
			if err != nil {
				return nil, fmt.Errorf("transform %s: %w", entry.Key, err)
			}
			frames[i] = TransformFrame{KeyFrame: frame, Rotate: key.RotateMix, Translate: key.TranslateMix,
				Scale: key.ScaleMix, Shear: key.ShearMix}
		}
		timelines = append(timelines, &TransformConstraintTimeline{ConstraintIndex: idx, Frames: frames})
	}

	for _, pathEntry := range item.Path {
		idx := indexOf(data.PathConstraints, func(item *PathConstraintData) bool { return item.Name == pathEntry.Key })
		if idx < 0 {
			return nil, fmt.Errorf("path constraint not found: %s", pathEntry.Key)
		}
		for _, entry := range pathEntry.Value {
			timeline, err := j.readPathTimeline(idx, data.PathConstraints[idx], entry.Key, entry.Value)
			if err != nil {
				return nil, fmt.Errorf("path %s %s: %w", pathEntry.Key, entry.Key, err)
			}
			timelines = append(timelines, timeline)
		}
	}

	for _, skinEntry := range item.Deform {
		skin := data.FindSkin(skinEntry.Key)
		if skin == nil {
			return nil, fmt.Errorf("%w: %s", ErrSkinNotFound, skinEntry.Key)
		}
		for _, slotEntry := range skinEntry.Value {
			slot := data.FindSlot(slotEntry.Key)
			if slot == nil {
				return nil, fmt.Errorf("%w: %s", ErrSlotNotFound, slotEntry.Key)
			}
			for _, entry := range slotEntry.Value {
				attacher, ok := skin.GetAttachment(slot.Index, entry.Key).(VertexAttacher)
				if !ok {
					return nil, fmt.Errorf("deform %w: %s", ErrAttachmentNotFound, entry.Key)
				}
				timeline, err := j.readDeformTimeline(slot.Index, attacher.Vertex(), entry.Value)
				if err != nil {
					return nil, fmt.Errorf("deform %s: %w", entry.Key, err)
				}
				timelines = append(timelines, timeline)
			}
		}
	}

	if len(item.DrawOrder) > 0 {
		frames := make([]DrawOrderFrame, len(item.DrawOrder))
		for i, key := range item.DrawOrder {
			frames[i].Time = key.Time
			if len(key.Offsets) == 0 {
				continue // setup 顺序
			}
			offsets := make([][2]int, 0, len(key.Offsets))
			for _, offset := range key.Offsets {
				slot := data.FindSlot(offset.Slot)
				if slot == nil {
					return nil, fmt.Errorf("draw order %w: %s", ErrSlotNotFound, offset.Slot)
				}
				offsets = append(offsets, [2]int{slot.Index, offset.Offset})
			}
			drawOrder, err := buildDrawOrder(len(data.Slots), offsets)
			if err != nil {
				return nil, err
			}
			frames[i].DrawOrder = drawOrder
		}
		timelines = append(timelines, &DrawOrderTimeline{Frames: frames})
	}

	if len(item.Events) > 0 {
		frames := make([]*Event, len(item.Events))
		for i, key := range item.Events {
			eventData := data.FindEvent(key.Name)
			if eventData == nil {
				return nil, fmt.Errorf("event not found: %s", key.Name)
			}
			event := NewEvent(key.Time, eventData)
			if key.Int != nil {
				event.Int = *key.Int
			}
			if key.Float != nil {
				event.Float = *key.Float
			}
			if key.String != nil {
				event.String = *key.String
			}
			if eventData.AudioPath != "" {
				if key.Volume != nil {
					event.Volume = *key.Volume
				}
				if key.Balance != nil {
					event.Balance = *key.Balance
				}
			}
			frames[i] = event
		}
		timelines = append(timelines, &EventTimeline{Frames: frames})
	}
	return NewAnimation(name, timelines, -1), nil
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}

func (j *SkeletonJSON) readSlotTimeline(slotIndex int, kind string, raw json.RawMessage) (Timeline, error) {
	switch kind {
	case "attachment":
		keys, err := decodeKeys[*jsonAttachmentKey](raw)
		if err != nil {
			return nil, err
		}
		frames := make([]AttachmentFrame, len(keys))
		for i, key := range keys {
			frames[i].Time = key.Time
			frames[i].Name = key.Name
		}
		return &AttachmentTimeline{SlotIndex: slotIndex, Frames: frames}, nil
	case "color":
		keys, err := decodeKeys[*jsonColorKey](raw)
		if err != nil {
			return nil, err
		}
		frames := make([]ColorFrame, len(keys))
		for i, key := range keys {
			if frames[i].KeyFrame, err = key.keyFrame(); err != nil {
				return nil, err
			}
			if frames[i].Color, err = parseColor(key.Color, true); err != nil {
				return nil, err
			}
		}
		return &ColorTimeline{SlotIndex: slotIndex, Frames: frames}, nil
	case "twoColor":
		keys, err := decodeKeys[*jsonColorKey](raw)
		if err != nil {
			return nil, err
		}
		frames := make([]TwoColorFrame, len(keys))
		for i, key := range keys {
			if frames[i].KeyFrame, err = key.keyFrame(); err != nil {
				return nil, err
			}
			if frames[i].Light, err = parseColor(key.Light, true); err != nil {
				return nil, err
			}
			if frames[i].Dark, err = parseColor(key.Dark, false); err != nil {
				return nil, err
			}
		}
		return &TwoColorTimeline{SlotIndex: slotIndex, Frames: frames}, nil
	default:
		return nil, fmt.Errorf("invalid timeline type for a slot: %s", kind)
	}
}

func (j *SkeletonJSON) readBoneTimeline(boneIndex int, kind string, raw json.RawMessage) (Timeline, error) {
	if kind == "rotate" {
		keys, err := decodeKeys[*jsonRotateKey](raw)
		if err != nil {
			return nil, err
		}
		frames := make([]ValueFrame, len(keys))
		for i, key := range keys {
			if frames[i].KeyFrame, err = key.keyFrame(); err != nil {
				return nil, err
			}
			frames[i].Value = key.Angle
		}
		return &RotateTimeline{BoneIndex: boneIndex, Frames: frames}, nil
	}
	def, timelineScale := float32(0), float32(1)
	switch kind {
	case "translate":
		timelineScale = j.Scale
	case "scale":
		def = 1
	case "shear":
	default:
		return nil, fmt.Errorf("invalid timeline type for a bone: %s", kind)
	}
	keys, err := decodeKeys[*jsonVec2Key](raw)
	if err != nil {
		return nil, err
	}
	frames := make([]Vec2Frame, len(keys))
	for i, key := range keys {
		if frames[i].KeyFrame, err = key.keyFrame(); err != nil {
			return nil, err
		}
		x, y := def, def
		if key.X != nil {
			x = *key.X
		}
		if key.Y != nil {
			y = *key.Y
		}
		frames[i].Value = mgl32.Vec2{x * timelineScale, y * timelineScale}
	}
	switch kind {
	case "translate":
		return &TranslateTimeline{BoneIndex: boneIndex, Frames: frames}, nil
	case "scale":
		return &ScaleTimeline{BoneIndex: boneIndex, Frames: frames}, nil
	default:
		return &ShearTimeline{BoneIndex: boneIndex, Frames: frames}, nil
	}
}

func (j *SkeletonJSON) readPathTimeline(idx int, data *PathConstraintData, kind string, raw json.RawMessage) (Timeline, error) {
	keys, err := decodeKeys[*jsonPathKey](raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "position", "spacing":
		timelineScale := float32(1)
		if kind == "spacing" {
			if data.SpacingMode == SpacingLength || data.SpacingMode == SpacingFixed {
				timelineScale = j.Scale
			}
		} else if data.PositionMode == PositionFixed {
			timelineScale = j.Scale
		}
		frames := make([]ValueFrame, len(keys))
		for i, key := range keys {
			if frames[i].KeyFrame, err = key.keyFrame(); err != nil {
				return nil, err
			}
			if kind == "spacing" {
				frames[i].Value = key.Spacing * timelineScale
			} else {
				frames[i].Value = key.Position * timelineScale
			}
		}
		if kind == "spacing" {
			return &PathConstraintSpacingTimeline{ConstraintIndex: idx, Frames: frames}, nil
		}
		return &PathConstraintPositionTimeline{ConstraintIndex: idx, Frames: frames}, nil
	case "mix":
		frames := make([]PathMixFrame, len(keys))
		for i, key := range keys {
			if frames[i].KeyFrame, err = key.keyFrame(); err != nil {
				return nil, err
			}
			frames[i].Rotate = key.RotateMix
			frames[i].Translate = key.TranslateMix
		}
		return &PathConstraintMixTimeline{ConstraintIndex: idx, Frames: frames}, nil
	default:
		return nil, fmt.Errorf("invalid timeline type for a path constraint: %s", kind)
	}
}

func (j *SkeletonJSON) readDeformTimeline(slotIndex int, attachment *VertexAttachment, keys []*jsonDeformKey) (*DeformTimeline, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("timeline has no keys")
	}
	weighted := attachment.Weighted()
	deformLength := attachment.DeformLength()
	frames := make([]DeformFrame, len(keys))
	for i, key := range keys {
		frame, err := key.keyFrame()
		if err != nil {
			return nil, err
		}
		frames[i].KeyFrame = frame
		deform := make([]mgl32.Vec2, deformLength)
		if key.Vertices == nil {
			if !weighted {
				copy(deform, attachment.Vertices)
			}
			frames[i].Vertices = deform
			continue
		}
		if key.Offset < 0 || key.Offset+len(key.Vertices) > deformLength*2 {
			return nil, fmt.Errorf("invalid deform range: %d+%d", key.Offset, len(key.Vertices))
		}
		for n, value := range key.Vertices {
			idx := key.Offset + n
			deform[idx/2][idx%2] = value * j.Scale
		}
		if !weighted {
			for n, vertex := range attachment.Vertices {
				deform[n] = deform[n].Add(vertex)
			}
		}
		frames[i].Vertices = deform
	}
	return &DeformTimeline{SlotIndex: slotIndex, Attachment: attachment, Frames: frames}, nil
}
