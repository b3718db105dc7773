package spine

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrAnimationNotFound  = errors.New("animation not found")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrBoneNotFound       = errors.New("bone not found")
	ErrSkinNotFound       = errors.New("skin not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

type TransformMode uint8

const (
	TransformNormal TransformMode = iota
	TransformOnlyTranslation
	TransformNoRotationOrReflection
	TransformNoScale
	TransformNoScaleOrReflection
)

type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

type PositionMode uint8

const (
	PositionFixed PositionMode = iota
	PositionPercent
)

type SpacingMode uint8

const (
	SpacingLength SpacingMode = iota
	SpacingFixed
	SpacingPercent
)

type RotateMode uint8

const (
	RotateTangent RotateMode = iota
	RotateChain
	RotateChainScale
)

type BoneData struct {
	Index         int
	Name          string
	Parent        *BoneData
	Length        float32
	X, Y          float32
	Rotation      float32
	ScaleX        float32
	ScaleY        float32
	ShearX        float32
	ShearY        float32
	TransformMode TransformMode
	SkinRequired  bool
	Color         mgl32.Vec4 // 编辑器使用 非必要数据
}

type SlotData struct {
	Index          int
	Name           string
	BoneData       *BoneData
	Color          mgl32.Vec4
	DarkColor      mgl32.Vec4
	HasDarkColor   bool
	AttachmentName string
	BlendMode      BlendMode
}

type EventData struct {
	Name      string
	Int       int32
	Float     float32
	String    string
	AudioPath string
	Volume    float32
	Balance   float32
}

type Event struct {
	Data    *EventData
	Time    float32
	Int     int32
	Float   float32
	String  string
	Volume  float32
	Balance float32
}

func NewEvent(time float32, data *EventData) *Event {
	return &Event{Data: data, Time: time, Int: data.Int, Float: data.Float, String: data.String,
		Volume: data.Volume, Balance: data.Balance}
}

type IkConstraintData struct {
	Name          string
	Order         int
	SkinRequired  bool
	Bones         []*BoneData
	Target        *BoneData
	BendDirection int
	Compress      bool
	Stretch       bool
	Uniform       bool
	Mix           float32
	Softness      float32
}

type TransformConstraintData struct {
	Name           string
	Order          int
	SkinRequired   bool
	Bones          []*BoneData
	Target         *BoneData
	RotateMix      float32
	TranslateMix   float32
	ScaleMix       float32
	ShearMix       float32
	OffsetRotation float32
	OffsetX        float32
	OffsetY        float32
	OffsetScaleX   float32
	OffsetScaleY   float32
	OffsetShearY   float32
	Relative       bool
	Local          bool
}

type PathConstraintData struct {
	Name           string
	Order          int
	SkinRequired   bool
	Bones          []*BoneData
	Target         *SlotData
	PositionMode   PositionMode
	SpacingMode    SpacingMode
	RotateMode     RotateMode
	OffsetRotation float32
	Position       float32
	Spacing        float32
	RotateMix      float32
	TranslateMix   float32
}

type SkeletonData struct {
	Name                 string
	Hash                 string
	Version              string
	X, Y                 float32
	Width, Height        float32
	FPS                  float32
	ImagesPath           string
	AudioPath            string
	Bones                []*BoneData // 父骨骼总在子骨骼之前
	Slots                []*SlotData
	Skins                []*Skin
	DefaultSkin          *Skin
	Events               []*EventData
	Animations           []*Animation
	IkConstraints        []*IkConstraintData
	TransformConstraints []*TransformConstraintData
	PathConstraints      []*PathConstraintData
}

func (d *SkeletonData) FindBone(name string) *BoneData {
	for _, item := range d.Bones {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindSlot(name string) *SlotData {
	for _, item := range d.Slots {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindSkin(name string) *Skin {
	for _, item := range d.Skins {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindEvent(name string) *EventData {
	for _, item := range d.Events {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindAnimation(name string) *Animation {
	for _, item := range d.Animations {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindIkConstraint(name string) *IkConstraintData {
	for _, item := range d.IkConstraints {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindTransformConstraint(name string) *TransformConstraintData {
	for _, item := range d.TransformConstraints {
		if item.Name == name {
			return item
		}
	}
	return nil
}

func (d *SkeletonData) FindPathConstraint(name string) *PathConstraintData {
	for _, item := range d.PathConstraints {
		if item.Name == name {
			return item
		}
	}
	return nil
}

// Dispose 数据由 GC 回收，这里只断开对图集贴图的引用
func (d *SkeletonData) Dispose() {
	for _, skin := range d.Skins {
		skin.attachments = nil
	}
	d.Animations = nil
}
