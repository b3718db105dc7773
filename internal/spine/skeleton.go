package spine

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Skeleton struct {
	Data                 *SkeletonData
	Bones                []*Bone
	Slots                []*Slot
	DrawOrder            []*Slot
	IkConstraints        []*IkConstraint
	TransformConstraints []*TransformConstraint
	PathConstraints      []*PathConstraint
	Skin                 *Skin
	Color                mgl32.Vec4
	Time                 float32
	ScaleX, ScaleY       float32
	X, Y                 float32

	updateCache      []Updatable
	updateCacheReset []*Bone
}

func NewSkeleton(data *SkeletonData) *Skeleton {
	res := &Skeleton{Data: data, Color: mgl32.Vec4{1, 1, 1, 1}, ScaleX: 1, ScaleY: 1}
	for _, item := range data.Bones { // 父骨骼总在前面
		var parent *Bone
		if item.Parent != nil {
			parent = res.Bones[item.Parent.Index]
		}
		bone := NewBone(item, res, parent)
		if parent != nil {
			parent.Children = append(parent.Children, bone)
		}
		res.Bones = append(res.Bones, bone)
	}
	for _, item := range data.Slots {
		slot := NewSlot(item, res.Bones[item.BoneData.Index])
		res.Slots = append(res.Slots, slot)
		res.DrawOrder = append(res.DrawOrder, slot)
	}
	for _, item := range data.IkConstraints {
		res.IkConstraints = append(res.IkConstraints, NewIkConstraint(item, res))
	}
	for _, item := range data.TransformConstraints {
		res.TransformConstraints = append(res.TransformConstraints, NewTransformConstraint(item, res))
	}
	for _, item := range data.PathConstraints {
		res.PathConstraints = append(res.PathConstraints, NewPathConstraint(item, res))
	}
	res.UpdateCache()
	return res
}

func (s *Skeleton) RootBone() *Bone {
	if len(s.Bones) == 0 {
		return nil
	}
	return s.Bones[0]
}

// UpdateCache 骨骼、约束变化后重新计算更新顺序
func (s *Skeleton) UpdateCache() {
	s.updateCache = s.updateCache[:0]
	s.updateCacheReset = s.updateCacheReset[:0]
	for _, bone := range s.Bones {
		bone.sorted = bone.Data.SkinRequired
		bone.active = !bone.sorted
	}
	if s.Skin != nil {
		for _, item := range s.Skin.Bones {
			for bone := s.Bones[item.Index]; bone != nil; bone = bone.Parent {
				bone.sorted = false
				bone.active = true
			}
		}
	}
	count := len(s.IkConstraints) + len(s.TransformConstraints) + len(s.PathConstraints)
outer:
	for i := 0; i < count; i++ { // 按 order 排序
		for _, item := range s.IkConstraints {
			if item.Data.Order == i {
				s.sortIkConstraint(item)
				continue outer
			}
		}
		for _, item := range s.TransformConstraints {
			if item.Data.Order == i {
				s.sortTransformConstraint(item)
				continue outer
			}
		}
		for _, item := range s.PathConstraints {
			if item.Data.Order == i {
				s.sortPathConstraint(item)
				continue outer
			}
		}
	}
	for _, bone := range s.Bones {
		s.sortBone(bone)
	}
}

func (s *Skeleton) constraintActive(skinRequired bool, data any) bool {
	return !skinRequired || (s.Skin != nil && s.Skin.hasConstraint(data))
}

func (s *Skeleton) sortIkConstraint(constraint *IkConstraint) {
	constraint.active = constraint.Target.IsActive() && s.constraintActive(constraint.Data.SkinRequired, constraint.Data)
	if !constraint.active {
		return
	}
	s.sortBone(constraint.Target)
	parent := constraint.Bones[0]
	s.sortBone(parent)
	if len(constraint.Bones) > 1 {
		child := constraint.Bones[len(constraint.Bones)-1]
		if !s.inUpdateCache(child) {
			s.updateCacheReset = append(s.updateCacheReset, child)
		}
	}
	s.updateCache = append(s.updateCache, constraint)
	s.sortReset(parent.Children)
	constraint.Bones[len(constraint.Bones)-1].sorted = true
}

func (s *Skeleton) sortTransformConstraint(constraint *TransformConstraint) {
	constraint.active = constraint.Target.IsActive() && s.constraintActive(constraint.Data.SkinRequired, constraint.Data)
	if !constraint.active {
		return
	}
	s.sortBone(constraint.Target)
	if constraint.Data.Local {
		for _, child := range constraint.Bones {
			s.sortBone(child.Parent)
			if !s.inUpdateCache(child) {
				s.updateCacheReset = append(s.updateCacheReset, child)
			}
		}
	} else {
		for _, item := range constraint.Bones {
			s.sortBone(item)
		}
	}
	s.updateCache = append(s.updateCache, constraint)
	for _, item := range constraint.Bones {
		s.sortReset(item.Children)
	}
	for _, item := range constraint.Bones {
		item.sorted = true
	}
}

func (s *Skeleton) sortPathConstraint(constraint *PathConstraint) {
	constraint.active = constraint.Target.Bone.IsActive() && s.constraintActive(constraint.Data.SkinRequired, constraint.Data)
	if !constraint.active {
		return
	}
	slot := constraint.Target
	slotIndex := slot.Data.Index
	slotBone := slot.Bone
	if s.Skin != nil {
		s.sortPathConstraintSkin(s.Skin, slotIndex, slotBone)
	}
	if s.Data.DefaultSkin != nil && s.Data.DefaultSkin != s.Skin {
		s.sortPathConstraintSkin(s.Data.DefaultSkin, slotIndex, slotBone)
	}
	s.sortPathConstraintAttachment(slot.Attachment(), slotBone)
	for _, item := range constraint.Bones {
		s.sortBone(item)
	}
	s.updateCache = append(s.updateCache, constraint)
	for _, item := range constraint.Bones {
		s.sortReset(item.Children)
	}
	for _, item := range constraint.Bones {
		item.sorted = true
	}
}

func (s *Skeleton) sortPathConstraintSkin(skin *Skin, slotIndex int, slotBone *Bone) {
	for _, item := range skin.EntriesForSlot(slotIndex) {
		s.sortPathConstraintAttachment(item.Attachment, slotBone)
	}
}

func (s *Skeleton) sortPathConstraintAttachment(attachment Attachment, slotBone *Bone) {
	path, ok := attachment.(*PathAttachment)
	if !ok {
		return
	}
	if !path.Weighted() {
		s.sortBone(slotBone)
		return
	}
	for _, items := range path.WeightVertices {
		for _, item := range items {
			s.sortBone(s.Bones[item.Bone])
		}
	}
}

func (s *Skeleton) sortBone(bone *Bone) {
	if bone.sorted {
		return
	}
	if bone.Parent != nil {
		s.sortBone(bone.Parent)
	}
	bone.sorted = true
	s.updateCache = append(s.updateCache, bone)
}

func (s *Skeleton) sortReset(bones []*Bone) {
	for _, bone := range bones {
		if !bone.active {
			continue
		}
		if bone.sorted {
			s.sortReset(bone.Children)
		}
		bone.sorted = false
	}
}

func (s *Skeleton) inUpdateCache(bone *Bone) bool {
	for _, item := range s.updateCache {
		if item == Updatable(bone) {
			return true
		}
	}
	return false
}

// UpdateWorldTransform 按更新缓存顺序计算骨骼世界矩阵并应用约束
func (s *Skeleton) UpdateWorldTransform() {
	for _, bone := range s.updateCacheReset {
		bone.AX, bone.AY = bone.X, bone.Y
		bone.ARotation = bone.Rotation
		bone.AScaleX, bone.AScaleY = bone.ScaleX, bone.ScaleY
		bone.AShearX, bone.AShearY = bone.ShearX, bone.ShearY
		bone.AppliedValid = true
	}
	for _, item := range s.updateCache {
		item.Update()
	}
}

func (s *Skeleton) SetToSetupPose() {
	s.SetBonesToSetupPose()
	s.SetSlotsToSetupPose()
}

func (s *Skeleton) SetBonesToSetupPose() {
	for _, bone := range s.Bones {
		bone.SetToSetupPose()
	}
	for _, item := range s.IkConstraints {
		item.SetToSetupPose()
	}
	for _, item := range s.TransformConstraints {
		item.SetToSetupPose()
	}
	for _, item := range s.PathConstraints {
		item.SetToSetupPose()
	}
}

func (s *Skeleton) SetSlotsToSetupPose() {
	s.DrawOrder = append(s.DrawOrder[:0], s.Slots...)
	for _, slot := range s.Slots {
		slot.SetToSetupPose()
	}
}

func (s *Skeleton) FindBone(name string) *Bone {
	for _, item := range s.Bones {
		if item.Data.Name == name {
			return item
		}
	}
	return nil
}

func (s *Skeleton) FindSlot(name string) *Slot {
	for _, item := range s.Slots {
		if item.Data.Name == name {
			return item
		}
	}
	return nil
}

func (s *Skeleton) FindIkConstraint(name string) *IkConstraint {
	for _, item := range s.IkConstraints {
		if item.Data.Name == name {
			return item
		}
	}
	return nil
}

func (s *Skeleton) FindTransformConstraint(name string) *TransformConstraint {
	for _, item := range s.TransformConstraints {
		if item.Data.Name == name {
			return item
		}
	}
	return nil
}

func (s *Skeleton) FindPathConstraint(name string) *PathConstraint {
	for _, item := range s.PathConstraints {
		if item.Data.Name == name {
			return item
		}
	}
	return nil
}

// SetSkinByName 空字符串表示取消皮肤
func (s *Skeleton) SetSkinByName(name string) error {
	if name == "" {
		s.SetSkin(nil)
		return nil
	}
	skin := s.Data.FindSkin(name)
	if skin == nil {
		return fmt.Errorf("%w: %s", ErrSkinNotFound, name)
	}
	s.SetSkin(skin)
	return nil
}

// SetSkin 没有旧皮肤时挂上槽位的默认附件，否则替换旧皮肤正在显示的附件
func (s *Skeleton) SetSkin(skin *Skin) {
	if skin == s.Skin {
		return
	}
	if skin != nil {
		if s.Skin != nil {
			skin.AttachAll(s, s.Skin)
		} else {
			for i, slot := range s.Slots {
				name := slot.Data.AttachmentName
				if name == "" {
					continue
				}
				if attachment := skin.GetAttachment(i, name); attachment != nil {
					slot.SetAttachment(attachment)
				}
			}
		}
	}
	s.Skin = skin
	s.UpdateCache()
}

func (s *Skeleton) GetAttachment(slotName, attachmentName string) Attachment {
	slot := s.Data.FindSlot(slotName)
	if slot == nil {
		return nil
	}
	return s.GetAttachmentByIndex(slot.Index, attachmentName)
}

// GetAttachmentByIndex 先查当前皮肤，再查默认皮肤
func (s *Skeleton) GetAttachmentByIndex(slotIndex int, attachmentName string) Attachment {
	if s.Skin != nil {
		if attachment := s.Skin.GetAttachment(slotIndex, attachmentName); attachment != nil {
			return attachment
		}
	}
	if s.Data.DefaultSkin != nil {
		return s.Data.DefaultSkin.GetAttachment(slotIndex, attachmentName)
	}
	return nil
}

// SetAttachment attachmentName 为空表示清空槽位
func (s *Skeleton) SetAttachment(slotName, attachmentName string) error {
	slot := s.FindSlot(slotName)
	if slot == nil {
		return fmt.Errorf("%w: %s", ErrSlotNotFound, slotName)
	}
	if attachmentName == "" {
		slot.SetAttachment(nil)
		return nil
	}
	attachment := s.GetAttachmentByIndex(slot.Data.Index, attachmentName)
	if attachment == nil {
		return fmt.Errorf("%w: %s, slot: %s", ErrAttachmentNotFound, attachmentName, slotName)
	}
	slot.SetAttachment(attachment)
	return nil
}

func (s *Skeleton) Update(delta float32) {
	s.Time += delta
}

// Bounds 所有可见区域与网格附件的世界坐标包围盒
func (s *Skeleton) Bounds() (mgl32.Vec2, mgl32.Vec2) {
	minX, minY := float32(1<<31), float32(1<<31)
	maxX, maxY := -float32(1<<31), -float32(1<<31)
	vertices := make([]mgl32.Vec2, 0)
	for _, slot := range s.DrawOrder {
		if !slot.Bone.IsActive() {
			continue
		}
		switch attachment := slot.Attachment().(type) {
		case *RegionAttachment:
			vertices = attachment.ComputeWorldVertices(slot.Bone, vertices)
		case *MeshAttachment:
			vertices = attachment.ComputeWorldVertices(slot, vertices)
		default:
			continue
		}
		for _, item := range vertices {
			minX, minY = min(minX, item.X()), min(minY, item.Y())
			maxX, maxY = max(maxX, item.X()), max(maxY, item.Y())
		}
	}
	if minX > maxX {
		return mgl32.Vec2{}, mgl32.Vec2{}
	}
	return mgl32.Vec2{minX, minY}, mgl32.Vec2{maxX - minX, maxY - minY}
}
