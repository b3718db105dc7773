package spine

type skinKey struct {
	slot int
	name string
}

type SkinEntry struct {
	SlotIndex  int
	Name       string
	Attachment Attachment
}

// Skin name + slot 才能唯一确定一个附件
type Skin struct {
	Name                 string
	Bones                []*BoneData
	IkConstraints        []*IkConstraintData
	TransformConstraints []*TransformConstraintData
	PathConstraints      []*PathConstraintData
	attachments          map[skinKey]Attachment
	keys                 []skinKey // 保持插入顺序
}

func NewSkin(name string) *Skin {
	return &Skin{Name: name, attachments: make(map[skinKey]Attachment)}
}

func (s *Skin) SetAttachment(slotIndex int, name string, attachment Attachment) {
	if s.attachments == nil {
		s.attachments = make(map[skinKey]Attachment)
	}
	key := skinKey{slot: slotIndex, name: name}
	if _, ok := s.attachments[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.attachments[key] = attachment
}

func (s *Skin) GetAttachment(slotIndex int, name string) Attachment {
	return s.attachments[skinKey{slot: slotIndex, name: name}]
}

func (s *Skin) RemoveAttachment(slotIndex int, name string) {
	key := skinKey{slot: slotIndex, name: name}
	if _, ok := s.attachments[key]; !ok {
		return
	}
	delete(s.attachments, key)
	for i, item := range s.keys {
		if item == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

func (s *Skin) Entries() []SkinEntry {
	res := make([]SkinEntry, 0, len(s.keys))
	for _, key := range s.keys {
		if attachment, ok := s.attachments[key]; ok {
			res = append(res, SkinEntry{SlotIndex: key.slot, Name: key.name, Attachment: attachment})
		}
	}
	return res
}

func (s *Skin) EntriesForSlot(slotIndex int) []SkinEntry {
	res := make([]SkinEntry, 0)
	for _, item := range s.Entries() {
		if item.SlotIndex == slotIndex {
			res = append(res, item)
		}
	}
	return res
}

// AddSkin 合并另一个皮肤的附件、骨骼与约束
func (s *Skin) AddSkin(other *Skin) {
	for _, item := range other.Bones {
		if !containsPtr(s.Bones, item) {
			s.Bones = append(s.Bones, item)
		}
	}
	for _, item := range other.IkConstraints {
		if !containsPtr(s.IkConstraints, item) {
			s.IkConstraints = append(s.IkConstraints, item)
		}
	}
	for _, item := range other.TransformConstraints {
		if !containsPtr(s.TransformConstraints, item) {
			s.TransformConstraints = append(s.TransformConstraints, item)
		}
	}
	for _, item := range other.PathConstraints {
		if !containsPtr(s.PathConstraints, item) {
			s.PathConstraints = append(s.PathConstraints, item)
		}
	}
	for _, item := range other.Entries() {
		s.SetAttachment(item.SlotIndex, item.Name, item.Attachment)
	}
}

// AttachAll 旧皮肤上正在显示的附件，如果新皮肤有同名的就替换
func (s *Skin) AttachAll(skeleton *Skeleton, oldSkin *Skin) {
	for _, item := range oldSkin.Entries() {
		slot := skeleton.Slots[item.SlotIndex]
		if slot.Attachment() != item.Attachment {
			continue
		}
		if attachment := s.GetAttachment(item.SlotIndex, item.Name); attachment != nil {
			slot.SetAttachment(attachment)
		}
	}
}

func (s *Skin) hasConstraint(data any) bool {
	switch item := data.(type) {
	case *IkConstraintData:
		return containsPtr(s.IkConstraints, item)
	case *TransformConstraintData:
		return containsPtr(s.TransformConstraints, item)
	case *PathConstraintData:
		return containsPtr(s.PathConstraints, item)
	}
	return false
}

func (s *Skin) String() string {
	return s.Name
}

func containsPtr[T comparable](items []T, target T) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
