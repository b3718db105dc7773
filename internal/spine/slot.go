package spine

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Slot struct {
	Data           *SlotData
	Bone           *Bone
	Color          mgl32.Vec4
	DarkColor      mgl32.Vec4 // 只有 Data.HasDarkColor 时生效
	Deform         []mgl32.Vec2
	attachment     Attachment
	attachmentTime float32
	// AnimationState 记录附件由哪条轨道设置
	attachmentState int
}

func NewSlot(data *SlotData, bone *Bone) *Slot {
	res := &Slot{Data: data, Bone: bone}
	res.SetToSetupPose()
	return res
}

func (s *Slot) Skeleton() *Skeleton {
	return s.Bone.Skeleton
}

func (s *Slot) Attachment() Attachment {
	return s.attachment
}

// SetAttachment 切换附件，deform 来源不同时清空 deform
func (s *Slot) SetAttachment(attachment Attachment) {
	if s.attachment == attachment {
		return
	}
	next, ok1 := attachment.(VertexAttacher)
	curr, ok2 := s.attachment.(VertexAttacher)
	if !ok1 || !ok2 || next.Vertex().DeformAttachment != curr.Vertex().DeformAttachment {
		s.Deform = s.Deform[:0]
	}
	s.attachment = attachment
	s.attachmentTime = s.Bone.Skeleton.Time
}

// AttachmentTime 当前附件已经显示的时间
func (s *Slot) AttachmentTime() float32 {
	return s.Bone.Skeleton.Time - s.attachmentTime
}

func (s *Slot) SetAttachmentTime(time float32) {
	s.attachmentTime = s.Bone.Skeleton.Time - time
}

func (s *Slot) SetToSetupPose() {
	s.Color = s.Data.Color
	if s.Data.HasDarkColor {
		s.DarkColor = s.Data.DarkColor
	}
	if s.Data.AttachmentName == "" {
		s.SetAttachment(nil)
		return
	}
	s.attachment = nil
	s.SetAttachment(s.Bone.Skeleton.GetAttachmentByIndex(s.Data.Index, s.Data.AttachmentName))
}

func (s *Slot) String() string {
	return s.Data.Name
}
