package harness

import (
	"github.com/go-gl/mathgl/mgl32"

	"spine_treats/internal/spine"
)

// HoverTint 鼠标在包围盒内时乘到插槽颜色上
var HoverTint = mgl32.Vec4{1, 0, 0, 1}

// Drawable 骨骼实例与动画状态，渲染层只负责画
type Drawable struct {
	Skeleton              *spine.Skeleton
	State                 *spine.AnimationState
	TimeScale             float32
	UsePremultipliedAlpha bool
}

func NewDrawable(data *spine.SkeletonData, stateData *spine.AnimationStateData) *Drawable {
	skeleton := spine.NewSkeleton(data)
	skeleton.ScaleY = -1 // 屏幕坐标 y 向下
	return &Drawable{Skeleton: skeleton, State: spine.NewAnimationState(stateData), TimeScale: 1}
}

// Update 推进时间、应用动画并计算世界变换
func (d *Drawable) Update(delta float32) {
	d.Skeleton.Update(delta)
	d.State.Update(delta * d.TimeScale)
	d.State.Apply(d.Skeleton)
	d.Skeleton.UpdateWorldTransform()
}

type Scene struct {
	Title         string
	Width, Height int
	FPS           int

	Drawable *Drawable
	Bounds   *spine.SkeletonBounds
	HeadSlot *spine.Slot // 可能为 nil
	Mouse    mgl32.Vec2
	Hover    *spine.BoundingBoxAttachment // 鼠标所在的包围盒
	Frames   int

	onFrame func(scene *Scene, delta float32)
}

// Frame 窗口每帧调用一次，mouse 为窗口内的鼠标位置
func (s *Scene) Frame(delta float32, mouse mgl32.Vec2) {
	s.Bounds.Update(s.Drawable.Skeleton, true)
	s.Mouse = mouse
	s.Hover = nil
	if s.Bounds.AabbContainsPoint(mouse) {
		s.Hover = s.Bounds.ContainsPoint(mouse)
	}

	s.Drawable.Skeleton.SetToSetupPose()
	s.Drawable.Update(delta)
	if s.Hover != nil && s.HeadSlot != nil {
		s.HeadSlot.Color = spine.Vec4Mul(s.HeadSlot.Color, HoverTint)
	}
	s.Frames++
	if s.onFrame != nil {
		s.onFrame(s, delta)
	}
}

// Treats 播放循环的 falling 动画，窗口关闭后返回
func (h *Harness) Treats(data *spine.SkeletonData, atlas *spine.Atlas) error {
	bounds := spine.NewSkeletonBounds()
	stateData := spine.NewAnimationStateData(data)
	stateData.DefaultMix = h.Scene.DefaultMix

	drawable := NewDrawable(data, stateData)
	drawable.TimeScale = h.Scene.TimeScale
	drawable.UsePremultipliedAlpha = h.Scene.PMA

	skeleton := drawable.Skeleton
	skeleton.SetToSetupPose()
	skeleton.X, skeleton.Y = h.Scene.X, h.Scene.Y
	skeleton.UpdateWorldTransform()

	headSlot := skeleton.FindSlot(h.Scene.Slot)
	if headSlot == nil {
		h.logf("slot %q not found, hover tint disabled", h.Scene.Slot)
	}

	drawable.State.AddListener(h.Callback)
	for _, item := range h.Listeners {
		drawable.State.AddListener(item)
	}
	if _, err := drawable.State.SetAnimationByName(0, h.Scene.Animation, h.Scene.Loop); err != nil {
		h.logf("%v", err)
	}

	drawable.State.Update(0.016)
	skeleton.SetBonesToSetupPose()
	drawable.State.Apply(skeleton)
	skeleton.UpdateWorldTransform()

	scene := &Scene{
		Title:    h.WindowCfg.Title,
		Width:    h.WindowCfg.Width,
		Height:   h.WindowCfg.Height,
		FPS:      h.WindowCfg.FPS,
		Drawable: drawable,
		Bounds:   bounds,
		HeadSlot: headSlot,
		onFrame:  h.OnFrame,
	}
	err := h.Window.Show(scene)
	if h.OnSceneDone != nil {
		h.OnSceneDone(scene)
	}
	return err
}
