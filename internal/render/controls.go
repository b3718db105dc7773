package render

import (
	"fmt"
	"log"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"spine_treats/internal/harness"
	"spine_treats/internal/prefs"
)

const GlideDuration = 0.4

type glide struct {
	tweenX, tweenY *gween.Tween
	doneX, doneY   bool
}

// Controls 键盘鼠标对场景的操作，保存到 prefs
type Controls struct {
	Prefs      *prefs.Manager // 可以为 nil
	ShowBounds bool
	TimeScale  float32

	animIndex int
	glide     *glide
}

func NewControls(manager *prefs.Manager) *Controls {
	res := &Controls{Prefs: manager, TimeScale: 1}
	if manager != nil {
		res.ShowBounds = manager.Get().ShowBounds
		res.TimeScale = min(max(manager.Get().TimeScale, prefs.MinTimeScale), prefs.MaxTimeScale)
	}
	return res
}

// Begin 新场景开始时恢复保存的播放速度
func (c *Controls) Begin(scene *harness.Scene) {
	c.glide = nil
	c.animIndex = 0
	if entry := scene.Drawable.State.GetCurrent(0); entry != nil {
		for i, item := range scene.Drawable.Skeleton.Data.Animations {
			if item == entry.Animation {
				c.animIndex = i
			}
		}
	}
	scene.Drawable.TimeScale *= c.TimeScale
}

func (c *Controls) Move(scene *harness.Scene, dx, dy float32) {
	c.glide = nil
	skeleton := scene.Drawable.Skeleton
	skeleton.X += dx
	skeleton.Y += dy
}

// GlideTo 缓动移动到 target
func (c *Controls) GlideTo(scene *harness.Scene, target mgl32.Vec2) {
	skeleton := scene.Drawable.Skeleton
	c.glide = &glide{
		tweenX: gween.New(skeleton.X, target.X(), GlideDuration, ease.OutQuad),
		tweenY: gween.New(skeleton.Y, target.Y(), GlideDuration, ease.OutQuad),
	}
}

func (c *Controls) Gliding() bool {
	return c.glide != nil
}

// StepAnimation dir 为 1 或 -1，循环切换 0 号轨道的动画
func (c *Controls) StepAnimation(scene *harness.Scene, dir int) string {
	animations := scene.Drawable.Skeleton.Data.Animations
	if len(animations) == 0 {
		return ""
	}
	c.animIndex = (c.animIndex + dir + len(animations)) % len(animations)
	anim := animations[c.animIndex]
	scene.Drawable.State.SetAnimation(0, anim, true)
	return anim.Name
}

// ScaleTime 调整播放速度，scene 的基础速度来自配置
func (c *Controls) ScaleTime(scene *harness.Scene, factor float32) {
	base := scene.Drawable.TimeScale / c.TimeScale
	c.TimeScale = min(max(c.TimeScale*factor, prefs.MinTimeScale), prefs.MaxTimeScale)
	scene.Drawable.TimeScale = base * c.TimeScale
	if c.Prefs != nil {
		c.Prefs.SetTimeScale(c.TimeScale)
		c.save()
	}
}

func (c *Controls) ToggleBounds() {
	c.ShowBounds = !c.ShowBounds
	if c.Prefs != nil {
		c.Prefs.SetShowBounds(c.ShowBounds)
		c.save()
	}
}

func (c *Controls) save() {
	if err := c.Prefs.Save(); err != nil {
		log.Printf("[Render] Warning: %v", err)
	}
}

// Update 推进缓动
func (c *Controls) Update(scene *harness.Scene, delta float32) {
	if c.glide == nil {
		return
	}
	skeleton := scene.Drawable.Skeleton
	if !c.glide.doneX {
		skeleton.X, c.glide.doneX = c.glide.tweenX.Update(delta)
	}
	if !c.glide.doneY {
		skeleton.Y, c.glide.doneY = c.glide.tweenY.Update(delta)
	}
	if c.glide.doneX && c.glide.doneY {
		c.glide = nil
	}
}

// Describe 左上角的调试信息
func (c *Controls) Describe(scene *harness.Scene, fps float64) string {
	buf := &strings.Builder{}
	skeleton := scene.Drawable.Skeleton
	name := "-"
	if entry := scene.Drawable.State.GetCurrent(0); entry != nil {
		name = fmt.Sprintf("%s %.2f", entry.Animation.Name, entry.AnimationTime())
	}
	fmt.Fprintf(buf, "%s\n", name)
	fmt.Fprintf(buf, "pos %.0f,%.0f  speed x%.3g  fps %.0f\n", skeleton.X, skeleton.Y, scene.Drawable.TimeScale, fps)
	if scene.Hover != nil {
		fmt.Fprintf(buf, "hover %s\n", scene.Hover.Name())
	}
	buf.WriteString("WASD move  J/K anim  +/- speed  B bounds  RMB glide  Esc next")
	return buf.String()
}
