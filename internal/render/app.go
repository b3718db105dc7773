package render

import (
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"spine_treats/internal/harness"
)

const moveSpeed = 2

// App 一个 ebiten 窗口依次显示 harness 交来的场景
type App struct {
	Renderer *Renderer
	Controls *Controls

	host          *sceneHost
	last          time.Time
	width, height int
}

func NewApp(controls *Controls) *App {
	return &App{Renderer: NewRenderer(), Controls: controls, host: newSceneHost(), width: 640, height: 640}
}

// Show 实现 harness.Window，在工作协程里调用
func (a *App) Show(scene *harness.Scene) error {
	return a.host.Show(scene)
}

// Run 必须在主协程调用，worker 结束后窗口关闭
func (a *App) Run(worker func() error) error {
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetWindowSize(a.width, a.height)
	a.host.run(worker)
	err := ebiten.RunGame(a)
	a.host.stop()
	if err != nil {
		return err
	}
	<-a.host.done
	return a.host.err
}

func (a *App) Update() error {
	if a.host.finished() {
		return ebiten.Termination
	}
	scene, fresh := a.host.poll()
	if scene == nil {
		return nil // 等待下一个场景
	}
	if fresh {
		a.begin(scene)
	}
	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.host.closeScene()
		return nil
	}
	now := time.Now()
	delta := float32(now.Sub(a.last).Seconds())
	a.last = now

	a.handleInput(scene)
	a.Controls.Update(scene, delta)
	x, y := ebiten.CursorPosition()
	scene.Frame(delta, mgl32.Vec2{float32(x), float32(y)})
	return nil
}

func (a *App) begin(scene *harness.Scene) {
	a.width, a.height = scene.Width, scene.Height
	ebiten.SetWindowTitle(scene.Title)
	ebiten.SetWindowSize(scene.Width, scene.Height)
	if scene.FPS > 0 {
		ebiten.SetTPS(scene.FPS)
	}
	a.Controls.Begin(scene)
	a.last = time.Now()
}

func (a *App) handleInput(scene *harness.Scene) {
	// 按键控制
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		a.Controls.Move(scene, 0, -moveSpeed)
	} else if ebiten.IsKeyPressed(ebiten.KeyS) {
		a.Controls.Move(scene, 0, moveSpeed)
	} else if ebiten.IsKeyPressed(ebiten.KeyA) {
		a.Controls.Move(scene, -moveSpeed, 0)
	} else if ebiten.IsKeyPressed(ebiten.KeyD) {
		a.Controls.Move(scene, moveSpeed, 0)
	} else if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		skeleton := scene.Drawable.Skeleton
		log.Printf("[Render] skeleton at %.1f,%.1f", skeleton.X, skeleton.Y)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyJ) {
		log.Printf("[Render] animation %s", a.Controls.StepAnimation(scene, -1))
	} else if inpututil.IsKeyJustPressed(ebiten.KeyK) {
		log.Printf("[Render] animation %s", a.Controls.StepAnimation(scene, 1))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		a.Controls.ScaleTime(scene, 2)
	} else if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		a.Controls.ScaleTime(scene, 0.5)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		a.Controls.ToggleBounds()
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		x, y := ebiten.CursorPosition()
		a.Controls.GlideTo(scene, mgl32.Vec2{float32(x), float32(y)})
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	scene := a.host.currentScene()
	if scene == nil {
		ebitenutil.DebugPrint(screen, "loading...")
		return
	}
	a.Renderer.Draw(screen, scene.Drawable.Skeleton)
	if a.Controls.ShowBounds {
		DrawBounds(screen, scene.Bounds, scene.Hover)
	}
	ebitenutil.DebugPrint(screen, a.Controls.Describe(scene, ebiten.ActualFPS()))
}

// Layout 固定为场景的窗口尺寸，鼠标坐标与骨骼世界坐标一致
func (a *App) Layout(w, h int) (int, int) {
	return a.width, a.height
}
