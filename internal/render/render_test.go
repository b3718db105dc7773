package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine_treats/internal/harness"
	"spine_treats/internal/prefs"
	"spine_treats/internal/spine"
)

func newTestScene(t *testing.T) *harness.Scene {
	t.Helper()
	data, err := harness.LoadSkeletonData("../harness/testdata/treats.json", nil, 1)
	require.NoError(t, err)
	drawable := harness.NewDrawable(data, spine.NewAnimationStateData(data))
	drawable.Skeleton.X, drawable.Skeleton.Y = 320, 390
	_, err = drawable.State.SetAnimationByName(0, "falling", true)
	require.NoError(t, err)
	return &harness.Scene{Title: "test", Width: 640, Height: 640, FPS: 60, Drawable: drawable, Bounds: spine.NewSkeletonBounds()}
}

func TestSceneHost(t *testing.T) {
	host := newSceneHost()
	scene, fresh := host.poll()
	assert.Nil(t, scene)
	assert.False(t, fresh)

	first, second := &harness.Scene{Title: "binary"}, &harness.Scene{Title: "json"}
	host.run(func() error {
		if err := host.Show(first); err != nil {
			return err
		}
		return host.Show(second)
	})

	titles := make([]string, 0)
	deadline := time.Now().Add(2 * time.Second)
	for !host.finished() && time.Now().Before(deadline) {
		scene, fresh = host.poll()
		if scene == nil {
			time.Sleep(time.Millisecond)
			continue
		}
		if fresh {
			titles = append(titles, scene.Title)
		}
		assert.Equal(t, scene, host.currentScene())
		host.closeScene()
	}
	require.True(t, host.finished())
	assert.NoError(t, host.err)
	assert.Equal(t, []string{"binary", "json"}, titles)
	assert.Nil(t, host.currentScene())
}

func TestSceneHostStop(t *testing.T) {
	host := newSceneHost()
	host.run(func() error {
		return host.Show(&harness.Scene{})
	})
	require.Eventually(t, func() bool {
		scene, _ := host.poll()
		return scene != nil
	}, time.Second, time.Millisecond)
	host.stop()
	host.stop()
	<-host.done
	assert.ErrorIs(t, host.err, ErrWindowClosed)

	// 停止后 Show 直接返回
	assert.ErrorIs(t, newStoppedHost().Show(&harness.Scene{}), ErrWindowClosed)
}

func newStoppedHost() *sceneHost {
	res := newSceneHost()
	res.stop()
	return res
}

func TestControlsMoveAndGlide(t *testing.T) {
	scene := newTestScene(t)
	c := NewControls(nil)
	c.Begin(scene)
	skeleton := scene.Drawable.Skeleton

	c.Move(scene, 2, -2)
	assert.Equal(t, float32(322), skeleton.X)
	assert.Equal(t, float32(388), skeleton.Y)

	c.GlideTo(scene, mgl32.Vec2{100, 200})
	assert.True(t, c.Gliding())
	c.Update(scene, GlideDuration/2)
	assert.Greater(t, skeleton.X, float32(100))
	assert.Less(t, skeleton.X, float32(322))
	c.Update(scene, GlideDuration)
	assert.False(t, c.Gliding())
	assert.InDelta(t, 100, skeleton.X, 1e-3)
	assert.InDelta(t, 200, skeleton.Y, 1e-3)

	// 手动移动打断缓动
	c.GlideTo(scene, mgl32.Vec2{0, 0})
	c.Move(scene, 1, 0)
	assert.False(t, c.Gliding())
}

func TestControlsStepAnimation(t *testing.T) {
	scene := newTestScene(t)
	c := NewControls(nil)
	c.Begin(scene)
	assert.Equal(t, "idle", c.StepAnimation(scene, 1))
	assert.Equal(t, "idle", scene.Drawable.State.GetCurrent(0).Animation.Name)
	assert.True(t, scene.Drawable.State.GetCurrent(0).Loop)
	assert.Equal(t, "falling", c.StepAnimation(scene, 1))
	assert.Equal(t, "idle", c.StepAnimation(scene, -1))
}

func TestControlsPrefs(t *testing.T) {
	manager := prefs.NewManager(nil)
	manager.SetTimeScale(2)
	c := NewControls(manager)
	assert.Equal(t, float32(2), c.TimeScale)

	scene := newTestScene(t)
	scene.Drawable.TimeScale = 1.5
	c.Begin(scene)
	assert.Equal(t, float32(3), scene.Drawable.TimeScale)

	c.ScaleTime(scene, 0.5)
	assert.Equal(t, float32(1), c.TimeScale)
	assert.Equal(t, float32(1.5), scene.Drawable.TimeScale)
	assert.Equal(t, float32(1), manager.Get().TimeScale)

	for i := 0; i < 10; i++ {
		c.ScaleTime(scene, 2)
	}
	assert.Equal(t, float32(prefs.MaxTimeScale), c.TimeScale)

	assert.False(t, c.ShowBounds)
	c.ToggleBounds()
	assert.True(t, c.ShowBounds)
	assert.True(t, manager.Get().ShowBounds)
}

func TestControlsDescribe(t *testing.T) {
	scene := newTestScene(t)
	c := NewControls(nil)
	c.Begin(scene)
	text := c.Describe(scene, 60)
	assert.Contains(t, text, "falling 0.00")
	assert.Contains(t, text, "pos 320,390")
	assert.NotContains(t, text, "hover")

	scene.Frame(0.016, mgl32.Vec2{320, 220})
	scene.Frame(0.016, mgl32.Vec2{320, 220})
	require.NotNil(t, scene.Hover)
	assert.Contains(t, c.Describe(scene, 60), "hover head-bb")
}

func TestAppendVertices(t *testing.T) {
	world := []mgl32.Vec2{{1, 2}, {3, 4}}
	uvs := []mgl32.Vec2{{0, 0.5}, {1, 0.25}}
	res := appendVertices(nil, world, uvs, 128, 64)
	require.Len(t, res, 2)
	assert.Equal(t, NewVertex(1, 2, 0, 32), res[0])
	assert.Equal(t, NewVertex(3, 4, 128, 16), res[1])
	assert.Equal(t, float32(1), res[1].ColorA)
}

func TestSlotColor(t *testing.T) {
	scene := newTestScene(t)
	skeleton := scene.Drawable.Skeleton
	skeleton.Color = mgl32.Vec4{1, 1, 1, 0.5}
	slot := skeleton.FindSlot("head")
	slot.Color = mgl32.Vec4{1, 0.5, 1, 1}
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 1, 0.5}, slotColor(skeleton, slot, mgl32.Vec4{0.5, 1, 1, 1}))
}

func TestPageOptions(t *testing.T) {
	page := &spine.AtlasPage{MinFilter: spine.FilterNearest, MagFilter: spine.FilterNearest, UWrap: "ClampToEdge", VWrap: "ClampToEdge"}
	assert.Equal(t, ebiten.FilterNearest, filterFor(page))
	assert.Equal(t, ebiten.AddressUnsafe, addressFor(page))
	page.MagFilter, page.VWrap = spine.FilterLinear, "Repeat"
	assert.Equal(t, ebiten.FilterLinear, filterFor(page))
	assert.Equal(t, ebiten.AddressRepeat, addressFor(page))

	assert.Equal(t, ebiten.BlendLighter, blendFor(spine.BlendAdditive))
	assert.Equal(t, ebiten.BlendSourceOver, blendFor(spine.BlendMode(42)))
}

func TestPremultiplied(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 50, B: 25, A: 128})
	res, ok := premultiplied(src).(*image.RGBA)
	require.True(t, ok)
	// 像素保持不变，只是换了解释方式
	assert.Equal(t, color.RGBA{R: 100, G: 50, B: 25, A: 128}, res.RGBAAt(0, 0))

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.Pix[0] = 200
	res, ok = premultiplied(gray).(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, res.RGBAAt(0, 0))
}

func TestDecodePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, src))
	require.NoError(t, file.Close())

	img, err := decodePage(path, true)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 40}, img.(*image.RGBA).RGBAAt(1, 0))

	img, err = decodePage(path, false)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())

	_, err = decodePage(filepath.Join(t.TempDir(), "missing.png"), false)
	assert.Error(t, err)
}
