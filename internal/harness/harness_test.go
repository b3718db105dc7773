package harness

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine_treats/internal/config"
	"spine_treats/internal/spine"
)

const (
	testJSON   = "testdata/treats.json"
	testBinary = "testdata/treats.skel"
	testAtlas  = "testdata/treats.atlas"
)

// fakeWindow 不开窗口，固定步长跑若干帧
type fakeWindow struct {
	frames int
	mouse  mgl32.Vec2
	err    error
	scenes []*Scene
}

func (w *fakeWindow) Show(scene *Scene) error {
	w.scenes = append(w.scenes, scene)
	for i := 0; i < w.frames; i++ {
		scene.Frame(1.0/60, w.mouse)
	}
	return w.err
}

type testHarness struct {
	*Harness
	out    *bytes.Buffer
	exits  []int
	window *fakeWindow
}

func newTestHarness(t *testing.T, frames int) *testHarness {
	t.Helper()
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	res := &testHarness{out: &bytes.Buffer{}, window: &fakeWindow{frames: frames}}
	res.Harness = New(cfg, res.window, nil)
	res.Out = res.out
	res.Exit = func(code int) {
		res.exits = append(res.exits, code)
	}
	return res
}

func (h *testHarness) lines() []string {
	text := strings.TrimSpace(h.out.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestCallbackFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	out := bufio.NewWriter(buf)
	h := &Harness{Out: out}
	entry := &spine.TrackEntry{TrackIndex: 2, Animation: spine.NewAnimation("run", nil, 1)}

	tests := []struct {
		kind spine.EventType
		want string
	}{
		{kind: spine.EventStart, want: "2 start: run\n"},
		{kind: spine.EventInterrupt, want: "2 interrupt: run\n"},
		{kind: spine.EventEnd, want: "2 end: run\n"},
		{kind: spine.EventComplete, want: "2 complete: run\n"},
		{kind: spine.EventDispose, want: "2 dispose: run\n"},
	}
	for _, tt := range tests {
		buf.Reset()
		h.Callback(nil, tt.kind, entry, nil)
		// 每行都立即刷新
		assert.Equal(t, tt.want, buf.String())
	}

	buf.Reset()
	event := &spine.Event{Data: &spine.EventData{Name: "land"}, Int: 3, Float: 1.5, String: "hi", Volume: 1, Balance: -0.5}
	h.Callback(nil, spine.EventEvent, entry, event)
	assert.Equal(t, "2 event: run, land: 3, 1.500000, hi 1.000000 -0.500000\n", buf.String())

	buf.Reset()
	h.Callback(nil, spine.EventStart, &spine.TrackEntry{}, nil)
	assert.Equal(t, "0 start: (null)\n", buf.String())
}

func TestReadSkeletonDataFailure(t *testing.T) {
	h := newTestHarness(t, 0)
	assert.Nil(t, h.ReadSkeletonJSONData("testdata/missing.json", nil, 1))
	assert.Equal(t, []int{0}, h.exits)
	require.Len(t, h.lines(), 1)
	assert.Contains(t, h.lines()[0], "missing.json")

	assert.Nil(t, h.ReadSkeletonBinaryData("testdata/missing.skel", nil, 1))
	assert.Equal(t, []int{0, 0}, h.exits)
	assert.Len(t, h.lines(), 2)
}

func TestReadSkeletonData(t *testing.T) {
	h := newTestHarness(t, 0)
	atlas, err := spine.NewAtlasFromFile(testAtlas, nil)
	require.NoError(t, err)
	json := h.ReadSkeletonJSONData(testJSON, atlas, 2)
	require.NotNil(t, json)
	binary := h.ReadSkeletonBinaryData(testBinary, atlas, 2)
	require.NotNil(t, binary)
	assert.InDelta(t, 200, json.FindBone("hip").Y, 1e-6)
	assert.InDelta(t, 200, binary.FindBone("hip").Y, 1e-6)
	assert.Empty(t, h.exits)
	assert.Empty(t, h.out.String())
}

func TestTreatsOutput(t *testing.T) {
	h := newTestHarness(t, 30)
	require.NoError(t, h.TestCase(h.Treats, testJSON, testBinary, testAtlas, 1))
	pass := []string{
		"0 start: falling",
		"0 event: falling, land: 1, 0.500000, thud 0.000000 0.000000",
		"0 complete: falling",
	}
	assert.Equal(t, append(append([]string{}, pass...), pass...), h.lines())

	require.Len(t, h.window.scenes, 2)
	for _, scene := range h.window.scenes {
		assert.Equal(t, "Spine SFML - spineboy", scene.Title)
		assert.Equal(t, 640, scene.Width)
		assert.Equal(t, 640, scene.Height)
		assert.Equal(t, 60, scene.FPS)
		assert.Equal(t, 30, scene.Frames)
		assert.True(t, scene.Drawable.UsePremultipliedAlpha)
		skeleton := scene.Drawable.Skeleton
		assert.InDelta(t, 320, skeleton.X, 1e-6)
		assert.InDelta(t, 390, skeleton.Y, 1e-6)
		require.NotNil(t, scene.HeadSlot)
		assert.Equal(t, "head", scene.HeadSlot.Data.Name)
		entry := scene.Drawable.State.GetCurrent(0)
		require.NotNil(t, entry)
		assert.True(t, entry.Loop)
		assert.InDelta(t, 0.516, entry.TrackTime, 1e-4)
		// 场景结束后数据已释放
		assert.Nil(t, skeleton.Data.Animations)
	}
}

func TestCaseOrder(t *testing.T) {
	// 二进制读取失败时一个场景都不运行
	h := newTestHarness(t, 1)
	assert.ErrorIs(t, h.TestCase(h.Treats, testJSON, "testdata/missing.skel", testAtlas, 1), ErrExited)
	assert.Empty(t, h.window.scenes)
	assert.Equal(t, []int{0}, h.exits)

	// JSON 读取失败前二进制场景已经运行
	h = newTestHarness(t, 1)
	assert.ErrorIs(t, h.TestCase(h.Treats, "testdata/missing.json", testBinary, testAtlas, 1), ErrExited)
	assert.Len(t, h.window.scenes, 1)
	assert.Equal(t, []int{0}, h.exits)

	h = newTestHarness(t, 1)
	assert.Error(t, h.TestCase(h.Treats, testJSON, testBinary, "testdata/missing.atlas", 1))
	assert.Empty(t, h.window.scenes)
	assert.Empty(t, h.exits)
}

func TestCaseWindowError(t *testing.T) {
	h := newTestHarness(t, 1)
	h.window.err = errors.New("no display")
	err := h.TestCase(h.Treats, testJSON, testBinary, testAtlas, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary testdata/treats.skel")
	assert.Len(t, h.window.scenes, 1)
}

func TestSceneHover(t *testing.T) {
	h := newTestHarness(t, 1)
	h.window.mouse = mgl32.Vec2{320, 220}
	require.NoError(t, h.TestCase(h.Treats, testJSON, testBinary, testAtlas, 1))
	for _, scene := range h.window.scenes {
		require.NotNil(t, scene.Hover)
		assert.Equal(t, "head-bb", scene.Hover.Name())
		assert.Zero(t, scene.HeadSlot.Color.Y())
		assert.Equal(t, mgl32.Vec2{320, 220}, scene.Mouse)
	}

	h = newTestHarness(t, 1)
	h.window.mouse = mgl32.Vec2{0, 0}
	require.NoError(t, h.TestCase(h.Treats, testJSON, testBinary, testAtlas, 1))
	for _, scene := range h.window.scenes {
		assert.Nil(t, scene.Hover)
		assert.Greater(t, scene.HeadSlot.Color.Y(), float32(0.9))
	}
}

func TestTreatsHooks(t *testing.T) {
	h := newTestHarness(t, 30)
	var kinds []spine.EventType
	h.Listeners = append(h.Listeners, func(state *spine.AnimationState, kind spine.EventType, entry *spine.TrackEntry, event *spine.Event) {
		kinds = append(kinds, kind)
	})
	var frames int
	var elapsed float32
	h.OnFrame = func(scene *Scene, delta float32) {
		frames++
		elapsed += delta
	}
	var done []*Scene
	h.OnSceneDone = func(scene *Scene) {
		done = append(done, scene)
	}
	h.Scene.Animation = "jump"
	require.NoError(t, h.TestCase(h.Treats, testJSON, testBinary, testAtlas, 1))

	// 动画不存在时只记录日志，场景照常运行
	assert.Empty(t, kinds)
	assert.Empty(t, h.lines())
	assert.Equal(t, 60, frames)
	assert.InDelta(t, 1, elapsed, 1e-4)
	assert.Equal(t, h.window.scenes, done)

	h = newTestHarness(t, 30)
	kinds = nil
	h.Listeners = []spine.Listener{func(state *spine.AnimationState, kind spine.EventType, entry *spine.TrackEntry, event *spine.Event) {
		kinds = append(kinds, kind)
	}}
	require.NoError(t, h.TestCase(h.Treats, testJSON, testBinary, testAtlas, 1))
	assert.Equal(t, []spine.EventType{
		spine.EventStart, spine.EventEvent, spine.EventComplete,
		spine.EventStart, spine.EventEvent, spine.EventComplete,
	}, kinds)
}

func TestLoadSkeletonData(t *testing.T) {
	for _, name := range []string{testJSON, testBinary} {
		data, err := LoadSkeletonData(name, nil, 1)
		require.NoError(t, err, name)
		assert.Len(t, data.Animations, 2)
	}
	_, err := LoadSkeletonData("testdata/missing.json", nil, 1)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	data, err := LoadSkeletonData(testJSON, nil, 1)
	require.NoError(t, err)
	summary := Summarize(data)
	assert.Equal(t, "treats", summary.Name)
	assert.Equal(t, "3.8.99", summary.Version)
	assert.Equal(t, 3, summary.Bones)
	assert.Equal(t, 3, summary.Slots)
	assert.Zero(t, summary.Constraints)
	assert.Equal(t, []string{"default"}, summary.Skins)
	assert.Equal(t, []string{"land"}, summary.Events)
	assert.Equal(t, []AnimationSummary{
		{Name: "falling", Duration: 0.5, Timelines: 5},
		{Name: "idle", Duration: 0, Timelines: 1},
	}, summary.Animations)
}
