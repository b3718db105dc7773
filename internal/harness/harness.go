package harness

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"spine_treats/internal/config"
	"spine_treats/internal/spine"
)

// ErrExited Exit 没有真正退出进程时（测试里）读取失败返回它
var ErrExited = errors.New("skeleton data failed to load")

// Window 一次显示一个场景，阻塞到窗口请求关闭
type Window interface {
	Show(scene *Scene) error
}

// SceneFunc 针对一份骨骼数据运行的场景
type SceneFunc func(data *spine.SkeletonData, atlas *spine.Atlas) error

type Harness struct {
	Out    io.Writer      // 事件输出
	Exit   func(code int) // 骨骼数据读取失败时调用
	Window Window
	Loader spine.TextureLoader // 可以为 nil，只解析不加载贴图

	Scene       config.Scene
	WindowCfg   config.Window
	Listeners   []spine.Listener // 打印之外的事件监听，例如音效与统计
	OnFrame     func(scene *Scene, delta float32)
	OnSceneDone func(scene *Scene)
}

func New(cfg *config.Config, window Window, loader spine.TextureLoader) *Harness {
	return &Harness{
		Out:       os.Stdout,
		Exit:      os.Exit,
		Window:    window,
		Loader:    loader,
		Scene:     cfg.Scene,
		WindowCfg: cfg.Window,
	}
}

type flusher interface {
	Flush() error
}

type syncer interface {
	Sync() error
}

func (h *Harness) flush() {
	switch out := h.Out.(type) {
	case flusher:
		_ = out.Flush()
	case syncer:
		_ = out.Sync()
	}
}

// ReadSkeletonJSONData 失败时打印错误并以 0 退出
func (h *Harness) ReadSkeletonJSONData(filename string, atlas *spine.Atlas, scale float32) *spine.SkeletonData {
	reader := spine.NewSkeletonJSON(spine.NewAtlasAttachmentLoader(atlas))
	reader.Scale = scale
	data, err := reader.ReadSkeletonDataFile(filename)
	if err != nil {
		h.fail(err)
		return nil
	}
	return data
}

// ReadSkeletonBinaryData 失败时打印错误并以 0 退出
func (h *Harness) ReadSkeletonBinaryData(filename string, atlas *spine.Atlas, scale float32) *spine.SkeletonData {
	reader := spine.NewSkeletonBinary(spine.NewAtlasAttachmentLoader(atlas))
	reader.Scale = scale
	data, err := reader.ReadSkeletonDataFile(filename)
	if err != nil {
		h.fail(err)
		return nil
	}
	return data
}

func (h *Harness) fail(err error) {
	fmt.Fprintln(h.Out, err)
	h.flush()
	h.Exit(0)
}

// TestCase 图集只加载一次，先用二进制数据再用 JSON 数据各运行一次场景，场景结束后释放数据
func (h *Harness) TestCase(fn SceneFunc, jsonName, binaryName, atlasName string, scale float32) error {
	atlas, err := spine.NewAtlasFromFile(atlasName, h.Loader)
	if err != nil {
		return err
	}
	defer atlas.Dispose()

	data := h.ReadSkeletonBinaryData(binaryName, atlas, scale)
	if data == nil {
		return ErrExited
	}
	err = fn(data, atlas)
	data.Dispose()
	if err != nil {
		return fmt.Errorf("binary %s: %w", binaryName, err)
	}

	data = h.ReadSkeletonJSONData(jsonName, atlas, scale)
	if data == nil {
		return ErrExited
	}
	err = fn(data, atlas)
	data.Dispose()
	if err != nil {
		return fmt.Errorf("json %s: %w", jsonName, err)
	}
	return nil
}

// LoadSkeletonData 按扩展名选择解析器，.json 之外都按二进制读取
func LoadSkeletonData(filename string, atlas *spine.Atlas, scale float32) (*spine.SkeletonData, error) {
	loader := spine.NewAtlasAttachmentLoader(atlas)
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		reader := spine.NewSkeletonJSON(loader)
		reader.Scale = scale
		return reader.ReadSkeletonDataFile(filename)
	}
	reader := spine.NewSkeletonBinary(loader)
	reader.Scale = scale
	return reader.ReadSkeletonDataFile(filename)
}

func (h *Harness) logf(format string, args ...any) {
	log.Printf("[Harness] "+format, args...)
}
