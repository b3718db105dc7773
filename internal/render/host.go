package render

import (
	"errors"
	"sync"

	"spine_treats/internal/harness"
)

// ErrWindowClosed 游戏循环已经结束，场景无法再显示
var ErrWindowClosed = errors.New("window closed")

type sceneRequest struct {
	scene  *harness.Scene
	closed chan struct{}
}

// sceneHost 在工作协程与游戏循环之间交接场景
// Show 在工作协程里调用，其余方法只在游戏循环里调用
type sceneHost struct {
	requests chan *sceneRequest
	current  *sceneRequest
	done     chan struct{}
	err      error // done 关闭后才能读
	stopped  chan struct{}
	stopOnce sync.Once
}

func newSceneHost() *sceneHost {
	return &sceneHost{
		requests: make(chan *sceneRequest),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Show 阻塞到场景被关闭
func (h *sceneHost) Show(scene *harness.Scene) error {
	req := &sceneRequest{scene: scene, closed: make(chan struct{})}
	select {
	case h.requests <- req:
	case <-h.stopped:
		return ErrWindowClosed
	}
	select {
	case <-req.closed:
		return nil
	case <-h.stopped:
		return ErrWindowClosed
	}
}

// poll 返回当前场景，fresh 表示这一帧刚接手
func (h *sceneHost) poll() (scene *harness.Scene, fresh bool) {
	if h.current != nil {
		return h.current.scene, false
	}
	select {
	case req := <-h.requests:
		h.current = req
		return req.scene, true
	default:
		return nil, false
	}
}

func (h *sceneHost) currentScene() *harness.Scene {
	if h.current == nil {
		return nil
	}
	return h.current.scene
}

func (h *sceneHost) closeScene() {
	if h.current == nil {
		return
	}
	close(h.current.closed)
	h.current = nil
}

func (h *sceneHost) run(worker func() error) {
	go func() {
		defer close(h.done)
		h.err = worker()
	}()
}

func (h *sceneHost) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// stop 游戏循环退出后释放阻塞在 Show 里的工作协程
func (h *sceneHost) stop() {
	h.stopOnce.Do(func() {
		close(h.stopped)
	})
}
