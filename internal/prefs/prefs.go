package prefs

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// Prefs 窗口里调整过的播放选项，下次启动时恢复
type Prefs struct {
	TimeScale  float32 `yaml:"timeScale"`
	ShowBounds bool    `yaml:"showBounds"`
}

func Default() *Prefs {
	return &Prefs{TimeScale: 1}
}

const (
	prefsObject   = "prefs"
	prefsProperty = "player"
)

// Manager gdata 为 nil 时为降级模式，只在内存里保存
type Manager struct {
	gdataManager *gdata.Manager
	prefs        *Prefs
}

// Open 打开失败不是致命错误，返回降级模式的 Manager
func Open(appName string) *Manager {
	gdataManager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[Prefs] Warning: gdata not available: %v (prefs will not persist)", err)
		gdataManager = nil
	}
	return NewManager(gdataManager)
}

func NewManager(gdataManager *gdata.Manager) *Manager {
	res := &Manager{gdataManager: gdataManager, prefs: Default()}
	if err := res.Load(); err != nil {
		log.Printf("[Prefs] Warning: failed to load prefs: %v (using defaults)", err)
	}
	return res
}

func (m *Manager) Load() error {
	m.prefs = Default()
	if m.gdataManager == nil || !m.gdataManager.ObjectPropExists(prefsObject, prefsProperty) {
		return nil
	}
	data, err := m.gdataManager.LoadObjectProp(prefsObject, prefsProperty)
	if err != nil {
		return fmt.Errorf("failed to load prefs: %w", err)
	}
	var loaded Prefs
	if err = yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to unmarshal prefs: %w", err)
	}
	if loaded.TimeScale <= 0 {
		loaded.TimeScale = 1
	}
	m.prefs = &loaded
	return nil
}

func (m *Manager) Save() error {
	if m.gdataManager == nil {
		return nil
	}
	data, err := yaml.Marshal(m.prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}
	if err = m.gdataManager.SaveObjectProp(prefsObject, prefsProperty, data); err != nil {
		return fmt.Errorf("failed to save prefs: %w", err)
	}
	log.Printf("[Prefs] saved")
	return nil
}

func (m *Manager) Get() *Prefs {
	return m.prefs
}

// Persistent 是否能写到磁盘
func (m *Manager) Persistent() bool {
	return m.gdataManager != nil
}

func (m *Manager) SetTimeScale(scale float32) {
	m.prefs.TimeScale = clampTimeScale(scale)
}

func (m *Manager) SetShowBounds(show bool) {
	m.prefs.ShowBounds = show
}

const (
	MinTimeScale = 0.125
	MaxTimeScale = 8
)

func clampTimeScale(scale float32) float32 {
	return min(max(scale, MinTimeScale), MaxTimeScale)
}
