package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "../treats/export/skeleton.json", cfg.Skeleton.JSON)
	assert.Equal(t, "../treats/export/skeleton.skel", cfg.Skeleton.Binary)
	assert.Equal(t, "../treats/export/skeleton.atlas", cfg.Skeleton.Atlas)
	assert.InDelta(t, 1, cfg.Skeleton.Scale, 1e-6)
	assert.Equal(t, "falling", cfg.Scene.Animation)
	assert.Equal(t, "head", cfg.Scene.Slot)
	assert.InDelta(t, 320, cfg.Scene.X, 1e-6)
	assert.InDelta(t, 390, cfg.Scene.Y, 1e-6)
	assert.True(t, cfg.Scene.Loop)
	assert.True(t, cfg.Scene.PMA)
	assert.Equal(t, Window{Title: "Spine SFML - spineboy", Width: 640, Height: 640, FPS: 60}, cfg.Window)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoadFileAndEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), "treats.yaml")
	text := `
skeleton:
  json: assets/boy.json
  scale: 0.5
scene:
  animation: run
window:
  fps: 30
`
	require.NoError(t, os.WriteFile(file, []byte(text), 0o644))
	t.Setenv("SPINE_TREATS_SCENE_ANIMATION", "walk")
	t.Setenv("SPINE_TREATS_METRICS_ADDR", ":9100")

	cfg, err := Load(viper.New(), file)
	require.NoError(t, err)
	assert.Equal(t, "assets/boy.json", cfg.Skeleton.JSON)
	assert.Equal(t, "../treats/export/skeleton.skel", cfg.Skeleton.Binary)
	assert.InDelta(t, 0.5, cfg.Skeleton.Scale, 1e-6)
	// 环境变量优先于配置文件
	assert.Equal(t, "walk", cfg.Scene.Animation)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, 30, cfg.Window.FPS)
	assert.Equal(t, 640, cfg.Window.Width)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	v := viper.New()
	v.Set("skeleton.scale", 0)
	v.Set("window.fps", -1)
	_, err = Load(v, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skeleton.scale")
	assert.Contains(t, err.Error(), "window.fps")
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, len(defaults))
	assert.Contains(t, keys, "skeleton.json")
	assert.Contains(t, keys, "scene.time_scale")
}
