package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"spine_treats/internal/config"
	"spine_treats/internal/harness"
)

const (
	testJSON   = "../internal/harness/testdata/treats.json"
	testBinary = "../internal/harness/testdata/treats.skel"
	testAtlas  = "../internal/harness/testdata/treats.atlas"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestInfoTable(t *testing.T) {
	for _, name := range []string{testJSON, testBinary} {
		out, err := execute(t, "info", name, "--atlas", testAtlas, "--output", "table")
		require.NoError(t, err, name)
		assert.Contains(t, out, "treats  spine 3.8.99  hash treats")
		assert.Contains(t, out, "bones 3  slots 3  constraints 0")
		assert.Contains(t, out, "skins: default")
		assert.Contains(t, out, "events: land")
		assert.Contains(t, out, "falling")
		assert.Contains(t, out, "0.500")
		assert.Contains(t, out, "idle")
	}
}

func TestInfoYAML(t *testing.T) {
	out, err := execute(t, "info", testJSON, "--atlas", "", "--output", "yaml")
	require.NoError(t, err)
	var summary harness.Summary
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "treats", summary.Name)
	assert.Equal(t, []harness.AnimationSummary{
		{Name: "falling", Duration: 0.5, Timelines: 5},
		{Name: "idle", Duration: 0, Timelines: 1},
	}, summary.Animations)
}

func TestInfoErrors(t *testing.T) {
	_, err := execute(t, "info", "missing.json", "--atlas", "", "--output", "table")
	assert.Error(t, err)

	_, err = execute(t, "info", testJSON, "--atlas", "", "--output", "xml")
	assert.ErrorContains(t, err, `unknown output format "xml"`)

	_, err = execute(t, "info", testJSON, "--atlas", "missing.atlas", "--output", "table")
	assert.ErrorContains(t, err, "missing.atlas")

	_, err = execute(t, "info")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("SPINE_TREATS_WINDOW_TITLE", "treats")
	t.Setenv("SPINE_TREATS_SCENE_ANIMATION", "idle")
	out, err := execute(t, "config")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "treats", cfg.Window.Title)
	assert.Equal(t, "idle", cfg.Scene.Animation)
	assert.Equal(t, 640, cfg.Window.Width)
	assert.Equal(t, "head", cfg.Scene.Slot)
	assert.True(t, cfg.Scene.PMA)
}

func TestConfigKeys(t *testing.T) {
	out, err := execute(t, "config", "keys")
	require.NoError(t, err)
	keys := strings.Fields(out)
	assert.Len(t, keys, len(config.Keys()))
	assert.Contains(t, keys, "window.title")
	assert.Contains(t, keys, "skeleton.binary")
	assert.IsIncreasing(t, keys)
}
