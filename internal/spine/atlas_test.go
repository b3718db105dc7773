package spine

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextureLoader struct {
	loaded   []string
	unloaded []string
}

func (l *fakeTextureLoader) Load(page *AtlasPage, path string) error {
	l.loaded = append(l.loaded, path)
	page.Texture = path
	return nil
}

func (l *fakeTextureLoader) Unload(page *AtlasPage) {
	l.unloaded = append(l.unloaded, page.Name)
}

func TestParseAtlas(t *testing.T) {
	atlas, err := NewAtlasFromFile("testdata/treats.atlas", nil)
	require.NoError(t, err)
	require.Len(t, atlas.Pages, 1)
	require.Len(t, atlas.Regions, 2)

	page := atlas.Pages[0]
	assert.Equal(t, "treats.png", page.Name)
	assert.Equal(t, 128, page.W)
	assert.Equal(t, 128, page.H)
	assert.Equal(t, "RGBA8888", page.Format)
	assert.Equal(t, FilterLinear, page.MinFilter)
	assert.Equal(t, FilterLinear, page.MagFilter)
	assert.Equal(t, "ClampToEdge", page.UWrap)

	body := atlas.FindRegion("body")
	require.NotNil(t, body)
	assert.Same(t, page, body.Page)
	assert.False(t, body.Rotate)
	assert.Equal(t, 40, body.W)
	assert.Equal(t, 60, body.H)
	assert.Equal(t, -1, body.Index)
	assert.InDelta(t, 0, body.U, 1e-6)
	assert.InDelta(t, 40.0/128, body.U2, 1e-6)
	assert.InDelta(t, 60.0/128, body.V2, 1e-6)

	head := atlas.FindRegion("head")
	require.NotNil(t, head)
	assert.True(t, head.Rotate)
	assert.Equal(t, 90, head.Degrees)
	assert.InDelta(t, 40.0/128, head.U, 1e-6)
	assert.InDelta(t, 80.0/128, head.U2, 1e-6)

	assert.Nil(t, atlas.FindRegion("tail"))
}

func TestParseAtlasRotatedSize(t *testing.T) {
	text := `
page.png
size: 100, 50
tall
  rotate: true
  xy: 10, 0
  size: 20, 40
`
	atlas, err := ParseAtlas(strings.NewReader(text), ".", nil)
	require.NoError(t, err)
	region := atlas.FindRegion("tall")
	require.NotNil(t, region)
	// 旋转后在页上占 40x20
	assert.InDelta(t, 0.1, region.U, 1e-6)
	assert.InDelta(t, 0.5, region.U2, 1e-6)
	assert.InDelta(t, 0.4, region.V2, 1e-6)
	assert.Equal(t, 20, region.OrigW)
	assert.Equal(t, 40, region.OrigH)
}

func TestParseAtlasLoader(t *testing.T) {
	loader := &fakeTextureLoader{}
	atlas, err := NewAtlasFromFile("testdata/treats.atlas", loader)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("testdata", "treats.png")}, loader.loaded)

	atlas.Dispose()
	assert.Equal(t, []string{"treats.png"}, loader.unloaded)
	assert.Nil(t, atlas.Pages[0].Texture)

	atlas.Dispose()
	assert.Len(t, loader.unloaded, 1)
}

func TestParseAtlasErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "bad size", text: "page.png\nsize: a, 1\n"},
		{name: "short xy", text: "page.png\nsize: 1, 1\nregion\n  xy: 1\n"},
		{name: "bad rotate", text: "page.png\nregion\n  rotate: sideways\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAtlas(strings.NewReader(tt.text), ".", nil)
			assert.Error(t, err)
		})
	}

	_, err := NewAtlasFromFile("testdata/missing.atlas", nil)
	assert.Error(t, err)
}
