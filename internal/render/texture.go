package render

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"spine_treats/internal/spine"
)

// TextureLoader 把图集页面加载为 ebiten.Image，存到 AtlasPage.Texture
// 3.8 的图集没有 pma 字段，PremultipliedAlpha 为 true 时所有页面按预乘处理
type TextureLoader struct {
	PremultipliedAlpha bool
}

func (l *TextureLoader) Load(page *spine.AtlasPage, path string) error {
	img, err := decodePage(path, page.PMA || l.PremultipliedAlpha)
	if err != nil {
		return err
	}
	bound := img.Bounds()
	if page.W == 0 || page.H == 0 { // 旧格式没有 size 时用图片尺寸
		page.W, page.H = bound.Dx(), bound.Dy()
	} else if page.W != bound.Dx() || page.H != bound.Dy() {
		log.Printf("[Render] page %s is %dx%d, atlas says %dx%d", page.Name, bound.Dx(), bound.Dy(), page.W, page.H)
	}
	page.Texture = ebiten.NewImageFromImage(img)
	return nil
}

func (l *TextureLoader) Unload(page *spine.AtlasPage) {
	if img, ok := page.Texture.(*ebiten.Image); ok {
		img.Deallocate()
	}
	page.Texture = nil
}

func decodePage(path string, pma bool) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page %s: %w", path, err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode page %s: %w", path, err)
	}
	if pma {
		return premultiplied(img), nil
	}
	return img, nil
}

// premultiplied 像素已经预乘过，按 RGBA 解释避免再乘一次透明度
func premultiplied(img image.Image) image.Image {
	switch src := img.(type) {
	case *image.NRGBA:
		return &image.RGBA{Pix: src.Pix, Stride: src.Stride, Rect: src.Rect}
	case *image.RGBA:
		return src
	default: // 没有透明通道的格式先转成 RGBA
		res := image.NewRGBA(img.Bounds())
		draw.Draw(res, res.Bounds(), img, img.Bounds().Min, draw.Src)
		return res
	}
}
