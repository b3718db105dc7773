package spine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type TextureFilter string

const (
	FilterNearest TextureFilter = "Nearest"
	FilterLinear  TextureFilter = "Linear"
)

type AtlasPage struct {
	Name             string
	Format           string
	W, H             int
	MinFilter        TextureFilter
	MagFilter        TextureFilter
	UWrap, VWrap     string
	PMA              bool
	Texture          any // 由 TextureLoader 填充
	RendererObjectID int
}

type AtlasRegion struct {
	Page         *AtlasPage
	Name         string
	X, Y         int
	W, H         int // 打包前方向的尺寸，旋转时在页上占 H*W
	OrigW, OrigH int
	OffsetX      int // 相对原图左下角
	OffsetY      int
	Rotate       bool
	Degrees      int
	Index        int
	Splits, Pads []int
	U, V, U2, V2 float32
}

// TextureLoader 负责页面图片的加载与释放，渲染层实现
type TextureLoader interface {
	Load(page *AtlasPage, path string) error
	Unload(page *AtlasPage)
}

type Atlas struct {
	Pages   []*AtlasPage
	Regions []*AtlasRegion
	loader  TextureLoader
}

// NewAtlasFromFile 解析 atlas 文件，loader 可以为 nil（只解析不加载贴图）
func NewAtlasFromFile(path string, loader TextureLoader) (*Atlas, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open atlas %s: %w", path, err)
	}
	defer file.Close()
	atlas, err := ParseAtlas(file, filepath.Dir(path), loader)
	if err != nil {
		return nil, fmt.Errorf("parse atlas %s: %w", path, err)
	}
	return atlas, nil
}

func ParseAtlas(reader io.Reader, dir string, loader TextureLoader) (*Atlas, error) {
	atlas := &Atlas{loader: loader}
	scanner := bufio.NewScanner(reader)
	var page *AtlasPage
	var region *AtlasRegion
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == "" { // 空行结束当前页
			page, region = nil, nil
			continue
		}
		if page == nil {
			page = &AtlasPage{Name: strings.TrimSpace(line), MinFilter: FilterNearest, MagFilter: FilterNearest,
				UWrap: "ClampToEdge", VWrap: "ClampToEdge", RendererObjectID: len(atlas.Pages)}
			atlas.Pages = append(atlas.Pages, page)
			region = nil
			continue
		}
		key, values, ok := parseAtlasEntry(line)
		if !ok { // 不是 key: value 就是新的区域名
			region = &AtlasRegion{Page: page, Name: strings.TrimSpace(line), Index: -1}
			atlas.Regions = append(atlas.Regions, region)
			continue
		}
		var err error
		if region == nil {
			err = parsePageEntry(page, key, values)
		} else {
			err = parseRegionEntry(region, key, values)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if loader != nil { // loader 可以补全缺失的页面尺寸
		for _, item := range atlas.Pages {
			if err := loader.Load(item, filepath.Join(dir, item.Name)); err != nil {
				atlas.Dispose()
				return nil, fmt.Errorf("load page %s: %w", item.Name, err)
			}
		}
	}
	for _, item := range atlas.Regions {
		item.finish()
	}
	return atlas, nil
}

func parseAtlasEntry(line string) (string, []string, bool) {
	index := strings.Index(line, ":")
	if index < 0 {
		return "", nil, false
	}
	key := strings.TrimSpace(line[:index])
	items := strings.Split(line[index+1:], ",")
	res := make([]string, 0, len(items))
	for _, item := range items {
		res = append(res, strings.TrimSpace(item))
	}
	return key, res, true
}

func parsePageEntry(page *AtlasPage, key string, values []string) error {
	switch key {
	case "size":
		size, err := parseInts(values, 2)
		if err != nil {
			return fmt.Errorf("page size: %w", err)
		}
		page.W, page.H = size[0], size[1]
	case "format":
		page.Format = values[0]
	case "filter":
		page.MinFilter = TextureFilter(values[0])
		page.MagFilter = page.MinFilter
		if len(values) > 1 {
			page.MagFilter = TextureFilter(values[1])
		}
	case "pma":
		page.PMA = values[0] == "true"
	case "repeat":
		switch values[0] {
		case "x":
			page.UWrap = "Repeat"
		case "y":
			page.VWrap = "Repeat"
		case "xy":
			page.UWrap, page.VWrap = "Repeat", "Repeat"
		}
	}
	return nil // 未知字段忽略
}

func parseRegionEntry(region *AtlasRegion, key string, values []string) error {
	var err error
	var items []int
	switch key {
	case "rotate":
		switch values[0] {
		case "true":
			region.Degrees = 90
		case "false":
			region.Degrees = 0
		default:
			region.Degrees, err = strconv.Atoi(values[0])
		}
		region.Rotate = region.Degrees == 90
	case "xy":
		if items, err = parseInts(values, 2); err == nil {
			region.X, region.Y = items[0], items[1]
		}
	case "size":
		if items, err = parseInts(values, 2); err == nil {
			region.W, region.H = items[0], items[1]
		}
	case "orig":
		if items, err = parseInts(values, 2); err == nil {
			region.OrigW, region.OrigH = items[0], items[1]
		}
	case "offset":
		if items, err = parseInts(values, 2); err == nil {
			region.OffsetX, region.OffsetY = items[0], items[1]
		}
	case "index":
		if items, err = parseInts(values, 1); err == nil {
			region.Index = items[0]
		}
	case "split":
		region.Splits, err = parseInts(values, 4)
	case "pad":
		region.Pads, err = parseInts(values, 4)
	}
	if err != nil {
		return fmt.Errorf("region %s %s: %w", region.Name, key, err)
	}
	return nil
}

func parseInts(values []string, count int) ([]int, error) {
	if len(values) < count {
		return nil, fmt.Errorf("expected %d values, got %d", count, len(values))
	}
	res := make([]int, 0, count)
	for _, item := range values[:count] {
		val, err := strconv.Atoi(item)
		if err != nil {
			return nil, err
		}
		res = append(res, val)
	}
	return res, nil
}

func (r *AtlasRegion) finish() {
	if r.OrigW == 0 && r.OrigH == 0 {
		r.OrigW, r.OrigH = r.W, r.H
	}
	w, h := r.W, r.H
	if r.Rotate { // 旋转后在页上宽高互换
		w, h = h, w
	}
	if r.Page.W > 0 && r.Page.H > 0 {
		r.U = float32(r.X) / float32(r.Page.W)
		r.V = float32(r.Y) / float32(r.Page.H)
		r.U2 = float32(r.X+w) / float32(r.Page.W)
		r.V2 = float32(r.Y+h) / float32(r.Page.H)
	}
}

func (a *Atlas) FindRegion(name string) *AtlasRegion {
	for _, item := range a.Regions {
		if item.Name == name {
			return item
		}
	}
	return nil
}

// Dispose 释放所有页面贴图
func (a *Atlas) Dispose() {
	if a.loader == nil {
		return
	}
	for _, page := range a.Pages {
		if page.Texture != nil {
			a.loader.Unload(page)
			page.Texture = nil
		}
	}
}
