package harness

import (
	"spine_treats/internal/spine"
)

type AnimationSummary struct {
	Name      string  `yaml:"name"`
	Duration  float32 `yaml:"duration"`
	Timelines int     `yaml:"timelines"`
}

// Summary 骨骼数据概要，info 命令输出用
type Summary struct {
	Name        string             `yaml:"name,omitempty"`
	Version     string             `yaml:"version"`
	Hash        string             `yaml:"hash"`
	Width       float32            `yaml:"width"`
	Height      float32            `yaml:"height"`
	Bones       int                `yaml:"bones"`
	Slots       int                `yaml:"slots"`
	Constraints int                `yaml:"constraints"`
	Skins       []string           `yaml:"skins"`
	Events      []string           `yaml:"events"`
	Animations  []AnimationSummary `yaml:"animations"`
}

func Summarize(data *spine.SkeletonData) Summary {
	res := Summary{
		Name:        data.Name,
		Version:     data.Version,
		Hash:        data.Hash,
		Width:       data.Width,
		Height:      data.Height,
		Bones:       len(data.Bones),
		Slots:       len(data.Slots),
		Constraints: len(data.IkConstraints) + len(data.TransformConstraints) + len(data.PathConstraints),
		Skins:       make([]string, 0, len(data.Skins)),
		Events:      make([]string, 0, len(data.Events)),
		Animations:  make([]AnimationSummary, 0, len(data.Animations)),
	}
	for _, item := range data.Skins {
		res.Skins = append(res.Skins, item.Name)
	}
	for _, item := range data.Events {
		res.Events = append(res.Events, item.Name)
	}
	for _, item := range data.Animations {
		res.Animations = append(res.Animations, AnimationSummary{
			Name:      item.Name,
			Duration:  item.Duration,
			Timelines: len(item.Timelines),
		})
	}
	return res
}
