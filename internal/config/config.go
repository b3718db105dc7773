package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "SPINE_TREATS"

// Skeleton 骨骼资源，默认值与导出目录约定一致
type Skeleton struct {
	JSON   string  `mapstructure:"json" yaml:"json"`
	Binary string  `mapstructure:"binary" yaml:"binary"`
	Atlas  string  `mapstructure:"atlas" yaml:"atlas"`
	Scale  float32 `mapstructure:"scale" yaml:"scale"`
}

type Scene struct {
	Animation  string  `mapstructure:"animation" yaml:"animation"`
	Slot       string  `mapstructure:"slot" yaml:"slot"` // 鼠标悬停时染色的插槽
	X          float32 `mapstructure:"x" yaml:"x"`
	Y          float32 `mapstructure:"y" yaml:"y"`
	Loop       bool    `mapstructure:"loop" yaml:"loop"`
	TimeScale  float32 `mapstructure:"time_scale" yaml:"time_scale"`
	PMA        bool    `mapstructure:"pma" yaml:"pma"`
	DefaultMix float32 `mapstructure:"default_mix" yaml:"default_mix"`
}

type Window struct {
	Title  string `mapstructure:"title" yaml:"title"`
	Width  int    `mapstructure:"width" yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
	FPS    int    `mapstructure:"fps" yaml:"fps"`
}

type Sound struct {
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	Volume  float64 `mapstructure:"volume" yaml:"volume"`
}

type Metrics struct {
	Addr string `mapstructure:"addr" yaml:"addr"` // 为空时不开启 HTTP
}

type Prefs struct {
	AppName string `mapstructure:"app_name" yaml:"app_name"`
}

type Config struct {
	Skeleton Skeleton `mapstructure:"skeleton" yaml:"skeleton"`
	Scene    Scene    `mapstructure:"scene" yaml:"scene"`
	Window   Window   `mapstructure:"window" yaml:"window"`
	Sound    Sound    `mapstructure:"sound" yaml:"sound"`
	Metrics  Metrics  `mapstructure:"metrics" yaml:"metrics"`
	Prefs    Prefs    `mapstructure:"prefs" yaml:"prefs"`
}

var defaults = map[string]any{
	"skeleton.json":     "../treats/export/skeleton.json",
	"skeleton.binary":   "../treats/export/skeleton.skel",
	"skeleton.atlas":    "../treats/export/skeleton.atlas",
	"skeleton.scale":    1.0,
	"scene.animation":   "falling",
	"scene.slot":        "head",
	"scene.x":           320,
	"scene.y":           390,
	"scene.loop":        true,
	"scene.time_scale":  1.0,
	"scene.pma":         true,
	"scene.default_mix": 0.0,
	"window.title":      "Spine SFML - spineboy",
	"window.width":      640,
	"window.height":     640,
	"window.fps":        60,
	"sound.enabled":     true,
	"sound.volume":      1.0,
	"metrics.addr":      "",
	"prefs.app_name":    "spine_treats",
}

// SetDefaults 不带任何参数运行时的行为由这些默认值决定
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Keys 所有配置项，flag 绑定用
func Keys() []string {
	res := make([]string, 0, len(defaults))
	for key := range defaults {
		res = append(res, key)
	}
	return res
}

// Load 依次叠加默认值、配置文件与 SPINE_TREATS_ 前缀的环境变量，file 为空时不读文件
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	res := &Config{}
	if err := v.Unmarshal(res); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Skeleton.Scale <= 0 {
		errs = append(errs, fmt.Errorf("skeleton.scale must be positive, got %v", c.Skeleton.Scale))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Window.FPS <= 0 {
		errs = append(errs, fmt.Errorf("window.fps must be positive, got %d", c.Window.FPS))
	}
	if c.Sound.Volume < 0 || c.Sound.Volume > 1 {
		errs = append(errs, fmt.Errorf("sound.volume must be in [0, 1], got %v", c.Sound.Volume))
	}
	return errors.Join(errs...)
}
