package cmd

import (
	"bufio"
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spine_treats/internal/config"
	"spine_treats/internal/harness"
	"spine_treats/internal/metrics"
	"spine_treats/internal/prefs"
	"spine_treats/internal/render"
	"spine_treats/internal/sound"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "spine_treats",
	Short: "Play a Spine skeleton in a window and print its animation events",
	Long: `spine_treats loads a skeleton exported as binary and as JSON together with its atlas,
plays the configured animation in a window once per format and prints every
animation state event to stdout.`,
	SilenceUsage: true,
	RunE:         runTreats,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags := rootCmd.Flags()
	flags.String("json", "", "skeleton JSON file")
	flags.String("binary", "", "skeleton binary file")
	flags.String("atlas", "", "atlas file")
	flags.Float32("scale", 1, "skeleton scale")
	flags.String("animation", "", "animation played on track 0")
	flags.String("metrics-addr", "", "serve /metrics and /health on this address")
	flags.Bool("sound", true, "play event audio")
	bindFlag("skeleton.json", "json")
	bindFlag("skeleton.binary", "binary")
	bindFlag("skeleton.atlas", "atlas")
	bindFlag("skeleton.scale", "scale")
	bindFlag("scene.animation", "animation")
	bindFlag("metrics.addr", "metrics-addr")
	bindFlag("sound.enabled", "sound")
}

// bindFlag 只有显式传入的 flag 才覆盖配置
func bindFlag(key, name string) {
	if err := v.BindPFlag(key, rootCmd.Flags().Lookup(name)); err != nil {
		panic(err)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(v, cfgFile)
}

func runTreats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	controls := render.NewControls(prefs.Open(cfg.Prefs.AppName))
	app := render.NewApp(controls)
	h := harness.New(cfg, app, &render.TextureLoader{PremultipliedAlpha: cfg.Scene.PMA})
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	h.Out = out

	collector := metrics.NewCollector()
	h.Listeners = append(h.Listeners, collector.Listener)
	h.OnFrame = func(scene *harness.Scene, delta float32) {
		collector.ObserveFrame(delta)
	}
	h.OnSceneDone = func(scene *harness.Scene) {
		collector.SceneDone()
		log.Printf("[Main] scene %q closed after %d frames", scene.Title, scene.Frames)
	}
	if cfg.Metrics.Addr != "" {
		collector.Serve(ctx, cfg.Metrics.Addr)
	}
	if cfg.Sound.Enabled {
		player := sound.New(audio.NewContext(sound.SampleRate), cfg.Sound, filepath.Dir(cfg.Skeleton.JSON))
		h.Listeners = append(h.Listeners, player.Listener)
		defer func() {
			if err := player.Close(); err != nil {
				log.Printf("[Main] Warning: %v", err)
			}
		}()
	}

	skeleton := cfg.Skeleton
	err = app.Run(func() error {
		return h.TestCase(h.Treats, skeleton.JSON, skeleton.Binary, skeleton.Atlas, skeleton.Scale)
	})
	if errors.Is(err, harness.ErrExited) {
		return nil
	}
	return err
}
