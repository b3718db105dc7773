package sound

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"spine_treats/internal/config"
	"spine_treats/internal/spine"
)

const SampleRate = 48000

// sink 由 audio.Player 实现
type sink interface {
	SetVolume(volume float64)
	Rewind() error
	Play()
	Close() error
}

// Player 播放带音频路径的动画事件
type Player struct {
	Dir    string // 骨骼文件所在目录，音频路径相对它与 SkeletonData.AudioPath
	Volume float64

	mu       sync.Mutex
	players  map[string]sink // nil 表示加载失败过，不再重试
	open     func(stream io.Reader) (sink, error)
	rate     int
	balanced bool
}

func New(context *audio.Context, cfg config.Sound, dir string) *Player {
	return &Player{
		Dir:     dir,
		Volume:  cfg.Volume,
		players: make(map[string]sink),
		open: func(stream io.Reader) (sink, error) {
			return context.NewPlayer(stream)
		},
		rate: context.SampleRate(),
	}
}

// Decode 按扩展名解码并重采样到 sampleRate
func Decode(name string, data []byte, sampleRate int) (io.ReadSeeker, error) {
	reader := bytes.NewReader(data)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".wav":
		return wav.DecodeWithSampleRate(sampleRate, reader)
	case ".mp3":
		return mp3.DecodeWithSampleRate(sampleRate, reader)
	case ".ogg":
		return vorbis.DecodeWithSampleRate(sampleRate, reader)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .wav, .mp3, .ogg)", ext)
	}
}

// Resolve 事件音频的完整路径
func (p *Player) Resolve(data *spine.SkeletonData, event *spine.Event) string {
	audioPath := ""
	if data != nil {
		audioPath = data.AudioPath
	}
	return filepath.Join(p.Dir, audioPath, event.Data.AudioPath)
}

// Listener 只处理带音频的自定义事件
func (p *Player) Listener(state *spine.AnimationState, kind spine.EventType, entry *spine.TrackEntry, event *spine.Event) {
	if kind != spine.EventEvent || event == nil || event.Data.AudioPath == "" {
		return
	}
	var data *spine.SkeletonData
	if state != nil && state.Data != nil {
		data = state.Data.SkeletonData
	}
	if err := p.Play(p.Resolve(data, event), event.Volume, event.Balance); err != nil {
		log.Printf("[Sound] Warning: %v", err)
	}
}

// load 读取并解码音频，每个路径只创建一个播放器
func (p *Player) load(path string) (sink, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio %s: %w", path, err)
	}
	stream, err := Decode(path, data, p.rate)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio %s: %w", path, err)
	}
	player, err := p.open(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player for %s: %w", path, err)
	}
	return player, nil
}

// Play 重置缓存的播放器并从头播放
func (p *Player) Play(path string, volume, balance float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	player, ok := p.players[path]
	if !ok {
		var err error
		player, err = p.load(path)
		p.players[path] = player
		if err != nil {
			return err
		}
	}
	if player == nil {
		return nil
	}
	if balance != 0 && !p.balanced { // audio.Player 只有音量
		p.balanced = true
		log.Printf("[Sound] balance %.2f ignored, panning is not supported", balance)
	}
	player.SetVolume(p.Volume * float64(volume))
	if err := player.Rewind(); err != nil {
		log.Printf("[Sound] Warning: failed to rewind %s: %v", path, err)
	}
	player.Play()
	return nil
}

// Close 关闭所有播放器
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for path, player := range p.players {
		if player == nil {
			continue
		}
		if err := player.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", path, err))
		}
	}
	clear(p.players)
	return errors.Join(errs...)
}
