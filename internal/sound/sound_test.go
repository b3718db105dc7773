package sound

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine_treats/internal/spine"
)

// wavBytes 16 位双声道 PCM
func wavBytes(frames int) []byte {
	data := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(data[i*4:], uint16(i*1000))
		binary.LittleEndian.PutUint16(data[i*4+2:], uint16(i*1000))
	}
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVEfmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(buf, binary.LittleEndian, uint32(SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(SampleRate*4))
	_ = binary.Write(buf, binary.LittleEndian, uint16(4))
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

type fakeSink struct {
	volume  float64
	plays   int
	rewinds int
	closed  bool
	data    []byte
}

func (s *fakeSink) SetVolume(volume float64) { s.volume = volume }
func (s *fakeSink) Rewind() error            { s.rewinds++; return nil }
func (s *fakeSink) Play()                    { s.plays++ }
func (s *fakeSink) Close() error             { s.closed = true; return nil }

func newTestPlayer(dir string) (*Player, *[]*fakeSink) {
	sinks := &[]*fakeSink{}
	res := &Player{
		Dir:     dir,
		Volume:  0.8,
		players: make(map[string]sink),
		rate:    SampleRate,
		open: func(stream io.Reader) (sink, error) {
			data, err := io.ReadAll(stream)
			if err != nil {
				return nil, err
			}
			item := &fakeSink{data: data}
			*sinks = append(*sinks, item)
			return item, nil
		},
	}
	return res, sinks
}

func TestDecode(t *testing.T) {
	stream, err := Decode("thud.WAV", wavBytes(4), SampleRate)
	require.NoError(t, err)
	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Len(t, data, 16)

	_, err = Decode("thud.flac", nil, SampleRate)
	assert.ErrorContains(t, err, "unsupported audio format: .flac")

	_, err = Decode("thud.wav", []byte("not a wav"), SampleRate)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	p, _ := newTestPlayer("assets")
	event := spine.NewEvent(0, &spine.EventData{Name: "land", AudioPath: "thud.wav"})
	assert.Equal(t, filepath.Join("assets", "audio", "thud.wav"), p.Resolve(&spine.SkeletonData{AudioPath: "audio"}, event))
	assert.Equal(t, filepath.Join("assets", "thud.wav"), p.Resolve(nil, event))
}

func TestListener(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "audio"), 0o755))
	path := filepath.Join(dir, "audio", "thud.wav")
	require.NoError(t, os.WriteFile(path, wavBytes(8), 0o644))

	p, sinks := newTestPlayer(dir)
	data := &spine.SkeletonData{AudioPath: "audio"}
	state := spine.NewAnimationState(spine.NewAnimationStateData(data))
	event := spine.NewEvent(0.25, &spine.EventData{Name: "land", AudioPath: "thud.wav", Volume: 0.5, Balance: 0.3})

	p.Listener(state, spine.EventEvent, &spine.TrackEntry{}, event)
	require.Len(t, *sinks, 1)
	assert.InDelta(t, 0.4, (*sinks)[0].volume, 1e-6)
	assert.Equal(t, 1, (*sinks)[0].plays)
	assert.Len(t, (*sinks)[0].data, 32)

	// 第二次复用同一个播放器，从头播放
	require.NoError(t, os.Remove(path))
	p.Listener(state, spine.EventEvent, &spine.TrackEntry{}, event)
	require.Len(t, *sinks, 1)
	assert.Equal(t, 2, (*sinks)[0].plays)
	assert.Equal(t, 2, (*sinks)[0].rewinds)

	// 其他事件与不带音频的事件不播放
	p.Listener(state, spine.EventStart, &spine.TrackEntry{}, nil)
	p.Listener(state, spine.EventEvent, &spine.TrackEntry{}, spine.NewEvent(0, &spine.EventData{Name: "quiet"}))
	assert.Equal(t, 2, (*sinks)[0].plays)

	require.NoError(t, p.Close())
	assert.True(t, (*sinks)[0].closed)
	assert.Empty(t, p.players)
}

func TestCloseSkipsFailed(t *testing.T) {
	p, sinks := newTestPlayer(t.TempDir())
	assert.Error(t, p.Play(filepath.Join(p.Dir, "missing.wav"), 1, 0))
	assert.NoError(t, p.Close())
	assert.Empty(t, *sinks)
}

func TestPlayMissing(t *testing.T) {
	p, sinks := newTestPlayer(t.TempDir())
	path := filepath.Join(p.Dir, "missing.wav")
	assert.Error(t, p.Play(path, 1, 0))
	// 失败后不再重试
	assert.NoError(t, p.Play(path, 1, 0))
	assert.Empty(t, *sinks)

	bad := filepath.Join(p.Dir, "bad.ogg")
	require.NoError(t, os.WriteFile(bad, []byte("not ogg"), 0o644))
	assert.Error(t, p.Play(bad, 1, 0))
	assert.NoError(t, p.Play(bad, 1, 0))
	assert.Empty(t, *sinks)
}
