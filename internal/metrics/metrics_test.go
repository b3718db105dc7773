package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine_treats/internal/spine"
)

func TestListener(t *testing.T) {
	c := NewCollector()
	entry := &spine.TrackEntry{Animation: spine.NewAnimation("falling", nil, 0.5)}
	c.Listener(nil, spine.EventStart, entry, nil)
	c.Listener(nil, spine.EventEvent, entry, &spine.Event{Data: &spine.EventData{Name: "land"}})
	c.Listener(nil, spine.EventEvent, entry, &spine.Event{Data: &spine.EventData{Name: "land"}})
	c.Listener(nil, spine.EventComplete, &spine.TrackEntry{}, nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.events.WithLabelValues("start", "falling")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.events.WithLabelValues("event", "falling")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.events.WithLabelValues("complete", "")))
}

func TestObserveFrame(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 3; i++ {
		c.ObserveFrame(1.0 / 60)
	}
	c.SceneDone()
	assert.Equal(t, float64(3), testutil.ToFloat64(c.frames))
	c.SceneDone()
	assert.Equal(t, float64(2), testutil.ToFloat64(c.scenes))
	assert.Equal(t, 1, testutil.CollectAndCount(c.frameSeconds))
	assert.Equal(t, 1, testutil.CollectAndCount(c.scenes, "spine_treats_scenes_completed_total"))
}

func TestRouter(t *testing.T) {
	c := NewCollector()
	c.ObserveFrame(0.016)
	c.Listener(nil, spine.EventStart, &spine.TrackEntry{Animation: spine.NewAnimation("idle", nil, 0)}, nil)
	router := c.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "spine_treats_frames_total 1")
	assert.Contains(t, body, `spine_treats_animation_events_total{animation="idle",type="start"} 1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var health Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, int64(1), health.Frames)
	assert.NotEmpty(t, health.Uptime)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithCancel(context.Background())
	c := NewCollector()
	c.Serve(ctx, addr)

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, string(body), "healthy")

	cancel()
	assert.Eventually(t, func() bool {
		_, err := http.Get("http://" + addr + "/health")
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
}
