package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spine_treats/internal/spine"
)

// Collector 统计动画事件与帧时间
type Collector struct {
	Registry *prometheus.Registry

	events       *prometheus.CounterVec
	frames       prometheus.Counter
	frameSeconds prometheus.Histogram
	scenes       prometheus.Counter
	started      time.Time
	frameCount   atomic.Int64
}

func NewCollector() *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spine_treats_animation_events_total",
				Help: "Animation state events delivered to listeners",
			},
			[]string{"type", "animation"},
		),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spine_treats_frames_total",
			Help: "Frames rendered across all scenes",
		}),
		frameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spine_treats_frame_delta_seconds",
			Help:    "Time between frames",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		scenes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spine_treats_scenes_completed_total",
			Help: "Scenes whose window was closed",
		}),
		started: time.Now(),
	}
	c.Registry.MustRegister(c.events)
	c.Registry.MustRegister(c.frames)
	c.Registry.MustRegister(c.frameSeconds)
	c.Registry.MustRegister(c.scenes)
	return c
}

// Listener 作为 AnimationState 的监听器计数
func (c *Collector) Listener(state *spine.AnimationState, kind spine.EventType, entry *spine.TrackEntry, event *spine.Event) {
	name := ""
	if entry != nil && entry.Animation != nil {
		name = entry.Animation.Name
	}
	c.events.WithLabelValues(kind.String(), name).Inc()
}

func (c *Collector) ObserveFrame(delta float32) {
	c.frames.Inc()
	c.frameSeconds.Observe(float64(delta))
	c.frameCount.Add(1)
}

func (c *Collector) SceneDone() {
	c.scenes.Inc()
}

func (c *Collector) Router() *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/health", c.health).Methods("GET")
	return router
}

type Health struct {
	Status string `json:"status"`
	Frames int64  `json:"frames"`
	Uptime string `json:"uptime"`
}

func (c *Collector) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(Health{
		Status: "healthy",
		Frames: c.frameCount.Load(),
		Uptime: time.Since(c.started).Round(time.Second).String(),
	}); err != nil {
		log.Printf("[Metrics] encode health: %v", err)
	}
}

// Serve 后台监听 addr，ctx 结束时关闭
func (c *Collector) Serve(ctx context.Context, addr string) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      c.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[Metrics] listening on %s", addr)
		log.Println("[Metrics]   GET  /metrics (Prometheus format)")
		log.Println("[Metrics]   GET  /health")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Metrics] server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Metrics] shutdown error: %v", err)
		}
	}()
	return srv
}
