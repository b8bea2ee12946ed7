package main

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metadataCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audioproxy_metadata_cache_hits_total",
		Help: "Metadata cache lookups served without an upstream call.",
	})
	metadataCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audioproxy_metadata_cache_misses_total",
		Help: "Metadata cache lookups that required an upstream fetch.",
	})
	transcodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audioproxy_transcodes_total",
		Help: "Completed codec invocations.",
	})
	transcodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audioproxy_transcode_failures_total",
		Help: "Codec invocations that exited nonzero.",
	})
	proxiedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audioproxy_proxied_audio_bytes_total",
		Help: "Audio bytes relayed through the range proxy.",
	})
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:            "healthy",
		Upstream:          s.cfg.UpstreamBase,
		MetadataCacheSize: s.metadata.Len(),
		AudioCacheSize:    s.audio.Len(),
		Uptime:            time.Since(s.started).String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requests_total":      atomic.LoadInt64(&s.requestCount),
		"metadata_cache_size": s.metadata.Len(),
		"audio_cache_size":    s.audio.Len(),
		"mp3_store_enabled":   s.mp3Store.Enabled(),
		"uptime_seconds":      time.Since(s.started).Seconds(),
	})
}
