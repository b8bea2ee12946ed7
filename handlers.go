package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server ties the caches, upstream client and transcoder together. Every
// component is an injected dependency so tests can build isolated instances
// with fake collaborators.
type Server struct {
	cfg        *Config
	upstream   *UpstreamClient
	metadata   *MetadataCache
	audio      *WorkingAudioCache
	proxy      *RangeStreamProxy
	prepare    *PrepareService
	transcoder Transcoder
	mp3Store   *MP3Store
	limiter    *rate.Limiter
	log        *zap.Logger
	started    time.Time

	requestCount int64
}

// NewServer wires the production dependency graph.
func NewServer(cfg *Config, log *zap.Logger) (*Server, error) {
	transcoder := NewFFmpegTranscoder(cfg.FFmpegPath, cfg.TempDir, log)
	mp3Store := NewMP3Store(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	return newServer(cfg, transcoder, mp3Store, log)
}

func newServer(cfg *Config, transcoder Transcoder, mp3Store *MP3Store, log *zap.Logger) (*Server, error) {
	upstream := NewUpstreamClient(cfg.UpstreamBase, cfg.MetadataTimeout, cfg.AudioTimeout, log)
	metadata := NewMetadataCache(upstream, cfg.MetadataCacheSize, cfg.MetadataCacheTTL, log)
	audio, err := NewWorkingAudioCache(cfg.AudioCacheSize)
	if err != nil {
		return nil, err
	}
	proxy := NewRangeStreamProxy(metadata, upstream, log)

	return &Server{
		cfg:        cfg,
		upstream:   upstream,
		metadata:   metadata,
		audio:      audio,
		proxy:      proxy,
		prepare:    NewPrepareService(upstream, proxy, transcoder, audio, log),
		transcoder: transcoder,
		mp3Store:   mp3Store,
		limiter:    rate.NewLimiter(rate.Limit(RequestsPerSecond), BurstSize),
		log:        log,
		started:    time.Now(),
	}, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", s.withCommon(s.handleSearch))
	mux.HandleFunc("/video_info", s.withCommon(s.handleVideoInfo))
	mux.HandleFunc("/playlist", s.withCommon(s.handlePlaylist))
	mux.HandleFunc("/latest", s.withCommon(s.handleLatest))
	mux.HandleFunc("/trending", s.withCommon(s.handleTrending))
	mux.HandleFunc("/annotation", s.withCommon(s.handleAnnotation))
	mux.HandleFunc("/proxy_audio", s.withCommon(s.handleProxyAudio))
	mux.HandleFunc("/proxy_mp3", s.withCommon(s.handleProxyMP3))
	mux.HandleFunc("/stream_pcm", s.withCommon(s.handleStreamPCM))
	mux.HandleFunc("/health", s.withCommon(s.handleHealth))
	mux.HandleFunc("/stats", s.withCommon(s.handleStats))
	mux.Handle("/metrics", metricsHandler())
	return mux
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// writeMissingParam rejects before any cache or upstream interaction.
func writeMissingParam(w http.ResponseWriter, name string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": "missing required parameter: " + name,
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := "internal_error"
	status := http.StatusInternalServerError

	var tErr *TranscodeError
	switch {
	case errors.Is(err, ErrNotFound):
		kind, status = "not_found", http.StatusNotFound
	case errors.Is(err, ErrNoAudioFound):
		kind, status = "no_audio_found", http.StatusNotFound
	case errors.Is(err, ErrUpstreamUnavailable):
		kind, status = "upstream_unavailable", http.StatusBadGateway
	case errors.As(err, &tErr):
		kind = "transcode_failed"
	}

	if status >= 500 {
		s.log.Error("request failed", zap.String("kind", kind), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{
		"error":   kind,
		"message": err.Error(),
	})
}

// --- Handlers ---

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeMissingParam(w, "q")
		return
	}

	data, err := s.metadata.GetOrFetch(r.Context(), searchPath(q))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var results []UpstreamVideo
	if err := json.Unmarshal(data, &results); err != nil {
		s.writeError(w, err)
		return
	}

	items := make([]SearchItem, 0, len(results))
	for _, v := range results {
		items = append(items, toSearchItem(v))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeMissingParam(w, "id")
		return
	}

	data, err := s.metadata.GetOrFetch(r.Context(), videoPath(id))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var video UpstreamVideo
	if err := json.Unmarshal(data, &video); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, VideoInfoResponse{
		Title:         video.Title,
		Author:        video.Author,
		VideoID:       video.VideoID,
		LengthSeconds: video.LengthSeconds,
		Thumbnail:     bestThumbnail(video),
		AudioURL:      "/proxy_audio?id=" + video.VideoID,
		MP3URL:        "/proxy_mp3?id=" + video.VideoID,
	})
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeMissingParam(w, "id")
		return
	}

	data, err := s.metadata.GetOrFetch(r.Context(), playlistPath(id))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var playlist UpstreamPlaylist
	if err := json.Unmarshal(data, &playlist); err != nil {
		s.writeError(w, err)
		return
	}

	videos := make([]SearchItem, 0, len(playlist.Videos))
	for _, v := range playlist.Videos {
		videos = append(videos, toSearchItem(v))
	}
	writeJSON(w, http.StatusOK, PlaylistResponse{
		Title:      playlist.Title,
		VideoCount: playlist.VideoCount,
		Videos:     videos,
	})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, "/api/v1/popular")
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, "/api/v1/trending")
}

func (s *Server) handleAnnotation(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeMissingParam(w, "id")
		return
	}
	s.passthrough(w, r, annotationPath(id))
}

// passthrough relays upstream JSON unmodified, still read-through cached.
func (s *Server) passthrough(w http.ResponseWriter, r *http.Request, path string) {
	data, err := s.metadata.GetOrFetch(r.Context(), path)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeRawJSON(w, data)
}

func (s *Server) handleProxyAudio(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeMissingParam(w, "id")
		return
	}
	if err := s.proxy.Stream(r.Context(), w, id, r.Header.Get("Range")); err != nil {
		s.writeError(w, err)
	}
}

func (s *Server) handleProxyMP3(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeMissingParam(w, "id")
		return
	}
	ctx := r.Context()

	mp3, ok := s.mp3Store.Get(ctx, id)
	if !ok {
		rend, err := s.proxy.Resolve(ctx, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		raw, err := s.upstream.FetchBytes(ctx, rend.URL)
		if err != nil {
			s.writeError(w, err)
			return
		}
		mp3, err = s.transcoder.ToMP3(ctx, raw)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.mp3Store.Set(ctx, id, mp3)
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(mp3)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(mp3)
}

func (s *Server) handleStreamPCM(w http.ResponseWriter, r *http.Request) {
	song := r.URL.Query().Get("song")
	if song == "" {
		writeMissingParam(w, "song")
		return
	}
	artist := r.URL.Query().Get("artist")

	meta, err := s.prepare.Prepare(r.Context(), song, artist)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) countRequest() {
	atomic.AddInt64(&s.requestCount, 1)
}
