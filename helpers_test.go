package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeUpstream is an httptest-backed provider serving search, video,
// playlist and audio-byte endpoints. Hit counters let tests assert how
// often each was reached.
type fakeUpstream struct {
	ts      *httptest.Server
	payload []byte

	videoDelay time.Duration

	mu        sync.Mutex
	videos    map[string]UpstreamVideo
	playlists map[string]UpstreamPlaylist
	search    []UpstreamVideo

	searchHits int64
	videoHits  int64
	audioHits  int64
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{
		payload:   make([]byte, 1000),
		videos:    map[string]UpstreamVideo{},
		playlists: map[string]UpstreamPlaylist{},
	}
	for i := range f.payload {
		f.payload[i] = byte(i)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.searchHits, 1)
		f.mu.Lock()
		results := f.search
		f.mu.Unlock()
		if results == nil {
			results = []UpstreamVideo{}
		}
		json.NewEncoder(w).Encode(results)
	})
	mux.HandleFunc("/api/v1/videos/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.videoHits, 1)
		if f.videoDelay > 0 {
			time.Sleep(f.videoDelay)
		}
		f.mu.Lock()
		v, ok := f.videos[path.Base(r.URL.Path)]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(v)
	})
	mux.HandleFunc("/api/v1/playlists/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		p, ok := f.playlists[path.Base(r.URL.Path)]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("/audio", f.serveAudio)

	f.ts = httptest.NewServer(mux)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *fakeUpstream) serveAudio(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&f.audioHits, 1)
	w.Header().Set("Content-Type", "audio/webm")
	w.Header().Set("Accept-Ranges", "bytes")

	rng := r.Header.Get("Range")
	if rng == "" {
		w.Header().Set("Content-Length", strconv.Itoa(len(f.payload)))
		w.Write(f.payload)
		return
	}

	var start, end int
	if _, err := fmt.Sscanf(rng, "bytes=%d-%d", &start, &end); err != nil {
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if end >= len(f.payload) {
		end = len(f.payload) - 1
	}
	chunk := f.payload[start : end+1]
	w.Header().Set("Content-Length", strconv.Itoa(len(chunk)))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(f.payload)))
	w.WriteHeader(http.StatusPartialContent)
	w.Write(chunk)
}

func (f *fakeUpstream) audioURL() string {
	return f.ts.URL + "/audio"
}

func (f *fakeUpstream) addVideo(v UpstreamVideo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[v.VideoID] = v
}

func (f *fakeUpstream) setSearch(results ...UpstreamVideo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = results
}

func (f *fakeUpstream) addPlaylist(id string, p UpstreamPlaylist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists[id] = p
}

// audioVideo builds a video whose rendition list holds a video entry first
// and an audio entry pointing at the fake's /audio endpoint second.
func (f *fakeUpstream) audioVideo(id, title string) UpstreamVideo {
	return UpstreamVideo{
		Title:         title,
		Author:        "Test Author",
		VideoID:       id,
		LengthSeconds: 120,
		VideoThumbnails: []Thumbnail{
			{Quality: "medium", URL: "http://thumbs/" + id + ".jpg"},
		},
		AdaptiveFormats: []AudioFormat{
			{Type: "video/mp4", URL: f.ts.URL + "/ignored"},
			{Type: `audio/webm; codecs="opus"`, URL: f.audioURL()},
		},
	}
}

type fakeTranscoder struct {
	pcmCalls int64
	mp3Calls int64
}

func (f *fakeTranscoder) ToPCM(_ context.Context, data []byte, _ string) ([]byte, error) {
	atomic.AddInt64(&f.pcmCalls, 1)
	return append([]byte("pcm:"), data...), nil
}

func (f *fakeTranscoder) ToMP3(_ context.Context, data []byte) ([]byte, error) {
	atomic.AddInt64(&f.mp3Calls, 1)
	return append([]byte("mp3:"), data...), nil
}

func newTestServer(t *testing.T, f *fakeUpstream, tr Transcoder) *Server {
	t.Helper()
	cfg := &Config{
		UpstreamBase:      f.ts.URL,
		MetadataCacheSize: 100,
		MetadataCacheTTL:  time.Minute,
		AudioCacheSize:    10,
		MetadataTimeout:   5 * time.Second,
		AudioTimeout:      5 * time.Second,
	}
	srv, err := newServer(cfg, tr, NewMP3Store("", "", 0, zap.NewNop()), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return srv
}
