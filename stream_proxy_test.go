package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newProxyFixture(t *testing.T, f *fakeUpstream) *RangeStreamProxy {
	t.Helper()
	upstream := NewUpstreamClient(f.ts.URL, 5*time.Second, 5*time.Second, zap.NewNop())
	metadata := NewMetadataCache(upstream, 100, time.Minute, zap.NewNop())
	return NewRangeStreamProxy(metadata, upstream, zap.NewNop())
}

func TestStreamForwardsRange(t *testing.T) {
	f := newFakeUpstream(t)
	f.addVideo(f.audioVideo("abc", "Track"))
	proxy := newProxyFixture(t, f)

	rec := httptest.NewRecorder()
	if err := proxy.Stream(context.Background(), rec, "abc", "bytes=100-199"); err != nil {
		t.Fatal(err)
	}

	if rec.Code != 206 {
		t.Errorf("status %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 100-199/1000" {
		t.Errorf("Content-Range %q not forwarded unchanged", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/webm" {
		t.Errorf("Content-Type %q, want audio/webm", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=86400" {
		t.Errorf("Cache-Control %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), f.payload[100:200]) {
		t.Errorf("body is not bytes 100-199 of the upstream resource (%d bytes)", rec.Body.Len())
	}
}

func TestStreamFullPayload(t *testing.T) {
	f := newFakeUpstream(t)
	f.addVideo(f.audioVideo("abc", "Track"))
	proxy := newProxyFixture(t, f)

	rec := httptest.NewRecorder()
	if err := proxy.Stream(context.Background(), rec, "abc", ""); err != nil {
		t.Fatal(err)
	}
	if rec.Code != 200 {
		t.Errorf("status %d, want 200", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), f.payload) {
		t.Errorf("body length %d, want full %d-byte payload", rec.Body.Len(), len(f.payload))
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges %q not forwarded", got)
	}
}

func TestStreamNoAudioOpensNoUpstreamStream(t *testing.T) {
	f := newFakeUpstream(t)
	f.addVideo(UpstreamVideo{
		VideoID: "vid-only",
		AdaptiveFormats: []AudioFormat{
			{Type: "video/mp4", URL: f.audioURL()},
		},
	})
	proxy := newProxyFixture(t, f)

	rec := httptest.NewRecorder()
	err := proxy.Stream(context.Background(), rec, "vid-only", "")
	if !errors.Is(err, ErrNoAudioFound) {
		t.Fatalf("error %v, want ErrNoAudioFound", err)
	}
	if n := atomic.LoadInt64(&f.audioHits); n != 0 {
		t.Errorf("audio endpoint reached %d times before selection failed, want 0", n)
	}
}

func TestResolveReusesResolution(t *testing.T) {
	f := newFakeUpstream(t)
	f.addVideo(f.audioVideo("abc", "Track"))
	proxy := newProxyFixture(t, f)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		if err := proxy.Stream(ctx, rec, "abc", "bytes=0-9"); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt64(&f.videoHits); n != 1 {
		t.Errorf("metadata resolved %d times across repeated range requests, want 1", n)
	}
	if n := atomic.LoadInt64(&f.audioHits); n != 3 {
		t.Errorf("audio endpoint hit %d times, want 3", n)
	}
}
