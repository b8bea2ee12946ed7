package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// UpstreamClient talks to the Invidious-style provider. Metadata calls and
// audio byte fetches use separately bounded HTTP clients: JSON answers in
// seconds, audio payloads take however long the pipe allows.
type UpstreamClient struct {
	base  string
	meta  *http.Client
	media *http.Client
	log   *zap.Logger
}

func NewUpstreamClient(base string, metaTimeout, audioTimeout time.Duration, log *zap.Logger) *UpstreamClient {
	return &UpstreamClient{
		base:  strings.TrimRight(base, "/"),
		meta:  &http.Client{Timeout: metaTimeout},
		media: &http.Client{Timeout: audioTimeout},
		log:   log,
	}
}

func searchPath(query string) string {
	return "/api/v1/search?q=" + url.QueryEscape(query)
}

func videoPath(id string) string {
	return "/api/v1/videos/" + url.PathEscape(id)
}

func playlistPath(id string) string {
	return "/api/v1/playlists/" + url.PathEscape(id)
}

func annotationPath(id string) string {
	return "/api/v1/annotations/" + url.PathEscape(id)
}

// FetchJSON issues GET {base}{path} and returns the raw body on 2xx.
func (c *UpstreamClient) FetchJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.meta.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUpstreamUnavailable, path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstreamUnavailable, err)
	}
	return body, nil
}

// FetchBytes downloads a full audio payload from an absolute URL.
func (c *UpstreamClient) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.media.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: audio fetch returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading audio payload: %v", ErrUpstreamUnavailable, err)
	}
	c.log.Debug("audio payload fetched",
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

// OpenStream opens an upstream byte stream, forwarding the client's Range
// header verbatim when present. The caller owns resp.Body.
func (c *UpstreamClient) OpenStream(ctx context.Context, rawURL, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.media.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: audio stream returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	return resp, nil
}
