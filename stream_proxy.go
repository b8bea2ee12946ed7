package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// resolvedRendition is the outcome of metadata lookup + format selection
// for one media id.
type resolvedRendition struct {
	URL string
	Ext string
}

// RangeStreamProxy relays upstream audio bytes to clients, forwarding
// byte-range requests and the relevant response headers. Resolution results
// are kept in a short-TTL cache so a player issuing many Range requests for
// one track does not re-run metadata lookup every time.
type RangeStreamProxy struct {
	metadata *MetadataCache
	upstream *UpstreamClient
	resolved *gocache.Cache
	log      *zap.Logger
}

func NewRangeStreamProxy(metadata *MetadataCache, upstream *UpstreamClient, log *zap.Logger) *RangeStreamProxy {
	return &RangeStreamProxy{
		metadata: metadata,
		upstream: upstream,
		resolved: gocache.New(ResolvedURLTTL, 2*ResolvedURLTTL),
		log:      log,
	}
}

// Resolve maps a media id to its selected audio rendition. Returns
// ErrNoAudioFound when the rendition list has no audio entry.
func (p *RangeStreamProxy) Resolve(ctx context.Context, id string) (resolvedRendition, error) {
	if v, ok := p.resolved.Get(id); ok {
		return v.(resolvedRendition), nil
	}

	data, err := p.metadata.GetOrFetch(ctx, videoPath(id))
	if err != nil {
		return resolvedRendition{}, err
	}
	var video UpstreamVideo
	if err := json.Unmarshal(data, &video); err != nil {
		return resolvedRendition{}, fmt.Errorf("decode video metadata: %w", err)
	}

	f, ok := selectAudioFormat(audioFormats(video))
	if !ok {
		return resolvedRendition{}, ErrNoAudioFound
	}

	r := resolvedRendition{URL: f.URL, Ext: formatExt(f)}
	p.resolved.Set(id, r, gocache.DefaultExpiration)
	return r, nil
}

// Stream proxies the selected rendition to w, forwarding rangeHeader
// verbatim and copying the upstream's content headers. The upstream status
// code (200 or 206) passes through unchanged. The body is relayed, never
// buffered whole.
func (p *RangeStreamProxy) Stream(ctx context.Context, w http.ResponseWriter, id, rangeHeader string) error {
	rend, err := p.Resolve(ctx, id)
	if err != nil {
		return err
	}

	resp, err := p.upstream.OpenStream(ctx, rend.URL, rangeHeader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	for _, h := range []string{"Content-Type", "Content-Length", "Accept-Ranges", "Content-Range"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(resp.StatusCode)

	n, err := io.Copy(w, resp.Body)
	proxiedBytes.Add(float64(n))
	if err != nil {
		// Headers are already out; a dropped client or upstream reset
		// only gets logged.
		p.log.Debug("stream relay ended early",
			zap.String("id", id),
			zap.Int64("bytes", n),
			zap.Error(err),
		)
	}
	return nil
}
