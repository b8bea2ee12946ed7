package main

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// PrepareService implements the search-and-prepare workflow: resolve a
// human query to a track, transcode its audio to PCM and park the buffer in
// the working cache for a device to pull later. The PCM itself is never
// returned by Prepare.
type PrepareService struct {
	upstream   *UpstreamClient
	proxy      *RangeStreamProxy
	transcoder Transcoder
	audio      *WorkingAudioCache
	log        *zap.Logger
}

func NewPrepareService(upstream *UpstreamClient, proxy *RangeStreamProxy, transcoder Transcoder, audio *WorkingAudioCache, log *zap.Logger) *PrepareService {
	return &PrepareService{
		upstream:   upstream,
		proxy:      proxy,
		transcoder: transcoder,
		audio:      audio,
		log:        log,
	}
}

// Prepare searches upstream for song (+ optional artist), takes the
// top-ranked hit and ensures its PCM sits in the working cache. Metadata
// for the hit is returned on both cache hit and miss. An empty search
// yields ErrNotFound and never reaches the codec.
func (s *PrepareService) Prepare(ctx context.Context, song, artist string) (*TrackMetadata, error) {
	query := song
	if artist != "" {
		query = song + " " + artist
	}

	data, err := s.upstream.FetchJSON(ctx, searchPath(query))
	if err != nil {
		return nil, err
	}
	var results []UpstreamVideo
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	top := results[0]
	meta := &TrackMetadata{
		Title:         top.Title,
		Author:        top.Author,
		VideoID:       top.VideoID,
		LengthSeconds: top.LengthSeconds,
		Thumbnail:     bestThumbnail(top),
	}

	if s.audio.Contains(top.VideoID) {
		s.log.Info("track already prepared", zap.String("id", top.VideoID))
		return meta, nil
	}

	rend, err := s.proxy.Resolve(ctx, top.VideoID)
	if err != nil {
		return nil, err
	}
	raw, err := s.upstream.FetchBytes(ctx, rend.URL)
	if err != nil {
		return nil, err
	}
	pcm, err := s.transcoder.ToPCM(ctx, raw, rend.Ext)
	if err != nil {
		return nil, err
	}

	s.audio.Put(top.VideoID, pcm)
	s.log.Info("track prepared",
		zap.String("id", top.VideoID),
		zap.String("title", top.Title),
		zap.Int("pcm_bytes", len(pcm)),
	)
	return meta, nil
}
