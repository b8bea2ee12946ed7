package main

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// WorkingAudioCache holds fully-transcoded PCM buffers for currently
// prepared tracks, keyed by media id. Bounded LRU, no TTL: prepared tracks
// stay until capacity pressure pushes them out.
type WorkingAudioCache struct {
	lru *lru.Cache[string, []byte]
}

func NewWorkingAudioCache(size int) (*WorkingAudioCache, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &WorkingAudioCache{lru: c}, nil
}

func (c *WorkingAudioCache) Get(id string) ([]byte, bool) {
	return c.lru.Get(id)
}

// Contains reports presence without touching recency.
func (c *WorkingAudioCache) Contains(id string) bool {
	return c.lru.Contains(id)
}

func (c *WorkingAudioCache) Put(id string, pcm []byte) {
	c.lru.Add(id, pcm)
}

func (c *WorkingAudioCache) Len() int {
	return c.lru.Len()
}
