package main

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MP3Store mirrors finished MP3 payloads in Redis so repeated /proxy_mp3
// requests skip the codec. Redis being down or unconfigured degrades to a
// no-op store; every transcode then runs per request.
type MP3Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewMP3Store(addr, password string, db int, log *zap.Logger) *MP3Store {
	store := &MP3Store{
		ttl: MP3ExpirationHours * time.Hour,
		log: log,
	}
	if addr == "" {
		return store
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn("redis not available, transcoding per request", zap.Error(err))
		return store
	}
	log.Info("redis connected", zap.String("addr", addr))
	store.client = client
	return store
}

func (s *MP3Store) Enabled() bool {
	return s.client != nil
}

func (s *MP3Store) Get(ctx context.Context, id string) ([]byte, bool) {
	if s.client == nil {
		return nil, false
	}
	data, err := s.client.Get(ctx, "mp3:"+id).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *MP3Store) Set(ctx context.Context, id string, data []byte) {
	if s.client == nil {
		return
	}
	if err := s.client.Set(ctx, "mp3:"+id, data, s.ttl).Err(); err != nil {
		s.log.Warn("redis set failed", zap.String("id", id), zap.Error(err))
	}
}
