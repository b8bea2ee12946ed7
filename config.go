package main

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Centralized configuration values
const (
	// Rate Limiting
	RequestsPerSecond = 100
	BurstSize         = 200

	// Resolved rendition URLs stay valid far longer than this; the short
	// TTL only shortcuts repeated Range requests for the same track.
	ResolvedURLTTL = 5 * time.Minute

	// Redis MP3 payload expiration
	MP3ExpirationHours = 24

	// Graceful shutdown grace period
	ShutdownGrace = 10 * time.Second
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	UpstreamBase string `env:"UPSTREAM_BASE" envDefault:"https://invidious.snopyta.org"`

	MetadataCacheSize int           `env:"METADATA_CACHE_SIZE" envDefault:"100"`
	MetadataCacheTTL  time.Duration `env:"METADATA_CACHE_TTL" envDefault:"10m"`
	AudioCacheSize    int           `env:"AUDIO_CACHE_SIZE" envDefault:"10"`

	MetadataTimeout time.Duration `env:"METADATA_TIMEOUT" envDefault:"15s"`
	AudioTimeout    time.Duration `env:"AUDIO_TIMEOUT" envDefault:"120s"`

	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	TempDir    string `env:"TEMP_DIR"`

	// Redis is optional; empty addr disables the MP3 payload tier.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
