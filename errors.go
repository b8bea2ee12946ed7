package main

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: empty search results or unknown playlist/video.
	ErrNotFound = errors.New("not found")

	// ErrNoAudioFound: the rendition list held no audio entry. A valid
	// negative result, not an upstream failure.
	ErrNoAudioFound = errors.New("no audio rendition available")

	// ErrUpstreamUnavailable: network failure, timeout or non-2xx from
	// the provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// TranscodeError reports a codec process failure.
type TranscodeError struct {
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode failed (exit=%d): %s", e.ExitCode, truncate(e.Stderr, 300))
}

func (e *TranscodeError) Unwrap() error {
	return e.Cause
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
