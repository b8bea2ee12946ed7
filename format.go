package main

import (
	"mime"
	"strings"
)

// audioFormats concatenates a video's rendition lists in upstream order,
// adaptive formats first. Ordering is authoritative; nothing here
// renegotiates by bitrate or codec quality.
func audioFormats(v UpstreamVideo) []AudioFormat {
	out := make([]AudioFormat, 0, len(v.AdaptiveFormats)+len(v.FormatStreams))
	out = append(out, v.AdaptiveFormats...)
	out = append(out, v.FormatStreams...)
	return out
}

// selectAudioFormat returns the first rendition whose declared type contains
// "audio". The second return is false when no rendition matches, which
// callers treat as "no playable audio", not an error.
func selectAudioFormat(formats []AudioFormat) (AudioFormat, bool) {
	for _, f := range formats {
		t := f.Type
		if t == "" {
			t = f.MimeType
		}
		if strings.Contains(strings.ToLower(t), "audio") {
			return f, true
		}
	}
	return AudioFormat{}, false
}

// formatExt guesses a filename extension for a rendition so the codec can
// sniff the container. Falls back to webm, the most common audio container
// upstream serves.
func formatExt(f AudioFormat) string {
	if f.Container != "" {
		return f.Container
	}
	t := f.Type
	if t == "" {
		t = f.MimeType
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		if i := strings.IndexByte(mt, '/'); i >= 0 && i+1 < len(mt) {
			return mt[i+1:]
		}
	}
	return "webm"
}
