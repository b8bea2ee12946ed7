package main

// --- Upstream JSON model ---

// Thumbnail is one entry of a video's videoThumbnails list.
type Thumbnail struct {
	Quality string `json:"quality"`
	URL     string `json:"url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// AudioFormat is one rendition from adaptiveFormats or formatStreams.
// Adaptive formats carry "type", legacy streams carry "mimeType"; either
// may describe the rendition.
type AudioFormat struct {
	Type      string `json:"type"`
	MimeType  string `json:"mimeType"`
	URL       string `json:"url"`
	Container string `json:"container"`
}

// UpstreamVideo covers the fields we read from /api/v1/videos/:id and
// from search/playlist listings.
type UpstreamVideo struct {
	Title           string        `json:"title"`
	Author          string        `json:"author"`
	VideoID         string        `json:"videoId"`
	LengthSeconds   int           `json:"lengthSeconds"`
	VideoThumbnails []Thumbnail   `json:"videoThumbnails"`
	AdaptiveFormats []AudioFormat `json:"adaptiveFormats"`
	FormatStreams   []AudioFormat `json:"formatStreams"`
}

// UpstreamPlaylist is the shape of /api/v1/playlists/:id.
type UpstreamPlaylist struct {
	Title      string          `json:"title"`
	VideoCount int             `json:"videoCount"`
	Videos     []UpstreamVideo `json:"videos"`
}

// --- API response shapes ---

// SearchItem is one /search (or playlist) result with relative links into
// this service.
type SearchItem struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	VideoID       string `json:"videoId"`
	VideoInfo     string `json:"video_info"`
	Thumbnail     string `json:"thumbnail"`
	LengthSeconds int    `json:"lengthSeconds"`
}

// VideoInfoResponse is the /video_info payload.
type VideoInfoResponse struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	VideoID       string `json:"videoId"`
	LengthSeconds int    `json:"lengthSeconds"`
	Thumbnail     string `json:"thumbnail"`
	AudioURL      string `json:"audio_url"`
	MP3URL        string `json:"mp3_url"`
}

// PlaylistResponse is the /playlist payload.
type PlaylistResponse struct {
	Title      string       `json:"title"`
	VideoCount int          `json:"videoCount"`
	Videos     []SearchItem `json:"videos"`
}

// TrackMetadata is returned by /stream_pcm once a track is prepared.
type TrackMetadata struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	VideoID       string `json:"videoId"`
	LengthSeconds int    `json:"lengthSeconds"`
	Thumbnail     string `json:"thumbnail"`
}

type HealthStatus struct {
	Status            string `json:"status"`
	Upstream          string `json:"upstream"`
	MetadataCacheSize int    `json:"metadata_cache_size"`
	AudioCacheSize    int    `json:"audio_cache_size"`
	Uptime            string `json:"uptime"`
}

// bestThumbnail returns the first thumbnail URL; upstream lists them
// best-first.
func bestThumbnail(v UpstreamVideo) string {
	if len(v.VideoThumbnails) == 0 {
		return ""
	}
	return v.VideoThumbnails[0].URL
}

func toSearchItem(v UpstreamVideo) SearchItem {
	return SearchItem{
		Title:         v.Title,
		Author:        v.Author,
		VideoID:       v.VideoID,
		VideoInfo:     "/video_info?id=" + v.VideoID,
		Thumbnail:     bestThumbnail(v),
		LengthSeconds: v.LengthSeconds,
	}
}
