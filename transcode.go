package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transcoder converts compressed audio bytes to a fixed target encoding.
// Implementations are stateless between calls; caching is the caller's
// responsibility.
type Transcoder interface {
	// ToPCM produces raw signed 16-bit little-endian PCM, 44.1kHz stereo.
	ToPCM(ctx context.Context, data []byte, srcExt string) ([]byte, error)

	// ToMP3 produces MP3 at VBR quality 2 (~192kbps).
	ToMP3(ctx context.Context, data []byte) ([]byte, error)
}

// FFmpegTranscoder shells out to ffmpeg. Each call stages its input and
// output under uuid-derived names so overlapping conversions never share a
// scratch file, and removes both artifacts on every exit path.
type FFmpegTranscoder struct {
	ffmpegPath string
	tempDir    string
	log        *zap.Logger
}

func NewFFmpegTranscoder(ffmpegPath, tempDir string, log *zap.Logger) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FFmpegTranscoder{
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
		log:        log,
	}
}

func (t *FFmpegTranscoder) ToPCM(ctx context.Context, data []byte, srcExt string) ([]byte, error) {
	if srcExt == "" {
		srcExt = "webm"
	}
	return t.run(ctx, data, srcExt, "raw",
		[]string{"-f", "s16le", "-acodec", "pcm_s16le", "-ar", "44100", "-ac", "2"})
}

func (t *FFmpegTranscoder) ToMP3(ctx context.Context, data []byte) ([]byte, error) {
	return t.run(ctx, data, "webm", "mp3",
		[]string{"-vn", "-acodec", "libmp3lame", "-q:a", "2"})
}

func (t *FFmpegTranscoder) run(ctx context.Context, data []byte, srcExt, dstExt string, codecArgs []string) ([]byte, error) {
	token := uuid.New().String()
	inPath := filepath.Join(t.tempDir, "transcode-"+token+"-in."+srcExt)
	outPath := filepath.Join(t.tempDir, "transcode-"+token+"-out."+dstExt)

	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write input artifact: %w", err)
	}
	defer os.Remove(inPath)
	defer os.Remove(outPath)

	args := []string{"-y", "-loglevel", "error", "-nostdin", "-i", inPath}
	args = append(args, codecArgs...)
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		transcodeFailures.Inc()
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &TranscodeError{
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Cause:    err,
		}
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read output artifact: %w", err)
	}
	transcodesTotal.Inc()
	t.log.Debug("transcode finished",
		zap.String("target", dstExt),
		zap.Int("input_bytes", len(data)),
		zap.Int("output_bytes", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
