// Package video opens video files as lazy frame sources.
//
// A Source reports the video's metadata and produces frames restricted to a
// clips.Window. Frames are numbered from zero at the start of the window;
// callers add Window.SkippedFrames to recover the absolute frame index.
package video

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/keagan/gifmaker/internal/clips"
	"github.com/keagan/gifmaker/internal/config"
	"github.com/keagan/gifmaker/internal/ffmpeg"
	"github.com/keagan/gifmaker/pkg/util"
	"github.com/rs/zerolog"
)

// Metadata describes the decoded video stream
type Metadata struct {
	FPS      float64
	Width    int
	Height   int
	Duration time.Duration
	Backend  string
}

// Frame is one decoded image. Index counts from the start of the window.
type Frame struct {
	Index int
	Image image.Image
}

// FrameIterator is a finite, non-restartable sequence of frames. Next
// returns io.EOF once the window is exhausted. The image of a frame is only
// valid until the next call to Next.
type FrameIterator interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Source is an opened video
type Source interface {
	Metadata(ctx context.Context) (Metadata, error)
	Frames(ctx context.Context, window clips.Window) (FrameIterator, error)
	Close() error
}

// Options control how frames are produced
type Options struct {
	// Downscale frames to this width, 0 keeps the source size
	Width int
}

// Open opens path with the backend selected by cfg.Decoder
func Open(ctx context.Context, logger zerolog.Logger, cfg *config.Config, path string) (Source, error) {
	if !util.FileExists(path) {
		return nil, fmt.Errorf("input video %s does not exist or is not a file", path)
	}
	opts := Options{Width: cfg.Output.Width}

	switch backend := Backend(cfg.Decoder, path); backend {
	case config.DecoderMPEG:
		src, err := OpenMPEG(logger, path, opts)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.DecoderFFmpeg:
		exec, err := ffmpeg.New(logger, cfg.FFmpeg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
		}
		return NewFFmpegSource(logger, exec, path, opts), nil
	default:
		return nil, fmt.Errorf("unknown decoder %q", backend)
	}
}

// Backend resolves the "auto" decoder setting for path
func Backend(decoder, path string) string {
	if decoder != config.DecoderAuto && decoder != "" {
		return decoder
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mpg", ".mpeg":
		return config.DecoderMPEG
	default:
		return config.DecoderFFmpeg
	}
}

// windowPosition places the absolute frame n relative to w. index is the
// frame's position inside the window and is only meaningful when inside is
// true. past reports that n lies beyond the window's last frame.
func windowPosition(w clips.Window, n int) (index int, inside, past bool) {
	switch {
	case n > w.LastFrame:
		return 0, false, true
	case n < w.SkippedFrames:
		return 0, false, false
	default:
		return n - w.SkippedFrames, true, false
	}
}
