package video

import (
	"context"
	"fmt"

	"github.com/keagan/gifmaker/internal/clips"
	"github.com/keagan/gifmaker/internal/config"
	"github.com/keagan/gifmaker/internal/ffmpeg"
	"github.com/keagan/gifmaker/internal/logging"
	"github.com/rs/zerolog"
)

// FFmpegSource decodes any format ffmpeg understands
type FFmpegSource struct {
	logger zerolog.Logger
	exec   *ffmpeg.Executor
	path   string
	opts   Options
	info   *ffmpeg.VideoInfo
}

// NewFFmpegSource creates a source backed by ffprobe and ffmpeg
func NewFFmpegSource(logger zerolog.Logger, exec *ffmpeg.Executor, path string, opts Options) *FFmpegSource {
	return &FFmpegSource{
		logger: logging.WithComponent(logger, "ffmpeg-source"),
		exec:   exec,
		path:   path,
		opts:   opts,
	}
}

// Metadata probes the file once and caches the result
func (s *FFmpegSource) Metadata(ctx context.Context) (Metadata, error) {
	if s.info == nil {
		info, err := s.exec.ProbeVideo(ctx, s.path)
		if err != nil {
			return Metadata{}, fmt.Errorf("failed to probe video: %w", err)
		}
		s.info = info

		s.logger.Debug().
			Dur("duration", info.Duration).
			Int("width", info.Width).
			Int("height", info.Height).
			Float64("fps", info.FPS).
			Str("codec", info.VideoCodec).
			Msg("video metadata extracted")
	}

	return Metadata{
		FPS:      s.info.FPS,
		Width:    s.info.Width,
		Height:   s.info.Height,
		Duration: s.info.Duration,
		Backend:  config.DecoderFFmpeg,
	}, nil
}

// Frames starts ffmpeg restricted to the window
func (s *FFmpegSource) Frames(ctx context.Context, window clips.Window) (FrameIterator, error) {
	meta, err := s.Metadata(ctx)
	if err != nil {
		return nil, err
	}

	width, height := ffmpeg.ScaledSize(meta.Width, meta.Height, s.opts.Width)
	filters := ffmpeg.NewFilterBuilder()
	if width != meta.Width {
		filters.Scale(width, height)
	}

	reader, err := s.exec.Frames(ctx, s.path, ffmpeg.FrameOptions{
		Start:  window.Start,
		End:    window.DecodeEnd(meta.FPS),
		Width:  width,
		Height: height,
		Filter: filters.Build(),
	})
	if err != nil {
		return nil, err
	}
	return &ffmpegFrames{reader: reader}, nil
}

// Close is a no-op; each frame iterator owns its own process
func (s *FFmpegSource) Close() error {
	return nil
}

type ffmpegFrames struct {
	reader *ffmpeg.FrameReader
	index  int
}

func (f *ffmpegFrames) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	img, err := f.reader.Next()
	if err != nil {
		return Frame{}, err
	}
	frame := Frame{Index: f.index, Image: img}
	f.index++
	return frame, nil
}

func (f *ffmpegFrames) Close() error {
	return f.reader.Close()
}
