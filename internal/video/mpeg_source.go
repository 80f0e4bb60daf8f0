package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/gen2brain/mpeg"
	"github.com/keagan/gifmaker/internal/clips"
	"github.com/keagan/gifmaker/internal/config"
	"github.com/keagan/gifmaker/internal/ffmpeg"
	"github.com/keagan/gifmaker/internal/logging"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
)

// MPEGSource decodes MPEG-1 program streams in process, without ffmpeg
type MPEGSource struct {
	logger zerolog.Logger
	file   *os.File
	mpg    *mpeg.MPEG
	opts   Options
	used   bool
}

// OpenMPEG opens an MPEG-1 file for in-process decoding
func OpenMPEG(logger zerolog.Logger, path string, opts Options) (*MPEGSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}

	mpg, err := mpeg.New(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read mpeg stream: %w", err)
	}
	if mpg.Framerate() <= 0 {
		file.Close()
		return nil, ffmpeg.ErrNoFrameRate
	}

	s := &MPEGSource{
		logger: logging.WithComponent(logger, "mpeg-source"),
		file:   file,
		mpg:    mpg,
		opts:   opts,
	}

	s.logger.Debug().
		Str("path", path).
		Int("width", mpg.Width()).
		Int("height", mpg.Height()).
		Float64("fps", mpg.Framerate()).
		Msg("mpeg stream opened")

	return s, nil
}

func (s *MPEGSource) Metadata(ctx context.Context) (Metadata, error) {
	meta := Metadata{
		FPS:      s.mpg.Framerate(),
		Width:    s.mpg.Width(),
		Height:   s.mpg.Height(),
		Duration: s.mpg.Duration(),
		Backend:  config.DecoderMPEG,
	}
	return meta, nil
}

// Frames decodes from the beginning of the stream and drops everything
// before the window. A source can only be iterated once.
func (s *MPEGSource) Frames(ctx context.Context, window clips.Window) (FrameIterator, error) {
	if s.used {
		return nil, fmt.Errorf("mpeg source already consumed")
	}
	s.used = true
	s.mpg.SetAudioEnabled(false)

	return &mpegFrames{
		logger: s.logger,
		mpg:    s.mpg,
		window: window,
		width:  s.opts.Width,
	}, nil
}

func (s *MPEGSource) Close() error {
	return s.file.Close()
}

type mpegFrames struct {
	logger  zerolog.Logger
	mpg     *mpeg.MPEG
	window  clips.Window
	width   int
	decoded int
	done    bool
}

func (f *mpegFrames) Next(ctx context.Context) (Frame, error) {
	for !f.done {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		frame := f.mpg.DecodeVideo()
		if frame == nil {
			if f.mpg.HasEnded() {
				f.done = true
			}
			continue
		}

		index, inside, past := windowPosition(f.window, f.decoded)
		f.decoded++
		if past {
			f.done = true
			break
		}
		if !inside {
			continue
		}

		return Frame{
			Index: index,
			Image: f.scale(frame.YCbCr()),
		}, nil
	}

	f.logger.Debug().Int("decoded", f.decoded).Msg("mpeg decoding finished")
	return Frame{}, io.EOF
}

func (f *mpegFrames) scale(img *image.YCbCr) image.Image {
	b := img.Bounds()
	w, h := ffmpeg.ScaledSize(b.Dx(), b.Dy(), f.width)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear)
}

func (f *mpegFrames) Close() error {
	f.done = true
	return nil
}

var (
	_ Source = (*MPEGSource)(nil)
	_ Source = (*FFmpegSource)(nil)
)
