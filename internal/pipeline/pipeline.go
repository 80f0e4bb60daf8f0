package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/keagan/gifmaker/internal/animation"
	"github.com/keagan/gifmaker/internal/clips"
	"github.com/keagan/gifmaker/internal/config"
	"github.com/keagan/gifmaker/internal/ffmpeg"
	"github.com/keagan/gifmaker/internal/logging"
	"github.com/keagan/gifmaker/internal/video"
	"github.com/keagan/gifmaker/pkg/util"
	"github.com/rs/zerolog"
)

// Pipeline cuts intervals out of a video and writes them as a single gif
type Pipeline struct {
	logger zerolog.Logger
	config *config.Config
	open   SourceOpener
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}

	p := &Pipeline{
		logger: logger,
		config: cfg,
		open:   video.Open,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run decodes the window spanned by the intervals once, keeps the frames
// inside each interval and writes them to <input dir>/<output dir>/<name>.gif
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	started := time.Now()
	res := &Result{RunID: uuid.NewString()}
	runLogger := p.logger.With().Str("run", res.RunID).Logger()
	logger := logging.WithComponent(runLogger, "pipeline")

	if opts.Input == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}

	// Everything the caller typed is validated before the video is touched
	intervals, err := clips.ParseIntervals(opts.Intervals)
	if err != nil {
		return nil, err
	}
	outPath, err := animation.OutputPath(opts.Input, p.config.Output.DirName, opts.OutputName)
	if err != nil {
		return nil, err
	}
	res.OutputPath = outPath

	logger.Info().
		Str("input", opts.Input).
		Int("intervals", len(intervals)).
		Msg("gathering frames")

	src, err := p.open(ctx, runLogger, p.config, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open video: %w", err)
	}
	defer src.Close()

	meta, err := src.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read video metadata: %w", err)
	}
	if meta.FPS <= 0 {
		return nil, ffmpeg.ErrNoFrameRate
	}
	res.FPS = meta.FPS
	res.Backend = meta.Backend

	logger.Info().
		Str("input", opts.Input).
		Float64("fps", meta.FPS).
		Str("backend", meta.Backend).
		Msg("video opened")

	ranges, err := clips.FrameRanges(intervals, meta.FPS)
	if err != nil {
		return nil, err
	}
	if !clips.Ordered(ranges) {
		logger.Warn().
			Strs("intervals", opts.Intervals).
			Msg("intervals overlap, touch or are out of order, some may be skipped")
	}

	window, err := clips.CaptureWindow(intervals, meta.FPS)
	if err != nil {
		return nil, err
	}
	res.Window = window

	if err := util.EnsureDir(filepath.Dir(outPath)); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Info().
		Dur("start", window.Start).
		Dur("end", window.End).
		Int("skipped_frames", window.SkippedFrames).
		Msg("decoding window")

	collector := animation.NewCollector(animation.CollectorOptions{Width: p.config.Output.Width})
	decoded, err := p.collect(ctx, logger, src, window, ranges, collector)
	res.Decoded = decoded
	if err != nil {
		return nil, err
	}

	res.Frames = collector.Len()
	logger.Info().Int("frames", res.Frames).Msg("collected frames")
	if res.Frames == 0 {
		return nil, fmt.Errorf("%w: no frame of %v was decoded", animation.ErrNoFrames, opts.Intervals)
	}

	res.FrameDuration = animation.FrameDuration(meta.FPS)
	err = animation.WriteFile(outPath, collector.Frames(), res.FrameDuration, animation.Options{
		LoopCount: p.config.Output.LoopCount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	res.Elapsed = time.Since(started)
	logger.Info().
		Str("output", outPath).
		Int("frames", res.Frames).
		Dur("elapsed", res.Elapsed).
		Msg("wrote gif")

	return res, nil
}

// collect runs a single pass over the window, feeding every frame through
// the scheduler. It returns the number of frames pulled from the decoder.
func (p *Pipeline) collect(ctx context.Context, logger zerolog.Logger, src video.Source, window clips.Window, ranges []clips.FrameRange, collector *animation.Collector) (int, error) {
	frames, err := src.Frames(ctx, window)
	if err != nil {
		return 0, fmt.Errorf("failed to start decoding: %w", err)
	}
	defer frames.Close()

	sched := clips.NewScheduler(ranges)
	every := p.config.Output.ProgressEvery
	decoded := 0

	for {
		frame, err := frames.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return decoded, fmt.Errorf("failed to decode frame: %w", err)
		}
		decoded++

		n := frame.Index + window.SkippedFrames
		if every > 0 && n > 0 && n%every == 0 {
			logger.Debug().Int("frame", n).Msg("checking frame")
		}

		before := sched.State()
		decision := sched.Decide(n)
		after := sched.State()
		logTransition(logger, before, after, n)

		if decision == clips.Stop {
			logger.Debug().Int("frame", n).Msg("all intervals consumed")
			break
		}
		if decision == clips.Keep {
			collector.Add(frame.Image)
		}
	}

	return decoded, nil
}

func logTransition(logger zerolog.Logger, before, after clips.State, n int) {
	if before.Phase == clips.Idle && after.Phase != clips.Idle {
		logger.Info().
			Int("first", after.Active.First).
			Int("last", after.Active.Last).
			Msg("looking for frames")
	}
	switch {
	case before.Phase != clips.Writing && after.Phase == clips.Writing:
		logger.Info().Int("frame", n).Msg("writing begins")
	case before.Phase == clips.Writing && after.Phase != clips.Writing:
		logger.Info().Int("frame", n).Msg("writing ends")
	}
}
