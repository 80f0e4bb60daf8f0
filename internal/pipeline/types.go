package pipeline

import (
	"context"
	"time"

	"github.com/keagan/gifmaker/internal/clips"
	"github.com/keagan/gifmaker/internal/config"
	"github.com/keagan/gifmaker/internal/video"
	"github.com/rs/zerolog"
)

// RunOptions describes one gif to cut out of a video
type RunOptions struct {
	// Path to the input video
	Input string
	// Output file name, the .gif extension is added
	OutputName string
	// Intervals in "start-end" form, consumed in the given order
	Intervals []string
}

// Result reports what a run produced
type Result struct {
	RunID      string
	OutputPath string
	Backend    string
	FPS        float64
	Window     clips.Window
	// Frames handed over by the decoder
	Decoded int
	// Frames written to the gif
	Frames        int
	FrameDuration time.Duration
	Elapsed       time.Duration
}

// SourceOpener opens a video for decoding
type SourceOpener func(ctx context.Context, logger zerolog.Logger, cfg *config.Config, path string) (video.Source, error)

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithSourceOpener replaces the default video.Open
func WithSourceOpener(open SourceOpener) Option {
	return func(p *Pipeline) {
		p.open = open
	}
}
