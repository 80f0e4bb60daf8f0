package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/keagan/gifmaker/pkg/util"
	"github.com/rs/zerolog"
)

const stderrTailLines = 20

// FrameReader streams decoded RGBA frames out of a running ffmpeg process.
// It is not safe for concurrent use.
type FrameReader struct {
	logger zerolog.Logger
	ctx    context.Context
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.Reader

	frame *image.RGBA
	count int

	stderrDone chan struct{}
	tailMu     sync.Mutex
	tail       []string

	waited  bool
	waitErr error
}

// Frames starts ffmpeg on input and returns a reader over its frames.
// The seek window is applied as an output option, so ffmpeg decodes from
// the start of the input and drops frames before opts.Start.
func (e *Executor) Frames(ctx context.Context, input string, opts FrameOptions) (*FrameReader, error) {
	if input == "" {
		return nil, fmt.Errorf("input path is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("frame size is required, got %dx%d", opts.Width, opts.Height)
	}
	if opts.End > 0 && opts.End < opts.Start {
		return nil, fmt.Errorf("window end %v is before start %v", opts.End, opts.Start)
	}

	args := append(e.baseArgs(), "-i", input)
	if opts.Start > 0 {
		args = append(args, "-ss", util.FormatDuration(opts.Start))
	}
	if opts.End > 0 {
		args = append(args, "-to", util.FormatDuration(opts.End))
	}
	if opts.Filter != "" {
		args = append(args, "-vf", opts.Filter)
	}
	args = append(args,
		"-an", "-sn",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)

	e.logger.Info().
		Str("input", input).
		Strs("args", args).
		Msg("starting frame decoder")

	cctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cctx, e.ffmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	r := &FrameReader{
		logger:     e.logger,
		ctx:        ctx,
		cmd:        cmd,
		cancel:     cancel,
		stdout:     stdout,
		frame:      image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
		stderrDone: make(chan struct{}),
	}

	progress := opts.ProgressFunc
	if progress == nil {
		progress = func(p *Progress) {
			e.logger.Debug().
				Int("frame", p.Frame).
				Float64("fps", p.FPS).
				Str("time", p.Time).
				Str("speed", p.Speed).
				Msg("decoding")
		}
	}

	go func() {
		defer close(r.stderrDone)
		e.streamOutput(stderr, progress, r.addStderr)
	}()

	return r, nil
}

// Next returns the next frame. The returned image is reused by the following
// call, so callers that keep a frame must copy it. At the end of the stream
// Next returns io.EOF.
func (r *FrameReader) Next() (*image.RGBA, error) {
	if r.waited {
		if r.waitErr != nil {
			return nil, r.waitErr
		}
		return nil, io.EOF
	}

	_, err := io.ReadFull(r.stdout, r.frame.Pix)
	switch {
	case err == nil:
		r.count++
		return r.frame, nil
	case errors.Is(err, io.EOF):
		if werr := r.wait(); werr != nil {
			return nil, werr
		}
		r.logger.Debug().Int("frames", r.count).Msg("frame decoder finished")
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if werr := r.wait(); werr != nil {
			return nil, werr
		}
		return nil, fmt.Errorf("truncated frame after %d frames: %w", r.count, err)
	default:
		r.cancel()
		r.wait()
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
}

// Count returns the number of frames read so far
func (r *FrameReader) Count() int {
	return r.count
}

// Close stops ffmpeg if it is still running and releases the process
func (r *FrameReader) Close() error {
	if r.waited {
		return nil
	}
	r.cancel()
	r.wait()
	return nil
}

func (r *FrameReader) wait() error {
	if r.waited {
		return r.waitErr
	}
	r.waited = true

	<-r.stderrDone
	err := r.cmd.Wait()
	r.cancel()

	if err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			r.waitErr = ctxErr
		} else {
			r.waitErr = fmt.Errorf("ffmpeg execution failed: %w%s", err, r.stderrSummary())
		}
	}
	return r.waitErr
}

func (r *FrameReader) addStderr(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	r.logger.Debug().Str("ffmpeg", line).Msg("decoder output")

	r.tailMu.Lock()
	defer r.tailMu.Unlock()
	r.tail = append(r.tail, line)
	if len(r.tail) > stderrTailLines {
		r.tail = r.tail[len(r.tail)-stderrTailLines:]
	}
}

func (r *FrameReader) stderrSummary() string {
	r.tailMu.Lock()
	defer r.tailMu.Unlock()
	if len(r.tail) == 0 {
		return ""
	}
	return ": " + strings.Join(r.tail, "; ")
}
