package ffmpeg

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/keagan/gifmaker/internal/config"
	"github.com/keagan/gifmaker/internal/logging"
	"github.com/rs/zerolog"
)

// Executor runs ffmpeg and ffprobe
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New creates a new ffmpeg executor, resolving both binaries up front
func New(logger zerolog.Logger, cfg config.FFmpegConfig) (*Executor, error) {
	ffmpegBin := cfg.BinaryPath
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	ffprobeBin := cfg.ProbePath
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(ffmpegBin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (%s): %w", ffmpegBin, err)
	}

	ffprobePath, err := exec.LookPath(ffprobeBin)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found (%s): %w", ffprobeBin, err)
	}

	return &Executor{
		logger:      logging.WithComponent(logger, "ffmpeg"),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     cfg.Threads,
	}, nil
}

// baseArgs are the global options placed before any input
func (e *Executor) baseArgs() []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error"}

	if e.threads > 0 {
		args = append(args, "-threads", fmt.Sprintf("%d", e.threads))
	}

	return append(args, "-progress", "pipe:2")
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler func(*Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		// Parse progress lines
		if strings.HasPrefix(line, "frame=") {
			fmt.Sscanf(line, "frame=%d", &progressData.Frame)
		} else if strings.HasPrefix(line, "fps=") {
			fmt.Sscanf(line, "fps=%f", &progressData.FPS)
		} else if strings.HasPrefix(line, "bitrate=") {
			progressData.Bitrate = value(line)
		} else if strings.HasPrefix(line, "out_time=") {
			progressData.Time = value(line)
		} else if strings.HasPrefix(line, "speed=") {
			progressData.Speed = value(line)
		} else if strings.HasPrefix(line, "progress=") {
			// End of progress block
			progressData.Done = value(line) == "end"
			if progressHandler != nil && progressData.Frame > 0 {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		} else if logHandler != nil && !isProgressKey(line) {
			logHandler(line)
		}
	}
}

func value(line string) string {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// isProgressKey matches the remaining key=value lines of a -progress block
func isProgressKey(line string) bool {
	key, _, ok := strings.Cut(line, "=")
	if !ok || strings.ContainsAny(key, " \t") {
		return false
	}
	switch key {
	case "stream_0_0_q", "total_size", "out_time_us", "out_time_ms", "dup_frames", "drop_frames":
		return true
	}
	return false
}
