package ffmpeg

import (
	"errors"
	"time"
)

// ErrNoFrameRate is returned when the probed video has no usable frame rate
var ErrNoFrameRate = errors.New("video has no frame rate metadata")

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int // size of decoded frames, rotation already applied
	Height     int
	Rotation   int // display rotation in degrees: 0, 90, 180 or 270
	FPS        float64
	Bitrate    int64
	VideoCodec string
	HasAudio   bool
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame   int
	FPS     float64
	Bitrate string
	Time    string
	Speed   string
	Done    bool
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
// Called once per -progress block while the process runs.
type ProgressFunc func(*Progress)

// FrameOptions configures raw frame streaming
type FrameOptions struct {
	// Output seek window; End of zero means until the end of the input
	Start time.Duration
	End   time.Duration

	// Size of the frames ffmpeg will emit. Must match the filter chain.
	Width  int
	Height int

	// Extra video filters, usually from a FilterBuilder
	Filter string

	ProgressFunc ProgressFunc
}
