package clips

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrMalformedInterval is returned when an interval is not "start-end"
	ErrMalformedInterval = errors.New("malformed interval")

	// ErrNoIntervals is returned when no interval was supplied
	ErrNoIntervals = errors.New("at least one interval is required")
)

// Interval is a caller-supplied time range, kept as the raw timestamps
type Interval struct {
	Start string
	End   string
}

// FrameRange holds the absolute frame bounds of an interval. First is
// inclusive; the interval is over once a frame index exceeds Last.
type FrameRange struct {
	First int
	Last  int
}

// String returns the interval in its command-line form
func (i Interval) String() string {
	return i.Start + "-" + i.End
}

// ParseInterval parses "mm:ss-mm:ss" or "hh:mm:ss-hh:mm:ss" (forms may be mixed)
func ParseInterval(s string) (Interval, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("%w: %q: expected start-end", ErrMalformedInterval, s)
	}

	iv := Interval{Start: strings.TrimSpace(parts[0]), End: strings.TrimSpace(parts[1])}
	if _, err := ParseTimestamp(iv.Start); err != nil {
		return Interval{}, fmt.Errorf("interval %q start: %w", s, err)
	}
	if _, err := ParseTimestamp(iv.End); err != nil {
		return Interval{}, fmt.Errorf("interval %q end: %w", s, err)
	}
	return iv, nil
}

// ParseIntervals parses every interval, keeping the caller's order
func ParseIntervals(specs []string) ([]Interval, error) {
	if len(specs) == 0 {
		return nil, ErrNoIntervals
	}

	intervals := make([]Interval, 0, len(specs))
	for _, s := range specs {
		iv, err := ParseInterval(s)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

// Frames converts the interval to frame bounds at the given frame rate
func (i Interval) Frames(fps float64) (FrameRange, error) {
	first, err := FrameIndex(i.Start, fps)
	if err != nil {
		return FrameRange{}, err
	}
	last, err := FrameIndex(i.End, fps)
	if err != nil {
		return FrameRange{}, err
	}
	return FrameRange{First: first, Last: last}, nil
}

// FrameRanges converts all intervals, keeping their order
func FrameRanges(intervals []Interval, fps float64) ([]FrameRange, error) {
	ranges := make([]FrameRange, 0, len(intervals))
	for _, iv := range intervals {
		r, err := iv.Frames(fps)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Ordered reports whether the scheduler will visit every range: ranges must
// be increasing with at least one frame between them, since the next range
// is activated on the frame after the previous one ends.
func Ordered(ranges []FrameRange) bool {
	for i, r := range ranges {
		if r.Last < r.First {
			return false
		}
		if i > 0 && r.First <= ranges[i-1].Last+1 {
			return false
		}
	}
	return true
}

// Window is the part of the video the decoder needs to produce: from the
// first interval's start to the last interval's end.
type Window struct {
	Start         time.Duration
	End           time.Duration
	SkippedFrames int
	LastFrame     int
}

// CaptureWindow computes the decoder window for the intervals
func CaptureWindow(intervals []Interval, fps float64) (Window, error) {
	if len(intervals) == 0 {
		return Window{}, ErrNoIntervals
	}

	start := NormalizeTimestamp(intervals[0].Start)
	end := NormalizeTimestamp(intervals[len(intervals)-1].End)

	startAt, err := ParseTimestamp(start)
	if err != nil {
		return Window{}, err
	}
	endAt, err := ParseTimestamp(end)
	if err != nil {
		return Window{}, err
	}

	return Window{
		Start:         startAt,
		End:           endAt,
		SkippedFrames: frameAt(startAt, fps),
		LastFrame:     frameAt(endAt, fps),
	}, nil
}

// DecodeEnd is the end time to hand to a decoder so that LastFrame itself
// is still produced.
func (w Window) DecodeEnd(fps float64) time.Duration {
	if fps <= 0 {
		return w.End
	}
	return w.End + time.Duration(float64(time.Second)/fps)
}
