package clips

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTimestamp is returned for anything that is not mm:ss or hh:mm:ss
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// maxSeconds is the longest timestamp a time.Duration can hold
const maxSeconds = math.MaxInt64 / int64(time.Second)

// ParseTimestamp parses a "[hh:]mm:ss" timestamp made of non-negative integer fields
func ParseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")

	var hours, minutes, seconds int
	var err error

	switch len(parts) {
	case 2:
		minutes, err = parseField(parts[0])
		if err == nil {
			seconds, err = parseField(parts[1])
		}
	case 3:
		hours, err = parseField(parts[0])
		if err == nil {
			minutes, err = parseField(parts[1])
		}
		if err == nil {
			seconds, err = parseField(parts[2])
		}
	default:
		return 0, fmt.Errorf("%w: %q: expected mm:ss or hh:mm:ss", ErrMalformedTimestamp, s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, s, err)
	}

	h, m, sec := int64(hours), int64(minutes), int64(seconds)
	if h > maxSeconds/3600 || m > maxSeconds/60 || sec > maxSeconds || h*3600+m*60+sec > maxSeconds {
		return 0, fmt.Errorf("%w: %q: out of range", ErrMalformedTimestamp, s)
	}
	return time.Duration(h*3600+m*60+sec) * time.Second, nil
}

func parseField(f string) (int, error) {
	v, err := strconv.Atoi(f)
	if err != nil {
		return 0, fmt.Errorf("field %q is not an integer", f)
	}
	if v < 0 {
		return 0, fmt.Errorf("field %q is negative", f)
	}
	return v, nil
}

// NormalizeTimestamp prefixes a mm:ss timestamp with a zero hour
func NormalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if strings.Count(s, ":") == 1 {
		return "00:" + s
	}
	return s
}

// FrameIndex converts a timestamp into the index of the frame shown at that
// time. The result is truncated, not rounded.
func FrameIndex(s string, fps float64) (int, error) {
	d, err := ParseTimestamp(s)
	if err != nil {
		return 0, err
	}
	return frameAt(d, fps), nil
}

func frameAt(d time.Duration, fps float64) int {
	secs := int64(d / time.Second)
	return int(float64(secs) * fps)
}
