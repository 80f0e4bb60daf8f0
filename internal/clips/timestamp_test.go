package clips

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameIndex(t *testing.T) {
	cases := []struct {
		ts   string
		fps  float64
		want int
	}{
		{"00:00:10", 25, 250},
		{"1:00:00", 30, 108000},
		{"0:02", 1, 2},
		{"10:00", 24, 14400},
		{"00:00:01", 29.97, 29},
		{"0:00", 60, 0},
	}
	for _, tc := range cases {
		got, err := FrameIndex(tc.ts, tc.fps)
		require.NoError(t, err, tc.ts)
		assert.Equal(t, tc.want, got, "FrameIndex(%q, %v)", tc.ts, tc.fps)
	}
}

func TestFrameIndexHourPrefixEquivalence(t *testing.T) {
	for _, fps := range []float64{1, 23.976, 25, 29.97, 60} {
		for m := 0; m < 90; m += 7 {
			for s := 0; s < 60; s += 13 {
				short := fmt.Sprintf("%d:%02d", m, s)
				a, err := FrameIndex(short, fps)
				require.NoError(t, err)
				b, err := FrameIndex("00:"+short, fps)
				require.NoError(t, err)
				c, err := FrameIndex(NormalizeTimestamp(short), fps)
				require.NoError(t, err)
				assert.Equal(t, a, b, "%s @ %v", short, fps)
				assert.Equal(t, a, c, "%s @ %v", short, fps)
			}
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	d, err := ParseTimestamp("1:02:03")
	require.NoError(t, err)
	assert.Equal(t, time.Hour+2*time.Minute+3*time.Second, d)

	d, err = ParseTimestamp("90:30")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute+30*time.Second, d)
}

func TestParseTimestampMalformed(t *testing.T) {
	for _, ts := range []string{"", "10", "1:2:3:4", "a:10", "0:1.5", "-1:00", "0:-5", "::", "1::2"} {
		_, err := ParseTimestamp(ts)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, "timestamp %q", ts)

		_, err = FrameIndex(ts, 25)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, "timestamp %q", ts)
	}
}

func TestParseTimestampOutOfRange(t *testing.T) {
	for _, ts := range []string{"3000000:00:00", "0:10000000000", "0:9223372036854775807", "0:153722867281:00"} {
		d, err := ParseTimestamp(ts)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, "timestamp %q", ts)
		assert.Zero(t, d)

		_, err = FrameIndex(ts, 25)
		assert.ErrorIs(t, err, ErrMalformedTimestamp, "timestamp %q", ts)
	}

	// the largest whole hour a duration can hold still parses
	n, err := FrameIndex("2562047:00:00", 25)
	require.NoError(t, err)
	assert.Equal(t, 2562047*3600*25, n)
}

func TestNormalizeTimestamp(t *testing.T) {
	assert.Equal(t, "00:01:30", NormalizeTimestamp("01:30"))
	assert.Equal(t, "00:1:30", NormalizeTimestamp("1:30"))
	assert.Equal(t, "02:01:30", NormalizeTimestamp("02:01:30"))
}
