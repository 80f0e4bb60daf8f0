package video

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/keagan/gifmaker/internal/clips"
	"github.com/keagan/gifmaker/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// generateVideo renders a 64x48 testsrc clip into name using the given codec args
func generateVideo(t *testing.T, name string, rate string, codec ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	args := []string{"-y", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=3:size=64x48:rate=" + rate}
	args = append(args, codec...)
	args = append(args, path)
	if out, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Skipf("could not generate test video: %v: %s", err, out)
	}
	return path
}

func collect(t *testing.T, it FrameIterator) []Frame {
	t.Helper()
	defer it.Close()

	var frames []Frame
	for {
		f, err := it.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return frames
		}
		require.NoError(t, err)
		frames = append(frames, Frame{Index: f.Index})
	}
}

func window(t *testing.T, fps float64, specs ...string) clips.Window {
	t.Helper()
	intervals, err := clips.ParseIntervals(specs)
	require.NoError(t, err)
	w, err := clips.CaptureWindow(intervals, fps)
	require.NoError(t, err)
	return w
}

func TestBackend(t *testing.T) {
	tests := []struct {
		decoder string
		path    string
		want    string
	}{
		{config.DecoderAuto, "clip.mp4", config.DecoderFFmpeg},
		{config.DecoderAuto, "clip.MPG", config.DecoderMPEG},
		{config.DecoderAuto, "/a/b/clip.mpeg", config.DecoderMPEG},
		{"", "clip.mkv", config.DecoderFFmpeg},
		{config.DecoderFFmpeg, "clip.mpg", config.DecoderFFmpeg},
		{config.DecoderMPEG, "clip.mp4", config.DecoderMPEG},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backend(tt.decoder, tt.path), "%s %s", tt.decoder, tt.path)
	}
}

func TestWindowPosition(t *testing.T) {
	w := window(t, 25, "00:01-00:02")
	require.Equal(t, 25, w.SkippedFrames)
	require.Equal(t, 50, w.LastFrame)

	var kept []int
	for n := 0; n < 100; n++ {
		index, inside, past := windowPosition(w, n)
		if past {
			assert.Equal(t, 51, n, "window ends right after its last frame")
			break
		}
		if inside {
			assert.Equal(t, len(kept), index)
			kept = append(kept, n)
		}
	}
	require.Len(t, kept, 26)
	assert.Equal(t, 25, kept[0])
	assert.Equal(t, 50, kept[len(kept)-1])
}

func TestWindowPositionFromStart(t *testing.T) {
	w := window(t, 10, "00:00-00:00")

	index, inside, past := windowPosition(w, 0)
	assert.True(t, inside)
	assert.False(t, past)
	assert.Equal(t, 0, index)

	_, inside, past = windowPosition(w, 1)
	assert.False(t, inside)
	assert.True(t, past)
}

func TestOpenMissingMPEG(t *testing.T) {
	_, err := OpenMPEG(zerolog.Nop(), filepath.Join(t.TempDir(), "missing.mpg"), Options{})
	assert.Error(t, err)
}

func TestOpenUnknownDecoder(t *testing.T) {
	cfg := config.Default()
	cfg.Decoder = "vlc"
	_, err := Open(context.Background(), zerolog.Nop(), cfg, "clip.mp4")
	assert.Error(t, err)
}

func TestFFmpegSourceWindow(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := generateVideo(t, "test.mp4", "10", "-pix_fmt", "yuv420p")

	cfg := config.Default()
	cfg.Decoder = config.DecoderFFmpeg
	cfg.Output.Width = 32

	src, err := Open(context.Background(), zerolog.Nop(), cfg, path)
	require.NoError(t, err)
	defer src.Close()

	meta, err := src.Metadata(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, meta.FPS, 0.001)
	assert.Equal(t, 64, meta.Width)
	assert.Equal(t, config.DecoderFFmpeg, meta.Backend)

	it, err := src.Frames(context.Background(), window(t, meta.FPS, "00:01-00:02"))
	require.NoError(t, err)

	first, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 32, first.Image.Bounds().Dx())
	assert.Equal(t, 24, first.Image.Bounds().Dy())

	rest := collect(t, it)
	// frames 10..20 inclusive, give or take the boundary frame
	assert.InDelta(t, 11, len(rest)+1, 1)
	for i, f := range rest {
		assert.Equal(t, i+1, f.Index)
	}
}

func TestMPEGSourceWindow(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := generateVideo(t, "test.mpg", "25", "-c:v", "mpeg1video", "-f", "mpeg")

	src, err := Open(context.Background(), zerolog.Nop(), config.Default(), path)
	require.NoError(t, err)
	defer src.Close()

	meta, err := src.Metadata(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 25.0, meta.FPS, 0.001)
	assert.Equal(t, config.DecoderMPEG, meta.Backend)

	it, err := src.Frames(context.Background(), window(t, meta.FPS, "00:01-00:02"))
	require.NoError(t, err)
	frames := collect(t, it)

	// frames 25..50 inclusive
	assert.InDelta(t, 26, len(frames), 1)
	for i, f := range frames {
		assert.Equal(t, i, f.Index)
	}

	_, err = src.Frames(context.Background(), window(t, meta.FPS, "00:01-00:02"))
	assert.Error(t, err, "mpeg sources are single use")
}

func TestMPEGSourceScales(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := generateVideo(t, "test.mpg", "25", "-c:v", "mpeg1video", "-f", "mpeg")

	src, err := OpenMPEG(zerolog.Nop(), path, Options{Width: 32})
	require.NoError(t, err)
	defer src.Close()

	it, err := src.Frames(context.Background(), window(t, 25, "00:00-00:01"))
	require.NoError(t, err)
	defer it.Close()

	f, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 32, f.Image.Bounds().Dx())
	assert.Equal(t, 24, f.Image.Bounds().Dy())
}

func TestIteratorHonoursContext(t *testing.T) {
	skipIfNoFFmpeg(t)
	path := generateVideo(t, "test.mpg", "25", "-c:v", "mpeg1video", "-f", "mpeg")

	src, err := OpenMPEG(zerolog.Nop(), path, Options{})
	require.NoError(t, err)
	defer src.Close()

	it, err := src.Frames(context.Background(), window(t, 25, "00:00-00:02"))
	require.NoError(t, err)
	defer it.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = it.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
