package animation

import (
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCollectorCopiesFrames(t *testing.T) {
	c := NewCollector(CollectorOptions{})

	buf := solid(8, 6, color.White)
	c.Add(buf)
	// reuse the buffer, as decoders do
	copy(buf.Pix, solid(8, 6, color.Black).Pix)
	c.Add(buf)

	require.Equal(t, 2, c.Len())
	frames := c.Frames()
	r0, g0, b0, _ := frames[0].At(0, 0).RGBA()
	r1, g1, b1, _ := frames[1].At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r0, g0, b0})
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r1, g1, b1})
}

func TestCollectorNormalizesBounds(t *testing.T) {
	c := NewCollector(CollectorOptions{})
	sub := solid(10, 10, color.White).SubImage(image.Rect(2, 2, 6, 5))
	c.Add(sub)

	assert.Equal(t, image.Rect(0, 0, 4, 3), c.Frames()[0].Bounds())
}

func TestCollectorDownscales(t *testing.T) {
	c := NewCollector(CollectorOptions{Width: 20})
	c.Add(solid(40, 30, color.White))
	c.Add(solid(10, 10, color.White))

	assert.Equal(t, 20, c.Frames()[0].Bounds().Dx())
	assert.Equal(t, 15, c.Frames()[0].Bounds().Dy())
	assert.Equal(t, 10, c.Frames()[1].Bounds().Dx(), "never upscales")
}

func TestDelay(t *testing.T) {
	assert.Equal(t, 4, Delay(FrameDuration(25)))
	assert.Equal(t, 3, Delay(FrameDuration(30)))
	assert.Equal(t, 10, Delay(100*time.Millisecond))
	assert.Equal(t, 1, Delay(FrameDuration(240)))
	assert.Equal(t, 1, Delay(0))
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, 40*time.Millisecond, FrameDuration(25))
	assert.Equal(t, time.Duration(0), FrameDuration(0))
}

func TestWriteFileRoundTrip(t *testing.T) {
	c := NewCollector(CollectorOptions{})
	for i := 0; i < 5; i++ {
		c.Add(solid(16, 12, color.RGBA{uint8(i * 50), 0, 0, 255}))
	}

	path := filepath.Join(t.TempDir(), "out.gif")
	require.NoError(t, WriteFile(path, c.Frames(), FrameDuration(25), Options{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 5)
	for _, d := range anim.Delay {
		assert.Equal(t, 4, d)
	}
	assert.Equal(t, 16, anim.Config.Width)
	assert.Equal(t, 12, anim.Config.Height)
	assert.Equal(t, 0, anim.LoopCount)
}

func TestWriteFileNoFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gif")
	err := WriteFile(path, nil, FrameDuration(25), Options{})
	assert.ErrorIs(t, err, ErrNoFrames)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file is written")
}

func TestWriterLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	w, err := Create(path, Options{LoopCount: -1})
	require.NoError(t, err)

	frames := []*image.Paletted{whiteFrame(t)}
	require.NoError(t, w.Write(frames, 40*time.Millisecond))
	assert.Error(t, w.Write(frames, 40*time.Millisecond), "second write is rejected")

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Error(t, w.Write(frames, 40*time.Millisecond))
}

func TestCreateFailsOnMissingDir(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.gif"), Options{})
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "videos", "holiday.mp4")

	got, err := OutputPath(input, "", "beach")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "videos", "gifmaker", "beach.gif"), got)

	got, err = OutputPath(input, "clips", "beach.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "videos", "clips", "beach.gif"), got)

	_, err = OutputPath(input, "", "")
	assert.Error(t, err)
}

func TestOutputPathRelativeInput(t *testing.T) {
	got, err := OutputPath("holiday.mp4", "", "beach")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "gifmaker", filepath.Base(filepath.Dir(got)))
}

func whiteFrame(t *testing.T) *image.Paletted {
	t.Helper()
	c := NewCollector(CollectorOptions{})
	c.Add(solid(4, 4, color.White))
	return c.Frames()[0]
}
