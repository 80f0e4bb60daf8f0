package animation

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDirName is the directory, next to the input video, that receives output
const DefaultDirName = "gifmaker"

// ErrNoFrames is returned when there is nothing to encode
var ErrNoFrames = errors.New("no frames collected")

// Options configures GIF encoding
type Options struct {
	// Passed through to gif.GIF.LoopCount: 0 loops forever, -1 plays once
	LoopCount int
}

// Writer encodes one animation into a file
type Writer struct {
	path    string
	file    *os.File
	opts    Options
	written bool
	closed  bool
}

// Create opens path for writing, truncating any existing file
func Create(path string, opts Options) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &Writer{path: path, file: file, opts: opts}, nil
}

// Write encodes frames with a fixed delay between them. It can be called
// once per writer.
func (w *Writer) Write(frames []*image.Paletted, frameDuration time.Duration) error {
	if w.closed {
		return fmt.Errorf("writer for %s is closed", w.path)
	}
	if w.written {
		return fmt.Errorf("animation already written to %s", w.path)
	}
	if len(frames) == 0 {
		return ErrNoFrames
	}

	delay := Delay(frameDuration)
	delays := make([]int, len(frames))
	for i := range delays {
		delays[i] = delay
	}

	anim := &gif.GIF{
		Image:     frames,
		Delay:     delays,
		LoopCount: w.opts.LoopCount,
	}
	if err := gif.EncodeAll(w.file, anim); err != nil {
		return fmt.Errorf("failed to encode gif: %w", err)
	}
	w.written = true
	return nil
}

// Close releases the file. Calling it more than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// WriteFile encodes frames into path. No file is created when frames is empty.
func WriteFile(path string, frames []*image.Paletted, frameDuration time.Duration, opts Options) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	w, err := Create(path, opts)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Write(frames, frameDuration); err != nil {
		return err
	}
	return w.Close()
}

// Delay converts a frame duration into GIF centiseconds, at least 1
func Delay(d time.Duration) int {
	cs := int(math.Round(float64(d) / float64(10*time.Millisecond)))
	if cs < 1 {
		return 1
	}
	return cs
}

// FrameDuration is the display time of one frame at fps
func FrameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

// OutputPath places name.gif in dirName under the input's parent directory.
// Any extension on name is replaced.
func OutputPath(input, dirName, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("output name is required")
	}
	if dirName == "" {
		dirName = DefaultDirName
	}

	parent, err := filepath.Abs(filepath.Dir(input))
	if err != nil {
		return "", fmt.Errorf("failed to resolve input directory: %w", err)
	}

	base := strings.TrimSuffix(name, filepath.Ext(name)) + ".gif"
	return filepath.Join(parent, dirName, base), nil
}
