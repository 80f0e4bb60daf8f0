// Package animation collects decoded frames and encodes them as animated GIFs.
package animation

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"

	"github.com/nfnt/resize"
)

// CollectorOptions configures frame quantization
type CollectorOptions struct {
	// Downscale frames wider than this, 0 keeps the original size
	Width int
	// Palette used for every frame, palette.Plan9 when nil
	Palette color.Palette
}

// Collector accumulates frames in arrival order as paletted images
type Collector struct {
	opts   CollectorOptions
	frames []*image.Paletted
}

// NewCollector creates an empty collector
func NewCollector(opts CollectorOptions) *Collector {
	if opts.Palette == nil {
		opts.Palette = palette.Plan9
	}
	return &Collector{opts: opts}
}

// Add quantizes img and appends it. The source image is not retained, so
// callers may reuse its buffer afterwards.
func (c *Collector) Add(img image.Image) {
	if c.opts.Width > 0 && img.Bounds().Dx() > c.opts.Width {
		img = resize.Resize(uint(c.opts.Width), 0, img, resize.Bilinear)
	}

	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), c.opts.Palette)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
	c.frames = append(c.frames, dst)
}

// Len returns the number of collected frames
func (c *Collector) Len() int {
	return len(c.frames)
}

// Frames returns the collected frames in the order they were added
func (c *Collector) Frames() []*image.Paletted {
	return c.frames
}
