package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder helps construct ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Scale adds a scale filter
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		// Return self without adding filter - allows chaining to continue
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// ScaledSize returns the size of a width x height frame scaled down to
// targetWidth, keeping the aspect ratio. Sizes are left alone when
// targetWidth is zero or not smaller than width.
func ScaledSize(width, height, targetWidth int) (int, int) {
	if targetWidth <= 0 || targetWidth >= width || width <= 0 {
		return width, height
	}
	h := (height*targetWidth + width/2) / width
	if h < 1 {
		h = 1
	}
	return targetWidth, h
}
