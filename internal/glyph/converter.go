package glyph

import (
	"image"

	"github.com/zsiec/termvid/internal/media"
)

// Converter renders frames with a fixed font and options.
type Converter struct {
	font   *Font
	opts   Options
	invert bool
}

// NewConverter creates a converter. invert must match the value the font
// was loaded with.
func NewConverter(font *Font, opts Options, invert bool) *Converter {
	return &Converter{font: font, opts: opts, invert: invert}
}

// Render converts one frame to a glyph grid.
func (c *Converter) Render(f *media.Frame) (Grid, error) {
	return Convert(c.font, NewLuma(f), c.opts)
}

// Bitmap draws a rendered grid in the colours of the frame it came from.
func (c *Converter) Bitmap(grid Grid, f *media.Frame) *image.RGBA {
	return ColorBitmap(grid, c.font, f, c.invert)
}
