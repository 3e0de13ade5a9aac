package media

import (
	"fmt"
	"image"
	"image/color"
)

// BytesPerPixel is the channel count of a converted frame (RGB24).
const BytesPerPixel = 3

// Frame is a converted video frame: packed RGB24, row major, top to bottom.
// Frames are immutable once built; Pix must not be modified by callers.
type Frame struct {
	width  int
	height int
	pix    []byte
}

// NewFrame builds a frame from packed RGB24 bytes. The buffer must hold
// exactly width*height*3 bytes.
func NewFrame(width, height int, pix []byte) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if want := width * height * BytesPerPixel; len(pix) != want {
		return nil, fmt.Errorf("pixel buffer is %d bytes, want %d for %dx%d rgb24", len(pix), want, width, height)
	}
	return &Frame{width: width, height: height, pix: pix}, nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int { return f.width * BytesPerPixel }

// Pix returns the packed pixel data.
func (f *Frame) Pix() []byte { return f.pix }

// RGB returns the channels of the pixel at (x, y).
func (f *Frame) RGB(x, y int) (r, g, b uint8) {
	i := y*f.Stride() + x*BytesPerPixel
	return f.pix[i], f.pix[i+1], f.pix[i+2]
}

// SameGeometry reports whether both frames share width and height.
func (f *Frame) SameGeometry(o *Frame) bool {
	return f.width == o.width && f.height == o.height
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.width, f.height) }

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(f.Bounds()) {
		return color.RGBA{}
	}
	r, g, b := f.RGB(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Sequence is the ordered, finite result of one extraction run.
type Sequence []*Frame

// Validate checks that every frame has the geometry of the first one.
func (s Sequence) Validate() error {
	for i, f := range s {
		if f == nil {
			return fmt.Errorf("frame %d is nil", i)
		}
		if !f.SameGeometry(s[0]) {
			return fmt.Errorf("frame %d is %dx%d, sequence is %dx%d", i, f.width, f.height, s[0].width, s[0].height)
		}
	}
	return nil
}
