package glyph

import "image"

// Luma is an 8-bit grayscale image.
type Luma struct {
	Width  int
	Height int
	Pix    []uint8
}

type rgbImage interface {
	RGB(x, y int) (r, g, b uint8)
}

// NewLuma converts img to grayscale as the plain mean of the red, green
// and blue channels.
func NewLuma(img image.Image) *Luma {
	b := img.Bounds()
	l := &Luma{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([]uint8, b.Dx()*b.Dy()),
	}

	if src, ok := img.(rgbImage); ok && b.Min == (image.Point{}) {
		for y := 0; y < l.Height; y++ {
			for x := 0; x < l.Width; x++ {
				r, g, bl := src.RGB(x, y)
				l.Pix[y*l.Width+x] = uint8((uint16(r) + uint16(g) + uint16(bl)) / 3)
			}
		}
		return l
	}

	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			l.Pix[y*l.Width+x] = uint8((r>>8 + g>>8 + bl>>8) / 3)
		}
	}
	return l
}

// At returns the gray value at (x, y).
func (l *Luma) At(x, y int) uint8 {
	return l.Pix[y*l.Width+x]
}

// mean returns the average gray value of the region [x0,x1) x [y0,y1).
func (l *Luma) mean(x0, y0, x1, y1 int) float64 {
	var sum, n int
	for y := y0; y < y1; y++ {
		row := l.Pix[y*l.Width:]
		for x := x0; x < x1; x++ {
			sum += int(row[x])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
