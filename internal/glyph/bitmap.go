package glyph

import (
	"image"
	"image/color"
)

// ColorBitmap draws the grid with font, colouring each cell with the mean
// colour of the matching region of src. Regions follow the same layout
// Convert uses, so a grid converted from src is coloured from the pixels
// it was matched against. Ink is drawn in that colour on black, or black
// on that colour when invert is set.
func ColorBitmap(grid Grid, font *Font, src image.Image, invert bool) *image.RGBA {
	cols, rows := grid.Width(), grid.Height()
	dst := image.NewRGBA(image.Rect(0, 0, cols*font.Width, rows*font.Height))
	if cols == 0 || rows == 0 {
		return dst
	}

	b := src.Bounds()
	l := newLayout(font, b.Dx(), b.Dy(), cols)
	if l.cols != cols || l.rows != rows {
		// Not converted from src: stretch the grid over the whole image.
		l = layout{
			cols:  cols,
			rows:  rows,
			cellW: float64(b.Dx()) / float64(cols),
			cellH: float64(b.Dy()) / float64(rows),
		}
	}
	black := color.RGBA{A: 0xff}

	for r, row := range grid {
		for c, ch := range row {
			x0, y0, x1, y1 := l.cell(c, r)
			fill := meanColor(src, b.Min.X+x0, b.Min.Y+y0, b.Min.X+x1, b.Min.Y+y1)

			for gy := 0; gy < font.Height; gy++ {
				for gx := 0; gx < font.Width; gx++ {
					ink := font.Ink(ch, gx, gy)
					px := black
					if ink != invert {
						px = fill
					}
					dst.SetRGBA(c*font.Width+gx, r*font.Height+gy, px)
				}
			}
		}
	}
	return dst
}

func meanColor(src image.Image, x0, y0, x1, y1 int) color.RGBA {
	var r, g, b, n uint64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			cr, cg, cb, _ := src.At(x, y).RGBA()
			r += uint64(cr >> 8)
			g += uint64(cg >> 8)
			b += uint64(cb >> 8)
			n++
		}
	}
	if n == 0 {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 0xff}
}
