package glyph

import "math"

// Vector is a 2D feature vector.
type Vector struct {
	X, Y float64
}

// Dist returns the euclidean distance between v and o.
func (v Vector) Dist(o Vector) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// orientation returns the mean doubled-angle Sobel gradient over the
// w x h window. Doubling the angle makes opposite gradients (dark to light
// and light to dark across the same edge) add up instead of cancelling.
// at must accept coordinates one pixel outside the window.
func orientation(w, h int, at func(x, y int) float64) Vector {
	if w <= 0 || h <= 0 {
		return Vector{}
	}
	var sum Vector
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			sum.X += gx*gx - gy*gy
			sum.Y += 2 * gx * gy
		}
	}
	// Sobel responses on [0,1] input stay within ±4 per axis.
	n := float64(w*h) * 16
	return Vector{X: sum.X / n, Y: sum.Y / n}
}

func bitmapOrientation(bitmap []bool, w, h int) Vector {
	return orientation(w, h, func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		if bitmap[y*w+x] {
			return 1
		}
		return 0
	})
}

// regionOrientation samples the image around the region, clamping at the
// image border.
func regionOrientation(l *Luma, x0, y0, x1, y1 int) Vector {
	return orientation(x1-x0, y1-y0, func(x, y int) float64 {
		return float64(l.At(clamp(x0+x, 0, l.Width-1), clamp(y0+y, 0, l.Height-1))) / 255
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
