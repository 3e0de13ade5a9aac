package glyph

import (
	"fmt"
	"math"
)

// Algorithm selects how a cell is matched to a glyph.
type Algorithm int

const (
	// AlgorithmIntensity picks the glyph with the nearest intensity.
	AlgorithmIntensity Algorithm = iota
	// AlgorithmEdgeAugmented also matches the gradient orientation.
	AlgorithmEdgeAugmented
)

// ParseAlgorithm maps a configuration name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "intensity":
		return AlgorithmIntensity, nil
	case "edge_augmented", "":
		return AlgorithmEdgeAugmented, nil
	default:
		return 0, fmt.Errorf("unknown conversion algorithm %q", name)
	}
}

func (a Algorithm) String() string {
	if a == AlgorithmIntensity {
		return "intensity"
	}
	return "edge_augmented"
}

// Options control conversion.
type Options struct {
	// Width is the number of columns.
	Width int
	// BrightnessOffset is added to each cell's mean gray value (0..255).
	BrightnessOffset float64
	// BrightnessScale weighs the intensity error for AlgorithmEdgeAugmented.
	BrightnessScale float64
	// EdgeBrightnessScale weighs the orientation error for AlgorithmEdgeAugmented.
	EdgeBrightnessScale float64
	Algorithm           Algorithm
}

// Convert maps the image onto a grid of glyphs. Cells are Width/opts.Width
// pixels wide and keep the font's cell aspect ratio, so the row count
// follows from the image height.
func Convert(font *Font, img *Luma, opts Options) (Grid, error) {
	if font == nil || len(font.Glyphs) == 0 {
		return nil, fmt.Errorf("font has no glyphs")
	}
	if opts.Width <= 0 {
		return nil, fmt.Errorf("invalid width %d", opts.Width)
	}
	if img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("empty image")
	}

	l := newLayout(font, img.Width, img.Height, opts.Width)
	grid := make(Grid, l.rows)
	for r := 0; r < l.rows; r++ {
		row := make([]rune, l.cols)
		for c := 0; c < l.cols; c++ {
			x0, y0, x1, y1 := l.cell(c, r)
			row[c] = match(font, img, x0, y0, x1, y1, opts)
		}
		grid[r] = row
	}
	return grid, nil
}

// layout divides a w x h image into glyph cells.
type layout struct {
	cols, rows   int
	cellW, cellH float64
}

// newLayout fits cols cells across the image, at most one per pixel,
// each with the font's aspect ratio. Rows that would overrun the image
// bottom are dropped, but there is always at least one.
func newLayout(font *Font, w, h, cols int) layout {
	cols = min(cols, w)
	l := layout{
		cols:  cols,
		cellW: float64(w) / float64(cols),
		cellH: float64(w*font.Height) / float64(cols*font.Width),
	}
	l.rows = int(float64(h) / l.cellH)
	if l.rows < 1 {
		l.rows, l.cellH = 1, float64(h)
	}
	return l
}

// cell returns the pixel bounds of column c, row r. Every cell covers at
// least one pixel.
func (l layout) cell(c, r int) (x0, y0, x1, y1 int) {
	x0 = int(float64(c) * l.cellW)
	x1 = max(int(float64(c+1)*l.cellW), x0+1)
	y0 = int(float64(r) * l.cellH)
	y1 = max(int(float64(r+1)*l.cellH), y0+1)
	return x0, y0, x1, y1
}

func match(font *Font, img *Luma, x0, y0, x1, y1 int, opts Options) rune {
	target := (img.mean(x0, y0, x1, y1) + opts.BrightnessOffset) / 255
	target = math.Max(0, math.Min(1, target))

	best, bestCost := font.Glyphs[0].Rune, math.Inf(1)

	if opts.Algorithm == AlgorithmIntensity {
		for _, g := range font.Glyphs {
			if cost := math.Abs(target - g.Intensity); cost < bestCost {
				best, bestCost = g.Rune, cost
			}
		}
		return best
	}

	orient := regionOrientation(img, x0, y0, x1, y1)
	for _, g := range font.Glyphs {
		cost := opts.BrightnessScale*math.Abs(target-g.Intensity) +
			opts.EdgeBrightnessScale*orient.Dist(g.Orientation)
		if cost < bestCost {
			best, bestCost = g.Rune, cost
		}
	}
	return best
}
