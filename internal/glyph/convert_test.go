package glyph

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/termvid/internal/errors"
	"github.com/zsiec/termvid/internal/media"
)

func uniformLuma(w, h int, v uint8) *Luma {
	l := &Luma{Width: w, Height: h, Pix: make([]uint8, w*h)}
	for i := range l.Pix {
		l.Pix[i] = v
	}
	return l
}

func brightestGlyph(f *Font) rune {
	best := f.Glyphs[0]
	for _, g := range f.Glyphs {
		if g.Intensity > best.Intensity {
			best = g
		}
	}
	return best.Rune
}

func TestConvert_Dimensions(t *testing.T) {
	f, err := DefaultFont(false)
	require.NoError(t, err)

	tests := []struct {
		name        string
		w, h, width int
		cols, rows  int
	}{
		{"exact cells", 60, 40, 10, 10, 5},
		{"partial last row dropped", 60, 45, 10, 10, 5},
		{"width clamped to image", 4, 21, 10, 4, 15},
		{"short image keeps one row", 120, 4, 10, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := Convert(f, uniformLuma(tt.w, tt.h, 128), Options{Width: tt.width})
			require.NoError(t, err)
			assert.Equal(t, tt.cols, grid.Width())
			assert.Equal(t, tt.rows, grid.Height())
			assert.NoError(t, grid.Validate())
		})
	}
}

func TestConvert_Intensity(t *testing.T) {
	f, err := DefaultFont(false)
	require.NoError(t, err)
	opts := Options{Width: 4, Algorithm: AlgorithmIntensity}

	grid, err := Convert(f, uniformLuma(24, 16, 0), opts)
	require.NoError(t, err)
	for _, row := range grid.Rows() {
		assert.Equal(t, "    ", row)
	}

	grid, err = Convert(f, uniformLuma(24, 16, 255), opts)
	require.NoError(t, err)
	want := string([]rune{brightestGlyph(f), brightestGlyph(f), brightestGlyph(f), brightestGlyph(f)})
	for _, row := range grid.Rows() {
		assert.Equal(t, want, row)
	}
}

func TestConvert_BrightnessOffset(t *testing.T) {
	f, err := DefaultFont(false)
	require.NoError(t, err)

	grid, err := Convert(f, uniformLuma(24, 16, 0), Options{
		Width:            4,
		BrightnessOffset: 255,
		Algorithm:        AlgorithmIntensity,
	})
	require.NoError(t, err)
	assert.Equal(t, brightestGlyph(f), grid[0][0])
}

func TestConvert_EdgeAugmented(t *testing.T) {
	f, err := DefaultFont(false)
	require.NoError(t, err)

	// Without the edge term the result equals the intensity match.
	l := uniformLuma(48, 32, 200)
	edge, err := Convert(f, l, Options{Width: 8, BrightnessScale: 1, Algorithm: AlgorithmEdgeAugmented})
	require.NoError(t, err)
	plain, err := Convert(f, l, Options{Width: 8, Algorithm: AlgorithmIntensity})
	require.NoError(t, err)
	assert.Equal(t, plain, edge)

	// A flat dark image has no edges and no brightness: blank glyphs.
	grid, err := Convert(f, uniformLuma(48, 32, 0), Options{
		Width:               8,
		BrightnessScale:     0.25,
		EdgeBrightnessScale: 1,
		Algorithm:           AlgorithmEdgeAugmented,
	})
	require.NoError(t, err)
	assert.Equal(t, ' ', grid[0][0])
}

func TestConvert_Errors(t *testing.T) {
	f, err := DefaultFont(false)
	require.NoError(t, err)

	_, err = Convert(f, uniformLuma(10, 10, 0), Options{Width: 0})
	assert.Error(t, err)

	_, err = Convert(f, &Luma{}, Options{Width: 10})
	assert.Error(t, err)

	_, err = Convert(&Font{}, uniformLuma(10, 10, 0), Options{Width: 10})
	assert.Error(t, err)
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("intensity")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmIntensity, a)

	a, err = ParseAlgorithm("edge_augmented")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmEdgeAugmented, a)
	assert.Equal(t, "edge_augmented", a.String())

	_, err = ParseAlgorithm("sobel")
	assert.Error(t, err)
}

func TestRegionOrientation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 4; x < 8; x++ {
			img.Set(x, y, color.White)
		}
	}
	l := NewLuma(img)

	v := regionOrientation(l, 0, 0, 8, 8)
	assert.Greater(t, v.X, 0.0)
	assert.InDelta(t, 0.0, v.Y, 1e-9)

	flat := regionOrientation(uniformLuma(8, 8, 90), 0, 0, 8, 8)
	assert.InDelta(t, 0, flat.X, 1e-9)
	assert.InDelta(t, 0, flat.Y, 1e-9)
}

func TestNewLuma(t *testing.T) {
	pix := []byte{
		30, 60, 90, 255, 255, 255,
		0, 0, 0, 3, 0, 0,
	}
	frame, err := media.NewFrame(2, 2, pix)
	require.NoError(t, err)

	l := NewLuma(frame)
	assert.Equal(t, []uint8{60, 255, 0, 1}, l.Pix)

	// Generic image path gives the same result.
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			rgba.Set(x, y, frame.At(x, y))
		}
	}
	assert.Equal(t, l.Pix, NewLuma(rgba).Pix)
}

func TestGrid(t *testing.T) {
	g := Grid{[]rune("ab"), []rune("cd")}
	assert.NoError(t, g.Validate())
	assert.Equal(t, []string{"ab", "cd"}, g.Rows())
	assert.Equal(t, 2, g.Width())
	assert.Equal(t, 2, g.Height())

	ragged := Grid{[]rune("ab"), []rune("c")}
	err := ragged.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeContract))

	var empty Grid
	assert.NoError(t, empty.Validate())
	assert.Equal(t, 0, empty.Width())
}
