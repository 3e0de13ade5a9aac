package glyph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyBDF = `STARTFONT 2.1
FONT -test-tiny
FONTBOUNDINGBOX 4 4 0 -1
STARTPROPERTIES 2
FONT_ASCENT 3
FONT_DESCENT 1
ENDPROPERTIES
CHARS 2
STARTCHAR A
ENCODING 65
DWIDTH 4 0
BBX 2 2 1 0
BITMAP
C0
80
ENDCHAR
STARTCHAR space
ENCODING 32
DWIDTH 4 0
BBX 4 4 0 -1
BITMAP
00
00
00
00
ENDCHAR
ENDFONT
`

func loadTiny(t *testing.T, invert bool) *Font {
	t.Helper()
	f, err := LoadBDF(strings.NewReader(tinyBDF), []rune("A "), invert)
	require.NoError(t, err)
	return f
}

func TestLoadBDF_Rasterise(t *testing.T) {
	f := loadTiny(t, false)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 4, f.Height)
	require.Len(t, f.Glyphs, 2)

	var ink []string
	for y := 0; y < f.Height; y++ {
		var row strings.Builder
		for x := 0; x < f.Width; x++ {
			if f.Ink('A', x, y) {
				row.WriteByte('#')
			} else {
				row.WriteByte('.')
			}
		}
		ink = append(ink, row.String())
	}
	assert.Equal(t, []string{"....", ".##.", ".#..", "...."}, ink)

	a, ok := f.Glyph('A')
	require.True(t, ok)
	sp, ok := f.Glyph(' ')
	require.True(t, ok)
	assert.Equal(t, 1.0, a.Intensity)
	assert.Equal(t, 0.0, sp.Intensity)
}

func TestLoadBDF_Invert(t *testing.T) {
	f := loadTiny(t, true)

	a, _ := f.Glyph('A')
	sp, _ := f.Glyph(' ')
	assert.Equal(t, 0.0, a.Intensity)
	assert.Equal(t, 1.0, sp.Intensity)
	assert.True(t, f.Ink('A', 1, 1), "bitmap itself is not inverted")
}

func TestLoadBDF_Errors(t *testing.T) {
	tests := []struct {
		name     string
		font     string
		alphabet string
		want     string
	}{
		{"missing glyph", tinyBDF, "AB", "'B'"},
		{"empty alphabet", tinyBDF, "", "empty alphabet"},
		{"no metrics", "STARTFONT 2.1\nCHARS 0\nENDFONT\n", "A", "FONT_ASCENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBDF(strings.NewReader(tt.font), []rune(tt.alphabet), false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseAlphabet(t *testing.T) {
	assert.Equal(t, []rune(" .:#"), ParseAlphabet(" .:#.:\n"))
	assert.Equal(t, []rune("ab"), ParseAlphabet("ab\r\n"))
	assert.Empty(t, ParseAlphabet("\n"))
}

func TestDefaultFont(t *testing.T) {
	f, err := DefaultFont(false)
	require.NoError(t, err)

	assert.Equal(t, 6, f.Width)
	assert.Equal(t, 8, f.Height)
	assert.Len(t, f.Glyphs, len(ParseAlphabet(defaultAlphabet)))

	sp, ok := f.Glyph(' ')
	require.True(t, ok)
	assert.Equal(t, 0.0, sp.Intensity, "blank glyph is the darkest")

	var brightest float64
	for _, g := range f.Glyphs {
		assert.GreaterOrEqual(t, g.Intensity, 0.0)
		assert.LessOrEqual(t, g.Intensity, 1.0)
		brightest = max(brightest, g.Intensity)
	}
	assert.Equal(t, 1.0, brightest)
}

func TestGlyphOrientation(t *testing.T) {
	f, err := DefaultFont(false)
	require.NoError(t, err)

	bar, _ := f.Glyph('|')
	dash, _ := f.Glyph('-')
	sp, _ := f.Glyph(' ')

	assert.Greater(t, bar.Orientation.X, 0.0, "vertical stroke has horizontal gradient")
	assert.Less(t, dash.Orientation.X, 0.0, "horizontal stroke has vertical gradient")
	assert.InDelta(t, 0, sp.Orientation.X, 1e-9)
	assert.InDelta(t, 0, sp.Orientation.Y, 1e-9)
}
