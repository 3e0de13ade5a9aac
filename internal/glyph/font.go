package glyph

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/zachomedia/go-bdf"
)

//go:embed assets/termvid-6x8.bdf
var defaultBDF []byte

//go:embed assets/alphabet.txt
var defaultAlphabet string

// Glyph is one alphabet character rasterised into the font cell.
type Glyph struct {
	Rune rune
	// Bitmap holds Width*Height cells of the font, row major, true = ink.
	Bitmap []bool
	// Intensity is the normalised brightness of the glyph in [0, 1].
	Intensity float64
	// Orientation is the doubled-angle gradient sum of the bitmap.
	Orientation Vector
}

// Font is a fixed-cell bitmap font restricted to an alphabet.
type Font struct {
	Width  int
	Height int
	Glyphs []Glyph
	index  map[rune]int
}

// Glyph returns the glyph for r.
func (f *Font) Glyph(r rune) (*Glyph, bool) {
	i, ok := f.index[r]
	if !ok {
		return nil, false
	}
	return &f.Glyphs[i], true
}

// Ink reports whether the glyph for r has ink at (x, y) of the cell.
func (f *Font) Ink(r rune, x, y int) bool {
	g, ok := f.Glyph(r)
	if !ok || x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return false
	}
	return g.Bitmap[y*f.Width+x]
}

// ParseAlphabet returns the distinct runes of s in order. A trailing line
// break is ignored; spaces are kept.
func ParseAlphabet(s string) []rune {
	s = strings.TrimRight(s, "\r\n")
	seen := make(map[rune]bool, len(s))
	var out []rune
	for _, r := range s {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// DefaultFont returns the bundled 6x8 font restricted to the bundled alphabet.
func DefaultFont(invert bool) (*Font, error) {
	return LoadBDF(bytes.NewReader(defaultBDF), ParseAlphabet(defaultAlphabet), invert)
}

// LoadFontFiles reads a BDF font and an alphabet file from disk.
func LoadFontFiles(fontPath, alphabetPath string, invert bool) (*Font, error) {
	alphabet, err := os.ReadFile(alphabetPath)
	if err != nil {
		return nil, fmt.Errorf("read alphabet: %w", err)
	}
	f, err := os.Open(fontPath)
	if err != nil {
		return nil, fmt.Errorf("open font: %w", err)
	}
	defer f.Close()
	return LoadBDF(f, ParseAlphabet(string(alphabet)), invert)
}

// LoadBDF parses a BDF font and rasterises every alphabet rune into the
// font cell. The cell is the widest advance by FONT_ASCENT+FONT_DESCENT,
// with the baseline FONT_ASCENT rows from the top. Intensity is ink
// coverage, inverted when invert is set, normalised over the alphabet.
func LoadBDF(r io.Reader, alphabet []rune, invert bool) (*Font, error) {
	if len(alphabet) == 0 {
		return nil, fmt.Errorf("empty alphabet")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	src, err := parseBDF(data)
	if err != nil {
		return nil, err
	}

	cellH := src.Ascent + src.Descent
	if cellH <= 0 {
		return nil, fmt.Errorf("font has no FONT_ASCENT/FONT_DESCENT")
	}

	var missing []string
	chars := make([]*bdf.Character, 0, len(alphabet))
	for _, a := range alphabet {
		c, ok := src.CharMap[a]
		if !ok {
			missing = append(missing, strconv.QuoteRune(a))
			continue
		}
		chars = append(chars, c)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("font lacks alphabet glyphs: %s", strings.Join(missing, " "))
	}

	cellW := 0
	for _, c := range chars {
		cellW = max(cellW, c.Advance[0])
		if c.Alpha != nil {
			cellW = max(cellW, c.LowerPoint[0]+c.Alpha.Rect.Dx())
		}
	}
	if cellW <= 0 {
		return nil, fmt.Errorf("font glyphs have no width")
	}

	font := &Font{
		Width:  cellW,
		Height: cellH,
		Glyphs: make([]Glyph, 0, len(alphabet)),
		index:  make(map[rune]int, len(alphabet)),
	}
	coverage := make([]float64, 0, len(alphabet))
	for i, c := range chars {
		bitmap := rasterise(c, cellW, cellH, src.Ascent)

		ink := 0
		for _, on := range bitmap {
			if on {
				ink++
			}
		}
		cov := float64(ink) / float64(len(bitmap))
		if invert {
			cov = 1 - cov
		}

		font.index[alphabet[i]] = len(font.Glyphs)
		font.Glyphs = append(font.Glyphs, Glyph{
			Rune:        alphabet[i],
			Bitmap:      bitmap,
			Orientation: bitmapOrientation(bitmap, cellW, cellH),
		})
		coverage = append(coverage, cov)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range coverage {
		lo = math.Min(lo, c)
		hi = math.Max(hi, c)
	}
	for i, c := range coverage {
		if hi > lo {
			font.Glyphs[i].Intensity = (c - lo) / (hi - lo)
		}
	}

	return font, nil
}

// parseBDF converts parser panics on malformed fonts into errors.
func parseBDF(data []byte) (f *bdf.Font, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("malformed font: %v", r)
		}
	}()
	f, err = bdf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// rasterise places the glyph box inside the font cell. Pixels outside the
// cell are clipped.
func rasterise(c *bdf.Character, cellW, cellH, ascent int) []bool {
	bitmap := make([]bool, cellW*cellH)
	if c.Alpha == nil {
		return bitmap
	}
	b := c.Alpha.Bounds()
	top := ascent - (c.LowerPoint[1] + b.Dy())
	left := c.LowerPoint[0]
	for row := 0; row < b.Dy(); row++ {
		y := top + row
		if y < 0 || y >= cellH {
			continue
		}
		for col := 0; col < b.Dx(); col++ {
			x := left + col
			if x < 0 || x >= cellW {
				continue
			}
			if c.Alpha.AlphaAt(b.Min.X+col, b.Min.Y+row).A >= 0x80 {
				bitmap[y*cellW+x] = true
			}
		}
	}
	return bitmap
}
