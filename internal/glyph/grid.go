package glyph

import (
	"fmt"

	"github.com/zsiec/termvid/internal/errors"
)

// Grid is a rectangular block of glyphs, one slice per row.
type Grid [][]rune

// Validate checks that every row is as long as the first.
func (g Grid) Validate() error {
	if len(g) == 0 {
		return nil
	}
	want := len(g[0])
	for i, row := range g {
		if len(row) != want {
			return errors.NewContractError(errors.CodeRaggedGrid,
				fmt.Sprintf("row %d has %d glyphs, row 0 has %d", i, len(row), want))
		}
	}
	return nil
}

// Rows returns each row as a string.
func (g Grid) Rows() []string {
	out := make([]string, len(g))
	for i, row := range g {
		out[i] = string(row)
	}
	return out
}

// Width returns the length of the first row.
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Height returns the number of rows.
func (g Grid) Height() int {
	return len(g)
}
