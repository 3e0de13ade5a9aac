// Package terminal wraps the bits of terminal handling the player needs.
package terminal

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ClearHome clears the screen and moves the cursor to the top-left corner.
const ClearHome = "\x1b[2J\x1b[H"

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of the terminal behind f.
func Width(f *os.File) (int, error) {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, fmt.Errorf("terminal size: %w", err)
	}
	if w <= 0 {
		return 0, fmt.Errorf("terminal reports %d columns", w)
	}
	return w, nil
}

// Columns resolves the render width: configured if positive, else the
// terminal width of f, else DefaultWidth.
func Columns(configured int, f *os.File) int {
	if configured > 0 {
		return configured
	}
	if f != nil && IsTerminal(f) {
		if w, err := Width(f); err == nil {
			return w
		}
	}
	return DefaultWidth
}
