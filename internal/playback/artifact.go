package playback

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/zsiec/termvid/internal/glyph"
	"github.com/zsiec/termvid/internal/media"
)

// Artifact receives every rendered frame for diagnostics.
type Artifact interface {
	Write(grid glyph.Grid, frame *media.Frame) error
}

// Bitmapper draws a grid in the colours of its source frame.
type Bitmapper interface {
	Bitmap(grid glyph.Grid, frame *media.Frame) *image.RGBA
}

// PNGArtifact overwrites a PNG file with the latest rendered frame.
type PNGArtifact struct {
	path      string
	bitmapper Bitmapper
}

// NewPNGArtifact creates an artifact writer for path.
func NewPNGArtifact(path string, b Bitmapper) *PNGArtifact {
	return &PNGArtifact{path: path, bitmapper: b}
}

// Path returns the output file.
func (a *PNGArtifact) Path() string {
	return a.path
}

// Write encodes to a temporary file next to the target and renames it, so
// readers never see a partial image.
func (a *PNGArtifact) Write(grid glyph.Grid, frame *media.Frame) error {
	img := a.bitmapper.Bitmap(grid, frame)

	tmp, err := os.CreateTemp(filepath.Dir(a.path), ".termvid-frame-*.png")
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}
