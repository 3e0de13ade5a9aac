package media

import (
	"fmt"
	"time"
)

// FrameRate is the playback rate. Only the two modeled rates exist: sources
// are assumed to decode at 60 frames per second, so FPS30 keeps every second
// decoded frame.
type FrameRate int

const (
	FPS30 FrameRate = 30
	FPS60 FrameRate = 60
)

// ParseFrameRate converts a configured frames-per-second value.
func ParseFrameRate(fps int) (FrameRate, error) {
	r := FrameRate(fps)
	if !r.Valid() {
		return 0, fmt.Errorf("unsupported frame rate %d (want 30 or 60)", fps)
	}
	return r, nil
}

// Valid reports whether r is one of the supported rates.
func (r FrameRate) Valid() bool {
	return r == FPS30 || r == FPS60
}

// Period returns the time one frame stays on screen.
func (r FrameRate) Period() time.Duration {
	if !r.Valid() {
		return 0
	}
	return time.Second / time.Duration(r)
}

// Keep reports whether the decoded frame at the 1-based counter position is
// part of the output. FPS30 drops odd positions.
func (r FrameRate) Keep(counter int) bool {
	if r == FPS30 {
		return counter%2 == 0
	}
	return true
}

// String implements fmt.Stringer.
func (r FrameRate) String() string {
	return fmt.Sprintf("%d fps", int(r))
}
