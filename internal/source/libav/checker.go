package libav

import (
	"context"
	"fmt"
	"strings"

	"github.com/asticode/go-astiav"
)

// DecoderChecker verifies that the linked FFmpeg build provides the
// required decoders. It implements health.Checker.
type DecoderChecker struct {
	codecs []string
}

// NewDecoderChecker creates a checker for the given decoder names.
func NewDecoderChecker(codecs []string) *DecoderChecker {
	return &DecoderChecker{codecs: codecs}
}

// Name returns the name of the checker.
func (c *DecoderChecker) Name() string {
	return "decoders"
}

// Check reports every missing decoder at once.
func (c *DecoderChecker) Check(ctx context.Context) error {
	var missing []string
	for _, name := range c.codecs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if astiav.FindDecoderByName(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("decoders not available in this ffmpeg build: %s", strings.Join(missing, ", "))
	}
	return nil
}
