package config

import (
	"fmt"
	"os"

	"github.com/zsiec/termvid/internal/media"
)

func (c *Config) Validate() error {
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder config: %w", err)
	}

	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}

	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render config: %w", err)
	}

	if err := c.Artifact.Validate(); err != nil {
		return fmt.Errorf("artifact config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	return nil
}

// DecoderLogLevels lists the accepted FFmpeg verbosity names.
var DecoderLogLevels = []string{"quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug"}

func (d *DecoderConfig) Validate() error {
	for _, lvl := range DecoderLogLevels {
		if d.LogLevel == lvl {
			return nil
		}
	}
	return fmt.Errorf("invalid decoder log level: %s", d.LogLevel)
}

func (p *PlaybackConfig) Validate() error {
	if _, err := media.ParseFrameRate(p.FrameRate); err != nil {
		return err
	}

	switch p.Mode {
	case "buffered":
	case "streaming":
		if p.BufferSize <= 0 {
			return fmt.Errorf("buffer_size must be positive in streaming mode")
		}
	default:
		return fmt.Errorf("playback mode must be 'buffered' or 'streaming'")
	}

	return nil
}

// Rate returns the validated frame rate.
func (p *PlaybackConfig) Rate() media.FrameRate {
	return media.FrameRate(p.FrameRate)
}

func (r *RenderConfig) Validate() error {
	if r.Width < 0 {
		return fmt.Errorf("width cannot be negative")
	}

	if r.BrightnessOffset < -255 || r.BrightnessOffset > 255 {
		return fmt.Errorf("brightness_offset must be within [-255, 255]")
	}

	if r.BrightnessScale < 0 || r.EdgeBrightnessScale < 0 {
		return fmt.Errorf("brightness scales cannot be negative")
	}

	if r.Algorithm != "intensity" && r.Algorithm != "edge_augmented" {
		return fmt.Errorf("algorithm must be 'intensity' or 'edge_augmented'")
	}

	if (r.FontPath == "") != (r.AlphabetPath == "") {
		return fmt.Errorf("font_path and alphabet_path must be set together")
	}

	for _, p := range []string{r.FontPath, r.AlphabetPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("render resource not found: %s", p)
		}
	}

	return nil
}

func (a *ArtifactConfig) Validate() error {
	if a.Enabled && a.Path == "" {
		return fmt.Errorf("artifact path cannot be empty when enabled")
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", m.Port)
		}

		if m.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}
