package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Decoder  DecoderConfig  `mapstructure:"decoder"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Render   RenderConfig   `mapstructure:"render"`
	Artifact ArtifactConfig `mapstructure:"artifact"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type InputConfig struct {
	Path string `mapstructure:"path"`
}

type DecoderConfig struct {
	LogLevel          string   `mapstructure:"log_level"`           // FFmpeg verbosity while a container is open
	KeepFlushedFrames bool     `mapstructure:"keep_flushed_frames"` // append frames released by the end-of-stream flush
	RequiredCodecs    []string `mapstructure:"required_codecs"`     // decoders checked during preflight
}

type PlaybackConfig struct {
	FrameRate       int    `mapstructure:"frame_rate"`  // 30 or 60
	Mode            string `mapstructure:"mode"`        // buffered or streaming
	BufferSize      int    `mapstructure:"buffer_size"` // streaming channel capacity
	DriftCorrection bool   `mapstructure:"drift_correction"`
	StatusLine      bool   `mapstructure:"status_line"`
}

type RenderConfig struct {
	Width               int     `mapstructure:"width"` // columns, 0 = terminal width
	BrightnessOffset    float64 `mapstructure:"brightness_offset"`
	BrightnessScale     float64 `mapstructure:"brightness_scale"`
	EdgeBrightnessScale float64 `mapstructure:"edge_brightness_scale"`
	Invert              bool    `mapstructure:"invert"`
	Algorithm           string  `mapstructure:"algorithm"` // intensity or edge_augmented
	FontPath            string  `mapstructure:"font_path"`
	AlphabetPath        string  `mapstructure:"alphabet_path"`
}

type ArtifactConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`   // json or text
	Output     string `mapstructure:"output"`   // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
	Port       int    `mapstructure:"port"`
	Path       string `mapstructure:"path"`
}

// Load reads configuration from configPath (optional) and TERMVID_*
// environment variables on top of the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment variable override
	v.SetEnvPrefix("TERMVID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.path", "")

	// Decoder defaults
	v.SetDefault("decoder.log_level", "error")
	v.SetDefault("decoder.keep_flushed_frames", true)
	v.SetDefault("decoder.required_codecs", []string{})

	// Playback defaults
	v.SetDefault("playback.frame_rate", 30)
	v.SetDefault("playback.mode", "buffered")
	v.SetDefault("playback.buffer_size", 64)
	v.SetDefault("playback.drift_correction", false)
	v.SetDefault("playback.status_line", false)

	// Render defaults
	v.SetDefault("render.width", 0)
	v.SetDefault("render.brightness_offset", 0.0)
	v.SetDefault("render.brightness_scale", 0.25)
	v.SetDefault("render.edge_brightness_scale", 1.0)
	v.SetDefault("render.invert", false)
	v.SetDefault("render.algorithm", "edge_augmented")
	v.SetDefault("render.font_path", "")
	v.SetDefault("render.alphabet_path", "")

	// Artifact defaults
	v.SetDefault("artifact.enabled", false)
	v.SetDefault("artifact.path", filepath.Join(os.TempDir(), "termvid-frame.png"))

	// Logging defaults; stdout is the playback surface
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", filepath.Join(os.TempDir(), "termvid", "termvid.log"))
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", "127.0.0.1")
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
