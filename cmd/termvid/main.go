package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zsiec/termvid/internal/config"
	"github.com/zsiec/termvid/internal/errors"
	"github.com/zsiec/termvid/internal/glyph"
	"github.com/zsiec/termvid/internal/health"
	"github.com/zsiec/termvid/internal/logger"
	"github.com/zsiec/termvid/internal/media"
	"github.com/zsiec/termvid/internal/playback"
	"github.com/zsiec/termvid/internal/server"
	"github.com/zsiec/termvid/internal/source"
	"github.com/zsiec/termvid/internal/source/libav"
	"github.com/zsiec/termvid/internal/terminal"
	"github.com/zsiec/termvid/pkg/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout *os.File, stderr io.Writer) int {
	fs := flag.NewFlagSet("termvid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to configuration file")
	showVersion := fs.Bool("version", false, "Show version information")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: termvid [flags] <video file>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.GetInfo().String())
		return 0
	}

	cfg, err := loadConfig(*configPath, fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "termvid: %v\n", err)
		if errors.IsType(err, errors.ErrorTypeValidation) {
			fs.Usage()
		}
		return errors.ExitCode(err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "termvid: failed to create logger: %v\n", err)
		return errors.ExitCode(errors.NewInitError(err, "failed to create logger"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = play(ctx, cfg, log, stdout)
	code := errors.ExitCode(err)
	if code != 0 {
		fmt.Fprintf(stderr, "termvid: %v\n", err)
	}
	return code
}

// loadConfig reads configuration and applies the positional input path.
func loadConfig(path string, args []string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to load configuration")
	}
	if len(args) > 1 {
		return nil, errors.NewValidationError("expected a single input file")
	}
	if len(args) == 1 {
		cfg.Input.Path = args[0]
	}
	if cfg.Input.Path == "" {
		return nil, errors.NewValidationError("no input file given")
	}
	return cfg, nil
}

func play(ctx context.Context, cfg *config.Config, log *logrus.Logger, stdout *os.File) error {
	entry, sessionID := logger.NewSession(log)
	entry = logger.WithInput(entry, cfg.Input.Path)
	entry.Info("Starting termvid")

	healthMgr := health.NewManager(log)
	healthMgr.Register(health.NewInputChecker(cfg.Input.Path))
	if cfg.Artifact.Enabled {
		healthMgr.Register(health.NewArtifactDirChecker(cfg.Artifact.Path))
	}
	if len(cfg.Decoder.RequiredCodecs) > 0 {
		healthMgr.Register(libav.NewDecoderChecker(cfg.Decoder.RequiredCodecs))
	}
	if err := healthMgr.Preflight(ctx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "preflight failed")
	}

	converter, err := newConverter(&cfg.Render, terminal.Columns(cfg.Render.Width, stdout))
	if err != nil {
		return err
	}

	driver := playback.NewDriver(playback.Config{
		Rate:            cfg.Playback.Rate(),
		DriftCorrection: cfg.Playback.DriftCorrection,
		StatusLine:      cfg.Playback.StatusLine,
	}, stdout, converter, logger.WithComponent(entry, "playback"))
	if cfg.Artifact.Enabled {
		driver.SetArtifact(playback.NewPNGArtifact(cfg.Artifact.Path, converter))
	}

	if cfg.Metrics.Enabled {
		srv := server.New(&cfg.Metrics, log, healthMgr, sessionID, driver)
		if err := srv.Start(ctx); err != nil {
			// Playback does not depend on the debug server.
			entry.WithError(err).Warn("Debug server unavailable")
		} else {
			go healthMgr.StartPeriodicChecks(ctx, 10*time.Second)
		}
	}

	backend, err := libav.New(libav.Options{LogLevel: cfg.Decoder.LogLevel})
	if err != nil {
		return errors.NewInitError(err, "failed to initialise decoder backend")
	}
	extractor := source.NewExtractor(backend, source.Config{
		KeepFlushedFrames: cfg.Decoder.KeepFlushedFrames,
	}, logger.WithComponent(entry, "source"))

	rate := cfg.Playback.Rate()
	if cfg.Playback.Mode == "streaming" {
		err = playStreaming(ctx, extractor, driver, cfg.Input.Path, rate, cfg.Playback.BufferSize)
	} else {
		err = playBuffered(ctx, extractor, driver, cfg.Input.Path, rate)
	}

	if err != nil && errors.ExitCode(err) != 0 {
		entry.WithError(err).Error("Playback failed")
		return err
	}
	entry.WithField("frames", driver.Status().Frame).Info("Playback complete")
	return err
}

func playBuffered(ctx context.Context, ex *source.Extractor, d *playback.Driver, path string, rate media.FrameRate) error {
	seq, err := ex.Extract(ctx, path, rate)
	if err != nil {
		return err
	}
	return d.Play(ctx, seq)
}

// playStreaming plays frames while they are decoded. The producer is
// stopped whenever playback ends, including on render or write errors.
func playStreaming(ctx context.Context, ex *source.Extractor, d *playback.Driver, path string, rate media.FrameRate, buffer int) error {
	frames, stop := ex.Stream(ctx, path, rate, buffer)
	defer stop()
	return d.PlayStream(ctx, frames)
}

// newConverter loads the configured font and builds a converter emitting
// the given number of columns.
func newConverter(cfg *config.RenderConfig, columns int) (*glyph.Converter, error) {
	var (
		font *glyph.Font
		err  error
	)
	if cfg.FontPath != "" {
		font, err = glyph.LoadFontFiles(cfg.FontPath, cfg.AlphabetPath, cfg.Invert)
	} else {
		font, err = glyph.DefaultFont(cfg.Invert)
	}
	if err != nil {
		return nil, errors.NewInitError(err, "failed to load font")
	}

	algorithm, err := glyph.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid render algorithm")
	}

	return glyph.NewConverter(font, glyph.Options{
		Width:               columns,
		BrightnessOffset:    cfg.BrightnessOffset,
		BrightnessScale:     cfg.BrightnessScale,
		EdgeBrightnessScale: cfg.EdgeBrightnessScale,
		Algorithm:           algorithm,
	}, cfg.Invert), nil
}
