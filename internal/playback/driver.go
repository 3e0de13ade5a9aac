package playback

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zsiec/termvid/internal/errors"
	"github.com/zsiec/termvid/internal/glyph"
	"github.com/zsiec/termvid/internal/logger"
	"github.com/zsiec/termvid/internal/media"
	"github.com/zsiec/termvid/internal/metrics"
	"github.com/zsiec/termvid/internal/source"
	"github.com/zsiec/termvid/internal/terminal"
)

// Renderer turns a frame into a glyph grid.
type Renderer interface {
	Render(frame *media.Frame) (glyph.Grid, error)
}

// State of a driver.
type State int32

const (
	StateIdle State = iota
	StatePlaying
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// Config holds pacing options.
type Config struct {
	Rate media.FrameRate
	// DriftCorrection shortens each sleep by the time spent rendering.
	DriftCorrection bool
	// StatusLine appends a progress line below each frame.
	StatusLine bool
}

// Status is a snapshot of the driver for the debug API.
type Status struct {
	State     string  `json:"state"`
	Frame     int64   `json:"frame"`
	Total     int64   `json:"total,omitempty"`
	FrameRate string  `json:"frame_rate"`
	DriftMS   float64 `json:"drift_ms"`
}

// Driver writes frames to a terminal at a fixed cadence.
type Driver struct {
	cfg      Config
	out      *bufio.Writer
	renderer Renderer
	artifact Artifact
	clock    Clock

	logger      logger.Logger
	sampled     *logger.SampledLogger
	statusStyle lipgloss.Style

	state atomic.Int32
	frame atomic.Int64
	total atomic.Int64
	drift atomic.Int64 // nanoseconds
}

// NewDriver creates a driver writing to out.
func NewDriver(cfg Config, out io.Writer, renderer Renderer, log logger.Logger) *Driver {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Driver{
		cfg:         cfg,
		out:         bufio.NewWriterSize(out, 64*1024),
		renderer:    renderer,
		clock:       realClock{},
		logger:      log,
		sampled:     logger.NewPlaybackLogger(log),
		statusStyle: lipgloss.NewStyle().Faint(true),
	}
}

// SetClock replaces the wall clock.
func (d *Driver) SetClock(c Clock) {
	d.clock = c
}

// SetArtifact enables the diagnostic artifact.
func (d *Driver) SetArtifact(a Artifact) {
	d.artifact = a
}

// Status returns a snapshot safe to read from other goroutines.
func (d *Driver) Status() Status {
	return Status{
		State:     State(d.state.Load()).String(),
		Frame:     d.frame.Load(),
		Total:     d.total.Load(),
		FrameRate: d.cfg.Rate.String(),
		DriftMS:   float64(d.drift.Load()) / float64(time.Millisecond),
	}
}

// Play renders every frame of seq in order.
func (d *Driver) Play(ctx context.Context, seq media.Sequence) error {
	if !d.cfg.Rate.Valid() {
		return errors.NewValidationError(fmt.Sprintf("unsupported frame rate %d", int(d.cfg.Rate)))
	}
	if err := seq.Validate(); err != nil {
		return errors.NewContractError(errors.CodeFrameGeometry, err.Error())
	}
	d.total.Store(int64(len(seq)))
	d.start()
	defer d.finish()

	for i, frame := range seq {
		if err := d.playFrame(ctx, i+1, frame); err != nil {
			return err
		}
	}
	return nil
}

// PlayStream renders frames as they arrive until the channel is closed or
// carries an error.
func (d *Driver) PlayStream(ctx context.Context, frames <-chan source.Result) error {
	if !d.cfg.Rate.Valid() {
		return errors.NewValidationError(fmt.Sprintf("unsupported frame rate %d", int(d.cfg.Rate)))
	}
	d.total.Store(0)
	d.start()
	defer d.finish()

	var first *media.Frame
	n := 0
	for {
		var (
			res source.Result
			ok  bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok = <-frames:
		}
		if !ok {
			return nil
		}
		if res.Err != nil {
			return res.Err
		}

		if first == nil {
			first = res.Frame
		} else if !res.Frame.SameGeometry(first) {
			return errors.NewContractError(errors.CodeFrameGeometry,
				fmt.Sprintf("frame %d is %dx%d, stream is %dx%d", n+1,
					res.Frame.Width(), res.Frame.Height(), first.Width(), first.Height()))
		}

		n++
		if err := d.playFrame(ctx, n, res.Frame); err != nil {
			return err
		}
	}
}

func (d *Driver) start() {
	d.frame.Store(0)
	d.state.Store(int32(StatePlaying))
	metrics.SetPlaybackState(metrics.StatePlaying)
	d.logger.WithFields(map[string]interface{}{
		"frame_rate": d.cfg.Rate.String(),
		"frames":     d.total.Load(),
	}).Info("Playback started")
}

func (d *Driver) finish() {
	d.state.Store(int32(StateDone))
	metrics.SetPlaybackState(metrics.StateDone)
	fields := map[string]interface{}{"frames": d.frame.Load()}
	if dropped := d.sampled.Suppressed(); len(dropped) > 0 {
		fields["suppressed_logs"] = dropped
	}
	d.logger.WithFields(fields).Info("Playback finished")
}

func (d *Driver) playFrame(ctx context.Context, n int, frame *media.Frame) error {
	period := d.cfg.Rate.Period()
	start := d.clock.Now()

	grid, err := d.renderer.Render(frame)
	if err != nil {
		if errors.IsAppError(err) {
			return err
		}
		return errors.WrapInternalError(err, fmt.Sprintf("failed to render frame %d", n))
	}
	if err := grid.Validate(); err != nil {
		return err
	}

	if err := d.write(n, grid); err != nil {
		return errors.NewIOError(err, "failed to write frame to terminal")
	}

	if d.artifact != nil {
		err := d.artifact.Write(grid, frame)
		metrics.IncrementArtifactWrites(err == nil)
		if err != nil {
			return errors.NewIOError(err, fmt.Sprintf("failed to write artifact for frame %d", n))
		}
		d.sampled.Debug(logger.CategoryArtifact, "Artifact written", map[string]interface{}{
			"frame": n,
		})
	}

	d.frame.Store(int64(n))
	elapsed := d.clock.Now().Sub(start)
	metrics.RecordFrameRendered(elapsed.Seconds())

	sleep := period
	drift := elapsed
	if d.cfg.DriftCorrection {
		sleep = max(period-elapsed, 0)
		drift = max(elapsed-period, 0)
	}
	d.drift.Store(int64(drift))
	metrics.SetFrameDrift(drift.Seconds())

	d.sampled.Debug(logger.CategoryRender, "Frame rendered", map[string]interface{}{
		"frame":   n,
		"rows":    grid.Height(),
		"columns": grid.Width(),
		"elapsed": elapsed.String(),
	})
	if elapsed > period {
		d.sampled.Warn(logger.CategoryPacing, "Frame took longer than its period", map[string]interface{}{
			"frame":   n,
			"elapsed": elapsed.String(),
			"period":  period.String(),
		})
	}

	return d.clock.Sleep(ctx, sleep)
}

// write emits clear, rows and the optional status line with one flush.
func (d *Driver) write(n int, grid glyph.Grid) error {
	d.out.WriteString(terminal.ClearHome)
	for _, row := range grid {
		d.out.WriteString(string(row))
		d.out.WriteByte('\n')
	}
	if d.cfg.StatusLine {
		d.out.WriteString(d.statusStyle.Render(d.statusText(n)))
		d.out.WriteByte('\n')
	}
	return d.out.Flush()
}

func (d *Driver) statusText(n int) string {
	frame := fmt.Sprintf("frame %d", n)
	if total := d.total.Load(); total > 0 {
		frame = fmt.Sprintf("frame %d/%d", n, total)
	}
	drift := time.Duration(d.drift.Load())
	return fmt.Sprintf("%s · %s · drift %s", frame, d.cfg.Rate, drift.Round(100*time.Microsecond))
}
