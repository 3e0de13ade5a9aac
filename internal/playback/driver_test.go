package playback

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/termvid/internal/errors"
	"github.com/zsiec/termvid/internal/glyph"
	"github.com/zsiec/termvid/internal/logger"
	"github.com/zsiec/termvid/internal/media"
	"github.com/zsiec/termvid/internal/source"
	"github.com/zsiec/termvid/internal/terminal"
)

// fakeClock advances by step on every Now call and by d on every Sleep.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	step   time.Duration
	sleeps []time.Duration
	// cancel is called on the sleep with index cancelAt.
	cancel   context.CancelFunc
	cancelAt int
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), step: step, cancelAt: -1}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	if c.cancel != nil && len(c.sleeps) == c.cancelAt {
		c.cancel()
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return ctx.Err()
}

// fakeRenderer renders each frame as one row naming its first pixel value.
type fakeRenderer struct {
	rendered []byte
	raggedAt int
	err      error
}

func (r *fakeRenderer) Render(f *media.Frame) (glyph.Grid, error) {
	if r.err != nil {
		return nil, r.err
	}
	id := f.Pix()[0]
	r.rendered = append(r.rendered, id)
	row := []rune(fmt.Sprintf("f%03d", id))
	if r.raggedAt > 0 && int(id) == r.raggedAt {
		return glyph.Grid{row, []rune("x")}, nil
	}
	return glyph.Grid{row, row}, nil
}

type recordingArtifact struct {
	frames []byte
	err    error
}

func (a *recordingArtifact) Write(grid glyph.Grid, f *media.Frame) error {
	if a.err != nil {
		return a.err
	}
	a.frames = append(a.frames, f.Pix()[0])
	return nil
}

func testFrame(t *testing.T, id byte, w, h int) *media.Frame {
	t.Helper()
	pix := bytes.Repeat([]byte{id}, w*h*3)
	f, err := media.NewFrame(w, h, pix)
	require.NoError(t, err)
	return f
}

func testSequence(t *testing.T, n int) media.Sequence {
	seq := make(media.Sequence, n)
	for i := range seq {
		seq[i] = testFrame(t, byte(i+1), 4, 2)
	}
	return seq
}

func newTestDriver(cfg Config, out *bytes.Buffer, r Renderer, clock Clock) *Driver {
	d := NewDriver(cfg, out, r, logger.NewNullLogger())
	d.SetClock(clock)
	return d
}

func TestPlay_SleepsOnePeriodPerFrame(t *testing.T) {
	tests := []struct {
		name   string
		rate   media.FrameRate
		frames int
		period time.Duration
	}{
		{"30 fps", media.FPS30, 30, time.Second / 30},
		{"60 fps", media.FPS60, 5, time.Second / 60},
		{"empty sequence", media.FPS30, 0, time.Second / 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			clock := newFakeClock(time.Millisecond)
			r := &fakeRenderer{}
			d := newTestDriver(Config{Rate: tt.rate}, &out, r, clock)

			require.NoError(t, d.Play(context.Background(), testSequence(t, tt.frames)))

			require.Len(t, clock.sleeps, tt.frames)
			for _, s := range clock.sleeps {
				assert.Equal(t, tt.period, s)
			}
			assert.Len(t, r.rendered, tt.frames)
			assert.Equal(t, tt.frames, strings.Count(out.String(), terminal.ClearHome))
			assert.Equal(t, "done", d.Status().State)
		})
	}
}

func TestPlay_ThirtyOfSixtyAtThirtyFPS(t *testing.T) {
	// 60 decoded frames decimated to 30 play 33.3ms apart.
	var seq media.Sequence
	for i := 1; i <= 60; i++ {
		if media.FPS30.Keep(i) {
			seq = append(seq, testFrame(t, byte(i), 2, 2))
		}
	}
	require.Len(t, seq, 30)

	clock := newFakeClock(0)
	var out bytes.Buffer
	d := newTestDriver(Config{Rate: media.FPS30}, &out, &fakeRenderer{}, clock)
	require.NoError(t, d.Play(context.Background(), seq))

	var total time.Duration
	for _, s := range clock.sleeps {
		total += s
	}
	assert.Len(t, clock.sleeps, 30)
	assert.InDelta(t, time.Second, total, float64(time.Microsecond))
}

func TestPlay_OutputOrderAndFormat(t *testing.T) {
	var out bytes.Buffer
	r := &fakeRenderer{}
	d := newTestDriver(Config{Rate: media.FPS60}, &out, r, newFakeClock(0))

	require.NoError(t, d.Play(context.Background(), testSequence(t, 3)))

	assert.Equal(t, []byte{1, 2, 3}, r.rendered)
	want := terminal.ClearHome + "f001\nf001\n" +
		terminal.ClearHome + "f002\nf002\n" +
		terminal.ClearHome + "f003\nf003\n"
	assert.Equal(t, want, out.String())
}

func TestPlay_RaggedGridStops(t *testing.T) {
	var out bytes.Buffer
	clock := newFakeClock(0)
	r := &fakeRenderer{raggedAt: 2}
	d := newTestDriver(Config{Rate: media.FPS30}, &out, r, clock)

	err := d.Play(context.Background(), testSequence(t, 4))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeContract))

	appErr, _ := errors.GetAppError(err)
	assert.Equal(t, errors.CodeRaggedGrid, appErr.Code)
	assert.Len(t, clock.sleeps, 1, "only the first frame was shown")
	assert.Equal(t, 1, strings.Count(out.String(), terminal.ClearHome))
	assert.Equal(t, "done", d.Status().State)
}

func TestPlay_RendererError(t *testing.T) {
	var out bytes.Buffer
	d := newTestDriver(Config{Rate: media.FPS30}, &out, &fakeRenderer{err: stderrors.New("no font")}, newFakeClock(0))

	err := d.Play(context.Background(), testSequence(t, 2))
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
	assert.Empty(t, out.String())
}

func TestPlay_MixedGeometryRejected(t *testing.T) {
	var out bytes.Buffer
	clock := newFakeClock(0)
	d := newTestDriver(Config{Rate: media.FPS30}, &out, &fakeRenderer{}, clock)

	seq := media.Sequence{testFrame(t, 1, 4, 2), testFrame(t, 2, 2, 2)}
	err := d.Play(context.Background(), seq)
	assert.True(t, errors.IsType(err, errors.ErrorTypeContract))
	assert.Empty(t, clock.sleeps)
}

func TestPlay_InvalidRate(t *testing.T) {
	var out bytes.Buffer
	d := newTestDriver(Config{Rate: media.FrameRate(24)}, &out, &fakeRenderer{}, newFakeClock(0))

	err := d.Play(context.Background(), testSequence(t, 1))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Equal(t, "idle", d.Status().State)
}

func TestPlay_DriftCorrection(t *testing.T) {
	period := time.Second / 30

	t.Run("sleep shortened by processing time", func(t *testing.T) {
		clock := newFakeClock(10 * time.Millisecond)
		var out bytes.Buffer
		d := newTestDriver(Config{Rate: media.FPS30, DriftCorrection: true}, &out, &fakeRenderer{}, clock)

		require.NoError(t, d.Play(context.Background(), testSequence(t, 3)))
		for _, s := range clock.sleeps {
			assert.Equal(t, period-10*time.Millisecond, s)
		}
		assert.Equal(t, 0.0, d.Status().DriftMS)
	})

	t.Run("never negative", func(t *testing.T) {
		clock := newFakeClock(50 * time.Millisecond)
		var out bytes.Buffer
		d := newTestDriver(Config{Rate: media.FPS30, DriftCorrection: true}, &out, &fakeRenderer{}, clock)

		require.NoError(t, d.Play(context.Background(), testSequence(t, 2)))
		for _, s := range clock.sleeps {
			assert.Equal(t, time.Duration(0), s)
		}
		assert.InDelta(t, float64(50*time.Millisecond-period)/float64(time.Millisecond), d.Status().DriftMS, 1e-6)
	})

	t.Run("disabled keeps full period", func(t *testing.T) {
		clock := newFakeClock(10 * time.Millisecond)
		var out bytes.Buffer
		d := newTestDriver(Config{Rate: media.FPS30}, &out, &fakeRenderer{}, clock)

		require.NoError(t, d.Play(context.Background(), testSequence(t, 2)))
		for _, s := range clock.sleeps {
			assert.Equal(t, period, s)
		}
		assert.Equal(t, 10.0, d.Status().DriftMS)
	})
}

func TestPlay_CancelDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := newFakeClock(0)
	clock.cancel, clock.cancelAt = cancel, 1

	var out bytes.Buffer
	r := &fakeRenderer{}
	d := newTestDriver(Config{Rate: media.FPS30}, &out, r, clock)

	err := d.Play(ctx, testSequence(t, 5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, r.rendered, 2)
	assert.Equal(t, 0, errors.ExitCode(err))
}

func TestPlay_Artifact(t *testing.T) {
	var out bytes.Buffer
	art := &recordingArtifact{}
	d := newTestDriver(Config{Rate: media.FPS60}, &out, &fakeRenderer{}, newFakeClock(0))
	d.SetArtifact(art)

	require.NoError(t, d.Play(context.Background(), testSequence(t, 3)))
	assert.Equal(t, []byte{1, 2, 3}, art.frames)

	art.err = stderrors.New("disk full")
	err := d.Play(context.Background(), testSequence(t, 3))
	assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
}

func TestPlay_StatusLine(t *testing.T) {
	var out bytes.Buffer
	d := newTestDriver(Config{Rate: media.FPS30, StatusLine: true}, &out, &fakeRenderer{}, newFakeClock(0))

	require.NoError(t, d.Play(context.Background(), testSequence(t, 2)))
	assert.Contains(t, out.String(), "frame 1/2 · 30 fps · drift 0s")
	assert.Contains(t, out.String(), "frame 2/2")
}

func TestPlayStream(t *testing.T) {
	t.Run("renders in arrival order", func(t *testing.T) {
		ch := make(chan source.Result, 4)
		for _, f := range testSequence(t, 4) {
			ch <- source.Result{Frame: f}
		}
		close(ch)

		var out bytes.Buffer
		clock := newFakeClock(0)
		r := &fakeRenderer{}
		d := newTestDriver(Config{Rate: media.FPS30, StatusLine: true}, &out, r, clock)

		require.NoError(t, d.PlayStream(context.Background(), ch))
		assert.Equal(t, []byte{1, 2, 3, 4}, r.rendered)
		assert.Len(t, clock.sleeps, 4)
		assert.Contains(t, out.String(), "frame 4 · 30 fps")
		assert.Equal(t, int64(4), d.Status().Frame)
	})

	t.Run("propagates extraction error", func(t *testing.T) {
		ch := make(chan source.Result, 2)
		ch <- source.Result{Frame: testFrame(t, 1, 2, 2)}
		ch <- source.Result{Err: errors.ErrNoVideoStream}
		close(ch)

		var out bytes.Buffer
		d := newTestDriver(Config{Rate: media.FPS30}, &out, &fakeRenderer{}, newFakeClock(0))

		err := d.PlayStream(context.Background(), ch)
		assert.ErrorIs(t, err, errors.ErrNoVideoStream)
	})

	t.Run("rejects geometry change", func(t *testing.T) {
		ch := make(chan source.Result, 2)
		ch <- source.Result{Frame: testFrame(t, 1, 2, 2)}
		ch <- source.Result{Frame: testFrame(t, 2, 4, 4)}
		close(ch)

		var out bytes.Buffer
		d := newTestDriver(Config{Rate: media.FPS30}, &out, &fakeRenderer{}, newFakeClock(0))

		err := d.PlayStream(context.Background(), ch)
		assert.True(t, errors.IsType(err, errors.ErrorTypeContract))
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out bytes.Buffer
		d := newTestDriver(Config{Rate: media.FPS30}, &out, &fakeRenderer{}, newFakeClock(0))

		err := d.PlayStream(ctx, make(chan source.Result))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRealClock(t *testing.T) {
	c := realClock{}

	start := time.Now()
	require.NoError(t, c.Sleep(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Sleep(ctx, time.Hour), context.Canceled)
}

func TestPNGArtifact(t *testing.T) {
	font, err := glyph.DefaultFont(false)
	require.NoError(t, err)
	conv := glyph.NewConverter(font, glyph.Options{Width: 4, Algorithm: glyph.AlgorithmIntensity}, false)

	frame := testFrame(t, 200, 24, 16)
	grid, err := conv.Render(frame)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "frame.png")
	art := NewPNGArtifact(path, conv)
	assert.Equal(t, path, art.Path())
	require.NoError(t, art.Write(grid, frame))
	require.NoError(t, art.Write(grid, frame), "existing file is overwritten")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4*font.Width, 2*font.Height), img.Bounds())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	missing := NewPNGArtifact(filepath.Join(t.TempDir(), "nope", "frame.png"), conv)
	assert.Error(t, missing.Write(grid, frame))
}
