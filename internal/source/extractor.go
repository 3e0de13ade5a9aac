package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/zsiec/termvid/internal/errors"
	"github.com/zsiec/termvid/internal/logger"
	"github.com/zsiec/termvid/internal/media"
	"github.com/zsiec/termvid/internal/metrics"
)

// Config holds extractor options.
type Config struct {
	// KeepFlushedFrames appends frames released by the end-of-stream flush.
	// When false they are drained and dropped.
	KeepFlushedFrames bool
	// ProgressInterval is the minimum time between progress log lines.
	ProgressInterval time.Duration
}

// Result is one element of a frame stream. The last element carries the
// error that stopped extraction, if any.
type Result struct {
	Frame *media.Frame
	Err   error
}

// Extractor decodes video files into RGB24 frames.
type Extractor struct {
	backend Backend
	cfg     Config

	logger  logger.Logger
	sampled *logger.SampledLogger
}

// NewExtractor creates an extractor backed by backend.
func NewExtractor(backend Backend, cfg Config, log logger.Logger) *Extractor {
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = time.Second
	}
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Extractor{
		backend: backend,
		cfg:     cfg,
		logger:  log,
		sampled: logger.NewPlaybackLogger(log),
	}
}

// run tracks one extraction.
type run struct {
	path     string
	rate     media.FrameRate
	flushing bool

	packets int
	decoded int
	kept    int

	width, height int
	progress      rate.Sometimes
}

// Extract decodes the whole file and returns every kept frame in
// presentation order. On error no frames are returned.
func (e *Extractor) Extract(ctx context.Context, path string, fr media.FrameRate) (media.Sequence, error) {
	var seq media.Sequence
	err := e.Run(ctx, path, fr, func(f *media.Frame) error {
		seq = append(seq, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.SetSequenceFrames(len(seq))
	return seq, nil
}

// Stream runs extraction on a producer goroutine and delivers frames on a
// channel with the given capacity. The channel is closed when extraction
// ends. The returned stop function must be called once the consumer stops
// reading; it cancels the producer, which then releases the container and
// closes the channel without sending its error.
func (e *Extractor) Stream(ctx context.Context, path string, fr media.FrameRate, buffer int) (<-chan Result, context.CancelFunc) {
	if buffer < 1 {
		buffer = 1
	}
	ctx, stop := context.WithCancel(ctx)
	out := make(chan Result, buffer)

	go func() {
		defer close(out)

		err := e.Run(ctx, path, fr, func(f *media.Frame) error {
			select {
			case out <- Result{Frame: f}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err == nil {
			return
		}
		select {
		case out <- Result{Err: err}:
		case <-ctx.Done():
		}
	}()

	return out, stop
}

// Run decodes path and calls emit for every kept frame, in order. An error
// returned by emit stops extraction and is returned unchanged.
func (e *Extractor) Run(ctx context.Context, path string, fr media.FrameRate, emit func(*media.Frame) error) (err error) {
	if !fr.Valid() {
		return errors.NewValidationError(fmt.Sprintf("unsupported frame rate %d", int(fr)))
	}

	start := time.Now()
	r := &run{
		path:     path,
		rate:     fr,
		progress: rate.Sometimes{First: 1, Interval: e.cfg.ProgressInterval},
	}
	log := e.logger.WithFields(map[string]interface{}{
		"input":      path,
		"frame_rate": fr.String(),
	})

	defer func() {
		metrics.ObserveExtraction(time.Since(start).Seconds())
		if err == nil {
			log.WithFields(map[string]interface{}{
				"packets":  r.packets,
				"decoded":  r.decoded,
				"kept":     r.kept,
				"duration": time.Since(start).String(),
			}).Info("Extraction complete")
			if dropped := e.sampled.Suppressed(); len(dropped) > 0 {
				log.WithField("suppressed", dropped).Debug("Sampled log lines were suppressed")
			}
			return
		}
		if appErr, ok := errors.GetAppError(err); ok {
			metrics.IncrementExtractionError(string(appErr.Type), appErr.Code)
		}
	}()

	container, err := e.backend.Open(path)
	if err != nil {
		if errors.IsAppError(err) {
			return err
		}
		return errors.NewIOError(err, fmt.Sprintf("failed to open %s", path))
	}
	defer container.Close()

	stream, ok := container.BestVideoStream()
	if !ok {
		return fmt.Errorf("%s: %w", path, errors.ErrNoVideoStream)
	}
	log.WithFields(map[string]interface{}{
		"stream_index": stream.Index,
		"codec":        stream.Codec,
		"width":        stream.Width,
		"height":       stream.Height,
	}).Info("Selected video stream")

	decoder, err := container.OpenDecoder(stream)
	if err != nil {
		return errors.WrapFormatError(err, errors.CodeUnsupportedCodec,
			fmt.Sprintf("cannot decode stream %d (%s)", stream.Index, stream.Codec))
	}
	defer decoder.Close()

	scaler, err := decoder.NewScaler()
	if err != nil {
		return errors.WrapFormatError(err, errors.CodeScalerInit, "failed to create rgb24 scaler")
	}
	defer scaler.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkt, err := container.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.NewIOError(err, "failed to read packet")
		}
		r.packets++

		if pkt.StreamIndex() != stream.Index {
			pkt.Release()
			metrics.IncrementPackets(metrics.PacketSkipped)
			continue
		}
		metrics.IncrementPackets(metrics.PacketDecoded)

		err = e.send(decoder, scaler, pkt, r, emit)
		pkt.Release()
		if err != nil {
			return err
		}

		r.progress.Do(func() {
			log.WithFields(map[string]interface{}{
				"packets": r.packets,
				"decoded": r.decoded,
				"kept":    r.kept,
			}).Info("Extraction progress")
		})
	}

	// End of stream: release whatever the decoder still buffers.
	r.flushing = true
	if err := decoder.SendPacket(nil); err != nil {
		return errors.WrapFormatError(err, errors.CodeDecodeSend, "failed to flush decoder")
	}
	return e.drain(decoder, scaler, r, emit)
}

// send submits pkt and drains the frames it produced. A decoder that is
// full is drained once before the packet is resubmitted.
func (e *Extractor) send(decoder Decoder, scaler Scaler, pkt Packet, r *run, emit func(*media.Frame) error) error {
	err := decoder.SendPacket(pkt)
	if stderrors.Is(err, ErrAgain) {
		if err := e.drain(decoder, scaler, r, emit); err != nil {
			return err
		}
		err = decoder.SendPacket(pkt)
	}
	if err != nil {
		return errors.WrapFormatError(err, errors.CodeDecodeSend,
			fmt.Sprintf("failed to send packet %d to decoder", r.packets))
	}

	e.sampled.Debug(logger.CategoryPacketProcessing, "Packet sent", map[string]interface{}{
		"packet": r.packets,
	})

	return e.drain(decoder, scaler, r, emit)
}

// drain receives frames until the decoder needs input or is exhausted.
func (e *Extractor) drain(decoder Decoder, scaler Scaler, r *run, emit func(*media.Frame) error) error {
	for {
		raw, err := decoder.ReceiveFrame()
		if stderrors.Is(err, ErrAgain) || err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.WrapFormatError(err, errors.CodeDecodeReceive, "failed to receive frame")
		}

		err = e.handleFrame(raw, scaler, r, emit)
		raw.Release()
		if err != nil {
			return err
		}
	}
}

func (e *Extractor) handleFrame(raw RawFrame, scaler Scaler, r *run, emit func(*media.Frame) error) error {
	r.decoded++
	metrics.IncrementFramesDecoded()

	if r.flushing && !e.cfg.KeepFlushedFrames {
		metrics.IncrementFrameOutcome(metrics.FrameDropped)
		return nil
	}
	if !r.rate.Keep(r.decoded) {
		metrics.IncrementFrameOutcome(metrics.FrameDecimated)
		return nil
	}

	w, h := raw.Width(), raw.Height()
	if r.kept > 0 && (w != r.width || h != r.height) {
		return errors.NewFormatError(errors.CodeFrameGeometry,
			fmt.Sprintf("frame %d is %dx%d, sequence is %dx%d", r.decoded, w, h, r.width, r.height))
	}

	pix, err := scaler.Scale(raw)
	if err != nil {
		return errors.WrapFormatError(err, errors.CodeScale, fmt.Sprintf("failed to convert frame %d", r.decoded))
	}
	frame, err := media.NewFrame(w, h, pix)
	if err != nil {
		return errors.WrapFormatError(err, errors.CodePixelBuffer, fmt.Sprintf("frame %d", r.decoded))
	}

	if r.kept == 0 {
		r.width, r.height = w, h
	}
	r.kept++
	if r.flushing {
		metrics.IncrementFrameOutcome(metrics.FrameFlushed)
	} else {
		metrics.IncrementFrameOutcome(metrics.FrameKept)
	}

	e.sampled.Debug(logger.CategoryFrameProcessing, "Frame converted", map[string]interface{}{
		"decoded":  r.decoded,
		"kept":     r.kept,
		"flushing": r.flushing,
	})

	return emit(frame)
}
