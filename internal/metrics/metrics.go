package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Packet dispositions.
const (
	PacketDecoded = "decoded"
	PacketSkipped = "skipped"
)

// Frame outcomes during extraction.
const (
	FrameKept      = "kept"
	FrameDecimated = "decimated"
	FrameFlushed   = "flushed"
	FrameDropped   = "dropped"
)

// Playback states exported by the state gauge.
const (
	StatePlaying = 1
	StateDone    = 0
)

var (
	// Extraction metrics
	packetsReadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "termvid_packets_read_total",
		Help: "Packets demuxed from the container by disposition",
	}, []string{"disposition"})

	framesDecodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "termvid_frames_decoded_total",
		Help: "Frames produced by the decoder",
	})

	framesOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "termvid_frames_outcome_total",
		Help: "Decoded frames by outcome (kept, decimated, flushed, dropped)",
	}, []string{"outcome"})

	extractionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "termvid_extraction_errors_total",
		Help: "Extraction failures by error type and code",
	}, []string{"error_type", "code"})

	extractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "termvid_extraction_duration_seconds",
		Help:    "Wall time of a full extraction run",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4 minutes
	})

	sequenceFrames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "termvid_sequence_frames",
		Help: "Frames held by the current sequence",
	})

	// Playback metrics
	framesRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "termvid_frames_rendered_total",
		Help: "Frames written to the terminal",
	})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "termvid_render_duration_seconds",
		Help:    "Time spent converting and writing one frame",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	})

	frameDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "termvid_frame_drift_seconds",
		Help: "Processing time of the last frame that was not absorbed by the sleep",
	})

	playbackState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "termvid_playback_state",
		Help: "1 while playing, 0 when done",
	})

	artifactWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "termvid_artifact_writes_total",
		Help: "Diagnostic bitmap writes by result",
	}, []string{"result"})
)

// IncrementPackets counts a demuxed packet.
func IncrementPackets(disposition string) {
	packetsReadTotal.WithLabelValues(disposition).Inc()
}

// IncrementFramesDecoded counts a frame received from the decoder.
func IncrementFramesDecoded() {
	framesDecodedTotal.Inc()
}

// IncrementFrameOutcome counts what happened to a decoded frame.
func IncrementFrameOutcome(outcome string) {
	framesOutcomeTotal.WithLabelValues(outcome).Inc()
}

// IncrementExtractionError counts an aborted extraction.
func IncrementExtractionError(errorType, code string) {
	extractionErrorsTotal.WithLabelValues(errorType, code).Inc()
}

// ObserveExtraction records the duration of an extraction run in seconds.
func ObserveExtraction(seconds float64) {
	extractionDuration.Observe(seconds)
}

// SetSequenceFrames sets the length of the held sequence.
func SetSequenceFrames(n int) {
	sequenceFrames.Set(float64(n))
}

// RecordFrameRendered counts a rendered frame and its processing time.
func RecordFrameRendered(seconds float64) {
	framesRenderedTotal.Inc()
	renderDuration.Observe(seconds)
}

// SetFrameDrift sets the drift of the last frame in seconds.
func SetFrameDrift(seconds float64) {
	frameDrift.Set(seconds)
}

// SetPlaybackState sets the state gauge.
func SetPlaybackState(state int) {
	playbackState.Set(float64(state))
}

// IncrementArtifactWrites counts a diagnostic bitmap write.
func IncrementArtifactWrites(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	artifactWritesTotal.WithLabelValues(result).Inc()
}
