package logger

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Log categories used by the extraction and playback loops.
const (
	CategoryPacketProcessing = "packet_processing"
	CategoryFrameProcessing  = "frame_processing"
	CategoryRender           = "render"
	CategoryPacing           = "pacing"
	CategoryArtifact         = "artifact"
)

// SampledLogger rate-limits per-frame log lines by category. Lines over a
// category's limit are counted, and the next line let through reports how
// many were suppressed since the previous one. Categories without a limit
// are always logged.
type SampledLogger struct {
	base Logger
	now  func() time.Time

	mu         sync.Mutex
	categories map[string]*category
}

type category struct {
	limiter    *rate.Limiter
	logged     int64
	suppressed int64
	pending    int64
}

// CategoryStats counts the lines of one category.
type CategoryStats struct {
	Logged     int64 `json:"logged"`
	Suppressed int64 `json:"suppressed"`
}

// NewSampledLogger creates a sampled logger writing to base.
func NewSampledLogger(base Logger) *SampledLogger {
	return &SampledLogger{
		base:       base,
		now:        time.Now,
		categories: make(map[string]*category),
	}
}

// Limit allows burst lines of name at once, refilled at one per every.
func (s *SampledLogger) Limit(name string, every time.Duration, burst int) *SampledLogger {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[name] = &category{limiter: rate.NewLimiter(rate.Every(every), burst)}
	return s
}

// NewPlaybackLogger creates a sampled logger tuned for 30 and 60 fps loops.
func NewPlaybackLogger(base Logger) *SampledLogger {
	return NewSampledLogger(base).
		Limit(CategoryPacketProcessing, 100*time.Millisecond, 10).
		Limit(CategoryFrameProcessing, 200*time.Millisecond, 5).
		Limit(CategoryRender, 250*time.Millisecond, 3).
		Limit(CategoryPacing, time.Second, 2).
		Limit(CategoryArtifact, time.Second, 1)
}

// Debug logs msg at debug level if name's limit allows it.
func (s *SampledLogger) Debug(name, msg string, fields logrus.Fields) {
	s.log(logrus.DebugLevel, name, msg, fields)
}

// Warn logs msg at warn level if name's limit allows it.
func (s *SampledLogger) Warn(name, msg string, fields logrus.Fields) {
	s.log(logrus.WarnLevel, name, msg, fields)
}

func (s *SampledLogger) log(level logrus.Level, name, msg string, fields logrus.Fields) {
	out := logrus.Fields{"category": name}
	for k, v := range fields {
		out[k] = v
	}

	s.mu.Lock()
	c, limited := s.categories[name]
	if limited {
		if !c.limiter.AllowN(s.now(), 1) {
			c.suppressed++
			c.pending++
			s.mu.Unlock()
			return
		}
		c.logged++
		if c.pending > 0 {
			out["suppressed"] = c.pending
			c.pending = 0
		}
	}
	s.mu.Unlock()

	s.base.WithFields(out).Log(level, msg)
}

// Stats returns per-category counts for limited categories.
func (s *SampledLogger) Stats() map[string]CategoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := make(map[string]CategoryStats, len(s.categories))
	for name, c := range s.categories {
		stats[name] = CategoryStats{Logged: c.logged, Suppressed: c.suppressed}
	}
	return stats
}

// Suppressed returns the categories that dropped lines and how many.
func (s *SampledLogger) Suppressed() map[string]int64 {
	out := make(map[string]int64)
	for name, st := range s.Stats() {
		if st.Suppressed > 0 {
			out[name] = st.Suppressed
		}
	}
	return out
}
