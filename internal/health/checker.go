package health

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status represents the health status of a component.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Check represents a health check result.
type Check struct {
	Name        string                 `json:"name"`
	Status      Status                 `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"-"`
	DurationMS  float64                `json:"duration_ms"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Checker is the interface that health checkers must implement.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Manager runs preflight and debug-server health checks.
type Manager struct {
	checkers []Checker
	results  map[string]*Check
	timeout  time.Duration
	mu       sync.RWMutex
	logger   *logrus.Logger
}

// NewManager creates a new health check manager.
func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		results:  make(map[string]*Check),
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Register adds a new health checker.
func (m *Manager) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
	m.logger.WithField("checker", checker.Name()).Debug("Registered health checker")
}

// RunChecks executes all registered checks concurrently.
func (m *Manager) RunChecks(ctx context.Context) map[string]*Check {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	var wg sync.WaitGroup
	results := make(map[string]*Check, len(checkers))
	resultsChan := make(chan *Check, len(checkers))

	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			start := time.Now()
			err := c.Check(checkCtx)
			duration := time.Since(start)

			check := &Check{
				Name:        c.Name(),
				Status:      StatusOK,
				LastChecked: time.Now(),
				Duration:    duration,
				DurationMS:  float64(duration.Milliseconds()),
			}

			if err != nil {
				check.Status = StatusDown
				check.Message = err.Error()
				if stderrors.Is(err, context.DeadlineExceeded) {
					check.Message = "Health check timed out"
				}
				m.logger.WithFields(logrus.Fields{
					"checker":  c.Name(),
					"duration": duration,
					"error":    err,
				}).Warn("Health check failed")
			} else {
				m.logger.WithFields(logrus.Fields{
					"checker":  c.Name(),
					"duration": duration,
				}).Debug("Health check passed")
			}

			resultsChan <- check
		}(checker)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for check := range resultsChan {
		results[check.Name] = check
		m.mu.Lock()
		m.results[check.Name] = check
		m.mu.Unlock()
	}

	return results
}

// Preflight runs every check once and returns an error naming each check
// that is down, in name order.
func (m *Manager) Preflight(ctx context.Context) error {
	results := m.RunChecks(ctx)

	var failed []*Check
	for _, c := range results {
		if c.Status == StatusDown {
			failed = append(failed, c)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Name < failed[j].Name })

	msg := ""
	for i, c := range failed {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s: %s", c.Name, c.Message)
	}
	return stderrors.New(msg)
}

// GetResults returns the latest health check results.
func (m *Manager) GetResults() map[string]*Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]*Check, len(m.results))
	for k, v := range m.results {
		checkCopy := *v
		results[k] = &checkCopy
	}
	return results
}

// GetOverallStatus returns the worst status among the latest results.
func (m *Manager) GetOverallStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.results) == 0 {
		return StatusDown
	}

	hasDegraded := false
	for _, check := range m.results {
		switch check.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusOK
}

// StartPeriodicChecks reruns the checks every interval until ctx is done.
func (m *Manager) StartPeriodicChecks(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.RunChecks(ctx)

	for {
		select {
		case <-ticker.C:
			m.RunChecks(ctx)
		case <-ctx.Done():
			m.logger.Debug("Stopping periodic health checks")
			return
		}
	}
}
