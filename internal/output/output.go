package output

import (
	"time"

	"github.com/maxvaer/nitpx/internal/result"
)

// RunInfo describes a run before any route is tested.
type RunInfo struct {
	RunID     string
	Trusted   string
	Testing   string
	Threshold float64
	Routes    int
}

// Stats holds aggregate run statistics.
type Stats struct {
	Total         int
	Passed        int
	Failed        int
	Skipped       int
	Errors        int
	BytesCaptured int64
	Duration      time.Duration
}

// Add counts one route result.
func (s *Stats) Add(r *result.RouteResult) {
	s.Total++
	switch r.Outcome {
	case result.OutcomePass:
		s.Passed++
	case result.OutcomeFail:
		s.Failed++
	case result.OutcomeSkipped:
		s.Skipped++
	default:
		s.Errors++
	}
}

// Regressions reports whether any route failed or errored.
func (s Stats) Regressions() bool {
	return s.Failed > 0 || s.Errors > 0
}

// Writer is implemented by each output format.
type Writer interface {
	WriteHeader(info RunInfo) error
	WriteResult(result *result.RouteResult) error
	WriteFooter(stats Stats) error
	Close() error
}
