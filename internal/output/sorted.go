package output

import (
	"sort"

	"github.com/maxvaer/nitpx/internal/result"
)

// outcomeRank orders outcomes worst first.
var outcomeRank = map[result.Outcome]int{
	result.OutcomeError:   0,
	result.OutcomeFail:    1,
	result.OutcomeSkipped: 2,
	result.OutcomePass:    3,
}

// SortedWriter buffers results and replays them sorted by a field when
// WriteFooter is called. It wraps any other Writer.
type SortedWriter struct {
	inner   Writer
	sortBy  string
	results []*result.RouteResult
}

// NewSortedWriter wraps inner and buffers results for sorted replay.
func NewSortedWriter(inner Writer, sortBy string) *SortedWriter {
	return &SortedWriter{inner: inner, sortBy: sortBy}
}

func (w *SortedWriter) WriteHeader(info RunInfo) error {
	return w.inner.WriteHeader(info)
}

func (w *SortedWriter) WriteResult(r *result.RouteResult) error {
	cpy := *r
	w.results = append(w.results, &cpy)
	return nil
}

func (w *SortedWriter) WriteFooter(stats Stats) error {
	sort.SliceStable(w.results, func(i, j int) bool {
		a, b := w.results[i], w.results[j]
		switch w.sortBy {
		case "route":
			return a.Route < b.Route
		case "percent":
			return a.Percent > b.Percent // largest difference first
		case "outcome":
			return outcomeRank[a.Outcome] < outcomeRank[b.Outcome]
		default:
			return false
		}
	})
	for _, r := range w.results {
		if err := w.inner.WriteResult(r); err != nil {
			return err
		}
	}
	return w.inner.WriteFooter(stats)
}

func (w *SortedWriter) Close() error {
	return w.inner.Close()
}
