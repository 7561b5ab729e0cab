package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/maxvaer/nitpx/internal/result"
)

type jsonEntry struct {
	Route       string  `json:"route"`
	Name        string  `json:"name"`
	Outcome     string  `json:"outcome"`
	Percent     float64 `json:"percent"`
	FastPath    bool    `json:"fast_path,omitempty"`
	TrustedPath string  `json:"trusted,omitempty"`
	TestingPath string  `json:"testing,omitempty"`
	DiffPath    string  `json:"diff,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	ErrorKind   string  `json:"error_kind,omitempty"`
	Error       string  `json:"error,omitempty"`
	DurationMS  int64   `json:"duration_ms"`
}

type jsonSummary struct {
	Total         int   `json:"total"`
	Passed        int   `json:"passed"`
	Failed        int   `json:"failed"`
	Skipped       int   `json:"skipped"`
	Errors        int   `json:"errors"`
	BytesCaptured int64 `json:"bytes_captured"`
	DurationMS    int64 `json:"duration_ms"`
}

type jsonReport struct {
	RunID     string      `json:"run_id"`
	Trusted   string      `json:"trusted"`
	Testing   string      `json:"testing"`
	Threshold float64     `json:"threshold"`
	Summary   jsonSummary `json:"summary"`
	Results   []jsonEntry `json:"results"`
}

// JSONWriter writes the whole run as a single JSON document.
type JSONWriter struct {
	w      io.Writer
	closer io.Closer
	report jsonReport
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
	}
	return &JSONWriter{w: w, closer: closer, report: jsonReport{Results: []jsonEntry{}}}, nil
}

func (j *JSONWriter) WriteHeader(info RunInfo) error {
	j.report.RunID = info.RunID
	j.report.Trusted = info.Trusted
	j.report.Testing = info.Testing
	j.report.Threshold = info.Threshold
	return nil
}

func (j *JSONWriter) WriteResult(r *result.RouteResult) error {
	e := jsonEntry{
		Route:       r.Route,
		Name:        r.Name,
		Outcome:     r.Outcome.String(),
		Percent:     r.Percent,
		FastPath:    r.FastPath,
		TrustedPath: r.TrustedPath,
		TestingPath: r.TestingPath,
		DiffPath:    r.DiffPath,
		Reason:      r.Reason,
		ErrorKind:   r.ErrorKind(),
		DurationMS:  r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	j.report.Results = append(j.report.Results, e)
	return nil
}

func (j *JSONWriter) WriteFooter(stats Stats) error {
	j.report.Summary = jsonSummary{
		Total:         stats.Total,
		Passed:        stats.Passed,
		Failed:        stats.Failed,
		Skipped:       stats.Skipped,
		Errors:        stats.Errors,
		BytesCaptured: stats.BytesCaptured,
		DurationMS:    stats.Duration.Milliseconds(),
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.report)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
