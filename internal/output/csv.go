package output

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/maxvaer/nitpx/internal/result"
)

// CSVWriter writes results in CSV format.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
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
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader(_ RunInfo) error {
	return c.w.Write([]string{"route", "name", "outcome", "percent", "diff", "reason", "error_kind", "error", "duration_ms"})
}

func (c *CSVWriter) WriteResult(r *result.RouteResult) error {
	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	return c.w.Write([]string{
		r.Route,
		r.Name,
		r.Outcome.String(),
		strconv.FormatFloat(r.Percent, 'f', -1, 64),
		r.DiffPath,
		r.Reason,
		r.ErrorKind(),
		errText,
		strconv.FormatInt(r.Duration.Milliseconds(), 10),
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
