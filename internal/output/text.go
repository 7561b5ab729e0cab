package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/maxvaer/nitpx/internal/result"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// TextWriter writes colored text output to a writer.
type TextWriter struct {
	w       io.Writer
	errw    io.Writer
	noColor bool
	quiet   bool
	tree    bool

	regressions []*result.RouteResult
	all         []*result.RouteResult
}

// NewTextWriter creates a text output writer. If outputFile is empty, stdout
// is used. noColor disables ANSI escape codes. tree adds a route tree to the
// footer.
func NewTextWriter(outputFile string, noColor, quiet, tree bool) (*TextWriter, error) {
	var w io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
	}
	return &TextWriter{w: w, errw: os.Stderr, noColor: noColor, quiet: quiet, tree: tree}, nil
}

func (t *TextWriter) WriteHeader(info RunInfo) error {
	if t.quiet {
		return nil
	}
	dim := "\033[2m"
	reset := colorReset
	if t.noColor {
		dim = ""
		reset = ""
	}
	_, err := fmt.Fprintf(t.w, "%sResult   Diff %%  Route%s\n", dim, reset)
	return err
}

func (t *TextWriter) WriteResult(r *result.RouteResult) error {
	cpy := *r
	if r.Outcome == result.OutcomeFail || r.Outcome == result.OutcomeError {
		t.regressions = append(t.regressions, &cpy)
	}
	if t.tree {
		t.all = append(t.all, &cpy)
	}

	color := t.colorForOutcome(r.Outcome)
	reset := colorReset
	if t.noColor {
		color = ""
		reset = ""
	}

	detail := ""
	switch r.Outcome {
	case result.OutcomeFail:
		detail = fmt.Sprintf(" (see %s)", r.DiffPath)
	case result.OutcomeSkipped:
		detail = fmt.Sprintf(" [%s]", r.Reason)
	case result.OutcomeError:
		detail = fmt.Sprintf(" [%s] %v", r.ErrorKind(), r.Err)
	}

	pct := "       -"
	if r.Outcome == result.OutcomePass || r.Outcome == result.OutcomeFail {
		pct = fmt.Sprintf("%8.4f", r.Percent)
	}

	_, err := fmt.Fprintf(t.w, "%s%-5s%s  %s  %s%s\n",
		color, r.Outcome, reset,
		pct,
		r.Route,
		detail,
	)
	return err
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	if t.quiet {
		return nil
	}
	if t.tree {
		PrintTree(t.errw, t.all)
	}

	if len(t.regressions) > 0 {
		tw := table.NewWriter()
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Route", "Result", "Diff %", "Detail"})
		for _, r := range t.regressions {
			pct, detail := "-", r.DiffPath
			if r.Outcome == result.OutcomeFail {
				pct = fmt.Sprintf("%.4f", r.Percent)
			} else {
				detail = r.ErrorKind()
			}
			tw.AppendRow(table.Row{r.Route, r.Outcome, pct, detail})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, Align: text.AlignRight},
			{Number: 4, WidthMax: 60},
		})
		if _, err := fmt.Fprintf(t.errw, "\n%s\n", tw.Render()); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(t.errw,
		"\nCompleted: %d routes | Passed: %d | Failed: %d | Skipped: %d | Errors: %d | Captured: %s | Duration: %s\n",
		stats.Total,
		stats.Passed,
		stats.Failed,
		stats.Skipped,
		stats.Errors,
		humanize.Bytes(uint64(stats.BytesCaptured)),
		stats.Duration.Round(time.Millisecond),
	)
	return err
}

func (t *TextWriter) Close() error {
	if closer, ok := t.w.(io.Closer); ok && t.w != os.Stdout {
		return closer.Close()
	}
	return nil
}

func (t *TextWriter) colorForOutcome(o result.Outcome) string {
	if t.noColor {
		return ""
	}
	switch o {
	case result.OutcomePass:
		return colorGreen
	case result.OutcomeSkipped:
		return colorCyan
	case result.OutcomeFail:
		return colorRed
	case result.OutcomeError:
		return colorYellow
	default:
		return ""
	}
}
