package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/maxvaer/nitpx/internal/result"
)

// Timeout bounds a single hook invocation.
const Timeout = 30 * time.Second

// resultJSON is the JSON payload sent to the hook command via stdin.
type resultJSON struct {
	Route       string  `json:"route"`
	Name        string  `json:"name"`
	Outcome     string  `json:"outcome"`
	Percent     float64 `json:"percent"`
	TrustedPath string  `json:"trusted,omitempty"`
	TestingPath string  `json:"testing,omitempty"`
	DiffPath    string  `json:"diff,omitempty"`
	ErrorKind   string  `json:"error_kind,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Runner executes a shell command for each failed or errored route.
type Runner struct {
	cmd    string
	quiet  bool
	stderr io.Writer
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet, stderr: os.Stderr}
}

// Wants reports whether the hook should fire for r.
func (r *Runner) Wants(res *result.RouteResult) bool {
	return res.Outcome == result.OutcomeFail || res.Outcome == result.OutcomeError
}

// Run executes the hook command with the route result as JSON on stdin.
// Placeholders {route}, {name}, {percent}, {diff} and {outcome} are
// substituted verbatim into the command line. Errors are printed but do not
// halt the run.
func (r *Runner) Run(ctx context.Context, res *result.RouteResult) {
	payload := resultJSON{
		Route:       res.Route,
		Name:        res.Name,
		Outcome:     res.Outcome.String(),
		Percent:     res.Percent,
		TrustedPath: res.TrustedPath,
		TestingPath: res.TestingPath,
		DiffPath:    res.DiffPath,
		ErrorKind:   res.ErrorKind(),
	}
	if res.Err != nil {
		payload.Error = res.Err.Error()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(r.stderr, "[hook] marshal error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.expand(res))...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = r.stderr

	output, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(r.stderr, "[hook] error: %v\n", err)
		}
		return
	}

	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(r.stderr, "[hook] %s", output)
	}
}

func (r *Runner) expand(res *result.RouteResult) string {
	return strings.NewReplacer(
		"{route}", res.Route,
		"{name}", res.Name,
		"{percent}", strconv.FormatFloat(res.Percent, 'f', 4, 64),
		"{diff}", res.DiffPath,
		"{outcome}", res.Outcome.String(),
	).Replace(r.cmd)
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
