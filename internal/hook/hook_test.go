package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/maxvaer/nitpx/internal/result"
)

func TestExpand(t *testing.T) {
	r := NewRunner("notify {outcome} {route} {name} {percent} {diff}", false)
	res := &result.RouteResult{
		Route:    "/about",
		Name:     "_about",
		Outcome:  result.OutcomeFail,
		Percent:  1.5,
		DiffPath: "shots/_about_diff.png",
	}
	want := "notify FAIL /about _about 1.5000 shots/_about_diff.png"
	if got := r.expand(res); got != want {
		t.Errorf("expand() = %q, want %q", got, want)
	}
}

func TestWants(t *testing.T) {
	r := NewRunner("true", true)
	for outcome, want := range map[result.Outcome]bool{
		result.OutcomePass:    false,
		result.OutcomeSkipped: false,
		result.OutcomeFail:    true,
		result.OutcomeError:   true,
	} {
		if got := r.Wants(&result.RouteResult{Outcome: outcome}); got != want {
			t.Errorf("Wants(%s) = %v, want %v", outcome, got, want)
		}
	}
}

func TestRun_PayloadOnStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	out := filepath.Join(t.TempDir(), "payload.json")
	r := NewRunner("cat > "+out, true)
	var stderr bytes.Buffer
	r.stderr = &stderr

	r.Run(context.Background(), &result.RouteResult{
		Route:   "/pricing",
		Name:    "_pricing",
		Outcome: result.OutcomeError,
		Err:     &result.NavigationError{URL: "http://x/pricing", Err: errors.New("refused")},
	})

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("hook did not run: %v (stderr %q)", err, stderr.String())
	}
	var got resultJSON
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Route != "/pricing" || got.Outcome != "ERROR" || got.ErrorKind != "navigation" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if !strings.Contains(got.Error, "refused") {
		t.Errorf("error text missing: %q", got.Error)
	}
}

func TestRun_FailureReported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	r := NewRunner("exit 3", false)
	var stderr bytes.Buffer
	r.stderr = &stderr

	r.Run(context.Background(), &result.RouteResult{Route: "/", Outcome: result.OutcomeFail})
	if !strings.Contains(stderr.String(), "[hook] error") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
