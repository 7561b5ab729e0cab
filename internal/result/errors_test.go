package result

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindInternal},
		{"plain", errors.New("boom"), KindInternal},
		{"navigation", &NavigationError{URL: "http://x/", Timeout: time.Second, Err: context.DeadlineExceeded}, KindNavigation},
		{"element", &ElementNotFoundError{Selector: "html", Err: context.DeadlineExceeded}, KindElementNotFound},
		{"bounds", &BoundsError{Bounds: "1600x1000", Err: errors.New("no window")}, KindBounds},
		{"corrupt", &CorruptImageError{Role: RoleTrusted, Err: errors.New("bad header")}, KindCorruptImage},
		{"dimensions", &DimensionMismatchError{Trusted: image.Pt(1, 2), Testing: image.Pt(1, 3)}, KindDimensionMismatch},
		{"artifact", &ArtifactIOError{Op: "write", Path: "/tmp/x.png", Err: errors.New("disk full")}, KindArtifactIO},
		{"wrapped", fmt.Errorf("route /about: %w", &BoundsError{Err: errors.New("x")}), KindBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	err := &NavigationError{URL: "http://localhost:3000/", Timeout: 40 * time.Second, Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("NavigationError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "http://localhost:3000/") {
		t.Errorf("message missing URL: %s", err)
	}
}

func TestRouteResultErrorKind(t *testing.T) {
	r := &RouteResult{Outcome: OutcomeError, Err: &CorruptImageError{Role: RoleTesting, Err: errors.New("x")}}
	if got := r.ErrorKind(); got != "corrupt-image" {
		t.Errorf("ErrorKind = %q", got)
	}
	r = &RouteResult{Outcome: OutcomeFail, Percent: 3}
	if got := r.ErrorKind(); got != "" {
		t.Errorf("non-error outcome ErrorKind = %q", got)
	}
	if OutcomeSkipped.String() != "SKIP" || OutcomeError.String() != "ERROR" {
		t.Error("unexpected outcome labels")
	}
}
