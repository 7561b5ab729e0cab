package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/maxvaer/nitpx/internal/result"
)

type fakeElement struct {
	tab      *fakeTab
	selector string
}

func (e *fakeElement) BoxModel(ctx context.Context) (BoxModel, error) {
	e.tab.record("boxmodel " + e.selector)
	if e.tab.boxErr != nil {
		return BoxModel{}, e.tab.boxErr
	}
	return e.tab.boxes[e.tab.current], nil
}

func (e *fakeElement) CallJSFn(ctx context.Context, source string, awaitPromise bool) error {
	e.tab.record("js " + e.selector)
	e.tab.scripts = append(e.tab.scripts, source)
	return nil
}

func (e *fakeElement) MoveMouseOver(ctx context.Context) error {
	e.tab.record("hover " + e.selector)
	return nil
}

type fakeTab struct {
	calls   []string
	bounds  []string
	scripts []string
	current string
	boxes   map[string]BoxModel

	navErr    map[string]error
	boundsErr error
	boxErr    error
	missing   map[string]bool
	shotErr   error
}

func (f *fakeTab) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeTab) Navigate(ctx context.Context, url string) error {
	f.record("navigate " + url)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("navigate called without a deadline")
	}
	if err := f.navErr[url]; err != nil {
		return err
	}
	f.current = url
	return nil
}

func (f *fakeTab) SetBounds(ctx context.Context, b Bounds) error {
	f.record("bounds")
	f.bounds = append(f.bounds, b.String())
	return f.boundsErr
}

func (f *fakeTab) WaitForElement(ctx context.Context, selector string) (Element, error) {
	f.record("wait " + selector)
	if f.missing[selector] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &fakeElement{tab: f, selector: selector}, nil
}

func (f *fakeTab) CaptureScreenshot(ctx context.Context, clip Viewport) ([]byte, error) {
	f.record("screenshot")
	if f.shotErr != nil {
		return nil, f.shotErr
	}
	return []byte(fmt.Sprintf("png:%s:%gx%g", f.current, clip.Width, clip.Height)), nil
}

func box(w, h int) BoxModel {
	fw, fh := float64(w), float64(h)
	return BoxModel{Width: w, Height: h, Margin: Quad{0, 0, fw, 0, fw, fh, 0, fh}}
}

func newTestOrchestrator(t *testing.T, sleeps *[]time.Duration) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(Config{
		ScreenshotDir:  t.TempDir(),
		ElementTimeout: 50 * time.Millisecond,
	})
	o.sleep = func(ctx context.Context, d time.Duration) error {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
		return nil
	}
	return o
}

func TestCapturePair_Sequence(t *testing.T) {
	tab := &fakeTab{boxes: map[string]BoxModel{
		"http://trusted/about": box(1585, 3000),
		"http://testing/about": box(1585, 3200),
	}}
	var sleeps []time.Duration
	o := newTestOrchestrator(t, &sleeps)

	trusted, candidate, err := o.CapturePair(context.Background(), "http://trusted", "http://testing/", "/about", tab)
	if err != nil {
		t.Fatalf("CapturePair: %v", err)
	}

	perOrigin := func(url string) []string {
		return []string{
			"navigate " + url,
			"bounds",
			"wait html",
			"js html",
			"wait body",
			"hover body",
			"boxmodel html",
			"bounds",
			"screenshot",
		}
	}
	want := append(perOrigin("http://trusted/about"), perOrigin("http://testing/about")...)
	if diff := cmp.Diff(want, tab.calls); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}

	wantBounds := []string{
		"{width=1600 height=1000}",
		"{height=3001}",
		"{width=1600 height=1000}",
		"{height=3201}",
	}
	if diff := cmp.Diff(wantBounds, tab.bounds); diff != "" {
		t.Errorf("bounds mismatch (-want +got):\n%s", diff)
	}
	for _, s := range tab.scripts {
		if s != ScrollbarJS {
			t.Errorf("unexpected script %q", s)
		}
	}

	if trusted.Role != result.RoleTrusted || candidate.Role != result.RoleTesting {
		t.Errorf("roles = %s, %s", trusted.Role, candidate.Role)
	}
	if filepath.Base(trusted.Path) != "_about_trusted.png" || filepath.Base(candidate.Path) != "_about_testing.png" {
		t.Errorf("paths = %s, %s", trusted.Path, candidate.Path)
	}
	for _, c := range []*Capture{trusted, candidate} {
		data, err := os.ReadFile(c.Path)
		if err != nil {
			t.Fatalf("reading %s: %v", c.Path, err)
		}
		if string(data) != string(c.Bytes) || c.Len != len(c.Bytes) {
			t.Errorf("%s: file does not match returned bytes", c.Role)
		}
	}
	if candidate.Viewport.Height != 3200 {
		t.Errorf("testing viewport = %+v", candidate.Viewport)
	}

	base := DefaultRenderBase
	wantSleeps := []time.Duration{
		base + time.Duration(1585*3000/10)*time.Microsecond,
		base + time.Duration(1585*3200/10)*time.Microsecond,
	}
	if diff := cmp.Diff(wantSleeps, sleeps); diff != "" {
		t.Errorf("settle delays mismatch (-want +got):\n%s", diff)
	}
}

func TestCapturePair_HomepageNames(t *testing.T) {
	tab := &fakeTab{boxes: map[string]BoxModel{
		"http://a/": box(10, 10),
		"http://b/": box(10, 10),
	}}
	o := newTestOrchestrator(t, nil)

	trusted, candidate, err := o.CapturePair(context.Background(), "http://a", "http://b", "", tab)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(trusted.Path) != "HOMEPAGE_trusted.png" || filepath.Base(candidate.Path) != "HOMEPAGE_testing.png" {
		t.Errorf("paths = %s, %s", trusted.Path, candidate.Path)
	}
}

func TestCapturePair_NavigationFailure(t *testing.T) {
	tab := &fakeTab{
		boxes:  map[string]BoxModel{"http://trusted/x": box(10, 10)},
		navErr: map[string]error{"http://testing/x": errors.New("connection refused")},
	}
	o := newTestOrchestrator(t, nil)

	_, _, err := o.CapturePair(context.Background(), "http://trusted", "http://testing", "/x", tab)
	var nav *result.NavigationError
	if !errors.As(err, &nav) {
		t.Fatalf("expected NavigationError, got %v", err)
	}
	if nav.URL != "http://testing/x" || nav.Timeout != DefaultNavTimeout {
		t.Errorf("unexpected error fields: %+v", nav)
	}

	dir := o.ScreenshotDir()
	if _, err := os.Stat(filepath.Join(dir, "_x_trusted.png")); err != nil {
		t.Errorf("trusted capture should be on disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "_x_testing.png")); !os.IsNotExist(err) {
		t.Error("no testing file should be written for a failed capture")
	}
}

func TestCapturePair_FailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeTab)
		check func(error) bool
	}{
		{
			name:  "navigation",
			setup: func(f *fakeTab) { f.navErr = map[string]error{"http://trusted/p": context.DeadlineExceeded} },
			check: func(err error) bool { return result.KindOf(err) == result.KindNavigation },
		},
		{
			name:  "missing element",
			setup: func(f *fakeTab) { f.missing = map[string]bool{"body": true} },
			check: func(err error) bool {
				var e *result.ElementNotFoundError
				return errors.As(err, &e) && e.Selector == "body" && errors.Is(err, context.DeadlineExceeded)
			},
		},
		{
			name:  "bounds",
			setup: func(f *fakeTab) { f.boundsErr = errors.New("no window for target") },
			check: func(err error) bool { return result.KindOf(err) == result.KindBounds },
		},
		{
			name:  "box model",
			setup: func(f *fakeTab) { f.boxErr = errors.New("node detached") },
			check: func(err error) bool { return result.KindOf(err) == result.KindBounds },
		},
		{
			name:  "screenshot",
			setup: func(f *fakeTab) { f.shotErr = errors.New("target closed") },
			check: func(err error) bool { return err != nil && result.KindOf(err) == result.KindInternal },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := &fakeTab{boxes: map[string]BoxModel{"http://trusted/p": box(10, 10)}}
			tt.setup(tab)
			o := newTestOrchestrator(t, nil)

			_, _, err := o.CapturePair(context.Background(), "http://trusted", "http://testing", "/p", tab)
			if !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			entries, _ := os.ReadDir(o.ScreenshotDir())
			if len(entries) != 0 {
				t.Errorf("expected no files, found %d", len(entries))
			}
			for _, c := range tab.calls {
				if c == "navigate http://testing/p" {
					t.Error("testing origin loaded after trusted capture failed")
				}
			}
		})
	}
}

func TestCapturePair_CancelledDuringSettle(t *testing.T) {
	tab := &fakeTab{boxes: map[string]BoxModel{"http://trusted/p": box(10, 10)}}
	o := NewOrchestrator(Config{ScreenshotDir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	o.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepCtx(ctx, d)
	}

	_, _, err := o.CapturePair(ctx, "http://trusted", "http://testing", "/p", tab)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCapturePair_ArtifactWriteFailure(t *testing.T) {
	tab := &fakeTab{boxes: map[string]BoxModel{"http://trusted/p": box(10, 10)}}
	o := newTestOrchestrator(t, nil)
	o.cfg.ScreenshotDir = filepath.Join(o.cfg.ScreenshotDir, "does-not-exist")

	_, _, err := o.CapturePair(context.Background(), "http://trusted", "http://testing", "/p", tab)
	if result.KindOf(err) != result.KindArtifactIO {
		t.Fatalf("expected artifact error, got %v", err)
	}
}

func TestBoundsString(t *testing.T) {
	tests := []struct {
		b    Bounds
		want string
	}{
		{Bounds{}, "{}"},
		{Bounds{Height: Int(5)}, "{height=5}"},
		{Bounds{Left: Int(0), Top: Int(-3), Width: Int(1600), Height: Int(900)}, "{left=0 top=-3 width=1600 height=900}"},
	}
	for _, tt := range tests {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMarginViewport(t *testing.T) {
	m := BoxModel{Width: 100, Height: 50, Margin: Quad{8, 16, 124, 16, 124, 82, 8, 82}}
	want := Viewport{X: 8, Y: 16, Width: 116, Height: 66}
	if got := m.MarginViewport(); got != want {
		t.Errorf("MarginViewport() = %+v, want %+v", got, want)
	}
	if m.Area() != 5000 {
		t.Errorf("Area() = %d", m.Area())
	}
	if (BoxModel{Width: -1, Height: 10}).Area() != 0 {
		t.Error("negative size should have zero area")
	}
}
