package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/maxvaer/nitpx/internal/result"
	"github.com/maxvaer/nitpx/internal/routes"
)

// ScrollbarJS pins the root scroll container's vertical scrollbar on.
const ScrollbarJS = "function() { this.style.overflowY = 'scroll' }"

const (
	DefaultNavTimeout     = 40 * time.Second
	DefaultElementTimeout = 40 * time.Second
	DefaultWindowWidth    = 1600
	DefaultWindowHeight   = 1000
)

// Config configures an Orchestrator.
type Config struct {
	// ScreenshotDir receives <name>_trusted.png and <name>_testing.png.
	ScreenshotDir string

	// Budget decides the settle delay before each screenshot.
	// Default: LinearBudget{Base: DefaultRenderBase}.
	Budget RenderBudget

	NavTimeout     time.Duration
	ElementTimeout time.Duration

	// WindowWidth and WindowHeight are the window size every origin starts
	// measuring from.
	WindowWidth  int
	WindowHeight int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}
	if c.Budget == nil {
		c.Budget = LinearBudget{Base: DefaultRenderBase, PixelsPerMicrosecond: DefaultPixelsPerMicrosecond}
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = DefaultNavTimeout
	}
	if c.ElementTimeout <= 0 {
		c.ElementTimeout = DefaultElementTimeout
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = DefaultWindowWidth
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = DefaultWindowHeight
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Orchestrator produces a pair of comparable captures for one route.
type Orchestrator struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator returns an Orchestrator with defaults filled in.
func NewOrchestrator(cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{cfg: cfg, sleep: sleepCtx}
}

// ScreenshotDir returns the directory captures are written to.
func (o *Orchestrator) ScreenshotDir() string { return o.cfg.ScreenshotDir }

// CapturePair renders route on the trusted origin and then on the testing
// origin in the same tab. The trusted capture, including its file, is
// complete before the testing origin is loaded. Any failure aborts the pair.
func (o *Orchestrator) CapturePair(ctx context.Context, trustedOrigin, testingOrigin, route string, tab Tab) (trusted, testing *Capture, err error) {
	trusted, err = o.capture(ctx, tab, trustedOrigin, route, result.RoleTrusted)
	if err != nil {
		return nil, nil, err
	}
	testing, err = o.capture(ctx, tab, testingOrigin, route, result.RoleTesting)
	if err != nil {
		return nil, nil, err
	}
	return trusted, testing, nil
}

func (o *Orchestrator) capture(ctx context.Context, tab Tab, origin, route string, role result.Role) (*Capture, error) {
	log := o.cfg.Logger.With("role", role, "route", route)
	url := routes.Join(origin, route)

	navCtx, cancel := context.WithTimeout(ctx, o.cfg.NavTimeout)
	err := tab.Navigate(navCtx, url)
	cancel()
	if err != nil {
		return nil, &result.NavigationError{URL: url, Timeout: o.cfg.NavTimeout, Err: err}
	}
	log.Debug("capture: navigated", "url", url)

	// Reset height too, or a tall window left by the previous page skews
	// the measurement.
	if err := o.setBounds(ctx, tab, Bounds{Width: Int(o.cfg.WindowWidth), Height: Int(o.cfg.WindowHeight)}); err != nil {
		return nil, err
	}

	html, err := o.waitFor(ctx, tab, url, "html")
	if err != nil {
		return nil, err
	}
	if err := html.CallJSFn(ctx, ScrollbarJS, false); err != nil {
		return nil, fmt.Errorf("pinning scrollbar on %s: %w", url, err)
	}

	body, err := o.waitFor(ctx, tab, url, "body")
	if err != nil {
		return nil, err
	}
	if err := body.MoveMouseOver(ctx); err != nil {
		return nil, fmt.Errorf("moving pointer over %s: %w", url, err)
	}

	box, err := html.BoxModel(ctx)
	if err != nil {
		return nil, &result.BoundsError{Bounds: "html box model", Err: err}
	}
	viewport := box.MarginViewport()

	// One extra pixel so sub-pixel rounding does not clip the bottom edge.
	// Width stays as set above.
	if err := o.setBounds(ctx, tab, Bounds{Height: Int(box.Height + 1)}); err != nil {
		return nil, err
	}

	delay := o.cfg.Budget.Delay(box.Area())
	log.Debug("capture: settling", "width", box.Width, "height", box.Height, "delay", delay)
	if err := o.sleep(ctx, delay); err != nil {
		return nil, fmt.Errorf("waiting for %s to render: %w", url, err)
	}

	png, err := tab.CaptureScreenshot(ctx, viewport)
	if err != nil {
		return nil, fmt.Errorf("capturing %s: %w", url, err)
	}

	path := routes.ArtifactPath(o.cfg.ScreenshotDir, route, role)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return nil, &result.ArtifactIOError{Op: "write", Path: path, Err: err}
	}
	log.Debug("capture: saved", "path", path, "bytes", len(png))

	return &Capture{
		Role:     role,
		URL:      url,
		Bytes:    png,
		Len:      len(png),
		Path:     path,
		Content:  box,
		Viewport: viewport,
	}, nil
}

func (o *Orchestrator) setBounds(ctx context.Context, tab Tab, b Bounds) error {
	if err := tab.SetBounds(ctx, b); err != nil {
		return &result.BoundsError{Bounds: b.String(), Err: err}
	}
	return nil
}

func (o *Orchestrator) waitFor(ctx context.Context, tab Tab, url, selector string) (Element, error) {
	elCtx, cancel := context.WithTimeout(ctx, o.cfg.ElementTimeout)
	defer cancel()
	el, err := tab.WaitForElement(elCtx, selector)
	if err != nil {
		return nil, &result.ElementNotFoundError{Selector: selector, URL: url, Err: err}
	}
	return el, nil
}
