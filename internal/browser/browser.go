// Package browser launches or attaches to Chrome and hands out tabs that
// satisfy capture.Tab. Two drivers are available: go-rod (default) and
// chromedp.
package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maxvaer/nitpx/internal/capture"
)

// Driver names.
const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
)

// Config configures a browser session.
type Config struct {
	// Driver selects the CDP client library. Default: DriverRod.
	Driver string

	// RemoteURL is the DevTools WebSocket URL of an already running Chrome.
	// Empty = launch a local Chrome.
	RemoteURL string

	// Headless runs a local Chrome without a window. Headful mode helps when
	// diagnosing viewport bugs.
	Headless bool

	// Stealth patches navigator fingerprints on new tabs (rod only).
	Stealth bool

	// WindowWidth and WindowHeight size the launched window.
	// Default: 1600x1000.
	WindowWidth  int
	WindowHeight int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Driver == "" {
		c.Driver = DriverRod
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = capture.DefaultWindowWidth
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = capture.DefaultWindowHeight
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Tab is a capture.Tab that must be closed when the route is done.
type Tab interface {
	capture.Tab
	Close() error
}

// Session owns one browser process or connection.
type Session interface {
	// NewTab opens a blank tab.
	NewTab(ctx context.Context) (Tab, error)
	// Close shuts the browser down, or disconnects from a remote one.
	Close() error
}

// Open starts a session with the configured driver.
func Open(ctx context.Context, cfg Config) (Session, error) {
	cfg.defaults()
	switch cfg.Driver {
	case DriverRod:
		return openRod(ctx, cfg)
	case DriverChromedp:
		return openChromedp(ctx, cfg)
	default:
		return nil, fmt.Errorf("browser: unknown driver %q (want %s or %s)", cfg.Driver, DriverRod, DriverChromedp)
	}
}

// quadCenter returns the midpoint of a quad's diagonal.
func quadCenter(q capture.Quad) (x, y float64) {
	return (q[0] + q[4]) / 2, (q[1] + q[5]) / 2
}

func toQuad(src []float64) capture.Quad {
	var q capture.Quad
	copy(q[:], src)
	return q
}
