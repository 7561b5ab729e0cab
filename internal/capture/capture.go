// Package capture drives a browser tab through the resize, settle and
// screenshot sequence that makes a trusted and a testing render of the same
// route comparable pixel for pixel.
package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/maxvaer/nitpx/internal/result"
)

// Element is a DOM node resolved in a Tab.
type Element interface {
	// BoxModel returns the node's laid-out content size and margin quad.
	BoxModel(ctx context.Context) (BoxModel, error)
	// CallJSFn invokes source as a function with the node bound to this.
	CallJSFn(ctx context.Context, source string, awaitPromise bool) error
	// MoveMouseOver moves the pointer to the center of the node.
	MoveMouseOver(ctx context.Context) error
}

// Tab is the subset of browser remote control the orchestrator needs.
// Implementations live in internal/browser.
type Tab interface {
	// Navigate loads url and returns once the page has fired load.
	Navigate(ctx context.Context, url string) error
	// SetBounds resizes the window hosting the tab. Nil fields are left
	// unchanged.
	SetBounds(ctx context.Context, b Bounds) error
	// WaitForElement blocks until selector matches a node.
	WaitForElement(ctx context.Context, selector string) (Element, error)
	// CaptureScreenshot returns an opaque PNG of the clip region, taken
	// from the compositor surface.
	CaptureScreenshot(ctx context.Context, clip Viewport) ([]byte, error)
}

// Bounds is a partial window geometry in CSS pixels.
type Bounds struct {
	Left   *int
	Top    *int
	Width  *int
	Height *int
}

// Int returns a pointer to v, for building Bounds literals.
func Int(v int) *int { return &v }

func (b Bounds) String() string {
	var parts []string
	add := func(name string, v *int) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%d", name, *v))
		}
	}
	add("left", b.Left)
	add("top", b.Top)
	add("width", b.Width)
	add("height", b.Height)
	if len(parts) == 0 {
		return "{}"
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Viewport is a capture clip rectangle.
type Viewport struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Quad holds four x,y corner points, clockwise from the top left.
type Quad [8]float64

// BoxModel is the rendered geometry of an element.
type BoxModel struct {
	Width  int
	Height int
	Margin Quad
}

// MarginViewport returns the rectangle covered by the margin box.
func (m BoxModel) MarginViewport() Viewport {
	q := m.Margin
	return Viewport{
		X:      q[0],
		Y:      q[1],
		Width:  q[2] - q[0],
		Height: q[5] - q[1],
	}
}

// Area is the content area in square pixels.
func (m BoxModel) Area() uint64 {
	if m.Width <= 0 || m.Height <= 0 {
		return 0
	}
	return uint64(m.Width) * uint64(m.Height)
}

// Capture is one encoded screenshot of a route on one origin.
type Capture struct {
	Role     result.Role
	URL      string
	Bytes    []byte
	Len      int
	Path     string
	Content  BoxModel
	Viewport Viewport
}
