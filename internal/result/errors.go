package result

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// Kind classifies why a route could not produce a verdict.
type Kind int

const (
	KindInternal Kind = iota
	KindNavigation
	KindElementNotFound
	KindBounds
	KindCorruptImage
	KindDimensionMismatch
	KindArtifactIO
)

func (k Kind) String() string {
	switch k {
	case KindNavigation:
		return "navigation"
	case KindElementNotFound:
		return "element-not-found"
	case KindBounds:
		return "bounds"
	case KindCorruptImage:
		return "corrupt-image"
	case KindDimensionMismatch:
		return "dimension-mismatch"
	case KindArtifactIO:
		return "artifact-io"
	default:
		return "internal"
	}
}

// Error is implemented only by the error types in this package.
type Error interface {
	error
	Kind() Kind
	routeError()
}

// KindOf returns the Kind of the first Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var re Error
	if errors.As(err, &re) {
		return re.Kind()
	}
	return KindInternal
}

// NavigationError means a page could not be loaded within the timeout.
type NavigationError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigating to %s (timeout %s): %v", e.URL, e.Timeout, e.Err)
}
func (e *NavigationError) Unwrap() error { return e.Err }
func (e *NavigationError) Kind() Kind    { return KindNavigation }
func (e *NavigationError) routeError()   {}

// ElementNotFoundError means a required DOM element never appeared.
type ElementNotFoundError struct {
	Selector string
	URL      string
	Err      error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("waiting for %q on %s: %v", e.Selector, e.URL, e.Err)
}
func (e *ElementNotFoundError) Unwrap() error { return e.Err }
func (e *ElementNotFoundError) Kind() Kind    { return KindElementNotFound }
func (e *ElementNotFoundError) routeError()   {}

// BoundsError means the browser rejected a window bounds or box model request.
type BoundsError struct {
	Bounds string
	Err    error
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("bounds %s: %v", e.Bounds, e.Err)
}
func (e *BoundsError) Unwrap() error { return e.Err }
func (e *BoundsError) Kind() Kind    { return KindBounds }
func (e *BoundsError) routeError()   {}

// CorruptImageError means a capture could not be decoded.
type CorruptImageError struct {
	Role Role
	Err  error
}

func (e *CorruptImageError) Error() string {
	return fmt.Sprintf("decoding %s image: %v", e.Role, e.Err)
}
func (e *CorruptImageError) Unwrap() error { return e.Err }
func (e *CorruptImageError) Kind() Kind    { return KindCorruptImage }
func (e *CorruptImageError) routeError()   {}

// DimensionMismatchError means the two captures are not the same size.
// Captures are sized identically by construction, so this signals a bug.
type DimensionMismatchError struct {
	Trusted image.Point
	Testing image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image dimensions differ: trusted=%dx%d testing=%dx%d",
		e.Trusted.X, e.Trusted.Y, e.Testing.X, e.Testing.Y)
}
func (e *DimensionMismatchError) Kind() Kind  { return KindDimensionMismatch }
func (e *DimensionMismatchError) routeError() {}

// ArtifactIOError means reading or writing a screenshot file failed.
type ArtifactIOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *ArtifactIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}
func (e *ArtifactIOError) Unwrap() error { return e.Err }
func (e *ArtifactIOError) Kind() Kind    { return KindArtifactIO }
func (e *ArtifactIOError) routeError()   {}
