package filter

import (
	"fmt"
	"path"

	"github.com/maxvaer/nitpx/internal/routes"
)

// PatternFilter includes or excludes routes by path.Match glob. A '*' does
// not cross a '/', so "/blog/*" matches "/blog/a" but not "/blog/a/b".
type PatternFilter struct {
	include []string
	exclude []string
}

// NewPatternFilter creates a glob filter. If include is non-empty, only
// routes matching one of those patterns pass through. Routes matching an
// exclude pattern are filtered. Malformed patterns are rejected here so
// they cannot silently match nothing later.
func NewPatternFilter(include, exclude []string) (*PatternFilter, error) {
	f := &PatternFilter{}
	for _, p := range include {
		p = routes.Normalize(p)
		if _, err := path.Match(p, "/"); err != nil {
			return nil, fmt.Errorf("invalid route pattern %q: %w", p, err)
		}
		f.include = append(f.include, p)
	}
	for _, p := range exclude {
		p = routes.Normalize(p)
		if _, err := path.Match(p, "/"); err != nil {
			return nil, fmt.Errorf("invalid route pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, p)
	}
	return f, nil
}

func (f *PatternFilter) Name() string { return "pattern" }

func (f *PatternFilter) ShouldFilter(route string) bool {
	route = routes.Normalize(route)
	if len(f.include) > 0 && !matchAny(f.include, route) {
		return true // filter if NOT in include list
	}
	return matchAny(f.exclude, route)
}

func matchAny(patterns []string, route string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, route); ok {
			return true
		}
	}
	return false
}
