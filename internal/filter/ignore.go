package filter

import "github.com/maxvaer/nitpx/internal/routes"

// IgnoreFilter skips an exact set of routes. Routes are compared in
// normalized form, so "blog", "/blog" and "//blog" are the same entry.
type IgnoreFilter struct {
	ignored map[string]struct{}
}

// NewIgnoreFilter creates a filter for the given routes.
func NewIgnoreFilter(ignored []string) *IgnoreFilter {
	f := &IgnoreFilter{ignored: make(map[string]struct{}, len(ignored))}
	for _, r := range ignored {
		f.ignored[routes.Normalize(r)] = struct{}{}
	}
	return f
}

func (f *IgnoreFilter) Name() string { return "ignored" }

func (f *IgnoreFilter) ShouldFilter(route string) bool {
	_, ok := f.ignored[routes.Normalize(route)]
	return ok
}
