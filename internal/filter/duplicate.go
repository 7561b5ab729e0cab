package filter

import "github.com/maxvaer/nitpx/internal/routes"

// DuplicateFilter skips a route whose artifact name was already claimed by
// a different route earlier in the run. "/About" and "/about" both fold to
// "_about", and capturing both would overwrite the first route's files.
//
// The first route to claim a name always passes, and so does a repeat of
// that same route.
type DuplicateFilter struct {
	owners map[string]string // artifact name -> normalized route
}

// NewDuplicateFilter returns an empty collision tracker.
func NewDuplicateFilter() *DuplicateFilter {
	return &DuplicateFilter{owners: make(map[string]string)}
}

func (d *DuplicateFilter) Name() string { return "duplicate" }

func (d *DuplicateFilter) ShouldFilter(route string) bool {
	route = routes.Normalize(route)
	name := routes.Name(route)
	owner, ok := d.owners[name]
	if !ok {
		d.owners[name] = route
		return false
	}
	return owner != route
}
