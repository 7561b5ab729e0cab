package filter

// Filter decides whether a route should be skipped instead of captured.
type Filter interface {
	Name() string
	ShouldFilter(route string) bool
}

// Chain applies multiple filters in order, short-circuiting on the first match.
type Chain struct {
	filters []Filter
}

// NewChain returns an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Len reports how many filters are in the chain.
func (c *Chain) Len() int { return len(c.filters) }

// Apply runs every filter against the route. Returns true and the filter
// name if the route should be skipped.
func (c *Chain) Apply(route string) (bool, string) {
	for _, f := range c.filters {
		if f.ShouldFilter(route) {
			return true, f.Name()
		}
	}
	return false, ""
}
