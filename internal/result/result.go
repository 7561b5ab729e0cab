package result

import "time"

// Role names which origin a capture came from.
type Role string

const (
	RoleTrusted Role = "trusted"
	RoleTesting Role = "testing"
	RoleDiff    Role = "diff"
)

// Outcome is the single verdict a route ends with.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomeFail
	OutcomeSkipped
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "PASS"
	case OutcomeFail:
		return "FAIL"
	case OutcomeSkipped:
		return "SKIP"
	default:
		return "ERROR"
	}
}

// RouteResult holds the outcome of testing a single route.
type RouteResult struct {
	Route       string // normalized, always starts with "/"
	Name        string // filesystem token used for artifacts
	Outcome     Outcome
	Percent     float64 // percent difference, meaningful for Pass and Fail
	TrustedPath string
	TestingPath string
	DiffPath    string
	FastPath    bool   // captures were byte-identical
	Reason      string // skip reason
	Err         error
	Duration    time.Duration
}

// ErrorKind returns the kind of r.Err, or the empty string when r is not an
// error outcome.
func (r *RouteResult) ErrorKind() string {
	if r.Outcome != OutcomeError {
		return ""
	}
	return KindOf(r.Err).String()
}
