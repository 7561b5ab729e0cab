package routes

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/maxvaer/nitpx/internal/result"
)

// HomepageName is the artifact token for the origin's root route.
const HomepageName = "HOMEPAGE"

// Normalize returns route with a single leading slash. The empty route and
// "/" both become "/".
func Normalize(route string) string {
	route = strings.TrimSpace(route)
	return "/" + strings.TrimLeft(route, "/")
}

// Join appends route to origin.
func Join(origin, route string) string {
	return strings.TrimRight(origin, "/") + Normalize(route)
}

// Name folds route into a filesystem-safe token. Every rune outside
// [a-z0-9._-] becomes '_'. The root route maps to HomepageName.
func Name(route string) string {
	trimmed := strings.TrimSpace(route)
	if trimmed == "" || trimmed == "/" || trimmed == HomepageName {
		return HomepageName
	}
	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range strings.ToLower(trimmed) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// ArtifactPath is where the screenshot for route and role lives under dir.
func ArtifactPath(dir, route string, role result.Role) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", Name(route), role))
}

// FromURL strips origin from an absolute page URL, leaving the route.
// URLs on another origin are returned unchanged with ok=false.
func FromURL(pageURL, origin string) (route string, ok bool) {
	base := strings.TrimRight(origin, "/")
	if pageURL == base {
		return "/", true
	}
	if !strings.HasPrefix(pageURL, base+"/") {
		return pageURL, false
	}
	return Normalize(strings.TrimPrefix(pageURL, base)), true
}
