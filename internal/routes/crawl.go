package routes

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultCrawlLimit caps how many routes a crawl may discover.
const DefaultCrawlLimit = 500

// Extensions of linked files that are not pages.
var assetExt = map[string]struct{}{
	".css": {}, ".js": {}, ".mjs": {}, ".map": {}, ".json": {}, ".xml": {}, ".txt": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {}, ".ico": {}, ".avif": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {}, ".eot": {},
	".pdf": {}, ".zip": {}, ".gz": {}, ".tar": {}, ".mp4": {}, ".webm": {}, ".mp3": {},
}

// ExtractLinks returns the same-origin page routes linked from an HTML
// document served at pageURL, de-duplicated in document order. A <base href>
// changes how later relative links resolve. Query strings and fragments are
// dropped.
func ExtractLinks(body []byte, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	origin := base

	seen := make(map[string]struct{})
	var found []string

	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return found // io.EOF or malformed tail
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tok.DataAtom != atom.A && tok.DataAtom != atom.Base {
			continue
		}
		raw, ok := attr(tok, "href")
		if !ok {
			continue
		}

		if tok.DataAtom == atom.Base {
			if ref, err := url.Parse(raw); err == nil {
				base = origin.ResolveReference(ref)
			}
			continue
		}

		lower := strings.ToLower(raw)
		if strings.HasPrefix(lower, "javascript:") ||
			strings.HasPrefix(lower, "mailto:") ||
			strings.HasPrefix(lower, "tel:") ||
			strings.HasPrefix(lower, "data:") ||
			strings.HasPrefix(raw, "#") {
			continue
		}

		ref, err := url.Parse(raw)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Host != origin.Host || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			continue
		}
		if _, ok := assetExt[strings.ToLower(path.Ext(resolved.Path))]; ok {
			continue
		}

		route := Normalize(resolved.Path)
		if _, ok := seen[route]; !ok {
			seen[route] = struct{}{}
			found = append(found, route)
		}
	}
}

func attr(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val), true
		}
	}
	return "", false
}

// Crawler discovers routes by following links from an origin's homepage.
type Crawler struct {
	client   *http.Client
	maxDepth int
	limit    int
	log      *slog.Logger
}

// NewCrawler returns a crawler that finds routes at most depth link hops
// from the homepage. Depth 0 yields the homepage alone.
func NewCrawler(timeout time.Duration, depth int) *Crawler {
	return &Crawler{
		client:   &http.Client{Timeout: timeout},
		maxDepth: depth,
		limit:    DefaultCrawlLimit,
		log:      slog.Default(),
	}
}

// Crawl walks origin breadth-first and returns every page route it found,
// homepage first. Only a homepage failure is an error; other pages that
// cannot be read are skipped.
func (c *Crawler) Crawl(ctx context.Context, origin string) ([]string, error) {
	seen := map[string]struct{}{"/": {}}
	found := []string{"/"}
	frontier := []string{"/"}

	for depth := 0; len(frontier) > 0 && depth < c.maxDepth; depth++ {
		var next []string
		for _, route := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pageURL := Join(origin, route)
			body, ctype, err := httpGet(ctx, c.client, pageURL)
			if err != nil {
				if route == "/" {
					return nil, err
				}
				c.log.Debug("crawl: skipping page", "url", pageURL, "error", err)
				continue
			}
			if ctype != "" && !strings.Contains(strings.ToLower(ctype), "html") {
				continue
			}
			for _, link := range ExtractLinks(body, pageURL) {
				if _, ok := seen[link]; ok {
					continue
				}
				if len(found) >= c.limit {
					c.log.Warn("crawl: route limit reached", "limit", c.limit)
					return found, nil
				}
				seen[link] = struct{}{}
				found = append(found, link)
				next = append(next, link)
			}
		}
		frontier = next
	}
	return found, nil
}
