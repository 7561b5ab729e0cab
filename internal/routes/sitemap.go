package routes

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// SitemapFetcher discovers routes from an origin's sitemap.xml.
type SitemapFetcher struct {
	client *http.Client
}

// NewSitemapFetcher returns a fetcher whose requests time out after timeout.
func NewSitemapFetcher(timeout time.Duration) *SitemapFetcher {
	return &SitemapFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch reads <origin>/sitemap.xml and returns the routes it lists on that
// origin. A sitemap index is followed one level deep.
func (f *SitemapFetcher) Fetch(ctx context.Context, origin string) ([]string, error) {
	body, err := f.get(ctx, Join(origin, "sitemap.xml"))
	if err != nil {
		return nil, err
	}

	locs, nested, err := parseSitemap(body)
	if err != nil {
		return nil, err
	}
	for _, loc := range nested {
		child, err := f.get(ctx, loc)
		if err != nil {
			return nil, err
		}
		childLocs, _, err := parseSitemap(child)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", loc, err)
		}
		locs = append(locs, childLocs...)
	}

	var found []string
	for _, loc := range locs {
		if route, ok := FromURL(loc, origin); ok {
			found = append(found, route)
		}
	}
	return dedupe(found), nil
}

func (f *SitemapFetcher) get(ctx context.Context, u string) ([]byte, error) {
	body, _, err := httpGet(ctx, f.client, u)
	return body, err
}

// httpGet fetches u and returns its body and Content-Type. Any status other
// than 200 is an error.
func httpGet(ctx context.Context, client *http.Client, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching %s: HTTP %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", u, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// parseSitemap returns page locations from a urlset, or nested sitemap
// locations from a sitemapindex.
func parseSitemap(data []byte) (locs, nested []string, err error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, nil, err
	}
	switch root {
	case "urlset":
		var set urlSet
		if err := xml.Unmarshal(data, &set); err != nil {
			return nil, nil, fmt.Errorf("sitemap: %w", err)
		}
		for _, u := range set.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				locs = append(locs, loc)
			}
		}
	case "sitemapindex":
		var idx sitemapIndex
		if err := xml.Unmarshal(data, &idx); err != nil {
			return nil, nil, fmt.Errorf("sitemap index: %w", err)
		}
		for _, s := range idx.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				nested = append(nested, loc)
			}
		}
	default:
		return nil, nil, fmt.Errorf("sitemap: unexpected root element <%s>", root)
	}
	return locs, nested, nil
}

func rootElement(data []byte) (string, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err != nil {
			return "", fmt.Errorf("sitemap: no root element: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return strings.ToLower(se.Name.Local), nil
		}
	}
}
