package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "relative and absolute",
			body: `<a href="/admin">Admin</a> <a href="login">Login</a> <a class="x" href='http://example.com/docs/'>Docs</a>`,
			want: []string{"/admin", "/section/login", "/docs/"},
		},
		{
			name: "cross origin rejected",
			body: `<a href="https://other.com/page">External</a>`,
		},
		{
			name: "non-http schemes rejected",
			body: `<a href="javascript:alert(1)">x</a> <a href="mailto:a@b.com">m</a> <a href="tel:123">t</a> <a href="data:text/html,hi">d</a>`,
		},
		{
			name: "fragment only rejected",
			body: `<a href="#section">Jump</a>`,
		},
		{
			name: "query and fragment dropped, duplicates folded",
			body: `<a href="/page?a=1">1</a> <a href="/page#top">2</a> <a href="/page">3</a>`,
			want: []string{"/page"},
		},
		{
			name: "base href moves relative links",
			body: `<head><base href="/docs/v2/"></head><a href="intro">Intro</a> <a href="/faq">FAQ</a>`,
			want: []string{"/docs/v2/intro", "/faq"},
		},
		{
			name: "anchors without href and uppercase tags",
			body: `<a name="top">top</a> <A HREF="/Pricing">Pricing</A>`,
			want: []string{"/Pricing"},
		},
		{
			name: "assets and non-anchor sources ignored",
			body: `<a href="/report.pdf">pdf</a> <img src="/logo.png"> <script src="/app.js"></script> <form action="/submit"></form> <a href="/about.html">about</a>`,
			want: []string{"/about.html"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLinks([]byte(tt.body), "http://example.com/section/")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("links mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCrawler(t *testing.T) {
	pages := map[string]string{
		"/":           `<a href="/about">About</a> <a href="/blog">Blog</a>`,
		"/about":      `<a href="/">Home</a> <a href="/team">Team</a>`,
		"/blog":       `<a href="/blog/first">First</a>`,
		"/team":       `<a href="/deep">Deep</a>`,
		"/blog/first": `no links`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	tests := []struct {
		depth int
		want  []string
	}{
		{depth: 0, want: []string{"/"}},
		{depth: 1, want: []string{"/", "/about", "/blog"}},
		{depth: 2, want: []string{"/", "/about", "/blog", "/team", "/blog/first"}},
		{depth: 3, want: []string{"/", "/about", "/blog", "/team", "/blog/first", "/deep"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("depth %d", tt.depth), func(t *testing.T) {
			got, err := NewCrawler(5*time.Second, tt.depth).Crawl(context.Background(), srv.URL)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("routes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCrawlerLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 20; i++ {
			fmt.Fprintf(w, `<a href="/p%d">p</a>`, i)
		}
	}))
	defer srv.Close()

	c := NewCrawler(5*time.Second, 3)
	c.limit = 5
	got, err := c.Crawl(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 {
		t.Errorf("got %d routes, want the limit of 5: %v", len(got), got)
	}
}

func TestCrawlerHomepageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewCrawler(5*time.Second, 1).Crawl(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error when the homepage cannot be read")
	}
}
