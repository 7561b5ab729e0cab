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

func TestSitemapFetcher_URLSet(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sitemap.xml" {
			w.WriteHeader(404)
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/</loc></url>
  <url><loc>%[1]s/blog</loc></url>
  <url><loc> %[1]s/blog </loc></url>
  <url><loc>https://elsewhere.example/blog</loc></url>
</urlset>`, srv.URL)
	}))
	defer srv.Close()

	got, err := NewSitemapFetcher(5*time.Second).Fetch(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := []string{"/", "/blog"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestSitemapFetcher_Index(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.xml":
			fmt.Fprintf(w, `<sitemapindex><sitemap><loc>%s/pages.xml</loc></sitemap></sitemapindex>`, srv.URL)
		case "/pages.xml":
			fmt.Fprintf(w, `<urlset><url><loc>%s/docs/start</loc></url></urlset>`, srv.URL)
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	got, err := NewSitemapFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if diff := cmp.Diff([]string{"/docs/start"}, got); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestSitemapFetcher_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sitemap.xml" {
			fmt.Fprint(w, `<html><body>not a sitemap</body></html>`)
			return
		}
		w.WriteHeader(500)
	}))
	defer srv.Close()

	if _, err := NewSitemapFetcher(5*time.Second).Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected error for non-sitemap root element")
	}

	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()
	if _, err := NewSitemapFetcher(5*time.Second).Fetch(context.Background(), missing.URL); err == nil {
		t.Error("expected error for missing sitemap")
	}
}
