package routes

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/maxvaer/nitpx/internal/result"
)

func TestName(t *testing.T) {
	tests := []struct {
		route string
		want  string
	}{
		{"", HomepageName},
		{"/", HomepageName},
		{"  ", HomepageName},
		{"/blog", "_blog"},
		{"/Blog/Post-1", "_blog_post-1"},
		{"/docs/v1.2/", "_docs_v1.2_"},
		{"/search?q=a b", "_search_q_a_b"},
		{"_blog", "_blog"},
		{HomepageName, HomepageName},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			if got := Name(tt.route); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.route, got, tt.want)
			}
		})
	}
}

func TestNameIdempotentAndSlashFree(t *testing.T) {
	for _, route := range []string{"", "/", "/a/b/c", "/UPPER/case", "/x.y/z", "/%20/weird#frag"} {
		once := Name(route)
		if strings.Contains(once, "/") {
			t.Errorf("Name(%q) = %q contains a slash", route, once)
		}
		if twice := Name(once); twice != once {
			t.Errorf("Name(Name(%q)) = %q, want %q", route, twice, once)
		}
	}
}

func TestNormalizeAndJoin(t *testing.T) {
	if got := Normalize(""); got != "/" {
		t.Errorf("Normalize(\"\") = %q", got)
	}
	if got := Normalize("blog"); got != "/blog" {
		t.Errorf("Normalize(blog) = %q", got)
	}
	if got := Normalize("//blog"); got != "/blog" {
		t.Errorf("Normalize(//blog) = %q", got)
	}
	if got := Join("https://example.com/", "blog"); got != "https://example.com/blog" {
		t.Errorf("Join = %q", got)
	}
	if got := Join("https://example.com", ""); got != "https://example.com/" {
		t.Errorf("Join homepage = %q", got)
	}
}

func TestArtifactPath(t *testing.T) {
	got := ArtifactPath("/tmp/shots", "/blog", result.RoleDiff)
	want := filepath.Join("/tmp/shots", "_blog_diff.png")
	if got != want {
		t.Errorf("ArtifactPath = %q, want %q", got, want)
	}
	got = ArtifactPath("/tmp/shots", "", result.RoleTrusted)
	want = filepath.Join("/tmp/shots", "HOMEPAGE_trusted.png")
	if got != want {
		t.Errorf("ArtifactPath = %q, want %q", got, want)
	}
}

func TestFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://example.com/", "/", true},
		{"https://example.com", "/", true},
		{"https://example.com/blog/post", "/blog/post", true},
		{"https://other.com/blog", "https://other.com/blog", false},
		{"https://example.com.evil.com/x", "https://example.com.evil.com/x", false},
	}
	for _, tt := range tests {
		got, ok := FromURL(tt.url, "https://example.com/")
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FromURL(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}
