// Package config resolves nitpx settings from defaults, a YAML file,
// NITPX_* environment variables and command-line flags, in increasing order
// of precedence. The yaml tag of each Options field is its key in every
// source.
package config

import (
	"fmt"
	"strings"
	"time"
)

// RoutesSitemap tells the runner to discover routes from the trusted
// origin's sitemap.xml.
const RoutesSitemap = "sitemap"

// RoutesCrawl tells the runner to discover routes by following links from
// the trusted origin's homepage, CrawlDepth hops deep.
const RoutesCrawl = "crawl"

// Options holds all configuration for a nitpx run.
type Options struct {
	// Origins
	Trusted string `yaml:"trusted" json:"trusted"`
	Testing string `yaml:"testing" json:"testing"`

	// Routes
	Routes         string   `yaml:"routes" json:"routes"` // "sitemap", "crawl" or comma-separated routes
	RoutesFile     string   `yaml:"routes-file" json:"routes_file,omitempty"`
	CrawlDepth     int      `yaml:"crawl-depth" json:"crawl_depth"`
	Ignored        []string `yaml:"ignored" json:"ignored"`
	IgnorePatterns []string `yaml:"ignore-pattern" json:"ignore_pattern,omitempty"`
	OnlyPatterns   []string `yaml:"only-pattern" json:"only_pattern,omitempty"`

	// Comparison
	ScreenshotDir string  `yaml:"screenshots" json:"screenshots"`
	Threshold     float64 `yaml:"threshold" json:"threshold"` // percent

	// Browser
	Driver       string        `yaml:"driver" json:"driver"`
	RemoteURL    string        `yaml:"remote" json:"remote,omitempty"`
	Headless     bool          `yaml:"headless" json:"headless"`
	Stealth      bool          `yaml:"stealth" json:"stealth"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	RenderDelay  time.Duration `yaml:"render-delay" json:"render_delay"`
	WindowWidth  int           `yaml:"window-width" json:"window_width"`
	WindowHeight int           `yaml:"window-height" json:"window_height"`

	// Output
	OutputFile   string `yaml:"output" json:"output,omitempty"`
	OutputFormat string `yaml:"format" json:"format"` // "text", "json", "csv"
	Quiet        bool   `yaml:"quiet" json:"quiet"`
	NoColor      bool   `yaml:"no-color" json:"no_color"`
	SortBy       string `yaml:"sort" json:"sort,omitempty"`
	Tree         bool   `yaml:"tree" json:"tree"`
	Verbose      bool   `yaml:"verbose" json:"verbose"`

	// Hooks and resume
	OnFailCmd  string `yaml:"on-fail" json:"on_fail,omitempty"`
	ResumeFile string `yaml:"resume-file" json:"resume_file,omitempty"`
}

// Defaults returns the settings used when no source overrides them.
func Defaults() Options {
	return Options{
		Routes:        RoutesSitemap,
		CrawlDepth:    1,
		ScreenshotDir: "screenshots",
		Driver:        "rod",
		Headless:      true,
		Timeout:       40 * time.Second,
		RenderDelay:   500 * time.Millisecond,
		WindowWidth:   1600,
		WindowHeight:  1000,
		OutputFormat:  "text",
	}
}

// Validate normalizes origins and rejects settings the run cannot honor.
func (o *Options) Validate() error {
	if o.Trusted == "" || o.Testing == "" {
		return fmt.Errorf("both --trusted and --testing origins are required")
	}
	o.Trusted = withScheme(o.Trusted)
	o.Testing = withScheme(o.Testing)
	if strings.TrimRight(o.Trusted, "/") == strings.TrimRight(o.Testing, "/") {
		return fmt.Errorf("trusted and testing origins are the same (%s)", o.Trusted)
	}
	if o.Threshold < 0 || o.Threshold > 100 {
		return fmt.Errorf("--threshold must be a percentage between 0 and 100, got %g", o.Threshold)
	}
	switch o.Driver {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("--driver must be one of: rod, chromedp")
	}
	switch o.OutputFormat {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("--format must be one of: text, json, csv")
	}
	if o.SortBy != "" && o.SortBy != "route" && o.SortBy != "percent" && o.SortBy != "outcome" {
		return fmt.Errorf("--sort must be one of: route, percent, outcome")
	}
	if o.CrawlDepth < 0 {
		return fmt.Errorf("--crawl-depth must not be negative")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	if o.RenderDelay < 0 {
		return fmt.Errorf("--render-delay must not be negative")
	}
	if o.WindowWidth <= 0 || o.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", o.WindowWidth, o.WindowHeight)
	}
	if o.ScreenshotDir == "" {
		return fmt.Errorf("--screenshots must not be empty")
	}
	return nil
}

func withScheme(origin string) string {
	if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
		return "http://" + origin
	}
	return origin
}
