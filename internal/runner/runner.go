package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maxvaer/nitpx/internal/browser"
	"github.com/maxvaer/nitpx/internal/capture"
	"github.com/maxvaer/nitpx/internal/config"
	"github.com/maxvaer/nitpx/internal/diff"
	"github.com/maxvaer/nitpx/internal/filter"
	"github.com/maxvaer/nitpx/internal/hook"
	"github.com/maxvaer/nitpx/internal/output"
	"github.com/maxvaer/nitpx/internal/result"
	"github.com/maxvaer/nitpx/internal/resume"
	"github.com/maxvaer/nitpx/internal/routes"
	"github.com/maxvaer/nitpx/pkg/version"
)

// ErrRegressions is returned by Run when at least one route failed or
// could not be tested.
var ErrRegressions = errors.New("visual regressions found")

// openBrowser starts the browser session. Tests replace it with a fake.
var openBrowser = browser.Open

// Run tests every route of the trusted origin against the testing origin,
// one route at a time, and reports each outcome through the configured
// writer. opts must already be validated.
func Run(ctx context.Context, opts *config.Options) error {
	logger := slog.Default()

	// 1. Resolve routes.
	list, err := resolveRoutes(ctx, opts)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no routes to test")
	}

	// 2. Build filter chain.
	chain, err := buildChain(opts)
	if err != nil {
		return err
	}

	// 3. Resume support.
	runID := uuid.NewString()
	var resumeState *resume.State
	if opts.ResumeFile != "" {
		existing, err := resume.Load(opts.ResumeFile)
		if err != nil {
			return fmt.Errorf("loading resume file: %w", err)
		}
		if existing != nil && existing.Matches(opts.Trusted, opts.Testing) {
			resumeState = existing
			before := len(list)
			list = resumeState.FilterRemaining(list)
			if !opts.Quiet {
				fmt.Fprintf(os.Stderr, "[+] Resuming run %s: skipping %d already completed routes\n", existing.RunID, before-len(list))
			}
		} else {
			resumeState = resume.New(opts.ResumeFile, opts.Trusted, opts.Testing, len(list))
		}
		runID = resumeState.RunID
	}

	if len(list) == 0 {
		if !opts.Quiet {
			fmt.Fprintf(os.Stderr, "[+] All routes already completed\n")
		}
		_ = resumeState.Remove()
		return nil
	}

	if err := os.MkdirAll(opts.ScreenshotDir, 0755); err != nil {
		return fmt.Errorf("creating screenshot directory: %w", err)
	}

	// 4. Create output writer.
	out, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer out.Close()

	info := output.RunInfo{
		RunID:     runID,
		Trusted:   opts.Trusted,
		Testing:   opts.Testing,
		Threshold: opts.Threshold,
		Routes:    len(list),
	}
	if err := out.WriteHeader(info); err != nil {
		return err
	}

	// 5. Print banner.
	if !opts.Quiet {
		printBanner(opts, runID, len(list))
	}

	// 6. Wire the route tester, hook and pause toggle.
	rt := &routeTester{
		opts:  opts,
		chain: chain,
		orch: capture.NewOrchestrator(capture.Config{
			ScreenshotDir: opts.ScreenshotDir,
			Budget: capture.LinearBudget{
				Base:                 opts.RenderDelay,
				PixelsPerMicrosecond: capture.DefaultPixelsPerMicrosecond,
			},
			NavTimeout:     opts.Timeout,
			ElementTimeout: opts.Timeout,
			WindowWidth:    opts.WindowWidth,
			WindowHeight:   opts.WindowHeight,
			Logger:         logger,
		}),
		browser: browser.Config{
			Driver:       opts.Driver,
			RemoteURL:    opts.RemoteURL,
			Headless:     opts.Headless,
			Stealth:      opts.Stealth,
			WindowWidth:  opts.WindowWidth,
			WindowHeight: opts.WindowHeight,
			Logger:       logger,
		},
		log: logger,
	}
	defer rt.close()

	var hookRunner *hook.Runner
	if opts.OnFailCmd != "" {
		hookRunner = hook.NewRunner(opts.OnFailCmd, opts.Quiet)
	}

	pauser, restoreTerminal := startStdinToggle(opts.Quiet)
	defer restoreTerminal()

	// 7. Test routes in order.
	progress := output.NewProgress(len(list), opts.Quiet)
	progress.Start()
	startTime := time.Now()

	var stats output.Stats
	for _, route := range list {
		if pauser != nil {
			if err := pauser.WaitContext(ctx); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		progress.SetCurrent(route)
		res, err := rt.test(ctx, route)
		if err != nil {
			progress.Stop()
			return err
		}
		// An interrupted route is not recorded so a resumed run retries it.
		if ctx.Err() != nil {
			break
		}

		stats.Add(res)
		progress.Increment()
		switch res.Outcome {
		case result.OutcomeFail:
			progress.IncrementFailed()
		case result.OutcomeError:
			progress.IncrementErrors()
		}

		progress.ClearLine()
		err = out.WriteResult(res)
		progress.Redraw()
		if err != nil {
			progress.Stop()
			return err
		}

		if hookRunner != nil && hookRunner.Wants(res) {
			hookRunner.Run(ctx, res)
		}

		if resumeState != nil {
			resumeState.MarkCompleted(route)
			if err := resumeState.Save(); err != nil {
				logger.Warn("saving resume state", "path", opts.ResumeFile, "error", err)
			}
		}
	}

	progress.Stop()

	// 8. Write footer.
	stats.Duration = time.Since(startTime)
	stats.BytesCaptured = rt.captured

	if err := ctx.Err(); err != nil {
		if resumeState != nil {
			_ = resumeState.Save()
			fmt.Fprintf(os.Stderr, "\n[*] Progress saved to %s, resume with --resume-file\n", opts.ResumeFile)
		}
		_ = out.WriteFooter(stats)
		return err
	}

	if resumeState != nil {
		_ = resumeState.Remove()
	}

	if err := out.WriteFooter(stats); err != nil {
		return err
	}
	if stats.Regressions() {
		return ErrRegressions
	}
	return nil
}

// routeTester turns one route into one RouteResult. The browser is started
// on the first route that needs a capture.
type routeTester struct {
	opts     *config.Options
	chain    *filter.Chain
	orch     *capture.Orchestrator
	browser  browser.Config
	session  browser.Session
	captured int64
	log      *slog.Logger
}

// test returns an error only when the run cannot continue at all. Every
// per-route problem is reported as an OutcomeError result instead.
func (t *routeTester) test(ctx context.Context, route string) (*result.RouteResult, error) {
	start := time.Now()
	res := &result.RouteResult{Route: route, Name: routes.Name(route)}
	defer func() { res.Duration = time.Since(start) }()

	if skip, reason := t.chain.Apply(route); skip {
		res.Outcome = result.OutcomeSkipped
		res.Reason = reason
		return res, nil
	}

	if t.session == nil {
		s, err := openBrowser(ctx, t.browser)
		if err != nil {
			return nil, fmt.Errorf("starting browser: %w", err)
		}
		t.session = s
	}

	tab, err := t.session.NewTab(ctx)
	if err != nil {
		return errored(res, fmt.Errorf("opening tab: %w", err)), nil
	}
	defer func() {
		if err := tab.Close(); err != nil {
			t.log.Debug("closing tab", "route", route, "error", err)
		}
	}()

	trusted, candidate, err := t.orch.CapturePair(ctx, t.opts.Trusted, t.opts.Testing, route, tab)
	if err != nil {
		return errored(res, err), nil
	}
	res.TrustedPath = trusted.Path
	res.TestingPath = candidate.Path
	t.captured += int64(trusted.Len + candidate.Len)

	diffPath := routes.ArtifactPath(t.orch.ScreenshotDir(), route, result.RoleDiff)
	d, err := diff.Compare(trusted.Bytes, candidate.Bytes, diffPath, t.opts.Threshold)
	if err != nil {
		return errored(res, err), nil
	}

	res.Percent = d.Percent
	res.FastPath = d.FastPath
	res.DiffPath = d.ArtifactPath
	if d.Verdict == diff.Fail {
		res.Outcome = result.OutcomeFail
	} else {
		res.Outcome = result.OutcomePass
	}
	t.log.Debug("route compared", "route", route, "percent", d.Percent, "verdict", d.Verdict, "fast_path", d.FastPath)
	return res, nil
}

func (t *routeTester) close() {
	if t.session == nil {
		return
	}
	if err := t.session.Close(); err != nil {
		t.log.Warn("closing browser", "error", err)
	}
}

func errored(res *result.RouteResult, err error) *result.RouteResult {
	res.Outcome = result.OutcomeError
	res.Err = err
	return res
}

// resolveRoutes builds the ordered route list from --routes and
// --routes-file. Discovery (sitemap or crawl) only runs when no routes file
// is given.
func resolveRoutes(ctx context.Context, opts *config.Options) ([]string, error) {
	var list []string

	switch {
	case opts.Routes == config.RoutesSitemap && opts.RoutesFile == "":
		if !opts.Quiet {
			fmt.Fprintf(os.Stderr, "[*] Reading routes from %s/sitemap.xml\n", strings.TrimRight(opts.Trusted, "/"))
		}
		found, err := routes.NewSitemapFetcher(opts.Timeout).Fetch(ctx, opts.Trusted)
		if err != nil {
			return nil, fmt.Errorf("reading sitemap: %w", err)
		}
		list = found
	case opts.Routes == config.RoutesCrawl && opts.RoutesFile == "":
		if !opts.Quiet {
			fmt.Fprintf(os.Stderr, "[*] Crawling %s (depth %d)\n", opts.Trusted, opts.CrawlDepth)
		}
		found, err := routes.NewCrawler(opts.Timeout, opts.CrawlDepth).Crawl(ctx, opts.Trusted)
		if err != nil {
			return nil, fmt.Errorf("crawling trusted origin: %w", err)
		}
		list = found
	case opts.Routes == "" && opts.RoutesFile != "":
		// the routes file is the only source
	case opts.Routes != config.RoutesSitemap && opts.Routes != config.RoutesCrawl:
		list = routes.ParseList(opts.Routes)
	}

	if opts.RoutesFile != "" {
		fromFile, err := routes.LoadFile(opts.RoutesFile)
		if err != nil {
			return nil, err
		}
		list = append(list, fromFile...)
	}

	return uniqueRoutes(list), nil
}

func uniqueRoutes(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, r := range list {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func buildChain(opts *config.Options) (*filter.Chain, error) {
	chain := filter.NewChain()
	if len(opts.Ignored) > 0 {
		chain.Add(filter.NewIgnoreFilter(opts.Ignored))
	}
	if len(opts.OnlyPatterns) > 0 || len(opts.IgnorePatterns) > 0 {
		pf, err := filter.NewPatternFilter(opts.OnlyPatterns, opts.IgnorePatterns)
		if err != nil {
			return nil, fmt.Errorf("building route patterns: %w", err)
		}
		chain.Add(pf)
	}
	chain.Add(filter.NewDuplicateFilter())
	return chain, nil
}

func createWriter(opts *config.Options) (output.Writer, error) {
	var w output.Writer
	var err error
	switch opts.OutputFormat {
	case "json":
		w, err = output.NewJSONWriter(opts.OutputFile)
	case "csv":
		w, err = output.NewCSVWriter(opts.OutputFile)
	default:
		w, err = output.NewTextWriter(opts.OutputFile, opts.NoColor, opts.Quiet, opts.Tree)
	}
	if err != nil {
		return nil, err
	}
	if opts.SortBy != "" {
		w = output.NewSortedWriter(w, opts.SortBy)
	}
	return w, nil
}

func printBanner(opts *config.Options, runID string, routeCount int) {
	const (
		magenta = "\033[35m"
		white   = "\033[97m"
		dim     = "\033[2m"
		yellow  = "\033[33m"
		reset   = "\033[0m"
	)

	m, w, d, y, rs := magenta, white, dim, yellow, reset
	if opts.NoColor {
		m, w, d, y, rs = "", "", "", "", ""
	}

	fmt.Fprintf(os.Stderr, `
%s        _ _                 %s
%s  _ __ (_) |_ _ __ __  __   %s
%s | '_ \| | __| '_ \\ \/ /   %s
%s | | | | | |_| |_) |>  <    %s
%s |_| |_|_|\__| .__//_/\_\   %s %sv%s%s
%s             |_|            %s
%s    Visual Regression Tester  %s
%s    trusted vs testing, pixel by pixel %s
`,
		m, rs,
		m, rs,
		m, rs,
		m, rs,
		m, rs, d, version.Version, rs,
		m, rs,
		w, rs,
		d, rs,
	)

	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "  %sTrusted:%s      %s%s%s\n", d, rs, w, opts.Trusted, rs)
	fmt.Fprintf(os.Stderr, "  %sTesting:%s      %s%s%s\n", d, rs, w, opts.Testing, rs)
	fmt.Fprintf(os.Stderr, "  %sRoutes:%s       %s%d%s\n", d, rs, w, routeCount, rs)
	fmt.Fprintf(os.Stderr, "  %sThreshold:%s    %s%g%%%s\n", d, rs, y, opts.Threshold, rs)
	fmt.Fprintf(os.Stderr, "  %sDriver:%s       %s%s%s\n", d, rs, w, opts.Driver, rs)
	if opts.RemoteURL != "" {
		fmt.Fprintf(os.Stderr, "  %sRemote:%s       %s%s%s\n", d, rs, w, opts.RemoteURL, rs)
	}
	fmt.Fprintf(os.Stderr, "  %sScreenshots:%s  %s%s%s\n", d, rs, w, opts.ScreenshotDir, rs)
	if len(opts.Ignored) > 0 {
		fmt.Fprintf(os.Stderr, "  %sIgnored:%s      %s%s%s\n", d, rs, w, strings.Join(opts.Ignored, ", "), rs)
	}
	fmt.Fprintf(os.Stderr, "  %sRun ID:%s       %s%s%s\n", d, rs, d, runID, rs)
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
