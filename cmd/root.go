package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/maxvaer/nitpx/internal/config"
	"github.com/maxvaer/nitpx/internal/runner"
	"github.com/maxvaer/nitpx/pkg/version"
)

var (
	// flagVals only receives flag values. The resolved settings live in opts.
	flagVals   = config.Defaults()
	opts       config.Options
	configPath string
	logConfig  bool
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"ORIGINS", []string{"trusted", "testing"}},
	{"ROUTES", []string{"routes", "routes-file", "crawl-depth", "ignored", "ignore-pattern", "only-pattern"}},
	{"COMPARISON", []string{"threshold", "screenshots"}},
	{"BROWSER", []string{"driver", "remote", "headless", "stealth", "timeout", "render-delay", "window-width", "window-height"}},
	{"OUTPUT", []string{"output", "format", "quiet", "no-color", "sort", "tree", "verbose"}},
	{"CONFIGURATION", []string{"config", "log-config", "resume-file", "on-fail"}},
}

var rootCmd = &cobra.Command{
	Use:     "nitpx --trusted <url> --testing <url> [flags]",
	Short:   "Visual regression testing between two deployments of a site",
	Version: version.Version,
	Long: `nitpx renders every route of a trusted deployment and of a testing
deployment in headless Chrome, compares the screenshots pixel by pixel and
fails when a route differs by more than the threshold.`,
	Example: `  nitpx --trusted https://example.com --testing https://staging.example.com
  nitpx --trusted prod.local --testing dev.local --routes /,/about,/pricing -t 0.5
  nitpx --trusted prod.local --testing dev.local --routes-file routes.txt -i /blog
  nitpx --trusted prod.local --testing dev.local --only-pattern '/docs/*' --sort percent
  nitpx --trusted prod.local --testing dev.local --driver chromedp --remote ws://127.0.0.1:9222/devtools/browser/ID
  nitpx --trusted prod.local --testing dev.local -o report.json --format json
  nitpx --trusted prod.local --testing dev.local --on-fail "notify-send 'nitpx' '{route} {percent}%'"
  nitpx --log-config
  nitpx compare before.png after.png diff.png -t 1`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		resolved, err := resolveOptions(cmd.Flags())
		if err != nil {
			return err
		}
		opts = resolved
		if logConfig {
			return nil
		}
		if err := opts.Validate(); err != nil {
			if opts.Trusted == "" || opts.Testing == "" {
				_ = cmd.Help()
				fmt.Fprintln(os.Stderr)
			}
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if logConfig {
			return printConfig(&opts)
		}

		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			opts.NoColor = true
		}
		if opts.OutputFile == "" && !term.IsTerminal(int(os.Stdout.Fd())) {
			opts.NoColor = true
		}
		setupLogging(opts.Verbose)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()
	d := config.Defaults()

	// Origins
	f.StringVar(&flagVals.Trusted, "trusted", "", "Origin rendering the expected pages")
	f.StringVar(&flagVals.Testing, "testing", "", "Origin under test")

	// Routes
	f.StringVarP(&flagVals.Routes, "routes", "r", d.Routes, `Comma-separated routes, "sitemap" to read <trusted>/sitemap.xml, or "crawl" to follow links from <trusted>/`)
	f.StringVar(&flagVals.RoutesFile, "routes-file", "", "File with one route per line (# comments allowed)")
	f.IntVar(&flagVals.CrawlDepth, "crawl-depth", d.CrawlDepth, "Link hops to follow from the homepage with --routes crawl")
	f.VarP(&listValue{target: &flagVals.Ignored}, "ignored", "i", "Routes to skip (comma-separated, repeatable)")
	f.Var(&listValue{target: &flagVals.IgnorePatterns}, "ignore-pattern", "Skip routes matching these globs (e.g. /blog/*)")
	f.Var(&listValue{target: &flagVals.OnlyPatterns}, "only-pattern", "Only test routes matching these globs")

	// Comparison
	f.Float64VarP(&flagVals.Threshold, "threshold", "t", d.Threshold, "Maximum allowed difference in percent (0-100)")
	f.StringVarP(&flagVals.ScreenshotDir, "screenshots", "d", d.ScreenshotDir, "Directory for trusted, testing and diff PNGs")

	// Browser
	f.StringVar(&flagVals.Driver, "driver", d.Driver, "Browser driver: rod, chromedp")
	f.StringVar(&flagVals.RemoteURL, "remote", "", "DevTools WebSocket URL of a running Chrome (default: launch one)")
	f.BoolVar(&flagVals.Headless, "headless", d.Headless, "Run the launched Chrome without a window")
	f.BoolVar(&flagVals.Stealth, "stealth", false, "Mask automation fingerprints on new tabs (rod only)")
	f.DurationVar(&flagVals.Timeout, "timeout", d.Timeout, "Navigation and element wait timeout")
	f.DurationVar(&flagVals.RenderDelay, "render-delay", d.RenderDelay, "Base settle delay before each screenshot")
	f.IntVar(&flagVals.WindowWidth, "window-width", d.WindowWidth, "Browser window width in pixels")
	f.IntVar(&flagVals.WindowHeight, "window-height", d.WindowHeight, "Initial browser window height in pixels")

	// Output
	f.StringVarP(&flagVals.OutputFile, "output", "o", "", "Output file path")
	f.StringVar(&flagVals.OutputFormat, "format", d.OutputFormat, "Output format: text, json, csv")
	f.BoolVarP(&flagVals.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&flagVals.NoColor, "no-color", false, "Disable colored output")
	f.StringVar(&flagVals.SortBy, "sort", "", "Sort results: route, percent, outcome (buffers until the run completes)")
	f.BoolVar(&flagVals.Tree, "tree", false, "Print a route tree summary after the run")
	f.BoolVarP(&flagVals.Verbose, "verbose", "v", false, "Debug logging from the browser and capture layers")

	// Configuration
	f.StringVarP(&configPath, "config", "c", "", "YAML config file (default: <user config dir>/nitpx/config.yaml if present)")
	f.BoolVar(&logConfig, "log-config", false, "Print the resolved configuration as flags, environment and JSON, then exit")
	f.StringVar(&flagVals.ResumeFile, "resume-file", "", "File to save/load run progress for resume")
	f.StringVar(&flagVals.OnFailCmd, "on-fail", "", "Shell command to run for each failed route (receives JSON on stdin)")

	// Custom help: categorized flags.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		if cmd != rootCmd {
			fmt.Fprint(w, helpBanner(cmd.Root().Version))
			fmt.Fprintf(w, "%s\n\n%s", cmd.Long, cmd.UsageString())
			return
		}
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nCommands:\n")
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				fmt.Fprintf(w, "   %-34s%s\n", sub.Name(), sub.Short)
			}
		}
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})

	rootCmd.AddCommand(compareCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// The report already lists every regression.
		if !errors.Is(err, runner.ErrRegressions) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// resolveOptions layers defaults, the config file, NITPX_* variables and
// explicitly set flags, in that order.
func resolveOptions(flags *pflag.FlagSet) (config.Options, error) {
	path := configPath
	if path == "" {
		if def := config.DefaultPath(); def != "" {
			if _, err := os.Stat(def); err == nil {
				path = def
			}
		}
	}
	return config.Load(path, flags)
}

func printConfig(o *config.Options) error {
	w := os.Stdout
	fmt.Fprintln(w, "# flags")
	fmt.Fprintln(w, strings.Join(o.Flags(), " \\\n  "))
	fmt.Fprintln(w, "\n# environment")
	for _, line := range o.Env() {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, "\n# json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(o)
}

func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// listValue implements pflag.Value for comma-separated, repeatable string
// lists.
type listValue struct {
	target *[]string
}

func (v *listValue) String() string {
	if v.target == nil {
		return ""
	}
	return strings.Join(*v.target, ",")
}

func (v *listValue) Set(s string) error {
	*v.target = append(*v.target, config.SplitList(s)...)
	return nil
}

func (v *listValue) Type() string { return "strings" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
        _ _
  _ __ (_) |_ _ __ __  __
 | '_ \| | __| '_ \\ \/ /
 | | | | | |_| |_) |>  <
 |_| |_|_|\__| .__//_/\_\   %s
             |_|

`, ver)
}
