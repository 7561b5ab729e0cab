package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maxvaer/nitpx/internal/diff"
)

var compareThreshold float64

var compareCmd = &cobra.Command{
	Use:   "compare <trusted.png> <testing.png> <diff.png>",
	Short: "Compare two existing screenshots without a browser",
	Long: `compare runs the pixel comparison on two PNG files and writes the
highlighted diff image. It exits non-zero when the images differ by more
than the threshold or cannot be compared.`,
	Args: cobra.ExactArgs(3),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if compareThreshold < 0 || compareThreshold > 100 {
			return fmt.Errorf("--threshold must be a percentage between 0 and 100, got %g", compareThreshold)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := diff.CompareFiles(args[0], args[1], args[2], compareThreshold)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s  %8.4f  %s\n", res.Verdict, res.Percent, res.ArtifactPath)
		if res.Verdict == diff.Fail {
			return fmt.Errorf("images differ by %.4f%%, above the %g%% threshold", res.Percent, compareThreshold)
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	compareCmd.Flags().Float64VarP(&compareThreshold, "threshold", "t", 0, "Maximum allowed difference in percent (0-100)")
}
