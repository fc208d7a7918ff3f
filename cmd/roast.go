package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roastmachine/internal/results"
	"roastmachine/internal/roast"
)

var roastLatest bool

var roastCmd = &cobra.Command{
	Use:   "roast [run-id]",
	Short: "Roast a stored run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRoast,
}

func init() {
	roastCmd.Flags().BoolVar(&roastLatest, "latest", false, "Roast the most recent run")
	rootCmd.AddCommand(roastCmd)
}

func runRoast(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	run, err := resolveRunArg(args, roastLatest)
	if err != nil {
		return err
	}

	generated := roast.NewGenerator().Generate(run)

	color.Cyan("Model: %s (score %.2f)", generated.Model, generated.OverallScore)
	fmt.Println("")
	color.Red("THE ROAST:")
	color.Yellow("%s", generated.OverallRoast)
	for _, line := range generated.MetricRoasts {
		color.Yellow("%s", line)
	}

	path, err := results.SaveArtifact(run.ID+"_roast.json", generated)
	if err != nil {
		return err
	}
	fmt.Printf("\nRoast saved: %s\n", path)
	return nil
}

// resolveRunArg picks the run from the positional argument or, with
// latest set, the newest stored run.
func resolveRunArg(args []string, latest bool) (results.Run, error) {
	if len(args) == 1 && args[0] != "" {
		run, err := results.GetRun(args[0])
		if errors.Is(err, results.ErrRunNotFound) {
			return results.Run{}, fmt.Errorf("run not found: %s", args[0])
		}
		return run, err
	}
	if !latest {
		return results.Run{}, errors.New("a run ID is required (or use --latest)")
	}
	run, err := results.LatestRun("")
	if errors.Is(err, results.ErrRunNotFound) {
		return results.Run{}, errors.New("no runs stored yet (run 'roastmachine test' first)")
	}
	return run, err
}
