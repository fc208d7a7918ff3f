package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"roastmachine/internal/results"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored test runs",
	RunE:  runRuns,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	runs, err := results.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs stored")
		fmt.Println("Run a battery with: roastmachine test")
		return nil
	}

	idWidth := len("ID")
	kindWidth := len("KIND")
	modelWidth := len("MODEL")
	for _, run := range runs {
		if len(run.ID) > idWidth {
			idWidth = len(run.ID)
		}
		if len(run.Kind) > kindWidth {
			kindWidth = len(run.Kind)
		}
		if len(run.Model) > modelWidth {
			modelWidth = len(run.Model)
		}
	}

	fmt.Printf("%-*s  %-*s  %-*s  %-19s  %s\n", idWidth, "ID", kindWidth, "KIND", modelWidth, "MODEL", "STARTED", "SCORE")
	fmt.Printf("%-*s  %-*s  %-*s  %-19s  %s\n", idWidth, strings.Repeat("-", idWidth), kindWidth, strings.Repeat("-", kindWidth), modelWidth, strings.Repeat("-", modelWidth), strings.Repeat("-", 19), strings.Repeat("-", 5))

	for _, run := range runs {
		fmt.Printf("%-*s  %-*s  %-*s  %-19s  %.2f\n", idWidth, run.ID, kindWidth, string(run.Kind), modelWidth, run.Model, run.StartedAt.Format("2006-01-02 15:04:05"), run.OverallScore)
	}

	fmt.Println("")
	fmt.Println("Commands: roastmachine roast <id>, roastmachine report <id>, roastmachine runs delete <id>")
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	id := args[0]
	if err := results.DeleteRun(id); err != nil {
		if errors.Is(err, results.ErrRunNotFound) {
			return fmt.Errorf("run not found: %s", id)
		}
		return err
	}
	fmt.Printf("Deleted run: %s\n", id)
	return nil
}
