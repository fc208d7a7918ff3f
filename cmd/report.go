package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"roastmachine/internal/report"
)

var (
	reportLatest bool
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Render the HTML report for a stored run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportLatest, "latest", false, "Report on the most recent run")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output path for the HTML report")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	run, err := resolveRunArg(args, reportLatest)
	if err != nil {
		return err
	}

	path, err := report.Write(run, reportOutput)
	if err != nil {
		return err
	}
	fmt.Printf("Report saved: %s\n", path)
	return nil
}
