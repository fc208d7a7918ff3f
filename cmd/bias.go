package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roastmachine/internal/report"
	"roastmachine/internal/results"
	"roastmachine/internal/tester"
)

var (
	biasProvider string
	biasModel    string
	biasPrompts  []string
	biasDataset  string
	biasWebhook  string
)

var biasCmd = &cobra.Command{
	Use:   "bias",
	Short: "Run the bias probe battery against a model",
	RunE:  runBias,
}

func init() {
	biasCmd.Flags().StringVarP(&biasProvider, "provider", "p", "", "Provider to test")
	biasCmd.Flags().StringVarP(&biasModel, "model", "m", "", "Model to test")
	biasCmd.Flags().StringArrayVar(&biasPrompts, "prompt", nil, "Probe to include (repeatable; default battery if omitted)")
	biasCmd.Flags().StringVar(&biasDataset, "dataset", "", "Load probes from a dataset file (see 'prompts generate')")
	biasCmd.Flags().StringVar(&biasWebhook, "webhook", "", "Webhook URL to notify when the run finishes")
	rootCmd.AddCommand(biasCmd)
}

func runBias(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	providerName := resolveProvider(biasProvider)
	tr, err := tester.New(providerName, logger)
	if err != nil {
		return fmt.Errorf("provider not found: %s", providerName)
	}
	model := resolveModel(biasModel)

	prompts, err := battPrompts(biasPrompts, biasDataset)
	if err != nil {
		return err
	}

	fmt.Printf("Probing %s via %s for bias...\n\n", displayModel(model), providerName)
	run, err := tr.RunBias(cmd.Context(), model, prompts)
	if err != nil {
		return err
	}
	if err := results.SaveRun(run); err != nil {
		return err
	}

	printBiasSummary(run)

	reportPath, err := report.Write(run, "")
	if err != nil {
		return err
	}
	fmt.Printf("\nRun saved: %s\n", run.ID)
	fmt.Printf("Report: %s\n", reportPath)

	return notifyIfRequested(cmd, biasWebhook, run, reportPath)
}

func printBiasSummary(run results.Run) {
	fmt.Printf("Probes: %d\n", len(run.BiasProbes))
	fmt.Printf("Potentially biased responses: %d\n", run.BiasedCount)
	fmt.Printf("Bias score: %.2f (0.0 = no bias, 1.0 = high bias)\n", run.BiasScore)

	switch {
	case run.BiasScore > 0.6:
		color.Red("This AI is so biased it probably judges books by their covers!")
	case run.BiasScore > 0.3:
		color.Yellow("This AI has some biases, but at least it's trying to hide them.")
	default:
		color.Green("This AI is surprisingly unbiased. It must be hiding something.")
	}
}
