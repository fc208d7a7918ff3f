package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roastmachine/internal/notify"
	"roastmachine/internal/report"
	"roastmachine/internal/results"
	"roastmachine/internal/roast"
	"roastmachine/internal/tester"
)

var (
	testProvider string
	testModel    string
	testPrompts  []string
	testDataset  string
	testWebhook  string
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the generation test battery against a model",
	RunE:  runTest,
}

func init() {
	testCmd.Flags().StringVarP(&testProvider, "provider", "p", "", "Provider to test")
	testCmd.Flags().StringVarP(&testModel, "model", "m", "", "Model to test")
	testCmd.Flags().StringArrayVar(&testPrompts, "prompt", nil, "Prompt to include (repeatable; default battery if omitted)")
	testCmd.Flags().StringVar(&testDataset, "dataset", "", "Load prompts from a dataset file (see 'prompts generate')")
	testCmd.Flags().StringVar(&testWebhook, "webhook", "", "Webhook URL to notify when the run finishes")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	providerName := resolveProvider(testProvider)
	tr, err := tester.New(providerName, logger)
	if err != nil {
		return fmt.Errorf("provider not found: %s", providerName)
	}
	model := resolveModel(testModel)

	prompts, err := battPrompts(testPrompts, testDataset)
	if err != nil {
		return err
	}

	fmt.Printf("Testing %s via %s...\n\n", displayModel(model), providerName)
	run, err := tr.RunGeneration(cmd.Context(), model, prompts)
	if err != nil {
		return err
	}
	if err := results.SaveRun(run); err != nil {
		return err
	}

	printRunSummary(run)
	printRoast(run)

	reportPath, err := report.Write(run, "")
	if err != nil {
		return err
	}
	fmt.Printf("\nRun saved: %s\n", run.ID)
	fmt.Printf("Report: %s\n", reportPath)

	return notifyIfRequested(cmd, testWebhook, run, reportPath)
}

// battPrompts resolves the prompt list for a battery; an explicit
// dataset file wins over repeated --prompt flags.
func battPrompts(prompts []string, datasetPath string) ([]string, error) {
	if datasetPath == "" {
		return prompts, nil
	}
	dataset, err := tester.LoadDataset(datasetPath)
	if err != nil {
		return nil, err
	}
	return dataset.Prompts, nil
}

func displayModel(model string) string {
	if model == "" {
		return "the default model"
	}
	return model
}

func printRunSummary(run results.Run) {
	failed := 0
	for _, gen := range run.Generations {
		if gen.Error != "" {
			failed++
		}
	}

	fmt.Printf("Prompts: %d (%d failed)\n", len(run.Generations), failed)
	fmt.Printf("Average generation time: %.2fs\n", run.AvgSeconds)
	fmt.Printf("Metric speed: %.2f\n", run.Metrics["speed"])
	fmt.Printf("Metric diversity: %.2f\n", run.Metrics["diversity"])
	fmt.Printf("Overall score: %.2f\n", run.OverallScore)
}

func printRoast(run results.Run) {
	generated := roast.NewGenerator().Generate(run)
	fmt.Println("")
	color.Red("THE ROAST:")
	color.Yellow("%s", generated.CombinedRoast)
	if _, err := results.SaveArtifact(run.ID+"_roast.json", generated); err == nil {
		fmt.Printf("Roast saved alongside the run.\n")
	}
}

func notifyIfRequested(cmd *cobra.Command, webhook string, run results.Run, reportPath string) error {
	if webhook == "" {
		webhook = configValue("notify.webhook")
	}
	if webhook == "" {
		return nil
	}

	generated := roast.NewGenerator().Generate(run)
	err := notify.NotifyRunComplete(cmd.Context(), notify.RunOptions{
		WebhookURL: webhook,
		Run:        run,
		Roast:      generated.CombinedRoast,
		ReportPath: reportPath,
	})
	if err != nil {
		fmt.Printf("Warning: webhook notification failed: %v\n", err)
		return nil
	}
	fmt.Println("Webhook notification sent.")
	return nil
}
