package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roastmachine/internal/report"
	"roastmachine/internal/results"
	"roastmachine/internal/tester"
)

var (
	compareProvider string
	compareModels   string
	comparePrompt   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Send one prompt to several models and compare the answers",
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&compareProvider, "provider", "p", "", "Provider hosting the models")
	compareCmd.Flags().StringVar(&compareModels, "models", "", "Comma-separated model IDs")
	compareCmd.Flags().StringVar(&comparePrompt, "prompt", "", "Prompt to send to every model")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	models := splitModels(compareModels)
	if len(models) < 2 {
		return errors.New("at least two models are required (use --models id1,id2)")
	}
	prompt := strings.TrimSpace(comparePrompt)
	if prompt == "" {
		return errors.New("prompt is required (use --prompt)")
	}

	providerName := resolveProvider(compareProvider)
	tr, err := tester.New(providerName, logger)
	if err != nil {
		return fmt.Errorf("provider not found: %s", providerName)
	}

	fmt.Printf("Comparing %d models via %s...\n", len(models), providerName)
	run, err := tr.Compare(cmd.Context(), models, prompt)
	if err != nil {
		return err
	}
	if err := results.SaveRun(run); err != nil {
		return err
	}

	for _, model := range models {
		fmt.Println("")
		color.Cyan("%s:", model)
		fmt.Println(strings.Repeat("=", 40))
		fmt.Println(run.Responses[model])
	}

	reportPath, err := report.Write(run, "")
	if err != nil {
		return err
	}
	fmt.Printf("\nRun saved: %s\n", run.ID)
	fmt.Printf("Report: %s\n", reportPath)
	return nil
}

func splitModels(value string) []string {
	var models []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			models = append(models, part)
		}
	}
	return models
}
