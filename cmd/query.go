package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roastmachine/internal/provider"
	"roastmachine/internal/report"
	"roastmachine/internal/results"
)

var (
	queryProvider    string
	queryModel       string
	querySystem      string
	queryMaxTokens   int
	queryTemperature float64
	queryTopP        float64
	querySave        bool
)

var queryCmd = &cobra.Command{
	Use:   "query <prompt>",
	Short: "Send a single prompt to a model",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryProvider, "provider", "p", "", "Provider to query")
	queryCmd.Flags().StringVarP(&queryModel, "model", "m", "", "Model to query")
	queryCmd.Flags().StringVar(&querySystem, "system", "", "System prompt")
	queryCmd.Flags().IntVar(&queryMaxTokens, "max-tokens", 0, "Maximum tokens to generate")
	queryCmd.Flags().Float64Var(&queryTemperature, "temperature", 0, "Sampling temperature")
	queryCmd.Flags().Float64Var(&queryTopP, "top-p", 0, "Nucleus sampling cutoff")
	queryCmd.Flags().BoolVar(&querySave, "save", false, "Save the exchange as a run and render an HTML report")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errors.New("prompt is required")
	}

	providerName := resolveProvider(queryProvider)
	p, err := provider.Get(providerName)
	if err != nil {
		return fmt.Errorf("provider not found: %s", providerName)
	}
	if err := p.CheckReady(); err != nil {
		return err
	}

	chatReq := provider.ChatRequest{
		Model:        resolveModel(queryModel),
		Prompt:       prompt,
		SystemPrompt: querySystem,
		MaxTokens:    resolveMaxTokens(queryMaxTokens, cmd.Flags().Changed("max-tokens")),
		TopP:         queryTopP,
	}
	if cmd.Flags().Changed("temperature") {
		chatReq.Temperature = provider.Float64(queryTemperature)
	}
	resp, err := p.Chat(cmd.Context(), chatReq)
	if err != nil {
		return err
	}

	color.Cyan("Model: %s", resp.Model)
	fmt.Println(strings.Repeat("=", 40))
	fmt.Println(resp.Text)
	fmt.Println(strings.Repeat("=", 40))
	if resp.PromptTokens > 0 || resp.CompletionTokens > 0 {
		fmt.Printf("Tokens: %d prompt, %d completion\n", resp.PromptTokens, resp.CompletionTokens)
	}

	if !querySave {
		return nil
	}

	now := time.Now().UTC()
	run := results.Run{
		ID:        results.NewRunID(results.KindSingle, resp.Model, now),
		Kind:      results.KindSingle,
		Provider:  providerName,
		Model:     resp.Model,
		StartedAt: now,
		Prompt:    prompt,
		Responses: map[string]string{resp.Model: resp.Text},
	}
	if err := results.SaveRun(run); err != nil {
		return err
	}
	reportPath, err := report.Write(run, "")
	if err != nil {
		return err
	}
	fmt.Printf("\nRun saved: %s\n", run.ID)
	fmt.Printf("Report: %s\n", reportPath)
	return nil
}
