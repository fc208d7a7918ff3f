package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"roastmachine/internal/tester"
)

var (
	promptsCount       int
	promptsName        string
	promptsOutput      string
	promptsChallenging bool
	promptsSave        bool
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Generate prompt datasets for the batteries",
}

var promptsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a diverse prompt dataset",
	RunE:  runPromptsGenerate,
}

func init() {
	promptsGenerateCmd.Flags().IntVarP(&promptsCount, "count", "n", 20, "Number of prompts to generate")
	promptsGenerateCmd.Flags().StringVar(&promptsName, "name", "", "Dataset name (default depends on the prompt set)")
	promptsGenerateCmd.Flags().StringVarP(&promptsOutput, "output", "o", "", "Directory to save the dataset to")
	promptsGenerateCmd.Flags().BoolVar(&promptsChallenging, "challenging", false, "Use the challenging prompt set instead of sampling categories")
	promptsGenerateCmd.Flags().BoolVar(&promptsSave, "save", false, "Save the dataset as JSON (implied by --output)")
	promptsCmd.AddCommand(promptsGenerateCmd)
	rootCmd.AddCommand(promptsCmd)
}

func runPromptsGenerate(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	var prompts []string
	name := promptsName
	if promptsChallenging {
		prompts = tester.ChallengingPrompts
		if name == "" {
			name = "challenging_text_generation"
		}
	} else {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		prompts = tester.DiversePrompts(rng, promptsCount)
		if name == "" {
			name = "basic_text_generation"
		}
	}

	for i, prompt := range prompts {
		fmt.Printf("%d. %s\n", i+1, prompt)
	}

	if !promptsSave && promptsOutput == "" {
		return nil
	}

	dataset := tester.NewDataset(name, prompts)
	path, err := dataset.Save(promptsOutput)
	if err != nil {
		return err
	}
	fmt.Printf("\nDataset saved: %s\n", path)
	fmt.Printf("Feed it to a battery with: roastmachine test --dataset %s\n", path)
	return nil
}
