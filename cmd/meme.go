package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roastmachine/internal/meme"
	"roastmachine/internal/tester"
)

var (
	memeLatest   bool
	memeOutput   string
	memeProvider string
	memeModel    string
	memeSubject  string
)

var memeCmd = &cobra.Command{
	Use:   "meme [run-id]",
	Short: "Render a meme image for a run, or generate meme text for a subject",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMeme,
}

func init() {
	memeCmd.Flags().BoolVar(&memeLatest, "latest", false, "Use the most recent run")
	memeCmd.Flags().StringVarP(&memeOutput, "output", "o", "", "Output path for the meme PNG")
	memeCmd.Flags().StringVarP(&memeProvider, "provider", "p", "", "Provider for meme text generation")
	memeCmd.Flags().StringVarP(&memeModel, "model", "m", "", "Model for meme text generation")
	memeCmd.Flags().StringVar(&memeSubject, "subject", "", "Generate meme text about this subject instead of rendering an image")
	rootCmd.AddCommand(memeCmd)
}

func runMeme(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	if strings.TrimSpace(memeSubject) != "" {
		return runMemeText(cmd)
	}

	run, err := resolveRunArg(args, memeLatest)
	if err != nil {
		return err
	}

	path, err := meme.NewRenderer().Render(run, memeOutput)
	if err != nil {
		return err
	}
	fmt.Printf("Meme saved: %s\n", path)
	return nil
}

func runMemeText(cmd *cobra.Command) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	providerName := resolveProvider(memeProvider)
	tr, err := tester.New(providerName, logger)
	if err != nil {
		return fmt.Errorf("provider not found: %s", providerName)
	}

	fmt.Printf("Generating meme text with %s...\n\n", displayModel(resolveModel(memeModel)))
	text, err := tr.MemeText(cmd.Context(), resolveModel(memeModel), memeSubject)
	if err != nil {
		return err
	}

	color.Cyan("GENERATED MEME:")
	color.Magenta(strings.Repeat("=", 40))
	fmt.Println(text)
	color.Magenta(strings.Repeat("=", 40))
	return nil
}
