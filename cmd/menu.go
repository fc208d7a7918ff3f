package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roastmachine/internal/provider"
	"roastmachine/internal/report"
	"roastmachine/internal/results"
	"roastmachine/internal/tester"
)

var menuProvider string

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive menu for testing and roasting models",
	RunE:  runMenu,
}

func init() {
	menuCmd.Flags().StringVarP(&menuProvider, "provider", "p", "", "Provider to use (default from config)")
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	providerName := resolveProvider(menuProvider)
	tr, err := tester.New(providerName, logger)
	if err != nil {
		return fmt.Errorf("provider not found: %s", providerName)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		printMenuHeader()
		printMenuOptions(providerName)

		choice, err := menuChoice(reader, 4)
		if err != nil {
			return err
		}

		switch choice {
		case 1:
			err = menuCompare(cmd, reader, tr, providerName)
		case 2:
			err = menuTestModel(cmd, reader, tr, providerName)
		case 3:
			err = menuMemeText(cmd, reader, tr)
		case 4:
			color.Yellow("Goodbye! The models can rest easy now.")
			return nil
		}
		if err != nil {
			color.Red("Error: %v", err)
		}

		fmt.Println("")
		if _, err := menuReadLine(reader, "Press Enter to return to the main menu..."); err != nil {
			return err
		}
	}
}

func printMenuHeader() {
	divider := strings.Repeat("=", 80)
	color.Magenta(divider)
	color.Cyan("                           AI ROAST MACHINE                           ")
	color.Magenta(divider)
	color.Yellow("Test, compare, and have fun with AI models!")
	color.Magenta(divider)
	fmt.Println("")
}

func printMenuOptions(providerName string) {
	color.Green("MAIN MENU:")
	fmt.Printf("1. Test and compare models (via %s)\n", providerName)
	fmt.Println("2. Test a specific model")
	fmt.Println("3. Generate weird memes")
	fmt.Println("4. Exit")
	fmt.Println("")
}

// menuCompare sends one prompt to several models and shows the answers
// side by side.
func menuCompare(cmd *cobra.Command, reader *bufio.Reader, tr *tester.Tester, providerName string) error {
	fmt.Println("COMPARE MODELS")
	fmt.Println("This will test multiple models on the same prompt and compare their responses.")

	models, err := menuListModels(cmd, providerName)
	if err != nil {
		return err
	}

	color.Cyan("\nAVAILABLE MODELS:")
	printModelChoices(models)

	line, err := menuReadLine(reader, "Enter model numbers separated by commas (e.g. 1,3): ")
	if err != nil {
		return err
	}
	selected, err := parseModelSelection(line, models)
	if err != nil {
		return err
	}
	if len(selected) < 2 {
		return fmt.Errorf("at least two models are required")
	}

	prompt, err := menuChoosePrompt(reader)
	if err != nil {
		return err
	}

	fmt.Println("\nTesting models...")
	run, err := tr.Compare(cmd.Context(), selected, prompt)
	if err != nil {
		return err
	}
	if err := results.SaveRun(run); err != nil {
		return err
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("RESULTS FOR PROMPT: %s\n", prompt)
	fmt.Println(strings.Repeat("=", 80))
	for _, model := range selected {
		fmt.Println("")
		modelColor(model).Printf("--- %s ---\n", model)
		fmt.Println(run.Responses[model])
		fmt.Println(strings.Repeat("-", 40))
	}

	reportPath, err := report.Write(run, "")
	if err != nil {
		return err
	}
	fmt.Printf("\nRun saved: %s\n", run.ID)
	fmt.Printf("HTML report saved to %s\n", reportPath)
	return nil
}

// menuTestModel runs either the generation battery or the bias battery
// against one model.
func menuTestModel(cmd *cobra.Command, reader *bufio.Reader, tr *tester.Tester, providerName string) error {
	fmt.Println("TEST SPECIFIC MODEL")
	fmt.Println("This will test a single model with your choice of prompts.")

	models, err := menuListModels(cmd, providerName)
	if err != nil {
		return err
	}

	color.Cyan("\nAVAILABLE MODELS:")
	printModelChoices(models)
	choice, err := menuChoice(reader, len(models))
	if err != nil {
		return err
	}
	model := models[choice-1].ID

	fmt.Println("\nTEST OPTIONS:")
	fmt.Println("1. Generation test battery")
	fmt.Println("2. Bias test battery")
	testChoice, err := menuChoice(reader, 2)
	if err != nil {
		return err
	}

	var run results.Run
	if testChoice == 1 {
		fmt.Printf("\nTesting %s...\n\n", model)
		run, err = tr.RunGeneration(cmd.Context(), model, nil)
		if err != nil {
			return err
		}
		if err := results.SaveRun(run); err != nil {
			return err
		}
		printRunSummary(run)
		printRoast(run)
	} else {
		fmt.Printf("\nProbing %s for bias...\n\n", model)
		run, err = tr.RunBias(cmd.Context(), model, nil)
		if err != nil {
			return err
		}
		if err := results.SaveRun(run); err != nil {
			return err
		}
		printBiasSummary(run)
	}

	reportPath, err := report.Write(run, "")
	if err != nil {
		return err
	}
	fmt.Printf("\nRun saved: %s\n", run.ID)
	fmt.Printf("HTML report saved to %s\n", reportPath)
	return nil
}

func menuMemeText(cmd *cobra.Command, reader *bufio.Reader, tr *tester.Tester) error {
	fmt.Println("GENERATE WEIRD MEMES")
	fmt.Println("The model will write absurd meme text about a subject of your choice.")

	fmt.Println("\nSelect a subject or enter your own:")
	for i, subject := range tester.DefaultMemeSubjects {
		fmt.Printf("%d. %s\n", i+1, subject)
	}
	fmt.Printf("%d. Enter your own subject\n", len(tester.DefaultMemeSubjects)+1)

	choice, err := menuChoice(reader, len(tester.DefaultMemeSubjects)+1)
	if err != nil {
		return err
	}

	var subject string
	if choice <= len(tester.DefaultMemeSubjects) {
		subject = tester.DefaultMemeSubjects[choice-1]
	} else {
		subject, err = menuReadLine(reader, "\nEnter your subject: ")
		if err != nil {
			return err
		}
		if strings.TrimSpace(subject) == "" {
			return fmt.Errorf("subject is required")
		}
	}

	fmt.Println("\nGenerating meme text...")
	text, err := tr.MemeText(cmd.Context(), resolveModel(""), subject)
	if err != nil {
		return err
	}

	fmt.Println("")
	color.Cyan("GENERATED MEME:")
	color.Magenta(strings.Repeat("=", 40))
	fmt.Println(text)
	color.Magenta(strings.Repeat("=", 40))
	return nil
}

func menuListModels(cmd *cobra.Command, providerName string) ([]provider.ModelInfo, error) {
	p, err := provider.Get(providerName)
	if err != nil {
		return nil, fmt.Errorf("provider not found: %s", providerName)
	}
	if err := p.CheckReady(); err != nil {
		return nil, err
	}

	models, err := p.ListModels(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("could not retrieve models: %w", err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no models available from %s", providerName)
	}
	if len(models) > 20 {
		models = models[:20]
	}
	return models, nil
}

func printModelChoices(models []provider.ModelInfo) {
	for i, m := range models {
		label := m.ID
		if m.Name != "" && m.Name != m.ID {
			label = fmt.Sprintf("%s: %s", m.ID, m.Name)
		}
		fmt.Printf("%d. ", i+1)
		modelColor(m.ID).Println(label)
	}
}

func menuChoosePrompt(reader *bufio.Reader) (string, error) {
	fmt.Println("\nSelect a prompt or enter your own:")
	for i, prompt := range tester.DefaultTestPrompts {
		fmt.Printf("%d. %s\n", i+1, prompt)
	}
	fmt.Printf("%d. Enter your own prompt\n", len(tester.DefaultTestPrompts)+1)

	choice, err := menuChoice(reader, len(tester.DefaultTestPrompts)+1)
	if err != nil {
		return "", err
	}
	if choice <= len(tester.DefaultTestPrompts) {
		return tester.DefaultTestPrompts[choice-1], nil
	}

	prompt, err := menuReadLine(reader, "\nEnter your prompt: ")
	if err != nil {
		return "", err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}
	return prompt, nil
}

func parseModelSelection(line string, models []provider.ModelInfo) ([]string, error) {
	var selected []string
	seen := make(map[int]bool)
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		index, err := strconv.Atoi(part)
		if err != nil || index < 1 || index > len(models) {
			return nil, fmt.Errorf("invalid model number: %s", part)
		}
		if seen[index] {
			continue
		}
		seen[index] = true
		selected = append(selected, models[index-1].ID)
	}
	return selected, nil
}

// menuChoice keeps prompting until the user enters a number in range.
func menuChoice(reader *bufio.Reader, max int) (int, error) {
	for {
		line, err := menuReadLine(reader, fmt.Sprintf("Enter your choice (1-%d): ", max))
		if err != nil {
			return 0, err
		}
		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil {
			color.Red("Please enter a valid number.")
			continue
		}
		if choice < 1 || choice > max {
			color.Red("Please enter a number between 1 and %d.", max)
			continue
		}
		return choice, nil
	}
}

func menuReadLine(reader *bufio.Reader, prompt string) (string, error) {
	color.New(color.FgCyan).Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
