package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"roastmachine/internal/provider"
)

var modelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models offered by a provider",
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().StringVarP(&modelsProvider, "provider", "p", "", "Provider to query (default from config)")
	rootCmd.AddCommand(modelsCmd)
}

// Vendor colors mirror the interactive menu.
var vendorColors = []struct {
	prefix string
	color  *color.Color
}{
	{"openai/", color.New(color.FgGreen)},
	{"anthropic/", color.New(color.FgBlue)},
	{"meta-llama/", color.New(color.FgMagenta)},
	{"mistralai/", color.New(color.FgYellow)},
	{"google/", color.New(color.FgRed)},
}

func modelColor(id string) *color.Color {
	lower := strings.ToLower(id)
	for _, vendor := range vendorColors {
		if strings.HasPrefix(lower, vendor.prefix) {
			return vendor.color
		}
	}
	return color.New(color.FgCyan)
}

func runModels(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	name := resolveProvider(modelsProvider)
	p, err := provider.Get(name)
	if err != nil {
		return fmt.Errorf("provider not found: %s", name)
	}
	if err := p.CheckReady(); err != nil {
		return err
	}

	models, err := p.ListModels(cmd.Context())
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Printf("No models available from %s\n", name)
		return nil
	}

	fmt.Printf("Models available from %s:\n\n", name)
	for _, m := range models {
		line := m.ID
		if m.Name != "" && m.Name != m.ID {
			line = fmt.Sprintf("%s  (%s)", m.ID, m.Name)
		}
		if m.ContextLength > 0 {
			line = fmt.Sprintf("%s  [%d ctx]", line, m.ContextLength)
		}
		modelColor(m.ID).Println("  " + line)
	}
	return nil
}
