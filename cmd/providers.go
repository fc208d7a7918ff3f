package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"roastmachine/internal/provider"

	_ "roastmachine/internal/provider/hugface"
	_ "roastmachine/internal/provider/mock"
	_ "roastmachine/internal/provider/openrouter"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List available model providers",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	names := provider.Names()
	defaultName := resolveProvider("")

	nameWidth := len("NAME")
	for _, name := range names {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}

	fmt.Printf("%-*s  %-7s  %s\n", nameWidth, "NAME", "READY", "NOTE")
	fmt.Printf("%-*s  %-7s  %s\n", nameWidth, strings.Repeat("-", nameWidth), strings.Repeat("-", 7), strings.Repeat("-", 4))

	for _, name := range names {
		p, err := provider.Get(name)
		if err != nil {
			continue
		}

		ready := "yes"
		note := ""
		if err := p.CheckReady(); err != nil {
			ready = "no"
			note = err.Error()
		}
		if name == defaultName {
			if note != "" {
				note += " "
			}
			note += "(default)"
		}
		fmt.Printf("%-*s  %-7s  %s\n", nameWidth, name, ready, note)
	}
	return nil
}
