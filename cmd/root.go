package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"roastmachine/internal/config"
	"roastmachine/internal/logging"
	"roastmachine/internal/provider"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "roastmachine",
	Short:   "Test, compare, and roast AI models",
	Long:    "AI Roast Machine queries AI models, runs test batteries, scores the results, and roasts the losers.",
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfigForCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve current directory: %w", err)
	}
	_, err = config.LoadConfig(cwd)
	return err
}

func configValue(key string) string {
	if value, ok := config.GetConfig(key); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// newLogger builds the zap logger from the logging config keys.
func newLogger() (*zap.Logger, error) {
	level := configValue("logging.level")
	file := configValue("logging.file")
	return logging.New(level, file)
}

// resolveProvider falls back from the flag to defaults.provider, then
// to the registry default.
func resolveProvider(flagValue string) string {
	name := strings.TrimSpace(flagValue)
	if name != "" {
		return name
	}
	if value := configValue("defaults.provider"); value != "" {
		return value
	}
	return provider.DefaultName()
}

// resolveModel falls back from the flag to defaults.model. An empty
// result lets the provider pick its own default.
func resolveModel(flagValue string) string {
	model := strings.TrimSpace(flagValue)
	if model != "" {
		return model
	}
	return configValue("defaults.model")
}

func resolveMaxTokens(flagValue int, changed bool) int {
	if changed {
		return flagValue
	}
	if value := configValue("defaults.max_tokens"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return flagValue
}
