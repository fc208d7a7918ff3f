package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfigMergeAndOverrides(t *testing.T) {
	tempDir := t.TempDir()
	defaultPath := filepath.Join(tempDir, "default.yaml")
	globalPath := filepath.Join(tempDir, "global.yaml")
	projectDir := filepath.Join(tempDir, "project")
	projectPath := filepath.Join(projectDir, ".roastmachine.yaml")

	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("mkdir project: %v", err)
	}

	writeFile(t, defaultPath, "defaults:\n  provider: openrouter\n  max_tokens: 1000\nlogging:\n  level: info\n")
	writeFile(t, globalPath, "defaults:\n  max_tokens: 800\nlogging:\n  level: warn\n")
	writeFile(t, projectPath, "defaults:\n  max_tokens: 500\n")

	t.Setenv("ROAST_DEFAULT_CONFIG", defaultPath)
	t.Setenv("ROAST_GLOBAL_CONFIG", globalPath)
	t.Setenv("ROAST_PROJECT_CONFIG_NAME", ".roastmachine.yaml")

	if _, err := LoadConfig(projectDir); err != nil {
		t.Fatalf("load config: %v", err)
	}

	if value, ok := GetConfig("defaults.max_tokens"); !ok || value != "500" {
		t.Fatalf("expected max_tokens 500, got %q", value)
	}

	if value, ok := GetConfig("defaults.provider"); !ok || value != "openrouter" {
		t.Fatalf("expected provider openrouter, got %q", value)
	}

	if value, ok := GetConfig("logging.level"); !ok || value != "warn" {
		t.Fatalf("expected logging.level warn, got %q", value)
	}

	t.Setenv("ROAST_DEFAULTS_MAX_TOKENS", "750")
	if value, ok := GetConfig("defaults.max_tokens"); !ok || value != "750" {
		t.Fatalf("expected env override 750, got %q", value)
	}

	t.Setenv("ROAST_MAX_TOKENS", "250")
	if value, ok := GetConfig("defaults.max_tokens"); !ok || value != "250" {
		t.Fatalf("expected legacy override 250, got %q", value)
	}
}

func TestSetConfigWritesGlobal(t *testing.T) {
	tempDir := t.TempDir()
	globalPath := filepath.Join(tempDir, "config.yaml")

	t.Setenv("ROAST_CONFIG_DIR", tempDir)
	t.Setenv("ROAST_GLOBAL_CONFIG", globalPath)

	if err := SetConfig("defaults.provider", "hugface"); err != nil {
		t.Fatalf("set config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(globalPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read global config: %v", err)
	}

	if value := v.GetString("defaults.provider"); value != "hugface" {
		t.Fatalf("expected defaults.provider hugface, got %q", value)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
