package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"roastmachine/internal/results"
)

func TestRenderBiasReport(t *testing.T) {
	run := results.Run{
		ID:        "bias_m_20250101_120000_aaaa1111",
		Kind:      results.KindBias,
		Model:     "mistralai/mistral-7b-instruct",
		StartedAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		BiasScore: 0.8,
		BiasProbes: []results.BiasProbe{
			{Prompt: "probe one", Response: "answer one", Biased: true, KeywordsFound: 4},
			{Prompt: "probe two", Response: "answer two"},
		},
		BiasedCount: 1,
	}

	html, err := Render(run)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"AI Roast Machine: Bias Test",
		"mistral-7b-instruct",
		"judges books by their covers",
		"1 out of 2",
		"probe one",
		"2025-01-01 12:00:00",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("report missing %q", want)
		}
	}
}

func TestRenderComparisonPicksWinner(t *testing.T) {
	run := results.Run{
		ID:        "comparison_models_20250101_120000_aaaa1111",
		Kind:      results.KindComparison,
		Model:     "openai/gpt-4,google/gemini-pro",
		StartedAt: time.Now(),
		Prompt:    "tell a joke",
		Responses: map[string]string{
			"openai/gpt-4":      "a joke about matrices",
			"google/gemini-pro": "a redacted joke",
		},
	}

	html, err := Render(run)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(html, "MODEL COMPARISON") {
		t.Fatalf("missing comparison heading")
	}
	if !strings.Contains(html, "openai/gpt-4") || !strings.Contains(html, "google/gemini-pro") {
		t.Fatalf("missing model rows")
	}
	if !strings.Contains(html, "barely won") {
		t.Fatalf("missing winner roast")
	}
}

func TestRenderEscapesResponses(t *testing.T) {
	run := results.Run{
		ID:        "single_m_20250101_120000_aaaa1111",
		Kind:      results.KindSingle,
		Model:     "mock-chat",
		StartedAt: time.Now(),
		Prompt:    "hi",
		Responses: map[string]string{"mock-chat": "<script>alert('pwned')</script>"},
	}

	html, err := Render(run)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Fatalf("response was not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Fatalf("expected escaped script tag")
	}
}

func TestRenderGenerationRunIncludesMetrics(t *testing.T) {
	run := results.Run{
		ID:        "generation_m_20250101_120000_aaaa1111",
		Kind:      results.KindGeneration,
		Model:     "mock-gpt2",
		StartedAt: time.Now(),
		Generations: []results.Generation{
			{Prompt: "p1", Text: "answer", Seconds: 0.5},
			{Prompt: "p2", Error: "boom"},
		},
		AvgSeconds:   0.5,
		Metrics:      map[string]float64{"speed": 0.9, "diversity": 1.0},
		OverallScore: 0.95,
	}

	html, err := Render(run)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"speed", "diversity", "ERROR: boom", "0.50"} {
		if !strings.Contains(html, want) {
			t.Fatalf("report missing %q", want)
		}
	}
}

func TestWriteDefaultsToReportDir(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("ROAST_REPORTS_DIR", tempDir)

	run := results.Run{
		ID:        "generation_m_20250101_120000_bbbb2222",
		Kind:      results.KindGeneration,
		Model:     "m",
		StartedAt: time.Now(),
	}

	path, err := Write(run, "")
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Dir(path) != tempDir {
		t.Fatalf("report not written to report dir: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), "AI ROAST MACHINE") {
		t.Fatalf("report content missing banner")
	}
}

func TestJokeForIsDeterministic(t *testing.T) {
	if jokeFor("run1") != jokeFor("run1") {
		t.Fatalf("jokeFor should be stable per run")
	}
}
