package results

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestSaveGetListDeleteRun(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("ROAST_RESULTS_DIR", tempDir)

	run := Run{
		ID:           "generation_mock_20250101_120000_aaaa1111",
		Kind:         KindGeneration,
		Provider:     "mock",
		Model:        "mock-gpt2",
		StartedAt:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		OverallScore: 0.75,
	}

	if err := SaveRun(run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, err := GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if loaded.Model != "mock-gpt2" || loaded.Kind != KindGeneration {
		t.Fatalf("unexpected run: %+v", loaded)
	}

	runs, err := ListRuns()
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	if err := DeleteRun(run.ID); err != nil {
		t.Fatalf("delete run: %v", err)
	}

	if _, err := GetRun(run.ID); err != ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := DeleteRun(run.ID); err != ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound on second delete, got %v", err)
	}
}

func TestListRunsSkipsCorruptAndSorts(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("ROAST_RESULTS_DIR", tempDir)

	older := Run{ID: "a-old", Kind: KindBias, Model: "m", StartedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := Run{ID: "b-new", Kind: KindGeneration, Model: "m", StartedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	for _, run := range []Run{older, newer} {
		if err := SaveRun(run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	if err := os.WriteFile(filepath.Join(tempDir, "broken.json"), []byte("{invalid"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	runs, err := ListRuns()
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "b-new" || runs[1].ID != "a-old" {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestLatestRunFiltersByKind(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("ROAST_RESULTS_DIR", tempDir)

	gen := Run{ID: "gen", Kind: KindGeneration, Model: "m", StartedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	bias := Run{ID: "bias", Kind: KindBias, Model: "m", StartedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	for _, run := range []Run{gen, bias} {
		if err := SaveRun(run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	latest, err := LatestRun("")
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if latest.ID != "gen" {
		t.Fatalf("expected gen, got %s", latest.ID)
	}

	latestBias, err := LatestRun(KindBias)
	if err != nil {
		t.Fatalf("latest bias run: %v", err)
	}
	if latestBias.ID != "bias" {
		t.Fatalf("expected bias, got %s", latestBias.ID)
	}

	if _, err := LatestRun(KindComparison); err != ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSaveArtifactAndListIgnoresIt(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("ROAST_RESULTS_DIR", tempDir)

	run := Run{ID: "run1", Kind: KindGeneration, Model: "m", StartedAt: time.Now()}
	if err := SaveRun(run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	path, err := SaveArtifact("run1_roast.json", map[string]string{"roast": "ouch"})
	if err != nil {
		t.Fatalf("save artifact: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat artifact: %v", err)
	}

	runs, err := ListRuns()
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected artifact to be ignored, got %d runs", len(runs))
	}
}

func TestIDsWithPathSeparatorsAreRejected(t *testing.T) {
	root := t.TempDir()
	resultsDir := filepath.Join(root, "results")
	t.Setenv("ROAST_RESULTS_DIR", resultsDir)
	if err := InitStore(); err != nil {
		t.Fatalf("init store: %v", err)
	}

	outside := filepath.Join(root, "secret.json")
	if err := os.WriteFile(outside, []byte(`{"id":"secret"}`), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	if _, err := GetRun("../secret"); err != ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound for traversal id, got %v", err)
	}
	if err := DeleteRun("../secret"); err != ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound for traversal delete, got %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("file outside the store was touched: %v", err)
	}

	if err := SaveRun(Run{ID: "../evil", Kind: KindGeneration, Model: "m", StartedAt: time.Now()}); err == nil {
		t.Fatalf("expected error saving a run with a traversal id")
	}
	if _, err := SaveArtifact("../evil.json", map[string]string{}); err == nil {
		t.Fatalf("expected error saving an artifact with a traversal name")
	}
}

func TestIsFlockUnsupportedClassification(t *testing.T) {
	for _, err := range []error{syscall.EOPNOTSUPP, syscall.ENOSYS, syscall.EINVAL} {
		if !isFlockUnsupported(err) {
			t.Fatalf("%v should fall back to the mkdir lock", err)
		}
	}
	if !isFlockUnsupported(fmt.Errorf("flock: %w", syscall.EINVAL)) {
		t.Fatalf("wrapped errno should be detected")
	}
	if isFlockUnsupported(ErrLockTimeout) {
		t.Fatalf("lock contention must not trigger the fallback")
	}
	if isFlockUnsupported(syscall.EACCES) {
		t.Fatalf("permission errors must surface, not fall back")
	}
}

func TestNewRunIDIsFilesystemSafe(t *testing.T) {
	id := NewRunID(KindBias, "mistralai/mistral-7b-instruct", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	if filepath.Base(id) != id {
		t.Fatalf("run ID contains path separators: %s", id)
	}
	for _, prefix := range []string{"bias_mistralai_mistral-7b-instruct_20250101_120000_"} {
		if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
			t.Fatalf("unexpected run ID: %s", id)
		}
	}
}
