// Package results stores test runs as flat JSON files in a results
// directory. Writers are serialized by a directory-level lock and
// files are replaced atomically (temp file + fsync + rename).
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"roastmachine/internal/config"
)

var (
	ErrLockTimeout = errors.New("results lock timeout")
	ErrRunNotFound = errors.New("run not found")
)

type lockHandle struct {
	method string
	file   *os.File
	dir    string
}

// InitStore creates the results directory if needed.
func InitStore() error {
	dir := Dir()
	if dir == "" {
		return errors.New("results directory unavailable")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	return nil
}

// Dir returns the results directory.
func Dir() string {
	if value, ok := config.GetConfig("results.dir"); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return "test_results"
}

// SaveRun writes a run to <id>.json in the results directory.
func SaveRun(run Run) error {
	if !validID(run.ID) {
		return fmt.Errorf("invalid run ID: %q", run.ID)
	}

	return withLock(func() error {
		if err := InitStore(); err != nil {
			return err
		}

		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}

		return writeFileAtomic(runPath(run.ID), data)
	})
}

// GetRun returns a stored run by ID.
func GetRun(id string) (Run, error) {
	if !validID(id) {
		return Run{}, ErrRunNotFound
	}

	data, err := os.ReadFile(runPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("read run file: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("decode run file: %w", err)
	}
	return run, nil
}

// ListRuns returns all stored runs, newest first. Corrupt files are skipped.
func ListRuns() ([]Run, error) {
	if err := InitStore(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(Dir())
	if err != nil {
		return nil, fmt.Errorf("read results dir: %w", err)
	}

	runs := make([]Run, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		// Roast artifacts live next to runs; they are not runs.
		if strings.HasSuffix(name, "_roast.json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(Dir(), name))
		if err != nil {
			continue
		}
		var run Run
		if err := json.Unmarshal(data, &run); err != nil || run.ID == "" {
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

// LatestRun returns the newest run, optionally filtered by kind.
func LatestRun(kind Kind) (Run, error) {
	runs, err := ListRuns()
	if err != nil {
		return Run{}, err
	}
	for _, run := range runs {
		if kind == "" || run.Kind == kind {
			return run, nil
		}
	}
	return Run{}, ErrRunNotFound
}

// DeleteRun removes a stored run by ID.
func DeleteRun(id string) error {
	if !validID(id) {
		return ErrRunNotFound
	}

	return withLock(func() error {
		if err := os.Remove(runPath(id)); err != nil {
			if os.IsNotExist(err) {
				return ErrRunNotFound
			}
			return fmt.Errorf("delete run file: %w", err)
		}
		return nil
	})
}

// SaveArtifact writes a non-run JSON document (roasts, reports metadata)
// next to the runs.
func SaveArtifact(name string, payload interface{}) (string, error) {
	if !validID(name) {
		return "", fmt.Errorf("invalid artifact name: %q", name)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}

	path := filepath.Join(Dir(), name)
	err = withLock(func() error {
		if err := InitStore(); err != nil {
			return err
		}
		return writeFileAtomic(path, data)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func runPath(id string) string {
	return filepath.Join(Dir(), id+".json")
}

// validID rejects names that could escape the results directory when
// joined into a path.
func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// isFlockUnsupported reports whether flock failed because the
// filesystem does not support it; the mkdir lock takes over then.
func isFlockUnsupported(err error) bool {
	return errors.Is(err, syscall.EOPNOTSUPP) ||
		errors.Is(err, syscall.ENOSYS) ||
		errors.Is(err, syscall.EINVAL)
}

func withLock(fn func() error) error {
	handle, err := acquireLock()
	if err != nil {
		return err
	}
	defer handle.release()
	return fn()
}

func acquireLock() (*lockHandle, error) {
	dir := Dir()
	if dir == "" {
		return nil, errors.New("results directory unavailable")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	timeout := lockTimeout()
	lockFile := filepath.Join(dir, ".lock")
	file, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o644)
	if err == nil {
		err = tryFlock(file, timeout)
		if err == nil {
			return &lockHandle{method: "flock", file: file}, nil
		}

		if !isFlockUnsupported(err) {
			file.Close()
			return nil, err
		}

		file.Close()
	}

	return acquireDirLock(lockFile+".dir", timeout)
}

func (handle *lockHandle) release() {
	if handle == nil {
		return
	}

	if handle.method == "flock" {
		if handle.file != nil {
			_ = syscall.Flock(int(handle.file.Fd()), syscall.LOCK_UN)
			_ = handle.file.Close()
		}
		return
	}

	if handle.method == "mkdir" {
		if handle.dir != "" {
			_ = os.RemoveAll(handle.dir)
		}
	}
}

func tryFlock(file *os.File, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return nil
		}

		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			if time.Now().After(deadline) {
				return ErrLockTimeout
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		return err
	}
}

func acquireDirLock(lockDir string, timeout time.Duration) (*lockHandle, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := os.Mkdir(lockDir, 0o755); err == nil {
			_ = os.WriteFile(filepath.Join(lockDir, "pid"), []byte(strconv.Itoa(os.Getpid())), 0o644)
			return &lockHandle{method: "mkdir", dir: lockDir}, nil
		}

		if info, err := os.Stat(lockDir); err == nil && info.IsDir() {
			pid := readPid(filepath.Join(lockDir, "pid"))
			if pid == 0 || !processAlive(pid) {
				_ = os.RemoveAll(lockDir)
			}
		}

		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		time.Sleep(100 * time.Millisecond)
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace run file: %w", err)
	}

	return nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

func readPid(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	parsed, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0
	}
	return parsed
}

func lockTimeout() time.Duration {
	if value := os.Getenv("ROAST_LOCK_TIMEOUT"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Second
		}
	}
	return 10 * time.Second
}
