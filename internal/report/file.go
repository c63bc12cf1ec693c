package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ipu69/gen2sim/internal/config"
)

// File appends one JSON line per Result to a log file, rotating it once
// it crosses a configured size, mirroring the teacher's output.File.
type File struct {
	path       string
	rotate     bool
	maxSizeMB  int
	maxBackups int

	mu   sync.Mutex
	file *os.File
}

// NewFile builds a file sink from cfg.Options (path, rotate,
// max_size_mb, max_backups).
func NewFile(cfg config.OutputConfig) (*File, error) {
	path := "gen2sim-results.jsonl"
	if p, ok := cfg.Options["path"].(string); ok && p != "" {
		path = p
	}

	rotate := true
	if r, ok := cfg.Options["rotate"].(bool); ok {
		rotate = r
	}

	maxSizeMB := 100
	switch m := cfg.Options["max_size_mb"].(type) {
	case int:
		maxSizeMB = m
	case float64:
		maxSizeMB = int(m)
	}

	maxBackups := 5
	switch m := cfg.Options["max_backups"].(type) {
	case int:
		maxBackups = m
	case float64:
		maxBackups = int(m)
	}

	f := &File{path: path, rotate: rotate, maxSizeMB: maxSizeMB, maxBackups: maxBackups}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create result directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	f.file = file

	return f, nil
}

func (f *File) Send(result *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rotate {
		if err := f.checkRotation(); err != nil {
			return err
		}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = f.file.WriteString(string(data) + "\n")
	return err
}

func (f *File) checkRotation() error {
	info, err := f.file.Stat()
	if err != nil {
		return err
	}

	maxBytes := int64(f.maxSizeMB) * 1024 * 1024
	if info.Size() < maxBytes {
		return nil
	}

	_ = f.file.Close()

	for i := f.maxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", f.path, i)
		newPath := fmt.Sprintf("%s.%d", f.path, i+1)
		_ = os.Rename(oldPath, newPath)
	}
	_ = os.Rename(f.path, f.path+".1")

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	f.file = file
	return nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

func (f *File) Name() string { return fmt.Sprintf("file:%s", f.path) }
