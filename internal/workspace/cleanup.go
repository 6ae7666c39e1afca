// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Listing and cleanup of run logs

package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// List returns the runs recorded under baseDir, oldest first
func List(baseDir string) ([]RunInfo, error) {
	root := LogsRoot(baseDir)
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var runs []RunInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, entry.Name())
		runs = append(runs, RunInfo{
			RunID:   entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    dirSize(path),
		})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ModTime.Before(runs[j].ModTime) })
	return runs, nil
}

func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}

// CleanupAll removes every run log and the state directory if it ends up empty
func CleanupAll(baseDir string) (int, error) {
	runs, err := List(baseDir)
	if err != nil {
		return 0, err
	}
	root := LogsRoot(baseDir)
	if err := os.RemoveAll(root); err != nil {
		return 0, fmt.Errorf("failed to cleanup run logs: %w", err)
	}
	_ = os.Remove(filepath.Join(baseDir, StateDir))
	return len(runs), nil
}

// CleanupStale removes runs whose directory is older than maxAge
func CleanupStale(baseDir string, maxAge time.Duration) (int, error) {
	runs, err := List(baseDir)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	cleaned := 0
	for _, run := range runs {
		if now.Sub(run.ModTime) < maxAge {
			continue
		}
		if err := os.RemoveAll(run.Path); err == nil {
			cleaned++
		}
	}

	_ = os.Remove(LogsRoot(baseDir))
	_ = os.Remove(filepath.Join(baseDir, StateDir))
	return cleaned, nil
}
