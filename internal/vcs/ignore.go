// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Git ignore check for generated directories

package vcs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreStatus describes how git treats a path
type IgnoreStatus struct {
	InRepo   bool
	RepoRoot string
	RelPath  string
	Ignored  bool
}

// CheckIgnored reports whether path is excluded by the .gitignore files of the
// work tree containing workDir. A workDir outside any repository is not an error.
func CheckIgnored(workDir, path string) (*IgnoreStatus, error) {
	repo, err := git.PlainOpenWithOptions(workDir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return &IgnoreStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return &IgnoreStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	root := canonical(wt.Filesystem.Root())
	rel, err := filepath.Rel(root, canonical(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return &IgnoreStatus{RepoRoot: root}, nil
	}

	patterns, err := gitignore.ReadPatterns(wt.Filesystem, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore: %w", err)
	}
	patterns = append(patterns, wt.Excludes...)

	matcher := gitignore.NewMatcher(patterns)
	parts := strings.Split(filepath.ToSlash(rel), "/")

	return &IgnoreStatus{
		InRepo:   true,
		RepoRoot: root,
		RelPath:  filepath.ToSlash(rel),
		Ignored:  matcher.Match(parts, true),
	}, nil
}

// canonical resolves symlinks on the longest existing prefix of p
func canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	parent, base := filepath.Split(abs)
	parent = filepath.Clean(parent)
	if parent == abs {
		return abs
	}
	return filepath.Join(canonical(parent), base)
}
