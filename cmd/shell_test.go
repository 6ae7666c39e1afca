//go:build !windows

/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEnvironment(t *testing.T, dir string) {
	t.Helper()
	bin := filepath.Join(dir, "venv", "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "activate"), []byte("# activate\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "python"), []byte("#!/bin/sh\n"), 0o755))
}

func TestShellRunsCommandInEnvironment(t *testing.T) {
	dir := t.TempDir()
	fakeEnvironment(t, dir)

	out, err := execute(t, dir, "shell", "--", "sh", "-c", `echo "$VIRTUAL_ENV"`)

	require.NoError(t, err)
	assert.Contains(t, out, "/venv\n")
}

func TestShellChildOutlivesInterrupt(t *testing.T) {
	dir := t.TempDir()
	fakeEnvironment(t, dir)

	// an interrupted session must leave the child to handle Ctrl-C itself
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := executeContext(t, ctx, dir, "shell", "--", "sh", "-c", "sleep 0.2; echo finished")

	require.NoError(t, err)
	assert.Contains(t, out, "finished")
}

func TestShellReportsExitCode(t *testing.T) {
	dir := t.TempDir()
	fakeEnvironment(t, dir)

	_, err := execute(t, dir, "shell", "--", "sh", "-c", "exit 3")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 3")
}
