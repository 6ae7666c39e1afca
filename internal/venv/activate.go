// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Activation: the environment changes the activate script would make

package venv

import (
	"path/filepath"
	"strings"

	"github.com/sony-level/bdsetup/internal/exec"
)

// Activation is an activated virtual environment. It cannot alter the parent
// shell; instead Environ yields the environment every child process gets.
type Activation struct {
	Layout
	DisplayDir string
}

// Environ returns base with VIRTUAL_ENV set, the bin dir prepended to PATH and
// PYTHONHOME removed, as the activate script does
func (a *Activation) Environ(base []string) []string {
	windows := a.windows()
	sameKey := func(a, b string) bool {
		if windows {
			return strings.EqualFold(a, b)
		}
		return a == b
	}

	sep := ":"
	if windows {
		sep = ";"
	}

	var path string
	env := make([]string, 0, len(base)+3)
	for _, kv := range base {
		key, value, _ := strings.Cut(kv, "=")
		switch {
		case sameKey(key, "PATH"):
			path = value
		case sameKey(key, "PYTHONHOME"), sameKey(key, "VIRTUAL_ENV"), sameKey(key, "VIRTUAL_ENV_PROMPT"):
		default:
			env = append(env, kv)
		}
	}

	newPath := a.BinDir()
	if path != "" {
		newPath += sep + path
	}

	return append(env,
		"VIRTUAL_ENV="+a.Dir,
		"VIRTUAL_ENV_PROMPT="+filepath.Base(a.Dir),
		"PATH="+newPath,
	)
}

// Command builds a command that runs with the activated environment
func (a *Activation) Command(base []string, name, executable string, args ...string) *exec.Command {
	return &exec.Command{
		Name: name,
		Path: executable,
		Args: args,
		Env:  a.Environ(base),
	}
}

// PythonCommand runs the environment's interpreter with args
func (a *Activation) PythonCommand(base []string, name string, args ...string) *exec.Command {
	return a.Command(base, name, a.Python(), args...)
}

// Instructions returns the command a user types to activate the environment
func (a *Activation) Instructions() string {
	return instructions(a.GOOS, a.DisplayDir)
}
