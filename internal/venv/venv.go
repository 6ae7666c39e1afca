// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Virtual environment creation and activation

package venv

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sony-level/bdsetup/internal/exec"
	"github.com/sony-level/bdsetup/internal/prereq"
)

// State describes what is found at the environment path
type State int

const (
	// StateAbsent means nothing exists at the path
	StateAbsent State = iota
	// StatePresent means a directory exists at the path
	StatePresent
	// StateNotDirectory means a file or other non-directory blocks the path
	StateNotDirectory
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	case StateNotDirectory:
		return "not a directory"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CommandRunner runs a command. *exec.Runner satisfies it.
type CommandRunner interface {
	Run(ctx context.Context, cmd *exec.Command) *exec.CommandResult
}

// Manager creates and activates one virtual environment
type Manager struct {
	layout     Layout
	displayDir string
	runner     CommandRunner
}

// NewManager manages the environment at dir. displayDir is the path shown to
// the user in activation instructions (usually the configured relative path).
func NewManager(dir, displayDir, goos string, runner CommandRunner) *Manager {
	if displayDir == "" {
		displayDir = dir
	}
	return &Manager{
		layout:     NewLayout(dir, goos),
		displayDir: displayDir,
		runner:     runner,
	}
}

// Layout returns the environment's path layout
func (m *Manager) Layout() Layout {
	return m.layout
}

// State inspects the environment path
func (m *Manager) State() (State, error) {
	info, err := os.Stat(m.layout.Dir)
	if os.IsNotExist(err) {
		return StateAbsent, nil
	}
	if err != nil {
		return StateAbsent, fmt.Errorf("failed to stat %s: %w", m.layout.Dir, err)
	}
	if !info.IsDir() {
		return StateNotDirectory, nil
	}
	return StatePresent, nil
}

// Exists reports whether the environment directory is present

// CreateCommand returns the command that creates the environment with interp
func (m *Manager) CreateCommand(interp *prereq.Interpreter) *exec.Command {
	return interp.Cmd("create-venv", "-m", "venv", m.layout.Dir)
}

// Create builds the environment with `python -m venv`. The command result is
// returned even on failure so callers can show its output.
func (m *Manager) Create(ctx context.Context, interp *prereq.Interpreter) (*exec.CommandResult, error) {
	state, err := m.State()
	if err != nil {
		return nil, err
	}
	if state == StateNotDirectory {
		return nil, fmt.Errorf("%s exists and is not a directory", m.layout.Dir)
	}

	result := m.runner.Run(ctx, m.CreateCommand(interp))
	if result.DryRun {
		return result, nil
	}
	if !result.Success {
		return result, fmt.Errorf("%s -m venv failed: %w", interp.Candidate.String(), result.Error)
	}
	if _, err := os.Stat(m.layout.Config()); err != nil {
		return result, fmt.Errorf("venv reported success but %s is missing", m.layout.Config())
	}
	return result, nil
}

// Activate checks that the environment can be activated and returns the
// activation to apply to child processes
func (m *Manager) Activate() (*Activation, error) {
	for _, p := range []string{m.layout.ActivateScript(), m.layout.Python()} {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("activation failed: %s is a directory", p)
		}
	}
	return &Activation{Layout: m.layout, DisplayDir: m.displayDir}, nil
}

// Instructions returns the command a user types to activate the environment
func (m *Manager) Instructions() string {
	return instructions(m.layout.GOOS, m.displayDir)
}

func instructions(goos, displayDir string) string {
	if goos == "windows" {
		return strings.ReplaceAll(displayDir, "/", `\`) + `\Scripts\activate`
	}
	return "source " + displayDir + "/bin/activate"
}
