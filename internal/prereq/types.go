// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Interpreter types and install guides

package prereq

import (
	"fmt"
	"strings"

	"github.com/sony-level/bdsetup/internal/exec"
)

// Candidate is one way of launching Python on a host
type Candidate struct {
	Command string   // Executable looked up on PATH
	Args    []string // Arguments that select the interpreter, e.g. "-3" for the Windows launcher
}

// String renders the candidate as typed on a command line
func (c Candidate) String() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	return c.Command + " " + strings.Join(c.Args, " ")
}

// DefaultCandidates returns the launcher search order for goos
func DefaultCandidates(goos string) []Candidate {
	if goos == "windows" {
		return []Candidate{
			{Command: "py", Args: []string{"-3"}},
			{Command: "python"},
			{Command: "python3"},
		}
	}
	return []Candidate{
		{Command: "python3"},
		{Command: "python"},
	}
}

// Interpreter is a located, working Python launcher
type Interpreter struct {
	Candidate
	Path    string // Resolved executable path
	Version string // e.g. "3.12.1"
}

// Cmd builds a command that runs this interpreter with args
func (i *Interpreter) Cmd(name string, args ...string) *exec.Command {
	full := make([]string, 0, len(i.Args)+len(args))
	full = append(full, i.Args...)
	full = append(full, args...)
	return &exec.Command{Name: name, Path: i.Path, Args: full}
}

// String describes the interpreter for display
func (i *Interpreter) String() string {
	return fmt.Sprintf("Python %s (%s)", i.Version, i.Path)
}

// NotFoundError reports that no candidate produced a working interpreter
type NotFoundError struct {
	Tried []string
	GOOS  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("python interpreter not found (tried: %s)", strings.Join(e.Tried, ", "))
}

// Guide returns installation instructions for the host
func (e *NotFoundError) Guide() string {
	return InstallGuide(e.GOOS)
}

// VersionError reports an interpreter that does not satisfy the version constraint
type VersionError struct {
	Interpreter *Interpreter
	Constraint  string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s does not satisfy required version %s", e.Interpreter, e.Constraint)
}

// InstallGuide returns Python installation instructions for goos
func InstallGuide(goos string) string {
	switch goos {
	case "windows":
		return `Install Python 3 from https://www.python.org/downloads/windows/
and tick "Add python.exe to PATH" (the "py" launcher is installed by default).
  winget:  winget install Python.Python.3.12`
	case "darwin":
		return `Install Python 3:
  brew:    brew install python
  All:     https://www.python.org/downloads/macos/`
	default:
		return `Install Python 3 with the venv module:
  Ubuntu:  sudo apt install python3 python3-venv python3-pip
  Fedora:  sudo dnf install python3 python3-pip
  Arch:    sudo pacman -S python
  All:     https://www.python.org/downloads/`
	}
}
