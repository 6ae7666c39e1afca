// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Virtual environment directory layout

package venv

import (
	"path/filepath"
)

// ConfigFile marks a directory as a virtual environment
const ConfigFile = "pyvenv.cfg"

// Layout gives the OS-specific paths inside a virtual environment
type Layout struct {
	Dir  string // Absolute environment directory
	GOOS string
}

// NewLayout returns the layout of dir for goos
func NewLayout(dir, goos string) Layout {
	return Layout{Dir: dir, GOOS: goos}
}

func (l Layout) windows() bool {
	return l.GOOS == "windows"
}

// BinDir holds the interpreter, pip and activation scripts
func (l Layout) BinDir() string {
	if l.windows() {
		return filepath.Join(l.Dir, "Scripts")
	}
	return filepath.Join(l.Dir, "bin")
}

// Python is the environment's interpreter
func (l Layout) Python() string {
	if l.windows() {
		return filepath.Join(l.BinDir(), "python.exe")
	}
	return filepath.Join(l.BinDir(), "python")
}

// ActivateScript is the script a user sources to activate the environment
func (l Layout) ActivateScript() string {
	if l.windows() {
		return filepath.Join(l.BinDir(), "activate.bat")
	}
	return filepath.Join(l.BinDir(), "activate")
}

// Config is the pyvenv.cfg marker file
func (l Layout) Config() string {
	return filepath.Join(l.Dir, ConfigFile)
}
