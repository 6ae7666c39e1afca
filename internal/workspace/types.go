// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// workspace types/constants

package workspace

import "time"

const (
	StateDir    = ".bdsetup"
	LogsSubdir  = "logs"
	RunIDPrefix = "bd"
	InstallLog  = "install.log"
)

// Workspace is the log directory of a single bootstrap run
type Workspace struct {
	RunID   string
	Path    string
	BaseDir string
}

// WorkspaceConfig holds configuration for workspace creation
type WorkspaceConfig struct {
	BaseDir string
}

// RunInfo describes a workspace found on disk
type RunInfo struct {
	RunID   string
	Path    string
	ModTime time.Time
	Size    int64
}
