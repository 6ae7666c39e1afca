// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Run log workspace

package workspace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	idMutex       sync.Mutex
	lastTimestamp string
	lastCounter   int
)

// ResetRunIDState resets the global run ID generation state (for testing)
func ResetRunIDState() {
	idMutex.Lock()
	defer idMutex.Unlock()
	lastTimestamp = ""
	lastCounter = 0
}

// GenerateRunID creates a run ID of the form bd-YYYYMMDD-HHMM-xxx, where xxx is
// random hex for the first run in a minute and a counter for later ones
func GenerateRunID() (string, error) {
	idMutex.Lock()
	defer idMutex.Unlock()

	timestamp := time.Now().Format("20060102-1504")

	if timestamp == lastTimestamp {
		lastCounter++
		return fmt.Sprintf("%s-%s-%03d", RunIDPrefix, timestamp, lastCounter), nil
	}

	randomBytes := make([]byte, 2)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	lastTimestamp = timestamp
	lastCounter = 0

	return fmt.Sprintf("%s-%s-%s", RunIDPrefix, timestamp, hex.EncodeToString(randomBytes)[:3]), nil
}

// LogsRoot returns the directory holding every run's logs under baseDir
func LogsRoot(baseDir string) string {
	return filepath.Join(baseDir, StateDir, LogsSubdir)
}

// New creates a workspace directory for a new run
func New(config *WorkspaceConfig) (*Workspace, error) {
	if config == nil {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		config = &WorkspaceConfig{BaseDir: cwd}
	}

	runID, err := GenerateRunID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run ID: %w", err)
	}

	path := filepath.Join(LogsRoot(config.BaseDir), runID)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory %s: %w", path, err)
	}

	return &Workspace{
		RunID:   runID,
		Path:    path,
		BaseDir: config.BaseDir,
	}, nil
}

// LogFile returns the path of the install transcript
func (w *Workspace) LogFile() string {
	return filepath.Join(w.Path, InstallLog)
}

// OpenLog creates the install transcript for appending
func (w *Workspace) OpenLog() (*os.File, error) {
	f, err := os.OpenFile(w.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", w.LogFile(), err)
	}
	return f, nil
}

// LazyLog is an io.Writer that creates the workspace and its install log on
// the first write, so runs that never execute a command leave nothing behind
type LazyLog struct {
	config WorkspaceConfig
	mu     sync.Mutex
	ws     *Workspace
	f      *os.File
	err    error
}

// NewLazyLog returns a writer for a workspace under config.BaseDir
func NewLazyLog(config *WorkspaceConfig) *LazyLog {
	return &LazyLog{config: *config}
}

func (l *LazyLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil && l.err == nil {
		l.ws, l.err = New(&l.config)
		if l.err == nil {
			l.f, l.err = l.ws.OpenLog()
		}
	}
	if l.err != nil {
		return 0, l.err
	}
	return l.f.Write(p)
}

// Workspace returns the created workspace, or nil if nothing was written
func (l *LazyLog) Workspace() *Workspace {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.ws
}

// Close closes the log file if it was opened
func (l *LazyLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
