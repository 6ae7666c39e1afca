// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Execution types

package exec

import (
	"io"
	"strings"
	"time"
)

// DefaultTimeout is the default timeout for a single command
const DefaultTimeout = 10 * time.Minute

// MaxTimeout is the maximum allowed timeout for a single command
const MaxTimeout = 30 * time.Minute

// ExecutionMode determines how the runner behaves
type ExecutionMode int

const (
	// ModeDryRun reports what would run without executing
	ModeDryRun ExecutionMode = iota
	// ModeExecute actually runs the commands
	ModeExecute
)

// RunnerConfig configures the runner
type RunnerConfig struct {
	Mode           ExecutionMode
	Quiet          bool          // Do not echo child output to Stdout/Stderr
	DefaultTimeout time.Duration // Used when a command has no timeout of its own
	Stdout         io.Writer     // Console sink for child stdout (nil = discard)
	Stderr         io.Writer     // Console sink for child stderr (nil = discard)
	Log            io.Writer     // Optional transcript of every command and its output
}

// Command describes one process invocation
type Command struct {
	Name    string        // Short label used in messages, e.g. "create-venv"
	Path    string        // Executable name or path
	Args    []string      // Arguments, not including Path
	Dir     string        // Working directory ("" = current)
	Env     []string      // Full environment (nil = inherit)
	Timeout time.Duration // 0 = runner default
}

// String renders the command line for display
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Path))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// CommandResult contains the result of running a command
type CommandResult struct {
	Command  string
	Success  bool
	DryRun   bool
	TimedOut bool
	ExitCode int
	Duration time.Duration
	Stdout   string
	Stderr   string
	Error    error
}

// Tail returns the last n non-empty lines of stderr, or stdout when stderr is empty
func (r *CommandResult) Tail(n int) []string {
	text := strings.TrimSpace(r.Stderr)
	if text == "" {
		text = strings.TrimSpace(r.Stdout)
	}
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// GetTimeout returns the effective timeout for a command
func GetTimeout(cmd *Command, defaultTimeout time.Duration) time.Duration {
	if cmd.Timeout > 0 {
		if cmd.Timeout > MaxTimeout {
			return MaxTimeout
		}
		return cmd.Timeout
	}
	if defaultTimeout > 0 {
		if defaultTimeout > MaxTimeout {
			return MaxTimeout
		}
		return defaultTimeout
	}
	return DefaultTimeout
}
