// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Command runner with streaming output and process-group cleanup

package exec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// waitDelay bounds how long Wait blocks on output pipes after the process is signalled
const waitDelay = 5 * time.Second

// Runner executes commands
type Runner struct {
	config *RunnerConfig
	mu     sync.Mutex // guards writes to config.Log
}

// NewRunner creates a new command runner
func NewRunner(config *RunnerConfig) *Runner {
	if config == nil {
		config = &RunnerConfig{
			Mode:           ModeDryRun,
			DefaultTimeout: DefaultTimeout,
		}
	}
	return &Runner{config: config}
}

// Run executes a single command. It never returns nil.
func (r *Runner) Run(ctx context.Context, c *Command) *CommandResult {
	result := &CommandResult{Command: c.String()}
	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	if r.config.Mode == ModeDryRun {
		result.Success = true
		result.DryRun = true
		return result
	}

	timeout := GetTimeout(c, r.config.DefaultTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.logf("$ %s\n", result.Command)

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	setPlatformProcessGroup(cmd)
	cmd.Cancel = func() error {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return killProcessGroup(cmd)
		}
		return interruptProcessGroup(cmd)
	}
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		result.Error = fmt.Errorf("failed to create stdout pipe: %w", err)
		return result
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		result.Error = fmt.Errorf("failed to create stderr pipe: %w", err)
		return result
	}

	if err := cmd.Start(); err != nil {
		result.ExitCode = -1
		result.Error = fmt.Errorf("failed to start %s: %w", c.Path, err)
		r.logf("! %v\n", result.Error)
		return result
	}

	var stdoutBuf, stderrBuf strings.Builder
	var g errgroup.Group
	g.Go(func() error {
		return r.streamOutput(stdout, &stdoutBuf, r.config.Stdout)
	})
	g.Go(func() error {
		return r.streamOutput(stderr, &stderrBuf, r.config.Stderr)
	})
	pumpErr := g.Wait()

	err = cmd.Wait()
	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			result.TimedOut = true
			result.ExitCode = -1
			result.Error = fmt.Errorf("command timed out after %v", timeout)
		case errors.Is(ctx.Err(), context.Canceled):
			result.ExitCode = -1
			result.Error = fmt.Errorf("command interrupted: %w", ctx.Err())
		default:
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitCode()
				result.Error = fmt.Errorf("command exited with code %d", result.ExitCode)
			} else {
				result.ExitCode = -1
				result.Error = err
			}
		}
		r.logf("! %v\n", result.Error)
		return result
	}

	if pumpErr != nil && !errors.Is(pumpErr, os.ErrClosed) {
		result.Error = fmt.Errorf("failed to read command output: %w", pumpErr)
		return result
	}

	result.Success = true
	r.logf("= exit 0 (%v)\n", time.Since(startTime).Round(time.Millisecond))
	return result
}

// streamOutput reads from a pipe and writes to the buffer, the console and the log
func (r *Runner) streamOutput(pipe io.Reader, buf *strings.Builder, out io.Writer) error {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteString("\n")

		if out != nil && !r.config.Quiet {
			fmt.Fprintln(out, line)
		}
		r.logf("%s\n", line)
	}
	if err := scanner.Err(); err != nil {
		// keep the pipe moving so the child can still exit
		_, _ = io.Copy(io.Discard, pipe)
		return err
	}
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.config.Log == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.config.Log, format, args...)
}
