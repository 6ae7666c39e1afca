/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sony-level/bdsetup/internal/venv"
)

// shellCmd starts a shell, or runs a command, inside the virtual environment
var shellCmd = &cobra.Command{
	Use:   "shell [-- command [args...]]",
	Short: "Start a shell with the virtual environment activated",
	Long: `A program cannot activate a virtual environment in the shell that
started it. shell starts a new one with the environment applied instead;
exit it to return. With a command after --, that command runs in the
environment and shell exits with its status.

Examples:
  bdsetup shell
  bdsetup shell -- python app.py`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out := newPrinter(cmd, s)

	m := venv.NewManager(s.VenvPath(), s.VenvDir, runtime.GOOS, nil)
	act, err := m.Activate()
	if err != nil {
		return fmt.Errorf("%w (run bdsetup first)", err)
	}

	if len(args) == 0 {
		args = []string{userShell()}
		out.Info("Entering %s; type exit to leave", s.VenvDir)
	}

	// The child needs the terminal, so it bypasses the piped runner. It is not
	// bound to the command context: Ctrl-C reaches the child from the terminal
	// and the notify context keeps this process alive until the child exits.
	child := osexec.Command(resolveInEnv(act, args[0]), args[1:]...)
	child.Env = act.Environ(os.Environ())
	child.Stdin = os.Stdin
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()

	if err := child.Run(); err != nil {
		var exitErr *osexec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with code %d", args[0], exitErr.ExitCode())
		}
		return fmt.Errorf("failed to start %s: %w", args[0], err)
	}
	return nil
}

// resolveInEnv prefers executables from the environment's bin dir, since
// exec looks names up on this process's PATH
func resolveInEnv(act *venv.Activation, name string) string {
	if strings.ContainsAny(name, `/\`) {
		return name
	}
	candidates := []string{filepath.Join(act.BinDir(), name)}
	if act.GOOS == "windows" {
		candidates = append([]string{candidates[0] + ".exe"}, candidates...)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return name
}

func userShell() string {
	if runtime.GOOS == "windows" {
		if c := os.Getenv("COMSPEC"); c != "" {
			return c
		}
		return "cmd.exe"
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}
