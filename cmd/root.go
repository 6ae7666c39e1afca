/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sony-level/bdsetup/internal/bootstrap"
	"github.com/sony-level/bdsetup/internal/config"
	"github.com/sony-level/bdsetup/internal/exec"
	"github.com/sony-level/bdsetup/internal/manifest"
	"github.com/sony-level/bdsetup/internal/output"
	"github.com/sony-level/bdsetup/internal/prereq"
	"github.com/sony-level/bdsetup/internal/venv"
	"github.com/sony-level/bdsetup/internal/workspace"
)

var cfgFile string

// rootCmd represents the base command - runs the bootstrap directly
var rootCmd = &cobra.Command{
	Use:   "bdsetup",
	Short: "Prepare a Python environment for BrainDump",
	Long: `bdsetup prepares this machine to run BrainDump. It finds a Python 3
interpreter, creates a virtual environment if there is none, activates it
for the session and installs the dependencies from requirements.txt.

Running it again is safe: an existing environment is reused.

Examples:
  bdsetup
  bdsetup --dry-run
  bdsetup --venv .venv --requirements requirements-dev.txt
  bdsetup --python /usr/bin/python3.12 --upgrade-pip --log-file
  bdsetup --report setup-report.yaml`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBootstrap,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output.New(false).Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Persistent flags - available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./.bdsetup.yaml)")
	rootCmd.PersistentFlags().String("venv", config.DefaultVenvDir, "Virtual environment directory")
	rootCmd.PersistentFlags().String("python", "", "Python interpreter to use instead of searching PATH")
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "Application environment file")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable coloured output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose diagnostics")

	rootCmd.Flags().String("requirements", config.DefaultRequirements, "Requirements manifest")
	rootCmd.Flags().String("min-python", "", "Minimum Python version or PEP 440 specifier (default: pyproject.toml requires-python)")
	rootCmd.Flags().Bool("upgrade-pip", false, "Upgrade pip before installing")
	rootCmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout for each command (max 30m)")
	rootCmd.Flags().Bool("dry-run", false, "Show what would be done without changing anything")
	rootCmd.Flags().Bool("log-file", false, "Write command output to .bdsetup/logs/<run-id>/install.log")
	rootCmd.Flags().String("report", "", "Write a YAML report of the run to this file")
}

// loadSettings resolves settings for the current directory and cmd's flags
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return config.Load(cwd, cfgFile, cmd.Flags())
}

func newPrinter(cmd *cobra.Command, s *config.Settings) *output.Printer {
	p := output.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if s.NoColor || !output.IsTerminal(os.Stdout) {
		p.DisableColor()
	}
	return p
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out := newPrinter(cmd, s)
	log := output.NewLogger(cmd.ErrOrStderr(), s.Verbose)
	if s.Source != "" {
		log.V(1).Info("config loaded", "file", s.Source)
	}

	constraintText, constraint, err := bootstrap.PythonConstraint(s.Python.MinVersion, s.Resolve(manifest.PyprojectFile))
	if err != nil {
		return err
	}
	if constraintText != "" {
		out.Detail("Python %s required", constraintText)
	}

	locator := prereq.NewLocator(prereq.LocatorConfig{
		Path:           s.Python.Path,
		Constraint:     constraint,
		ConstraintText: constraintText,
		Logger:         log,
	})
	if s.Verbose {
		var names []string
		for _, c := range locator.Candidates() {
			names = append(names, c.String())
		}
		log.V(1).Info("searching for python", "candidates", names)
	}

	runnerConfig := &exec.RunnerConfig{
		Mode:           exec.ModeExecute,
		DefaultTimeout: s.Timeout,
		Stdout:         cmd.OutOrStdout(),
		Stderr:         cmd.ErrOrStderr(),
	}
	if s.DryRun {
		runnerConfig.Mode = exec.ModeDryRun
	}

	var runLog *workspace.LazyLog
	if s.LogFile && !s.DryRun {
		runLog = workspace.NewLazyLog(&workspace.WorkspaceConfig{BaseDir: s.WorkDir})
		defer runLog.Close()
		runnerConfig.Log = runLog
	}
	runner := exec.NewRunner(runnerConfig)

	env := venv.NewManager(s.VenvPath(), s.VenvDir, runtime.GOOS, runner)
	b := bootstrap.New(locator, env, runner, out, log, bootstrap.Options{
		WorkDir:      s.WorkDir,
		VenvDisplay:  s.VenvDir,
		Requirements: s.RequirementsPath(),
		UpgradePip:   s.UpgradePip,
		DryRun:       s.DryRun,
		Environ:      os.Environ(),
		Policy:       manifest.DefaultPolicy(),
		CheckIgnore:  true,
	})

	report, runErr := b.Run(cmd.Context())

	if runLog != nil {
		if ws := runLog.Workspace(); ws != nil {
			report.RunID = ws.RunID
			report.LogFile = ws.LogFile()
			out.LabelValue("Log", ws.LogFile())
		}
	}
	if s.Report != "" {
		if err := report.WriteFile(s.Resolve(s.Report)); err != nil {
			out.Warning("%v", err)
		} else {
			out.LabelValue("Report", s.Report)
		}
	}
	return runErr
}
