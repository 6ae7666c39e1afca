// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Environment bootstrapper: interpreter, venv, activation, dependencies

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"github.com/sony-level/bdsetup/internal/exec"
	"github.com/sony-level/bdsetup/internal/manifest"
	"github.com/sony-level/bdsetup/internal/output"
	"github.com/sony-level/bdsetup/internal/prereq"
	"github.com/sony-level/bdsetup/internal/vcs"
	"github.com/sony-level/bdsetup/internal/venv"
)

const totalSteps = 5

// Step names as shown in the console and the report
const (
	StepLocate   = "Locate Python interpreter"
	StepEnsure   = "Ensure virtual environment"
	StepActivate = "Activate virtual environment"
	StepInstall  = "Install dependencies"
	StepComplete = "Complete"
)

// outputTail is how many lines of a failed command are shown
const outputTail = 15

// Locator finds a Python interpreter. *prereq.Locator satisfies it.
type Locator interface {
	Locate(ctx context.Context) (*prereq.Interpreter, error)
}

// Environment is a virtual environment. *venv.Manager satisfies it.
type Environment interface {
	Layout() venv.Layout
	State() (venv.State, error)
	Create(ctx context.Context, interp *prereq.Interpreter) (*exec.CommandResult, error)
	Activate() (*venv.Activation, error)
	Instructions() string
}

// Options configures a bootstrap run
type Options struct {
	WorkDir      string
	VenvDisplay  string   // venv path as configured, for messages
	Requirements string   // manifest path
	UpgradePip   bool
	DryRun       bool
	Environ      []string // base environment for child processes
	Policy       *manifest.PolicyConfig
	CheckIgnore  bool
}

// Bootstrapper runs the five bootstrap steps in order
type Bootstrapper struct {
	locator Locator
	env     Environment
	runner  venv.CommandRunner
	out     *output.Printer
	log     logr.Logger
	opts    Options
}

// New creates a bootstrapper
func New(locator Locator, env Environment, runner venv.CommandRunner, out *output.Printer, log logr.Logger, opts Options) *Bootstrapper {
	if opts.Environ == nil {
		opts.Environ = os.Environ()
	}
	if opts.VenvDisplay == "" {
		opts.VenvDisplay = env.Layout().Dir
	}
	return &Bootstrapper{
		locator: locator,
		env:     env,
		runner:  runner,
		out:     out,
		log:     log,
		opts:    opts,
	}
}

// run holds the state passed between steps
type run struct {
	report     *Report
	interp     *prereq.Interpreter
	activation *venv.Activation
}

// Run executes the steps. Any failure halts the run and is returned as *Error;
// the report is always returned.
func (b *Bootstrapper) Run(ctx context.Context) (*Report, error) {
	r := &run{report: &Report{
		StartedAt: time.Now(),
		WorkDir:   b.opts.WorkDir,
		DryRun:    b.opts.DryRun,
		VenvDir:   b.opts.VenvDisplay,
		Manifest:  b.opts.Requirements,
	}}

	if b.opts.DryRun {
		b.out.Warning("Dry run: nothing will be created or installed")
	}

	steps := []func(context.Context, *run) error{
		b.locate,
		b.ensure,
		b.activate,
		b.install,
		b.complete,
	}
	for _, step := range steps {
		if err := step(ctx, r); err != nil {
			r.report.finish(err)
			b.log.V(1).Info("bootstrap halted", "error", err.Error())
			return r.report, err
		}
	}
	r.report.finish(nil)
	return r.report, nil
}

func (b *Bootstrapper) locate(ctx context.Context, r *run) error {
	b.out.Step(1, totalSteps, StepLocate)
	start := time.Now()

	interp, err := b.locator.Locate(ctx)
	if err != nil {
		r.report.record(1, StepLocate, StatusFailed, err.Error(), start)

		var notFound *prereq.NotFoundError
		if errors.As(err, &notFound) {
			b.out.Detail("No Python 3 interpreter found on PATH")
			b.out.Block(notFound.Guide(), 2)
		}
		var tooOld *prereq.VersionError
		if errors.As(err, &tooOld) {
			b.out.Detail("Python %s is required", tooOld.Constraint)
		}
		return fail(InterpreterNotFound, err)
	}

	r.interp = interp
	r.report.Interpreter = interp.Candidate.String()
	r.report.PythonVer = interp.Version
	r.report.record(1, StepLocate, StatusOK, interp.String(), start)
	b.out.Success("Found %s", interp)
	b.log.V(1).Info("interpreter located", "command", interp.Candidate.String(), "path", interp.Path, "version", interp.Version)
	return nil
}

func (b *Bootstrapper) ensure(ctx context.Context, r *run) error {
	b.out.Step(2, totalSteps, StepEnsure)
	start := time.Now()
	layout := b.env.Layout()

	state, err := b.env.State()
	if err != nil {
		r.report.record(2, StepEnsure, StatusFailed, err.Error(), start)
		return fail(EnvironmentCreationFailed, err)
	}

	switch state {
	case venv.StatePresent:
		msg := fmt.Sprintf("Virtual environment already exists at %s", b.opts.VenvDisplay)
		r.report.record(2, StepEnsure, StatusSkipped, msg, start)
		b.out.Success("%s", msg)
		if _, err := os.Stat(layout.Config()); err != nil {
			b.warn(r, fmt.Sprintf("%s has no %s; it may not be a virtual environment", b.opts.VenvDisplay, venv.ConfigFile))
		}
		return nil
	case venv.StateNotDirectory:
		err := fmt.Errorf("%s exists and is not a directory", b.opts.VenvDisplay)
		r.report.record(2, StepEnsure, StatusFailed, err.Error(), start)
		return fail(EnvironmentCreationFailed, err)
	}

	b.out.Detail("Creating virtual environment in %s", b.opts.VenvDisplay)
	result, err := b.env.Create(ctx, r.interp)
	if err != nil {
		rec := r.report.record(2, StepEnsure, StatusFailed, err.Error(), start)
		b.showFailure(rec, result)
		return fail(EnvironmentCreationFailed, err)
	}

	if result != nil && result.DryRun {
		rec := r.report.record(2, StepEnsure, StatusPlanned, "would create "+b.opts.VenvDisplay, start)
		rec.Commands = []string{result.Command}
		b.out.Detail("Would run: %s", result.Command)
		return nil
	}

	rec := r.report.record(2, StepEnsure, StatusOK, "created "+b.opts.VenvDisplay, start)
	if result != nil {
		rec.Commands = []string{result.Command}
	}
	b.out.Success("Virtual environment created at %s", b.opts.VenvDisplay)
	return nil
}

func (b *Bootstrapper) activate(_ context.Context, r *run) error {
	b.out.Step(3, totalSteps, StepActivate)
	start := time.Now()

	if b.opts.DryRun && r.report.Step(2).Status == StatusPlanned {
		r.report.record(3, StepActivate, StatusPlanned, "would activate "+b.opts.VenvDisplay, start)
		b.out.Detail("Would activate %s", b.env.Layout().BinDir())
		return nil
	}

	act, err := b.env.Activate()
	if err != nil {
		r.report.record(3, StepActivate, StatusFailed, err.Error(), start)
		b.out.Detail("Expected %s", b.env.Layout().ActivateScript())
		return fail(ActivationFailed, err)
	}

	r.activation = act
	r.report.record(3, StepActivate, StatusOK, "VIRTUAL_ENV="+act.Dir, start)
	b.out.Success("Activated %s for this session", b.opts.VenvDisplay)
	b.out.Detail("VIRTUAL_ENV=%s", act.Dir)
	b.log.V(1).Info("activation applied", "bin", act.BinDir())
	return nil
}

func (b *Bootstrapper) install(ctx context.Context, r *run) error {
	b.out.Step(4, totalSteps, StepInstall)
	start := time.Now()

	m, err := manifest.Load(b.opts.Requirements)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			b.out.Detail("Create %s or pass --requirements", filepath.Base(b.opts.Requirements))
		}
		r.report.record(4, StepInstall, StatusFailed, err.Error(), start)
		return fail(DependencyInstallFailed, err)
	}
	r.report.Requirements = m.Names()
	for _, req := range m.Requirements {
		b.log.V(1).Info("requirement", "line", fmt.Sprintf("%s:%d", req.Source, req.Line), "spec", req.String())
	}
	b.out.Detail("%s: %s", b.opts.Requirements, output.Plural(len(m.Requirements), "requirement", "requirements"))

	for _, f := range manifest.Warnings(manifest.Check(m, b.opts.Policy)) {
		b.warn(r, f.String())
	}

	var cmds []*exec.Command
	if b.opts.UpgradePip {
		cmds = append(cmds, b.pythonCommand(r, "upgrade-pip", "-m", "pip", "install", "--upgrade", "pip"))
	}
	cmds = append(cmds, b.pythonCommand(r, "pip-install", "-m", "pip", "install", "-r", b.opts.Requirements))

	var ran []string
	planned := false
	for _, cmd := range cmds {
		b.out.Detail("Running: %s", cmd)
		result := b.runner.Run(ctx, cmd)
		ran = append(ran, result.Command)
		if result.DryRun {
			planned = true
			continue
		}
		if !result.Success {
			cerr := result.Error
			if cerr == nil {
				cerr = fmt.Errorf("command exited with code %d", result.ExitCode)
			}
			rec := r.report.record(4, StepInstall, StatusFailed, cerr.Error(), start)
			rec.Commands = ran
			b.showFailure(rec, result)
			return fail(DependencyInstallFailed, fmt.Errorf("%s: %w", cmd.Name, cerr))
		}
		b.log.V(1).Info("command finished", "name", cmd.Name, "duration", result.Duration.String())
	}

	status, msg := StatusOK, "installed "+output.Plural(len(m.Requirements), "requirement", "requirements")
	if planned {
		status, msg = StatusPlanned, "would install from "+b.opts.Requirements
	}
	rec := r.report.record(4, StepInstall, status, msg, start)
	rec.Commands = ran
	if !planned {
		b.out.Success("Dependencies installed")
	}
	return nil
}

func (b *Bootstrapper) complete(_ context.Context, r *run) error {
	b.out.Step(5, totalSteps, StepComplete)
	start := time.Now()

	if b.opts.CheckIgnore {
		b.checkIgnored(r)
	}

	instructions := b.env.Instructions()
	if r.activation != nil {
		instructions = r.activation.Instructions()
	}
	r.report.Activate = instructions

	if b.opts.DryRun {
		r.report.record(5, StepComplete, StatusPlanned, "dry run finished", start)
		b.out.Success("Dry run finished; no changes made")
		return nil
	}

	r.report.record(5, StepComplete, StatusOK, "environment ready", start)
	b.out.Success("Setup complete")
	b.out.Info("To activate the environment in your shell, run:")
	b.out.Block(instructions, 2)
	return nil
}

// pythonCommand runs the environment's interpreter. Without an activation
// (dry run on a fresh host) the command is built from the layout.
func (b *Bootstrapper) pythonCommand(r *run, name string, args ...string) *exec.Command {
	if r.activation != nil {
		return r.activation.PythonCommand(b.opts.Environ, name, args...)
	}
	return &exec.Command{Name: name, Path: b.env.Layout().Python(), Args: args}
}

func (b *Bootstrapper) checkIgnored(r *run) {
	status, err := vcs.CheckIgnored(b.opts.WorkDir, b.env.Layout().Dir)
	if err != nil {
		b.log.V(1).Info("gitignore check skipped", "error", err.Error())
		return
	}
	if status.InRepo && !status.Ignored {
		b.warn(r, fmt.Sprintf("%s is not ignored by git; add %q to .gitignore", status.RelPath, status.RelPath+"/"))
	}
}

func (b *Bootstrapper) warn(r *run, msg string) {
	r.report.Warnings = append(r.report.Warnings, msg)
	b.out.Warning("%s", msg)
}

func (b *Bootstrapper) showFailure(rec *StepRecord, result *exec.CommandResult) {
	if result == nil {
		return
	}
	rec.Output = result.Tail(outputTail)
	if len(rec.Output) == 0 {
		return
	}
	b.out.Detail("Last output of %s:", result.Command)
	b.out.List(rec.Output, 2)
}
