// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for the bootstrap pipeline

package bootstrap_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sony-level/bdsetup/internal/bootstrap"
	"github.com/sony-level/bdsetup/internal/exec"
	"github.com/sony-level/bdsetup/internal/output"
	"github.com/sony-level/bdsetup/internal/prereq"
	"github.com/sony-level/bdsetup/internal/venv"
)

type fakeLocator struct {
	interp *prereq.Interpreter
	err    error
}

func (l *fakeLocator) Locate(context.Context) (*prereq.Interpreter, error) {
	return l.interp, l.err
}

// fakeRunner lays out a venv for "-m venv" and records pip invocations
type fakeRunner struct {
	goos      string
	failVenv  bool
	failPip   bool
	noScripts bool
	calls     []*exec.Command
}

func (r *fakeRunner) Run(_ context.Context, cmd *exec.Command) *exec.CommandResult {
	r.calls = append(r.calls, cmd)
	result := &exec.CommandResult{Command: cmd.String()}

	if len(cmd.Args) >= 2 && cmd.Args[0] == "-m" && cmd.Args[1] == "venv" {
		if r.failVenv {
			result.ExitCode = 1
			result.Error = errors.New("command exited with code 1")
			result.Stderr = "Error: Command '['venv/bin/python', '-m', 'ensurepip']' returned non-zero exit status 1."
			return result
		}
		l := venv.NewLayout(cmd.Args[len(cmd.Args)-1], r.goos)
		_ = os.MkdirAll(l.BinDir(), 0o755)
		if !r.noScripts {
			for _, p := range []string{l.Python(), l.ActivateScript()} {
				_ = os.WriteFile(p, []byte("#"), 0o755)
			}
		}
		_ = os.WriteFile(l.Config(), []byte("home = /usr/bin\n"), 0o644)
		result.Success = true
		return result
	}

	if r.failPip {
		result.ExitCode = 1
		result.Error = errors.New("command exited with code 1")
		result.Stdout = "Collecting flask==99.0\nERROR: No matching distribution found for flask==99.0"
		return result
	}
	result.Success = true
	return result
}

func (r *fakeRunner) pipCalls() []*exec.Command {
	var out []*exec.Command
	for _, c := range r.calls {
		if len(c.Args) >= 2 && c.Args[1] == "pip" {
			out = append(out, c)
		}
	}
	return out
}

var python = &prereq.Interpreter{
	Candidate: prereq.Candidate{Command: "python3"},
	Path:      "/usr/bin/python3",
	Version:   "3.12.1",
}

type harness struct {
	dir     string
	venvDir string
	runner  *fakeRunner
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("Flask==3.0.3\npython-dotenv==1.0.1\n"), 0o644))
	return &harness{
		dir:     dir,
		venvDir: filepath.Join(dir, "venv"),
		runner:  &fakeRunner{goos: "linux"},
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
	}
}

func (h *harness) bootstrapper(locator bootstrap.Locator, runner venv.CommandRunner, mutate func(*bootstrap.Options)) *bootstrap.Bootstrapper {
	opts := bootstrap.Options{
		WorkDir:      h.dir,
		VenvDisplay:  "venv",
		Requirements: filepath.Join(h.dir, "requirements.txt"),
		Environ:      []string{"PATH=/usr/bin", "HOME=/home/u"},
	}
	if mutate != nil {
		mutate(&opts)
	}
	env := venv.NewManager(h.venvDir, "venv", "linux", runner)
	return bootstrap.New(locator, env, runner, output.NewWithWriters(h.out, h.errOut), logr.Discard(), opts)
}

func TestRunFreshHost(t *testing.T) {
	h := newHarness(t)

	report, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "success", report.Result)
	assert.Equal(t, []string{"Flask", "python-dotenv"}, report.Requirements)
	require.Len(t, report.Steps, 5)
	assert.Equal(t, bootstrap.StatusOK, report.Step(2).Status)

	require.Len(t, h.runner.calls, 2)
	assert.Equal(t, []string{"-m", "venv", h.venvDir}, h.runner.calls[0].Args)

	pip := h.runner.calls[1]
	assert.Equal(t, venv.NewLayout(h.venvDir, "linux").Python(), pip.Path)
	assert.Equal(t, []string{"-m", "pip", "install", "-r", filepath.Join(h.dir, "requirements.txt")}, pip.Args)
	assert.Contains(t, pip.Env, "VIRTUAL_ENV="+h.venvDir)

	console := h.out.String()
	assert.Contains(t, console, "[1/5] Locate Python interpreter")
	assert.Contains(t, console, "Virtual environment created at venv")
	assert.Contains(t, console, "source venv/bin/activate")
}

func TestRunSecondTimeSkipsCreation(t *testing.T) {
	h := newHarness(t)
	_, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())
	require.NoError(t, err)

	second := &fakeRunner{goos: "linux"}
	h.out.Reset()
	report, err := h.bootstrapper(&fakeLocator{interp: python}, second, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "already exists")
	assert.Equal(t, bootstrap.StatusSkipped, report.Step(2).Status)
	require.Len(t, second.calls, 1)
	assert.Equal(t, "pip", second.calls[0].Args[1])
}

func TestRunInterpreterNotFound(t *testing.T) {
	h := newHarness(t)
	locator := &fakeLocator{err: &prereq.NotFoundError{Tried: []string{"python3", "python"}, GOOS: "linux"}}

	report, err := h.bootstrapper(locator, h.runner, nil).Run(context.Background())

	require.Error(t, err)
	assert.True(t, bootstrap.IsKind(err, bootstrap.InterpreterNotFound))
	assert.Equal(t, "InterpreterNotFound", report.FailureKind)
	assert.Empty(t, h.runner.calls)
	assert.NoDirExists(t, h.venvDir)
	assert.Contains(t, h.out.String(), "python3-venv")
	require.Len(t, report.Steps, 1)
}

func TestRunInterpreterTooOld(t *testing.T) {
	h := newHarness(t)
	old := &prereq.Interpreter{Candidate: prereq.Candidate{Command: "python3"}, Path: "/usr/bin/python3", Version: "3.8.10"}
	locator := &fakeLocator{err: &prereq.VersionError{Interpreter: old, Constraint: ">=3.10"}}

	_, err := h.bootstrapper(locator, h.runner, nil).Run(context.Background())

	assert.True(t, bootstrap.IsKind(err, bootstrap.InterpreterNotFound))
	assert.NoDirExists(t, h.venvDir)
}

func TestRunVenvCreationFails(t *testing.T) {
	h := newHarness(t)
	h.runner.failVenv = true

	report, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	assert.True(t, bootstrap.IsKind(err, bootstrap.EnvironmentCreationFailed))
	assert.Contains(t, h.out.String(), "ensurepip")
	assert.NotEmpty(t, report.Step(2).Output)
	assert.Empty(t, h.runner.pipCalls())
}

func TestRunVenvPathIsFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.venvDir, []byte("oops"), 0o644))

	_, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	assert.True(t, bootstrap.IsKind(err, bootstrap.EnvironmentCreationFailed))
	assert.Empty(t, h.runner.calls)
}

func TestRunActivationFails(t *testing.T) {
	h := newHarness(t)
	h.runner.noScripts = true

	_, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	assert.True(t, bootstrap.IsKind(err, bootstrap.ActivationFailed))
	assert.Empty(t, h.runner.pipCalls())
}

func TestRunMissingManifest(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.Remove(filepath.Join(h.dir, "requirements.txt")))

	_, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	assert.True(t, bootstrap.IsKind(err, bootstrap.DependencyInstallFailed))
	assert.Empty(t, h.runner.pipCalls())
	assert.DirExists(t, h.venvDir)
}

func TestRunMalformedManifest(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "requirements.txt"), []byte("flask\n--bogus-flag\n"), 0o644))

	_, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	assert.True(t, bootstrap.IsKind(err, bootstrap.DependencyInstallFailed))
	assert.Contains(t, err.Error(), "requirements.txt:2")
	assert.Empty(t, h.runner.pipCalls())
}

func TestRunEditableLocalProject(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "requirements.txt"), []byte("Flask==3.0.3\n-e .[dev]\n"), 0o644))

	report, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "success", report.Result)
	assert.Equal(t, []string{"Flask"}, report.Requirements)
	require.Len(t, h.runner.pipCalls(), 1)
}

func TestRunPipFails(t *testing.T) {
	h := newHarness(t)
	h.runner.failPip = true

	report, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	assert.True(t, bootstrap.IsKind(err, bootstrap.DependencyInstallFailed))
	assert.Equal(t, bootstrap.StatusFailed, report.Step(4).Status)
	assert.Contains(t, report.Step(4).Output, "ERROR: No matching distribution found for flask==99.0")
	assert.Nil(t, report.Step(5))
}

func TestRunUpgradePipFirst(t *testing.T) {
	h := newHarness(t)

	_, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, func(o *bootstrap.Options) {
		o.UpgradePip = true
	}).Run(context.Background())

	require.NoError(t, err)
	pip := h.runner.pipCalls()
	require.Len(t, pip, 2)
	assert.Equal(t, []string{"-m", "pip", "install", "--upgrade", "pip"}, pip[0].Args)
	assert.Equal(t, "pip-install", pip[1].Name)
}

func TestRunDryRun(t *testing.T) {
	h := newHarness(t)
	runner := exec.NewRunner(&exec.RunnerConfig{Mode: exec.ModeDryRun})

	report, err := h.bootstrapper(&fakeLocator{interp: python}, runner, func(o *bootstrap.Options) {
		o.DryRun = true
	}).Run(context.Background())

	require.NoError(t, err)
	assert.NoDirExists(t, h.venvDir)
	for _, n := range []int{2, 3, 4, 5} {
		assert.Equal(t, bootstrap.StatusPlanned, report.Step(n).Status, "step %d", n)
	}
	assert.Equal(t, []string{"/usr/bin/python3 -m venv " + h.venvDir}, report.Step(2).Commands)
	require.Len(t, report.Step(4).Commands, 1)
	assert.True(t, strings.HasSuffix(report.Step(4).Commands[0], "-m pip install -r "+filepath.Join(h.dir, "requirements.txt")))
}

func TestRunWarnsAboutManifestPolicy(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "requirements.txt"), []byte("--trusted-host pypi.internal\nflask\n"), 0o644))

	report, err := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())

	require.NoError(t, err)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, strings.Join(report.Warnings, "\n"), "disables TLS verification")
}

func TestRunWindowsInstructions(t *testing.T) {
	h := newHarness(t)
	h.runner.goos = "windows"
	env := venv.NewManager(h.venvDir, "venv", "windows", h.runner)
	b := bootstrap.New(&fakeLocator{interp: python}, env, h.runner, output.NewWithWriters(h.out, h.errOut), logr.Discard(), bootstrap.Options{
		WorkDir:      h.dir,
		VenvDisplay:  "venv",
		Requirements: filepath.Join(h.dir, "requirements.txt"),
		Environ:      []string{"Path=C:\\Windows"},
	})

	report, err := b.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, `venv\Scripts\activate`, report.Activate)
	assert.Contains(t, h.out.String(), `venv\Scripts\activate`)
}

func TestReportYAML(t *testing.T) {
	h := newHarness(t)
	h.runner.failPip = true
	report, _ := h.bootstrapper(&fakeLocator{interp: python}, h.runner, nil).Run(context.Background())
	report.RunID = "bd-20260101-1200-abc"

	path := filepath.Join(h.dir, "report.yaml")
	require.NoError(t, report.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "failed", decoded["result"])
	assert.Equal(t, "DependencyInstallFailed", decoded["failure_kind"])
	assert.Equal(t, "bd-20260101-1200-abc", decoded["run_id"])
	assert.Len(t, decoded["steps"], 4)
}

func TestPythonConstraint(t *testing.T) {
	dir := t.TempDir()
	pyproject := filepath.Join(dir, "pyproject.toml")

	text, c, err := bootstrap.PythonConstraint("", pyproject)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Nil(t, c)

	require.NoError(t, os.WriteFile(pyproject, []byte("[project]\nrequires-python = \">=3.10\"\n"), 0o644))
	text, c, err = bootstrap.PythonConstraint("", pyproject)
	require.NoError(t, err)
	assert.Equal(t, ">=3.10", text)
	ok, err := prereq.Satisfies("3.9.18", c)
	require.NoError(t, err)
	assert.False(t, ok)

	text, _, err = bootstrap.PythonConstraint("3.11", pyproject)
	require.NoError(t, err)
	assert.Equal(t, "3.11", text)

	_, _, err = bootstrap.PythonConstraint(">=banana", "")
	assert.Error(t, err)
}
