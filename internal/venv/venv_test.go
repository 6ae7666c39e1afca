// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for virtual environment management

package venv_test

import (
	"context"
	"errors"
	"os"
	osexec "os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/bdsetup/internal/exec"
	"github.com/sony-level/bdsetup/internal/prereq"
	"github.com/sony-level/bdsetup/internal/venv"
)

// fakeVenvRunner imitates `python -m venv <dir>` by laying out the directory
type fakeVenvRunner struct {
	goos  string
	fail  bool
	calls []*exec.Command
}

func (r *fakeVenvRunner) Run(_ context.Context, cmd *exec.Command) *exec.CommandResult {
	r.calls = append(r.calls, cmd)
	if r.fail {
		return &exec.CommandResult{ExitCode: 1, Error: errors.New("command exited with code 1"), Stderr: "Error: [Errno 13] Permission denied"}
	}
	dir := cmd.Args[len(cmd.Args)-1]
	l := venv.NewLayout(dir, r.goos)
	for _, p := range []string{l.Python(), l.ActivateScript()} {
		_ = os.MkdirAll(filepath.Dir(p), 0o755)
		_ = os.WriteFile(p, []byte("#"), 0o755)
	}
	_ = os.WriteFile(l.Config(), []byte("home = /usr/bin\n"), 0o644)
	return &exec.CommandResult{Success: true}
}

var interp = &prereq.Interpreter{
	Candidate: prereq.Candidate{Command: "python3"},
	Path:      "/usr/bin/python3",
	Version:   "3.12.1",
}

func TestLayout(t *testing.T) {
	unix := venv.NewLayout("/p/venv", "linux")
	assert.Equal(t, filepath.Join("/p/venv", "bin"), unix.BinDir())
	assert.Equal(t, filepath.Join("/p/venv", "bin", "python"), unix.Python())
	assert.Equal(t, filepath.Join("/p/venv", "bin", "activate"), unix.ActivateScript())

	win := venv.NewLayout("/p/venv", "windows")
	assert.Equal(t, filepath.Join("/p/venv", "Scripts"), win.BinDir())
	assert.Equal(t, filepath.Join("/p/venv", "Scripts", "python.exe"), win.Python())
	assert.Equal(t, filepath.Join("/p/venv", "Scripts", "activate.bat"), win.ActivateScript())
	assert.Equal(t, filepath.Join("/p/venv", "pyvenv.cfg"), win.Config())
}

func stateOf(t *testing.T, m *venv.Manager) venv.State {
	t.Helper()
	state, err := m.State()
	require.NoError(t, err)
	return state
}

func TestCreateAndActivate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "venv")
	runner := &fakeVenvRunner{goos: "linux"}
	m := venv.NewManager(dir, "venv", "linux", runner)

	assert.Equal(t, venv.StateAbsent, stateOf(t, m))

	_, err := m.Create(context.Background(), interp)
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"-m", "venv", dir}, runner.calls[0].Args)
	assert.Equal(t, venv.StatePresent, stateOf(t, m))

	act, err := m.Activate()
	require.NoError(t, err)
	assert.Equal(t, "source venv/bin/activate", act.Instructions())
}

func TestCreateFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "venv")
	m := venv.NewManager(dir, "venv", "linux", &fakeVenvRunner{fail: true})

	result, err := m.Create(context.Background(), interp)

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.Stderr, "Permission denied")
	assert.Equal(t, venv.StateAbsent, stateOf(t, m))
}

func TestCreateBlockedByFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "venv")
	require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0o644))
	runner := &fakeVenvRunner{goos: "linux"}
	m := venv.NewManager(dir, "venv", "linux", runner)

	state, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, venv.StateNotDirectory, state)

	_, err = m.Create(context.Background(), interp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
	assert.Empty(t, runner.calls)
}

func TestCreateDryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "venv")
	m := venv.NewManager(dir, "venv", "linux", exec.NewRunner(&exec.RunnerConfig{Mode: exec.ModeDryRun}))

	result, err := m.Create(context.Background(), interp)

	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.NoDirExists(t, dir)
}

func TestActivateMissingScript(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "venv")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	m := venv.NewManager(dir, "venv", "linux", &fakeVenvRunner{})

	assert.Equal(t, venv.StatePresent, stateOf(t, m))
	_, err := m.Activate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activation failed")
}

func TestActivationEnviron(t *testing.T) {
	act := &venv.Activation{Layout: venv.NewLayout("/work/venv", "linux"), DisplayDir: "venv"}

	env := act.Environ([]string{
		"HOME=/home/u",
		"PATH=/usr/bin:/bin",
		"PYTHONHOME=/opt/py",
		"VIRTUAL_ENV=/old/venv",
	})

	assert.Contains(t, env, "HOME=/home/u")
	assert.Contains(t, env, "VIRTUAL_ENV=/work/venv")
	assert.Contains(t, env, "PATH="+filepath.Join("/work/venv", "bin")+":/usr/bin:/bin")
	assert.NotContains(t, env, "PYTHONHOME=/opt/py")
	assert.NotContains(t, env, "VIRTUAL_ENV=/old/venv")
}

func TestActivationEnvironWindows(t *testing.T) {
	act := &venv.Activation{Layout: venv.NewLayout(`C:\app\venv`, "windows"), DisplayDir: "venv"}

	env := act.Environ([]string{`Path=C:\Windows`, "SystemRoot=C:\\Windows"})

	var path string
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			path = kv
		}
		assert.False(t, strings.HasPrefix(kv, "Path="), "original Path must be replaced")
	}
	assert.True(t, strings.HasSuffix(path, `;C:\Windows`), path)
	assert.Equal(t, `venv\Scripts\activate`, act.Instructions())
}

func TestCreateWithRealPython(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping venv creation in short mode")
	}
	name := "python3"
	if runtime.GOOS == "windows" {
		name = "python"
	}
	path, err := osexec.LookPath(name)
	if err != nil {
		t.Skip("python not available")
	}

	dir := filepath.Join(t.TempDir(), "venv")
	runner := exec.NewRunner(&exec.RunnerConfig{Mode: exec.ModeExecute, Quiet: true})
	m := venv.NewManager(dir, "venv", runtime.GOOS, runner)

	py := &prereq.Interpreter{Candidate: prereq.Candidate{Command: name}, Path: path}
	if _, err := m.Create(context.Background(), py); err != nil {
		// Debian-style hosts ship python3 without ensurepip
		t.Skipf("python -m venv unavailable: %v", err)
	}

	act, err := m.Activate()
	require.NoError(t, err)

	result := runner.Run(context.Background(), act.PythonCommand(os.Environ(), "probe", "-c", "import sys; print(sys.prefix)"))
	require.True(t, result.Success, "%v", result.Error)
	assert.Equal(t, filepath.Base(dir), filepath.Base(strings.TrimSpace(result.Stdout)))
}
