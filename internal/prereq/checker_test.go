// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for the interpreter locator

package prereq_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/bdsetup/internal/prereq"
)

// fakeHost maps command names to paths and paths to --version output
type fakeHost struct {
	paths    map[string]string
	versions map[string]string
	probed   []string
}

func (h *fakeHost) lookPath(name string) (string, error) {
	if p, ok := h.paths[name]; ok {
		return p, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (h *fakeHost) probe(_ context.Context, path string, args []string) (string, error) {
	h.probed = append(h.probed, path)
	out, ok := h.versions[path]
	if !ok {
		return "", errors.New("exit status 9009")
	}
	return out, nil
}

func newLocator(h *fakeHost, cfg prereq.LocatorConfig) *prereq.Locator {
	cfg.LookPath = h.lookPath
	cfg.Probe = h.probe
	return prereq.NewLocator(cfg)
}

func TestLocatePrefersFirstCandidate(t *testing.T) {
	h := &fakeHost{
		paths:    map[string]string{"python3": "/usr/bin/python3", "python": "/usr/bin/python"},
		versions: map[string]string{"/usr/bin/python3": "Python 3.12.1\n", "/usr/bin/python": "Python 3.11.0\n"},
	}

	interp, err := newLocator(h, prereq.LocatorConfig{GOOS: "linux"}).Locate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/python3", interp.Path)
	assert.Equal(t, "3.12.1", interp.Version)
	assert.Equal(t, []string{"/usr/bin/python3"}, h.probed)
}

func TestLocateWindowsLauncher(t *testing.T) {
	h := &fakeHost{
		paths:    map[string]string{"py": `C:\Windows\py.exe`},
		versions: map[string]string{`C:\Windows\py.exe`: "Python 3.12.4"},
	}

	interp, err := newLocator(h, prereq.LocatorConfig{GOOS: "windows"}).Locate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "py -3", interp.Candidate.String())

	cmd := interp.Cmd("create-venv", "-m", "venv", "venv")
	assert.Equal(t, `C:\Windows\py.exe`, cmd.Path)
	assert.Equal(t, []string{"-3", "-m", "venv", "venv"}, cmd.Args)
}

func TestLocateSkipsBrokenAndPython2(t *testing.T) {
	h := &fakeHost{
		paths: map[string]string{
			"python3": "/stub/python3",
			"python":  "/usr/bin/python",
		},
		versions: map[string]string{"/usr/bin/python": "Python 2.7.18"},
	}

	_, err := newLocator(h, prereq.LocatorConfig{GOOS: "linux"}).Locate(context.Background())

	var notFound *prereq.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"python3", "python"}, notFound.Tried)
	assert.Contains(t, notFound.Guide(), "python3-venv")
}

func TestLocateNothingOnPath(t *testing.T) {
	h := &fakeHost{}

	_, err := newLocator(h, prereq.LocatorConfig{GOOS: "windows"}).Locate(context.Background())

	var notFound *prereq.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []string{"py -3", "python", "python3"}, notFound.Tried)
	assert.Empty(t, h.probed)
	assert.Contains(t, notFound.Guide(), "python.org")
}

func TestLocateVersionConstraint(t *testing.T) {
	h := &fakeHost{
		paths:    map[string]string{"python3": "/usr/bin/python3", "python": "/opt/python"},
		versions: map[string]string{"/usr/bin/python3": "Python 3.8.10", "/opt/python": "Python 3.11.2"},
	}
	c, err := prereq.ParseRequiresPython(">=3.10")
	require.NoError(t, err)

	interp, err := newLocator(h, prereq.LocatorConfig{GOOS: "linux", Constraint: c, ConstraintText: ">=3.10"}).Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/python", interp.Path)

	h.paths = map[string]string{"python3": "/usr/bin/python3"}
	_, err = newLocator(h, prereq.LocatorConfig{GOOS: "linux", Constraint: c, ConstraintText: ">=3.10"}).Locate(context.Background())
	var verErr *prereq.VersionError
	require.ErrorAs(t, err, &verErr)
	assert.Equal(t, "3.8.10", verErr.Interpreter.Version)
	assert.Contains(t, err.Error(), ">=3.10")
}

func TestLocateExplicitPath(t *testing.T) {
	h := &fakeHost{
		paths:    map[string]string{"/custom/python": "/custom/python", "python3": "/usr/bin/python3"},
		versions: map[string]string{"/custom/python": "Python 3.10.0", "/usr/bin/python3": "Python 3.12.0"},
	}

	l := newLocator(h, prereq.LocatorConfig{Path: "/custom/python", GOOS: "linux"})
	interp, err := l.Locate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/custom/python", interp.Path)
	assert.Len(t, l.Candidates(), 1)
}
