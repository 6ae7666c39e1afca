// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Python interpreter locator

package prereq

import (
	"context"
	"fmt"
	osexec "os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"
)

// probeTimeout bounds a single `--version` probe
const probeTimeout = 15 * time.Second

// LookPathFunc resolves an executable name to a path
type LookPathFunc func(name string) (string, error)

// ProbeFunc runs an interpreter with --version and returns its combined output
type ProbeFunc func(ctx context.Context, path string, args []string) (string, error)

// LocatorConfig configures interpreter discovery
type LocatorConfig struct {
	// Path, when set, is the only interpreter considered
	Path string
	// Constraint restricts acceptable versions (nil = any Python 3)
	Constraint *semver.Constraints
	// ConstraintText is shown in error messages
	ConstraintText string
	// Candidates overrides DefaultCandidates
	Candidates []Candidate
	// GOOS overrides runtime.GOOS for install guides and candidates
	GOOS string

	LookPath LookPathFunc
	Probe    ProbeFunc
	Logger   logr.Logger
}

// Locator finds a working Python interpreter
type Locator struct {
	config LocatorConfig
}

// NewLocator creates a locator, filling defaults
func NewLocator(config LocatorConfig) *Locator {
	if config.GOOS == "" {
		config.GOOS = runtime.GOOS
	}
	if config.Path != "" {
		config.Candidates = []Candidate{{Command: config.Path}}
	} else if len(config.Candidates) == 0 {
		config.Candidates = DefaultCandidates(config.GOOS)
	}
	if config.LookPath == nil {
		config.LookPath = osexec.LookPath
	}
	if config.Probe == nil {
		config.Probe = probeVersion
	}
	if config.Logger.GetSink() == nil {
		config.Logger = logr.Discard()
	}
	return &Locator{config: config}
}

// Candidates returns the launchers that will be tried, in order
func (l *Locator) Candidates() []Candidate {
	return l.config.Candidates
}

// Locate returns the first candidate that resolves on PATH, reports a Python 3
// version and satisfies the constraint. A working interpreter that is too old
// yields a *VersionError; nothing usable yields a *NotFoundError.
func (l *Locator) Locate(ctx context.Context) (*Interpreter, error) {
	var tried []string
	var tooOld *VersionError

	for _, cand := range l.config.Candidates {
		tried = append(tried, cand.String())
		log := l.config.Logger.WithValues("candidate", cand.String())

		path, err := l.config.LookPath(cand.Command)
		if err != nil {
			log.V(1).Info("not on PATH")
			continue
		}

		out, err := l.config.Probe(ctx, path, append(append([]string{}, cand.Args...), "--version"))
		if err != nil {
			// Windows ships a python.exe stub that opens the Store and exits non-zero
			log.V(1).Info("version probe failed", "path", path, "error", err.Error())
			continue
		}

		version, ok := ParseVersionOutput(out)
		if !ok {
			log.V(1).Info("unrecognised version output", "path", path, "output", strings.TrimSpace(out))
			continue
		}
		if !strings.HasPrefix(version, "3") {
			log.V(1).Info("not Python 3", "path", path, "version", version)
			continue
		}

		interp := &Interpreter{Candidate: cand, Path: path, Version: version}

		ok, err = Satisfies(version, l.config.Constraint)
		if err != nil {
			log.V(1).Info("unparseable version", "version", version, "error", err.Error())
			continue
		}
		if !ok {
			log.V(1).Info("version rejected", "version", version, "constraint", l.config.ConstraintText)
			if tooOld == nil {
				tooOld = &VersionError{Interpreter: interp, Constraint: l.config.ConstraintText}
			}
			continue
		}

		log.V(1).Info("interpreter found", "path", path, "version", version)
		return interp, nil
	}

	if tooOld != nil {
		return nil, tooOld
	}
	return nil, &NotFoundError{Tried: tried, GOOS: l.config.GOOS}
}

// probeVersion runs `<path> <args>` and returns combined output.
// Python 2 printed its version on stderr, so both streams are read.
func probeVersion(ctx context.Context, path string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := osexec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w", path, strings.Join(args, " "), err)
	}
	return string(out), nil
}
