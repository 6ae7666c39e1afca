// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Python version constraint resolution

package bootstrap

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/sony-level/bdsetup/internal/manifest"
	"github.com/sony-level/bdsetup/internal/prereq"
)

// PythonConstraint returns the interpreter constraint: minVersion when set
// (a bare version means "at least"), otherwise requires-python from the
// pyproject.toml at pyprojectPath. Both empty yields a nil constraint.
func PythonConstraint(minVersion, pyprojectPath string) (string, *semver.Constraints, error) {
	text := minVersion
	if text == "" && pyprojectPath != "" {
		spec, err := manifest.RequiresPython(pyprojectPath)
		if err != nil {
			return "", nil, err
		}
		text = spec
	}
	if text == "" {
		return "", nil, nil
	}

	c, err := prereq.ParseRequiresPython(text)
	if err != nil {
		return "", nil, fmt.Errorf("invalid python version requirement %q: %w", text, err)
	}
	return text, c, nil
}
