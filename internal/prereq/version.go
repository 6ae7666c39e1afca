// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Python version parsing and constraint checks

package prereq

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	versionOutputPattern = regexp.MustCompile(`(?i)python\s+(\d+(?:\.\d+)*[a-z0-9.+-]*)`)
	prereleasePattern    = regexp.MustCompile(`^(\d+(?:\.\d+)*)([a-zA-Z][a-zA-Z0-9]*.*)$`)
	specifierPattern     = regexp.MustCompile(`^(===|~=|==|!=|>=|<=|>|<)?\s*(.+)$`)
)

// ParseVersionOutput extracts the version from `python --version` output
func ParseVersionOutput(out string) (string, bool) {
	m := versionOutputPattern.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NormalizeVersion turns a Python version into something semver accepts:
// "3.12" -> "3.12.0", "3.13.0rc1" -> "3.13.0-rc1", "3.9.1.post2" -> "3.9.1-post2"
func NormalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	version = strings.Trim(version, `"'`)
	version = strings.TrimPrefix(version, "v")

	if dot := strings.LastIndex(version, "."); dot > 0 && dot < len(version)-1 {
		if c := version[dot+1]; (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			version = version[:dot] + version[dot+1:]
		}
	}

	base, pre := version, ""
	if m := prereleasePattern.FindStringSubmatch(version); m != nil {
		base, pre = m[1], m[2]
	}

	parts := strings.Split(base, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	if pre != "" {
		return strings.Join(parts, ".") + "-" + pre
	}
	return strings.Join(parts, ".")
}

// ParseVersion parses a Python version into a semver version
func ParseVersion(version string) (*semver.Version, error) {
	v, err := semver.NewVersion(NormalizeVersion(version))
	if err != nil {
		return nil, fmt.Errorf("invalid python version %q: %w", version, err)
	}
	return v, nil
}

// ParseRequiresPython converts a PEP 440 specifier set (">=3.9,<4", "~=3.10")
// into semver constraints. A bare version means a minimum.
func ParseRequiresPython(spec string) (*semver.Constraints, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("empty python version constraint")
	}

	var parts []string
	for _, raw := range strings.Split(spec, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		m := specifierPattern.FindStringSubmatch(raw)
		if m == nil {
			return nil, fmt.Errorf("invalid python version constraint %q", raw)
		}
		op, ver := m[1], strings.TrimSpace(m[2])

		switch op {
		case "":
			parts = append(parts, ">= "+ver)
		case "~=":
			upper, err := compatibleUpperBound(ver)
			if err != nil {
				return nil, err
			}
			parts = append(parts, ">= "+ver, "< "+upper)
		case "===":
			parts = append(parts, "= "+ver)
		case "==":
			parts = append(parts, "= "+ver)
		default:
			parts = append(parts, op+" "+ver)
		}
	}

	c, err := semver.NewConstraint(strings.Join(parts, ", "))
	if err != nil {
		return nil, fmt.Errorf("invalid python version constraint %q: %w", spec, err)
	}
	return c, nil
}

// compatibleUpperBound returns the exclusive upper bound of "~=ver":
// ~=3.10 -> 4, ~=3.10.2 -> 3.11
func compatibleUpperBound(ver string) (string, error) {
	fields := strings.Split(ver, ".")
	if len(fields) < 2 {
		return "", fmt.Errorf("~= requires at least two version components, got %q", ver)
	}
	prefix := fields[:len(fields)-1]
	last, err := strconv.Atoi(prefix[len(prefix)-1])
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", ver, err)
	}
	prefix[len(prefix)-1] = strconv.Itoa(last + 1)
	return strings.Join(prefix, "."), nil
}

// Satisfies reports whether version meets the constraints. Pre-release and
// post-release tags are ignored so that 3.13.0rc1 counts as 3.13.0.
func Satisfies(version string, c *semver.Constraints) (bool, error) {
	if c == nil {
		return true, nil
	}
	v, err := ParseVersion(version)
	if err != nil {
		return false, err
	}
	release, err := v.SetPrerelease("")
	if err != nil {
		return false, err
	}
	return c.Check(&release), nil
}
