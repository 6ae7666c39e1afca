// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Requirements manifest types

package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultFile is the conventional manifest name
const DefaultFile = "requirements.txt"

// ErrNotFound is wrapped by Load when the manifest or an included file is missing
var ErrNotFound = errors.New("manifest not found")

// Specifier is one version clause, e.g. ">=2.3"
type Specifier struct {
	Op      string `yaml:"op"`
	Version string `yaml:"version"`
}

func (s Specifier) String() string {
	return s.Op + s.Version
}

// Requirement is one installable line
type Requirement struct {
	Name       string      `yaml:"name,omitempty"`
	Extras     []string    `yaml:"extras,omitempty"`
	Specifiers []Specifier `yaml:"specifiers,omitempty"`
	Marker     string      `yaml:"marker,omitempty"`
	URL        string      `yaml:"url,omitempty"` // direct reference, VCS URL or local path
	Editable   bool        `yaml:"editable,omitempty"`
	Hashes     []string    `yaml:"hashes,omitempty"`
	Source     string      `yaml:"source"`
	Line       int         `yaml:"line"`
}

// Pinned reports whether the requirement resolves to one exact version
func (r Requirement) Pinned() bool {
	if r.URL != "" {
		return true
	}
	for _, s := range r.Specifiers {
		if (s.Op == "==" || s.Op == "===") && !strings.Contains(s.Version, "*") {
			return true
		}
	}
	return false
}

// IsVCS reports whether the requirement installs from a version control URL
func (r Requirement) IsVCS() bool {
	for _, prefix := range []string{"git+", "hg+", "svn+", "bzr+"} {
		if strings.HasPrefix(r.URL, prefix) {
			return true
		}
	}
	return false
}

// String renders the requirement in pip syntax
func (r Requirement) String() string {
	var sb strings.Builder
	if r.Editable {
		sb.WriteString("-e ")
	}
	if r.Name != "" {
		sb.WriteString(r.Name)
		if len(r.Extras) > 0 {
			sb.WriteString("[" + strings.Join(r.Extras, ",") + "]")
		}
		specs := make([]string, len(r.Specifiers))
		for i, s := range r.Specifiers {
			specs[i] = s.String()
		}
		sb.WriteString(strings.Join(specs, ","))
		if r.URL != "" {
			sb.WriteString(" @ ")
		}
	}
	sb.WriteString(r.URL)
	if r.Name == "" && len(r.Extras) > 0 {
		sb.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	if r.Marker != "" {
		sb.WriteString("; " + r.Marker)
	}
	return sb.String()
}

// Option is a pip option line such as --index-url
type Option struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value,omitempty"`
	Source string `yaml:"source"`
	Line   int    `yaml:"line"`
}

// Manifest is a parsed requirements file including nested -r files
type Manifest struct {
	Path         string        `yaml:"path"`
	Requirements []Requirement `yaml:"requirements"`
	Constraints  []Requirement `yaml:"constraints,omitempty"`
	Options      []Option      `yaml:"options,omitempty"`
	Includes     []string      `yaml:"includes,omitempty"`
}

// Names returns requirement names in file order
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Requirements))
	for _, r := range m.Requirements {
		if r.Name != "" {
			names = append(names, r.Name)
		} else {
			names = append(names, r.URL)
		}
	}
	return names
}

// ParseError reports a malformed manifest line
type ParseError struct {
	Path   string
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %q", e.Path, e.Line, e.Reason, e.Text)
}
