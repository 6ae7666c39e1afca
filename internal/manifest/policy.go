// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Manifest policy checks

package manifest

import (
	"fmt"
	"net/url"
	"strings"
)

// Severity ranks a policy finding
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Finding is one policy observation about a manifest
type Finding struct {
	Severity Severity `yaml:"severity"`
	Source   string   `yaml:"source,omitempty"`
	Line     int      `yaml:"line,omitempty"`
	Message  string   `yaml:"message"`
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", f.Source, f.Line, f.Message)
	}
	return f.Message
}

// PolicyConfig tunes which findings are reported
type PolicyConfig struct {
	WarnUnpinned bool     // Report requirements without an exact pin
	TrustedHosts []string // Hosts allowed with --trusted-host or plain HTTP
}

// DefaultPolicy warns about everything
func DefaultPolicy() *PolicyConfig {
	return &PolicyConfig{WarnUnpinned: true}
}

// Check inspects a manifest and returns findings in file order
func Check(m *Manifest, config *PolicyConfig) []Finding {
	if config == nil {
		config = DefaultPolicy()
	}
	var findings []Finding
	add := func(sev Severity, source string, line int, format string, args ...any) {
		findings = append(findings, Finding{Severity: sev, Source: source, Line: line, Message: fmt.Sprintf(format, args...)})
	}

	if len(m.Requirements) == 0 {
		add(SeverityWarning, m.Path, 0, "%s lists no requirements", m.Path)
	}

	for _, opt := range m.Options {
		switch opt.Name {
		case "-i", "--index-url", "--extra-index-url", "-f", "--find-links":
			if isPlainHTTP(opt.Value) && !config.trusted(hostOf(opt.Value)) {
				add(SeverityWarning, opt.Source, opt.Line, "%s uses plain HTTP: %s", opt.Name, redactURL(opt.Value))
			}
			if opt.Name == "--extra-index-url" {
				add(SeverityInfo, opt.Source, opt.Line, "extra index %s can shadow PyPI packages", redactURL(opt.Value))
			}
		case "--trusted-host":
			if !config.trusted(opt.Value) {
				add(SeverityWarning, opt.Source, opt.Line, "--trusted-host %s disables TLS verification", opt.Value)
			}
		}
	}

	seen := map[string]Requirement{}
	for _, req := range m.Requirements {
		name := strings.ToLower(strings.NewReplacer("_", "-", ".", "-").Replace(req.Name))
		if name != "" {
			if prev, ok := seen[name]; ok {
				add(SeverityWarning, req.Source, req.Line, "%s is also listed at %s:%d", req.Name, prev.Source, prev.Line)
			}
			seen[name] = req
		}
		if req.IsVCS() {
			add(SeverityWarning, req.Source, req.Line, "%s installs from version control: %s", displayName(req), redactURL(req.URL))
		} else if isPlainHTTP(req.URL) {
			add(SeverityWarning, req.Source, req.Line, "%s is downloaded over plain HTTP", displayName(req))
		}
		if config.WarnUnpinned && !req.Pinned() && !req.Editable {
			add(SeverityInfo, req.Source, req.Line, "%s is not pinned to an exact version", displayName(req))
		}
	}
	return findings
}

// Warnings filters findings to warnings
func Warnings(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			out = append(out, f)
		}
	}
	return out
}

func (c *PolicyConfig) trusted(host string) bool {
	for _, h := range c.TrustedHosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

func displayName(r Requirement) string {
	if r.Name != "" {
		return r.Name
	}
	return redactURL(r.URL)
}

func isPlainHTTP(raw string) bool {
	return strings.HasPrefix(strings.ToLower(raw), "http://") ||
		strings.Contains(strings.ToLower(raw), "+http://")
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// redactURL hides credentials embedded in index URLs
func redactURL(raw string) string {
	u, err := url.Parse(strings.TrimPrefix(raw, "git+"))
	if err != nil || u.User == nil {
		return raw
	}
	return strings.Replace(raw, u.User.String()+"@", "***@", 1)
}
