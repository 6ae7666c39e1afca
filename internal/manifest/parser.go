// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// pip requirements file parser

package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	namePattern      = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[([^\]]*)\])?\s*(.*)$`)
	specifierPattern = regexp.MustCompile(`^(===|~=|==|!=|<=|>=|<|>)\s*([A-Za-z0-9.*+!_-]+)$`)
	extraPattern     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	urlPattern       = regexp.MustCompile(`^(?:[a-z][a-z0-9+.-]*://|(?:git|hg|svn|bzr)\+|\.|/|[A-Za-z]:[/\\])`)
	inlineComment    = regexp.MustCompile(`(^|\s)#.*$`)
)

// optionSpec describes a recognised pip option
type optionSpec struct {
	takesValue bool
	global     bool // valid on its own line (false = only after a requirement)
}

var optionSpecs = map[string]optionSpec{
	"-r": {true, true}, "--requirement": {true, true},
	"-c": {true, true}, "--constraint": {true, true},
	"-e": {true, true}, "--editable": {true, true},
	"-i": {true, true}, "--index-url": {true, true},
	"--extra-index-url": {true, true},
	"--no-index":        {false, true},
	"-f":                {true, true}, "--find-links": {true, true},
	"--trusted-host":    {true, true},
	"--pre":             {false, true},
	"--prefer-binary":   {false, true},
	"--only-binary":     {true, true},
	"--no-binary":       {true, true},
	"--require-hashes":  {false, true},
	"--use-feature":     {true, true},
	"--hash":            {true, false},
	"--config-settings": {true, false},
	"--global-option":   {true, false},
}

// logicalLine is a requirements line after continuation joining
type logicalLine struct {
	number int
	text   string
}

// Load parses the manifest at path and every file it includes with -r/-c
func Load(path string) (*Manifest, error) {
	m := &Manifest{Path: path}
	if err := loadInto(m, path, false, map[string]bool{}); err != nil {
		return nil, err
	}
	return m, nil
}

func loadInto(m *Manifest, path string, constraints bool, seen map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if seen[abs] {
		return fmt.Errorf("%s is included more than once (cycle)", path)
	}
	seen[abs] = true

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	parsed, err := Parse(f, path)
	if err != nil {
		return err
	}

	if constraints {
		m.Constraints = append(m.Constraints, parsed.Requirements...)
	} else {
		m.Requirements = append(m.Requirements, parsed.Requirements...)
	}

	for _, opt := range parsed.Options {
		switch opt.Name {
		case "-r", "--requirement", "-c", "--constraint":
			nested := opt.Value
			if strings.Contains(nested, "://") {
				// remote includes are pip's to fetch
				m.Options = append(m.Options, opt)
				continue
			}
			if !filepath.IsAbs(nested) {
				nested = filepath.Join(filepath.Dir(path), nested)
			}
			m.Includes = append(m.Includes, nested)
			isConstraint := opt.Name == "-c" || opt.Name == "--constraint"
			if err := loadInto(m, nested, constraints || isConstraint, seen); err != nil {
				return err
			}
		default:
			m.Options = append(m.Options, opt)
		}
	}
	return nil
}

// Parse reads one requirements file without following includes
func Parse(r io.Reader, path string) (*Manifest, error) {
	lines, err := readLogicalLines(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	m := &Manifest{Path: path}
	for _, ll := range lines {
		text := strings.TrimSpace(inlineComment.ReplaceAllString(ll.text, ""))
		if text == "" {
			continue
		}
		fail := func(reason string) error {
			return &ParseError{Path: path, Line: ll.number, Text: strings.TrimSpace(ll.text), Reason: reason}
		}

		if strings.HasPrefix(text, "-") {
			optText, marker := text, ""
			if name := optionName(text); name == "-e" || name == "--editable" {
				optText, marker, _ = strings.Cut(text, ";")
			}
			opts, err := parseOptions(optText)
			if err != nil {
				return nil, fail(err.Error())
			}
			first := opts[0]
			if !optionSpecs[first.Name].global {
				return nil, fail("option " + first.Name + " must follow a requirement")
			}
			if len(opts) > 1 {
				return nil, fail("only one option per line")
			}
			first.Source, first.Line = path, ll.number

			if first.Name == "-e" || first.Name == "--editable" {
				req, err := parseReference(strings.TrimSpace(first.Value))
				if err != nil {
					return nil, fail(err.Error())
				}
				req.Marker = strings.TrimSpace(marker)
				req.Editable = true
				req.Source, req.Line = path, ll.number
				m.Requirements = append(m.Requirements, req)
				continue
			}
			m.Options = append(m.Options, first)
			continue
		}

		reqText, optText := splitTrailingOptions(text)
		req, err := parseRequirement(reqText)
		if err != nil {
			return nil, fail(err.Error())
		}
		if optText != "" {
			opts, err := parseOptions(optText)
			if err != nil {
				return nil, fail(err.Error())
			}
			for _, o := range opts {
				if optionSpecs[o.Name].global {
					return nil, fail("option " + o.Name + " must be on its own line")
				}
				if o.Name == "--hash" {
					req.Hashes = append(req.Hashes, o.Value)
				}
			}
		}
		req.Source, req.Line = path, ll.number
		m.Requirements = append(m.Requirements, req)
	}
	return m, nil
}

// readLogicalLines joins backslash continuations, keeping the first line number
func readLogicalLines(r io.Reader) ([]logicalLine, error) {
	var out []logicalLine
	var pending strings.Builder
	start := 0

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if pending.Len() == 0 {
			start = n
		}
		if strings.HasSuffix(line, `\`) && !strings.HasPrefix(strings.TrimSpace(line), "#") {
			pending.WriteString(strings.TrimSuffix(line, `\`))
			pending.WriteString(" ")
			continue
		}
		pending.WriteString(line)
		out = append(out, logicalLine{number: start, text: pending.String()})
		pending.Reset()
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pending.Len() > 0 {
		out = append(out, logicalLine{number: start, text: pending.String()})
	}
	return out, nil
}

// splitTrailingOptions separates "pkg==1 --hash=sha256:..." into requirement and options
func splitTrailingOptions(text string) (string, string) {
	idx := strings.Index(text, " -")
	for idx >= 0 {
		rest := strings.TrimSpace(text[idx:])
		if strings.HasPrefix(rest, "--") || (len(rest) > 1 && rest[1] != ' ') {
			if _, ok := optionSpecs[optionName(rest)]; ok {
				return strings.TrimSpace(text[:idx]), rest
			}
		}
		next := strings.Index(text[idx+2:], " -")
		if next < 0 {
			break
		}
		idx += 2 + next
	}
	return text, ""
}

func optionName(s string) string {
	field := strings.Fields(s)[0]
	if name, _, ok := strings.Cut(field, "="); ok {
		return name
	}
	if !strings.HasPrefix(field, "--") && len(field) > 2 {
		return field[:2]
	}
	return field
}

// parseOptions parses "--name value", "--name=value" and "-rfile" forms
func parseOptions(text string) ([]Option, error) {
	fields := strings.Fields(text)
	var opts []Option
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if !strings.HasPrefix(field, "-") {
			return nil, fmt.Errorf("unexpected argument %q", field)
		}

		name, value, hasValue := strings.Cut(field, "=")
		if !strings.HasPrefix(field, "--") && len(field) > 2 {
			name, value, hasValue = field[:2], field[2:], true
		}

		spec, ok := optionSpecs[name]
		if !ok {
			return nil, fmt.Errorf("unknown option %s", name)
		}
		if spec.takesValue && !hasValue {
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("option %s requires a value", name)
			}
			i++
			value = fields[i]
		}
		if !spec.takesValue && hasValue {
			return nil, fmt.Errorf("option %s takes no value", name)
		}
		opts = append(opts, Option{Name: name, Value: strings.Trim(value, `"'`)})
	}
	if len(opts) == 0 {
		return nil, fmt.Errorf("empty option")
	}
	return opts, nil
}

// isReference reports whether body is a URL or local path rather than a
// named requirement: a URL scheme, a leading dot, or a path separator before
// any version operator
func isReference(body string) bool {
	if urlPattern.MatchString(body) {
		return true
	}
	head := body
	if i := strings.IndexAny(body, "<>=!~@ "); i >= 0 {
		head = body[:i]
	}
	return strings.ContainsAny(head, `/\`)
}

// parseReference parses a URL or path, with an optional trailing [extras]
// on local paths and #egg=name on URLs
func parseReference(ref string) (Requirement, error) {
	var req Requirement
	if ref == "" {
		return req, fmt.Errorf("missing path or URL")
	}
	if i := strings.LastIndex(ref, "["); i > 0 && strings.HasSuffix(ref, "]") && !strings.Contains(ref, "://") {
		for _, extra := range strings.Split(ref[i+1:len(ref)-1], ",") {
			extra = strings.TrimSpace(extra)
			if !extraPattern.MatchString(extra) {
				return req, fmt.Errorf("invalid extra %q", extra)
			}
			req.Extras = append(req.Extras, extra)
		}
		ref = ref[:i]
	}
	req.URL = ref
	if _, egg, ok := strings.Cut(ref, "#egg="); ok {
		req.Name, _, _ = strings.Cut(egg, "&")
	}
	return req, nil
}

// parseRequirement parses a requirement specifier or direct reference
func parseRequirement(text string) (Requirement, error) {
	var req Requirement

	body, marker, _ := strings.Cut(text, ";")
	body = strings.TrimSpace(body)
	req.Marker = strings.TrimSpace(marker)
	if body == "" {
		return req, fmt.Errorf("missing requirement")
	}

	if isReference(body) {
		ref, err := parseReference(body)
		ref.Marker = req.Marker
		return ref, err
	}

	m := namePattern.FindStringSubmatch(body)
	if m == nil {
		return req, fmt.Errorf("invalid requirement")
	}
	req.Name = m[1]

	if m[2] != "" {
		for _, extra := range strings.Split(m[2], ",") {
			extra = strings.TrimSpace(extra)
			if !extraPattern.MatchString(extra) {
				return req, fmt.Errorf("invalid extra %q", extra)
			}
			req.Extras = append(req.Extras, extra)
		}
	}

	rest := strings.TrimSpace(m[3])
	if strings.HasPrefix(rest, "@") {
		req.URL = strings.TrimSpace(strings.TrimPrefix(rest, "@"))
		if req.URL == "" {
			return req, fmt.Errorf("missing URL after @")
		}
		return req, nil
	}

	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
	if rest == "" {
		return req, nil
	}
	for _, clause := range strings.Split(rest, ",") {
		clause = strings.TrimSpace(clause)
		sm := specifierPattern.FindStringSubmatch(clause)
		if sm == nil {
			return req, fmt.Errorf("invalid version specifier %q", clause)
		}
		req.Specifiers = append(req.Specifiers, Specifier{Op: sm[1], Version: sm[2]})
	}
	return req, nil
}
