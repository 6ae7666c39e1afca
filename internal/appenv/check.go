// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Validation of the application environment

package appenv

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Severity of an issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding
type Issue struct {
	Severity Severity
	Key      string
	Message  string
}

func (i Issue) String() string {
	if i.Key == "" {
		return i.Message
	}
	return i.Key + ": " + i.Message
}

// Result groups the findings of Check
type Result struct {
	Issues []Issue
}

// Errors returns error-level issues
func (r *Result) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns warning-level issues
func (r *Result) Warnings() []Issue { return r.filter(SeverityWarning) }

// OK reports whether there are no errors
func (r *Result) OK() bool { return len(r.Errors()) == 0 }

func (r *Result) filter(s Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == s {
			out = append(out, i)
		}
	}
	return out
}

func (r *Result) add(s Severity, key, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: s, Key: key, Message: fmt.Sprintf(format, args...)})
}

// Check validates types and the cross-variable rules of the application
func Check(v *Values) *Result {
	r := &Result{}

	for _, def := range Vars {
		val, ok := v.Get(def.Key)
		if !ok {
			continue
		}
		if strings.TrimSpace(val) == "" {
			// the application calls int() and float() on these unconditionally
			src := v.Source(def.Key)
			if (def.Type == TypeInt || def.Type == TypeFloat) && (src == SourceFile || src == SourceProcess) {
				r.add(SeverityError, def.Key, "is set but empty")
			}
			continue
		}
		checkType(r, def, val)
	}

	if v.Bool("USE_LOCAL_MODEL") {
		path, _ := v.Get("MODEL_PATH")
		if path == "" {
			r.add(SeverityError, "MODEL_PATH", "required when USE_LOCAL_MODEL is true")
		} else if _, err := os.Stat(resolve(v.Dir, path)); err != nil {
			r.add(SeverityWarning, "MODEL_PATH", "%s does not exist yet", path)
		}
	} else {
		for _, key := range []string{"ENDPOINT", "MODEL_NAME"} {
			if val, _ := v.Get(key); val == "" {
				r.add(SeverityError, key, "required when USE_LOCAL_MODEL is false")
			}
		}
		if val, _ := v.Get("API_KEY"); val == "" {
			r.add(SeverityWarning, "API_KEY", "not set; the endpoint must accept anonymous requests")
		}
	}

	if v.Bool("SMTP_ENABLED") {
		for _, key := range []string{"SMTP_SERVER", "EMAIL_SENDER", "EMAIL_RECIPIENTS"} {
			if val, _ := v.Get(key); strings.TrimSpace(val) == "" {
				r.add(SeverityError, key, "required when SMTP_ENABLED is true")
			}
		}
	}

	if val, _ := v.Get("SECRET_KEY"); val == DefaultSecretKey {
		r.add(SeverityWarning, "SECRET_KEY", "uses the built-in fallback; set a random value")
	}

	for _, key := range v.Unknown() {
		r.add(SeverityWarning, key, "not used by the application")
	}
	return r
}

func checkType(r *Result, def Var, val string) {
	switch def.Type {
	case TypeBool:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "false":
		default:
			r.add(SeverityWarning, def.Key, "%q is treated as false; use true or false", val)
		}
	case TypeInt:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			r.add(SeverityError, def.Key, "%q is not an integer", val)
			return
		}
		checkRange(r, def, float64(n))
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			r.add(SeverityError, def.Key, "%q is not a number", val)
			return
		}
		checkRange(r, def, f)
	case TypeURL:
		u, err := url.Parse(val)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			r.add(SeverityError, def.Key, "%q is not an http(s) URL", val)
		}
	case TypeList:
		for _, addr := range strings.Split(val, ",") {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			if _, err := mail.ParseAddress(addr); err != nil {
				r.add(SeverityError, def.Key, "%q is not an email address", addr)
			}
		}
	}
}

func checkRange(r *Result, def Var, f float64) {
	if def.Min != nil && f < *def.Min {
		r.add(SeverityError, def.Key, "must be >= %g", *def.Min)
	}
	if def.Max != nil && f > *def.Max {
		r.add(SeverityError, def.Key, "must be <= %g", *def.Max)
	}
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
