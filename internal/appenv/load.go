// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Loading the application environment from .env and the process

package appenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Source tells where a value came from
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceProcess Source = "environment"
	SourceUnset   Source = "unset"
)

// Values is the effective application environment
type Values struct {
	Dir      string
	File     string
	FileRead bool
	values   map[string]string
	sources  map[string]Source
	unknown  []string
}

// Load reads the .env file at path (a missing file is not an error) and
// overlays the known keys found in environ, which wins as with python-dotenv
func Load(path string, environ []string) (*Values, error) {
	v := &Values{
		Dir:     filepath.Dir(path),
		File:    path,
		values:  map[string]string{},
		sources: map[string]Source{},
	}
	for _, def := range Vars {
		if def.Default != "" {
			v.values[def.Key] = def.Default
			v.sources[def.Key] = SourceDefault
		}
	}

	fileVals, err := godotenv.Read(path)
	switch {
	case err == nil:
		v.FileRead = true
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	for key, value := range fileVals {
		if _, ok := Lookup(key); !ok {
			v.unknown = append(v.unknown, key)
			continue
		}
		v.values[key] = value
		v.sources[key] = SourceFile
	}
	sort.Strings(v.unknown)

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, known := Lookup(key); known {
			v.values[key] = value
			v.sources[key] = SourceProcess
		}
	}
	return v, nil
}

// Get returns the effective value of key
func (v *Values) Get(key string) (string, bool) {
	val, ok := v.values[key]
	return val, ok
}

// Source returns where key's value came from
func (v *Values) Source(key string) Source {
	if s, ok := v.sources[key]; ok {
		return s
	}
	return SourceUnset
}

// Unknown returns keys in the file the application does not read
func (v *Values) Unknown() []string {
	return v.unknown
}

// Bool follows the application's rule: only "true" (any case) is true
func (v *Values) Bool(key string) bool {
	val, _ := v.Get(key)
	return strings.EqualFold(strings.TrimSpace(val), "true")
}

// Entry is a display row for one variable
type Entry struct {
	Key    string
	Value  string
	Source Source
}

// Entries lists every known variable in table order with secrets redacted
func (v *Values) Entries() []Entry {
	out := make([]Entry, 0, len(Vars))
	for _, def := range Vars {
		val, _ := v.Get(def.Key)
		if def.Secret {
			val = Redact(val)
		}
		out = append(out, Entry{Key: def.Key, Value: val, Source: v.Source(def.Key)})
	}
	return out
}

// Redact hides all but the last four characters of a secret
func Redact(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
