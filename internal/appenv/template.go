// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// .env template generation

package appenv

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Template renders a commented .env with every default filled in and the
// remaining variables commented out
func Template() (string, error) {
	return TemplateWith(nil)
}

// TemplateWith renders the template with values taking the place of defaults
// or commented placeholders
func TemplateWith(values map[string]string) (string, error) {
	var sb strings.Builder
	sb.WriteString("# BrainDump environment\n")

	for _, group := range Groups {
		set := map[string]string{}
		var unset []Var
		for _, def := range Vars {
			if def.Group != group {
				continue
			}
			if v, ok := values[def.Key]; ok && v != "" {
				set[def.Key] = v
			} else if def.Default != "" {
				set[def.Key] = def.Default
			} else {
				unset = append(unset, def)
			}
		}

		fmt.Fprintf(&sb, "\n# %s\n", group)
		if len(set) > 0 {
			body, err := godotenv.Marshal(set)
			if err != nil {
				return "", fmt.Errorf("failed to render %s values: %w", group, err)
			}
			sb.WriteString(body)
			sb.WriteString("\n")
		}
		for _, def := range unset {
			if def.Description != "" {
				fmt.Fprintf(&sb, "# %s=  (%s)\n", def.Key, def.Description)
			} else {
				fmt.Fprintf(&sb, "# %s=\n", def.Key)
			}
		}
	}
	return sb.String(), nil
}

// NewSecretKey returns a random value for SECRET_KEY
func NewSecretKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Init writes the template with values to path unless a file already exists
// there. It reports whether a file was written.
func Init(path string, values map[string]string) (bool, error) {
	for key := range values {
		if _, ok := Lookup(key); !ok {
			return false, fmt.Errorf("unknown variable %s", key)
		}
	}
	body, err := TemplateWith(values)
	if err != nil {
		return false, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, f.Close()
}
