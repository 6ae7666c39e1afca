// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// pyproject.toml reader for the interpreter constraint

package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// PyprojectFile is the conventional project metadata file
const PyprojectFile = "pyproject.toml"

type pyproject struct {
	Project struct {
		Name           string   `toml:"name"`
		RequiresPython string   `toml:"requires-python"`
		Dependencies   []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// RequiresPython returns the interpreter constraint declared in a pyproject.toml,
// from [project] requires-python or Poetry's python dependency. A missing file
// or missing field yields "".
func RequiresPython(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc pyproject
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if spec := strings.TrimSpace(doc.Project.RequiresPython); spec != "" {
		return spec, nil
	}
	if v, ok := doc.Tool.Poetry.Dependencies["python"].(string); ok {
		return poetryToPEP440(v), nil
	}
	return "", nil
}

// poetryToPEP440 maps Poetry's caret and tilde ranges to their lower bound
func poetryToPEP440(spec string) string {
	spec = strings.TrimSpace(spec)
	switch {
	case strings.HasPrefix(spec, "^"), strings.HasPrefix(spec, "~") && !strings.HasPrefix(spec, "~="):
		return ">=" + strings.TrimLeft(spec, "^~")
	case spec == "*":
		return ">=3"
	}
	return spec
}
