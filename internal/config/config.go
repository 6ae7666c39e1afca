// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Bootstrapper settings: defaults < .bdsetup.yaml < BDSETUP_* env < flags

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// FileName is the project config file looked up in the working directory
	FileName = ".bdsetup"
	// EnvPrefix prefixes every environment override, e.g. BDSETUP_VENV
	EnvPrefix = "BDSETUP"

	DefaultVenvDir      = "venv"
	DefaultRequirements = "requirements.txt"
	DefaultEnvFile      = ".env"
	DefaultTimeout      = 10 * time.Minute
)

// Settings is the resolved bootstrapper configuration
type Settings struct {
	VenvDir      string         `mapstructure:"venv" yaml:"venv"`
	Requirements string         `mapstructure:"requirements" yaml:"requirements"`
	Python       PythonSettings `mapstructure:"python" yaml:"python"`
	UpgradePip   bool           `mapstructure:"upgrade_pip" yaml:"upgrade_pip"`
	Timeout      time.Duration  `mapstructure:"timeout" yaml:"timeout"`
	DryRun       bool           `mapstructure:"dry_run" yaml:"dry_run"`
	LogFile      bool           `mapstructure:"log_file" yaml:"log_file"`
	Report       string         `mapstructure:"report" yaml:"report,omitempty"`
	EnvFile      string         `mapstructure:"env_file" yaml:"env_file"`
	NoColor      bool           `mapstructure:"no_color" yaml:"no_color"`
	Verbose      bool           `mapstructure:"verbose" yaml:"verbose"`

	// WorkDir is where relative paths resolve. Not read from config.
	WorkDir string `mapstructure:"-" yaml:"-"`
	// Source is the config file that was read, empty when none
	Source string `mapstructure:"-" yaml:"-"`
}

// PythonSettings selects and constrains the interpreter
type PythonSettings struct {
	Path       string `mapstructure:"path" yaml:"path,omitempty"`
	MinVersion string `mapstructure:"min_version" yaml:"min_version,omitempty"`
}

// flagKeys maps CLI flag names to config keys
var flagKeys = map[string]string{
	"venv":         "venv",
	"requirements": "requirements",
	"python":       "python.path",
	"min-python":   "python.min_version",
	"upgrade-pip":  "upgrade_pip",
	"timeout":      "timeout",
	"dry-run":      "dry_run",
	"log-file":     "log_file",
	"report":       "report",
	"env-file":     "env_file",
	"no-color":     "no_color",
	"verbose":      "verbose",
}

// Default returns settings with conventional values
func Default() *Settings {
	return &Settings{
		VenvDir:      DefaultVenvDir,
		Requirements: DefaultRequirements,
		Timeout:      DefaultTimeout,
		EnvFile:      DefaultEnvFile,
	}
}

// Load resolves settings for workDir. configFile overrides the lookup of
// .bdsetup.yaml; flags may be nil.
func Load(workDir, configFile string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("venv", def.VenvDir)
	v.SetDefault("requirements", def.Requirements)
	v.SetDefault("python.path", "")
	v.SetDefault("python.min_version", "")
	v.SetDefault("upgrade_pip", false)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("dry_run", false)
	v.SetDefault("log_file", false)
	v.SetDefault("report", "")
	v.SetDefault("env_file", def.EnvFile)
	v.SetDefault("no_color", false)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(workDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	s.WorkDir = workDir
	s.Source = v.ConfigFileUsed()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that required values are usable
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.VenvDir) == "" {
		return errors.New("config: venv directory must not be empty")
	}
	if strings.TrimSpace(s.Requirements) == "" {
		return errors.New("config: requirements file must not be empty")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %v", s.Timeout)
	}
	return nil
}

// Resolve makes p absolute relative to WorkDir
func (s *Settings) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || s.WorkDir == "" {
		return p
	}
	return filepath.Join(s.WorkDir, p)
}

// VenvPath returns the absolute virtual environment directory
func (s *Settings) VenvPath() string {
	return s.Resolve(s.VenvDir)
}

// RequirementsPath returns the absolute manifest path
func (s *Settings) RequirementsPath() string {
	return s.Resolve(s.Requirements)
}

// EnvFilePath returns the absolute application .env path
func (s *Settings) EnvFilePath() string {
	return s.Resolve(s.EnvFile)
}
