// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Run report

package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Status of one step
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
	StatusPlanned Status = "planned"
)

// StepRecord is the outcome of one step
type StepRecord struct {
	Number   int      `yaml:"number"`
	Name     string   `yaml:"name"`
	Status   Status   `yaml:"status"`
	Message  string   `yaml:"message,omitempty"`
	Commands []string `yaml:"commands,omitempty"`
	Output   []string `yaml:"output,omitempty"`
	Duration string   `yaml:"duration"`
}

// Report summarises a bootstrap run
type Report struct {
	RunID        string       `yaml:"run_id,omitempty"`
	StartedAt    time.Time    `yaml:"started_at"`
	WorkDir      string       `yaml:"work_dir"`
	DryRun       bool         `yaml:"dry_run"`
	Interpreter  string       `yaml:"interpreter,omitempty"`
	PythonVer    string       `yaml:"python_version,omitempty"`
	VenvDir      string       `yaml:"venv"`
	Manifest     string       `yaml:"manifest"`
	Requirements []string     `yaml:"requirements,omitempty"`
	LogFile      string       `yaml:"log_file,omitempty"`
	Steps        []StepRecord `yaml:"steps"`
	Warnings     []string     `yaml:"warnings,omitempty"`
	Result       string       `yaml:"result"`
	FailureKind  string       `yaml:"failure_kind,omitempty"`
	Error        string       `yaml:"error,omitempty"`
	Activate     string       `yaml:"activate,omitempty"`
}

// Step returns the record for step n, or nil
func (r *Report) Step(n int) *StepRecord {
	for i := range r.Steps {
		if r.Steps[i].Number == n {
			return &r.Steps[i]
		}
	}
	return nil
}

func (r *Report) record(n int, name string, status Status, msg string, started time.Time) *StepRecord {
	r.Steps = append(r.Steps, StepRecord{
		Number:   n,
		Name:     name,
		Status:   status,
		Message:  msg,
		Duration: time.Since(started).Round(time.Millisecond).String(),
	})
	return &r.Steps[len(r.Steps)-1]
}

func (r *Report) finish(err error) {
	if err == nil {
		r.Result = "success"
		return
	}
	r.Result = "failed"
	r.Error = err.Error()
	var be *Error
	if errors.As(err, &be) {
		r.FailureKind = be.Kind.String()
		r.Error = be.Err.Error()
	}
}

// WriteYAML encodes the report as YAML
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// WriteFile writes the YAML report to path
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	if err := r.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
