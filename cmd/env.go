/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/sony-level/bdsetup/internal/appenv"
	"github.com/sony-level/bdsetup/internal/output"
)

// envCmd groups the application environment commands
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Check or create the application's .env file",
}

var envCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the application environment",
	Long: `Load the .env file, overlay the process environment and check every
variable BrainDump reads: types, ranges and the settings each mode
requires (local model, remote endpoint, email). Secrets are redacted.`,
	Args: cobra.NoArgs,
	RunE: runEnvCheck,
}

var envInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .env template if none exists",
	Long: `Write a commented .env with the application's defaults and a fresh
SECRET_KEY. An existing .env is never overwritten. With --interactive the
model and email settings are asked for first.`,
	Args: cobra.NoArgs,
	RunE: runEnvInit,
}

var envInteractive bool

func init() {
	envInitCmd.Flags().BoolVarP(&envInteractive, "interactive", "i", false, "Prompt for model and email settings")
	envCmd.AddCommand(envCheckCmd, envInitCmd)
	rootCmd.AddCommand(envCmd)
}

func runEnvCheck(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out := newPrinter(cmd, s)
	path := s.EnvFilePath()

	values, err := appenv.Load(path, os.Environ())
	if err != nil {
		return err
	}
	if values.FileRead {
		out.Section("Environment from " + s.EnvFile)
	} else {
		out.Warning("%s not found; using process environment and defaults", s.EnvFile)
		out.Section("Environment")
	}

	for _, e := range values.Entries() {
		if e.Source == appenv.SourceUnset {
			continue
		}
		out.LabelValue(e.Key, fmt.Sprintf("%s (%s)", e.Value, e.Source))
	}

	result := appenv.Check(values)
	for _, w := range result.Warnings() {
		out.Warning("%s", w)
	}
	errs := result.Errors()
	for _, e := range errs {
		out.Error("%s", e)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s has %s", s.EnvFile, output.Plural(len(errs), "error", "errors"))
	}
	out.Success("Application environment is valid")
	return nil
}

func runEnvInit(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	out := newPrinter(cmd, s)
	path := s.EnvFilePath()

	if _, err := os.Stat(path); err == nil {
		out.Warning("%s already exists; left unchanged", s.EnvFile)
		return nil
	}

	values := map[string]string{}
	if envInteractive {
		if !output.IsTerminal(os.Stdin) {
			return fmt.Errorf("--interactive needs a terminal")
		}
		if values, err = promptEnv(); err != nil {
			return err
		}
	}
	secret, err := appenv.NewSecretKey()
	if err != nil {
		return err
	}
	values["SECRET_KEY"] = secret

	created, err := appenv.Init(path, values)
	if err != nil {
		return err
	}
	if !created {
		out.Warning("%s already exists; left unchanged", s.EnvFile)
		return nil
	}
	out.Success("Wrote %s", s.EnvFile)
	out.Detail("Review the model settings, then run: bdsetup env check")
	return nil
}

// promptEnv asks for the settings that have no usable default
func promptEnv() (map[string]string, error) {
	values := map[string]string{}

	var local bool
	if err := survey.AskOne(&survey.Confirm{
		Message: "Run a local model (llama.cpp) instead of a remote endpoint?",
	}, &local); err != nil {
		return nil, err
	}

	if local {
		var modelPath string
		if err := survey.AskOne(&survey.Input{Message: "Path to the model file:"}, &modelPath, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
		values["USE_LOCAL_MODEL"] = "true"
		values["MODEL_PATH"] = modelPath
	} else {
		answers := struct {
			Endpoint  string `survey:"endpoint"`
			ModelName string `survey:"model"`
			APIKey    string `survey:"key"`
		}{}
		qs := []*survey.Question{
			{Name: "endpoint", Prompt: &survey.Input{Message: "Inference endpoint URL:"}, Validate: survey.Required},
			{Name: "model", Prompt: &survey.Input{Message: "Model name:"}, Validate: survey.Required},
			{Name: "key", Prompt: &survey.Password{Message: "API key (empty for none):"}},
		}
		if err := survey.Ask(qs, &answers); err != nil {
			return nil, err
		}
		values["ENDPOINT"] = answers.Endpoint
		values["MODEL_NAME"] = answers.ModelName
		values["API_KEY"] = answers.APIKey
	}

	var smtp bool
	if err := survey.AskOne(&survey.Confirm{Message: "Email processed notes over SMTP?"}, &smtp); err != nil {
		return nil, err
	}
	if smtp {
		answers := struct {
			Server     string `survey:"server"`
			Sender     string `survey:"sender"`
			Recipients string `survey:"recipients"`
		}{}
		qs := []*survey.Question{
			{Name: "server", Prompt: &survey.Input{Message: "SMTP server:"}, Validate: survey.Required},
			{Name: "sender", Prompt: &survey.Input{Message: "Sender address:"}, Validate: survey.Required},
			{Name: "recipients", Prompt: &survey.Input{Message: "Recipients (comma-separated):"}, Validate: survey.Required},
		}
		if err := survey.Ask(qs, &answers); err != nil {
			return nil, err
		}
		values["SMTP_ENABLED"] = "true"
		values["SMTP_SERVER"] = answers.Server
		values["EMAIL_SENDER"] = answers.Sender
		values["EMAIL_RECIPIENTS"] = answers.Recipients
	}
	return values, nil
}
