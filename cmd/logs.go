/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sony-level/bdsetup/internal/output"
	"github.com/sony-level/bdsetup/internal/workspace"
)

var (
	cleanAll       bool
	cleanOlderThan time.Duration
)

// logsCmd groups run log commands
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List or remove run logs written with --log-file",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List run logs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		out := newPrinter(cmd, s)

		runs, err := workspace.List(s.WorkDir)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			out.Info("No run logs")
			return nil
		}
		for _, run := range runs {
			out.LabelValue(run.RunID, fmt.Sprintf("%s  %d bytes", run.ModTime.Format(time.DateTime), run.Size))
		}
		return nil
	},
}

var logsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old run logs",
	Long: `Remove run logs under .bdsetup/logs. By default logs older than a week
are removed; --all removes every log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		out := newPrinter(cmd, s)

		var n int
		if cleanAll {
			n, err = workspace.CleanupAll(s.WorkDir)
		} else {
			n, err = workspace.CleanupStale(s.WorkDir, cleanOlderThan)
		}
		if err != nil {
			return err
		}
		out.Success("Removed %s", output.Plural(n, "run log", "run logs"))
		return nil
	},
}

func init() {
	logsCleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Remove every run log")
	logsCleanCmd.Flags().DurationVar(&cleanOlderThan, "older-than", 7*24*time.Hour, "Remove logs older than this")
	logsCmd.AddCommand(logsListCmd, logsCleanCmd)
	rootCmd.AddCommand(logsCmd)
}
