package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/tui"
)

func init() {
	rootCmd.AddCommand(tuiCmd)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Full-screen terminal interface",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The screen belongs to the UI; logs go to a file.
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "hrassist.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		setupLogging(cfg, logFile)

		toasts := tui.NewToasts()
		s, err := newShell(newClient(), newNotifier(toasts))
		if err != nil {
			return err
		}
		stop := startHealthRefresh(s)
		defer stop()

		return tui.Run(cmd.Context(), s, toasts)
	},
}
