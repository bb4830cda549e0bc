package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/shell"
	"github.com/user/hrassist/internal/telegram"
	"github.com/user/hrassist/internal/types"
)

func init() {
	rootCmd.AddCommand(telegramCmd)
}

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Serve the assistant through a Telegram bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Telegram.Token == "" {
			return errors.New("telegram.token is not set; run 'hrassist setup' or set TELEGRAM_BOT_TOKEN")
		}

		opts, err := shellOptions()
		if err != nil {
			return err
		}
		client := newClient()

		adapter, err := telegram.New(cfg.Telegram.Token, func(chatNotifier types.Notifier) *shell.Shell {
			chatOpts := append(opts[:len(opts):len(opts)], shell.WithNotifier(newNotifier(chatNotifier)))
			return shell.New(client, chatOpts...)
		})
		if err != nil {
			return err
		}

		slog.Info("telegram bridge started", "backend", client.BaseURL())
		adapter.Start(cmd.Context())
		slog.Info("shutting down")
		return nil
	},
}
