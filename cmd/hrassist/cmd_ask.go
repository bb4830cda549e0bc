package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/chat"
	"github.com/user/hrassist/internal/render"
	"github.com/user/hrassist/internal/shell"
)

var askUploads []string

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringArrayVarP(&askUploads, "upload", "u", nil, "PDF to upload before asking (repeatable)")
}

var askCmd = &cobra.Command{
	Use:   "ask [--upload <file>]... <question>",
	Short: "Ask one question about the uploaded documents",
	Long: `Ask one question and print the answer with its sources.

The chat and tui commands only open the chat after a document has been
uploaded in the same session. ask does not: the backend answers from the
documents it already holds, so it can be used after a separate
'hrassist upload'. Pass --upload to send documents first; the question is
only asked when every upload succeeds.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newShell(newClient(), newNotifier(toastPrinter(os.Stdout)))
		if err != nil {
			return err
		}
		return runAsk(cmd.Context(), s, askUploads, strings.Join(args, " "), os.Stdout)
	},
}

func runAsk(ctx context.Context, s *shell.Shell, uploads []string, question string, out io.Writer) error {
	s.Mount(ctx)
	for _, path := range uploads {
		if err := uploadPath(ctx, s, path, out); err != nil {
			return fmt.Errorf("question not asked, upload failed: %w", err)
		}
	}

	answer, err := s.Chat().Submit(ctx, question)
	if errors.Is(err, chat.ErrOffline) {
		return errors.New(chat.OfflinePlaceholder)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, render.Message(*answer))
	if answer.IsError {
		return errors.New("query failed")
	}
	return nil
}
