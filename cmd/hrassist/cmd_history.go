package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/render"
	"github.com/user/hrassist/internal/state"
	"github.com/user/hrassist/internal/types"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List logged chat sessions or print one transcript",
	Long: `Without an argument, lists logged sessions, most recent first. With a
session ID, or a unique prefix of one, prints that transcript.

Sessions are only logged while transcript.enabled is true.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := state.NewTranscriptStore(cfg.DataDir)
		if len(args) == 0 {
			return listSessions(cmd.Context(), store, cfg.Transcript.Enabled, os.Stdout)
		}
		return printTranscript(cmd.Context(), store, args[0], os.Stdout)
	},
}

func listSessions(ctx context.Context, store *state.TranscriptStore, enabled bool, out io.Writer) error {
	ids, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No transcripts logged.")
		if !enabled {
			fmt.Fprintln(out, "Turn logging on with: hrassist config set transcript.enabled true")
		}
		return nil
	}
	for _, id := range ids {
		n, err := store.Count(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %d messages\n", id, n)
	}
	return nil
}

func printTranscript(ctx context.Context, store *state.TranscriptStore, prefix string, out io.Writer) error {
	ids, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	var matches []types.SessionID
	for _, id := range ids {
		if strings.HasPrefix(string(id), prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return fmt.Errorf("no transcript for session %s", prefix)
	case 1:
	default:
		return fmt.Errorf("session prefix %s matches %d transcripts", prefix, len(matches))
	}

	messages, err := store.Load(ctx, matches[0])
	if err != nil {
		return err
	}
	for _, msg := range messages {
		fmt.Fprintln(out, render.Message(*msg))
	}
	return nil
}
