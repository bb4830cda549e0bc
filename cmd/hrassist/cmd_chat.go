package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/chat"
	"github.com/user/hrassist/internal/render"
	"github.com/user/hrassist/internal/shell"
	"github.com/user/hrassist/internal/types"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session: upload documents, then ask questions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newShell(newClient(), newNotifier(toastPrinter(os.Stdout)))
		if err != nil {
			return err
		}
		stop := startHealthRefresh(s)
		defer stop()

		return runREPL(cmd.Context(), s, os.Stdin, os.Stdout)
	},
}

const replHelp = `Commands:
  /upload <path>       upload a PDF document
  /view upload|chat    switch view
  /files               list uploaded documents
  /health              recheck the backend
  /1 .. /6             ask a suggested question
  /quit                leave
Anything else is a question (chat view only).`

// runREPL drives the shell from line input until EOF, /quit or ctx ends.
func runREPL(ctx context.Context, s *shell.Shell, in io.Reader, out io.Writer) error {
	health := s.Mount(ctx)
	fmt.Fprintln(out, render.HealthBadges(health))
	for _, msg := range s.Chat().Messages() {
		fmt.Fprintln(out, render.Message(msg))
	}
	printSuggestions(s, out)
	fmt.Fprintln(out, "Upload a document with /upload <path>. Type /help for commands.")

	lines := readLines(ctx, in)
	for {
		fmt.Fprintf(out, "%s> ", s.View())
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			ask(ctx, s, out, line)
			continue
		}

		cmd, arg, _ := strings.Cut(line[1:], " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, replHelp)
		case "upload":
			if arg == "" {
				fmt.Fprintln(out, "usage: /upload <path>")
				continue
			}
			uploadPath(ctx, s, arg, out)
		case "view":
			view, err := shell.ParseView(arg)
			if err == nil {
				err = s.SetView(view)
			}
			if err != nil {
				fmt.Fprintln(out, err)
			}
		case "files":
			printFiles(s, out)
		case "health":
			fmt.Fprintln(out, render.HealthBadges(s.RefreshHealth(ctx)))
		default:
			n, err := strconv.Atoi(cmd)
			if err != nil {
				fmt.Fprintln(out, replHelp)
				continue
			}
			askSuggestion(ctx, s, out, n-1)
		}
	}
}

// readLines feeds lines from in until EOF or ctx ends, so a blocked read
// never holds up shutdown.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Debug("input closed", "error", err)
		}
	}()
	return lines
}

// inChat reports whether questions are accepted, telling the user how to
// get there when they are not.
func inChat(s *shell.Shell, out io.Writer) bool {
	switch {
	case s.View() == shell.ViewChat:
		return true
	case s.ChatAvailable():
		fmt.Fprintln(out, "Switch to the chat view with /view chat.")
	default:
		fmt.Fprintln(out, "Upload a document first: /upload <path>")
	}
	return false
}

func ask(ctx context.Context, s *shell.Shell, out io.Writer, text string) {
	if !inChat(s, out) {
		return
	}
	answer, err := s.Chat().Submit(ctx, text)
	printAnswer(out, answer, err)
}

func askSuggestion(ctx context.Context, s *shell.Shell, out io.Writer, i int) {
	if !inChat(s, out) {
		return
	}
	answer, err := s.Chat().AskSuggestion(ctx, i)
	printAnswer(out, answer, err)
}

func printAnswer(out io.Writer, answer *types.ChatMessage, err error) {
	switch {
	case errors.Is(err, chat.ErrOffline):
		fmt.Fprintln(out, chat.OfflinePlaceholder)
	case err != nil:
		fmt.Fprintln(out, err)
	default:
		fmt.Fprintln(out, render.Message(*answer))
	}
}

func printSuggestions(s *shell.Shell, out io.Writer) {
	offered := s.Chat().Suggestions()
	if offered == nil {
		return
	}
	fmt.Fprintln(out, "Suggested questions:")
	for i, q := range offered {
		fmt.Fprintf(out, "  /%d %s\n", i+1, q)
	}
}

func printFiles(s *shell.Shell, out io.Writer) {
	files := s.Files()
	if len(files) == 0 {
		fmt.Fprintln(out, "No documents uploaded yet.")
		return
	}
	fmt.Fprintln(out, render.DocumentsBadge(len(files)))
	now := time.Now()
	for _, f := range files {
		fmt.Fprintln(out, "  "+render.File(f, now))
	}
}
