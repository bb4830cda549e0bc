package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/render"
	"github.com/user/hrassist/internal/shell"
	"github.com/user/hrassist/internal/upload"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload PDF documents to the backend, in order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newShell(newClient(), newNotifier(toastPrinter(os.Stdout)))
		if err != nil {
			return err
		}

		var failures []string
		for _, path := range args {
			if err := uploadPath(cmd.Context(), s, path, os.Stdout); err != nil {
				failures = append(failures, err.Error())
			}
		}

		for _, f := range s.Files() {
			fmt.Fprintf(os.Stdout, "  %s (%s)\n", f.Name, render.FormatSize(f.SizeBytes))
		}
		fmt.Fprintln(os.Stdout, render.DocumentsBadge(len(s.Files())))
		if len(failures) > 0 {
			for _, f := range failures {
				fmt.Fprintln(os.Stdout, "  failed: "+f)
			}
			return fmt.Errorf("%d of %d uploads failed", len(failures), len(args))
		}
		return nil
	},
}

// uploadPath opens path and runs one upload attempt. Open failures are
// printed here; attempt outcomes are reported by the session's notifier.
// The returned error names the file and the reason the attempt failed.
func uploadPath(ctx context.Context, s *shell.Shell, path string, out io.Writer) error {
	file, closer, err := upload.Open(path)
	if err != nil {
		fmt.Fprintf(out, "[Cannot open file] %v\n", err)
		return err
	}
	defer closer.Close()

	if _, err := s.Upload(ctx, file); err != nil {
		if errors.Is(err, upload.ErrBusy) {
			return fmt.Errorf("%s: %w", file.Name, err)
		}
		return fmt.Errorf("%s: %s", file.Name, s.Uploads().Last().Reason)
	}
	return nil
}
