package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/config"
	"github.com/user/hrassist/internal/scheduler"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("HR Assistant Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.Backend.BaseURL = prompt(scanner, "Backend URL", cfg.Backend.BaseURL)

		timeout := prompt(scanner, "Request timeout in seconds (0 = none)", strconv.Itoa(cfg.Backend.TimeoutSeconds))
		if n, err := strconv.Atoi(timeout); err == nil {
			cfg.Backend.TimeoutSeconds = n
		}

		keep := prompt(scanner, "Keep chat transcripts on disk (yes/no)", yesNo(cfg.Transcript.Enabled))
		cfg.Transcript.Enabled = strings.HasPrefix(strings.ToLower(keep), "y")

		schedule := prompt(scanner, "Health recheck schedule, cron syntax, - for none", cfg.Health.RefreshSchedule)
		if schedule == "-" {
			schedule = ""
		}
		if schedule != "" {
			if err := scheduler.Validate(schedule); err != nil {
				fmt.Printf("%v; periodic health checks disabled\n", err)
				schedule = ""
			}
		}
		cfg.Health.RefreshSchedule = schedule

		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config not saved: %w", err)
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
