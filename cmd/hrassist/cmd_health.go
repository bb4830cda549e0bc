package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/render"
	"github.com/user/hrassist/internal/types"
)

func init() {
	rootCmd.AddCommand(healthCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the backend once and print its status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		status := client.CheckHealth(cmd.Context())

		fmt.Fprintf(os.Stdout, "%s  %s\n", client.BaseURL(), render.HealthBadges(status))

		names := make([]string, 0, len(status.Services))
		for name := range status.Services {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := "up"
			if !status.Services[name] {
				state = "down"
			}
			fmt.Fprintf(os.Stdout, "  %-20s %s\n", name, state)
		}

		if status.Status == types.HealthUnhealthy {
			return fmt.Errorf("backend at %s is unhealthy", client.BaseURL())
		}
		return nil
	},
}
