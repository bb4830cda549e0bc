package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/hrassist/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configResetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage the config file.

Keys are dot-separated (backend.base_url). Values are checked against the
key's type before the file is written. These commands still run when the
file no longer loads, so a bad value can be set again or reset.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			slog.Warn("config does not load, showing defaults", "path", cfgPath, "error", err)
			loaded = config.Defaults()
		}
		cfg = loaded
		setupLogging(cfg, os.Stderr)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every key with its value, default and source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := config.Describe(cfg, true)
		if err != nil {
			return fmt.Errorf("list config: %w", err)
		}
		return printEntries(os.Stdout, entries)
	},
}

func printEntries(w io.Writer, entries []config.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tDEFAULT\tSOURCE")
	for _, e := range entries {
		source := string(e.Source)
		if e.Source == config.SourceEnv {
			source += " (" + e.Env + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Key, display(e.Value), display(e.Default), source)
	}
	return tw.Flush()
}

func display(v any) string {
	if s, ok := v.(string); ok && s == "" {
		return `""`
	}
	return fmt.Sprint(v)
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := config.GetValue(cfgPath, args[0])
		if err != nil {
			return err
		}
		field, _ := config.LookupField(args[0])
		fmt.Fprintln(os.Stdout, field.Mask(val))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key in the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if err := config.SetValue(cfgPath, key, args[1]); err != nil {
			return err
		}
		field, _ := config.LookupField(key)
		shown := args[1]
		if field.Secret {
			shown = "***"
		}
		fmt.Fprintf(os.Stdout, "Set %s = %s\n", key, shown)
		if field.Env != "" && os.Getenv(field.Env) != "" {
			fmt.Fprintf(os.Stdout, "Note: %s is set and takes precedence.\n", field.Env)
		}
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset <key>",
	Short: "Remove a key from the config file so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ResetValue(cfgPath, args[0]); err != nil {
			return err
		}
		field, _ := config.LookupField(args[0])
		fmt.Fprintf(os.Stdout, "Reset %s to %s\n", args[0], display(field.Mask(field.Default)))
		return nil
	},
}
