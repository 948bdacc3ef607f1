package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/automat/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "automat",
	Short: "automat runs declarative finite state machines",
	Long: `automat compiles machine definitions written in YAML (flags or named states,
inputs, outputs and transitions) and lets you render, inspect, drive and serve them.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("file", "f", "machine.yaml", "Machine definition file")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
}

func definitionPath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("file")
	if !cmd.Flags().Changed("file") && len(args) > 0 {
		path = args[0]
	}
	return path
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}
