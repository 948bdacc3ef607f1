package main

import (
	"fmt"

	"github.com/aretw0/automat/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a machine definition",
	Long:  `Parses, validates and compiles the definition, reporting the first configuration error.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := definitionPath(cmd, args)
		def, err := cli.LoadDefinition(path, nil)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		a := def.Automaton()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: machine %q is valid (%d states, %d transitions)\n",
			path, def.Name(), len(a.States()), len(a.Transitions()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
