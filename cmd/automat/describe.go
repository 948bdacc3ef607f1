package main

import (
	"fmt"
	"os"

	"github.com/aretw0/automat/internal/cli"
	"github.com/aretw0/automat/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Print the flags, inputs and transition table",
	Long:  `Renders the machine as a markdown document. On a terminal the markdown is styled; use --raw to keep it plain.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := cli.LoadDefinition(definitionPath(cmd, args), nil)
		if err != nil {
			return err
		}
		md := tui.Describe(def.Name(), def.Automaton(), def.Space(), def.Inputs())

		raw, _ := cmd.Flags().GetBool("raw")
		if fd := int(os.Stdout.Fd()); !raw && term.IsTerminal(fd) {
			width, _, _ := term.GetSize(fd)
			md = tui.Style(md, width)
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().Bool("raw", false, "Print plain markdown")
}
