package main

import (
	"fmt"

	"github.com/aretw0/automat/internal/cli"
	"github.com/aretw0/automat/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the state diagram",
	Long:  `Compiles the definition and prints its transition graph as Mermaid (default) or Graphviz DOT.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := cli.LoadDefinition(definitionPath(cmd, args), nil)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "mermaid":
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def.Automaton(), nil))
		case "dot":
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateDOT(def.Name(), def.Automaton(), nil))
		default:
			return fmt.Errorf("unknown format %q: use mermaid or dot", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("format", "mermaid", "Output format: mermaid or dot")
}
