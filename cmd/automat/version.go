package main

import (
	"fmt"
	"runtime"

	"github.com/aretw0/automat"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the automat version and build platform",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(cmd.OutOrStdout(), automat.Version())
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "automat version %s (%s, %s/%s)\n",
			automat.Version(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "Print only the version number")
}
