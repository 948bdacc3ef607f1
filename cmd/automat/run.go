package main

import (
	"os"

	"github.com/aretw0/automat/internal/cli"
	"github.com/aretw0/automat/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Drive an instance of the machine",
	Long: `Feeds inputs to an instance and traces every transition and output.
Inputs come from --input (repeatable) or, one per line, from stdin. Arguments
are written as a call: dim(3, high).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		opts := cli.RunOptions{
			File:   definitionPath(cmd, args),
			Logger: logger,
			Store:  storeOptions(cmd),
		}
		opts.Inputs, _ = cmd.Flags().GetStringArray("input")
		opts.SessionID, _ = cmd.Flags().GetString("session")

		interactive := len(opts.Inputs) == 0 && term.IsTerminal(int(os.Stdin.Fd()))
		if interactive {
			tui.PrintBanner(cmd.OutOrStdout())
			opts.Prompt = true
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		return cli.Run(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayP("input", "i", nil, "Input to feed, e.g. flip or dim(3) (repeatable)")
	runCmd.Flags().String("session", "", "Persist the instance under this id")
	addStoreFlags(runCmd, "file")
}

func addStoreFlags(cmd *cobra.Command, defaultKind string) {
	cmd.Flags().String("store", defaultKind, "Snapshot store: memory, file or redis")
	cmd.Flags().String("dir", "", "Directory of the file store (default .automat/snapshots)")
	cmd.Flags().String("redis-addr", "", "Redis address for the redis store")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().String("encryption-key", "", "Encrypt snapshots with a 32 byte key, hex or base64 (env AUTOMAT_ENCRYPTION_KEY)")
	cmd.Flags().StringSlice("fallback-key", nil, "Older keys accepted when decrypting")
}

func storeOptions(cmd *cobra.Command) cli.StoreOptions {
	var opts cli.StoreOptions
	opts.Kind, _ = cmd.Flags().GetString("store")
	opts.Dir, _ = cmd.Flags().GetString("dir")
	opts.RedisAddr, _ = cmd.Flags().GetString("redis-addr")
	opts.RedisPassword, _ = cmd.Flags().GetString("redis-password")
	opts.RedisDB, _ = cmd.Flags().GetInt("redis-db")
	opts.EncryptionKey, _ = cmd.Flags().GetString("encryption-key")
	if opts.EncryptionKey == "" {
		opts.EncryptionKey = os.Getenv("AUTOMAT_ENCRYPTION_KEY")
	}
	opts.FallbackKeys, _ = cmd.Flags().GetStringSlice("fallback-key")
	return opts
}
