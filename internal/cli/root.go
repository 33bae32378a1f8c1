// Package cli implements arcadectl, a command line client for the game
// server built on pkg/gamesdk.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is reported by `arcadectl version`.
var Version = "v0.1.0"

// Execute runs arcadectl with os.Args.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	a := &app{v: v}

	rootCmd := &cobra.Command{
		Use:           "arcadectl",
		Short:         "Talk to an arcade game server",
		Long:          "arcadectl authenticates against an arcade game server, manages sessions and calls account, RPC and health endpoints. Failed calls are retried with exponential backoff.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	bindFlags(rootCmd, v)

	rootCmd.AddCommand(
		newVersionCmd(),
		newHealthCmd(a),
		newAuthCmd(a),
		newRefreshCmd(a),
		newLogoutCmd(a),
		newAccountCmd(a),
		newRPCCmd(a),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(Version + "\n"))
			return err
		},
	}
}
