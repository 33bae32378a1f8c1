package cli

import (
	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/spf13/cobra"
)

func newRPCCmd(a *app) *cobra.Command {
	var httpKey string

	cmd := &cobra.Command{
		Use:   "rpc <id> [payload]",
		Short: "Call a server function",
		Long:  "Call a server function as the session's user, or with --http-key as a server-to-server call without a session.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var payload string
			if len(args) == 2 {
				payload = args[1]
			}

			var (
				result *gamesdk.RPCResult
				err    error
			)
			if httpKey != "" {
				result, err = a.client.RPCWithHTTPKey(cmd.Context(), httpKey, id, payload)
			} else {
				var session *gamesdk.Session
				if session, err = a.session(); err != nil {
					return err
				}
				result, err = a.client.RPC(cmd.Context(), session, id, payload)
				if err == nil {
					a.noteRefresh(session)
				}
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&httpKey, "http-key", "", "Server HTTP key; skips the session")

	return cmd
}
