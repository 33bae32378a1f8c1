package cli

import (
	"github.com/spf13/cobra"
)

func newRefreshCmd(a *app) *cobra.Command {
	var vars []string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.session()
			if err != nil {
				return err
			}
			sessionVars, err := parseVars(vars)
			if err != nil {
				return err
			}

			if _, err := a.client.SessionRefresh(cmd.Context(), session, sessionVars); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), newSessionOutput(session))
		},
	}

	cmd.Flags().StringSliceVar(&vars, "var", nil, "Replace session variables with key=value (repeatable)")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.session()
			if err != nil {
				return err
			}
			return a.client.SessionLogout(cmd.Context(), session)
		},
	}
}
