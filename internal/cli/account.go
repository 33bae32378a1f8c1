package cli

import (
	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/spf13/cobra"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Show the session's account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.session()
			if err != nil {
				return err
			}

			account, err := a.client.GetAccount(cmd.Context(), session)
			if err != nil {
				return err
			}
			a.noteRefresh(session)
			return writeJSON(cmd.OutOrStdout(), account)
		},
	}

	cmd.AddCommand(newAccountUpdateCmd(a))

	return cmd
}

func newAccountUpdateCmd(a *app) *cobra.Command {
	var req gamesdk.UpdateAccountRequest
	var username, displayName, avatarURL, langTag, location, timezone string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields of the session's account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := a.session()
			if err != nil {
				return err
			}

			// Only flags given on the command line are sent.
			fields := []struct {
				flag  string
				value *string
				dst   **string
			}{
				{"username", &username, &req.Username},
				{"display-name", &displayName, &req.DisplayName},
				{"avatar-url", &avatarURL, &req.AvatarURL},
				{"lang-tag", &langTag, &req.LangTag},
				{"location", &location, &req.Location},
				{"timezone", &timezone, &req.Timezone},
			}
			for _, f := range fields {
				if cmd.Flags().Changed(f.flag) {
					*f.dst = f.value
				}
			}

			if err := a.client.UpdateAccount(cmd.Context(), session, req); err != nil {
				return err
			}
			a.noteRefresh(session)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "New username")
	cmd.Flags().StringVar(&displayName, "display-name", "", "New display name")
	cmd.Flags().StringVar(&avatarURL, "avatar-url", "", "New avatar URL")
	cmd.Flags().StringVar(&langTag, "lang-tag", "", "New BCP 47 language tag")
	cmd.Flags().StringVar(&location, "location", "", "New location")
	cmd.Flags().StringVar(&timezone, "timezone", "", "New IANA timezone")

	return cmd
}
