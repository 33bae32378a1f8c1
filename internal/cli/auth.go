package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// authFlags are shared by every authenticate subcommand.
type authFlags struct {
	username string
	create   bool
	vars     []string
}

func (f *authFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "Username for a new account")
	cmd.Flags().BoolVar(&f.create, "create", true, "Create the account if it does not exist")
	cmd.Flags().StringSliceVar(&f.vars, "var", nil, "Session variable as key=value (repeatable)")
}

func (f *authFlags) sessionVars() (map[string]string, error) {
	return parseVars(f.vars)
}

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate and print a new session",
	}

	cmd.AddCommand(newAuthDeviceCmd(a), newAuthEmailCmd(a), newAuthCustomCmd(a))

	return cmd
}

func newAuthDeviceCmd(a *app) *cobra.Command {
	var flags authFlags
	var deviceID string

	cmd := &cobra.Command{
		Use:   "device",
		Short: "Authenticate with a device id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vars, err := flags.sessionVars()
			if err != nil {
				return err
			}
			if deviceID == "" {
				deviceID = uuid.NewString()
				a.logger.Info("generated device id", "device_id", deviceID)
			}

			session, err := a.client.AuthenticateDevice(cmd.Context(), deviceID, flags.username, flags.create, vars)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), newSessionOutput(session))
		},
	}

	cmd.Flags().StringVar(&deviceID, "id", "", "Device id (a random UUID when empty)")
	flags.register(cmd)

	return cmd
}

func newAuthEmailCmd(a *app) *cobra.Command {
	var flags authFlags
	var email, password string

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Authenticate with an email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vars, err := flags.sessionVars()
			if err != nil {
				return err
			}

			session, err := a.client.AuthenticateEmail(cmd.Context(), email, password, flags.username, flags.create, vars)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), newSessionOutput(session))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	flags.register(cmd)

	return cmd
}

func newAuthCustomCmd(a *app) *cobra.Command {
	var flags authFlags
	var customID string

	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Authenticate with an id from an external account system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vars, err := flags.sessionVars()
			if err != nil {
				return err
			}

			session, err := a.client.AuthenticateCustom(cmd.Context(), customID, flags.username, flags.create, vars)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), newSessionOutput(session))
		},
	}

	cmd.Flags().StringVar(&customID, "id", "", "External account id")
	_ = cmd.MarkFlagRequired("id")
	flags.register(cmd)

	return cmd
}

func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --var %q, want key=value", pair)
		}
		vars[k] = v
	}
	return vars, nil
}
