package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(WithEnvironmentAlias(envAlias(cmd)))
		},
	}
}

func runLogout(opts ...Option) error {
	o, err := prepare(opts)
	if err != nil {
		return err
	}

	if err := o.api.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	fmt.Fprintln(o.out, "✓ Logged out")
	return nil
}
