package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResetPasswordCmd creates the reset-password command
func NewResetPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetPassword(email, WithEnvironmentAlias(envAlias(cmd)), WithContext(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the account")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runResetPassword(email string, opts ...Option) error {
	if email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	o, err := prepare(opts)
	if err != nil {
		return err
	}

	resp, err := o.api.ResetPassword(o.ctx, email)
	if err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	fmt.Fprintln(o.out, "✓ Password reset requested")
	if resp.Message != "" {
		fmt.Fprintf(o.out, "  %s\n", resp.Message)
	}
	return nil
}
