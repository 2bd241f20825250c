package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/procharity/pcadmin/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password, WithEnvironmentAlias(envAlias(cmd)), WithContext(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set PCADMIN_EMAIL, defaults to the last one used)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set PCADMIN_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(email, password string, opts ...Option) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("PCADMIN_EMAIL")
	}
	if password == "" {
		password = os.Getenv("PCADMIN_PASSWORD")
	}

	o, err := prepare(opts)
	if err != nil {
		return err
	}

	if email == "" && o.env != nil {
		email, _ = userconfig.LastEmail(o.env.URL)
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or PCADMIN_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		password, err = readPassword("Password: ")
		if err != nil {
			return err
		}
	}

	if o.env != nil {
		fmt.Fprintf(o.out, "Logging in to %s (%s)...\n", o.env.Alias, o.env.URL)
	}

	if err := o.api.Login(o.ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintln(o.out, "✓ Login successful!")
	fmt.Fprintf(o.out, "  User: %s\n", email)

	if o.env != nil {
		if err := userconfig.RememberEmail(o.env.URL, email); err != nil {
			fmt.Fprintf(o.errOut, "Warning: failed to remember email: %v\n", err)
		}
	}

	return nil
}
