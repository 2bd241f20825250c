package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/procharity/pcadmin/internal/cli/client"
)

const minPasswordLength = 8

// registerInput holds the register flags. Confirmation is checked locally
// and never sent.
type registerInput struct {
	client.RegisterRequest
	Confirmation string
}

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var input registerInput

	cmd := &cobra.Command{
		Use:   "register <invitation-token>",
		Short: "Create an administrator account from an invitation",
		Long: `Create an administrator account from an invitation.

The invitation token is the last part of the link sent by 'pcadmin invite'.
The password is prompted for (twice) when not provided.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Token = args[0]
			return runRegister(input, WithEnvironmentAlias(envAlias(cmd)), WithContext(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "Email address the invitation was sent to")
	cmd.Flags().StringVar(&input.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&input.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&input.Password, "password", "", "Password (or set PCADMIN_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&input.Confirmation, "password-confirmation", "", "Password confirmation (will prompt if not provided)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runRegister(input registerInput, opts ...Option) error {
	if input.Token == "" {
		return fmt.Errorf("invitation token is required")
	}
	if input.Email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}
	if input.Password == "" {
		input.Password = os.Getenv("PCADMIN_PASSWORD")
	}

	var err error
	if input.Password == "" {
		input.Password, err = readPassword("Password: ")
		if err != nil {
			return err
		}
	}
	if input.Confirmation == "" {
		input.Confirmation, err = readPassword("Confirm password: ")
		if err != nil {
			return err
		}
	}

	if len(input.Password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if input.Password != input.Confirmation {
		return fmt.Errorf("passwords do not match")
	}

	o, err := prepare(opts)
	if err != nil {
		return err
	}

	if err := o.api.Register(o.ctx, input.RegisterRequest); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintln(o.out, "✓ Registration complete!")
	fmt.Fprintln(o.out, "\nNext steps:")
	fmt.Fprintf(o.out, "  Run 'pcadmin login --email %s' to sign in\n", input.Email)
	return nil
}
