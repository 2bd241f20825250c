package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/procharity/pcadmin/internal/cli/client"
)

// NewInviteCmd creates the invite command
func NewInviteCmd() *cobra.Command {
	var invite client.InviteRequest

	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite a new administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvite(invite, WithEnvironmentAlias(envAlias(cmd)), WithContext(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&invite.Email, "email", "", "Email address of the new administrator")
	cmd.Flags().StringVar(&invite.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&invite.LastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runInvite(invite client.InviteRequest, opts ...Option) error {
	if invite.Email == "" {
		return fmt.Errorf("email is required (use --email flag)")
	}

	o, err := prepare(opts)
	if err != nil {
		return err
	}

	resp, err := o.api.Invite(o.ctx, invite)
	if err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Invitation sent to %s\n", invite.Email)
	if resp.Message != "" {
		fmt.Fprintf(o.out, "  %s\n", resp.Message)
	}
	return nil
}
