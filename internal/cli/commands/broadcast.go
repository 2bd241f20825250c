package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/procharity/pcadmin/internal/cli/client"
	"github.com/procharity/pcadmin/internal/cli/richtext"
)

type broadcastInput struct {
	Message     string
	File        string
	MailingOnly bool
}

// NewBroadcastCmd creates the broadcast command
func NewBroadcastCmd() *cobra.Command {
	var input broadcastInput

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a Telegram notification to volunteers",
		Long: `Send a Telegram notification to volunteers.

The message is taken from --message or from --file ("-" reads stdin).
Files ending in .html are sent as editor markup, anything else as plain text.

Examples:
  $ pcadmin broadcast --message "New tasks are waiting for you"
  $ pcadmin broadcast --file announcement.html --mailing-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBroadcast(input, WithEnvironmentAlias(envAlias(cmd)), WithContext(cmd.Context()))
		},
	}

	cmd.Flags().StringVarP(&input.Message, "message", "m", "", "Message text")
	cmd.Flags().StringVarP(&input.File, "file", "f", "", "Read the message from a file")
	cmd.Flags().BoolVar(&input.MailingOnly, "mailing-only", false, "Only notify volunteers with mailing enabled")
	cmd.MarkFlagsMutuallyExclusive("message", "file")

	return cmd
}

func runBroadcast(input broadcastInput, opts ...Option) error {
	message, err := broadcastMessage(input)
	if err != nil {
		return err
	}

	o, err := prepare(opts)
	if err != nil {
		return err
	}

	resp, err := o.api.SendBroadcast(o.ctx, client.BroadcastRequest{
		Message:    message,
		HasMailing: input.MailingOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to send broadcast: %w", err)
	}

	audience := "all volunteers"
	if input.MailingOnly {
		audience = "volunteers with mailing enabled"
	}
	fmt.Fprintf(o.out, "✓ Broadcast sent to %s\n", audience)
	if resp.Message != "" {
		fmt.Fprintf(o.out, "  %s\n", resp.Message)
	}
	return nil
}

// broadcastMessage returns the message as editor markup
func broadcastMessage(input broadcastInput) (string, error) {
	switch {
	case input.Message != "" && input.File != "":
		return "", fmt.Errorf("use either --message or --file, not both")
	case input.Message != "":
		return richtext.FromPlain(input.Message), nil
	case input.File == "":
		return "", fmt.Errorf("message is required (use --message or --file)")
	}

	var (
		data []byte
		err  error
	)
	if input.File == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input.File)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("message is empty")
	}

	switch strings.ToLower(filepath.Ext(input.File)) {
	case ".html", ".htm":
		return text, nil
	default:
		return richtext.FromPlain(text), nil
	}
}
