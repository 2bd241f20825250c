package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/procharity/pcadmin/internal/cli/config"
	"github.com/procharity/pcadmin/internal/cli/envselect"
	"github.com/procharity/pcadmin/internal/cli/userconfig"
)

// NewSelectEnvCmd creates the select-env command
func NewSelectEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-env [url-or-alias]",
		Short: "Select the environment to use for commands",
		Long: `Select the environment to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ pcadmin select-env                            # Interactive selection
  $ pcadmin select-env https://admin.example.org  # Select by URL
  $ pcadmin select-env production                 # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectEnv(urlOrAlias)
		},
	}

	return cmd
}

func runSelectEnv(urlOrAlias string, opts ...Option) error {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'pcadmin init <api-url>' to create a configuration file", err)
	}

	var env *config.Environment

	if urlOrAlias != "" {
		env, err = cfg.GetEnvironmentByURLOrAlias(urlOrAlias)
	} else {
		env, err = envselect.PromptEnvironmentSelection(cfg)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedEnvironment(env.URL); err != nil {
		return fmt.Errorf("failed to save selected environment: %w", err)
	}

	fmt.Fprintf(o.out, "Selected environment: %s (%s)\n", env.Alias, env.URL)
	return nil
}
