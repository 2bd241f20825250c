package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/procharity/pcadmin/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add an admin API environment to ./" + config.ConfigFileName,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0])
		},
	}
}

func runInit(apiURL string, opts ...Option) error {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	if err := (config.Environment{URL: apiURL}).Validate(); err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(o.out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Environments: []config.Environment{},
		}
		isNewConfig = true
	}

	env, added := cfg.AddEnvironment(apiURL)
	if !added {
		fmt.Fprintf(o.out, "Environment %s already exists in %s (%s)\n", env.URL, config.ConfigFileName, env.Alias)
	} else {
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}

		if isNewConfig {
			fmt.Fprintf(o.out, "✓ Created ./%s with environment %s (%s)\n", config.ConfigFileName, env.URL, env.Alias)
		} else {
			fmt.Fprintf(o.out, "✓ Added environment %s (%s) to ./%s\n", env.URL, env.Alias, config.ConfigFileName)
		}
	}

	fmt.Fprintln(o.out, "\nNext steps:")
	fmt.Fprintln(o.out, "  1. Run 'pcadmin login' to authenticate")
	fmt.Fprintln(o.out, "  2. Run 'pcadmin dashboard' to check the connection")

	return nil
}
