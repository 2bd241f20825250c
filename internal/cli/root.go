package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/procharity/pcadmin/internal/cli/commands"
	"github.com/procharity/pcadmin/internal/logger"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "pcadmin",
	Short: "pcadmin - ProCharity admin console",
	Long: `pcadmin - Manage the ProCharity volunteer bot from the terminal.

Browse registered volunteers, check sign-up analytics, invite
administrators and broadcast Telegram notifications.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine
		_ = godotenv.Load()

		level := os.Getenv("PCADMIN_LOG_LEVEL")
		if level == "" {
			level = "warn"
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = "debug"
		}
		commands.SetLogger(logger.New(os.Stderr, level, "console"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("env", "e", "", "Environment alias from pcadmin.yaml")
	rootCmd.PersistentFlags().Bool("debug", false, "Log API and session activity to stderr")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pcadmin version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectEnvCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewDashboardCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewInviteCmd())
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewResetPasswordCmd())
	rootCmd.AddCommand(commands.NewBroadcastCmd())
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
