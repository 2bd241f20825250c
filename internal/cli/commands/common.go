package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/procharity/pcadmin/internal/cli/auth"
	"github.com/procharity/pcadmin/internal/cli/client"
	"github.com/procharity/pcadmin/internal/cli/config"
	"github.com/procharity/pcadmin/internal/cli/envselect"
	"github.com/procharity/pcadmin/internal/cli/gateway"
)

const (
	// APIAddressEnv overrides the configured environments
	APIAddressEnv = "PCADMIN_API_ADDRESS"

	sessionExpiredNotice = "Session expired. Run 'pcadmin login' to sign in again."
)

var consoleLogger = zerolog.Nop()

// SetLogger sets the logger handed to the request gateway
func SetLogger(l zerolog.Logger) {
	consoleLogger = l
}

// API is the part of the admin API the commands use
type API interface {
	Login(ctx context.Context, email, password string) error
	Logout() error
	Analytics(ctx context.Context) (*client.Analytics, error)
	ListUsers(ctx context.Context, page, limit int) (*client.UserPage, error)
	Invite(ctx context.Context, invite client.InviteRequest) (*client.MessageResponse, error)
	Register(ctx context.Context, register client.RegisterRequest) error
	ResetPassword(ctx context.Context, email string) (*client.MessageResponse, error)
	SendBroadcast(ctx context.Context, broadcast client.BroadcastRequest) (*client.MessageResponse, error)
}

type options struct {
	ctx      context.Context
	api      API
	env      *config.Environment
	envAlias string
	out      io.Writer
	errOut   io.Writer
}

// Option injects dependencies into a command run
type Option func(*options)

// WithClient sets the API client instead of building one for the environment
func WithClient(api API) Option {
	return func(o *options) {
		o.api = api
	}
}

// WithEnvironment skips environment resolution
func WithEnvironment(env *config.Environment) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithEnvironmentAlias selects an environment from the project config
func WithEnvironmentAlias(alias string) Option {
	return func(o *options) {
		o.envAlias = alias
	}
}

// WithOutput redirects normal and error output
func WithOutput(out io.Writer) Option {
	return func(o *options) {
		o.out = out
		o.errOut = out
	}
}

// WithContext sets the context for API calls
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// prepare applies opts and fills in the defaults: the resolved
// environment and a keyring-backed client for it.
func prepare(opts []Option) (*options, error) {
	o := &options{
		ctx:    context.Background(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.api != nil {
		return o, nil
	}

	if o.env == nil {
		env, err := resolveEnvironment(o.envAlias, o.errOut)
		if err != nil {
			return nil, err
		}
		o.env = env
	}

	o.api = newAPIClient(o.env, auth.NewKeyringStore(o.env.URL), o.errOut)
	return o, nil
}

// resolveEnvironment picks the API to talk to: the --env flag, then
// PCADMIN_API_ADDRESS, then the project config.
func resolveEnvironment(alias string, warnings io.Writer) (*config.Environment, error) {
	if alias == "" {
		if addr := os.Getenv(APIAddressEnv); addr != "" {
			env := &config.Environment{Alias: APIAddressEnv, URL: addr}
			if err := env.Validate(); err != nil {
				return nil, err
			}
			return env, nil
		}
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'pcadmin init <api-url>' to create a configuration file", err)
	}

	env, err := envselect.ResolveEnvironment(cfg, alias, warnings)
	if err != nil {
		return nil, err
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}

	return env, nil
}

func newAPIClient(env *config.Environment, store auth.Store, errOut io.Writer) *client.Client {
	gw := gateway.New(env.URL, auth.NewSession(store),
		gateway.WithLogger(consoleLogger.With().Str("env", env.Alias).Logger()),
		gateway.OnForcedLogout(func() {
			fmt.Fprintln(errOut, sessionExpiredNotice)
		}),
	)
	return client.New(gw)
}

// envAlias reads the inherited --env flag
func envAlias(cmd *cobra.Command) string {
	if f := cmd.Flag("env"); f != nil {
		return f.Value.String()
	}
	return ""
}

// readPassword prompts for a password on an interactive terminal
func readPassword(prompt string) (string, error) {
	// Check if stdin is a terminal (not piped)
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or PCADMIN_PASSWORD env var)")
	}

	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
