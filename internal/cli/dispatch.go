package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"todo/internal/auth"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/logging"
	"todo/internal/service"
	"todo/internal/store"
)

// ServiceFactory creates a Service from config and the signed-in session.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, authn auth.Authenticator, logger zerolog.Logger) (service.Service, error)

// AuthFactory creates the Authenticator for a config. prompt receives
// interactive sign-in instructions.
type AuthFactory func(cfg *config.Config, prompt io.Writer, logger zerolog.Logger) auth.Authenticator

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	services ServiceFactory
	auths    AuthFactory
	in       io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and factories.
func NewDispatcher(registry *commands.Registry, services ServiceFactory, auths AuthFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		services: services,
		auths:    auths,
		in:       os.Stdin,
	}
}

// SetInput replaces the reader prompts and the shell read from.
func (d *Dispatcher) SetInput(in io.Reader) {
	d.in = in
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	cmdName := "list"
	if len(args) > 0 {
		cmdName = args[0]
		args = args[1:]
	}

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.find(cmdName, errOut)
	if !ok {
		return exitcode.UserError
	}

	var common commonFlags
	positional, ok := parseFlags(cmd, args, &common, errOut)
	if !ok {
		return exitcode.UserError
	}

	// Create config
	cfg, err := config.New(common.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug

	logger := logging.NewCLI(errOut, cfg.Debug)
	env := &commands.Env{
		Config: cfg,
		Logger: logger,
		Prompt: commands.NewPrompter(d.in, errOut),
		Out:    out,
		ErrOut: errOut,
	}
	if d.auths != nil {
		env.Auth = d.auths(cfg, errOut, logger)
	}
	env.Exec = func(ctx context.Context, args []string) int {
		return d.exec(ctx, env, args)
	}

	logger.Debug().
		Str("command", cmd.Name()).
		Str("backend", cfg.Env.Backend).
		Msg("dispatching")
	return d.runCommand(ctx, env, cmd, positional)
}

// exec runs a command line inside an existing Env. Common flags are not
// accepted; the Env's config stays as it is.
func (d *Dispatcher) exec(ctx context.Context, env *commands.Env, args []string) int {
	if len(args) == 0 {
		return exitcode.Success
	}
	cmd, ok := d.find(args[0], env.ErrOut)
	if !ok {
		return exitcode.UserError
	}
	positional, ok := parseFlags(cmd, args[1:], nil, env.ErrOut)
	if !ok {
		return exitcode.UserError
	}
	return d.runCommand(ctx, env, cmd, positional)
}

func (d *Dispatcher) find(name string, errOut io.Writer) (commands.Command, bool) {
	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		for _, s := range d.registry.Suggest(name) {
			fmt.Fprintf(errOut, "Did you mean '%s'?\n", s)
		}
	}
	return cmd, ok
}

func (d *Dispatcher) runCommand(ctx context.Context, env *commands.Env, cmd commands.Command, args []string) int {
	if env.Auth == nil && !cmd.NeedsAuth() {
		// help and version run without an auth factory.
		switch cmd.Name() {
		case "help", "version":
		default:
			fmt.Fprintln(env.ErrOut, "error: authentication is not configured")
			return exitcode.AuthError
		}
	}

	if cmd.NeedsAuth() {
		if code, ok := d.gate(ctx, env); !ok {
			return code
		}
	}

	// Run command
	return cmd.Run(ctx, env, args)
}

// gate requires a session and makes sure env has a task store.
func (d *Dispatcher) gate(ctx context.Context, env *commands.Env) (int, bool) {
	if env.Auth == nil {
		fmt.Fprintln(env.ErrOut, "error: authentication is not configured")
		return exitcode.AuthError, false
	}

	s, err := env.Auth.Session(ctx)
	if err != nil {
		env.Logger.Debug().Err(err).Msg("no usable session")
		switch {
		case errors.Is(err, auth.ErrNoSession):
			fmt.Fprintln(env.ErrOut, "error: not logged in (run: todo login)")
		case errors.Is(err, auth.ErrSessionExpired):
			fmt.Fprintln(env.ErrOut, "error: session expired (run: todo login)")
		case service.IsNetwork(err):
			fmt.Fprintf(env.ErrOut, "error: %v (check your connection and try again)\n", err)
			return exitcode.BackendError, false
		default:
			fmt.Fprintf(env.ErrOut, "error: auth error: %v\n", err)
		}
		return exitcode.AuthError, false
	}

	if env.Tasks != nil {
		return exitcode.Success, true
	}
	if d.services == nil {
		fmt.Fprintln(env.ErrOut, "error: no backend configured")
		return exitcode.BackendError, false
	}

	svc, err := d.services(ctx, env.Config, env.Auth, env.Logger)
	if err != nil {
		if service.IsAuth(err) {
			fmt.Fprintf(env.ErrOut, "error: auth error: %v\n", err)
			return exitcode.AuthError, false
		}
		fmt.Fprintf(env.ErrOut, "error: backend error: %v\n", err)
		return exitcode.BackendError, false
	}

	env.Tasks = store.New(svc,
		store.WithLogger(env.Logger.With().Str("user_id", s.UserID).Logger()),
		store.WithUnauthorizedHandler(env.Unauthorized),
	)
	return exitcode.Success, true
}

// parseFlags parses command flags, plus the common flags when common is
// not nil. It reports errors to errOut itself.
func parseFlags(cmd commands.Command, args []string, common *commonFlags, errOut io.Writer) ([]string, bool) {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	if common != nil {
		fs.StringVar(&common.configDir, "config", "", "")
		fs.BoolVar(&common.quiet, "quiet", false, "")
		fs.BoolVar(&common.debug, "debug", false, "")
	}

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(errOut, "usage: %s\n", cmd.Usage())
			return nil, false
		}

		errStr := err.Error()

		// Check for missing flag value
		if strings.Contains(errStr, "flag needs an argument") {
			flagName := strings.TrimSpace(errStr[strings.LastIndex(errStr, ":")+1:])
			fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagName)
			return nil, false
		}

		// Check for unknown flag
		if strings.HasPrefix(errStr, "flag provided but not defined:") {
			flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
			return nil, false
		}

		fmt.Fprintf(errOut, "error: %s\n", errStr)
		return nil, false
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") && positional[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return nil, false
	}
	return positional, true
}
