// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"todo/internal/auth"
	"todo/internal/backend/googletasks"
	"todo/internal/backend/rest"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newService, newAuth)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newAuth picks the sign-in flow for the configured backend.
func newAuth(cfg *config.Config, prompt io.Writer, logger zerolog.Logger) auth.Authenticator {
	if cfg.Env.Backend == config.BackendGoogleTasks {
		return auth.NewGoogleProvider(cfg, prompt, logger)
	}
	return auth.NewProvider(cfg, auth.WithLogger(logger))
}

// newService builds the task backend, authorized by the session's tokens.
func newService(ctx context.Context, cfg *config.Config, authn auth.Authenticator, logger zerolog.Logger) (service.Service, error) {
	ts := authn.TokenSource(ctx)
	if cfg.Env.Backend == config.BackendGoogleTasks {
		return googletasks.New(ctx, ts, cfg.Env.APITimeout)
	}
	return rest.New(ctx, cfg.Env.APIURL, ts,
		rest.WithTimeout(cfg.Env.APITimeout),
		rest.WithLogger(logger),
	), nil
}
