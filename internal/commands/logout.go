package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"todo/internal/auth"
	"todo/internal/exitcode"
)

func init() {
	Register(&LogoutCmd{})
	Register(&WhoamiCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string  { return "Sign out and remove stored credentials" }
func (c *LogoutCmd) Usage() string     { return "todo logout" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, env *Env, args []string) int {
	err := env.Auth.SignOut(ctx)
	switch {
	case errors.Is(err, auth.ErrNoSession):
		if !env.Quiet() {
			fmt.Fprintln(env.Out, "not logged in")
		}
		return exitcode.Success
	case err != nil:
		fmt.Fprintf(env.ErrOut, "error: failed to sign out: %v\n", err)
		return exitcode.AuthError
	}

	if !env.Quiet() {
		fmt.Fprintln(env.Out, "ok")
	}
	return exitcode.Success
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string      { return "whoami" }
func (c *WhoamiCmd) Aliases() []string { return nil }
func (c *WhoamiCmd) Synopsis() string  { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string     { return "todo whoami" }
func (c *WhoamiCmd) NeedsAuth() bool   { return false }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, env *Env, args []string) int {
	s, err := env.Auth.Session(ctx)
	if err != nil {
		return reportSession(env, err)
	}

	switch {
	case s.Email != "":
		fmt.Fprintln(env.Out, s.Email)
	case s.UserID != "":
		fmt.Fprintln(env.Out, s.UserID)
	default:
		fmt.Fprintln(env.Out, "logged in")
	}
	return exitcode.Success
}
