package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"todo/internal/auth"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// PasswordEnv names the variable login and signup read the password from
// before falling back to stdin.
const PasswordEnv = "TODO_PASSWORD"

func init() {
	Register(&LoginCmd{})
	Register(&SignupCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email string
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in" }
func (c *LoginCmd) Usage() string     { return "todo login [--email <email>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string) int {
	if s, err := env.Auth.Session(ctx); err == nil {
		if !env.Quiet() {
			fmt.Fprintf(env.Out, "already logged in%s\n", as(s))
		}
		return exitcode.Success
	}

	creds, err := readCredentials(env, c.email)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	s, err := env.Auth.SignIn(ctx, creds)
	if err != nil {
		return reportSignIn(env, err)
	}

	env.Logger.Debug().Str("user_id", s.UserID).Msg("signed in")
	if !env.Quiet() {
		if env.Interactive {
			fmt.Fprintf(env.Out, "signed in%s\n", as(s))
		} else {
			fmt.Fprintln(env.Out, "ok")
		}
	}
	return exitcode.Success
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	email string
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *SignupCmd) Usage() string     { return "todo signup [--email <email>]" }
func (c *SignupCmd) NeedsAuth() bool   { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, env *Env, args []string) int {
	creds, err := readCredentials(env, c.email)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	s, err := env.Auth.SignUp(ctx, creds)
	if err != nil {
		return reportSignIn(env, err)
	}

	if !env.Quiet() {
		if env.Interactive {
			fmt.Fprintf(env.Out, "account created, signed in%s\n", as(s))
		} else {
			fmt.Fprintln(env.Out, "ok")
		}
	}
	return exitcode.Success
}

// readCredentials collects an email and password. The googletasks backend
// signs in through the browser and needs neither.
func readCredentials(env *Env, email string) (auth.Credentials, error) {
	if env.Config.Env.Backend == config.BackendGoogleTasks {
		return auth.Credentials{}, nil
	}

	email = strings.TrimSpace(email)
	if email == "" {
		if env.Prompt == nil {
			return auth.Credentials{}, errors.New("email required (use --email)")
		}
		line, err := env.Prompt.ReadLine("Email: ")
		if err != nil && !errors.Is(err, io.EOF) {
			return auth.Credentials{}, err
		}
		email = strings.TrimSpace(line)
	}

	password := os.Getenv(PasswordEnv)
	if password == "" && env.Prompt != nil {
		line, err := env.Prompt.ReadLine("Password: ")
		if err != nil && !errors.Is(err, io.EOF) {
			return auth.Credentials{}, err
		}
		password = line
	}

	return auth.Credentials{Email: email, Password: password}, nil
}

// reportSignIn prints a sign-in or sign-up failure.
func reportSignIn(env *Env, err error) int {
	switch {
	case errors.Is(err, auth.ErrNoOAuthClient):
		printOAuthClientHelp(env)
		return exitcode.AuthError
	case service.IsAuth(err):
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.AuthError
	default:
		return report(env, err)
	}
}

func printOAuthClientHelp(env *Env) {
	dir := env.Config.Dir
	fmt.Fprintf(env.ErrOut, "error: oauth_client.json not found in %s\n\n", dir)
	fmt.Fprintln(env.ErrOut, "To use the Google Tasks backend, you need OAuth credentials:")
	fmt.Fprintln(env.ErrOut, "")
	fmt.Fprintln(env.ErrOut, "1. Go to https://console.cloud.google.com/apis/credentials")
	fmt.Fprintln(env.ErrOut, "2. Create a project (or select an existing one)")
	fmt.Fprintln(env.ErrOut, "3. Enable the Google Tasks API:")
	fmt.Fprintln(env.ErrOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
	fmt.Fprintln(env.ErrOut, "4. Create an OAuth client ID of type 'Desktop app' and download the JSON file")
	fmt.Fprintln(env.ErrOut, "5. Save it as:")
	fmt.Fprintf(env.ErrOut, "   %s/%s\n", dir, config.OAuthClientFile)
	fmt.Fprintln(env.ErrOut, "")
	fmt.Fprintln(env.ErrOut, "Then run 'todo login' again.")
}

func as(s auth.Session) string {
	if s.Email == "" {
		return ""
	}
	return " as " + s.Email
}
