// Package commands provides the command interface and implementations.
package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"todo/internal/auth"
	"todo/internal/config"
	"todo/internal/store"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a signed-in session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command with positional args and returns the exit code.
	Run(ctx context.Context, env *Env, args []string) int
}

// Env is everything a command may use while running.
type Env struct {
	// Config is always provided (config dir, paths, environment).
	Config *config.Config

	// Tasks is the task store. Nil unless NeedsAuth() returns true.
	Tasks *store.Store

	// Auth is the authentication gate.
	Auth auth.Authenticator

	Logger zerolog.Logger
	Prompt *Prompter
	Out    io.Writer
	ErrOut io.Writer

	// Interactive is set while running inside the shell.
	Interactive bool

	// Exec runs a full command line (name, flags and args) in this Env.
	Exec func(ctx context.Context, args []string) int

	// OnUnauthorized, when set, is called after a backend call is
	// rejected for authentication.
	OnUnauthorized func(error)
}

// Quiet reports whether informational output is suppressed.
func (e *Env) Quiet() bool {
	return e.Config != nil && e.Config.Quiet
}

// Unauthorized is the store's unauthorized handler.
func (e *Env) Unauthorized(err error) {
	e.Logger.Warn().Err(err).Msg("backend rejected the session")
	if e.OnUnauthorized != nil {
		e.OnUnauthorized(err)
	}
}

// Prompter reads answers from the user, one line at a time.
type Prompter struct {
	r   *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter reading from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{r: bufio.NewReader(in), out: out}
}

// ReadLine prints prompt and returns the next input line without its
// line ending. io.EOF is returned only when no input remains.
func (p *Prompter) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (p *Prompter) Confirm(question string) bool {
	answer, err := p.ReadLine(question + " (y/N) ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
