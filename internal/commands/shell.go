package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/store"
)

// MaxHistory is the number of shell lines kept in the history file.
const MaxHistory = 100

func init() {
	Register(&ShellCmd{})
}

// ShellCmd implements the interactive shell.
type ShellCmd struct{}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"repl"} }
func (c *ShellCmd) Synopsis() string  { return "Run commands interactively" }
func (c *ShellCmd) Usage() string     { return "todo shell" }
func (c *ShellCmd) NeedsAuth() bool   { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShellCmd) Run(ctx context.Context, env *Env, args []string) int {
	if env.Prompt == nil || env.Exec == nil {
		fmt.Fprintln(env.ErrOut, "error: shell needs an interactive input")
		return exitcode.UserError
	}

	sh := &shell{env: env, history: loadHistory(env.Config.HistoryPath()), filter: service.FilterAll}
	env.Interactive = true
	env.OnUnauthorized = func(error) { sh.setReauth() }
	defer func() {
		env.Interactive = false
		env.OnUnauthorized = nil
		sh.unwatch()
		if err := saveHistory(env.Config.HistoryPath(), sh.history); err != nil {
			env.Logger.Warn().Err(err).Msg("failed to save shell history")
		}
	}()

	if !env.Quiet() {
		fmt.Fprintln(env.Out, "todo shell. Type 'help' for commands, 'exit' to quit.")
	}

	// Load once so the prompt shows counts from the start.
	if err := env.Tasks.Refresh(ctx); err != nil {
		report(env, err)
	}

	for ctx.Err() == nil {
		sh.watch()

		line, err := env.Prompt.ReadLine(sh.prompt())
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(env.ErrOut, "error: %v\n", err)
			}
			fmt.Fprintln(env.Out)
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		sh.remember(line)

		sh.execute(ctx, line)
		sh.offerReauth(ctx)
	}
	return exitcode.Success
}

type shell struct {
	env     *Env
	history []string

	// Session view applied to list and shown in the prompt.
	filter service.StatusFilter
	search string

	mu      sync.Mutex
	counts  service.Counts
	reauth  bool
	watched *store.Store
	unsub   func()
}

func (s *shell) execute(ctx context.Context, line string) {
	args, err := splitArgs(line)
	if err != nil {
		fmt.Fprintf(s.env.ErrOut, "error: %v\n", err)
		return
	}

	name := args[0]
	switch name {
	case "history":
		for i, h := range s.history {
			fmt.Fprintf(s.env.Out, "%4d  %s\n", i+1, h)
		}
		return
	case "shell", "repl":
		fmt.Fprintln(s.env.ErrOut, "error: already in the shell")
		return
	case "filter":
		s.setFilter(args[1:])
		return
	case "search":
		s.search = strings.TrimSpace(strings.Join(args[1:], " "))
		return
	}

	cmd, found := DefaultRegistry.Find(name)
	if !found {
		fmt.Fprintf(s.env.ErrOut, "error: unknown command: %s\n", name)
		if suggestions := DefaultRegistry.Suggest(name); len(suggestions) > 0 {
			for _, sug := range suggestions {
				fmt.Fprintf(s.env.ErrOut, "Did you mean '%s'?\n", sug)
			}
		} else {
			fmt.Fprintln(s.env.ErrOut, "Type 'help' for a list of commands")
		}
		return
	}

	switch cmd.Name() {
	case "list":
		// Explicit flags come later and win.
		args = append([]string{args[0], "--filter", string(s.filter), "--search", s.search}, args[1:]...)
	case "help":
		if len(args) == 1 {
			s.env.Exec(ctx, args)
			fmt.Fprint(s.env.Out, shellHelp)
			return
		}
	}
	s.env.Exec(ctx, args)

	// A new identity needs a new store.
	switch cmd.Name() {
	case "login", "signup", "logout":
		s.env.Tasks = nil
	}
}

const shellHelp = `
Shell:
  filter [all|active|completed]   Set or show the filter list uses
  search [text]                   Set the search list uses; no text clears it
  history                         Show previous lines
  exit | quit                     Leave the shell
`

func (s *shell) setFilter(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.env.Out, s.filter)
		return
	}
	f, err := service.ParseStatusFilter(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(s.env.ErrOut, "error: %v\n", err)
		return
	}
	s.filter = f
}

// watch subscribes to the current store so the prompt tracks counts.
func (s *shell) watch() {
	if s.env.Tasks == nil {
		s.unwatch()
		return
	}
	if s.env.Tasks == s.watched {
		return
	}
	s.unwatch()
	s.watched = s.env.Tasks
	s.setCounts(s.watched.Tasks())
	s.unsub = s.watched.Subscribe(s.setCounts)
}

func (s *shell) unwatch() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.watched = nil
}

func (s *shell) setCounts(tasks []service.Task) {
	s.mu.Lock()
	s.counts = service.CountTasks(tasks)
	s.mu.Unlock()
}

func (s *shell) prompt() string {
	var view []string
	if s.filter != service.FilterAll {
		view = append(view, string(s.filter))
	}
	if s.search != "" {
		view = append(view, strconv.Quote(s.search))
	}
	p := "todo"
	if len(view) > 0 {
		p += " [" + strings.Join(view, " ") + "]"
	}

	if s.watched == nil {
		return p + "> "
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s (%d active)> ", p, s.counts.Active)
}

func (s *shell) setReauth() {
	s.mu.Lock()
	s.reauth = true
	s.mu.Unlock()
}

// offerReauth asks to sign in again after the backend rejected the session.
func (s *shell) offerReauth(ctx context.Context) {
	s.mu.Lock()
	pending := s.reauth
	s.reauth = false
	s.mu.Unlock()
	if !pending {
		return
	}

	if s.env.Prompt.Confirm("Session is no longer valid. Sign in again?") {
		s.env.Exec(ctx, []string{"logout"})
		s.env.Exec(ctx, []string{"login"})
		s.env.Tasks = nil
	}
}

func (s *shell) remember(line string) {
	s.history = append(s.history, line)
	if len(s.history) > MaxHistory {
		s.history = s.history[len(s.history)-MaxHistory:]
	}
}

// splitArgs splits a shell line into words. Single and double quotes
// group words; there are no escapes.
func splitArgs(line string) ([]string, error) {
	var (
		args   []string
		cur    strings.Builder
		quote  rune
		inWord bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		args = append(args, cur.String())
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}

func loadHistory(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > MaxHistory {
		lines = lines[len(lines)-MaxHistory:]
	}
	return lines
}

func saveHistory(path string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600)
}
