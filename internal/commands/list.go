package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list [search...]`.
type ListCmd struct {
	filter  string
	search  string
	format  string
	summary bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "todo list [--filter all|active|completed] [--search <text>] [--format text|table|json|yaml]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "all", "")
	fs.StringVar(&c.filter, "f", "all", "")
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.search, "s", "", "")
	fs.StringVar(&c.format, "format", "text", "")
	fs.BoolVar(&c.summary, "summary", false, "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string) int {
	filter, err := service.ParseStatusFilter(c.filter)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}
	format, err := output.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Trailing words are a search, so `todo ls milk` works.
	search := strings.TrimSpace(c.search)
	if len(args) > 0 {
		search = strings.TrimSpace(search + " " + strings.Join(args, " "))
	}

	if err := env.Tasks.Refresh(ctx); err != nil {
		return report(env, err)
	}

	all := env.Tasks.Tasks()
	visible := output.Select(output.Number(all), service.FilterTasks(all, filter, search))

	if len(visible) == 0 && format == output.FormatText {
		if !env.Quiet() {
			fmt.Fprintln(env.Out, "no tasks found")
		}
		return exitcode.Success
	}

	if err := output.FormatTasks(env.Out, format, visible); err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if c.summary && format != output.FormatJSON && format != output.FormatYAML {
		output.FormatSummary(env.Out, service.CountTasks(all))
	}
	return exitcode.Success
}
