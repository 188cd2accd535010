package commands

import (
	"context"
	"flag"
	"strings"

	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update", "rename"} }
func (c *EditCmd) Synopsis() string  { return "Change a task title" }
func (c *EditCmd) Usage() string     { return "todo edit <ref> <title...>" }
func (c *EditCmd) NeedsAuth() bool   { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string) int {
	// Check the title first so a blank edit never touches the network.
	if len(args) > 0 {
		if err := service.ValidateTitle(strings.Join(args[1:], " ")); err != nil {
			return report(env, err)
		}
	}

	task, rest, code, found := resolveTask(ctx, env, args)
	if !found {
		return code
	}

	title := strings.Join(rest, " ")
	updated, err := env.Tasks.Update(ctx, task.ID, service.Patch{Title: &title})
	if err != nil {
		return report(env, err)
	}
	ok(env, "updated", updated)
	return exitcode.Success
}
