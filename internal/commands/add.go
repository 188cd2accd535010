package commands

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct{}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string     { return "todo add <title...>" }
func (c *AddCmd) NeedsAuth() bool   { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string) int {
	title := strings.Join(args, " ")

	// Store.Create rejects blank titles before any network call.
	task, err := env.Tasks.Create(ctx, title)
	if err != nil {
		return report(env, err)
	}

	ok(env, "added", task)
	env.Logger.Debug().Str("task_id", task.ID).Msg("task created")
	return exitcode.Success
}

// resolveTask loads the cache if needed and resolves the task reference in
// args[0]. The remaining args are returned.
func resolveTask(ctx context.Context, env *Env, args []string) (service.Task, []string, int, bool) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(env.ErrOut, "error: %v\n", err)
		return service.Task{}, nil, exitcode.UserError, false
	}

	if !env.Tasks.Loaded() {
		if err := env.Tasks.Refresh(ctx); err != nil {
			return service.Task{}, nil, report(env, err), false
		}
	}

	task, err := ref.Resolve(env.Tasks.Tasks())
	if err != nil {
		return service.Task{}, nil, report(env, err), false
	}
	return task, args[1:], exitcode.Success, true
}

// ok prints the success line for a mutation.
func ok(env *Env, verb string, task service.Task) {
	if env.Quiet() {
		return
	}
	if env.Interactive {
		fmt.Fprintf(env.Out, "%s: %s\n", verb, task.Title)
		return
	}
	fmt.Fprintln(env.Out, "ok")
}
