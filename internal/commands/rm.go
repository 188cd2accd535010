package commands

import (
	"context"
	"flag"
	"fmt"

	"todo/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	force bool
}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "todo rm [--force] <ref>" }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
	fs.BoolVar(&c.force, "f", false, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string) int {
	task, _, code, found := resolveTask(ctx, env, args)
	if !found {
		return code
	}

	// The shell asks before deleting; scripts pass through.
	if env.Interactive && !c.force && env.Prompt != nil {
		if !env.Prompt.Confirm(fmt.Sprintf("Delete %q?", task.Title)) {
			if !env.Quiet() {
				fmt.Fprintln(env.Out, "cancelled")
			}
			return exitcode.Success
		}
	}

	if err := env.Tasks.Delete(ctx, task.ID); err != nil {
		return report(env, err)
	}
	ok(env, "deleted", task)
	return exitcode.Success
}
