package commands

import (
	"context"
	"flag"

	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoCmd{})
	Register(&ToggleCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "todo done <ref>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string) int {
	return setCompleted(ctx, env, args, true)
}

// UndoCmd implements the undo command.
type UndoCmd struct{}

func (c *UndoCmd) Name() string      { return "undo" }
func (c *UndoCmd) Aliases() []string { return []string{"incomplete", "reopen"} }
func (c *UndoCmd) Synopsis() string  { return "Mark a task not completed" }
func (c *UndoCmd) Usage() string     { return "todo undo <ref>" }
func (c *UndoCmd) NeedsAuth() bool   { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, env *Env, args []string) int {
	return setCompleted(ctx, env, args, false)
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return nil }
func (c *ToggleCmd) Synopsis() string  { return "Flip a task between completed and not completed" }
func (c *ToggleCmd) Usage() string     { return "todo toggle <ref>" }
func (c *ToggleCmd) NeedsAuth() bool   { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, env *Env, args []string) int {
	task, _, code, found := resolveTask(ctx, env, args)
	if !found {
		return code
	}

	updated, err := env.Tasks.Toggle(ctx, task.ID)
	if err != nil {
		return report(env, err)
	}
	ok(env, completionVerb(updated.Completed), updated)
	return exitcode.Success
}

// setCompleted is the shared implementation for done and undo.
func setCompleted(ctx context.Context, env *Env, args []string, completed bool) int {
	task, _, code, found := resolveTask(ctx, env, args)
	if !found {
		return code
	}

	// Already in the requested state: nothing to send.
	if task.Completed == completed {
		ok(env, completionVerb(completed), task)
		return exitcode.Success
	}

	updated, err := env.Tasks.Update(ctx, task.ID, service.Patch{Completed: service.BoolPtr(completed)})
	if err != nil {
		return report(env, err)
	}
	ok(env, completionVerb(completed), updated)
	return exitcode.Success
}

func completionVerb(completed bool) string {
	if completed {
		return "completed"
	}
	return "reopened"
}
