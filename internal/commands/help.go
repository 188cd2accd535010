package commands

import (
	"context"
	"flag"
	"fmt"

	"todo/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return []string{"?"} }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todo help [command]" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(env.Out, helpText)
		return exitcode.Success
	}

	cmd, ok := DefaultRegistry.Find(args[0])
	if !ok {
		fmt.Fprintf(env.ErrOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}
	fmt.Fprintf(env.Out, "%s\n\nUsage:\n  %s\n", cmd.Synopsis(), cmd.Usage())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(env.Out, "\nAliases: %v\n", aliases)
	}
	return exitcode.Success
}

const helpText = `Usage:
  todo                                         List all tasks
  todo list [common flags] [--filter all|active|completed] [--search <text>]
            [--format text|table|json|yaml]
  todo add [common flags] <title...>
  todo create [common flags] <title...>
  todo edit [common flags] <ref> <title...>
  todo done [common flags] <ref>
  todo undo [common flags] <ref>
  todo toggle [common flags] <ref>
  todo rm [common flags] [--force] <ref>
  todo login [common flags] [--email <email>]
  todo signup [common flags] [--email <email>]
  todo logout [common flags]
  todo whoami [common flags]
  todo shell [common flags]
  todo help [command]
  todo version

A <ref> is the number printed by list, or a task id.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TODO_API_URL         Task API base URL
  TODO_AUTH_URL        Auth provider base URL
  TODO_AUTH_CLIENT_ID  OAuth client id sent to the auth provider
  TODO_BACKEND         rest or googletasks
  TODO_API_TIMEOUT     Per-request timeout (e.g. 5s)
  TODO_PASSWORD        Password for login and signup (otherwise read from stdin)
`
