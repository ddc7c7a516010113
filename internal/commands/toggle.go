package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/service"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoneCmd{})
	Register(&ToggleCmd{})
}

// DoneCmd marks a task completed.
type DoneCmd struct{}

func (c *DoneCmd) Name() string                   { return "done" }
func (c *DoneCmd) Aliases() []string              { return nil }
func (c *DoneCmd) Synopsis() string               { return "Mark a task completed" }
func (c *DoneCmd) Usage() string                  { return "taskdesk done <id>" }
func (c *DoneCmd) NeedsService() bool             { return true }
func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	completed := true
	return runToggle(ctx, cfg, svc, args, &completed, out, errOut)
}

// UndoneCmd reopens a task.
type UndoneCmd struct{}

func (c *UndoneCmd) Name() string                   { return "undone" }
func (c *UndoneCmd) Aliases() []string              { return []string{"reopen"} }
func (c *UndoneCmd) Synopsis() string               { return "Mark a task open again" }
func (c *UndoneCmd) Usage() string                  { return "taskdesk undone <id>" }
func (c *UndoneCmd) NeedsService() bool             { return true }
func (c *UndoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	completed := false
	return runToggle(ctx, cfg, svc, args, &completed, out, errOut)
}

// ToggleCmd flips the completed flag of a task.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string                   { return "toggle" }
func (c *ToggleCmd) Aliases() []string              { return nil }
func (c *ToggleCmd) Synopsis() string               { return "Flip a task between open and completed" }
func (c *ToggleCmd) Usage() string                  { return "taskdesk toggle <id>" }
func (c *ToggleCmd) NeedsService() bool             { return true }
func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runToggle(ctx, cfg, svc, args, nil, out, errOut)
}

// runToggle is the shared implementation for done, undone and toggle.
// A nil target flips the current value, which costs one read.
func runToggle(ctx context.Context, cfg *config.Config, svc service.Service, args []string, target *bool, out, errOut io.Writer) int {
	id, code, ok := parseTaskIDArg(args, errOut)
	if !ok {
		return code
	}

	var completed bool
	if target == nil {
		task, err := svc.GetTask(ctx, id)
		if err != nil {
			return reportError(errOut, id, err)
		}
		completed = !task.Completed
	} else {
		completed = *target
	}

	if _, err := svc.ToggleTask(ctx, id, completed); err != nil {
		return reportError(errOut, id, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
