package shell

import (
	"fmt"
	"strings"

	"github.com/rampart-sh/rampart/internal/core"
)

func init() {
	factory := func(name string, params map[string]interface{}, ctx *core.SystemContext) (core.Operation, error) {
		return NewCommandOperation(name, params), nil
	}
	core.RegisterOperation("command", factory)
	core.RegisterOperation("shell", factory)
}

// CommandOperation runs a raw command. It carries the steps the engine
// invokes but does not own: authselect profile selection, dnf removals,
// augenrules loads. Guards make it conditionally idempotent: `unless`
// skips the command when its check succeeds, `only_if` requires one.
type CommandOperation struct {
	core.BaseOperation
	Command       string
	Unless        string
	OnlyIf        string
	RevertCommand string
}

func NewCommandOperation(name string, params map[string]interface{}) *CommandOperation {
	command := core.StringParam(params, "command")
	if command == "" {
		command = name
	}
	return &CommandOperation{
		BaseOperation: core.BaseOperation{Name: name, Type: "command"},
		Command:       command,
		Unless:        core.StringParam(params, "unless"),
		OnlyIf:        core.StringParam(params, "only_if"),
		RevertCommand: core.StringParam(params, "revert_command"),
	}
}

func (r *CommandOperation) Validate() error {
	if r.Command == "" {
		return fmt.Errorf("command: command is required")
	}
	return nil
}

func (r *CommandOperation) Check(ctx *core.SystemContext) (bool, error) {
	if r.Unless != "" {
		if _, err := core.RunCmd(ctx, r.Unless); err == nil {
			return false, nil
		}
	}
	if r.OnlyIf != "" {
		if _, err := core.RunCmd(ctx, r.OnlyIf); err != nil {
			return false, nil
		}
	}
	// Without guards a command always counts as a pending change.
	return true, nil
}

func (r *CommandOperation) Apply(ctx *core.SystemContext) (core.Result, error) {
	shouldRun, err := r.Check(ctx)
	if err != nil {
		return core.Failure(err, "guard check failed"), err
	}
	if !shouldRun {
		return core.SuccessNoChange("skipped by unless/only_if guard"), nil
	}

	if ctx.DryRun {
		return core.SuccessChange(fmt.Sprintf("[dry-run] would run: %s", r.Command)), nil
	}

	out, err := core.RunCmd(ctx, r.Command)
	if err != nil {
		return core.Failure(err, "command failed: "+strings.TrimSpace(out)), err
	}
	return core.SuccessChange("command executed"), nil
}

// Revert runs the declared revert command, if any. Commands without one
// revert to a no-op.
func (r *CommandOperation) Revert(ctx *core.SystemContext) error {
	if r.RevertCommand == "" {
		return nil
	}
	out, err := core.RunCmd(ctx, r.RevertCommand)
	if err != nil {
		return fmt.Errorf("revert command failed: %s: %w", strings.TrimSpace(out), err)
	}
	return nil
}
