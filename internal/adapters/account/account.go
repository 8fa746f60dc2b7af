package account

import (
	"fmt"
	"strings"

	"github.com/rampart-sh/rampart/internal/core"
)

func init() {
	core.RegisterOperation("account", func(name string, params map[string]interface{}, ctx *core.SystemContext) (core.Operation, error) {
		return NewAccountOperation(name, params), nil
	})
}

// AccountOperation converges a local account's password lock state and
// optionally its login shell (nologin for service accounts). Lock status is
// queried first; usermod runs only on drift.
type AccountOperation struct {
	core.BaseOperation
	Locked bool
	Shell  string // optional, e.g. /sbin/nologin

	actions []string
}

func NewAccountOperation(name string, params map[string]interface{}) *AccountOperation {
	if user := core.StringParam(params, "user"); user != "" {
		name = user
	}
	return &AccountOperation{
		BaseOperation: core.BaseOperation{Name: name, Type: "account"},
		Locked:        core.BoolParam(params, "locked", true),
		Shell:         core.StringParam(params, "shell"),
	}
}

func (r *AccountOperation) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("account: user name is required")
	}
	return nil
}

// isLocked parses `passwd -S` output: "svc1 LK 2025-01-01 0 99999 7 -1".
// shadow-utils prints LK or L for locked passwords.
func (r *AccountOperation) isLocked(ctx *core.SystemContext) (bool, error) {
	out, err := core.RunCmd(ctx, "passwd -S "+r.Name)
	if err != nil {
		return false, fmt.Errorf("account %s not found: %s: %w", r.Name, strings.TrimSpace(out), err)
	}
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return false, fmt.Errorf("unexpected passwd -S output for %s: %q", r.Name, strings.TrimSpace(out))
	}
	return strings.HasPrefix(fields[1], "L"), nil
}

func (r *AccountOperation) currentShell(ctx *core.SystemContext) (string, error) {
	out, err := core.RunCmd(ctx, "getent passwd "+r.Name)
	if err != nil {
		return "", fmt.Errorf("account %s not found: %w", r.Name, err)
	}
	parts := strings.Split(strings.TrimSpace(out), ":")
	if len(parts) < 7 {
		return "", fmt.Errorf("unexpected getent output for %s: %q", r.Name, strings.TrimSpace(out))
	}
	return parts[6], nil
}

func (r *AccountOperation) Check(ctx *core.SystemContext) (bool, error) {
	locked, err := r.isLocked(ctx)
	if err != nil {
		return false, err
	}
	if locked != r.Locked {
		return true, nil
	}
	if r.Shell != "" {
		shell, err := r.currentShell(ctx)
		if err != nil {
			return false, err
		}
		if shell != r.Shell {
			return true, nil
		}
	}
	return false, nil
}

func (r *AccountOperation) Apply(ctx *core.SystemContext) (core.Result, error) {
	drift, err := r.Check(ctx)
	if err != nil {
		return core.Failure(err, "check failed"), err
	}
	if !drift {
		return core.SuccessNoChange(fmt.Sprintf("account %s already converged", r.Name)), nil
	}

	if ctx.DryRun {
		return core.SuccessChange(fmt.Sprintf("[dry-run] would converge account %s (locked=%v)", r.Name, r.Locked)), nil
	}

	var messages []string

	locked, err := r.isLocked(ctx)
	if err != nil {
		return core.Failure(err, "lock status query failed"), err
	}
	if locked != r.Locked {
		flag := "-U"
		action := "unlocked"
		if r.Locked {
			flag = "-L"
			action = "locked"
		}
		if out, err := core.RunCmd(ctx, fmt.Sprintf("usermod %s %s", flag, r.Name)); err != nil {
			return core.Failure(err, "usermod failed: "+strings.TrimSpace(out)), err
		}
		r.actions = append(r.actions, action)
		messages = append(messages, "password "+action)
	}

	if r.Shell != "" {
		shell, err := r.currentShell(ctx)
		if err != nil {
			return core.Failure(err, "shell lookup failed"), err
		}
		if shell != r.Shell {
			if out, err := core.RunCmd(ctx, fmt.Sprintf("usermod -s %s %s", r.Shell, r.Name)); err != nil {
				return core.Failure(err, "usermod -s failed: "+strings.TrimSpace(out)), err
			}
			r.actions = append(r.actions, "shell:"+shell)
			messages = append(messages, "shell set to "+r.Shell)
		}
	}

	if len(messages) == 0 {
		return core.SuccessNoChange(fmt.Sprintf("account %s already converged", r.Name)), nil
	}
	return core.SuccessChange(fmt.Sprintf("account %s: %s", r.Name, strings.Join(messages, ", "))), nil
}

// Revert undoes recorded actions, or inverts the declared lock state on a
// standalone revert run. Shell changes revert only when the previous shell
// was recorded in this process; there is no persisted prior shell.
func (r *AccountOperation) Revert(ctx *core.SystemContext) error {
	actions := r.actions
	if len(actions) == 0 {
		if r.Locked {
			actions = []string{"locked"}
		} else {
			actions = []string{"unlocked"}
		}
	}

	for i := len(actions) - 1; i >= 0; i-- {
		action := actions[i]
		switch {
		case action == "locked":
			if _, err := core.RunCmd(ctx, "usermod -U "+r.Name); err != nil {
				return fmt.Errorf("failed to unlock %s: %w", r.Name, err)
			}
		case action == "unlocked":
			if _, err := core.RunCmd(ctx, "usermod -L "+r.Name); err != nil {
				return fmt.Errorf("failed to lock %s: %w", r.Name, err)
			}
		case strings.HasPrefix(action, "shell:"):
			prev := strings.TrimPrefix(action, "shell:")
			if _, err := core.RunCmd(ctx, fmt.Sprintf("usermod -s %s %s", prev, r.Name)); err != nil {
				return fmt.Errorf("failed to restore shell for %s: %w", r.Name, err)
			}
		}
	}
	return nil
}
