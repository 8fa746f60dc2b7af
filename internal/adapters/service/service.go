package service

import (
	"fmt"
	"strings"

	"github.com/rampart-sh/rampart/internal/core"
)

func init() {
	core.RegisterOperation("service", func(name string, params map[string]interface{}, ctx *core.SystemContext) (core.Operation, error) {
		return NewServiceOperation(name, params), nil
	})
}

// ServiceOperation converges a systemd unit's enablement and activity.
// Current state is queried first and commands run only on drift, so
// repeated apply runs are true no-ops.
type ServiceOperation struct {
	core.BaseOperation
	Enabled bool
	State   string // active, stopped
	Masked  bool

	// Actions performed during apply, consumed by Revert in reverse order.
	actions []string
}

func NewServiceOperation(name string, params map[string]interface{}) *ServiceOperation {
	state := core.StringParam(params, "state")
	if state == "" {
		state = "active"
	}
	// The unit name may differ from the operation's display name.
	if unit := core.StringParam(params, "name"); unit != "" {
		name = unit
	}
	return &ServiceOperation{
		BaseOperation: core.BaseOperation{Name: name, Type: "service"},
		Enabled:       core.BoolParam(params, "enabled", true),
		State:         state,
		Masked:        core.BoolParam(params, "masked", false),
	}
}

func (r *ServiceOperation) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("service: unit name is required")
	}
	if r.State != "active" && r.State != "stopped" {
		return fmt.Errorf("service: unknown state %q", r.State)
	}
	if r.Masked && r.Enabled {
		return fmt.Errorf("service: a masked unit cannot also be enabled")
	}
	return nil
}

func (r *ServiceOperation) isEnabled(ctx *core.SystemContext) (string, error) {
	// Exit status is non-zero for disabled/masked units, but the state word
	// on stdout is still authoritative.
	out, _ := core.RunCmd(ctx, "systemctl is-enabled "+r.Name)
	return strings.TrimSpace(out), nil
}

func (r *ServiceOperation) isActive(ctx *core.SystemContext) bool {
	out, err := core.RunCmd(ctx, "systemctl is-active "+r.Name)
	return err == nil && strings.TrimSpace(out) == "active"
}

func (r *ServiceOperation) Check(ctx *core.SystemContext) (bool, error) {
	enabledState, err := r.isEnabled(ctx)
	if err != nil {
		return false, err
	}

	if r.Masked && enabledState != "masked" {
		return true, nil
	}
	if !r.Masked {
		if enabledState == "masked" {
			return true, nil
		}
		if r.Enabled != (enabledState == "enabled") {
			return true, nil
		}
	}

	active := r.isActive(ctx)
	if r.State == "active" {
		return !active, nil
	}
	return active, nil
}

func (r *ServiceOperation) run(ctx *core.SystemContext, verb string) error {
	if out, err := core.RunCmd(ctx, fmt.Sprintf("systemctl %s %s", verb, r.Name)); err != nil {
		return fmt.Errorf("systemctl %s %s: %s: %w", verb, r.Name, strings.TrimSpace(out), err)
	}
	r.actions = append(r.actions, verb)
	return nil
}

func (r *ServiceOperation) Apply(ctx *core.SystemContext) (core.Result, error) {
	drift, err := r.Check(ctx)
	if err != nil {
		return core.Failure(err, "check failed"), err
	}
	if !drift {
		return core.SuccessNoChange(fmt.Sprintf("unit %s already converged", r.Name)), nil
	}

	if ctx.DryRun {
		return core.SuccessChange(fmt.Sprintf("[dry-run] would converge unit %s (enabled=%v state=%s masked=%v)",
			r.Name, r.Enabled, r.State, r.Masked)), nil
	}

	var messages []string
	enabledState, _ := r.isEnabled(ctx)

	if r.Masked {
		if enabledState != "masked" {
			if err := r.run(ctx, "mask"); err != nil {
				return core.Failure(err, "mask failed"), err
			}
			messages = append(messages, "masked")
		}
	} else {
		if enabledState == "masked" {
			if err := r.run(ctx, "unmask"); err != nil {
				return core.Failure(err, "unmask failed"), err
			}
			messages = append(messages, "unmasked")
			enabledState, _ = r.isEnabled(ctx)
		}
		if r.Enabled && enabledState != "enabled" {
			if err := r.run(ctx, "enable"); err != nil {
				return core.Failure(err, "enable failed"), err
			}
			messages = append(messages, "enabled")
		} else if !r.Enabled && enabledState == "enabled" {
			if err := r.run(ctx, "disable"); err != nil {
				return core.Failure(err, "disable failed"), err
			}
			messages = append(messages, "disabled")
		}
	}

	active := r.isActive(ctx)
	if r.State == "active" && !active {
		if err := r.run(ctx, "start"); err != nil {
			return core.Failure(err, "start failed"), err
		}
		messages = append(messages, "started")
	} else if r.State == "stopped" && active {
		if err := r.run(ctx, "stop"); err != nil {
			return core.Failure(err, "stop failed"), err
		}
		messages = append(messages, "stopped")
	}

	if len(messages) == 0 {
		return core.SuccessNoChange(fmt.Sprintf("unit %s already converged", r.Name)), nil
	}
	return core.SuccessChange(fmt.Sprintf("unit %s: %s", r.Name, strings.Join(messages, ", "))), nil
}

// Revert undoes the actions this run performed, newest first. Without a
// recorded action (separate revert run) it inverts the declared state.
func (r *ServiceOperation) Revert(ctx *core.SystemContext) error {
	inverse := map[string]string{
		"mask":    "unmask",
		"unmask":  "mask",
		"enable":  "disable",
		"disable": "enable",
		"start":   "stop",
		"stop":    "start",
	}

	actions := r.actions
	if len(actions) == 0 {
		// Standalone revert: undo what the profile declares.
		if r.Masked {
			actions = []string{"mask"}
		} else if !r.Enabled {
			actions = []string{"disable"}
		}
		if r.State == "stopped" {
			actions = append(actions, "stop")
		}
	}

	for i := len(actions) - 1; i >= 0; i-- {
		verb, ok := inverse[actions[i]]
		if !ok {
			continue
		}
		if out, err := core.RunCmd(ctx, fmt.Sprintf("systemctl %s %s", verb, r.Name)); err != nil {
			return fmt.Errorf("systemctl %s %s: %s: %w", verb, r.Name, strings.TrimSpace(out), err)
		}
	}
	return nil
}
