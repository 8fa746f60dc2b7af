package core

import (
	"fmt"

	"github.com/pterm/pterm"
)

// PlanItem is the raw profile entry the engine turns into an operation.
type PlanItem struct {
	Name       string
	Type       string
	When       string // guard expression, evaluated against SystemContext
	BestEffort bool
	Params     map[string]interface{}
}

// StateUpdater decouples the engine from the state package.
type StateUpdater interface {
	RecordChange(opType, name, action, backupPath string) error
}

// Engine executes a plan strictly sequentially. Each operation fully
// completes before the next begins; the first fatal failure aborts the rest
// of the plan. The engine never rolls back applied steps automatically —
// that is the job of the separate revert run.
type Engine struct {
	Context *SystemContext
	State   StateUpdater     // optional transaction journal
	Factory OperationFactory // defaults to the registry
}

func NewEngine(ctx *SystemContext, state StateUpdater) *Engine {
	return &Engine{Context: ctx, State: state}
}

// build instantiates and validates the operation for one plan item.
func (e *Engine) build(item PlanItem) (Operation, error) {
	if item.Params == nil {
		item.Params = make(map[string]interface{})
	}
	create := e.Factory
	if create == nil {
		create = func(name string, params map[string]interface{}, ctx *SystemContext) (Operation, error) {
			return NewOperation(item.Type, name, params, ctx)
		}
	}
	op, err := create(item.Name, item.Params, e.Context)
	if err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition for %s: %w", item.Name, err)
	}
	if item.BestEffort {
		op = &BestEffort{Operation: op}
	}
	return op, nil
}

func (e *Engine) skip(item PlanItem) (bool, error) {
	ok, err := EvaluateCondition(item.When, e.Context)
	if err != nil {
		return false, fmt.Errorf("guard for %s: %w", item.Name, err)
	}
	return !ok, nil
}

// Run applies the plan top to bottom, fail-fast.
func (e *Engine) Run(items []PlanItem) error {
	for i, item := range items {
		step := fmt.Sprintf("%d/%d", i+1, len(items))

		skipped, err := e.skip(item)
		if err != nil {
			return err
		}
		if skipped {
			pterm.Info.Printf("[%s] %s skipped (guard not met)\n", step, item.Name)
			continue
		}

		op, err := e.build(item)
		if err != nil {
			return err
		}

		result, err := op.Apply(e.Context)
		if err != nil {
			if IsBestEffort(op) {
				pterm.Warning.Printf("[%s] %s failed (best-effort, continuing): %v\n", step, item.Name, err)
				e.record(op, item, "skipped")
				continue
			}
			pterm.Error.Printf("[%s] %s failed: %v\n", step, item.Name, err)
			e.record(op, item, "failed")
			return fmt.Errorf("step %s (%s/%s) failed: %w", step, item.Type, item.Name, err)
		}

		if result.Changed {
			pterm.Success.Printf("[%s] %s: %s\n", step, item.Name, result.Message)
			e.record(op, item, "applied")
		} else {
			pterm.Info.Printf("[%s] %s: %s\n", step, item.Name, result.Message)
		}
	}
	return nil
}

// Revert walks the plan in reverse and runs each operation's revert body.
// Reverts are independently runnable: an operation whose apply never ran
// reverts to a no-op.
func (e *Engine) Revert(items []PlanItem) error {
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]

		skipped, err := e.skip(item)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}

		op, err := e.build(item)
		if err != nil {
			return err
		}

		rev, ok := op.(Revertable)
		if !ok {
			pterm.Info.Printf("%s has no revert body, skipping\n", item.Name)
			continue
		}

		if e.Context.DryRun {
			pterm.Info.Printf("[dry-run] would revert %s\n", item.Name)
			continue
		}

		if err := rev.Revert(e.Context); err != nil {
			if IsBestEffort(op) {
				pterm.Warning.Printf("revert of %s failed (best-effort, continuing): %v\n", item.Name, err)
				continue
			}
			pterm.Error.Printf("revert of %s failed: %v\n", item.Name, err)
			return fmt.Errorf("revert of %s (%s) failed: %w", item.Name, item.Type, err)
		}
		pterm.Success.Printf("reverted %s\n", item.Name)
		e.record(op, item, "reverted")
	}
	return nil
}

// PlannedChange is one pending action in a check-only run.
type PlannedChange struct {
	Type string
	Name string
}

// Plan runs Check on every item without mutating anything and returns the
// items that drift from their desired state.
func (e *Engine) Plan(items []PlanItem) ([]PlannedChange, error) {
	var changes []PlannedChange
	for _, item := range items {
		skipped, err := e.skip(item)
		if err != nil {
			return nil, err
		}
		if skipped {
			continue
		}

		op, err := e.build(item)
		if err != nil {
			return nil, err
		}

		drift, err := op.Check(e.Context)
		if err != nil {
			if IsBestEffort(op) {
				continue
			}
			return nil, fmt.Errorf("check of %s (%s) failed: %w", item.Name, item.Type, err)
		}
		if drift {
			changes = append(changes, PlannedChange{Type: item.Type, Name: item.Name})
		}
	}
	return changes, nil
}

func (e *Engine) record(op Operation, item PlanItem, action string) {
	if e.State == nil || e.Context.DryRun {
		return
	}
	backupPath := ""
	if br, ok := op.(BackupReporter); ok {
		backupPath = br.GetBackupPath()
	}
	if err := e.State.RecordChange(item.Type, item.Name, action, backupPath); err != nil {
		pterm.Warning.Printf("failed to journal %s: %v\n", item.Name, err)
	}
}
