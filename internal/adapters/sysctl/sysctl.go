package sysctl

import (
	"fmt"
	"strings"

	"github.com/rampart-sh/rampart/internal/adapters/file"
	"github.com/rampart-sh/rampart/internal/core"
)

// DefaultDropIn is where rampart persists kernel parameters.
const DefaultDropIn = "/etc/sysctl.d/99-rampart.conf"

func init() {
	core.RegisterOperation("sysctl", func(name string, params map[string]interface{}, ctx *core.SystemContext) (core.Operation, error) {
		return NewSysctlOperation(name, params), nil
	})
}

// SysctlOperation persists one kernel parameter to a sysctl.d drop-in and
// sets it on the running kernel. The file edit reuses the kv setter, so the
// drop-in gets the same backup-before-write treatment as any other file.
type SysctlOperation struct {
	core.BaseOperation
	Key   string
	Value string
	File  string
	// Runtime also applies the value via sysctl -w. Off for parameters that
	// only take effect at boot, and under an alternate root.
	Runtime bool

	kv *file.KVOperation
}

func NewSysctlOperation(name string, params map[string]interface{}) *SysctlOperation {
	key := core.StringParam(params, "key")
	if key == "" {
		key = name
	}
	path := core.StringParam(params, "file")
	if path == "" {
		path = DefaultDropIn
	}
	value := core.StringParam(params, "value")

	kv := file.NewKVOperation(name, map[string]interface{}{
		"path":   path,
		"key":    key,
		"value":  value,
		"style":  file.StyleEquals,
		"create": true,
	})

	return &SysctlOperation{
		BaseOperation: core.BaseOperation{Name: name, Type: "sysctl"},
		Key:           key,
		Value:         value,
		File:          path,
		Runtime:       core.BoolParam(params, "runtime", true),
		kv:            kv,
	}
}

func (r *SysctlOperation) Validate() error {
	if r.Key == "" {
		return fmt.Errorf("sysctl: key is required")
	}
	if r.Value == "" {
		return fmt.Errorf("sysctl: value is required")
	}
	return r.kv.Validate()
}

func (r *SysctlOperation) GetBackupPath() string {
	return r.kv.GetBackupPath()
}

func (r *SysctlOperation) applyRuntime(ctx *core.SystemContext) bool {
	// Runtime values are meaningless against an alternate root (image
	// builds, tests); only the drop-in matters there.
	return r.Runtime && ctx.RootDir == ""
}

func (r *SysctlOperation) Check(ctx *core.SystemContext) (bool, error) {
	fileDrift, err := r.kv.Check(ctx)
	if err != nil {
		return false, err
	}
	if fileDrift {
		return true, nil
	}
	if r.applyRuntime(ctx) {
		out, err := core.RunCmd(ctx, "sysctl -n "+r.Key)
		if err != nil {
			return false, fmt.Errorf("sysctl -n %s: %w", r.Key, err)
		}
		return strings.TrimSpace(out) != r.Value, nil
	}
	return false, nil
}

func (r *SysctlOperation) Apply(ctx *core.SystemContext) (core.Result, error) {
	drift, err := r.Check(ctx)
	if err != nil {
		return core.Failure(err, "check failed"), err
	}
	if !drift {
		return core.SuccessNoChange(fmt.Sprintf("%s already %s", r.Key, r.Value)), nil
	}

	if ctx.DryRun {
		return core.SuccessChange(fmt.Sprintf("[dry-run] would set %s = %s", r.Key, r.Value)), nil
	}

	if _, err := r.kv.Apply(ctx); err != nil {
		return core.Failure(err, "drop-in update failed"), err
	}

	if r.applyRuntime(ctx) {
		if out, err := core.RunCmd(ctx, fmt.Sprintf("sysctl -w %s=%q", r.Key, r.Value)); err != nil {
			return core.Failure(err, "sysctl -w failed: "+strings.TrimSpace(out)), err
		}
	}
	return core.SuccessChange(fmt.Sprintf("set %s = %s", r.Key, r.Value)), nil
}

// Revert restores the drop-in from its latest backup and reloads it. The
// running kernel keeps the old value until the reload; parameters that only
// apply at boot stay until reboot.
func (r *SysctlOperation) Revert(ctx *core.SystemContext) error {
	if err := r.kv.Revert(ctx); err != nil {
		return err
	}
	if r.applyRuntime(ctx) {
		if out, err := core.RunCmd(ctx, "sysctl --system"); err != nil {
			return fmt.Errorf("sysctl --system: %s: %w", strings.TrimSpace(out), err)
		}
	}
	return nil
}
