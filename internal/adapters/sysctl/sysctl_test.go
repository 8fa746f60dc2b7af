package sysctl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampart-sh/rampart/internal/core"
)

func sysctlOp(key, value string, extra map[string]interface{}) *SysctlOperation {
	params := map[string]interface{}{"key": key, "value": value}
	for k, v := range extra {
		params[k] = v
	}
	return NewSysctlOperation(key, params)
}

func TestSysctlWritesDropInUnderAltRoot(t *testing.T) {
	root := t.TempDir()
	runner := core.NewMockRunner()
	ctx := &core.SystemContext{
		Context: context.Background(),
		FS:      &core.RealFS{Root: root},
		Runner:  runner,
		RootDir: root,
	}

	op := sysctlOp("net.ipv4.ip_forward", "0", nil)
	require.NoError(t, op.Validate())

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)

	got, err := ctx.FS.ReadFile(DefaultDropIn)
	require.NoError(t, err)
	assert.Equal(t, "net.ipv4.ip_forward = 0\n", string(got))

	// No runtime commands against an alternate root.
	assert.Empty(t, runner.Calls)

	second, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.False(t, second.Changed)
}

func TestSysctlRuntimeApply(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := &core.SystemContext{
		Context: context.Background(),
		FS:      &core.RealFS{Root: t.TempDir()},
		Runner:  runner,
	}

	runner.AddResponse(`sysctl -w net.ipv4.conf.all.rp_filter="1"`, "")

	op := sysctlOp("net.ipv4.conf.all.rp_filter", "1", nil)
	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Contains(t, runner.Calls, `sysctl -w net.ipv4.conf.all.rp_filter="1"`)
}

func TestSysctlRuntimeDriftOnly(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := &core.SystemContext{
		Context: context.Background(),
		FS:      &core.RealFS{Root: t.TempDir()},
		Runner:  runner,
	}
	require.NoError(t, ctx.FS.MkdirAll("/etc/sysctl.d", 0755))
	require.NoError(t, ctx.FS.WriteFile(DefaultDropIn, []byte("net.ipv4.ip_forward = 0\n"), 0644))

	// The drop-in is converged but the running kernel still has the old value.
	runner.AddResponse("sysctl -n net.ipv4.ip_forward", "1\n")

	drift, err := sysctlOp("net.ipv4.ip_forward", "0", nil).Check(ctx)
	require.NoError(t, err)
	assert.True(t, drift)
}

func TestSysctlRevertRestoresDropIn(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := &core.SystemContext{
		Context: context.Background(),
		FS:      &core.RealFS{Root: t.TempDir()},
		Runner:  runner,
	}
	require.NoError(t, ctx.FS.MkdirAll("/etc/sysctl.d", 0755))
	require.NoError(t, ctx.FS.WriteFile(DefaultDropIn, []byte("net.ipv4.ip_forward = 1\n"), 0644))

	runner.AddResponse(`sysctl -w net.ipv4.ip_forward="0"`, "")
	runner.AddResponse("sysctl --system", "")

	op := sysctlOp("net.ipv4.ip_forward", "0", nil)
	_, err := op.Apply(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, op.GetBackupPath())

	require.NoError(t, op.Revert(ctx))
	got, _ := ctx.FS.ReadFile(DefaultDropIn)
	assert.Equal(t, "net.ipv4.ip_forward = 1\n", string(got))
}

func TestSysctlValidate(t *testing.T) {
	assert.Error(t, NewSysctlOperation("", map[string]interface{}{"value": "1"}).Validate())
	assert.Error(t, sysctlOp("net.ipv4.ip_forward", "", nil).Validate())
	assert.NoError(t, sysctlOp("net.ipv4.ip_forward", "0", nil).Validate())
}
