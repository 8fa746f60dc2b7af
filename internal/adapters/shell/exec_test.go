package shell

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampart-sh/rampart/internal/core"
)

func testContext(runner *core.MockRunner) *core.SystemContext {
	return &core.SystemContext{
		Context: context.Background(),
		Runner:  runner,
	}
}

func TestCommandRuns(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddResponse("augenrules --load", "")

	op := NewCommandOperation("load audit rules", map[string]interface{}{
		"command": "augenrules --load",
	})
	require.NoError(t, op.Validate())

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, []string{"augenrules --load"}, runner.Calls)
}

func TestCommandUnlessSkips(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	// The guard succeeding means the system is already converged.
	runner.AddResponse("authselect current | grep -q sssd", "")

	op := NewCommandOperation("select sssd profile", map[string]interface{}{
		"command": "authselect select sssd --force",
		"unless":  "authselect current | grep -q sssd",
	})

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Len(t, runner.Calls, 1)
}

func TestCommandUnlessFailureRuns(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddError("authselect current | grep -q sssd", errors.New("exit status 1"))
	runner.AddResponse("authselect select sssd --force", "")

	op := NewCommandOperation("select sssd profile", map[string]interface{}{
		"command": "authselect select sssd --force",
		"unless":  "authselect current | grep -q sssd",
	})

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)
}

func TestCommandOnlyIfGates(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddError("test -f /etc/ssh/sshd_config", errors.New("exit status 1"))

	op := NewCommandOperation("reload sshd", map[string]interface{}{
		"command": "systemctl reload sshd",
		"only_if": "test -f /etc/ssh/sshd_config",
	})

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.False(t, result.Changed, "only_if failing must skip the command")
	assert.Len(t, runner.Calls, 1)
}

func TestCommandFailureIsFatal(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddError("dnf -y remove telnet", errors.New("exit status 1"))

	op := NewCommandOperation("remove telnet", map[string]interface{}{
		"command": "dnf -y remove telnet",
	})

	_, err := op.Apply(ctx)
	require.Error(t, err)
}

func TestCommandRevert(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddResponse("authselect select minimal --force", "")

	op := NewCommandOperation("select sssd profile", map[string]interface{}{
		"command":        "authselect select sssd --force",
		"revert_command": "authselect select minimal --force",
	})
	require.NoError(t, op.Revert(ctx))
	assert.Equal(t, []string{"authselect select minimal --force"}, runner.Calls)

	// No revert command declared means revert is a no-op.
	bare := NewCommandOperation("x", map[string]interface{}{"command": "true"})
	require.NoError(t, bare.Revert(ctx))
	assert.Len(t, runner.Calls, 1)
}

func TestCommandDryRun(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)
	ctx.DryRun = true

	op := NewCommandOperation("remove telnet", map[string]interface{}{
		"command": "dnf -y remove telnet",
	})

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Empty(t, runner.Calls)
}

func TestCommandValidate(t *testing.T) {
	assert.Error(t, NewCommandOperation("", nil).Validate())
	// The display name doubles as the command when none is given.
	assert.NoError(t, NewCommandOperation("augenrules --load", nil).Validate())
}
