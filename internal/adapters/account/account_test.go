package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rampart-sh/rampart/internal/core"
)

const (
	unlockedStatus = "svc1 PS 2025-01-01 0 99999 7 -1"
	lockedStatus   = "svc1 LK 2025-01-01 0 99999 7 -1"
	nologinEntry   = "svc1:x:990:990::/home/svc1:/sbin/nologin"
	bashEntry      = "svc1:x:990:990::/home/svc1:/bin/bash"
)

func testContext(runner *core.MockRunner) *core.SystemContext {
	return &core.SystemContext{
		Context: context.Background(),
		Runner:  runner,
	}
}

func svcOp() *AccountOperation {
	return NewAccountOperation("lock svc1", map[string]interface{}{
		"user":   "svc1",
		"locked": true,
		"shell":  "/sbin/nologin",
	})
}

func TestAccountLocksUnlockedUser(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddResponse("passwd -S svc1", unlockedStatus+"\n")
	runner.AddResponse("passwd -S svc1", unlockedStatus+"\n")
	runner.AddResponse("usermod -L svc1", "")
	runner.AddResponse("getent passwd svc1", nologinEntry+"\n")

	op := svcOp()
	require.NoError(t, op.Validate())
	assert.Equal(t, "svc1", op.GetName(), "user param overrides the display name")

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Contains(t, result.Message, "locked")
}

func TestAccountReapplyIsNoOp(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddResponse("passwd -S svc1", lockedStatus+"\n")
	runner.AddResponse("getent passwd svc1", nologinEntry+"\n")

	result, err := svcOp().Apply(ctx)
	require.NoError(t, err)
	assert.False(t, result.Changed, "an already locked account must not change")
	assert.Len(t, runner.Calls, 2)
}

func TestAccountShellChangeAndRevert(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddResponse("passwd -S svc1", lockedStatus+"\n")
	runner.AddResponse("getent passwd svc1", bashEntry+"\n")
	runner.AddResponse("passwd -S svc1", lockedStatus+"\n")
	runner.AddResponse("getent passwd svc1", bashEntry+"\n")
	runner.AddResponse("usermod -s /sbin/nologin svc1", "")

	op := svcOp()
	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Contains(t, result.Message, "/sbin/nologin")

	// The previous shell was recorded, so revert restores it.
	runner.AddResponse("usermod -s /bin/bash svc1", "")
	require.NoError(t, op.Revert(ctx))
	assert.Equal(t, "usermod -s /bin/bash svc1", runner.Calls[len(runner.Calls)-1])
}

func TestAccountStandaloneRevertUnlocks(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddResponse("usermod -U svc1", "")

	require.NoError(t, svcOp().Revert(ctx))
	assert.Equal(t, []string{"usermod -U svc1"}, runner.Calls)
}

func TestAccountLockRequeryFailureAborts(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	// Drift detected, but the re-query before usermod fails transiently.
	runner.AddResponse("passwd -S svc1", unlockedStatus+"\n")
	runner.AddError("passwd -S svc1", errors.New("passwd: temporary failure"))

	_, err := svcOp().Apply(ctx)
	require.Error(t, err)
	for _, call := range runner.Calls {
		assert.NotContains(t, call, "usermod", "no mutation may run on an unverified lock state")
	}
}

func TestAccountMissingUserIsFatal(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)

	runner.AddError("passwd -S ghost", errors.New("exit status 2"))

	op := NewAccountOperation("ghost", map[string]interface{}{"locked": true})
	_, err := op.Apply(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestAccountDryRun(t *testing.T) {
	runner := core.NewMockRunner()
	ctx := testContext(runner)
	ctx.DryRun = true

	runner.AddResponse("passwd -S svc1", unlockedStatus+"\n")

	result, err := svcOp().Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Len(t, runner.Calls, 1)
}

func TestAccountValidate(t *testing.T) {
	assert.Error(t, NewAccountOperation("", nil).Validate())
	assert.NoError(t, NewAccountOperation("svc1", nil).Validate())
}
