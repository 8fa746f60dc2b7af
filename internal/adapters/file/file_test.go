package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriteAndTemplate(t *testing.T) {
	ctx := testContext(t)
	ctx.Hostname = "web01"

	op := NewFileOperation("banner", map[string]interface{}{
		"path":    "/etc/issue.net",
		"content": "Activity on {{ .Hostname }} is monitored.\n",
	})
	require.NoError(t, op.Validate())

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)

	got, err := ctx.FS.ReadFile("/etc/issue.net")
	require.NoError(t, err)
	assert.Equal(t, "Activity on web01 is monitored.\n", string(got))

	// Converged file means no further changes.
	second, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.False(t, second.Changed)
}

func TestFileBacksUpBeforeOverwrite(t *testing.T) {
	ctx := testContext(t)
	require.NoError(t, ctx.FS.MkdirAll("/etc", 0755))
	require.NoError(t, ctx.FS.WriteFile("/etc/issue.net", []byte("old banner\n"), 0644))

	op := NewFileOperation("banner", map[string]interface{}{
		"path":    "/etc/issue.net",
		"content": "new banner\n",
	})
	_, err := op.Apply(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, op.GetBackupPath())

	require.NoError(t, op.Revert(ctx))
	got, _ := ctx.FS.ReadFile("/etc/issue.net")
	assert.Equal(t, "old banner\n", string(got))
}

func TestFileRevertRemovesCreatedFile(t *testing.T) {
	ctx := testContext(t)

	op := NewFileOperation("rules", map[string]interface{}{
		"path":    "/etc/audit/rules.d/90-rampart.rules",
		"content": "-w /etc/passwd -p wa -k identity\n",
	})
	_, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.Empty(t, op.GetBackupPath(), "a freshly created file has no backup")

	require.NoError(t, op.Revert(ctx))
	_, err = ctx.FS.Stat("/etc/audit/rules.d/90-rampart.rules")
	assert.Error(t, err, "revert should remove the file this run created")
}

func TestFileAbsent(t *testing.T) {
	ctx := testContext(t)
	require.NoError(t, ctx.FS.WriteFile("/motd.old", []byte("stale\n"), 0644))

	op := NewFileOperation("drop stale motd", map[string]interface{}{
		"path":  "/motd.old",
		"state": "absent",
	})
	require.NoError(t, op.Validate())

	result, err := op.Apply(ctx)
	require.NoError(t, err)
	assert.True(t, result.Changed)

	_, err = ctx.FS.Stat("/motd.old")
	assert.Error(t, err)

	// The pre-removal backup makes revert possible.
	require.NotEmpty(t, op.GetBackupPath())
	require.NoError(t, op.Revert(ctx))
	got, _ := ctx.FS.ReadFile("/motd.old")
	assert.Equal(t, "stale\n", string(got))
}

func TestFileValidate(t *testing.T) {
	assert.Error(t, NewFileOperation("", map[string]interface{}{"state": "present"}).Validate())
	assert.Error(t, NewFileOperation("x", map[string]interface{}{"path": "/p", "state": "gone"}).Validate())
	assert.NoError(t, NewFileOperation("x", map[string]interface{}{"path": "/p", "state": "absent"}).Validate())
}
