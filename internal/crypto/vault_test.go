package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultRoundTrip(t *testing.T) {
	sealed, err := Encrypt("bind-password-123", "hunter2")
	require.NoError(t, err)
	assert.True(t, IsEncrypted(sealed))
	assert.True(t, strings.HasPrefix(sealed, "ENC["))
	assert.True(t, strings.HasSuffix(sealed, "]"))

	plain, err := Decrypt(sealed, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "bind-password-123", plain)
}

func TestVaultWrongPassphrase(t *testing.T) {
	sealed, err := Encrypt("secret", "correct")
	require.NoError(t, err)

	_, err = Decrypt(sealed, "wrong")
	require.Error(t, err)
}

func TestDecryptPassthrough(t *testing.T) {
	plain, err := Decrypt("not a vault value", "any")
	require.NoError(t, err)
	assert.Equal(t, "not a vault value", plain)
}

func TestDecryptMalformed(t *testing.T) {
	_, err := Decrypt("ENC[%%%not-base64%%%]", "any")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestIsEncrypted(t *testing.T) {
	assert.True(t, IsEncrypted("ENC[abcd]"))
	assert.False(t, IsEncrypted("ENC[abcd"))
	assert.False(t, IsEncrypted("enc[abcd]"))
	assert.False(t, IsEncrypted(""))
}
