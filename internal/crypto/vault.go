package crypto

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// Profile values wrapped as ENC[<base64>] are age-encrypted (scrypt
// passphrase recipient), so secrets like directory bind passwords can live
// in version-controlled profiles. The bracket form is a plain YAML scalar;
// a leading "!" would parse as a YAML tag and swallow the value.
const (
	vaultPrefix = "ENC["
	vaultSuffix = "]"
)

func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, vaultPrefix) && strings.HasSuffix(value, vaultSuffix)
}

// Encrypt seals plaintext for the given passphrase and returns the profile
// representation.
func Encrypt(plaintext, passphrase string) (string, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return vaultPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + vaultSuffix, nil
}

// Decrypt unseals a vault value. Non-vault values pass through unchanged.
func Decrypt(value, passphrase string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}

	encoded := strings.TrimSuffix(strings.TrimPrefix(value, vaultPrefix), vaultSuffix)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("malformed vault value: %w", err)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return "", err
	}
	r, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return "", fmt.Errorf("vault decryption failed: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
