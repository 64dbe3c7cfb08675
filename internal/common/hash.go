package common

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Sha256Hex returns the SHA-256 digest of the input encoded as lowercase hex.
func Sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes the JSON encoding of v. Equal values always yield the same key.
func Fingerprint(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Sha256Hex(string(raw)), nil
}

// FingerprintParts hashes parts joined by a separator that cannot appear in HTTP tokens.
func FingerprintParts(parts ...string) string {
	return Sha256Hex(strings.Join(parts, "\x00"))
}
