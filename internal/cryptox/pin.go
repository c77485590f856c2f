// Package cryptox hashes and verifies logbook PINs.
//
// New hashes are argon2id, encoded as "argon2id$<salt hex>$<key hex>".
// Bare 64-character hex strings are legacy SHA-256 digests and still verify.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	scheme  = "argon2id"
	saltLen = 16
	keyLen  = 32
)

var ErrMalformedHash = errors.New("malformed pin hash")

// randRead is a test seam for crypto/rand.Read.
var randRead = rand.Read

func deriveKey(pin, salt []byte) []byte {
	return argon2.IDKey(pin, salt, 1, 64*1024, 4, keyLen)
}

// HashPIN returns an encoded argon2id hash of pin with a fresh salt.
func HashPIN(pin string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := randRead(salt); err != nil {
		return "", err
	}
	key := deriveKey([]byte(pin), salt)
	return scheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(key), nil
}

// LegacyHash is the SHA-256 hex digest older logbooks stored.
func LegacyHash(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// IsLegacy reports whether encoded is a SHA-256 digest rather than argon2id.
func IsLegacy(encoded string) bool {
	return !strings.HasPrefix(encoded, scheme+"$")
}

// VerifyPIN checks pin against an encoded hash in either format.
func VerifyPIN(pin, encoded string) (bool, error) {
	if IsLegacy(encoded) {
		want, err := hex.DecodeString(encoded)
		if err != nil || len(want) != sha256.Size {
			return false, ErrMalformedHash
		}
		got := sha256.Sum256([]byte(pin))
		return subtle.ConstantTimeCompare(got[:], want) == 1, nil
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 3 {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) != keyLen {
		return false, ErrMalformedHash
	}
	return subtle.ConstantTimeCompare(deriveKey([]byte(pin), salt), want) == 1, nil
}

// Wipe zeroes b.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
