package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost used when the platform first moved off SHA-256.
const bcryptCost = 12

// VerifyPassword checks a plaintext password against a stored hash. Both
// hash formats are supported during the migration window: bcrypt (current)
// and unsalted hex SHA-256 (legacy). Malformed hashes fail closed.
func VerifyPassword(password, storedHash string) bool {
	if IsBcryptHash(storedHash) {
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
	}
	// Legacy SHA-256 check - the caller migrates the hash on next login
	sum := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(digest), []byte(strings.ToLower(storedHash))) == 1
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// IsBcryptHash reports whether the stored value is already in bcrypt format.
func IsBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$")
}

// NeedsRehash reports whether a stored hash is still in the legacy format
// and must be rewritten after the next successful verification.
func NeedsRehash(hash string) bool {
	return !IsBcryptHash(hash)
}

// LegacyDigest returns the hex SHA-256 of a password. Only the seeder uses
// this, to create demo accounts that exercise the migration path.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
