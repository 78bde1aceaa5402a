// Package password hashes and verifies user passwords with salted
// PBKDF2-HMAC-SHA512 (1000 iterations, 64-byte key, hex encoded).
package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 1000
	keyLength  = 64
	saltLength = 16

	// MinLength is the shortest accepted password.
	MinLength = 6

	// temporaryLength is the number of hex characters in a reset password.
	temporaryLength = 8
)

// NewSalt returns a fresh random salt, hex encoded.
func NewSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash derives the hex-encoded key for password with the given salt.
func Hash(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha512.New)
	return hex.EncodeToString(key)
}

// HashWithNewSalt generates a salt and hashes password with it.
func HashWithNewSalt(password string) (hash, salt string, err error) {
	salt, err = NewSalt()
	if err != nil {
		return "", "", err
	}
	return Hash(password, salt), salt, nil
}

// Verify reports whether password matches the stored hash and salt, in
// constant time.
func Verify(password, salt, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	computed := Hash(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// Temporary returns a random password of 8 hex characters, used by the
// password reset flow.
func Temporary() (string, error) {
	buf := make([]byte, temporaryLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate temporary password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
