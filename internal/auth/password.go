package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

const (
	bcryptCost        = bcrypt.DefaultCost
	minPasswordLength = 8
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if len([]rune(password)) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsHash reports whether stored looks like a bcrypt hash
func IsHash(stored string) bool {
	if len(stored) != 60 {
		return false
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(stored, prefix) {
			return true
		}
	}
	return false
}

// VerifyStored checks password against a stored credential that is either a
// bcrypt hash or a legacy plaintext value. needsRehash is true when the
// password matched a plaintext value.
func VerifyStored(password, stored string) (ok, needsRehash bool) {
	if IsHash(stored) {
		return CheckPassword(password, stored), false
	}
	if stored == "" {
		return false, false
	}
	match := subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
	return match, match
}
