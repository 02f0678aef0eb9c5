package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordMode says how stored passwords are compared.
type PasswordMode string

const (
	// PasswordPlaintext compares the stored value byte for byte. This keeps
	// compatibility with existing user tables that hold plain passwords.
	PasswordPlaintext PasswordMode = "plaintext"
	// PasswordBcrypt treats the stored value as a bcrypt hash.
	PasswordBcrypt PasswordMode = "bcrypt"
)

// ParsePasswordMode validates a configured mode. Empty means plaintext.
func ParsePasswordMode(s string) (PasswordMode, error) {
	switch PasswordMode(s) {
	case "", PasswordPlaintext:
		return PasswordPlaintext, nil
	case PasswordBcrypt:
		return PasswordBcrypt, nil
	default:
		return "", fmt.Errorf("unknown password mode %q", s)
	}
}

// Match reports whether supplied matches the stored credential.
func (m PasswordMode) Match(stored, supplied string) bool {
	switch m {
	case PasswordBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	default:
		return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
	}
}

// Hash returns the value to store for plain under this mode.
func (m PasswordMode) Hash(plain string) (string, error) {
	if m != PasswordBcrypt {
		return plain, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
