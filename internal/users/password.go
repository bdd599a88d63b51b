package users

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxInput is the longest input bcrypt accepts.
const bcryptMaxInput = 72

// PasswordHasher turns a plain-text password into its stored form.
type PasswordHasher func(password string) (string, error)

// BcryptHasher returns a PasswordHasher using bcrypt with the given cost.
// Passwords longer than bcrypt accepts are hashed as the base64 of their
// SHA-256 digest, so every byte still counts.
func BcryptHasher(cost int) PasswordHasher {
	return func(password string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), cost)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		return string(hash), nil
	}
}

// bcryptInput returns the bytes handed to bcrypt for password.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
