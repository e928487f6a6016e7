package auth

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 12
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes  = 72
	minPasswordLength = 8
)

// ErrWeakPassword is returned for passwords that fail ValidatePassword
var ErrWeakPassword = errors.New("password must be 8 to 72 bytes and contain a letter and a digit")

// ValidatePassword checks length bounds and requires a letter and a digit
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordBytes {
		return ErrWeakPassword
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrWeakPassword
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a plain text password matches a hashed password
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
