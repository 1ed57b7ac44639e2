package auth

import (
	"errors"
	"fmt"

	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor of stored passphrase hashes.
const BcryptCost = 12

// HashPassphrase returns the bcrypt hash to put in operator.passphrase_hash.
func HashPassphrase(passphrase string) (string, error) {
	if passphrase == "" {
		return "", apperrors.NewValidationError("passphrase", "must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing passphrase: %w", err)
	}
	return string(hash), nil
}

// CheckPassphrase compares passphrase with a stored hash. An empty hash
// disables the check.
func CheckPassphrase(hash, passphrase string) error {
	if hash == "" {
		return nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperrors.ErrInvalidPassphrase
	}
	if err != nil {
		return fmt.Errorf("checking passphrase: %w", err)
	}
	return nil
}
