package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor for account password hashes. Raising it
// invalidates nothing: existing hashes carry their own cost and still verify.
const bcryptCost = bcrypt.DefaultCost

// HashPassword derives the stored hash for an account password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword checks a login attempt against the stored hash. It returns
// a non-nil error on mismatch.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
