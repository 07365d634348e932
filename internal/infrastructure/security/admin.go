package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashAdminToken hashes an admin token for storage in the tenant registry.
func HashAdminToken(token string) (string, error) {
	if token == "" {
		return "", errors.New("empty admin token")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin token: %w", err)
	}
	return string(hash), nil
}

// VerifyAdminToken checks a presented token against the stored hash.
func VerifyAdminToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
