// Package security provides token, key, and credential utilities for the
// sync service's tenant-scoped API.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// SessionClaims is the decoded identity a client token carries.
type SessionClaims struct {
	UserID   string
	TenantID string
	Role     string
}

// GenerateSessionToken creates a signed HS256 token binding a user to one
// tenant for the given lifetime.
func GenerateSessionToken(userID, tenantID, role, jwtSecret string, lifetime time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"userId":   userID,
		"tenantId": tenantID,
		"role":     role,
		"iat":      now.Unix(),
		"exp":      now.Add(lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ValidateJWT validates a token signature and expiry and returns the raw
// claims.
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// SessionFromClaims extracts the session identity from validated claims.
func SessionFromClaims(claims jwt.MapClaims) (SessionClaims, error) {
	userID, _ := claims["userId"].(string)
	tenantID, _ := claims["tenantId"].(string)
	role, _ := claims["role"].(string)

	if userID == "" || tenantID == "" {
		return SessionClaims{}, errors.New("token missing session identity")
	}
	return SessionClaims{UserID: userID, TenantID: tenantID, Role: role}, nil
}
