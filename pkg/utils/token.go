package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey namespaces values the JWT middleware stores on the request
// context.
type ContextKey string

// SignToken issues an HS256 JWT carrying the user's identity. The jti claim
// lets logout revoke the token before expiry.
func SignToken(userID int, username, jti string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"uid":  userID,
		"user": username,
		"jti":  jti,
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
