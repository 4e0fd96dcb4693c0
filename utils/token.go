package authUtils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// GenerateToken signs an HS256 token for subject that expires after ttl.
// Operators use it to mint tokens for clients of the write endpoints.
func GenerateToken(subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret is empty")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": subject,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
