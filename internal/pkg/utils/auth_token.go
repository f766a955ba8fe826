package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/ougirez/volstat/internal/pkg/constants"
)

// AuthTokenWrapper is the payload of the session token.
type AuthTokenWrapper struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

func GenerateAuthToken(secret []byte, wrapper *AuthTokenWrapper, ttl time.Duration) (string, error) {
	now := time.Now()
	wrapper.IssuedAt = now.Unix()
	if ttl > 0 {
		wrapper.ExpiresAt = now.Add(ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wrapper)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("SignedString: %w", err)
	}
	return signed, nil
}

func ParseAuthToken(secret []byte, tokenString string) (*AuthTokenWrapper, error) {
	wrapper := new(AuthTokenWrapper)
	token, err := jwt.ParseWithClaims(tokenString, wrapper, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, constants.ErrUnauthorized
	}
	return wrapper, nil
}
