// Package auth consumes bearer tokens issued by the identity provider.
// The server never creates accounts itself; it only verifies the HS256
// signature and extracts the subject to scope ownership.
package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/seichilog/seichilog/internal/common"
)

var ErrInvalidAuthHeader = errors.New("invalid auth header format")

// Claims includes the registered claims plus the UserID the identity
// provider puts in the token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// UserIDFromToken verifies tokenString against secretKey and returns the
// embedded user id. Expired or malformed tokens yield common.ErrOwnership
// wrapped details so callers fail closed.
func UserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrOwnership
	}

	if claims.UserID == "" {
		return "", common.ErrOwnership
	}

	return claims.UserID, nil
}

// UserIDFromAuthHeader strips the "Bearer " prefix from an Authorization
// header value and verifies the remaining token.
func UserIDFromAuthHeader(header string, secretKey []byte) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidAuthHeader
	}
	return UserIDFromToken(strings.TrimPrefix(header, prefix), secretKey)
}
