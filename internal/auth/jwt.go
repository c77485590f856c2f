// Package auth issues and checks the owner tokens that bind a hosted
// logbook to its owner.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrNoOwner      = errors.New("token carries no owner")
)

// Claims are the registered claims plus the logbook owner.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"owner"`
}

// now is a test seam.
var now = time.Now

func GenerateToken(ownerID string, secretKey []byte, validity time.Duration) (string, error) {
	if ownerID == "" {
		return "", ErrNoOwner
	}
	issued := now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(validity)),
		},
		OwnerID: ownerID,
	})
	s, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// OwnerFromToken verifies tokenString and returns the owner it names.
func OwnerFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case !token.Valid:
		return "", ErrInvalidToken
	}
	if claims.OwnerID == "" {
		return "", ErrNoOwner
	}
	return claims.OwnerID, nil
}
