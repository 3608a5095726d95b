// Package auth issues and validates signed session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/dataportal/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard registered claims; the subject is the email of
// the signed-in user.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for email that expires after validity.
// It returns the token together with its expiry time.
func GenerateToken(email string, secretKey []byte, validity time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(validity)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates tokenString and returns the email it was issued for.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// validation yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (string, error) {
	return ParseTokenAt(tokenString, secretKey, time.Now())
}

// ParseTokenAt is ParseToken with expiry checked against now.
func ParseTokenAt(tokenString string, secretKey []byte, now time.Time) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}
