// Package auth provides the credential primitives of the authentication
// core: session token issuance/verification and password hashing.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dberezin/ipotrack/internal/common"
)

// Claims are the assertions carried by a session token. The subject is the
// account ID; issued-at and expiry are set at mint time. The token never
// carries the email or any credential material.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256-signed session token bound to userID,
// valid for validityDuration from now.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies the signature and expiry of tokenString and
// returns the subject account ID. Expired tokens yield common.ErrTokenExpired;
// any other verification failure yields common.ErrInvalidToken. Validity is a
// pure function of the signature and the clock: no leeway is applied.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
