package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/dberezin/ipotrack/internal/common"
)

// bcryptCost is the work factor for password hashing. 10 rounds keeps
// hashing in the tens of milliseconds on commodity hardware.
const bcryptCost = 10

// HashPassword produces a salted bcrypt hash of the plaintext password.
// bcrypt generates a fresh random salt on every call, so hashing the same
// password twice yields different hashes.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", common.ErrorInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies password against a stored bcrypt hash. The
// comparison inside bcrypt is constant-time. It returns
// common.ErrorInvalidCredentials on mismatch.
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return common.ErrorInvalidCredentials
	}
	return nil
}
