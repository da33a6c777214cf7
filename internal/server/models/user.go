package models

import "time"

// User is a registered account keyed by email. The email is an exact-match,
// case-sensitive natural key. PasswordHash is write-once and never leaves
// the service layer.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
