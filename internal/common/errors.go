// Package common defines shared constants and sentinel errors used across
// the client and server layers of IPO Tracker. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInvalidInput       = errors.New("invalid input")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorInternal           = errors.New("internal error")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
