// Package services contains server-side business logic. This file implements
// UserService, the authentication core: registration, login, and session
// token issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dberezin/ipotrack/internal/common"
	"github.com/dberezin/ipotrack/internal/dbx"
	"github.com/dberezin/ipotrack/internal/server/auth"
	"github.com/dberezin/ipotrack/internal/server/config"
	"github.com/dberezin/ipotrack/internal/server/models"
	"github.com/dberezin/ipotrack/internal/server/repositories/repomanager"
	usersrepo "github.com/dberezin/ipotrack/internal/server/repositories/users"
)

// UserService provides authentication-related operations:
// - Register: create an account and mint its first session token
// - Login: verify credentials and mint a session token
// - GetUserByID: resolve the account behind a verified token
//
// Emails are treated as exact-match strings: no case folding, no trimming.
// Password hashes never leave this package in any form.
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates a new account for email and returns it with a fresh
// session token. Empty email or password fail with ErrorInvalidInput before
// any store access. A taken email fails with ErrorAlreadyExists; the
// check-then-create sequence runs inside one transaction so a concurrent
// register for the same email cannot slip through (the unique index on
// email backs this up).
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, string, error) {

	if email == "" || password == "" {
		return nil, "", common.ErrorInvalidInput
	}

	// Hash outside the transaction: bcrypt takes tens of milliseconds and
	// must not hold a DB transaction open.
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	var user *models.User
	if s.db != nil {
		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			var txErr error
			user, txErr = s.createUser(ctx, s.repomanager.Users(tx), email, hash)
			return txErr
		})
	} else {
		user, err = s.createUser(ctx, s.repomanager.Users(nil), email, hash)
	}
	if err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	return user, token, nil
}

func (s *UserService) createUser(ctx context.Context, repo usersrepo.Repository, email, hash string) (*models.User, error) {
	_, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, common.ErrorAlreadyExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and, on success, returns the account with
// a fresh session token. An unknown email fails with ErrorNotFound, a wrong
// password with ErrorInvalidCredentials; callers can tell the two apart.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {

	if email == "" || password == "" {
		return nil, "", common.ErrorInvalidInput
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorNotFound
		}
		return nil, "", fmt.Errorf("error finding user: %w", err)
	}

	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		return nil, "", common.ErrorInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	return user, token, nil
}

// GetUserByID returns the account for a verified token subject.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	return user, nil
}
