package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dberezin/ipotrack/internal/common"
	"github.com/dberezin/ipotrack/internal/server/models"
)

func TestInMemory_CreateAndGet(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated ID")
	}

	byEmail, err := repo.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	byID, err := repo.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID error: %v", err)
	}
	if byEmail.ID != created.ID || byID.Email != "a@x.com" {
		t.Fatalf("lookups disagree: %+v vs %+v", byEmail, byID)
	}
}

func TestInMemory_DuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "h1"}); err != nil {
		t.Fatalf("first Create error: %v", err)
	}
	if _, err := repo.Create(ctx, &models.User{Email: "a@x.com", PasswordHash: "h2"}); !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}

	// first hash untouched
	u, err := repo.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if u.PasswordHash != "h1" {
		t.Fatalf("stored hash changed: %q", u.PasswordHash)
	}
}

func TestInMemory_ConcurrentSameEmail(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryRepository()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, &models.User{Email: "race@x.com", PasswordHash: "h"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, common.ErrorAlreadyExists):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != n-1 {
		t.Fatalf("want exactly one winner, got ok=%d dup=%d", ok, dup)
	}
}
