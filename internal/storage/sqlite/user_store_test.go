package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/licomnaklavy/edu-platform/internal/domain"
)

func newTestUser(email string) *domain.User {
	now := time.Now()
	return &domain.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$10$fakehashfortesting",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserStore_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	user := newTestUser("student@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("CreateUser() did not assign an ID")
	}

	byEmail, err := store.GetUserByEmail(ctx, "student@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != user.ID || byEmail.Name != "Test User" {
		t.Errorf("GetUserByEmail() = %+v", byEmail)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Email != "student@example.com" {
		t.Errorf("GetUserByID() = %+v", byID)
	}
}

func TestUserStore_DuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	if err := store.CreateUser(ctx, newTestUser("a@b.c")); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	err := store.CreateUser(ctx, newTestUser("a@b.c"))
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("CreateUser() error = %v, want ErrUserAlreadyExists", err)
	}
}

func TestUserStore_GetNotFound(t *testing.T) {
	db := openTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrUserNotFound", err)
	}
	if _, err := store.GetUserByID(ctx, 9999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserStore_Update(t *testing.T) {
	db := openTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	user := newTestUser("old@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	user.Email = "new@example.com"
	user.Name = "Renamed"
	user.UpdatedAt = time.Now()
	if err := store.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	loaded, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if loaded.Email != "new@example.com" || loaded.Name != "Renamed" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestUserStore_UpdateConflictingEmail(t *testing.T) {
	db := openTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	if err := store.CreateUser(ctx, newTestUser("taken@example.com")); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	user := newTestUser("mine@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	user.Email = "taken@example.com"
	if err := store.UpdateUser(ctx, user); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("UpdateUser() error = %v, want ErrUserAlreadyExists", err)
	}
}

func TestUserStore_UpdateMissingUser(t *testing.T) {
	db := openTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	ghost := newTestUser("ghost@example.com")
	ghost.ID = 4242
	if err := store.UpdateUser(ctx, ghost); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("UpdateUser() error = %v, want ErrUserNotFound", err)
	}
}
