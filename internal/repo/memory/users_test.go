package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Umar7799/task4safety/internal/domain/user"
	"github.com/Umar7799/task4safety/internal/repo/memory"
)

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	_, err := repo.Create(ctx, "Alice", "alice@x.com", "hash")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err = repo.Create(ctx, "Alice Again", "alice@x.com", "hash2")
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}

	// exactly one record for that email
	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1", len(users))
	}
}

func TestListOrdersByLastLoginDesc(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	a, _ := repo.Create(ctx, "A", "a@x.com", "h")
	b, _ := repo.Create(ctx, "B", "b@x.com", "h")

	// B logs in last, so B must come first
	time.Sleep(5 * time.Millisecond)

	if err := repo.TouchLastLogin(ctx, b.ID); err != nil {
		t.Fatalf("touch: %v", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}

	if users[0].ID != b.ID || users[1].ID != a.ID {
		t.Fatalf("wrong order: got %s then %s", users[0].ID, users[1].ID)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	a, _ := repo.Create(ctx, "A", "a@x.com", "h")

	u, err := repo.SetStatus(ctx, a.ID, user.StatusBlocked)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !u.IsBlocked() {
		t.Fatalf("expected blocked status, got %q", u.Status)
	}

	// blocking an already blocked user still succeeds
	u, err = repo.SetStatus(ctx, a.ID, user.StatusBlocked)
	if err != nil {
		t.Fatalf("idempotent block: %v", err)
	}
	if !u.IsBlocked() {
		t.Fatalf("expected blocked status, got %q", u.Status)
	}

	_, err = repo.SetStatus(ctx, "missing-id", user.StatusBlocked)
	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	a, _ := repo.Create(ctx, "A", "a@x.com", "h")
	b, _ := repo.Create(ctx, "B", "b@x.com", "h")

	if err := repo.Delete(ctx, "missing-id"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	// a failed delete leaves the store unchanged
	users, _ := repo.List(ctx)
	if len(users) != 2 {
		t.Fatalf("store changed by failed delete: %d users", len(users))
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	users, _ = repo.List(ctx)
	if len(users) != 1 || users[0].ID != b.ID {
		t.Fatalf("expected only %s to remain", b.ID)
	}

	// deleted email is free for reuse
	if _, err := repo.Create(ctx, "A2", "a@x.com", "h"); err != nil {
		t.Fatalf("re-create after delete: %v", err)
	}
}

func TestGetByEmailAndID(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUsersRepo()

	a, _ := repo.Create(ctx, "A", "a@x.com", "h")

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	if err != nil || byEmail.ID != a.ID {
		t.Fatalf("get by email: %v (id=%s)", err, byEmail.ID)
	}

	byID, err := repo.GetByID(ctx, a.ID)
	if err != nil || byID.Email != "a@x.com" {
		t.Fatalf("get by id: %v", err)
	}

	if _, err := repo.GetByEmail(ctx, "nobody@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
