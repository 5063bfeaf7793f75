package repos

import (
	"context"
	"testing"

	"github.com/vaultchat/vaultchat-backend/internal/types"
)

func TestUserRepo_GetOrCreateRefreshesUsername(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewUserRepo(gdb, testLogger(t))
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, nil, 7, "ada"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := repo.GetOrCreate(ctx, nil, 7, "lovelace"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	var user types.User
	if err := gdb.Where("id = ?", 7).First(&user).Error; err != nil {
		t.Fatalf("load user row: %v", err)
	}
	if user.Username != "lovelace" {
		t.Fatalf("expected refreshed username, got %q", user.Username)
	}

	// an empty username never wipes a known one
	if _, err := repo.GetOrCreate(ctx, nil, 7, ""); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := gdb.Where("id = ?", 7).First(&user).Error; err != nil {
		t.Fatalf("load user row: %v", err)
	}
	if user.Username != "lovelace" {
		t.Fatalf("empty username overwrote %q with %q", "lovelace", user.Username)
	}
}

func TestUserRepo_GetByIDs(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewUserRepo(gdb, testLogger(t))
	ctx := context.Background()

	if _, err := repo.GetOrCreate(ctx, nil, 1, "alice"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := repo.GetOrCreate(ctx, nil, 2, "bob"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	users, err := repo.GetByIDs(ctx, nil, []int64{1, 2, 99})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	none, err := repo.GetByIDs(ctx, nil, nil)
	if err != nil {
		t.Fatalf("GetByIDs(nil): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no users for empty id list, got %d", len(none))
	}
}
