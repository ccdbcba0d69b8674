// ABOUTME: Tests for transcript store reads and appends
// ABOUTME: Verifies cursor reads, bounded recents, and window scans
package sqlite

import (
	"testing"
	"time"

	"github.com/harper/lifeline/internal/models"
)

func appendTurn(t *testing.T, store *TurnStore, userID, convID string, role models.Role, content string) int64 {
	t.Helper()
	id, err := store.Append(&models.RawTurn{
		UserID:         userID,
		ConversationID: convID,
		Role:           role,
		Content:        content,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	return id
}

func TestTurnAppendAssignsMonotonicIDs(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewTurnStore(db)

	var prev int64
	for i := 0; i < 5; i++ {
		id := appendTurn(t, store, "u1", "c1", models.RoleUser, "hello")
		if id <= prev {
			t.Errorf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestTurnListAfterCursor(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewTurnStore(db)

	var ids []int64
	for i := 0; i < 6; i++ {
		ids = append(ids, appendTurn(t, store, "u1", "c1", models.RoleUser, "msg"))
	}
	// Turns from another conversation must not leak into the cursor read.
	appendTurn(t, store, "u1", "c2", models.RoleUser, "other conv")
	appendTurn(t, store, "u2", "c1", models.RoleUser, "other user")

	turns, err := store.ListAfter("u1", "c1", ids[2], 0)
	if err != nil {
		t.Fatalf("ListAfter() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("ListAfter() returned %d turns, want 3", len(turns))
	}
	for i, turn := range turns {
		if turn.ID != ids[3+i] {
			t.Errorf("turn %d id = %d, want %d", i, turn.ID, ids[3+i])
		}
	}
}

func TestTurnListAfterLimit(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewTurnStore(db)
	for i := 0; i < 5; i++ {
		appendTurn(t, store, "u1", "c1", models.RoleUser, "msg")
	}

	turns, err := store.ListAfter("u1", "c1", 0, 2)
	if err != nil {
		t.Fatalf("ListAfter() error = %v", err)
	}
	if len(turns) != 2 {
		t.Errorf("ListAfter() with limit returned %d turns, want 2", len(turns))
	}
}

func TestTurnListRecentAscendingOrder(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewTurnStore(db)
	var ids []int64
	for i := 0; i < 10; i++ {
		ids = append(ids, appendTurn(t, store, "u1", "c1", models.RoleUser, "msg"))
	}

	turns, err := store.ListRecent("u1", "c1", 4)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("ListRecent() returned %d turns, want 4", len(turns))
	}
	// The newest 4, oldest first
	for i, turn := range turns {
		if turn.ID != ids[6+i] {
			t.Errorf("turn %d id = %d, want %d", i, turn.ID, ids[6+i])
		}
	}
}

func TestTurnListSinceWindow(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewTurnStore(db)

	old := &models.RawTurn{
		UserID:         "u1",
		ConversationID: "c1",
		Role:           models.RoleUser,
		Content:        "old memory",
		CreatedAt:      time.Now().UTC().Add(-48 * time.Hour),
	}
	if _, err := store.Append(old); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	appendTurn(t, store, "u1", "c2", models.RoleUser, "fresh memory")

	turns, err := store.ListSince("u1", time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("ListSince() returned %d turns, want 1", len(turns))
	}
	if turns[0].Content != "fresh memory" {
		t.Errorf("ListSince() content = %q", turns[0].Content)
	}
}

func TestTurnDefaultsMediaTypeToText(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	store := NewTurnStore(db)
	appendTurn(t, store, "u1", "c1", models.RoleUser, "typed memory")

	turns, err := store.ListAfter("u1", "c1", 0, 0)
	if err != nil {
		t.Fatalf("ListAfter() error = %v", err)
	}
	if turns[0].MediaType != models.MediaText {
		t.Errorf("MediaType = %q, want text", turns[0].MediaType)
	}
}
