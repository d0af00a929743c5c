package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Session{}, &Message{}, &Job{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestRepo_RejectsInvalidIdentifiers(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetSession(ctx, "not-a-uuid"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("GetSession: got %v want ErrInvalidIdentifier", err)
	}
	if _, err := repo.ListMessages(ctx, "'; DROP TABLE chat_sessions;--"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("ListMessages: got %v want ErrInvalidIdentifier", err)
	}
	if err := repo.UpdateSessionTitle(ctx, "1234", "x"); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("UpdateSessionTitle: got %v want ErrInvalidIdentifier", err)
	}
	if err := repo.DeleteSession(ctx, ""); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("DeleteSession: got %v want ErrInvalidIdentifier", err)
	}
}

func TestRepo_AppendMessageBumpsSession(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	sess := &Session{UserID: 1, Title: "t"}
	if err := repo.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	before, err := repo.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if err := repo.AppendMessage(ctx, &Message{SessionID: sess.ID, Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	after, err := repo.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("expected updated_at bump: before=%v after=%v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestRepo_ListSessionsRecencyOrder(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	a := &Session{UserID: 7, Title: "a"}
	b := &Session{UserID: 7, Title: "b"}
	other := &Session{UserID: 8, Title: "other"}
	for _, s := range []*Session{a, b, other} {
		if err := repo.CreateSession(ctx, s); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	time.Sleep(10 * time.Millisecond)

	// touching a makes it the most recent
	if err := repo.AppendMessage(ctx, &Message{SessionID: a.ID, Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := repo.ListSessions(ctx, 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].ID != a.ID {
		t.Fatalf("expected most recently touched session first")
	}
}

func TestRepo_DeleteSessionCascades(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	sess := &Session{UserID: 1, Title: "t"}
	if err := repo.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.AppendMessage(ctx, &Message{SessionID: sess.ID, Role: RoleUser, Content: "m"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := repo.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.GetSession(ctx, sess.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
	var cnt int64
	if err := db.Model(&Message{}).Where("session_id = ?", sess.ID).Count(&cnt).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected 0 orphan messages, got %d", cnt)
	}
}

func TestRepo_UpdateMissingSessionNotFound(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	missing := "123e4567-e89b-42d3-a456-426614174000"
	if err := repo.UpdateSessionTitle(ctx, missing, "x"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("title: got %v want ErrRecordNotFound", err)
	}
	if err := repo.UpdateSessionPinned(ctx, missing, true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("pinned: got %v want ErrRecordNotFound", err)
	}
}

func TestRepo_JobIdempotency(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	sess := &Session{UserID: 3, Title: "t"}
	if err := repo.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	key := "req-1"
	j1 := &Job{ID: "01J00000000000000000000001", UserID: 3, SessionID: sess.ID, Prompt: "p", IdempotencyKey: &key, Status: JobQueued}
	got1, created1, err := repo.CreateJobOrGetExisting(ctx, j1)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if !created1 {
		t.Fatalf("expected first call to create")
	}

	j2 := &Job{ID: "01J00000000000000000000002", UserID: 3, SessionID: sess.ID, Prompt: "p", IdempotencyKey: &key, Status: JobQueued}
	got2, created2, err := repo.CreateJobOrGetExisting(ctx, j2)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created2 {
		t.Fatalf("expected second call to reuse the existing job")
	}
	if got2.ID != got1.ID {
		t.Fatalf("expected same job id, got %s vs %s", got2.ID, got1.ID)
	}
}
