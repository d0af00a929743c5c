package chat

import (
	"context"
	"testing"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
)

func TestGenerator_InsertsAssistantReply(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	prov := &scriptedStreamProvider{deltas: []string{"async reply"}}
	gen := NewGenerator(repo, testRegistry(prov), 20)

	sess := &Session{UserID: 4, Title: "t"}
	if err := repo.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	// the enqueue path stores the prompt before the worker runs
	if err := repo.AppendMessage(ctx, &Message{SessionID: sess.ID, Role: RoleUser, Content: "the question"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	job := &Job{ID: "01J00000000000000000000003", UserID: 4, SessionID: sess.ID, Prompt: "the question", Provider: ai.ProviderGroq, Status: JobRunning}
	reply, msgID, err := gen.GenerateAssistantReplyAndInsert(ctx, job)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reply != "async reply" {
		t.Fatalf("reply: %q", reply)
	}
	if msgID == "" {
		t.Fatalf("expected persisted assistant message id")
	}

	msgs, err := repo.ListMessages(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Role != RoleAssistant || msgs[1].Content != "async reply" {
		t.Fatalf("unexpected rows: %+v", msgs)
	}

	// the stored prompt becomes the final user message, not duplicated
	prompt := prov.lastPrompt()
	users := 0
	for _, m := range prompt {
		if m.Role == RoleUser {
			users++
		}
	}
	if users != 1 {
		t.Fatalf("expected exactly one user message in prompt, got %d", users)
	}
}

func TestGenerator_RejectsForeignSession(t *testing.T) {
	repo := NewRepo(openTestDB(t))
	ctx := context.Background()

	prov := &scriptedStreamProvider{deltas: []string{"x"}}
	gen := NewGenerator(repo, testRegistry(prov), 20)

	sess := &Session{UserID: 4, Title: "t"}
	if err := repo.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	job := &Job{ID: "01J00000000000000000000004", UserID: 5, SessionID: sess.ID, Prompt: "p", Status: JobRunning}
	if _, _, err := gen.GenerateAssistantReplyAndInsert(ctx, job); err == nil {
		t.Fatalf("expected owner mismatch to fail")
	}
}
