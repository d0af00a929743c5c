package chat

import (
	"context"
	"testing"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
)

// blockingChatProvider has no streaming path; Chat returns its reply only
// once the context is cancelled.
type blockingChatProvider struct {
	reply   string
	started chan struct{}
}

func (p *blockingChatProvider) Chat(ctx context.Context, _ []ai.Message) (string, error) {
	close(p.started)
	<-ctx.Done()
	return p.reply, nil
}

func TestRun_NonStreamingCancelKeepsCompletedReply(t *testing.T) {
	prov := &blockingChatProvider{reply: "finished anyway", started: make(chan struct{})}
	st := newStreamingSession()

	type runResult struct {
		content string
		err     error
	}
	done := make(chan runResult, 1)
	go func() {
		content, err := st.Run(context.Background(), prov, []ai.Message{{Role: RoleUser, Content: "q"}}, nil)
		done <- runResult{content, err}
	}()

	<-prov.started
	st.Cancel()

	res := <-done
	if res.err != nil {
		t.Fatalf("cancelled run must not error: %v", res.err)
	}
	if res.content != "finished anyway" {
		t.Fatalf("completed reply discarded on cancel: %q", res.content)
	}
	if st.State() != StreamCancelled {
		t.Fatalf("state: %s", st.State())
	}
}
