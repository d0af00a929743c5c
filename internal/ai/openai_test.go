package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func sseHandler(t *testing.T, lines []string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, l := range lines {
			fmt.Fprintf(w, "data: %s\n\n", l)
			flusher.Flush()
		}
	}
}

func drainStream(t *testing.T, chunks <-chan string, errs <-chan error) (string, error) {
	t.Helper()
	var out string
	for c := range chunks {
		out += c
	}
	select {
	case err := <-errs:
		return out, err
	case <-time.After(2 * time.Second):
		t.Fatalf("errs channel never closed")
		return out, nil
	}
}

func deltaPayload(s string) string {
	return fmt.Sprintf(`{"choices":[{"delta":{"content":%q}}]}`, s)
}

func TestStreamChat_ConcatenatesDeltas(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		deltaPayload("Hel"),
		deltaPayload("lo"),
		`{"choices":[{"delta":{"content":""}}]}`,
		deltaPayload("!"),
		DoneSentinel,
	}))
	defer srv.Close()

	p := NewGroqProvider(srv.URL, "test-key", "m")
	chunks, errs := p.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}})

	out, err := drainStream(t, chunks, errs)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if out != "Hello!" {
		t.Fatalf("got %q want %q", out, "Hello!")
	}
}

func TestStreamChat_SkipsMalformedChunk(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		deltaPayload("a"),
		`{not json`,
		deltaPayload("b"),
		DoneSentinel,
	}))
	defer srv.Close()

	p := NewGroqProvider(srv.URL, "test-key", "m")
	chunks, errs := p.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}})

	out, err := drainStream(t, chunks, errs)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if out != "ab" {
		t.Fatalf("got %q want %q", out, "ab")
	}
}

func TestStreamChat_EOFBeforeSentinelIsGraceful(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, []string{
		deltaPayload("partial"),
	}))
	defer srv.Close()

	p := NewGroqProvider(srv.URL, "test-key", "m")
	chunks, errs := p.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}})

	out, err := drainStream(t, chunks, errs)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if out != "partial" {
		t.Fatalf("got %q want %q", out, "partial")
	}
}

func TestStreamChat_CancelKeepsPartial(t *testing.T) {
	firstSent := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "data: %s\n\n", deltaPayload("keep"))
		flusher.Flush()
		close(firstSent)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewGroqProvider(srv.URL, "test-key", "m")
	chunks, errs := p.StreamChat(ctx, []Message{{Role: "user", Content: "hi"}})

	var out string
	for c := range chunks {
		out += c
		<-firstSent
		cancel()
	}

	select {
	case err, open := <-errs:
		if open && err != nil {
			t.Fatalf("cancellation surfaced as error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("errs channel never closed after cancel")
	}
	if out != "keep" {
		t.Fatalf("got %q want %q", out, "keep")
	}
}

func TestStreamChat_HTTPErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	p := NewGroqProvider(srv.URL, "test-key", "m")
	chunks, errs := p.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}})

	_, err := drainStream(t, chunks, errs)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusTooManyRequests || httpErr.Message != "rate limited" {
		t.Fatalf("unexpected error: %+v", httpErr)
	}
}

func TestStreamChat_MissingKeyUnavailable(t *testing.T) {
	p := NewGroqProvider("http://localhost:0", "", "m")
	chunks, errs := p.StreamChat(context.Background(), []Message{{Role: "user", Content: "hi"}})

	_, err := drainStream(t, chunks, errs)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestChat_NonStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  hi there  "}}]}`)
	}))
	defer srv.Close()

	p := NewGroqProvider(srv.URL, "test-key", "m")
	out, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if out != "hi there" {
		t.Fatalf("got %q", out)
	}
}
