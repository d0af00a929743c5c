package chat

import (
	"context"
	"sync"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
)

type StreamState string

const (
	StreamIdle      StreamState = "idle"
	StreamRequested StreamState = "requested"
	StreamStreaming StreamState = "streaming"
	StreamCompleted StreamState = "completed"
	StreamCancelled StreamState = "cancelled"
	StreamFailed    StreamState = "failed"
)

// StreamingSession owns the lifecycle of one in-flight generation:
// idle -> requested -> streaming -> {completed | cancelled | failed}.
// At most one is alive per orchestrator.
type StreamingSession struct {
	mu     sync.Mutex
	state  StreamState
	cancel context.CancelFunc
}

func newStreamingSession() *StreamingSession {
	return &StreamingSession{state: StreamIdle}
}

func (s *StreamingSession) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StreamingSession) setState(st StreamState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Cancel signals the cancellation token. The provider read loop observes it
// within one read and returns the partial content accumulated so far.
func (s *StreamingSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.state == StreamRequested || s.state == StreamStreaming {
		s.state = StreamCancelled
	}
}

// Run issues the request and consumes the delta stream with a single reader,
// invoking onDelta for each delta in arrival order. Each delta is processed
// before the next network read is consumed, so transcript growth is
// monotonic. It returns the full concatenation; on provider error the
// partial accumulated so far is returned alongside the error.
func (s *StreamingSession) Run(ctx context.Context, provider ai.Provider, msgs []ai.Message, onDelta func(delta string)) (string, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.state = StreamRequested
	s.cancel = cancel
	s.mu.Unlock()

	sp, ok := provider.(ai.StreamProvider)
	if !ok {
		// provider has no streaming path: one blocking call, the whole
		// reply delivered as a single delta
		content, err := provider.Chat(cctx, msgs)
		if cctx.Err() != nil {
			// a reply that completed anyway is kept; cancellation is not
			// data loss
			s.setState(StreamCancelled)
			return content, nil
		}
		if err != nil {
			s.setState(StreamFailed)
			return "", err
		}
		s.setState(StreamStreaming)
		if onDelta != nil && content != "" {
			onDelta(content)
		}
		s.setState(StreamCompleted)
		return content, nil
	}

	chunks, errs := sp.StreamChat(cctx, msgs)

	var b []byte
	first := true
	for c := range chunks {
		if first {
			s.setState(StreamStreaming)
			first = false
		}
		b = append(b, c...)
		if onDelta != nil {
			onDelta(c)
		}
	}

	var streamErr error
	select {
	case err := <-errs:
		streamErr = err
	default:
	}

	content := string(b)

	if cctx.Err() != nil {
		s.setState(StreamCancelled)
		return content, nil
	}
	if streamErr != nil {
		s.setState(StreamFailed)
		return content, streamErr
	}
	s.setState(StreamCompleted)
	return content, nil
}
