package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
)

// Manager hands out one orchestrator per (user, session) so that concurrent
// requests against the same conversation share transcript, selection and the
// single-generation guarantee.
type Manager struct {
	repo          *Repo
	registry      *ai.Registry
	searcher      ai.WebSearcher
	defaultProv   string
	contextWindow int

	mu     sync.Mutex
	bySess map[string]*Orchestrator
}

func NewManager(repo *Repo, registry *ai.Registry, searcher ai.WebSearcher, defaultProvider string, contextWindow int) *Manager {
	return &Manager{
		repo:          repo,
		registry:      registry,
		searcher:      searcher,
		defaultProv:   defaultProvider,
		contextWindow: contextWindow,
		bySess:        make(map[string]*Orchestrator),
	}
}

func key(userID uint64, sessionID string) string {
	return fmt.Sprintf("%d/%s", userID, sessionID)
}

// ForSession returns the live orchestrator for an existing session, creating
// and hydrating one on first use.
func (m *Manager) ForSession(ctx context.Context, userID uint64, sessionID string) (*Orchestrator, error) {
	m.mu.Lock()
	if o, ok := m.bySess[key(userID, sessionID)]; ok {
		m.mu.Unlock()
		return o, nil
	}
	m.mu.Unlock()

	o, err := NewOrchestrator(ctx, m.repo, m.registry, m.searcher, userID, sessionID, m.defaultProv, m.contextWindow)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have hydrated the same session concurrently
	if existing, ok := m.bySess[key(userID, sessionID)]; ok {
		return existing, nil
	}
	m.bySess[key(userID, sessionID)] = o
	return o, nil
}

// NewDraft creates an orchestrator for a conversation that has no persisted
// identity yet. Call Bind once the first send has created the session.
func (m *Manager) NewDraft(userID uint64) (*Orchestrator, error) {
	return NewOrchestrator(context.Background(), m.repo, m.registry, m.searcher, userID, "", m.defaultProv, m.contextWindow)
}

// Bind registers a formerly-draft orchestrator under its new session id.
func (m *Manager) Bind(o *Orchestrator) {
	sid := o.SessionID()
	if sid == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySess[key(o.UserID(), sid)] = o
}

// Remove drops a session's orchestrator, e.g. after the session is deleted.
func (m *Manager) Remove(userID uint64, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bySess, key(userID, sessionID))
}
