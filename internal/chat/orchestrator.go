package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
	"github.com/ha583/cuddly-chainsaw/internal/common"
)

type GenerationState string

const (
	StateReady     GenerationState = "ready"
	StateSubmitted GenerationState = "submitted"
	StateStreaming GenerationState = "streaming"
	StateError     GenerationState = "error"
)

// Selection pins the provider and model used for the next turn. ModelID is
// only ever a member of the model set most recently fetched for ProviderID;
// switching providers resets it to that provider's default.
type Selection struct {
	ProviderID string `json:"provider_id"`
	ModelID    string `json:"model_id"`
}

const titleMaxLen = 30

// TitleFromFirstMessage derives a draft session's title from its first user
// message: first 30 characters plus an ellipsis when longer.
func TitleFromFirstMessage(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxLen {
		return text
	}
	return string(runes[:titleMaxLen]) + "..."
}

// Orchestrator binds one conversation to its transcript, provider/model
// selection, generation state and the current streaming session (at most one
// active). Transcript and state are mutated only here.
type Orchestrator struct {
	repo     *Repo
	registry *ai.Registry
	searcher ai.WebSearcher

	userID        uint64
	contextWindow int

	mu         sync.Mutex
	sessionID  string // empty while the conversation is still a draft
	selection  Selection
	modelSet   map[string]struct{}
	state      GenerationState
	transcript []*Message
	stream     *StreamingSession

	analysis *AnalysisContext
}

// NewOrchestrator builds an orchestrator for an existing session (loading its
// transcript) or, with an empty sessionID, for a draft conversation.
func NewOrchestrator(ctx context.Context, repo *Repo, registry *ai.Registry, searcher ai.WebSearcher, userID uint64, sessionID, providerID string, contextWindow int) (*Orchestrator, error) {
	if contextWindow <= 0 || contextWindow > 100 {
		contextWindow = 20
	}

	o := &Orchestrator{
		repo:          repo,
		registry:      registry,
		searcher:      searcher,
		userID:        userID,
		contextWindow: contextWindow,
		state:         StateReady,
		analysis:      &AnalysisContext{},
	}
	o.applySelection(Selection{ProviderID: providerID, ModelID: ai.ResolveDefaultModel(providerID)})

	if sessionID != "" {
		sess, err := repo.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if sess.UserID != userID {
			// hide existence
			return nil, gorm.ErrRecordNotFound
		}
		msgs, err := repo.ListMessages(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		o.sessionID = sessionID
		o.transcript = make([]*Message, 0, len(msgs))
		for i := range msgs {
			m := msgs[i]
			o.transcript = append(o.transcript, &m)
		}
	}
	return o, nil
}

func (o *Orchestrator) applySelection(sel Selection) {
	set := make(map[string]struct{})
	for _, m := range ai.StaticModels(sel.ProviderID) {
		set[m.ID] = struct{}{}
	}
	o.selection = sel
	o.modelSet = set
}

func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

func (o *Orchestrator) UserID() uint64 { return o.userID }

func (o *Orchestrator) State() GenerationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) Selection() Selection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selection
}

// Transcript returns a snapshot copy of the conversation view.
func (o *Orchestrator) Transcript() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, 0, len(o.transcript))
	for _, m := range o.transcript {
		out = append(out, *m)
	}
	return out
}

// SwitchProvider changes the provider and resets the model to that
// provider's default; a stale cross-provider model id is never kept.
func (o *Orchestrator) SwitchProvider(providerID string) (Selection, error) {
	if !o.registry.Known(providerID) {
		return Selection{}, ErrInvalidInput
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.applySelection(Selection{ProviderID: providerID, ModelID: ai.ResolveDefaultModel(providerID)})
	return o.selection, nil
}

// RecordModelSet replaces the set of model ids considered valid for the
// current provider, typically after a live catalog fetch.
func (o *Orchestrator) RecordModelSet(models []ai.Model) {
	o.mu.Lock()
	defer o.mu.Unlock()
	set := make(map[string]struct{}, len(models))
	for _, m := range models {
		set[m.ID] = struct{}{}
	}
	if len(set) > 0 {
		o.modelSet = set
	}
}

// SetModel selects a model; it must belong to the current provider's most
// recently recorded model set.
func (o *Orchestrator) SetModel(modelID string) (Selection, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.modelSet[modelID]; !ok {
		return Selection{}, ErrUnknownModel
	}
	o.selection.ModelID = modelID
	return o.selection, nil
}

// AttachAnalysis stores a document/vision extraction result for subsequent
// turns and appends a notification entry to the transcript. It never
// triggers a generation.
func (o *Orchestrator) AttachAnalysis(vision, document, note string) *Message {
	if vision != "" {
		o.analysis.SetVision(vision)
	}
	if document != "" {
		o.analysis.SetDocument(document)
	}

	m := &Message{
		ID:        common.NewUUID(),
		Role:      RoleAssistant,
		Content:   note,
		CreatedAt: time.Now(),
	}
	o.mu.Lock()
	m.SessionID = o.sessionID
	o.transcript = append(o.transcript, m)
	o.mu.Unlock()
	return m
}

// ClearAnalysis empties the analysis side-channel on explicit user action.
func (o *Orchestrator) ClearAnalysis() { o.analysis.Clear() }

// SendUserMessage runs one full turn: append the user message optimistically,
// create the session for a draft conversation, resolve optional web context,
// stream the assistant reply (onDelta fires per delta with the running
// concatenation) and persist the finalized messages.
//
// Rejected with ErrInvalidInput when text is empty and ErrGenerationBusy
// while a generation is in flight; a busy send is never queued. A cancel
// before the first delta returns (nil, nil) and leaves no assistant entry.
func (o *Orchestrator) SendUserMessage(ctx context.Context, text string, useWebSearch bool, onDelta func(delta, content string)) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}

	o.mu.Lock()
	if o.state == StateSubmitted || o.state == StateStreaming {
		o.mu.Unlock()
		return nil, ErrGenerationBusy
	}
	o.state = StateSubmitted

	draft := o.sessionID == ""
	history := make([]ai.Message, 0, len(o.transcript))
	for _, m := range o.transcript {
		history = append(history, ai.Message{Role: m.Role, Content: m.Content})
	}
	if len(history) > o.contextWindow {
		history = history[len(history)-o.contextWindow:]
	}

	userMsg := &Message{
		ID:        common.NewUUID(),
		SessionID: o.sessionID,
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	o.transcript = append(o.transcript, userMsg)

	sel := o.selection
	st := newStreamingSession()
	o.stream = st
	o.mu.Unlock()

	// first message of a draft conversation creates the persisted session
	// before any message write
	if draft {
		sess := &Session{
			UserID: o.userID,
			Title:  TitleFromFirstMessage(text),
		}
		if err := o.repo.CreateSession(ctx, sess); err != nil {
			o.setState(StateError)
			return nil, err
		}
		o.mu.Lock()
		o.sessionID = sess.ID
		for _, m := range o.transcript {
			m.SessionID = sess.ID
		}
		o.mu.Unlock()
	}

	// optimistic-first: the transcript already shows the user message, a
	// failed write is logged and does not roll it back
	if err := o.repo.AppendMessage(ctx, userMsg); err != nil {
		log.Printf("persist user message failed session=%s err=%v", userMsg.SessionID, err)
	}

	// best-effort web context; failure degrades to "no context"
	var searchResult string
	if useWebSearch && o.searcher != nil {
		res, err := o.searcher.SearchWeb(ctx, text)
		if err != nil {
			if !errors.Is(err, ai.ErrSearchUnavailable) {
				log.Printf("web search failed err=%v", err)
			}
		} else {
			searchResult = res
		}
	}

	provider, err := o.registry.Get(ctx, sel.ProviderID, sel.ModelID)
	if err != nil {
		o.setState(StateError)
		return nil, err
	}

	msgs := AssemblePrompt(SystemPrompt, o.analysis.Snapshot(), searchResult, history, text)

	asst := &Message{
		ID:        common.NewUUID(),
		SessionID: userMsg.SessionID,
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
	}
	o.mu.Lock()
	o.transcript = append(o.transcript, asst)
	o.mu.Unlock()

	content, streamErr := st.Run(ctx, provider, msgs, func(delta string) {
		o.mu.Lock()
		asst.Content += delta
		full := asst.Content
		o.state = StateStreaming
		o.mu.Unlock()
		if onDelta != nil {
			onDelta(delta, full)
		}
	})

	o.mu.Lock()
	asst.Content = content
	if content == "" {
		// nothing streamed, whether by error or a cancel before the first
		// delta: drop the placeholder so an empty assistant entry never
		// feeds later turns
		if n := len(o.transcript); n > 0 && o.transcript[n-1] == asst {
			o.transcript = o.transcript[:n-1]
		}
		if streamErr != nil {
			o.state = StateError
			o.mu.Unlock()
			return nil, streamErr
		}
		o.state = StateReady
		o.mu.Unlock()
		return nil, nil
	}
	o.mu.Unlock()

	// completed, cancelled, or errored with partial output: the partial is
	// frozen as final and persisted
	if err := o.repo.AppendMessage(ctx, asst); err != nil {
		log.Printf("persist assistant message failed session=%s err=%v", asst.SessionID, err)
	}

	if streamErr != nil {
		o.setState(StateError)
		return asst, streamErr
	}
	o.setState(StateReady)
	return asst, nil
}

// StopGeneration cancels the active streaming session and returns the
// generation state to ready.
func (o *Orchestrator) StopGeneration() {
	o.mu.Lock()
	st := o.stream
	o.mu.Unlock()
	if st != nil {
		st.Cancel()
	}
	o.setState(StateReady)
}

func (o *Orchestrator) setState(s GenerationState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
