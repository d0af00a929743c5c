package chat

import (
	"context"

	"gorm.io/gorm"

	"github.com/ha583/cuddly-chainsaw/internal/ai"
	"github.com/ha583/cuddly-chainsaw/internal/common"
)

// Generator serves the async job path: a non-streaming generation executed by
// cmd/worker against history already persisted by the enqueue handler.
type Generator struct {
	repo          *Repo
	registry      *ai.Registry
	contextWindow int
}

func NewGenerator(repo *Repo, registry *ai.Registry, contextWindow int) *Generator {
	if contextWindow <= 0 || contextWindow > 100 {
		contextWindow = 20
	}
	return &Generator{repo: repo, registry: registry, contextWindow: contextWindow}
}

// GenerateAssistantReplyAndInsert builds the provider request from the
// session's recent history, runs one blocking completion and appends the
// assistant message.
func (g *Generator) GenerateAssistantReplyAndInsert(ctx context.Context, job *Job) (string, string, error) {
	sess, err := g.repo.GetSession(ctx, job.SessionID)
	if err != nil {
		return "", "", err
	}
	if sess.UserID != job.UserID {
		return "", "", gorm.ErrRecordNotFound
	}

	providerID := job.Provider
	modelID := job.Model
	if providerID == "" {
		providerID = ai.ProviderOpenRouter
	}
	if modelID == "" {
		modelID = ai.ResolveDefaultModel(providerID)
	}
	provider, err := g.registry.Get(ctx, providerID, modelID)
	if err != nil {
		return "", "", err
	}

	recentDesc, err := g.repo.ListRecentMessagesDesc(ctx, job.SessionID, g.contextWindow)
	if err != nil {
		return "", "", err
	}

	// reverse to ASC (oldest -> newest); the enqueue handler already stored
	// the user prompt, so it is the newest entry
	history := make([]ai.Message, 0, len(recentDesc))
	for i := len(recentDesc) - 1; i >= 0; i-- {
		m := recentDesc[i]
		history = append(history, ai.Message{Role: m.Role, Content: m.Content})
	}

	userText := job.Prompt
	if n := len(history); n > 0 && history[n-1].Role == RoleUser {
		userText = history[n-1].Content
		history = history[:n-1]
	}

	msgs := AssemblePrompt(SystemPrompt, Analysis{}, "", history, userText)

	reply, err := provider.Chat(ctx, msgs)
	if err != nil {
		return "", "", err
	}

	asst := &Message{
		ID:        common.NewUUID(),
		SessionID: job.SessionID,
		Role:      RoleAssistant,
		Content:   reply,
	}
	if err := g.repo.AppendMessage(ctx, asst); err != nil {
		return "", "", err
	}
	return reply, asst.ID, nil
}
