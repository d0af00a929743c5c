package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type GroqProvider struct {
	openAICore
}

func NewGroqProvider(baseURL, apiKey, model string) *GroqProvider {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	return &GroqProvider{
		openAICore: openAICore{
			name:        "groq",
			baseURL:     baseURL,
			apiKey:      apiKey,
			model:       model,
			maxTokens:   4000,
			temperature: 0.7,
			client:      newHTTPClient(),
		},
	}
}

type groqModelsResp struct {
	Data []struct {
		ID            string `json:"id"`
		OwnedBy       string `json:"owned_by"`
		ContextWindow int    `json:"context_window"`
	} `json:"data"`
}

// ListModels returns Groq's chat-capable models. Speech, vision and
// moderation models from the same catalog endpoint are filtered out.
func (p *GroqProvider) ListModels(ctx context.Context) ([]Model, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, fmt.Errorf("groq: api key is required: %w", ErrProviderUnavailable)
	}

	url := fmt.Sprintf("%s/models", strings.TrimRight(p.baseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq: %v: %w", err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("groq: models status %d: %w", resp.StatusCode, ErrProviderUnavailable)
	}

	var decoded groqModelsResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("groq: %v: %w", err, ErrProviderUnavailable)
	}

	models := make([]Model, 0, len(decoded.Data))
	for _, m := range decoded.Data {
		if isNonChatGroqModel(m.ID) {
			continue
		}
		models = append(models, Model{
			ID:            m.ID,
			Name:          strings.ToUpper(strings.ReplaceAll(m.ID, "-", " ")),
			Description:   fmt.Sprintf("%s language model with %d context window", m.OwnedBy, m.ContextWindow),
			ContextLength: m.ContextWindow,
		})
	}
	return models, nil
}

func isNonChatGroqModel(id string) bool {
	for _, kw := range []string{"whisper", "vision", "guard", "tts"} {
		if strings.Contains(id, kw) {
			return true
		}
	}
	return false
}
