package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type HelpingAIProvider struct {
	openAICore
}

func NewHelpingAIProvider(baseURL, apiKey, model string) *HelpingAIProvider {
	if baseURL == "" {
		baseURL = "https://api.helpingai.co/v1"
	}
	return &HelpingAIProvider{
		openAICore: openAICore{
			name:        "helpingai",
			baseURL:     baseURL,
			apiKey:      apiKey,
			model:       model,
			maxTokens:   7000,
			temperature: 0.4,
			client:      newHTTPClient(),
		},
	}
}

// ListModels decodes HelpingAI's catalog, which is a bare JSON array of
// model names rather than the usual {data: [...]} envelope.
func (p *HelpingAIProvider) ListModels(ctx context.Context) ([]Model, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, fmt.Errorf("helpingai: api key is required: %w", ErrProviderUnavailable)
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
		return nil, fmt.Errorf("helpingai: %v: %w", err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("helpingai: models status %d: %w", resp.StatusCode, ErrProviderUnavailable)
	}

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return nil, fmt.Errorf("helpingai: %v: %w", err, ErrProviderUnavailable)
	}

	models := make([]Model, 0, len(names))
	for _, n := range names {
		models = append(models, Model{
			ID:            n,
			Name:          n,
			Description:   "HelpingAI language model",
			ContextLength: 4096,
		})
	}
	return models, nil
}
