package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type OpenRouterProvider struct {
	openAICore
	Search *SearchClient
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string, search *SearchClient) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	headers := map[string]string{}
	if siteURL != "" {
		headers["HTTP-Referer"] = siteURL
	}
	if appName != "" {
		headers["X-Title"] = appName
	}
	return &OpenRouterProvider{
		openAICore: openAICore{
			name:        "openrouter",
			baseURL:     baseURL,
			apiKey:      apiKey,
			model:       model,
			maxTokens:   4000,
			temperature: 0.7,
			headers:     headers,
			client:      newHTTPClient(),
		},
		Search: search,
	}
}

type openRouterModelsResp struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		ContextLength int    `json:"context_length"`
	} `json:"data"`
}

func (p *OpenRouterProvider) ListModels(ctx context.Context) ([]Model, error) {
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, fmt.Errorf("openrouter: api key is required: %w", ErrProviderUnavailable)
	}

	url := fmt.Sprintf("%s/models", strings.TrimRight(p.baseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: %v: %w", err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openrouter: models status %d: %w", resp.StatusCode, ErrProviderUnavailable)
	}

	var decoded openRouterModelsResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("openrouter: %v: %w", err, ErrProviderUnavailable)
	}

	models := make([]Model, 0, len(decoded.Data))
	for _, m := range decoded.Data {
		name := m.Name
		if name == "" {
			parts := strings.Split(m.ID, "/")
			name = parts[len(parts)-1]
		}
		desc := m.Description
		if desc == "" {
			desc = "OpenRouter language model"
		}
		ctxLen := m.ContextLength
		if ctxLen == 0 {
			ctxLen = 4096
		}
		models = append(models, Model{ID: m.ID, Name: name, Description: desc, ContextLength: ctxLen})
	}
	return models, nil
}

func (p *OpenRouterProvider) SearchWeb(ctx context.Context, query string) (string, error) {
	if p.Search == nil {
		return "", ErrSearchUnavailable
	}
	return p.Search.SearchWeb(ctx, query)
}
