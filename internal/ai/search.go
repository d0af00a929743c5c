package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SearchClient resolves real-time web context for a turn through an external
// search gateway. Best-effort: every failure maps to ErrSearchUnavailable and
// the caller proceeds without web context.
type SearchClient struct {
	URL    string
	Token  string
	Client *http.Client
}

func NewSearchClient(url, token string) *SearchClient {
	return &SearchClient{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

type searchReq struct {
	Query string `json:"query"`
}

// The gateway wraps its payload twice: the outer response field is itself a
// JSON document whose response.message carries the result text.
type searchResp struct {
	Response string `json:"response"`
}

type searchInner struct {
	Response struct {
		Message string `json:"message"`
	} `json:"response"`
}

func (s *SearchClient) SearchWeb(ctx context.Context, query string) (string, error) {
	if s == nil || strings.TrimSpace(s.URL) == "" {
		return "", ErrSearchUnavailable
	}

	b, err := json.Marshal(searchReq{Query: query})
	if err != nil {
		return "", fmt.Errorf("search: %v: %w", err, ErrSearchUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("search: %v: %w", err, ErrSearchUnavailable)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search: %v: %w", err, ErrSearchUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("search: status %d: %w", resp.StatusCode, ErrSearchUnavailable)
	}

	var outer searchResp
	if err := json.NewDecoder(resp.Body).Decode(&outer); err != nil {
		return "", fmt.Errorf("search: %v: %w", err, ErrSearchUnavailable)
	}
	var inner searchInner
	if err := json.Unmarshal([]byte(outer.Response), &inner); err != nil {
		return "", fmt.Errorf("search: %v: %w", err, ErrSearchUnavailable)
	}
	if inner.Response.Message == "" {
		return "", ErrSearchUnavailable
	}
	return inner.Response.Message, nil
}
