package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// openAICore speaks the OpenAI-compatible chat-completions wire protocol
// shared by Groq, OpenRouter and HelpingAI. The vendor adapters configure it
// and add their own capabilities on top.
type openAICore struct {
	name        string
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	headers     map[string]string
	client      *http.Client
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionReq struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	Stream      bool                `json:"stream"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

type chatCompletionResp struct {
	Choices []struct {
		Message chatCompletionMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatCompletionStreamResp struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *openAICore) checkConfigured() error {
	if p.client == nil {
		return fmt.Errorf("%s: http client is nil", p.name)
	}
	if strings.TrimSpace(p.apiKey) == "" {
		return fmt.Errorf("%s: api key is required: %w", p.name, ErrProviderUnavailable)
	}
	if strings.TrimSpace(p.model) == "" {
		return fmt.Errorf("%s: model is required", p.name)
	}
	return nil
}

func (p *openAICore) newRequest(ctx context.Context, messages []Message, stream bool) (*http.Request, error) {
	reqBody := chatCompletionReq{
		Model:       p.model,
		Stream:      stream,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Messages: func() []chatCompletionMsg {
			out := make([]chatCompletionMsg, 0, len(messages))
			for _, m := range messages {
				out = append(out, chatCompletionMsg{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.baseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// httpError drains up to 4KB of the error body and extracts the vendor's
// error.message field when present.
func (p *openAICore) httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	msg := strings.TrimSpace(string(body))
	var decoded struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != nil && decoded.Error.Message != "" {
		msg = decoded.Error.Message
	}
	return &HTTPError{Provider: p.name, Status: resp.StatusCode, Message: msg}
}

func (p *openAICore) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := p.checkConfigured(); err != nil {
		return "", err
	}

	req, err := p.newRequest(ctx, messages, false)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", p.httpError(resp)
	}

	var decoded chatCompletionResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%s: empty response", p.name)
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// StreamChat streams assistant content deltas via SSE.
// It returns immediately with two channels; both are closed when streaming
// ends. Cancelling ctx stops the read loop without an error: the caller keeps
// the deltas already delivered.
func (p *openAICore) StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		if err := p.checkConfigured(); err != nil {
			errs <- err
			return
		}

		req, err := p.newRequest(ctx, messages, true)
		if err != nil {
			errs <- err
			return
		}

		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			errs <- p.httpError(resp)
			return
		}

		dec := NewSSEDecoder(resp.Body)
		for {
			data, err := dec.NextData()
			if err == io.EOF {
				// body ended before the sentinel: treat as a completed
				// response and keep what accumulated
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				errs <- err
				return
			}
			if data == DoneSentinel {
				return
			}

			var decoded chatCompletionStreamResp
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				// one bad chunk must not abort the stream
				log.Printf("stream parse error provider=%s err=%v", p.name, &StreamParseError{Provider: p.name, Payload: data, Err: err})
				continue
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				errs <- errors.New(decoded.Error.Message)
				return
			}
			if len(decoded.Choices) == 0 {
				continue
			}

			delta := decoded.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case chunks <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, errs
}

func newHTTPClient() *http.Client {
	// no global timeout; streaming responses can be long-lived and ctx
	// controls cancellation
	return &http.Client{}
}
