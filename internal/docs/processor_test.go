package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionServer(t *testing.T, reply string, gotModel *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if gotModel != nil {
			*gotModel = body.Model
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, reply)
	}))
}

func TestExtract_PlainText(t *testing.T) {
	var model string
	srv := completionServer(t, "a summary", &model)
	defer srv.Close()

	p := NewProcessor(srv.URL, "key")
	out, err := p.Extract(context.Background(), "notes.txt", "text/plain", []byte("hello world content"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out.Vision {
		t.Fatalf("text input routed through vision")
	}
	if out.Text != "hello world content" {
		t.Fatalf("text: %q", out.Text)
	}
	if out.Analysis != "a summary" {
		t.Fatalf("analysis: %q", out.Analysis)
	}
	if model != p.TextModel {
		t.Fatalf("model: got %q want %q", model, p.TextModel)
	}
	if out.Metadata.Method != "text" || out.Metadata.WordCount != 3 {
		t.Fatalf("metadata: %+v", out.Metadata)
	}
}

func TestExtract_ImageUsesVisionModel(t *testing.T) {
	var model string
	srv := completionServer(t, "a red square", &model)
	defer srv.Close()

	p := NewProcessor(srv.URL, "key")
	out, err := p.Extract(context.Background(), "pic.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !out.Vision {
		t.Fatalf("image input must route through vision")
	}
	if out.Analysis != "a red square" {
		t.Fatalf("analysis: %q", out.Analysis)
	}
	if model != p.VisionModel {
		t.Fatalf("model: got %q want %q", model, p.VisionModel)
	}
	if out.Metadata.Method != "vision" {
		t.Fatalf("metadata: %+v", out.Metadata)
	}
}

func TestExtract_EmptyInputsRejected(t *testing.T) {
	p := NewProcessor("http://localhost:0", "key")

	if _, err := p.Extract(context.Background(), "f", "text/plain", nil); err == nil {
		t.Fatalf("empty file accepted")
	}
	if _, err := p.Extract(context.Background(), "f", "text/plain", []byte("   \n ")); err == nil ||
		!strings.Contains(err.Error(), "no content") {
		t.Fatalf("blank file: %v", err)
	}
}
