package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Corphon/VisualMediaTool/internal/llm"
)

func TestCompleteText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-1.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key")
		}

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["systemInstruction"]; !ok {
			t.Errorf("system prompt not sent")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"keywords\":"},{"text":"[]}"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":4}}`))
	}))
	defer srv.Close()

	p := New()
	if err := p.Initialize(map[string]string{"api_key": "test-key", "base_url": srv.URL}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	resp, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "hi", SystemPrompt: "json only"})
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if resp.Text != `{"keywords":[]}` || resp.FinishReason != "STOP" || resp.OutputTokens != 4 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCompleteText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	p := New()
	_ = p.Initialize(map[string]string{"api_key": "bad", "base_url": srv.URL})

	_, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestInitialize_RequiresKey(t *testing.T) {
	if err := New().Initialize(map[string]string{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
