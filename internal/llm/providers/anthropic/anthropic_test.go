package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Corphon/VisualMediaTool/internal/llm"
)

func TestCompleteText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" || r.Header.Get("Anthropic-Version") == "" {
			t.Errorf("missing auth headers")
		}

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["max_tokens"].(float64) != defaultMaxTokens {
			t.Errorf("max_tokens = %v", body["max_tokens"])
		}
		if body["system"] != "json only" {
			t.Errorf("system = %v", body["system"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"stop_reason":"end_turn","content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":5,"output_tokens":1}}`))
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
	if resp.Text != "ok" || resp.PromptTokens != 5 || resp.FinishReason != "end_turn" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCompleteText_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	p := New()
	_ = p.Initialize(map[string]string{"api_key": "k", "base_url": srv.URL})
	if _, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for empty content")
	}
}
