package openai

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
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Model != "gpt-4o-mini" || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"keywords\":[]}"}}],
			"usage": {"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10}
		}`))
	}))
	defer srv.Close()

	p := New()
	if err := p.Initialize(map[string]string{"api_key": "test-key", "base_url": srv.URL + "/v1/"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	resp, err := p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "hi", SystemPrompt: "json only"})
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if resp.Text != `{"keywords":[]}` || resp.PromptTokens != 7 || resp.FinishReason != "stop" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
