// internal/llm/providers/google/google.go
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Corphon/VisualMediaTool/internal/llm"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
)

// New 创建未初始化的 Gemini 提供者
func New() llm.Provider {
	return &Provider{
		recommendedModels: []string{
			"gemini-1.5-flash",
			"gemini-2.0-flash",
			"gemini-2.5-flash",
		},
		baseURL: defaultBaseURL,
	}
}

type Provider struct {
	apiKey            string
	baseURL           string
	client            *http.Client
	defaultModel      string
	recommendedModels []string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("google_api密钥未提供")
	}

	p.apiKey = apiKey
	p.client = &http.Client{}

	if model, exists := config["default_model"]; exists && model != "" {
		p.defaultModel = model
	} else {
		p.defaultModel = defaultModel
	}

	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}

	return nil
}

func (p *Provider) GetName() string {
	return "google gemini"
}

func (p *Provider) GetSupportedModels() []string {
	return p.recommendedModels
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	// 构建Gemini请求
	generationConfig := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		generationConfig["maxOutputTokens"] = req.MaxTokens
	}

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"role": "user", "parts": []map[string]string{{"text": req.Prompt}}},
		},
		"generationConfig": generationConfig,
	}

	if req.SystemPrompt != "" {
		requestBody["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]string{{"text": req.SystemPrompt}},
		}
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	// 构建URL (注意Gemini API的结构与OpenAI不同)
	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, url.PathEscape(model), url.QueryEscape(p.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	// 检查错误
	if httpResp.StatusCode != http.StatusOK {
		var errorResp map[string]interface{}
		body, _ := io.ReadAll(httpResp.Body)
		if err := json.Unmarshal(body, &errorResp); err == nil {
			if errorObj, ok := errorResp["error"].(map[string]interface{}); ok {
				return nil, fmt.Errorf("google gemini API错误(%d): %v",
					httpResp.StatusCode, errorObj["message"])
			}
		}
		return nil, fmt.Errorf("google gemini API错误(%d): %s", httpResp.StatusCode, string(body))
	}

	// 解析响应
	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return nil, err
	}

	if len(response.Candidates) == 0 {
		return nil, errors.New("google gemini未返回任何结果")
	}

	var resultText strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		resultText.WriteString(part.Text)
	}

	return &llm.CompletionResponse{
		Text:         resultText.String(),
		FinishReason: response.Candidates[0].FinishReason,
		PromptTokens: response.UsageMetadata.PromptTokenCount,
		OutputTokens: response.UsageMetadata.CandidatesTokenCount,
		ModelName:    model,
		ProviderName: p.GetName(),
	}, nil
}
