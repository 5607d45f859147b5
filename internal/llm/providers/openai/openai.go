// internal/llm/providers/openai/openai.go
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Corphon/VisualMediaTool/internal/llm"
)

// New 创建未初始化的 OpenAI 提供者
func New() llm.Provider {
	return &Provider{
		recommendedModels: []string{
			"gpt-4o-mini",
			"gpt-4o",
		},
	}
}

type Provider struct {
	client            *openai.Client
	defaultModel      string
	recommendedModels []string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("openai api密钥未提供")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	p.client = &client

	if model, exists := config["default_model"]; exists && model != "" {
		p.defaultModel = model
	} else {
		p.defaultModel = "gpt-4o-mini"
	}

	return nil
}

func (p *Provider) GetName() string {
	return "OpenAI"
}

func (p *Provider) GetSupportedModels() []string {
	return p.recommendedModels
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(float64(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	response, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api错误: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, errors.New("openai未返回任何结果")
	}

	return &llm.CompletionResponse{
		Text:         response.Choices[0].Message.Content,
		FinishReason: string(response.Choices[0].FinishReason),
		PromptTokens: int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		ModelName:    response.Model,
		ProviderName: p.GetName(),
	}, nil
}
