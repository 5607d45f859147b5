// internal/services/llm_service.go
package services

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Corphon/VisualMediaTool/internal/config"
	"github.com/Corphon/VisualMediaTool/internal/llm"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// ErrAINotConfigured 当前 AI 提供商缺少密钥或未注册
var ErrAINotConfigured = errors.New("ai provider not configured")

const structuredOutputInstruction = "Return your response in valid JSON format, following the provided output schema, without adding explanations or preambles."

// LLMService 提供统一的大语言模型调用接口
type LLMService struct {
	registry *llm.Registry
	cfg      *config.Config
	settings *config.Manager

	providerMutex sync.Mutex
	provider      llm.Provider
	providerKey   string

	cache *LLMCache
}

// LLMCache 按提示词缓存模型原始输出
type LLMCache struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	expiration time.Duration
	maxEntries int
}

type CacheEntry struct {
	Response  string
	CreatedAt time.Time
}

// NewLLMService 创建LLM服务；提供商与模型在每次调用时按当前设置解析
func NewLLMService(registry *llm.Registry, cfg *config.Config, settings *config.Manager) *LLMService {
	return &LLMService{
		registry: registry,
		cfg:      cfg,
		settings: settings,
		cache: &LLMCache{
			cache:      make(map[string]*CacheEntry),
			expiration: 10 * time.Minute,
			maxEntries: 500,
		},
	}
}

// currentSelection 返回当前设置下的提供商名称与模型
func (s *LLMService) currentSelection() (string, string) {
	name, model := s.cfg.AIProvider, s.cfg.AIModel
	if s.settings != nil {
		current := s.settings.Get()
		name, model = current.AIProvider, current.AIModel
	}
	return name, model
}

// Ready 检查当前提供商是否可用
func (s *LLMService) Ready() (bool, string) {
	name, _ := s.currentSelection()
	if s.cfg.AIKey(name) == "" {
		return false, fmt.Sprintf("missing api key for %s", name)
	}
	return true, name
}

// resolveProvider 获取（必要时创建）当前提供商实例
func (s *LLMService) resolveProvider() (llm.Provider, string, string, error) {
	name, model := s.currentSelection()
	apiKey := s.cfg.AIKey(name)
	if apiKey == "" {
		return nil, "", "", fmt.Errorf("%w: %s", ErrAINotConfigured, name)
	}

	key := name + "|" + model
	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()

	if s.provider != nil && s.providerKey == key {
		return s.provider, name, model, nil
	}

	provider, err := s.registry.GetProvider(name, map[string]string{
		"api_key":       apiKey,
		"default_model": model,
	})
	if err != nil {
		if errors.Is(err, llm.ErrUnknownProvider) {
			return nil, "", "", fmt.Errorf("%w: %s", ErrAINotConfigured, name)
		}
		return nil, "", "", fmt.Errorf("初始化提供商失败: %w", err)
	}

	s.provider = provider
	s.providerKey = key
	utils.GetLogger().Info("LLM provider initialized", map[string]interface{}{
		"provider": provider.GetName(),
		"model":    model,
	})
	return provider, name, model, nil
}

// CreateStructuredCompletion 请求JSON输出并解析到 outputSchema
func (s *LLMService) CreateStructuredCompletion(ctx context.Context, prompt string, systemPrompt string, outputSchema interface{}) error {
	provider, name, model, err := s.resolveProvider()
	if err != nil {
		return err
	}

	cacheKey := generateCacheKey(prompt, systemPrompt, model, name)
	if cached, ok := s.cache.get(cacheKey); ok {
		if err := llm.UnmarshalFlexible(cached, outputSchema); err == nil {
			return nil
		}
	}

	structuredSystemPrompt := systemPrompt
	if systemPrompt != "" {
		structuredSystemPrompt += "\n\n"
	}
	structuredSystemPrompt += structuredOutputInstruction

	resp, err := provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: structuredSystemPrompt,
		Temperature:  0.3,
		Model:        model,
	})
	if err != nil {
		return err
	}

	if err := llm.UnmarshalFlexible(resp.Text, outputSchema); err != nil {
		return fmt.Errorf("failed to parse AI response into structured data: %w", err)
	}

	s.cache.save(cacheKey, resp.Text)
	return nil
}

func generateCacheKey(prompt, systemPrompt, model, providerName string) string {
	hashInput := fmt.Sprintf("%s:::%s:::%s:::%s", prompt, systemPrompt, model, providerName)
	return fmt.Sprintf("%x", md5.Sum([]byte(hashInput)))
}

// get 从缓存中获取结果
func (c *LLMCache) get(key string) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	if !exists || time.Since(entry.CreatedAt) > c.expiration {
		return "", false
	}
	return entry.Response, true
}

// save 保存结果到缓存
func (c *LLMCache) save(key string, response string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = &CacheEntry{
		Response:  response,
		CreatedAt: time.Now(),
	}

	if len(c.cache) > c.maxEntries {
		c.cleanupOldest(len(c.cache) - c.maxEntries)
	}
}

// cleanupOldest 清理最旧的缓存条目
func (c *LLMCache) cleanupOldest(count int) {
	type keyAge struct {
		key string
		age time.Time
	}

	entries := make([]keyAge, 0, len(c.cache))
	for k, v := range c.cache {
		entries = append(entries, keyAge{k, v.CreatedAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].age.Before(entries[j].age)
	})

	for i := 0; i < min(count, len(entries)); i++ {
		delete(c.cache, entries[i].key)
	}
}
