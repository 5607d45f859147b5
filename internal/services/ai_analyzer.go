// internal/services/ai_analyzer.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/Corphon/VisualMediaTool/internal/errors"
	"github.com/Corphon/VisualMediaTool/internal/models"
)

// ErrTooFewKeywords AI 结果清洗后关键词不足
var ErrTooFewKeywords = errors.New("ai returned too few usable keywords")

// AI 结果清洗上限
const (
	aiMaxKeywords    = 15
	aiMaxEntities    = 5
	aiMaxActions     = 5
	aiMaxEmotions    = 3
	aiMaxPhraseWords = 4
	aiMinKeywords    = 5
	aiKeywordScore   = 1.0
)

const aiSystemPrompt = "You are analyzing a script to find stock footage. Extract visual search terms."

const aiPromptTemplate = `Script:
%s

Extract and provide:
1. **Visual Keywords**: 15 SHORT, searchable terms (1-3 words each, max 4 words)
   - Focus on: objects, locations, scenes, activities, visual elements
   - Keep it SIMPLE and SEARCHABLE
   - Examples: "sunset beach", "professional kitchen", "chef cooking", "city street"

2. **Named Entities**: Specific names only (max 5)
   - Examples: "New York", "Golden Gate Bridge"

3. **Actions/Verbs**: Single action words or short phrases (max 5)
   - Examples: "cooking", "running", "typing"

4. **Emotional Tones**: Mood keywords (max 3)
   - Examples: "happy", "dramatic", "peaceful"

RULES:
- Each keyword must be 1-4 words maximum
- Use simple, common search terms
- Think like stock footage search queries

Respond ONLY with JSON in this exact format:
{"keywords": ["keyword1"], "entities": ["Entity1"], "actions": ["action1"], "emotions": ["emotion1"]}`

// AIAnalysisResult AI 分析的显式结果：成功时 Err 为 nil
type AIAnalysisResult struct {
	Analysis models.Analysis
	Err      error
}

// OK 是否成功
func (r AIAnalysisResult) OK() bool {
	return r.Err == nil
}

// TextAnalyzer 可替换的 AI 分析器
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) AIAnalysisResult
	Ready() (bool, string)
}

// StructuredCompleter 能返回结构化 JSON 的模型调用
type StructuredCompleter interface {
	CreateStructuredCompletion(ctx context.Context, prompt string, systemPrompt string, outputSchema interface{}) error
	Ready() (bool, string)
}

// AIAnalyzer 通过大模型提取关键词
type AIAnalyzer struct {
	llm     StructuredCompleter
	timeout time.Duration
}

// NewAIAnalyzer 创建 AI 分析器
func NewAIAnalyzer(completer StructuredCompleter, timeout time.Duration) *AIAnalyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AIAnalyzer{llm: completer, timeout: timeout}
}

type aiPayload struct {
	Keywords []string `json:"keywords"`
	Entities []string `json:"entities"`
	Actions  []string `json:"actions"`
	Emotions []string `json:"emotions"`
}

// Ready 检查底层模型是否可用
func (a *AIAnalyzer) Ready() (bool, string) {
	if a == nil || a.llm == nil {
		return false, "ai analyzer not configured"
	}
	return a.llm.Ready()
}

// Analyze 调用模型并清洗输出；任何失败都以 Err 返回，不会 panic
func (a *AIAnalyzer) Analyze(ctx context.Context, text string) AIAnalysisResult {
	if a == nil || a.llm == nil {
		return AIAnalysisResult{Err: ErrAINotConfigured}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var payload aiPayload
	if err := a.llm.CreateStructuredCompletion(ctx, fmt.Sprintf(aiPromptTemplate, text), aiSystemPrompt, &payload); err != nil {
		return AIAnalysisResult{Err: apperrors.FromContext(err, "AI 分析超时")}
	}

	analysis := cleanAIPayload(payload)
	if len(analysis.Keywords) < aiMinKeywords {
		return AIAnalysisResult{Err: fmt.Errorf("%w: got %d", ErrTooFewKeywords, len(analysis.Keywords))}
	}
	return AIAnalysisResult{Analysis: analysis}
}

// cleanAIPayload 去空白、去重（不区分大小写）、限制长度与数量
func cleanAIPayload(p aiPayload) models.Analysis {
	a := models.NewAnalysis()
	for _, k := range cleanTerms(p.Keywords, aiMaxKeywords, aiMaxPhraseWords) {
		a.Keywords = append(a.Keywords, models.Keyword{Phrase: k, Score: aiKeywordScore})
	}
	a.Entities = cleanTerms(p.Entities, aiMaxEntities, 0)
	a.Actions = cleanTerms(p.Actions, aiMaxActions, 0)
	a.Emotions = cleanTerms(p.Emotions, aiMaxEmotions, 0)
	return a
}

func cleanTerms(terms []string, maxN, maxWords int) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range terms {
		t = strings.Join(strings.Fields(t), " ")
		if t == "" {
			continue
		}
		if maxWords > 0 && len(strings.Fields(t)) > maxWords {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if len(out) == maxN {
			break
		}
	}
	return out
}
