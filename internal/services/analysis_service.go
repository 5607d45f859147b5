// internal/services/analysis_service.go
package services

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Corphon/VisualMediaTool/internal/analyzer"
	"github.com/Corphon/VisualMediaTool/internal/config"
	apperrors "github.com/Corphon/VisualMediaTool/internal/errors"
	"github.com/Corphon/VisualMediaTool/internal/models"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// AnalyzeOptions 单次分析的参数
type AnalyzeOptions struct {
	UseAI bool
	TopK  int
	Limit int
}

// AnalysisService 分析入口：按配置选择 AI 或确定性分析，并生成查询
type AnalysisService struct {
	ai           TextAnalyzer
	settings     *config.Manager
	defaultLimit int
	workers      int
	metrics      *utils.MetricsCollector
	logger       *utils.Logger
}

// NewAnalysisService 创建分析服务；ai 可以为 nil
func NewAnalysisService(ai TextAnalyzer, settings *config.Manager, cfg *config.Config, metrics *utils.MetricsCollector) *AnalysisService {
	return &AnalysisService{
		ai:           ai,
		settings:     settings,
		defaultLimit: cfg.QueryLimit,
		workers:      cfg.BatchWorkers,
		metrics:      metrics,
		logger:       utils.GetLogger(),
	}
}

// AIEnabled AI 开关是否打开
func (s *AnalysisService) AIEnabled() bool {
	return s.settings != nil && s.settings.Get().AIEnabled
}

// AIReady AI 是否打开且可用
func (s *AnalysisService) AIReady() bool {
	if !s.AIEnabled() || s.ai == nil {
		return false
	}
	ready, _ := s.ai.Ready()
	return ready
}

// Analyze 分析一段文本
func (s *AnalysisService) Analyze(ctx context.Context, text string, useAI bool) models.AnalysisOutcome {
	return s.AnalyzeWithOptions(ctx, text, AnalyzeOptions{UseAI: useAI})
}

// AnalyzeWithOptions 分析一段文本。AI 失败时回退到确定性分析并记录原因，从不返回错误
func (s *AnalysisService) AnalyzeWithOptions(ctx context.Context, text string, opts AnalyzeOptions) models.AnalysisOutcome {
	s.metrics.IncrementCounter(utils.MetricAnalysisRequests)

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	outcome := models.AnalysisOutcome{Source: models.SourceRAKE}

	if opts.UseAI && strings.TrimSpace(text) != "" {
		reason := ""
		switch {
		case !s.AIEnabled():
			reason = "ai disabled in settings"
		case s.ai == nil:
			reason = ErrAINotConfigured.Error()
		default:
			result := s.ai.Analyze(ctx, text)
			if result.OK() {
				outcome.Source = models.SourceAI
				outcome.Analysis = result.Analysis
			} else {
				reason = result.Err.Error()
			}
		}

		if reason != "" {
			outcome.FallbackReason = reason
			s.metrics.IncrementCounter(utils.MetricAnalysisAIFallbacks)
			s.logger.Warn("AI analysis unavailable, using RAKE", map[string]interface{}{
				"reason": reason,
			})
		}
	}

	if outcome.Source == models.SourceRAKE {
		outcome.Analysis = analyzer.AnalyzeTextWithOptions(text, analyzer.Options{TopK: opts.TopK})
	}
	outcome.Queries = analyzer.BuildQueries(outcome.Analysis, limit)

	s.metrics.IncrementCounter(utils.MetricAnalysisSourcePrefix + outcome.Source)
	return outcome
}

// AnalyzeBatch 并发分析多个文本块，输出顺序与输入一致
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, blocks []string, opts AnalyzeOptions) ([]models.AnalysisOutcome, error) {
	outcomes := make([]models.AnalysisOutcome, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.workers, 1))
	for i, block := range blocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome := s.AnalyzeWithOptions(gctx, block, opts)
			outcome.Block = block
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.FromContext(err, "批量分析超时")
	}
	return outcomes, nil
}

// SplitBlocks 按行切分，去掉空行
func SplitBlocks(text string) []string {
	blocks := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			blocks = append(blocks, line)
		}
	}
	return blocks
}
