// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VisualMediaTool/internal/api"
	"github.com/Corphon/VisualMediaTool/internal/config"
	"github.com/Corphon/VisualMediaTool/internal/export"
	"github.com/Corphon/VisualMediaTool/internal/llm"
	"github.com/Corphon/VisualMediaTool/internal/llm/providers/anthropic"
	"github.com/Corphon/VisualMediaTool/internal/llm/providers/google"
	"github.com/Corphon/VisualMediaTool/internal/llm/providers/openai"
	"github.com/Corphon/VisualMediaTool/internal/media"
	"github.com/Corphon/VisualMediaTool/internal/services"
	"github.com/Corphon/VisualMediaTool/internal/storage"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

const (
	shutdownTimeout = 30 * time.Second
	// 每个客户端IP的搜索接口频率
	clientSearchRate  = 5
	clientSearchBurst = 20
)

// App 应用程序的全部依赖，按依赖顺序显式构造
type App struct {
	Config   *config.Config
	Settings *config.Manager
	Metrics  *utils.MetricsCollector
	Storage  *storage.FileStorage

	LLMService      *services.LLMService
	AnalysisService *services.AnalysisService
	SessionService  *services.SessionService
	Searcher        *media.Searcher

	Handler *api.Handler
	Router  *gin.Engine

	logger *utils.Logger
}

// NewRegistry 注册内置的大模型提供者
func NewRegistry() *llm.Registry {
	registry := llm.NewRegistry()
	registry.Register(config.ProviderGoogle, google.New)
	registry.Register(config.ProviderAnthropic, anthropic.New)
	registry.Register(config.ProviderOpenAI, openai.New)
	return registry
}

// NewMediaProviders 按固定顺序创建素材提供商，没有密钥的提供商处于禁用状态
func NewMediaProviders(cfg *config.Config) []media.Provider {
	opts := []media.Option{media.WithTimeout(cfg.SearchTimeout())}
	return []media.Provider{
		media.NewPexels(cfg.PexelsAPIKey, opts...),
		media.NewPixabay(cfg.PixabayAPIKey, opts...),
		media.NewUnsplash(cfg.UnsplashAccessKey, opts...),
	}
}

// NewSearcher 创建带限流和指标的搜索器
func NewSearcher(cfg *config.Config, metrics *utils.MetricsCollector) *media.Searcher {
	return media.NewSearcher(NewMediaProviders(cfg),
		media.WithRateLimit(cfg.SearchRatePerSecond),
		media.WithWorkers(cfg.BatchWorkers),
		media.WithMetrics(metrics),
		media.WithLogger(utils.GetLogger()),
	)
}

// NewAnalysisService 创建带AI分析器的分析服务
func NewAnalysisService(cfg *config.Config, settings *config.Manager, metrics *utils.MetricsCollector) (*services.AnalysisService, *services.LLMService) {
	llmService := services.NewLLMService(NewRegistry(), cfg, settings)
	analyzer := services.NewAIAnalyzer(llmService, cfg.AITimeout())
	return services.NewAnalysisService(analyzer, settings, cfg, metrics), llmService
}

// New 初始化所有服务（按依赖顺序）
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := utils.GetLogger()

	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	settings, err := config.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化设置失败: %w", err)
	}

	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("初始化存储失败: %w", err)
	}

	metrics := utils.NewMetricsCollector()
	analysisService, llmService := NewAnalysisService(cfg, settings, metrics)
	searcher := NewSearcher(cfg, metrics)

	var uploader export.Uploader
	if cfg.S3.Enabled() {
		s3Uploader, err := export.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			fileStorage.Close()
			return nil, fmt.Errorf("初始化S3上传失败: %w", err)
		}
		uploader = s3Uploader
		logger.Info("导出文件将上传到S3", map[string]interface{}{"bucket": cfg.S3.Bucket})
	}

	sessionService := services.NewSessionService(
		storage.NewSessionStore(fileStorage),
		filepath.Join(cfg.DataDir, "exports"),
		uploader,
		metrics,
	)

	handler := api.NewHandler(analysisService, sessionService, searcher, settings, metrics, cfg)
	router := api.SetupRouter(handler, api.RouterOptions{
		DebugMode:           cfg.DebugMode,
		SearchRatePerSecond: clientSearchRate,
		SearchBurst:         clientSearchBurst,
	})

	if ready, reason := llmService.Ready(); !ready && settings.Get().AIEnabled {
		logger.Warn("AI 分析不可用，将使用确定性分析", map[string]interface{}{"reason": reason})
	}
	logger.Info("服务初始化完成", map[string]interface{}{
		"providers": searcher.Active(),
		"data_dir":  cfg.DataDir,
	})

	return &App{
		Config:          cfg,
		Settings:        settings,
		Metrics:         metrics,
		Storage:         fileStorage,
		LLMService:      llmService,
		AnalysisService: analysisService,
		SessionService:  sessionService,
		Searcher:        searcher,
		Handler:         handler,
		Router:          router,
		logger:          logger,
	}, nil
}

// Run 启动HTTP服务，ctx 结束后优雅关闭
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("服务器启动", map[string]interface{}{"addr": "http://localhost:" + a.Config.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("启动服务器失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("正在关闭服务器...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器强制关闭: %w", err)
	}
	a.logger.Info("服务器优雅关闭完成", nil)
	return nil
}

// Close 释放存储等资源
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
	}
}
