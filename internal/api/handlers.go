// internal/api/handlers.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VisualMediaTool/internal/config"
	"github.com/Corphon/VisualMediaTool/internal/media"
	"github.com/Corphon/VisualMediaTool/internal/services"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// Handler 处理API请求
type Handler struct {
	// 核心服务
	AnalysisService *services.AnalysisService // 分析服务
	SessionService  *services.SessionService  // 会话服务
	Searcher        *media.Searcher           // 素材搜索
	Settings        *config.Manager           // 运行时设置
	Metrics         *utils.MetricsCollector   // 指标

	WebSocketHandler *WebSocketHandler // WebSocket 处理器
	Response         *ResponseHelper   // 响应助手

	queryLimit int
	startedAt  time.Time
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewHandler 创建API处理器
func NewHandler(
	analysisService *services.AnalysisService,
	sessionService *services.SessionService,
	searcher *media.Searcher,
	settings *config.Manager,
	metrics *utils.MetricsCollector,
	cfg *config.Config,
) *Handler {
	h := &Handler{
		AnalysisService: analysisService,
		SessionService:  sessionService,
		Searcher:        searcher,
		Settings:        settings,
		Metrics:         metrics,
		Response:        NewResponseHelper(),
		queryLimit:      cfg.QueryLimit,
		startedAt:       time.Now(),
	}
	h.WebSocketHandler = NewWebSocketHandler(searcher, metrics)

	// 启动时按已保存的设置同步提供商开关
	h.syncProviderToggles(settings.Get())
	return h
}

// syncProviderToggles 将设置中的开关同步到搜索器
func (h *Handler) syncProviderToggles(s config.Settings) {
	for _, p := range h.Searcher.Providers() {
		h.Searcher.SetEnabled(p.Name(), s.ProviderEnabled(p.Name()))
	}
}

// ------------------------------------------------
// Health 服务状态
func (h *Handler) Health(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"status":            "ok",
		"uptime_seconds":    int64(time.Since(h.startedAt).Seconds()),
		"ai_enabled":        h.AnalysisService.AIEnabled(),
		"ai_ready":          h.AnalysisService.AIReady(),
		"enabled_providers": h.Searcher.Active(),
	})
}

// GetMetrics 指标快照
func (h *Handler) GetMetrics(c *gin.Context) {
	h.Response.Success(c, h.Metrics.GetMetrics())
}

// providerStatus 设置页中单个素材提供商的状态
type providerStatus struct {
	Name       string `json:"name"`
	Enabled    bool   `json:"enabled"`
	Configured bool   `json:"configured"` // 是否配置了密钥
}

func (h *Handler) settingsView(s config.Settings) gin.H {
	providers := make([]providerStatus, 0, len(h.Searcher.Providers()))
	for _, p := range h.Searcher.Providers() {
		providers = append(providers, providerStatus{
			Name:       p.Name(),
			Enabled:    s.ProviderEnabled(p.Name()),
			Configured: p.Enabled(),
		})
	}

	return gin.H{
		"ai_enabled":   s.AIEnabled,
		"ai_provider":  s.AIProvider,
		"ai_model":     s.AIModel,
		"ai_ready":     h.AnalysisService.AIReady(),
		"ai_providers": []string{config.ProviderGoogle, config.ProviderAnthropic, config.ProviderOpenAI},
		"providers":    providers,
	}
}

// GetSettings 获取设置（不返回任何密钥）
func (h *Handler) GetSettings(c *gin.Context) {
	h.Response.Success(c, h.settingsView(h.Settings.Get()), "设置获取成功")
}

// SaveSettings 更新设置
func (h *Handler) SaveSettings(c *gin.Context) {
	var req struct {
		AIEnabled  *bool           `json:"ai_enabled"`
		AIProvider *string         `json:"ai_provider"`
		AIModel    *string         `json:"ai_model"`
		Providers  map[string]bool `json:"providers"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	toggles := make(map[string]bool, len(req.Providers))
	for name, enabled := range req.Providers {
		canonical, ok := h.canonicalProvider(name)
		if !ok {
			h.Response.Error(c, http.StatusBadRequest, ErrorSettingsInvalid, "未知的素材提供商: "+name)
			return
		}
		toggles[canonical] = enabled
	}

	updated, err := h.Settings.Update(func(s *config.Settings) {
		if req.AIEnabled != nil {
			s.AIEnabled = *req.AIEnabled
		}
		if req.AIProvider != nil {
			s.AIProvider = strings.ToLower(strings.TrimSpace(*req.AIProvider))
		}
		if req.AIModel != nil {
			s.AIModel = strings.TrimSpace(*req.AIModel)
		}
		for name, enabled := range toggles {
			s.Providers[name] = enabled
		}
	})
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	h.syncProviderToggles(updated)
	h.Response.Success(c, h.settingsView(updated), "设置已保存")
}

// canonicalProvider 提供商名称不区分大小写
func (h *Handler) canonicalProvider(name string) (string, bool) {
	for _, p := range h.Searcher.Providers() {
		if strings.EqualFold(p.Name(), strings.TrimSpace(name)) {
			return p.Name(), true
		}
	}
	return name, false
}
