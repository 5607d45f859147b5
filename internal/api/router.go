// internal/api/router.go
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// RouterOptions 路由配置
type RouterOptions struct {
	DebugMode bool
	// SearchRatePerSecond 每个客户端IP的搜索频率上限，0 表示不限流
	SearchRatePerSecond float64
	SearchBurst         int
}

// SetupRouter 配置HTTP路由
func SetupRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	if !opts.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(requestLogger(utils.GetLogger()))

	// 启用CORS
	r.Use(corsMiddleware())

	var searchLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.SearchRatePerSecond > 0 {
		burst := opts.SearchBurst
		if burst <= 0 {
			burst = int(opts.SearchRatePerSecond*2) + 1
		}
		searchLimit = NewRateLimiter(opts.SearchRatePerSecond, burst).Middleware(handler.Response)
	}

	// WebSocket 支持
	r.GET("/ws/search", searchLimit, handler.WebSocketHandler.SearchStream)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/metrics", handler.GetMetrics)

		// ===============================
		// 设置相关路由
		// ===============================
		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("", handler.GetSettings)
			settingsGroup.PUT("", handler.SaveSettings)
		}

		// ===============================
		// 分析和查询
		// ===============================
		api.POST("/analyze", handler.AnalyzeText)
		api.POST("/queries", handler.BuildQueries)
		api.POST("/timeline/cues", handler.TimelineCues)

		// ===============================
		// 素材搜索
		// ===============================
		searchGroup := api.Group("/search", searchLimit)
		{
			searchGroup.POST("", handler.SearchMedia)
			searchGroup.POST("/batch", handler.SearchBatch)
		}

		// ===============================
		// 会话相关路由
		// ===============================
		sessionsGroup := api.Group("/sessions")
		{
			sessionsGroup.GET("", handler.ListSessions)
			sessionsGroup.POST("", handler.CreateSession)
			sessionsGroup.GET("/:id", handler.GetSession)
			sessionsGroup.PUT("/:id", handler.UpdateSession)
			sessionsGroup.DELETE("/:id", handler.DeleteSession)
			sessionsGroup.POST("/:id/select", handler.SelectResult)
			sessionsGroup.GET("/:id/export", handler.ExportSession)
		}
	}

	return r
}
