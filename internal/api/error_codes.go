// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorTimeout       = "TIMEOUT"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// 分析相关错误
	ErrorTextRequired = "TEXT_REQUIRED"

	// 搜索相关错误
	ErrorQueryRequired = "QUERY_REQUIRED"

	// 会话相关错误
	ErrorSessionNotFound  = "SESSION_NOT_FOUND"
	ErrorSelectionInvalid = "SELECTION_INVALID"

	// 文件相关错误
	ErrorFileInvalid     = "FILE_INVALID"
	ErrorTimelineInvalid = "TIMELINE_INVALID"

	// 导出相关错误
	ErrorExportFailed = "EXPORT_FAILED"

	// 设置相关错误
	ErrorSettingsInvalid = "SETTINGS_INVALID"
)
