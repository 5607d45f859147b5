// internal/api/response_helpers.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/VisualMediaTool/internal/errors"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// ResponseHelper 响应助手类
type ResponseHelper struct {
	logger *utils.Logger
}

// NewResponseHelper 创建响应助手
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{logger: utils.GetLogger()}
}

// Success 成功响应
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// Created 创建成功响应
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	} else {
		response.Message = "资源创建成功"
	}

	c.JSON(http.StatusCreated, response)
}

// sanitizeErrorMessage 含有密钥类字样的消息整体替换
func sanitizeErrorMessage(message string) string {
	lower := strings.ToLower(message)
	for _, pattern := range []string{"api_key", "apikey", "secret", "token", "password"} {
		if strings.Contains(lower, pattern) {
			return "An internal error occurred"
		}
	}
	return message
}

// Error 错误响应
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: sanitizeErrorMessage(message),
	}

	if len(details) > 0 {
		apiError.Details = sanitizeErrorMessage(details[0])
	}

	response := &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	c.JSON(statusCode, response)
}

// BadRequest 400错误响应
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

// NotFound 404错误响应
func (rh *ResponseHelper) NotFound(c *gin.Context, resource string, details ...string) {
	message := resource + "不存在"
	code := ErrorNotFound
	if resource != "" {
		code = rh.getResourceNotFoundCode(resource)
	}
	rh.Error(c, http.StatusNotFound, code, message, details...)
}

// InternalError 500错误响应
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

// TooManyRequests 429错误响应
func (rh *ResponseHelper) TooManyRequests(c *gin.Context) {
	rh.Error(c, http.StatusTooManyRequests, ErrorRateLimited, "请求过于频繁，请稍后再试")
}

// HandleError 按错误类型映射HTTP状态码
func (rh *ResponseHelper) HandleError(c *gin.Context, err error) {
	var appError *apperrors.AppError
	if errors.As(err, &appError) {
		switch appError.Type {
		case apperrors.ErrorTypeValidation:
			rh.Error(c, http.StatusBadRequest, appError.Code, appError.Message)
			return
		case apperrors.ErrorTypeNotFound:
			rh.Error(c, http.StatusNotFound, appError.Code, appError.Message)
			return
		case apperrors.ErrorTypeTimeout:
			rh.Error(c, http.StatusGatewayTimeout, appError.Code, appError.Message)
			return
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		rh.Error(c, http.StatusGatewayTimeout, ErrorTimeout, "请求超时")
		return
	}

	rh.logger.Error("请求处理失败", map[string]interface{}{
		"path":       c.FullPath(),
		"request_id": rh.getRequestID(c),
		"error":      err.Error(),
	})
	message := "服务器内部错误"
	if appError != nil {
		message = appError.Message
	}
	rh.InternalError(c, message)
}

// DownloadResponse 下载响应（强制下载）
func (rh *ResponseHelper) DownloadResponse(c *gin.Context, content []byte, filename string, contentType string) {
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Length", fmt.Sprintf("%d", len(content)))
	c.Data(http.StatusOK, contentType, content)
}

// getRequestID 获取请求ID
func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	if requestID := c.GetString("request_id"); requestID != "" {
		return requestID
	}
	return ""
}

// getResourceNotFoundCode 根据资源类型生成错误代码
func (rh *ResponseHelper) getResourceNotFoundCode(resource string) string {
	switch resource {
	case "会话", "session":
		return ErrorSessionNotFound
	default:
		return "RESOURCE_NOT_FOUND"
	}
}

// exportContentType 导出格式对应的 Content-Type
func exportContentType(format string) string {
	if strings.EqualFold(format, "json") {
		return "application/json; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}
