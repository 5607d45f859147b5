// internal/api/session_handlers.go
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

// 会话相关处理器
// ----------------------------------------

// CreateSession 保存新会话
func (h *Handler) CreateSession(c *gin.Context) {
	var session models.Session
	if err := c.ShouldBindJSON(&session); err != nil {
		h.Response.BadRequest(c, "无效的会话数据", err.Error())
		return
	}

	stored, err := h.SessionService.Create(session)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	h.Response.Created(c, stored, "会话已保存")
}

// ListSessions 获取所有会话，最近更新的在前
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.SessionService.List()
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	h.Response.Success(c, sessions)
}

// GetSession 获取单个会话
func (h *Handler) GetSession(c *gin.Context) {
	stored, err := h.SessionService.Get(c.Param("id"))
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	h.Response.Success(c, stored)
}

// UpdateSession 覆盖会话内容
func (h *Handler) UpdateSession(c *gin.Context) {
	var session models.Session
	if err := c.ShouldBindJSON(&session); err != nil {
		h.Response.BadRequest(c, "无效的会话数据", err.Error())
		return
	}

	stored, err := h.SessionService.Update(c.Param("id"), session)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	h.Response.Success(c, stored, "会话已更新")
}

// DeleteSession 删除会话
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.SessionService.Delete(c.Param("id")); err != nil {
		h.Response.HandleError(c, err)
		return
	}

	h.Response.Success(c, nil, "会话已删除")
}

// SelectResult 为某个查询选定一条素材
func (h *Handler) SelectResult(c *gin.Context) {
	var req struct {
		Query  string             `json:"query" binding:"required"`
		Result models.MediaResult `json:"result"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorSelectionInvalid, "请求参数错误", err.Error())
		return
	}

	stored, err := h.SessionService.Select(c.Param("id"), req.Query, req.Result)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	h.Response.Success(c, stored, "已选定素材")
}

// ExportSession 导出会话中的选定素材并作为文件下载
func (h *Handler) ExportSession(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", models.ExportCSV))

	result, err := h.SessionService.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	content, err := os.ReadFile(result.FilePath)
	if err != nil {
		h.Response.Error(c, http.StatusInternalServerError, ErrorExportFailed, "读取导出文件失败")
		return
	}

	c.Header("X-Export-Rows", strconv.Itoa(result.RowCount))
	if result.RemoteURL != "" {
		c.Header("X-Export-Remote-URL", result.RemoteURL)
	}
	h.Response.DownloadResponse(c, content, filepath.Base(result.FilePath), exportContentType(result.Format))
}
