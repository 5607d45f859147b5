// internal/api/search_handlers.go
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VisualMediaTool/internal/media"
	"github.com/Corphon/VisualMediaTool/internal/models"
)

// SearchRequest 单个查询的素材搜索请求
type SearchRequest struct {
	Query     string   `json:"query" binding:"required"`
	Limit     int      `json:"limit"`
	MediaType string   `json:"media_type"`
	Providers []string `json:"providers"` // 为空时使用全部已启用的提供商
}

// SearchMedia 向已启用的提供商搜索素材并合并结果
func (h *Handler) SearchMedia(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorQueryRequired, "请求参数错误", err.Error())
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorQueryRequired, "查询不能为空")
		return
	}

	providers := make([]string, 0, len(req.Providers))
	for _, name := range req.Providers {
		canonical, ok := h.canonicalProvider(name)
		if !ok {
			h.Response.BadRequest(c, "未知的素材提供商: "+name)
			return
		}
		providers = append(providers, canonical)
	}

	results := h.Searcher.Search(c.Request.Context(), media.Request{
		Query:     query,
		Limit:     req.Limit,
		Kind:      models.ParseMediaKind(req.MediaType),
		Providers: providers,
	})

	h.Response.Success(c, gin.H{
		"query":   query,
		"results": results,
	})
}

// SearchBatch 批量搜索，结果按查询分组
func (h *Handler) SearchBatch(c *gin.Context) {
	var req struct {
		Queries   []string `json:"queries" binding:"required"`
		Limit     int      `json:"limit"`
		MediaType string   `json:"media_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorQueryRequired, "请求参数错误", err.Error())
		return
	}

	queries := cleanQueries(req.Queries)
	if len(queries) == 0 {
		h.Response.Error(c, http.StatusBadRequest, ErrorQueryRequired, "查询不能为空")
		return
	}

	results, err := h.Searcher.SearchMany(c.Request.Context(), queries, req.Limit, models.ParseMediaKind(req.MediaType))
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"results": results})
}

// cleanQueries 去掉空白查询
func cleanQueries(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
