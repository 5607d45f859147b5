// internal/api/analysis_handlers.go
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VisualMediaTool/internal/analyzer"
	"github.com/Corphon/VisualMediaTool/internal/models"
	"github.com/Corphon/VisualMediaTool/internal/services"
	"github.com/Corphon/VisualMediaTool/internal/timeline"
)

// maxTimelineBytes 时间线文件的大小上限
const maxTimelineBytes = 10 << 20

// AnalyzeRequest 文本分析请求
type AnalyzeRequest struct {
	Text  string `json:"text" binding:"required"`
	UseAI *bool  `json:"use_ai"` // 缺省时尝试AI
	TopK  int    `json:"top_k"`
	Limit int    `json:"limit"`
	Batch bool   `json:"batch"` // 每个非空行单独分析
}

func (r AnalyzeRequest) options() services.AnalyzeOptions {
	return services.AnalyzeOptions{
		UseAI: r.UseAI == nil || *r.UseAI,
		TopK:  r.TopK,
		Limit: r.Limit,
	}
}

// AnalyzeText 分析文本并生成搜索查询
func (h *Handler) AnalyzeText(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorTextRequired, "请求参数错误", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorTextRequired, "文本不能为空")
		return
	}

	if !req.Batch {
		outcome := h.AnalysisService.AnalyzeWithOptions(c.Request.Context(), req.Text, req.options())
		h.Response.Success(c, outcome)
		return
	}

	blocks := services.SplitBlocks(req.Text)
	outcomes, err := h.AnalysisService.AnalyzeBatch(c.Request.Context(), blocks, req.options())
	if err != nil {
		h.Response.HandleError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"outcomes": outcomes})
}

// BuildQueries 由已有的分析结果生成查询
func (h *Handler) BuildQueries(c *gin.Context) {
	var req struct {
		Analysis models.Analysis `json:"analysis"`
		Limit    int             `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求参数错误", err.Error())
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = h.queryLimit
	}
	h.Response.Success(c, gin.H{"queries": analyzer.BuildQueries(req.Analysis, limit)})
}

// TimelineCues 从 OTIO 时间线中提取提示，可选逐条分析
func (h *Handler) TimelineCues(c *gin.Context) {
	body, err := h.readTimeline(c)
	if err != nil {
		h.Response.Error(c, http.StatusBadRequest, ErrorFileInvalid, "读取时间线失败", err.Error())
		return
	}

	cues, err := timeline.ParseCues(body)
	if err != nil {
		if errors.Is(err, timeline.ErrNotTimeline) {
			h.Response.Error(c, http.StatusBadRequest, ErrorTimelineInvalid, "不是有效的 OTIO 时间线", err.Error())
			return
		}
		h.Response.HandleError(c, err)
		return
	}

	data := gin.H{"cues": cues}
	if analyze, _ := strconv.ParseBool(c.Query("analyze")); analyze {
		useAI := true
		if v, err := strconv.ParseBool(c.Query("use_ai")); err == nil {
			useAI = v
		}

		blocks := make([]string, 0, len(cues))
		for _, cue := range cues {
			blocks = append(blocks, cue.Text())
		}
		outcomes, err := h.AnalysisService.AnalyzeBatch(c.Request.Context(), blocks, services.AnalyzeOptions{UseAI: useAI})
		if err != nil {
			h.Response.HandleError(c, err)
			return
		}
		data["outcomes"] = outcomes
	}

	h.Response.Success(c, data)
}

// readTimeline 支持 multipart 的 file 字段或原始 JSON 请求体
func (h *Handler) readTimeline(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxTimelineBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	return io.ReadAll(c.Request.Body)
}
