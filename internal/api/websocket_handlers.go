// internal/api/websocket_handlers.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/VisualMediaTool/internal/media"
	"github.com/Corphon/VisualMediaTool/internal/models"
	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// StreamRequest 客户端发来的一批查询
type StreamRequest struct {
	Queries   []string `json:"queries"`
	Limit     int      `json:"limit"`
	MediaType string   `json:"media_type"`
}

// WebSocketHandler 处理 WebSocket 相关的 HTTP 请求
type WebSocketHandler struct {
	searcher *media.Searcher
	metrics  *utils.MetricsCollector
	logger   *utils.Logger
	readWait time.Duration
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler(searcher *media.Searcher, metrics *utils.MetricsCollector) *WebSocketHandler {
	return &WebSocketHandler{
		searcher: searcher,
		metrics:  metrics,
		logger:   utils.GetLogger(),
		readWait: pongWait,
	}
}

// SearchStream 逐个查询推送搜索结果。
// 每个请求返回若干 results 消息，最后是一条 done 消息。
func (wh *WebSocketHandler) SearchStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wh.logger.Warn("WebSocket 升级失败", map[string]interface{}{"error": err.Error()})
		return
	}

	client := newStreamClient(conn, wh.readWait)
	defer client.Close()
	go client.keepAlive()

	wh.metrics.IncGauge(utils.MetricActiveStreams)
	defer wh.metrics.DecGauge(utils.MetricActiveStreams)

	ctx := c.Request.Context()
	for {
		// 推送期间没有读取，pong 不会续期
		if err := client.extendReadDeadline(); err != nil {
			return
		}

		var req StreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wh.logger.Debug("WebSocket 连接异常关闭", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		queries := cleanQueries(req.Queries)
		if len(queries) == 0 {
			if err := client.SendError("queries is required"); err != nil {
				return
			}
			continue
		}

		sent := 0
		err := wh.searcher.SearchEach(ctx, queries, req.Limit, models.ParseMediaKind(req.MediaType),
			func(query string, results []models.MediaResult) error {
				sent++
				return client.SendMessage(map[string]interface{}{
					"type":    "results",
					"query":   query,
					"results": results,
				})
			})
		if err != nil {
			wh.logger.Debug("流式搜索中断", map[string]interface{}{
				"error": err.Error(),
				"sent":  sent,
			})
			return
		}

		if err := client.SendMessage(map[string]interface{}{"type": "done", "count": sent}); err != nil {
			return
		}
	}
}
