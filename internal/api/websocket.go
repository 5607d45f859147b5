// internal/api/websocket.go
package api

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 本地工具，允许任意来源
		return true
	},
}

// WebSocketConnection 定义 WebSocket 连接的接口
type WebSocketConnection interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// StreamClient 一个流式搜索连接
type StreamClient struct {
	conn      WebSocketConnection
	writeMu   sync.Mutex
	closed    int32 // 原子操作标志，0=开启，1=关闭
	done      chan struct{}
	readWait  time.Duration
	createdAt time.Time
}

func newStreamClient(conn WebSocketConnection, readWait time.Duration) *StreamClient {
	client := &StreamClient{
		conn:      conn,
		done:      make(chan struct{}),
		readWait:  readWait,
		createdAt: time.Now(),
	}

	client.extendReadDeadline()
	conn.SetPongHandler(func(string) error {
		return client.extendReadDeadline()
	})
	return client
}

// extendReadDeadline 重置读超时；pong 只在读取时处理，长时间推送后需要手动重置
func (client *StreamClient) extendReadDeadline() error {
	return client.conn.SetReadDeadline(time.Now().Add(client.readWait))
}

// keepAlive 定期发送ping，直到连接关闭
func (client *StreamClient) keepAlive() {
	ticker := time.NewTicker(client.readWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				client.Close()
				return
			}
		case <-client.done:
			return
		}
	}
}

// Close 安全关闭客户端连接
func (client *StreamClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		close(client.done)
		client.conn.Close()
	}
}

// IsClosed 检查连接是否已关闭
func (client *StreamClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// SendMessage 发送一条JSON消息
func (client *StreamClient) SendMessage(message map[string]interface{}) error {
	if client.IsClosed() {
		return websocket.ErrCloseSent
	}

	client.writeMu.Lock()
	defer client.writeMu.Unlock()

	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return client.conn.WriteJSON(message)
}

// SendError 发送错误消息到客户端
func (client *StreamClient) SendError(errorMsg string) error {
	return client.SendMessage(map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
