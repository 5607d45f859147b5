// internal/api/middleware.go
package api

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Corphon/VisualMediaTool/internal/utils"
)

// RateLimiter 按客户端维护令牌桶
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor

	stop chan struct{}
	once sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 每个客户端每秒 rps 个请求，突发 burst 个
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		stop:     make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// cleanup 移除一小时内没有请求的客户端
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if time.Since(v.lastSeen) > time.Hour {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Close 停止清理协程
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Allow 检查客户端是否还有令牌
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// remaining 当前可用令牌数（向下取整）
func (rl *RateLimiter) remaining(key string) int {
	tokens := rl.limiter(key).Tokens()
	return int(math.Max(0, math.Floor(tokens)))
}

// Middleware 按客户端IP限流
func (rl *RateLimiter) Middleware(response *ResponseHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		allowed := rl.Allow(key)
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.burst))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", rl.remaining(key)))

		if !allowed {
			response.TooManyRequests(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

// requestIDMiddleware 为每个请求分配ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// requestLogger 请求日志
func requestLogger(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  c.GetString("request_id"),
		}
		if c.Writer.Status() >= 500 {
			logger.Warn("请求失败", fields)
			return
		}
		logger.Debug("请求完成", fields)
	}
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
