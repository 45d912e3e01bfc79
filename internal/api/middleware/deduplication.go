package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deduplicator 在時間窗內擋下內容相同的 POST 請求（例如重複送出同一張菜單照片）
type Deduplicator struct {
	window   time.Duration
	mu       sync.Mutex
	requests map[string]time.Time
	done     chan struct{}
	once     sync.Once
}

// NewDeduplicator 創建去重器並啟動定期清理
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	d := &Deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
		done:     make(chan struct{}),
	}
	go d.cleanupLoop()
	return d
}

// Stop 停止清理協程
func (d *Deduplicator) Stop() {
	d.once.Do(func() { close(d.done) })
}

func (d *Deduplicator) cleanupLoop() {
	ticker := time.NewTicker(10 * d.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			d.mu.Lock()
			for k, t := range d.requests {
				if now.Sub(t) > d.window {
					delete(d.requests, k)
				}
			}
			d.mu.Unlock()
		case <-d.done:
			return
		}
	}
}

// seen 記錄指紋並回傳是否在時間窗內出現過
func (d *Deduplicator) seen(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Middleware 請求去重中間件
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}

			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		fingerprint := c.ClientIP() + ":" + c.Request.URL.Path
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		if d.seen(fingerprint, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "重複的請求",
			})
			return
		}

		c.Next()
	}
}
