package admin

import (
	"net/http"

	"allergy-menu-guard/internal/api/handlers"
	"allergy-menu-guard/internal/core/analysis"
	"allergy-menu-guard/internal/core/queue"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 模型管理處理器
type Handler struct {
	engine *analysis.Engine
	queue  *queue.Manager
}

// NewHandler 創建模型管理處理器
func NewHandler(engine *analysis.Engine, q *queue.Manager) *Handler {
	return &Handler{engine: engine, queue: q}
}

// Models 模型與知識庫狀態
func (h *Handler) Models(c *gin.Context) {
	resp := gin.H{"engine": h.engine.Status()}
	if h.queue != nil {
		resp["queue"] = h.queue.GetQueueStatus()
	}
	c.JSON(http.StatusOK, resp)
}

// Retrain 重新載入菜單資料並重新訓練所有模型
func (h *Handler) Retrain(c *gin.Context) {
	common.LogInfo("收到重新訓練請求",
		zap.String("request_id", handlers.RequestID(c)),
		zap.String("client_ip", c.ClientIP()),
	)

	report, err := h.engine.Retrain(c.Request.Context())
	if err != nil {
		handlers.Error(c, err)
		return
	}

	status := http.StatusOK
	for _, m := range report.Models {
		if !m.Success {
			status = http.StatusMultiStatus
		}
	}
	c.JSON(status, report)
}
