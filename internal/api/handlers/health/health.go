package health

import (
	"net/http"
	"runtime"
	"time"

	"allergy-menu-guard/internal/core/analysis"
	"allergy-menu-guard/internal/core/queue"
	"allergy-menu-guard/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Models    map[string]bool        `json:"models"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	config *config.Config
	engine *analysis.Engine
	queue  *queue.Manager
}

// NewHandler 創建健康檢查處理器
func NewHandler(cfg *config.Config, engine *analysis.Engine, q *queue.Manager) *Handler {
	return &Handler{config: cfg, engine: engine, queue: q}
}

// HealthCheck 健康檢查，部分模型不可用時狀態為 degraded
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	st := h.engine.Status()
	models := map[string]bool{"similarity_index": st.SimilarityIndex.Available}
	healthy := st.SimilarityIndex.Available
	for _, ms := range st.Models {
		models[ms.Name] = ms.Loaded
		healthy = healthy && ms.Loaded
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Models: models,
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 至少一個模型可用才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if !h.engine.Status().Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
