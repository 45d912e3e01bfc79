package ingredient

import (
	"net/http"

	"allergy-menu-guard/internal/api/handlers"
	"allergy-menu-guard/internal/core/analysis"

	"github.com/gin-gonic/gin"
)

// ExtractRequest 成分擷取請求
type ExtractRequest struct {
	Text string `json:"text" binding:"required,max=5000"`
}

// NormalizeRequest 正規化請求
type NormalizeRequest struct {
	Terms []string `json:"terms" binding:"required,min=1,max=100"`
}

// NormalizedTerm 單一詞彙的正規化結果
type NormalizedTerm struct {
	Term       string   `json:"term"`
	Normalized string   `json:"normalized"`
	Synonyms   []string `json:"synonyms"`
}

// RiskRequest 食材風險檢查請求
type RiskRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=1,max=100"`
	Allergies   []string `json:"allergies" binding:"required,min=1,max=50"`
}

// Handler 食材處理器
type Handler struct {
	engine *analysis.Engine
}

// NewHandler 創建食材處理器
func NewHandler(engine *analysis.Engine) *Handler {
	return &Handler{engine: engine}
}

// Extract 從文字擷取標準食材名稱
func (h *Handler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	k, err := h.engine.Snapshot()
	if err != nil {
		handlers.Error(c, err)
		return
	}

	found := k.Graph.Extract(req.Text)
	c.JSON(http.StatusOK, analysis.IngredientAnalysis{
		ExtractedIngredients: found,
		IngredientCount:      len(found),
	})
}

// Normalize 將食材名稱轉為標準名稱並列出同義詞
func (h *Handler) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	k, err := h.engine.Snapshot()
	if err != nil {
		handlers.Error(c, err)
		return
	}

	results := make([]NormalizedTerm, len(req.Terms))
	for i, term := range req.Terms {
		results[i] = NormalizedTerm{
			Term:       term,
			Normalized: k.Graph.Normalize(term),
			Synonyms:   k.Graph.Synonyms(term),
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Suggest 食材名稱自動完成
func (h *Handler) Suggest(c *gin.Context) {
	k, err := h.engine.Snapshot()
	if err != nil {
		handlers.Error(c, err)
		return
	}

	q := c.Query("q")
	suggestions := k.Graph.Suggest(q, handlers.TopK(c, 10))
	c.JSON(http.StatusOK, gin.H{
		"query":       q,
		"suggestions": suggestions,
	})
}

// CheckRisk 直接以食材清單評估過敏風險
func (h *Handler) CheckRisk(c *gin.Context) {
	var req RiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	ar, degraded, err := h.engine.CheckRisk(req.Ingredients, req.Allergies)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allergy_risk":    ar,
		"degraded_stages": degraded,
	})
}
