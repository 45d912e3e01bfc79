package menu

import (
	"context"
	"errors"
	"net/http"

	"allergy-menu-guard/internal/api/handlers"
	"allergy-menu-guard/internal/core/analysis"
	"allergy-menu-guard/internal/core/image"
	"allergy-menu-guard/internal/core/ocr"
	"allergy-menu-guard/internal/infrastructure/persistence"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyzeRequest 菜單文字分析請求
type AnalyzeRequest struct {
	Text      string   `json:"text" binding:"required,max=5000"`
	Allergies []string `json:"allergies,omitempty" binding:"max=50"`
	UserID    string   `json:"user_id,omitempty" binding:"max=64"`
}

// BatchRequest 批次分析請求
type BatchRequest struct {
	Texts     []string `json:"texts" binding:"required,min=1"`
	Allergies []string `json:"allergies,omitempty" binding:"max=50"`
}

// SimilarRequest 相似菜單查詢
type SimilarRequest struct {
	Query     string   `json:"query" binding:"required,max=500"`
	TopK      int      `json:"top_k,omitempty"`
	Allergies []string `json:"allergies,omitempty"`
}

// SafeRequest 安全菜單查詢
type SafeRequest struct {
	Allergies []string `json:"allergies" binding:"required,min=1"`
	TopK      int      `json:"top_k,omitempty"`
}

// Handler 菜單分析處理器
type Handler struct {
	engine *analysis.Engine
	images *image.Service
	ocr    *ocr.Client // nil 表示未啟用 OCR
	repo   *persistence.Repository
	// 影像分析是否預設翻譯
	translate bool
}

// NewHandler 創建菜單處理器；ocr 與 repo 可為 nil
func NewHandler(engine *analysis.Engine, images *image.Service, ocrClient *ocr.Client, repo *persistence.Repository, translate bool) *Handler {
	return &Handler{
		engine:    engine,
		images:    images,
		ocr:       ocrClient,
		repo:      repo,
		translate: translate,
	}
}

// Analyze 分析單筆菜單文字
func (h *Handler) Analyze(c *gin.Context) {
	requestID := handlers.RequestID(c)

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	allergies, err := h.allergies(c.Request.Context(), req.UserID, req.Allergies)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	common.LogInfo("開始分析菜單",
		zap.String("request_id", requestID),
		zap.Int("text_length", len(req.Text)),
		zap.Int("allergies", len(allergies)),
	)

	res, err := h.engine.Analyze(c.Request.Context(), analysis.Request{
		Text:      req.Text,
		Allergies: allergies,
		RequestID: requestID,
	})
	if err != nil {
		handlers.Error(c, err)
		return
	}

	h.record(c.Request.Context(), req.UserID, res, nil)
	c.JSON(http.StatusOK, res)
}

// AnalyzeBatch 以相同過敏原分析多筆菜單
func (h *Handler) AnalyzeBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	items, err := h.engine.AnalyzeBatch(c.Request.Context(), req.Texts, req.Allergies, handlers.RequestID(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}

	failed := 0
	for _, item := range items {
		if item.Error != nil {
			failed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   len(items),
		"failed":  failed,
		"results": items,
	})
}

// Similar 查詢相似菜單；帶過敏原時同時標示各品項是否安全
func (h *Handler) Similar(c *gin.Context) {
	var req SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	k, err := h.engine.Snapshot()
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if k.Index == nil {
		handlers.Error(c, indexError(k))
		return
	}

	topK := handlers.ClampTopK(req.TopK, h.engine.Options().SuggestionTopK)
	if len(common.CompactStrings(req.Allergies)) > 0 {
		c.JSON(http.StatusOK, k.Index.Suggestions(req.Query, req.Allergies, topK))
		return
	}

	results := k.Index.FindSimilar(req.Query, topK)
	c.JSON(http.StatusOK, gin.H{
		"query":       req.Query,
		"suggestions": results,
		"total_found": len(results),
	})
}

// Safe 列出不含指定過敏原的菜單
func (h *Handler) Safe(c *gin.Context) {
	var req SafeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	k, err := h.engine.Snapshot()
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if k.Index == nil {
		handlers.Error(c, indexError(k))
		return
	}

	menus := k.Index.SafeMenus(req.Allergies, handlers.ClampTopK(req.TopK, h.engine.Options().SafeAlternativeTopK))
	c.JSON(http.StatusOK, gin.H{
		"allergies":  req.Allergies,
		"safe_menus": menus,
		"total":      len(menus),
	})
}

// ByIngredient 列出含有指定食材的菜單
func (h *Handler) ByIngredient(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		handlers.Error(c, common.NewValidationError("query parameter name is required"))
		return
	}

	k, err := h.engine.Snapshot()
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if k.Index == nil {
		handlers.Error(c, indexError(k))
		return
	}

	menus := k.Index.MenusByIngredient(name, handlers.TopK(c, h.engine.Options().SimilarTopK))
	c.JSON(http.StatusOK, gin.H{
		"ingredient": k.Graph.Normalize(name),
		"menus":      menus,
		"total":      len(menus),
	})
}

// allergies 請求未帶過敏原但有 user_id 時，使用該使用者登錄的過敏原
func (h *Handler) allergies(ctx context.Context, userID string, given []string) ([]string, error) {
	if len(common.CompactStrings(given)) > 0 || userID == "" || h.repo == nil {
		return given, nil
	}
	return h.repo.AllergyNames(ctx, userID)
}

// record 有 user_id 時寫入分析紀錄，失敗只記錄日誌
func (h *Handler) record(ctx context.Context, userID string, res *analysis.Result, extra *persistence.MenuAnalysis) {
	if userID == "" || h.repo == nil {
		return
	}

	rec := &persistence.MenuAnalysis{}
	if extra != nil {
		rec = extra
	}
	rec.UserID = userID
	rec.RequestID = res.RequestID
	rec.InputText = res.InputText
	rec.Degraded = res.Degraded()
	if res.AllergyRisk != nil && res.AllergyRisk.FinalRiskLevel != nil {
		rec.FinalRiskLevel = res.AllergyRisk.FinalRiskLevel.String()
	}
	if data, err := common.ToJSON(res); err == nil {
		rec.AnalysisResult = data
	}

	if err := h.repo.SaveAnalysis(ctx, rec); err != nil {
		common.LogWarn("分析紀錄儲存失敗",
			zap.String("user_id", userID),
			zap.String("request_id", res.RequestID),
			zap.Error(err),
		)
	}
}

var errNoOCR = errors.New("OCR service is not configured")

func indexError(k *analysis.Knowledge) error {
	if k.IndexErr != nil {
		return common.Wrap(common.ErrDataUnavailable, k.IndexErr)
	}
	return common.Wrap(common.ErrDataUnavailable, errors.New("similarity index is not available"))
}
