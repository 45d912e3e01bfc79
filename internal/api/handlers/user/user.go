package user

import (
	"errors"
	"net/http"
	"strconv"

	"allergy-menu-guard/internal/api/handlers"
	"allergy-menu-guard/internal/infrastructure/persistence"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AllergiesRequest 更新過敏原請求
type AllergiesRequest struct {
	Allergies []persistence.AllergyInput `json:"allergies" binding:"max=50,dive"`
}

// Handler 使用者過敏原與分析紀錄處理器
type Handler struct {
	repo *persistence.Repository
}

// NewHandler 創建使用者處理器
func NewHandler(repo *persistence.Repository) *Handler {
	return &Handler{repo: repo}
}

var errNoDatabase = errors.New("user database is not enabled")

// GetAllergies 取得使用者過敏原
func (h *Handler) GetAllergies(c *gin.Context) {
	if h.repo == nil {
		handlers.Error(c, common.Wrap(common.ErrServiceUnavailable, errNoDatabase))
		return
	}

	userID := c.Param("id")
	list, err := h.repo.ListAllergies(c.Request.Context(), userID)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"allergies": list,
	})
}

// PutAllergies 以新清單取代使用者過敏原
func (h *Handler) PutAllergies(c *gin.Context) {
	if h.repo == nil {
		handlers.Error(c, common.Wrap(common.ErrServiceUnavailable, errNoDatabase))
		return
	}

	var req AllergiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	userID := c.Param("id")
	list, err := h.repo.ReplaceAllergies(c.Request.Context(), userID, req.Allergies)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	common.LogInfo("使用者過敏原已更新",
		zap.String("user_id", userID),
		zap.Int("count", len(list)),
	)
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"allergies": list,
	})
}

// History 使用者最近的分析紀錄
func (h *Handler) History(c *gin.Context) {
	if h.repo == nil {
		handlers.Error(c, common.Wrap(common.ErrServiceUnavailable, errNoDatabase))
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	userID := c.Param("id")
	records, err := h.repo.History(c.Request.Context(), userID, limit)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"history": records,
		"total":   len(records),
	})
}
