// Package handlers HTTP 處理器共用的錯誤回應
package handlers

import (
	"net/http"
	"strconv"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestID 取得本次請求的 ID
func RequestID(c *gin.Context) string {
	return requestid.Get(c)
}

// Error 依錯誤類型回應對應的 HTTP 狀態碼
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: err.Error(),
		})
		return
	}

	if ce, ok := common.AsCustomError(err); ok {
		resp := common.ErrorResponse{Code: ce.Code, Message: ce.Message}
		if ce.Err != nil && gin.Mode() != gin.ReleaseMode {
			resp.Details = ce.Err.Error()
		}
		c.JSON(ce.Status, resp)
		return
	}

	common.LogError("未預期的錯誤",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", RequestID(c)),
	)
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: common.ErrInternalError.Message,
	})
}

// BadRequest 請求格式錯誤
func BadRequest(c *gin.Context, err error) {
	common.LogWarn("請求格式無效",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", RequestID(c)),
	)
	_ = c.Error(err)
	resp := common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: common.ErrInvalidRequest.Message,
	}
	if gin.Mode() != gin.ReleaseMode {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// TopK 讀取 top_k 查詢參數，缺少或不合法時回傳預設值
func TopK(c *gin.Context, def int) int {
	return ClampTopK(queryInt(c, "top_k"), def)
}

// ClampTopK 限制回傳筆數在 1 到 50 之間
func ClampTopK(k, def int) int {
	if k <= 0 {
		return def
	}
	if k > 50 {
		return 50
	}
	return k
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
