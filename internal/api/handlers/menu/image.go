package menu

import (
	"net/http"
	"strings"
	"time"

	"allergy-menu-guard/internal/api/handlers"
	"allergy-menu-guard/internal/core/analysis"
	"allergy-menu-guard/internal/core/ocr"
	"allergy-menu-guard/internal/infrastructure/persistence"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ImageRequest 菜單照片分析請求
type ImageRequest struct {
	Image     string   `json:"image" binding:"required"` // data URI 或 http(s) URL
	Allergies []string `json:"allergies,omitempty" binding:"max=50"`
	UserID    string   `json:"user_id,omitempty" binding:"max=64"`
	Translate *bool    `json:"translate,omitempty"`
	Source    string   `json:"source,omitempty"`
	Target    string   `json:"target,omitempty"`
}

// ImageResponse 菜單照片分析結果
type ImageResponse struct {
	ExtractedText  string           `json:"extracted_text"`
	TranslatedText string           `json:"translated_text,omitempty"`
	Detections     []ocr.Detection  `json:"ocr_results"`
	Analysis       *analysis.Result `json:"analysis"`
}

// AnalyzeImage OCR 辨識菜單照片（必要時翻譯）後進行分析
func (h *Handler) AnalyzeImage(c *gin.Context) {
	requestID := handlers.RequestID(c)
	start := time.Now()

	if h.ocr == nil {
		handlers.Error(c, common.Wrap(common.ErrServiceUnavailable, errNoOCR))
		return
	}

	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	common.LogInfo("開始處理菜單照片",
		zap.String("request_id", requestID),
		zap.String("image_type", imageType(req.Image)),
	)

	ctx := c.Request.Context()
	img, err := h.images.Load(ctx, req.Image)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	extraction, err := h.ocr.Extract(ctx, img)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	text := extraction.Text
	resp := ImageResponse{ExtractedText: extraction.Text, Detections: extraction.Detections}

	translate := h.translate
	if req.Translate != nil {
		translate = *req.Translate
	}
	if translate {
		translated, err := h.ocr.Translate(ctx, extraction.Text, req.Source, req.Target)
		if err != nil {
			// 翻譯失敗時以原文分析
			common.LogWarn("翻譯失敗，改用原文分析", zap.String("request_id", requestID), zap.Error(err))
		} else {
			resp.TranslatedText = translated
			text = extraction.Text + "\n" + translated
		}
	}

	allergies, err := h.allergies(ctx, req.UserID, req.Allergies)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	res, err := h.engine.Analyze(ctx, analysis.Request{Text: text, Allergies: allergies, RequestID: requestID})
	if err != nil {
		handlers.Error(c, err)
		return
	}
	resp.Analysis = res

	rec := &persistence.MenuAnalysis{
		ExtractedText:  extraction.Text,
		TranslatedText: resp.TranslatedText,
	}
	if !strings.HasPrefix(req.Image, "data:") {
		rec.ImageURL = common.Truncate(req.Image, 500)
	}
	h.record(ctx, req.UserID, res, rec)

	common.LogInfo("菜單照片分析完成",
		zap.String("request_id", requestID),
		zap.Int("detections", len(extraction.Detections)),
		zap.Duration("耗時", time.Since(start)),
	)
	c.JSON(http.StatusOK, resp)
}

// imageType 圖片來源類型（用於日誌記錄）
func imageType(image string) string {
	switch {
	case image == "":
		return "empty"
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return "url"
	case strings.HasPrefix(image, "data:image/"):
		parts := strings.SplitN(image, ";base64,", 2)
		if len(parts) == 2 {
			return "base64_data_uri_" + strings.TrimPrefix(parts[0], "data:image/")
		}
		return "invalid_data_uri"
	default:
		return "unknown_format"
	}
}
