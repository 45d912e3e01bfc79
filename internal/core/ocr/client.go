package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Detection 單一文字區塊
type Detection struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	BBox       [][]float64 `json:"bbox,omitempty"`
}

// Extraction OCR 結果
type Extraction struct {
	Text       string      `json:"extracted_text"`
	Detections []Detection `json:"ocr_results"`
}

// Client 外部 OCR／翻譯服務客戶端
type Client struct {
	config *config.OCRConfig
	client *resty.Client
}

// NewClient 創建 OCR 客戶端
func NewClient(cfg *config.OCRConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		config: cfg,
		client: client,
	}
}

// Extract 上傳圖片並取得辨識文字，各區塊以換行連接
func (c *Client) Extract(ctx context.Context, image []byte) (*Extraction, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("file", "menu.jpg", bytes.NewReader(image)).
		Post("/ocr/extract")
	if err != nil {
		return nil, common.Wrap(common.ErrOCRServiceError, fmt.Errorf("failed to send request to OCR service: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.Wrap(common.ErrOCRServiceError,
			fmt.Errorf("OCR service returned status %d: %s", resp.StatusCode(), common.Truncate(resp.String(), 200)))
	}

	var result struct {
		Success       bool        `json:"success"`
		ExtractedText string      `json:"extracted_text"`
		OCRResults    []Detection `json:"ocr_results"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, common.Wrap(common.ErrOCRServiceError, fmt.Errorf("failed to parse OCR response: %w", err))
	}
	if !result.Success {
		return nil, common.Wrap(common.ErrOCRServiceError, fmt.Errorf("OCR service reported failure"))
	}

	common.LogInfo("OCR 完成",
		zap.Int("detections", len(result.OCRResults)),
		zap.Int("text_length", len(result.ExtractedText)),
		zap.Duration("耗時", time.Since(start)),
	)

	return &Extraction{Text: result.ExtractedText, Detections: result.OCRResults}, nil
}

// Translate 翻譯文字；source、target 為空時使用設定值
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if source == "" {
		source = c.config.SourceLanguage
	}
	if target == "" {
		target = c.config.TargetLanguage
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"text":   text,
			"source": source,
			"target": target,
		}).
		Post("/translate")
	if err != nil {
		return "", common.Wrap(common.ErrOCRServiceError, fmt.Errorf("failed to send request to translation service: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return "", common.Wrap(common.ErrOCRServiceError,
			fmt.Errorf("translation service returned status %d: %s", resp.StatusCode(), common.Truncate(resp.String(), 200)))
	}

	var result struct {
		Success        bool   `json:"success"`
		TranslatedText string `json:"translated_text"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", common.Wrap(common.ErrOCRServiceError, fmt.Errorf("failed to parse translation response: %w", err))
	}
	if !result.Success {
		return "", common.Wrap(common.ErrOCRServiceError, fmt.Errorf("translation service reported failure"))
	}
	return result.TranslatedText, nil
}
