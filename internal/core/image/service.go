package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"

	"allergy-menu-guard/internal/pkg/common"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// Service 菜單照片前處理：下載或解碼、檢查大小與格式，統一轉為 JPEG 交給 OCR
type Service struct {
	maxSizeBytes int64
	client       *resty.Client
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
		client:       resty.New().SetTimeout(30 * time.Second),
	}
}

// Load 讀取 data URI 或 http(s) URL，回傳 JPEG 位元組
func (s *Service) Load(ctx context.Context, imageData string) ([]byte, error) {
	var raw []byte
	var err error

	if strings.HasPrefix(imageData, "http://") || strings.HasPrefix(imageData, "https://") {
		raw, err = s.download(ctx, imageData)
	} else {
		raw, err = decodeDataURI(imageData)
	}
	if err != nil {
		return nil, err
	}

	return s.toJPEG(raw)
}

// download 下載圖片；超過大小上限時不讀完整個回應
func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status code %d", resp.StatusCode())
	}
	if s.maxSizeBytes <= 0 {
		return io.ReadAll(body)
	}
	if resp.RawResponse.ContentLength > s.maxSizeBytes {
		return nil, s.tooLarge()
	}

	raw, err := io.ReadAll(io.LimitReader(body, s.maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(raw)) > s.maxSizeBytes {
		return nil, s.tooLarge()
	}
	return raw, nil
}

func (s *Service) tooLarge() error {
	return common.Wrap(common.ErrInvalidImageSize,
		fmt.Errorf("image size exceeds maximum limit of %d bytes", s.maxSizeBytes))
}

// decodeDataURI 解析 data:image/...;base64, 格式
func decodeDataURI(imageData string) ([]byte, error) {
	if !strings.HasPrefix(imageData, "data:image/") {
		return nil, common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("invalid image data format"))
	}

	parts := strings.SplitN(imageData, ",", 2)
	if len(parts) != 2 {
		return nil, common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("invalid base64 data format"))
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("failed to decode base64 data: %w", err))
	}
	return decoded, nil
}

// toJPEG 檢查大小與格式後轉為 JPEG
func (s *Service) toJPEG(raw []byte) ([]byte, error) {
	if s.maxSizeBytes > 0 && int64(len(raw)) > s.maxSizeBytes {
		return nil, s.tooLarge()
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("failed to decode image: %w", err))
	}
	if !isSupportedFormat(format) {
		return nil, common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("unsupported image format: %s", format))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
