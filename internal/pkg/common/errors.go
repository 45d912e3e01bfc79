package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 取得原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 Wrap 出來的副本仍可用 errors.Is 判斷
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Wrap 以預定義錯誤為樣板包裝原始錯誤
func Wrap(base *CustomError, err error) *CustomError {
	return NewError(base.Code, base.Message, base.Status, err)
}

// AsCustomError 取出錯誤鏈中的 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 分析引擎
	ErrCodeDataUnavailable          = "DATA_UNAVAILABLE"
	ErrCodeInsufficientTrainingData = "INSUFFICIENT_TRAINING_DATA"
	ErrCodeArtifactMismatch         = "ARTIFACT_MISMATCH"
	ErrCodeRetrainInProgress        = "RETRAIN_IN_PROGRESS"
	ErrCodeModelsUnavailable        = "MODELS_UNAVAILABLE"
	ErrCodeStageFailed              = "STAGE_FAILED"
	ErrCodeSynonymConflict          = "SYNONYM_CONFLICT"
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "無效的圖片格式", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "圖片大小超出限制", http.StatusBadRequest, nil)
	ErrCacheFull          = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrCacheMiss          = NewError("CACHE_MISS", "快取未命中", http.StatusNotFound, nil)
	ErrOCRServiceError    = NewError("OCR_SERVICE_ERROR", "OCR 服務錯誤", http.StatusBadGateway, nil)
	ErrQueueFull          = NewError("QUEUE_FULL", "隊列已滿", http.StatusServiceUnavailable, nil)

	// 分析引擎錯誤
	ErrDataUnavailable          = NewError(ErrCodeDataUnavailable, "菜單資料或模型不可用", http.StatusServiceUnavailable, nil)
	ErrInsufficientTrainingData = NewError(ErrCodeInsufficientTrainingData, "訓練資料不足", http.StatusUnprocessableEntity, nil)
	ErrArtifactMismatch         = NewError(ErrCodeArtifactMismatch, "模型檔案版本不一致", http.StatusServiceUnavailable, nil)
	ErrRetrainInProgress        = NewError(ErrCodeRetrainInProgress, "模型正在重新訓練", http.StatusConflict, nil)
	ErrModelsUnavailable        = NewError(ErrCodeModelsUnavailable, "所有分析模型皆不可用", http.StatusServiceUnavailable, nil)
	ErrSynonymConflict          = NewError(ErrCodeSynonymConflict, "同義詞重複歸屬多個食材", http.StatusInternalServerError, nil)
)
