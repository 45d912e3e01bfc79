package analysis

import (
	"time"

	"allergy-menu-guard/internal/core/menu"
	"allergy-menu-guard/internal/core/risk"
	"allergy-menu-guard/internal/core/similarity"
	"allergy-menu-guard/internal/pkg/common"
)

// 分析階段名稱
const (
	StageExtraction         = "ingredient_extraction"
	StageSimilarity         = "similarity"
	StageRuleScoring        = "rule_scoring"
	StageMLPrediction       = "ml_prediction"
	StageFusion             = "fusion"
	StageRecommendations    = "recommendations"
	StageMenuClassification = "menu_classification"
)

// ML 模型狀態
const (
	MLAvailable   = "available"
	MLUnavailable = "unavailable"
)

// Request 單筆分析請求
type Request struct {
	Text      string
	Allergies []string
	RequestID string
}

// StageError 單一階段的錯誤，只附在該階段的結果上，不會中斷其他階段
type StageError struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newStageError(stage string, err error) *StageError {
	code := common.ErrCodeStageFailed
	if ce, ok := common.AsCustomError(err); ok {
		code = ce.Code
	}
	return &StageError{Stage: stage, Code: code, Message: err.Error()}
}

// IngredientAnalysis 成分擷取結果
type IngredientAnalysis struct {
	ExtractedIngredients []string    `json:"extracted_ingredients"`
	IngredientCount      int         `json:"ingredient_count"`
	Error                *StageError `json:"error,omitempty"`
}

// SimilarMenus 相似菜單
type SimilarMenus struct {
	Items []similarity.Result `json:"items"`
	Error *StageError         `json:"error,omitempty"`
}

// MLRisk 模型預測與依使用者過敏原調整後的等級
type MLRisk struct {
	BasePrediction risk.Level         `json:"base_prediction"`
	FinalRisk      risk.Level         `json:"final_risk"`
	Confidence     float64            `json:"confidence"`
	Probabilities  map[string]float64 `json:"probabilities,omitempty"`
	ModelRunID     string             `json:"model_run_id,omitempty"`
}

// AllergyRisk 規則與模型兩種風險訊號及融合後的最終等級
type AllergyRisk struct {
	RuleBasedAnalysis *risk.RuleResult `json:"rule_based_analysis,omitempty"`
	MLPrediction      *MLRisk          `json:"ml_prediction,omitempty"`
	MLStatus          string           `json:"ml_status"`
	MLError           *StageError      `json:"ml_error,omitempty"`
	FinalRiskLevel    *risk.Level      `json:"final_risk_level,omitempty"`
	Error             *StageError      `json:"error,omitempty"`
}

// Recommendations 個人化建議
type Recommendations struct {
	similarity.Recommendations
	Error *StageError `json:"error,omitempty"`
}

// MenuClassification 菜單分類
type MenuClassification struct {
	*menu.Classification
	Error *StageError `json:"error,omitempty"`
}

// Result 單筆分析結果。指標欄位為 nil 表示該階段未執行。
type Result struct {
	RequestID          string              `json:"request_id,omitempty"`
	InputText          string              `json:"input_text"`
	AnalyzedAt         time.Time           `json:"analysis_timestamp"`
	IngredientAnalysis *IngredientAnalysis `json:"ingredient_analysis"`
	SimilarMenus       *SimilarMenus       `json:"similar_menus"`
	AllergyRisk        *AllergyRisk        `json:"allergy_risk,omitempty"`
	Recommendations    *Recommendations    `json:"recommendations,omitempty"`
	MenuClassification *MenuClassification `json:"menu_classification,omitempty"`
	DegradedStages     []string            `json:"degraded_stages"`
	Cached             bool                `json:"cached"`
}

// Degraded 是否有任何階段降級
func (r *Result) Degraded() bool {
	return len(r.DegradedStages) > 0
}

// BatchItem 批次分析中單筆的結果
type BatchItem struct {
	MenuIndex int         `json:"menu_index"`
	Result    *Result     `json:"result,omitempty"`
	Error     *StageError `json:"error,omitempty"`
}
