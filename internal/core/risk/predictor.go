package risk

import (
	"fmt"
	"strings"

	"allergy-menu-guard/internal/core/catalog"
	"allergy-menu-guard/internal/core/ingredient"
	"allergy-menu-guard/internal/core/ml"
	"allergy-menu-guard/internal/pkg/common"
)

// ModelName 風險模型目錄名稱
const ModelName = "allergy_risk"

// MLPrediction 與使用者無關的模型基礎預測
type MLPrediction struct {
	BaseLevel     Level              `json:"base_prediction"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	ModelRunID    string             `json:"model_run_id,omitempty"`
}

// Predictor 統計式風險分類器：食材文字 → 風險等級。不會看到使用者的過敏原清單。
type Predictor struct {
	model *ml.Model
}

// NewPredictor 包裝一個文字分類模型
func NewPredictor(model *ml.Model) *Predictor {
	return &Predictor{model: model}
}

// DefaultModelConfig 風險模型預設參數
func DefaultModelConfig(dir string, minExamples, maxFeatures int) ml.ModelConfig {
	return ml.ModelConfig{
		Name:        ModelName,
		Dir:         dir,
		MinExamples: minExamples,
		Vectorizer:  ml.VectorizerConfig{NgramMin: 1, NgramMax: 2, MaxFeatures: maxFeatures},
		Alpha:       1.0,
	}
}

// Model 底層模型
func (p *Predictor) Model() *ml.Model {
	return p.model
}

// IngredientText 食材清單轉為模型輸入文字
func IngredientText(ingredients []string) string {
	return strings.Join(common.CompactStrings(ingredients), " ")
}

// TrainingExamples 由菜單資料合成訓練資料：每個品項 × 過敏原分類 × 分類成員各一筆，
// 品項含有該成員時標為分類嚴重程度，否則標為 safe
func TrainingExamples(c *catalog.Catalog) (docs, labels []string) {
	for _, item := range c.Items() {
		text := IngredientText(item.Ingredients)
		has := make(map[string]bool, len(item.Ingredients))
		for _, ing := range item.Ingredients {
			has[ingredient.Clean(ing)] = true
		}

		for _, cat := range c.Categories() {
			label := FromSeverity(cat.Severity).String()
			for _, member := range cat.Ingredients {
				docs = append(docs, text)
				if has[ingredient.Clean(member)] {
					labels = append(labels, label)
				} else {
					labels = append(labels, Safe.String())
				}
			}
		}
	}
	return docs, labels
}

// Train 以菜單資料重新訓練
func (p *Predictor) Train(c *catalog.Catalog) (*ml.Bundle, error) {
	docs, labels := TrainingExamples(c)
	return p.model.Train(docs, labels)
}

// Predict 預測食材組合的基礎風險；模型不可用時回傳錯誤，由呼叫端降級處理
func (p *Predictor) Predict(ingredients []string) (*MLPrediction, error) {
	pred, err := p.model.Predict(IngredientText(ingredients))
	if err != nil {
		return nil, err
	}

	level, ok := ParseLevel(pred.Label)
	if !ok {
		return nil, common.Wrap(common.ErrArtifactMismatch, fmt.Errorf("risk model produced unknown label %q", pred.Label))
	}

	return &MLPrediction{
		BaseLevel:     level,
		Confidence:    pred.Confidence,
		Probabilities: pred.Probabilities,
		ModelRunID:    p.model.Status().RunID,
	}, nil
}
