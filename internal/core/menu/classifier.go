package menu

import (
	"allergy-menu-guard/internal/core/catalog"
	"allergy-menu-guard/internal/core/ml"
	"allergy-menu-guard/internal/core/similarity"
)

// ModelName 菜單分類模型目錄名稱
const ModelName = "menu_classifier"

// Classification 菜單分類結果
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	InputText  string  `json:"input_text"`
}

// Classifier 菜單名稱 → 品項分類（咖啡、茶飲…）
type Classifier struct {
	model *ml.Model
}

// NewClassifier 包裝一個文字分類模型
func NewClassifier(model *ml.Model) *Classifier {
	return &Classifier{model: model}
}

// DefaultModelConfig 菜單分類模型預設參數。
// 菜名很短，L2 正規化後的權重遠小於 1，平滑值過大會讓先驗機率主導結果。
func DefaultModelConfig(dir string, minExamples, maxFeatures int) ml.ModelConfig {
	return ml.ModelConfig{
		Name:        ModelName,
		Dir:         dir,
		MinExamples: minExamples,
		Vectorizer:  ml.VectorizerConfig{NgramMin: 1, NgramMax: 3, MaxFeatures: maxFeatures},
		Alpha:       0.1,
	}
}

// Model 底層模型
func (c *Classifier) Model() *ml.Model {
	return c.model
}

// TrainingExamples 每個品項的名稱與變體名稱，標籤為品項分類
func TrainingExamples(cat *catalog.Catalog) (texts, labels []string) {
	texts, owners := similarity.Documents(cat)
	labels = make([]string, len(texts))
	for i, owner := range owners {
		labels[i] = cat.ItemAt(owner).Category
	}
	return texts, labels
}

// Train 以菜單資料重新訓練
func (c *Classifier) Train(cat *catalog.Catalog) (*ml.Bundle, error) {
	texts, labels := TrainingExamples(cat)
	return c.model.Train(texts, labels)
}

// Classify 預測菜單文字所屬分類
func (c *Classifier) Classify(text string) (*Classification, error) {
	pred, err := c.model.Predict(text)
	if err != nil {
		return nil, err
	}
	return &Classification{
		Category:   pred.Label,
		Confidence: pred.Confidence,
		InputText:  text,
	}, nil
}
