package catalog

// MenuItem 菜單品項，載入後不可變
type MenuItem struct {
	ID          string   `json:"id" yaml:"id" validate:"required"`
	Name        string   `json:"name" yaml:"name" validate:"required"`
	EnglishName string   `json:"english_name,omitempty" yaml:"english_name,omitempty"`
	Category    string   `json:"category" yaml:"category" validate:"required"`
	Ingredients []string `json:"ingredients" yaml:"ingredients" validate:"dive,required"`
	Allergens   []string `json:"allergens" yaml:"allergens" validate:"dive,required"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Variations  []string `json:"variations,omitempty" yaml:"variations,omitempty" validate:"dive,required"`
}

// Severity 過敏原嚴重程度
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AllergenCategory 過敏原分類，用於產生風險模型的訓練標籤
type AllergenCategory struct {
	Key         string   `json:"key" yaml:"key" validate:"required"`
	Name        string   `json:"name" yaml:"name"`
	Ingredients []string `json:"ingredients" yaml:"ingredients" validate:"min=1,dive,required"`
	Severity    Severity `json:"severity" yaml:"severity" validate:"required,oneof=low medium high"`
}

// SynonymGroup 標準食材名稱與其跨語言同義詞
type SynonymGroup struct {
	Canonical string   `json:"canonical" yaml:"canonical" validate:"required"`
	Synonyms  []string `json:"synonyms" yaml:"synonyms" validate:"dive,required"`
}

// categoryEntry 資料檔中以 key 為索引的分類內容
type categoryEntry struct {
	Name        string   `json:"name" yaml:"name"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	Severity    Severity `json:"severity" yaml:"severity"`
}

// dataset 資料檔格式
type dataset struct {
	Items      []MenuItem               `json:"cafe_beverages" yaml:"cafe_beverages"`
	Categories map[string]categoryEntry `json:"allergen_categories" yaml:"allergen_categories"`
	Synonyms   []SynonymGroup           `json:"ingredient_synonyms,omitempty" yaml:"ingredient_synonyms,omitempty"`
}
