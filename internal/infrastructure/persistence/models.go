package persistence

import "time"

// UserAllergy 使用者登錄的過敏原
type UserAllergy struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"size:64;index;not null" json:"user_id"`
	AllergyName string    `gorm:"size:100;not null" json:"allergy_name"`
	Severity    string    `gorm:"size:16;not null;default:medium" json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 資料表名稱
func (UserAllergy) TableName() string { return "user_allergies" }

// MenuAnalysis 一次菜單分析的紀錄
type MenuAnalysis struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"size:64;index;not null" json:"user_id"`
	RequestID      string    `gorm:"size:64" json:"request_id"`
	ImageURL       string    `gorm:"size:500" json:"image_url,omitempty"`
	ExtractedText  string    `gorm:"type:text" json:"extracted_text,omitempty"`
	TranslatedText string    `gorm:"type:text" json:"translated_text,omitempty"`
	InputText      string    `gorm:"type:text" json:"input_text"`
	FinalRiskLevel string    `gorm:"size:16" json:"final_risk_level,omitempty"`
	Degraded       bool      `json:"degraded"`
	AnalysisResult string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName 資料表名稱
func (MenuAnalysis) TableName() string { return "menu_analyses" }
