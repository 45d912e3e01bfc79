package persistence

import (
	"context"
	"fmt"
	"strings"

	"allergy-menu-guard/internal/pkg/common"

	"gorm.io/gorm"
)

// AllergyInput 更新過敏原時的輸入
type AllergyInput struct {
	Name     string `json:"name" binding:"required,max=100"`
	Severity string `json:"severity" binding:"omitempty,oneof=low medium high"`
}

// Repository 使用者資料存取
type Repository struct {
	db *gorm.DB
}

// NewRepository 創建資料存取層
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListAllergies 使用者的過敏原，依登錄順序
func (r *Repository) ListAllergies(ctx context.Context, userID string) ([]UserAllergy, error) {
	var out []UserAllergy
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list allergies: %w", err)
	}
	return out, nil
}

// AllergyNames 使用者的過敏原名稱
func (r *Repository) AllergyNames(ctx context.Context, userID string) ([]string, error) {
	list, err := r.ListAllergies(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.AllergyName
	}
	return names, nil
}

// ReplaceAllergies 以新清單整批取代使用者的過敏原，重複名稱只保留第一筆
func (r *Repository) ReplaceAllergies(ctx context.Context, userID string, inputs []AllergyInput) ([]UserAllergy, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.NewValidationError("user id is required")
	}

	seen := make(map[string]bool, len(inputs))
	rows := make([]UserAllergy, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true

		severity := strings.ToLower(in.Severity)
		if severity == "" {
			severity = "medium"
		}
		rows = append(rows, UserAllergy{UserID: userID, AllergyName: name, Severity: severity})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&UserAllergy{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace allergies: %w", err)
	}
	return rows, nil
}

// SaveAnalysis 儲存分析紀錄
func (r *Repository) SaveAnalysis(ctx context.Context, rec *MenuAnalysis) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// History 使用者最近的分析紀錄，新的在前
func (r *Repository) History(ctx context.Context, userID string, limit int) ([]MenuAnalysis, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var out []MenuAnalysis
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return out, nil
}

// Close 關閉連線
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
