// Package persistence 使用者過敏原與分析紀錄的 SQLite 儲存
package persistence

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 開啟資料庫並執行 migration；路徑為空時使用記憶體資料庫
func Open(path string, debug bool) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}

	level := logger.Silent
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite 單一寫入者；記憶體資料庫每條連線各自獨立，也必須共用同一條
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&UserAllergy{}, &MenuAnalysis{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
