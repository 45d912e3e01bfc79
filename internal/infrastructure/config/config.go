package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Model       ModelConfig     `mapstructure:"model"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	OCR         OCRConfig       `mapstructure:"ocr"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Image       ImageConfig     `mapstructure:"image"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// CatalogConfig 菜單資料集設定
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// ModelConfig 統計模型設定
type ModelConfig struct {
	Dir                   string `mapstructure:"dir"`
	RiskMinExamples       int    `mapstructure:"risk_min_examples"`
	CategoryMinExamples   int    `mapstructure:"category_min_examples"`
	TrainOnStartup        bool   `mapstructure:"train_on_startup"`
	RiskMaxFeatures       int    `mapstructure:"risk_max_features"`
	CategoryMaxFeatures   int    `mapstructure:"category_max_features"`
	SimilarityMaxFeatures int    `mapstructure:"similarity_max_features"`
}

// AnalysisConfig 分析流程設定（門檻值皆為經驗值，可調整）
type AnalysisConfig struct {
	SimilarTopK         int     `mapstructure:"similar_top_k"`
	SuggestionTopK      int     `mapstructure:"suggestion_top_k"`
	SafeAlternativeTopK int     `mapstructure:"safe_alternative_top_k"`
	MinSimilarity       float64 `mapstructure:"min_similarity"`
	LowRiskRatio        float64 `mapstructure:"low_risk_ratio"`
	DangerousRatio      float64 `mapstructure:"dangerous_ratio"`
	MaxBatchSize        int     `mapstructure:"max_batch_size"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
}

// QueueConfig 批次分析隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// OCRConfig 外部 OCR／翻譯服務設定
type OCRConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Translate      bool          `mapstructure:"translate"`
	SourceLanguage string        `mapstructure:"source_language"`
	TargetLanguage string        `mapstructure:"target_language"`
}

// DatabaseConfig 使用者過敏資料與分析紀錄儲存
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MetricsConfig Prometheus 指標
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時略過）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("catalog.path", "CATALOG_PATH")
	_ = v.BindEnv("model.dir", "MODEL_DIR")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.backend", "CACHE_BACKEND")
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("ocr.base_url", "OCR_BASE_URL")
	_ = v.BindEnv("ocr.enabled", "OCR_ENABLED")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "allergy-menu-guard")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 12<<20)

	// 資料集與模型
	v.SetDefault("catalog.path", "data/cafe_menu_dataset.json")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("model.dir", "models")
	v.SetDefault("model.risk_min_examples", 50)
	v.SetDefault("model.category_min_examples", 10)
	v.SetDefault("model.train_on_startup", true)
	v.SetDefault("model.risk_max_features", 500)
	v.SetDefault("model.category_max_features", 1000)
	v.SetDefault("model.similarity_max_features", 1000)

	// 分析流程
	v.SetDefault("analysis.similar_top_k", 5)
	v.SetDefault("analysis.suggestion_top_k", 10)
	v.SetDefault("analysis.safe_alternative_top_k", 5)
	v.SetDefault("analysis.min_similarity", 0.1)
	v.SetDefault("analysis.low_risk_ratio", 0.3)
	v.SetDefault("analysis.dangerous_ratio", 0.7)
	v.SetDefault("analysis.max_batch_size", 50)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 100)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// OCR 設定
	v.SetDefault("ocr.enabled", false)
	v.SetDefault("ocr.base_url", "http://localhost:8000")
	v.SetDefault("ocr.timeout", "60s")
	v.SetDefault("ocr.translate", false)
	v.SetDefault("ocr.source_language", "en")
	v.SetDefault("ocr.target_language", "zh-TW")

	// 資料庫設定
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.path", "data/allergy_guard.db")

	// 指標
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// 圖片設定
	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required")
	}
	if config.Model.Dir == "" {
		return fmt.Errorf("model dir is required")
	}

	// 驗證分析門檻
	if config.Analysis.MinSimilarity < 0 || config.Analysis.MinSimilarity > 1 {
		return fmt.Errorf("invalid min similarity: %v", config.Analysis.MinSimilarity)
	}
	if config.Analysis.LowRiskRatio <= 0 || config.Analysis.LowRiskRatio >= config.Analysis.DangerousRatio || config.Analysis.DangerousRatio > 1 {
		return fmt.Errorf("invalid risk ratio thresholds: %v / %v", config.Analysis.LowRiskRatio, config.Analysis.DangerousRatio)
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("redis address is required")
			}
		default:
			return fmt.Errorf("unknown cache backend: %s", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	// 驗證隊列設定
	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.OCR.Enabled && config.OCR.BaseURL == "" {
		return fmt.Errorf("ocr base url is required")
	}

	return nil
}
