package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"allergy-menu-guard/internal/api"
	"allergy-menu-guard/internal/api/middleware"
	"allergy-menu-guard/internal/core/analysis"
	"allergy-menu-guard/internal/core/cache"
	"allergy-menu-guard/internal/core/image"
	"allergy-menu-guard/internal/core/menu"
	"allergy-menu-guard/internal/core/ml"
	"allergy-menu-guard/internal/core/ocr"
	"allergy-menu-guard/internal/core/queue"
	"allergy-menu-guard/internal/core/risk"
	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/infrastructure/metrics"
	"allergy-menu-guard/internal/infrastructure/persistence"
	"allergy-menu-guard/internal/infrastructure/watcher"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const catalogDebounce = 500 * time.Millisecond

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("catalog_path", cfg.Catalog.Path),
		zap.String("model_dir", cfg.Model.Dir),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("ocr_enabled", cfg.OCR.Enabled),
		zap.Bool("database_enabled", cfg.Database.Enabled),
	)

	// 模型
	predictor := risk.NewPredictor(ml.NewModel(risk.DefaultModelConfig(
		filepath.Join(cfg.Model.Dir, risk.ModelName), cfg.Model.RiskMinExamples, cfg.Model.RiskMaxFeatures)))
	classifier := menu.NewClassifier(ml.NewModel(menu.DefaultModelConfig(
		filepath.Join(cfg.Model.Dir, menu.ModelName), cfg.Model.CategoryMinExamples, cfg.Model.CategoryMaxFeatures)))

	// 初始化快取
	resultCache, err := cache.New(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if resultCache != nil {
		defer resultCache.Close()
	}

	// 批次分析佇列
	queueManager := queue.NewManager(cfg.Queue)
	defer queueManager.Close()

	options := []analysis.Option{
		analysis.WithQueue(queueManager),
		analysis.WithCatalogPath(cfg.Catalog.Path),
	}
	if resultCache != nil {
		options = append(options, analysis.WithCache(resultCache))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		options = append(options, analysis.WithObserver(m))
	}

	engine := analysis.NewEngine(predictor, classifier, analysis.OptionsFromConfig(cfg), options...)

	// 菜單資料載入失敗時仍啟動服務，/ready 會回報未就緒
	if err := engine.LoadFile(cfg.Catalog.Path); err != nil {
		common.LogError("菜單資料載入失敗", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	} else if cfg.Model.TrainOnStartup {
		reports, err := engine.TrainMissing(context.Background())
		if err != nil {
			common.LogWarn("啟動訓練略過", zap.Error(err))
		}
		for _, r := range reports {
			if !r.Success {
				common.LogWarn("模型啟動訓練失敗", zap.String("model", r.Model), zap.String("error", r.Error))
			}
		}
	}

	// 資料庫
	var repo *persistence.Repository
	if cfg.Database.Enabled {
		db, err := persistence.Open(cfg.Database.Path, cfg.App.Debug)
		if err != nil {
			common.LogFatal("Failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
		}
		repo = persistence.NewRepository(db)
		defer repo.Close()
	}

	// OCR 服務
	var ocrClient *ocr.Client
	if cfg.OCR.Enabled {
		ocrClient = ocr.NewClient(&cfg.OCR)
	}

	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	defer dedup.Stop()

	// 監看菜單資料檔，變更時重新載入並重新訓練
	if cfg.Catalog.Watch {
		w, err := watcher.New(cfg.Catalog.Path, catalogDebounce, func(ctx context.Context) error {
			_, err := engine.Retrain(ctx)
			return err
		})
		if err != nil {
			common.LogError("Failed to watch catalog", zap.Error(err))
		} else {
			w.Start()
			defer w.Stop()
		}
	}

	// 設置路由
	router := api.SetupRouter(api.Dependencies{
		Config:       cfg,
		Engine:       engine,
		Images:       image.NewService(cfg.Image.MaxSizeBytes),
		OCR:          ocrClient,
		Repository:   repo,
		Metrics:      m,
		Queue:        queueManager,
		Deduplicator: dedup,
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		return
	}

	common.LogInfo("Server exited")
}
