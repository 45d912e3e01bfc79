// Package main 離線訓練風險與菜單分類模型，完成後以幾個固定輸入做冒煙測試
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"allergy-menu-guard/internal/core/analysis"
	"allergy-menu-guard/internal/core/menu"
	"allergy-menu-guard/internal/core/ml"
	"allergy-menu-guard/internal/core/risk"
	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type options struct {
	catalogPath string
	modelDir    string
	skipSmoke   bool
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var opts options
	flag.StringVar(&opts.catalogPath, "catalog", cfg.Catalog.Path, "Path to the menu dataset (JSON or YAML)")
	flag.StringVar(&opts.modelDir, "models", cfg.Model.Dir, "Directory where model artifacts are written")
	flag.BoolVar(&opts.skipSmoke, "skip-smoke", false, "Skip smoke tests after training")
	flag.Parse()

	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	if err := run(cfg, opts); err != nil {
		common.LogError("模型訓練失敗", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts options) error {
	if err := os.MkdirAll(opts.modelDir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	predictor := risk.NewPredictor(ml.NewModel(risk.DefaultModelConfig(
		filepath.Join(opts.modelDir, risk.ModelName), cfg.Model.RiskMinExamples, cfg.Model.RiskMaxFeatures)))
	classifier := menu.NewClassifier(ml.NewModel(menu.DefaultModelConfig(
		filepath.Join(opts.modelDir, menu.ModelName), cfg.Model.CategoryMinExamples, cfg.Model.CategoryMaxFeatures)))

	engine := analysis.NewEngine(predictor, classifier, analysis.OptionsFromConfig(cfg),
		analysis.WithCatalogPath(opts.catalogPath))

	common.LogInfo("開始訓練模型",
		zap.String("catalog", opts.catalogPath),
		zap.String("model_dir", opts.modelDir),
	)

	report, err := engine.Retrain(context.Background())
	if err != nil {
		return err
	}

	failed := 0
	for _, m := range report.Models {
		if !m.Success {
			failed++
			common.LogError("模型訓練失敗", zap.String("model", m.Model), zap.String("error", m.Error))
			continue
		}
		common.LogInfo("模型訓練完成",
			zap.String("model", m.Model),
			zap.String("run_id", m.RunID),
			zap.Int("examples", m.Examples),
			zap.Duration("duration", m.Duration),
		)
	}

	common.LogInfo("訓練結果摘要",
		zap.String("catalog_version", report.CatalogVersion),
		zap.Int("catalog_items", report.CatalogItems),
		zap.Int("models", len(report.Models)),
		zap.Int("failed", failed),
	)

	if !opts.skipSmoke {
		if err := smoke(engine); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d models failed to train", failed, len(report.Models))
	}
	return nil
}

// smoke 以固定輸入確認模型與相似度索引可用
func smoke(engine *analysis.Engine) error {
	cls, err := engine.Classifier().Classify("카페라떼")
	if err != nil {
		return fmt.Errorf("smoke menu classifier: %w", err)
	}
	common.LogInfo("菜單分類測試", zap.String("input", "카페라떼"), zap.String("category", cls.Category),
		zap.Float64("confidence", cls.Confidence))

	ar, degraded, err := engine.CheckRisk([]string{"우유", "초콜릿"}, []string{"우유"})
	if err != nil {
		return fmt.Errorf("smoke risk check: %w", err)
	}
	if len(degraded) > 0 || ar.FinalRiskLevel == nil {
		return fmt.Errorf("smoke risk check degraded: %v", degraded)
	}
	common.LogInfo("過敏風險測試", zap.Stringer("final_risk", *ar.FinalRiskLevel))

	k, err := engine.Snapshot()
	if err != nil {
		return err
	}
	if k.Index == nil {
		return fmt.Errorf("smoke similarity: %w", k.IndexErr)
	}
	similar := k.Index.FindSimilar("라떼", 3)
	common.LogInfo("相似菜單測試", zap.String("input", "라떼"), zap.Int("found", len(similar)))
	return nil
}
