package analysis

import (
	"context"
	"errors"
	"time"

	"allergy-menu-guard/internal/core/catalog"
	"allergy-menu-guard/internal/core/ml"
	"allergy-menu-guard/internal/pkg/common"

	"go.uber.org/zap"
)

// CatalogStatus 目前載入的菜單資料
type CatalogStatus struct {
	Source     string    `json:"source,omitempty"`
	Items      int       `json:"items"`
	Categories int       `json:"allergen_categories"`
	Version    string    `json:"version"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// IndexStatus 相似度索引狀態
type IndexStatus struct {
	Available bool   `json:"available"`
	Documents int    `json:"documents"`
	Features  int    `json:"features"`
	Error     string `json:"error,omitempty"`
}

// Status 引擎整體狀態，不會觸發模型載入
type Status struct {
	Ready           bool                   `json:"ready"`
	Catalog         *CatalogStatus         `json:"catalog,omitempty"`
	SimilarityIndex IndexStatus            `json:"similarity_index"`
	Models          []ml.Status            `json:"models"`
	Cache           map[string]interface{} `json:"cache,omitempty"`
}

// Status 目前狀態
func (e *Engine) Status() Status {
	st := Status{
		Models: []ml.Status{
			e.predictor.Model().Status(),
			e.classifier.Model().Status(),
		},
	}

	if k := e.knowledge.Load(); k != nil {
		st.Catalog = &CatalogStatus{
			Source:     k.Catalog.Source(),
			Items:      k.Catalog.Len(),
			Categories: len(k.Catalog.Categories()),
			Version:    k.Version,
			LoadedAt:   k.LoadedAt,
		}
		if k.Index != nil {
			st.SimilarityIndex = IndexStatus{
				Available: true,
				Documents: k.Index.NumDocuments(),
				Features:  k.Index.NumFeatures(),
			}
		} else if k.IndexErr != nil {
			st.SimilarityIndex.Error = k.IndexErr.Error()
		}
	}

	st.Ready = st.SimilarityIndex.Available
	for _, m := range st.Models {
		st.Ready = st.Ready || m.Loaded
	}

	if e.cache != nil {
		st.Cache = e.cache.GetStats()
	}
	return st
}

// ModelReport 單一模型的訓練結果
type ModelReport struct {
	Model    string        `json:"model"`
	Success  bool          `json:"success"`
	RunID    string        `json:"run_id,omitempty"`
	Examples int           `json:"examples,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// RetrainReport 重新訓練結果
type RetrainReport struct {
	CatalogVersion string        `json:"catalog_version"`
	CatalogItems   int           `json:"catalog_items"`
	Models         []ModelReport `json:"models"`
}

// Retrain 重新讀取菜單資料、重建知識庫並重新訓練所有模型。
// 同時只允許一個重新訓練；單一模型訓練失敗時保留舊模型，不影響其他模型。
func (e *Engine) Retrain(ctx context.Context) (*RetrainReport, error) {
	if !e.retrainMu.TryLock() {
		return nil, common.ErrRetrainInProgress
	}
	defer e.retrainMu.Unlock()

	c, err := e.currentCatalog()
	if err != nil {
		return nil, err
	}

	k, err := BuildKnowledge(c, e.opts)
	if err != nil {
		return nil, err
	}
	e.knowledge.Store(k)

	report := &RetrainReport{
		CatalogVersion: k.Version,
		CatalogItems:   c.Len(),
		Models: []ModelReport{
			e.trainModel(e.predictor.Model().Name(), func() (*ml.Bundle, error) { return e.predictor.Train(c) }),
			e.trainModel(e.classifier.Model().Name(), func() (*ml.Bundle, error) { return e.classifier.Train(c) }),
		},
	}

	common.LogInfo("重新訓練完成",
		zap.String("catalog_version", k.Version),
		zap.Int("menu_items", c.Len()),
	)
	return report, nil
}

// TrainMissing 只訓練目前無法載入的模型，啟動時使用
func (e *Engine) TrainMissing(ctx context.Context) ([]ModelReport, error) {
	k, err := e.Snapshot()
	if err != nil {
		return nil, err
	}

	var reports []ModelReport
	if !e.predictor.Model().Available() {
		reports = append(reports, e.trainModel(e.predictor.Model().Name(),
			func() (*ml.Bundle, error) { return e.predictor.Train(k.Catalog) }))
	}
	if !e.classifier.Model().Available() {
		reports = append(reports, e.trainModel(e.classifier.Model().Name(),
			func() (*ml.Bundle, error) { return e.classifier.Train(k.Catalog) }))
	}
	return reports, nil
}

func (e *Engine) currentCatalog() (*catalog.Catalog, error) {
	if e.catalogPath != "" {
		return catalog.Load(e.catalogPath)
	}
	k := e.knowledge.Load()
	if k == nil {
		return nil, common.Wrap(common.ErrDataUnavailable, errors.New("no catalog path and nothing loaded"))
	}
	return k.Catalog, nil
}

func (e *Engine) trainModel(name string, train func() (*ml.Bundle, error)) ModelReport {
	start := time.Now()
	b, err := train()
	duration := time.Since(start)
	e.observer.ObserveRetrain(name, duration, err)

	rep := ModelReport{Model: name, Duration: duration}
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Success = true
	rep.RunID = b.RunID
	rep.Examples = b.Examples
	return rep
}
