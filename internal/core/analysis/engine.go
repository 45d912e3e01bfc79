package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"allergy-menu-guard/internal/core/cache"
	"allergy-menu-guard/internal/core/catalog"
	"allergy-menu-guard/internal/core/menu"
	"allergy-menu-guard/internal/core/queue"
	"allergy-menu-guard/internal/core/risk"
	"allergy-menu-guard/internal/core/similarity"
	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/pkg/common"

	"go.uber.org/zap"
)

// Options 分析參數
type Options struct {
	SimilarTopK           int
	SuggestionTopK        int
	SafeAlternativeTopK   int
	MinSimilarity         float64
	Thresholds            risk.Thresholds
	SimilarityMaxFeatures int
	MaxBatchSize          int
}

// DefaultOptions 預設分析參數
func DefaultOptions() Options {
	return Options{
		SimilarTopK:           5,
		SuggestionTopK:        5,
		SafeAlternativeTopK:   5,
		MinSimilarity:         similarity.DefaultMinSimilarity,
		Thresholds:            risk.DefaultThresholds,
		SimilarityMaxFeatures: 1000,
		MaxBatchSize:          20,
	}
}

// OptionsFromConfig 由設定檔建立分析參數
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SimilarTopK:         cfg.Analysis.SimilarTopK,
		SuggestionTopK:      cfg.Analysis.SuggestionTopK,
		SafeAlternativeTopK: cfg.Analysis.SafeAlternativeTopK,
		MinSimilarity:       cfg.Analysis.MinSimilarity,
		Thresholds: risk.Thresholds{
			LowRisk:   cfg.Analysis.LowRiskRatio,
			Dangerous: cfg.Analysis.DangerousRatio,
		},
		SimilarityMaxFeatures: cfg.Model.SimilarityMaxFeatures,
		MaxBatchSize:          cfg.Analysis.MaxBatchSize,
	}
}

// Option 引擎選項
type Option func(*Engine)

// WithCache 啟用分析結果快取
func WithCache(c cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithQueue 批次分析改由隊列的 worker 執行
func WithQueue(q *queue.Manager) Option {
	return func(e *Engine) { e.queue = q }
}

// WithObserver 設定指標收集
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithCatalogPath 重新訓練時從此路徑重新讀取菜單資料
func WithCatalogPath(path string) Option {
	return func(e *Engine) { e.catalogPath = path }
}

// Engine 分析流程協調者。請求之間互相平行，單一請求內各階段依序執行；
// 任一階段失敗只影響該階段的結果。
type Engine struct {
	opts        Options
	catalogPath string

	knowledge  atomic.Pointer[Knowledge]
	predictor  *risk.Predictor
	classifier *menu.Classifier

	cache    cache.Cache
	queue    *queue.Manager
	observer Observer

	retrainMu sync.Mutex
}

// NewEngine 建立分析引擎，菜單資料需另外以 Load 或 LoadFile 載入
func NewEngine(predictor *risk.Predictor, classifier *menu.Classifier, opts Options, options ...Option) *Engine {
	def := DefaultOptions()
	if opts.SimilarTopK <= 0 {
		opts.SimilarTopK = def.SimilarTopK
	}
	if opts.SuggestionTopK <= 0 {
		opts.SuggestionTopK = def.SuggestionTopK
	}
	if opts.SafeAlternativeTopK <= 0 {
		opts.SafeAlternativeTopK = def.SafeAlternativeTopK
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = def.MaxBatchSize
	}

	e := &Engine{
		opts:       opts,
		predictor:  predictor,
		classifier: classifier,
		observer:   nopObserver{},
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Options 目前的分析參數
func (e *Engine) Options() Options {
	return e.opts
}

// Predictor 風險模型
func (e *Engine) Predictor() *risk.Predictor {
	return e.predictor
}

// Classifier 菜單分類模型
func (e *Engine) Classifier() *menu.Classifier {
	return e.classifier
}

// Load 以菜單資料建立新快照並替換
func (e *Engine) Load(c *catalog.Catalog) error {
	k, err := BuildKnowledge(c, e.opts)
	if err != nil {
		return err
	}
	e.knowledge.Store(k)

	common.LogInfo("分析知識庫已更新",
		zap.String("version", k.Version),
		zap.Int("menu_items", c.Len()),
		zap.Int("synonym_groups", k.Graph.Len()),
		zap.Bool("similarity_index", k.Index != nil),
	)
	return nil
}

// LoadFile 讀取菜單資料檔並載入
func (e *Engine) LoadFile(path string) error {
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}
	if e.catalogPath == "" {
		e.catalogPath = path
	}
	return e.Load(c)
}

// Snapshot 目前的知識庫快照
func (e *Engine) Snapshot() (*Knowledge, error) {
	k := e.knowledge.Load()
	if k == nil {
		return nil, common.Wrap(common.ErrDataUnavailable, errors.New("menu catalog has not been loaded"))
	}
	return k, nil
}

// Analyze 執行完整分析流程。只有在所有模型都不可用時才回傳錯誤，
// 其他情況下失敗的階段會記錄在 degraded_stages，其餘結果照常回傳。
func (e *Engine) Analyze(ctx context.Context, req Request) (*Result, error) {
	k, err := e.Snapshot()
	if err != nil {
		return nil, common.Wrap(common.ErrModelsUnavailable, err)
	}

	riskReady := e.predictor.Model().Available()
	menuReady := e.classifier.Model().Available()
	if k.Index == nil && !riskReady && !menuReady {
		return nil, common.ErrModelsUnavailable
	}

	allergies := common.CompactStrings(req.Allergies)
	key := e.cacheKey(k, req.Text, allergies)

	if cached, ok := e.fromCache(ctx, key); ok {
		cached.RequestID = req.RequestID
		cached.AnalyzedAt = time.Now()
		e.observer.ObserveAnalysis(cached)
		return cached, nil
	}

	res := e.run(k, req, allergies)
	e.observer.ObserveAnalysis(res)

	if !res.Degraded() {
		e.toCache(ctx, key, res)
	}
	return res, nil
}

func (e *Engine) run(k *Knowledge, req Request, allergies []string) *Result {
	res := &Result{
		RequestID:      req.RequestID,
		InputText:      req.Text,
		AnalyzedAt:     time.Now().UTC(),
		DegradedStages: []string{},
	}

	// 成分擷取
	ia := &IngredientAnalysis{ExtractedIngredients: []string{}}
	if serr := e.stage(res, StageExtraction, func() error {
		ia.ExtractedIngredients = k.Graph.Extract(req.Text)
		ia.IngredientCount = len(ia.ExtractedIngredients)
		return nil
	}); serr != nil {
		ia.Error = serr
	}
	res.IngredientAnalysis = ia

	// 相似菜單
	sm := &SimilarMenus{Items: []similarity.Result{}}
	if serr := e.stage(res, StageSimilarity, func() error {
		if k.Index == nil {
			return indexUnavailable(k)
		}
		sm.Items = k.Index.FindSimilar(req.Text, e.opts.SimilarTopK)
		return nil
	}); serr != nil {
		sm.Error = serr
	}
	res.SimilarMenus = sm

	// 過敏風險
	if len(allergies) > 0 && len(ia.ExtractedIngredients) > 0 {
		res.AllergyRisk = e.assess(res, k, ia.ExtractedIngredients, allergies)
	}

	// 個人化建議
	if len(allergies) > 0 {
		rec := &Recommendations{}
		if serr := e.stage(res, StageRecommendations, func() error {
			if k.Index == nil {
				return indexUnavailable(k)
			}
			rec.Recommendations = k.Index.Recommend(allergies, ia.ExtractedIngredients, e.opts.SafeAlternativeTopK)
			return nil
		}); serr != nil {
			rec.Error = serr
		}
		res.Recommendations = rec
	}

	// 菜單分類
	if strings.TrimSpace(req.Text) != "" {
		mc := &MenuClassification{}
		if serr := e.stage(res, StageMenuClassification, func() error {
			c, err := e.classifier.Classify(req.Text)
			if err != nil {
				return err
			}
			mc.Classification = c
			return nil
		}); serr != nil {
			mc.Error = serr
		}
		res.MenuClassification = mc
	}

	return res
}

// CheckRisk 只執行規則評估、模型預測與融合，不需要菜單文字
func (e *Engine) CheckRisk(ingredients, allergies []string) (*AllergyRisk, []string, error) {
	k, err := e.Snapshot()
	if err != nil {
		return nil, nil, err
	}

	res := &Result{DegradedStages: []string{}}
	ar := e.assess(res, k, common.CompactStrings(ingredients), common.CompactStrings(allergies))
	return ar, res.DegradedStages, nil
}

// assess 規則與模型兩種訊號互不依賴，任一失敗時另一個照常產出
func (e *Engine) assess(res *Result, k *Knowledge, ingredients, allergies []string) *AllergyRisk {
	ar := &AllergyRisk{MLStatus: MLUnavailable}

	var rule *risk.RuleResult
	if serr := e.stage(res, StageRuleScoring, func() error {
		r := k.Scorer.Score(ingredients, allergies)
		rule = &r
		return nil
	}); serr != nil {
		ar.Error = serr
	}
	ar.RuleBasedAnalysis = rule

	var pred *risk.MLPrediction
	if serr := e.stage(res, StageMLPrediction, func() error {
		p, err := e.predictor.Predict(ingredients)
		if err != nil {
			return err
		}
		pred = p
		return nil
	}); serr != nil {
		ar.MLError = serr
	}
	if pred != nil {
		ar.MLStatus = MLAvailable
	}

	if serr := e.stage(res, StageFusion, func() error {
		var base *risk.Level
		if pred != nil {
			b := pred.BaseLevel
			base = &b
		}

		var final risk.Level
		var adjusted *risk.Level
		switch {
		case rule != nil:
			d := risk.Fuse(*rule, base)
			final, adjusted = d.Final, d.AdjustedML
		case base != nil:
			// 規則評估失敗時無從得知是否相符，依較保守的方向調整
			a := risk.Adjust(*base, true)
			final, adjusted = a, &a
		default:
			return errors.New("no risk signal available")
		}

		if pred != nil {
			ar.MLPrediction = &MLRisk{
				BasePrediction: pred.BaseLevel,
				FinalRisk:      *adjusted,
				Confidence:     pred.Confidence,
				Probabilities:  pred.Probabilities,
				ModelRunID:     pred.ModelRunID,
			}
		}
		ar.FinalRiskLevel = &final
		return nil
	}); serr != nil && ar.Error == nil {
		ar.Error = serr
	}

	return ar
}

// stage 執行單一階段，錯誤與 panic 都轉成該階段的 StageError
func (e *Engine) stage(res *Result, name string, fn func() error) *StageError {
	start := time.Now()
	err := guard(name, fn)
	duration := time.Since(start)

	common.LogStage(name, duration, err, res.RequestID)
	e.observer.ObserveStage(name, duration, err)

	if err == nil {
		return nil
	}
	res.DegradedStages = append(res.DegradedStages, name)
	return newStageError(name, err)
}

func guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", name, r)
		}
	}()
	return fn()
}

func indexUnavailable(k *Knowledge) error {
	if k.IndexErr != nil {
		return k.IndexErr
	}
	return common.Wrap(common.ErrDataUnavailable, errors.New("similarity index is not available"))
}

// cacheKey 快取鍵包含知識庫版本與模型 run id，重新載入或重新訓練後自然失效
func (e *Engine) cacheKey(k *Knowledge, text string, allergies []string) string {
	parts := []string{
		k.Version,
		e.predictor.Model().Status().RunID,
		e.classifier.Model().Status().RunID,
		text,
		strings.Join(allergies, "\x1f"),
	}
	return common.HashString(strings.Join(parts, "\x00"))
}

func (e *Engine) fromCache(ctx context.Context, key string) (*Result, bool) {
	if e.cache == nil {
		return nil, false
	}

	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取分析快取失敗", zap.Error(err))
		}
		return nil, false
	}

	var res Result
	if err := common.ParseJSON(data, &res); err != nil {
		common.LogWarn("分析快取內容無法解析", zap.Error(err))
		return nil, false
	}
	res.Cached = true
	return &res, true
}

func (e *Engine) toCache(ctx context.Context, key string, res *Result) {
	if e.cache == nil {
		return
	}

	data, err := common.ToJSON(res)
	if err != nil {
		common.LogWarn("分析結果序列化失敗", zap.Error(err))
		return
	}
	if err := e.cache.Set(ctx, key, data); err != nil {
		common.LogWarn("寫入分析快取失敗", zap.Error(err))
	}
}
