package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"allergy-menu-guard/internal/core/cache"
	"allergy-menu-guard/internal/core/catalog/catalogtest"
	"allergy-menu-guard/internal/core/menu"
	"allergy-menu-guard/internal/core/ml"
	"allergy-menu-guard/internal/core/queue"
	"allergy-menu-guard/internal/core/risk"
	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, train bool, options ...Option) *Engine {
	t.Helper()

	p := risk.NewPredictor(ml.NewModel(risk.DefaultModelConfig("", 10, 0)))
	c := menu.NewClassifier(ml.NewModel(menu.DefaultModelConfig("", 10, 0)))
	e := NewEngine(p, c, DefaultOptions(), options...)
	require.NoError(t, e.Load(catalogtest.Cafe(t)))

	if train {
		_, err := e.TrainMissing(context.Background())
		require.NoError(t, err)
		require.True(t, p.Model().Available())
		require.True(t, c.Model().Available())
	}
	return e
}

type recordingObserver struct {
	mu       sync.Mutex
	stages   map[string]int
	failed   map[string]int
	analyses int
	retrains []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{stages: map[string]int{}, failed: map[string]int{}}
}

func (o *recordingObserver) ObserveStage(stage string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages[stage]++
	if err != nil {
		o.failed[stage]++
	}
}

func (o *recordingObserver) ObserveAnalysis(*Result) {
	o.mu.Lock()
	o.analyses++
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveRetrain(model string, _ time.Duration, _ error) {
	o.mu.Lock()
	o.retrains = append(o.retrains, model)
	o.mu.Unlock()
}

func TestAnalyze_NoAllergies(t *testing.T) {
	e := newEngine(t, true)

	res, err := e.Analyze(context.Background(), Request{Text: "Cafe Mocha", RequestID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, "r1", res.RequestID)
	assert.Equal(t, "Cafe Mocha", res.InputText)
	assert.Contains(t, res.IngredientAnalysis.ExtractedIngredients, "牛奶")
	assert.Equal(t, len(res.IngredientAnalysis.ExtractedIngredients), res.IngredientAnalysis.IngredientCount)

	require.NotEmpty(t, res.SimilarMenus.Items)
	assert.Equal(t, "3", res.SimilarMenus.Items[0].Menu.ID)

	assert.Nil(t, res.AllergyRisk)
	assert.Nil(t, res.Recommendations)
	require.NotNil(t, res.MenuClassification)
	assert.Equal(t, "咖啡", res.MenuClassification.Category)
	assert.Empty(t, res.DegradedStages)
	assert.False(t, res.Cached)
}

func TestAnalyze_WithAllergies(t *testing.T) {
	e := newEngine(t, true)

	res, err := e.Analyze(context.Background(), Request{Text: "카페라떼", Allergies: []string{"milk"}})
	require.NoError(t, err)
	assert.Empty(t, res.DegradedStages)

	ar := res.AllergyRisk
	require.NotNil(t, ar)
	require.NotNil(t, ar.RuleBasedAnalysis)
	assert.Equal(t, risk.Dangerous, ar.RuleBasedAnalysis.RiskLevel)
	assert.Equal(t, MLAvailable, ar.MLStatus)
	require.NotNil(t, ar.MLPrediction)
	assert.Equal(t, ar.MLPrediction.BasePrediction.Escalate(), ar.MLPrediction.FinalRisk)

	require.NotNil(t, ar.FinalRiskLevel)
	assert.Equal(t, risk.Max(ar.MLPrediction.FinalRisk, ar.RuleBasedAnalysis.RiskLevel), *ar.FinalRiskLevel)
	assert.Equal(t, risk.Dangerous, *ar.FinalRiskLevel)

	require.NotNil(t, res.Recommendations)
	require.Len(t, res.Recommendations.WarningMessages, 1)
	assert.Equal(t, "allergy_warning", res.Recommendations.WarningMessages[0].Type)
	for _, alt := range res.Recommendations.SafeAlternatives {
		assert.NotContains(t, alt.Menu.Ingredients, "牛奶")
	}
}

func TestAnalyze_AllergiesWithoutIngredients(t *testing.T) {
	e := newEngine(t, true)

	res, err := e.Analyze(context.Background(), Request{Text: "Americano", Allergies: []string{"milk"}})
	require.NoError(t, err)

	assert.Nil(t, res.AllergyRisk)
	require.NotNil(t, res.Recommendations)
	assert.Empty(t, res.Recommendations.WarningMessages)
}

func TestAnalyze_ModelUnavailableKeepsPartialResults(t *testing.T) {
	e := newEngine(t, false)

	res, err := e.Analyze(context.Background(), Request{Text: "Cafe Mocha", Allergies: []string{"milk"}})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SimilarMenus.Items)
	assert.Nil(t, res.SimilarMenus.Error)

	ar := res.AllergyRisk
	require.NotNil(t, ar)
	assert.Equal(t, MLUnavailable, ar.MLStatus)
	assert.Nil(t, ar.MLPrediction)
	require.NotNil(t, ar.MLError)
	assert.Equal(t, StageMLPrediction, ar.MLError.Stage)
	assert.Equal(t, common.ErrCodeDataUnavailable, ar.MLError.Code)

	require.NotNil(t, ar.FinalRiskLevel)
	assert.Equal(t, ar.RuleBasedAnalysis.RiskLevel, *ar.FinalRiskLevel)
	assert.Equal(t, risk.Dangerous, *ar.FinalRiskLevel)

	require.NotNil(t, res.MenuClassification)
	assert.Nil(t, res.MenuClassification.Classification)
	assert.NotNil(t, res.MenuClassification.Error)

	assert.Equal(t, []string{StageMLPrediction, StageMenuClassification}, res.DegradedStages)
	assert.True(t, res.Degraded())
}

func TestAnalyze_BlankTextSkipsClassification(t *testing.T) {
	e := newEngine(t, true)

	res, err := e.Analyze(context.Background(), Request{Text: "   "})
	require.NoError(t, err)
	assert.Empty(t, res.IngredientAnalysis.ExtractedIngredients)
	assert.Empty(t, res.SimilarMenus.Items)
	assert.Nil(t, res.MenuClassification)
}

func TestAnalyze_NothingLoaded(t *testing.T) {
	p := risk.NewPredictor(ml.NewModel(risk.DefaultModelConfig("", 10, 0)))
	c := menu.NewClassifier(ml.NewModel(menu.DefaultModelConfig("", 10, 0)))
	e := NewEngine(p, c, DefaultOptions())

	_, err := e.Analyze(context.Background(), Request{Text: "latte"})
	assert.True(t, errors.Is(err, common.ErrModelsUnavailable))
}

func TestStage_RecoversPanic(t *testing.T) {
	obs := newRecordingObserver()
	e := newEngine(t, false, WithObserver(obs))
	res := &Result{DegradedStages: []string{}}

	serr := e.stage(res, StageSimilarity, func() error {
		var m map[string]int
		m["boom"] = 1
		return nil
	})

	require.NotNil(t, serr)
	assert.Equal(t, StageSimilarity, serr.Stage)
	assert.Equal(t, common.ErrCodeStageFailed, serr.Code)
	assert.Contains(t, serr.Message, "panicked")
	assert.Equal(t, []string{StageSimilarity}, res.DegradedStages)
	assert.Equal(t, 1, obs.failed[StageSimilarity])
}

func TestAnalyze_Observer(t *testing.T) {
	obs := newRecordingObserver()
	e := newEngine(t, true, WithObserver(obs))

	_, err := e.Analyze(context.Background(), Request{Text: "latte", Allergies: []string{"milk"}})
	require.NoError(t, err)

	for _, stage := range []string{StageExtraction, StageSimilarity, StageRuleScoring, StageMLPrediction, StageFusion, StageRecommendations, StageMenuClassification} {
		assert.Equal(t, 1, obs.stages[stage], stage)
	}
	assert.Equal(t, 1, obs.analyses)
}

func TestAnalyze_Cache(t *testing.T) {
	mem := cache.NewManager(&config.Config{Cache: config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute}})
	defer mem.Close()
	e := newEngine(t, true, WithCache(mem))
	ctx := context.Background()

	first, err := e.Analyze(ctx, Request{Text: "Hazelnut Latte", Allergies: []string{"nuts"}, RequestID: "a"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	time.Sleep(5 * time.Millisecond)
	second, err := e.Analyze(ctx, Request{Text: "Hazelnut Latte", Allergies: []string{"nuts"}, RequestID: "b"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "b", second.RequestID)
	assert.True(t, second.AnalyzedAt.After(first.AnalyzedAt), "cache hit keeps the first timestamp")
	assert.Equal(t, first.IngredientAnalysis.ExtractedIngredients, second.IngredientAnalysis.ExtractedIngredients)
	assert.Equal(t, *first.AllergyRisk.FinalRiskLevel, *second.AllergyRisk.FinalRiskLevel)

	other, err := e.Analyze(ctx, Request{Text: "Hazelnut Latte", Allergies: []string{"milk"}})
	require.NoError(t, err)
	assert.False(t, other.Cached)
}

func TestAnalyze_DegradedResultsNotCached(t *testing.T) {
	mem := cache.NewManager(&config.Config{Cache: config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute}})
	defer mem.Close()
	e := newEngine(t, false, WithCache(mem))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := e.Analyze(ctx, Request{Text: "latte", Allergies: []string{"milk"}})
		require.NoError(t, err)
		assert.False(t, res.Cached)
	}
}

func TestCheckRisk_ScenarioA(t *testing.T) {
	e := newEngine(t, false)

	ar, degraded, err := e.CheckRisk([]string{"milk", "chocolate syrup"}, []string{"milk", "chocolate"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, ar.RuleBasedAnalysis.RiskRatio)
	assert.Equal(t, risk.Dangerous, *ar.FinalRiskLevel)
	assert.Equal(t, []string{StageMLPrediction}, degraded)
}

func TestAnalyzeBatch(t *testing.T) {
	q := queue.NewManager(config.QueueConfig{Workers: 2, MaxSize: 2})
	defer q.Close()
	e := newEngine(t, true, WithQueue(q))

	texts := []string{"Latte", "Iced Lemon Tea", "Croissant", "Mango Smoothie", "Americano"}
	items, err := e.AnalyzeBatch(context.Background(), texts, []string{"milk"}, "batch")
	require.NoError(t, err)
	require.Len(t, items, len(texts))

	for i, item := range items {
		assert.Equal(t, i, item.MenuIndex)
		require.Nil(t, item.Error)
		require.NotNil(t, item.Result)
		assert.Equal(t, texts[i], item.Result.InputText)
	}
}

func TestAnalyzeBatch_Limits(t *testing.T) {
	e := newEngine(t, true)

	_, err := e.AnalyzeBatch(context.Background(), nil, nil, "x")
	assert.True(t, common.IsValidationError(err))

	texts := make([]string, e.Options().MaxBatchSize+1)
	_, err = e.AnalyzeBatch(context.Background(), texts, nil, "x")
	assert.True(t, errors.Is(err, common.ErrInvalidRequest))
}

func TestAnalyzeBatch_InlineWithoutQueue(t *testing.T) {
	e := newEngine(t, true)

	items, err := e.AnalyzeBatch(context.Background(), []string{"Latte", "Croissant"}, nil, "b")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Croissant", items[1].Result.InputText)
}

func TestRetrain(t *testing.T) {
	obs := newRecordingObserver()
	e := newEngine(t, false, WithObserver(obs))
	before, err := e.Snapshot()
	require.NoError(t, err)

	report, err := e.Retrain(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Models, 2)
	for _, m := range report.Models {
		assert.True(t, m.Success, m.Model)
		assert.NotEmpty(t, m.RunID)
	}
	assert.Equal(t, []string{risk.ModelName, menu.ModelName}, obs.retrains)

	after, err := e.Snapshot()
	require.NoError(t, err)
	assert.NotEqual(t, before.Version, after.Version)
	assert.Equal(t, after.Version, report.CatalogVersion)
}

func TestRetrain_InProgress(t *testing.T) {
	e := newEngine(t, false)

	e.retrainMu.Lock()
	defer e.retrainMu.Unlock()

	_, err := e.Retrain(context.Background())
	assert.True(t, errors.Is(err, common.ErrRetrainInProgress))
}

func TestStatus(t *testing.T) {
	e := newEngine(t, false)

	st := e.Status()
	assert.True(t, st.Ready)
	require.NotNil(t, st.Catalog)
	assert.Equal(t, 8, st.Catalog.Items)
	assert.True(t, st.SimilarityIndex.Available)
	require.Len(t, st.Models, 2)
	assert.False(t, st.Models[0].Loaded)

	_, err := e.TrainMissing(context.Background())
	require.NoError(t, err)
	st = e.Status()
	assert.True(t, st.Models[0].Loaded)
	assert.True(t, st.Models[1].Loaded)
}
