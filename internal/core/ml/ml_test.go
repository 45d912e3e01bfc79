package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	t.Run("WordNgrams", func(t *testing.T) {
		got := Analyze("Iced Caffe Latte!", 1, 2)
		assert.Equal(t, []string{"iced", "caffe", "latte", "iced caffe", "caffe latte"}, got)
	})

	t.Run("DropsSingleLatinRune", func(t *testing.T) {
		assert.Equal(t, []string{"latte"}, Analyze("a latte", 1, 1))
	})

	t.Run("CJKBigrams", func(t *testing.T) {
		got := Analyze("冰拿鐵", 1, 1)
		assert.Equal(t, []string{"冰拿鐵", "冰拿", "拿鐵"}, got)
	})

	t.Run("SingleHanKept", func(t *testing.T) {
		assert.Equal(t, []string{"蝦"}, Analyze("蝦", 1, 1))
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, Analyze("!!", 1, 3))
	})
}

func TestVector(t *testing.T) {
	a := Vector{Indices: []int{0, 2, 5}, Values: []float64{1, 2, 3}}
	b := Vector{Indices: []int{2, 3, 5}, Values: []float64{4, 1, 1}}

	assert.InDelta(t, 11.0, a.Dot(b), 1e-9)
	assert.InDelta(t, math.Sqrt(14), a.Norm(), 1e-9)
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.Equal(t, 0.0, Cosine(a, Vector{}))
}

func TestVectorizer(t *testing.T) {
	docs := []string{"caffe latte", "iced latte", "green tea"}

	v := NewVectorizer(VectorizerConfig{NgramMin: 1, NgramMax: 1})
	X := v.FitTransform(docs)

	assert.Equal(t, []string{"caffe", "green", "iced", "latte", "tea"}, v.Terms)

	// latte 出現在兩份文件，idf 較低
	latte, caffe := v.IDF[3], v.IDF[0]
	assert.InDelta(t, math.Log(4.0/3.0)+1, latte, 1e-9)
	assert.InDelta(t, math.Log(4.0/2.0)+1, caffe, 1e-9)

	for _, x := range X {
		assert.InDelta(t, 1.0, x.Norm(), 1e-9)
	}

	q := v.Transform("latte")
	assert.Greater(t, Cosine(q, X[0]), 0.0)
	assert.Equal(t, 0.0, Cosine(q, X[2]))
	assert.Equal(t, 0, v.Transform("espresso").Len())
}

func TestVectorizer_MaxFeatures(t *testing.T) {
	v := NewVectorizer(VectorizerConfig{NgramMin: 1, NgramMax: 1, MaxFeatures: 2})
	v.Fit([]string{"latte latte mocha", "latte tea", "mocha"})

	assert.Equal(t, []string{"latte", "mocha"}, v.Terms)
}

func TestVectorizer_JSONRoundTripRebuildsVocab(t *testing.T) {
	v := NewVectorizer(VectorizerConfig{NgramMin: 1, NgramMax: 2})
	v.Fit([]string{"caffe latte", "iced latte"})

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var restored Vectorizer
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, v.Transform("iced latte"), restored.Transform("iced latte"))
}

func TestNaiveBayes(t *testing.T) {
	v := NewVectorizer(VectorizerConfig{NgramMin: 1, NgramMax: 1})
	X := v.FitTransform([]string{"milk cream", "milk butter", "water ice", "water lemon"})

	nb := NewNaiveBayes(1.0)
	require.NoError(t, nb.Fit(X, []int{0, 0, 1, 1}, v.NumFeatures(), 2))

	c, p := nb.Predict(v.Transform("milk"))
	assert.Equal(t, 0, c)
	assert.Greater(t, p, 0.5)

	proba := nb.PredictProba(v.Transform("water"))
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-9)
	assert.Greater(t, proba[1], proba[0])

	assert.Error(t, nb.Fit(X, []int{0}, v.NumFeatures(), 2))
	assert.Error(t, nb.Fit(X, []int{0, 0, 0, 0}, v.NumFeatures(), 2))
}

func TestLabelEncoder(t *testing.T) {
	enc := &LabelEncoder{}
	enc.Fit([]string{"safe", "dangerous", "safe", "low_risk"})

	assert.Equal(t, []string{"dangerous", "low_risk", "safe"}, enc.Classes)

	i, err := enc.Transform("safe")
	require.NoError(t, err)
	assert.Equal(t, 2, i)
	assert.Equal(t, "low_risk", enc.Inverse(1))
	assert.Equal(t, "", enc.Inverse(9))

	_, err = enc.Transform("unknown")
	assert.Error(t, err)
}

func trainingSet() ([]string, []string) {
	docs := []string{
		"milk cream", "milk butter", "latte milk", "cream cheese",
		"water ice", "water lemon", "espresso water", "ice tea",
	}
	labels := []string{"risky", "risky", "risky", "risky", "safe", "safe", "safe", "safe"}
	return docs, labels
}

func newTestModel(dir string, min int) *Model {
	return NewModel(ModelConfig{
		Name:        "test",
		Dir:         dir,
		MinExamples: min,
		Vectorizer:  VectorizerConfig{NgramMin: 1, NgramMax: 2},
	})
}

func TestModel_TrainPredictReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "risk")
	docs, labels := trainingSet()

	m := newTestModel(dir, 4)
	b, err := m.Train(docs, labels)
	require.NoError(t, err)
	assert.NotEmpty(t, b.RunID)

	pred, err := m.Predict("hot milk")
	require.NoError(t, err)
	assert.Equal(t, "risky", pred.Label)
	assert.GreaterOrEqual(t, pred.Confidence, 0.0)
	assert.LessOrEqual(t, pred.Confidence, 1.0)

	// 新的實例從磁碟延遲載入，預測結果一致
	reloaded := newTestModel(dir, 4)
	assert.False(t, reloaded.Status().Loaded)
	pred2, err := reloaded.Predict("hot milk")
	require.NoError(t, err)
	assert.Equal(t, pred.Label, pred2.Label)
	assert.InDelta(t, pred.Confidence, pred2.Confidence, 1e-12)
	assert.Equal(t, b.RunID, reloaded.Status().RunID)
}

func TestModel_TrainingIsDeterministic(t *testing.T) {
	docs, labels := trainingSet()

	a := newTestModel("", 4)
	b := newTestModel("", 4)
	_, err := a.Train(docs, labels)
	require.NoError(t, err)
	_, err = b.Train(docs, labels)
	require.NoError(t, err)

	for _, q := range []string{"hot milk", "lemon water", "cream tea", "unknown"} {
		pa, err := a.Predict(q)
		require.NoError(t, err)
		pb, err := b.Predict(q)
		require.NoError(t, err)
		assert.Equal(t, pa.Label, pb.Label, q)
		assert.Equal(t, pa.Probabilities, pb.Probabilities, q)
	}
}

func TestModel_InsufficientDataKeepsExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "risk")
	docs, labels := trainingSet()

	m := newTestModel(dir, 6)
	first, err := m.Train(docs, labels)
	require.NoError(t, err)

	_, err = m.Train(docs[:3], labels[:3])
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInsufficientTrainingData))

	assert.Equal(t, first.RunID, m.Status().RunID)
	onDisk, err := LoadBundle(dir)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, onDisk.RunID)
}

func TestModel_Unavailable(t *testing.T) {
	m := newTestModel(filepath.Join(t.TempDir(), "missing"), 1)

	_, err := m.Predict("milk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))
	assert.False(t, m.Available())
	assert.NotEmpty(t, m.Status().LastError)

	inMemory := newTestModel("", 1)
	assert.False(t, inMemory.Available())
}

func TestLoadBundle_RunIDMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "risk")
	docs, labels := trainingSet()

	m := newTestModel(dir, 1)
	_, err := m.Train(docs, labels)
	require.NoError(t, err)

	// 以另一次訓練的標籤檔覆蓋
	other := filepath.Join(t.TempDir(), "other")
	_, err = newTestModel(other, 1).Train(docs, labels)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(other, labelsFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, labelsFile), data, 0o644))

	_, err = LoadBundle(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrArtifactMismatch))
}

func TestLoadBundle_FormatVersion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "risk")
	docs, labels := trainingSet()
	_, err := newTestModel(dir, 1).Train(docs, labels)
	require.NoError(t, err)

	path := filepath.Join(dir, classifierFile)
	var raw map[string]interface{}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["format_version"] = FormatVersion + 1
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = LoadBundle(dir)
	assert.True(t, errors.Is(err, common.ErrArtifactMismatch))
}

func TestModel_ConcurrentPredictDuringRetrain(t *testing.T) {
	docs, labels := trainingSet()
	m := newTestModel(filepath.Join(t.TempDir(), "risk"), 1)
	_, err := m.Train(docs, labels)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := m.Predict("milk latte")
				assert.NoError(t, err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := m.Train(docs, labels)
		if err != nil {
			assert.True(t, errors.Is(err, common.ErrRetrainInProgress))
		}
	}()

	wg.Wait()
	assert.True(t, m.Status().Loaded)
}

func TestModel_RetrainInProgress(t *testing.T) {
	m := newTestModel("", 1)
	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	_, err := m.Train([]string{"milk"}, []string{"risky"})
	assert.True(t, errors.Is(err, common.ErrRetrainInProgress))
}
