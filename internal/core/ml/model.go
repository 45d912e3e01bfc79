package ml

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ModelConfig 單一文字分類模型的設定
type ModelConfig struct {
	Name        string
	Dir         string // 空字串表示只存在記憶體
	MinExamples int
	Vectorizer  VectorizerConfig
	Alpha       float64
}

// Prediction 分類結果
type Prediction struct {
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Status 模型狀態
type Status struct {
	Name      string    `json:"name"`
	Loaded    bool      `json:"loaded"`
	RunID     string    `json:"run_id,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
	Examples  int       `json:"examples,omitempty"`
	Features  int       `json:"features,omitempty"`
	Classes   []string  `json:"classes,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// Model 擁有明確生命週期的文字分類模型。
// 推論只讀取已發布的 Bundle，不需加鎖；重新訓練在旁邊建好新 Bundle 後一次替換。
type Model struct {
	cfg ModelConfig

	current atomic.Pointer[Bundle]
	loadMu  sync.Mutex
	trainMu sync.Mutex

	errMu   sync.RWMutex
	lastErr error
}

// NewModel 建立模型，不會立即載入
func NewModel(cfg ModelConfig) *Model {
	if cfg.Alpha <= 0 {
		cfg.Alpha = 1.0
	}
	return &Model{cfg: cfg}
}

// Name 模型名稱
func (m *Model) Name() string {
	return m.cfg.Name
}

// Bundle 取得目前的模型，尚未載入時從磁碟延遲載入
func (m *Model) Bundle() (*Bundle, error) {
	if b := m.current.Load(); b != nil {
		return b, nil
	}

	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if b := m.current.Load(); b != nil {
		return b, nil
	}

	if m.cfg.Dir == "" {
		err := common.Wrap(common.ErrDataUnavailable, fmt.Errorf("model %s has not been trained", m.cfg.Name))
		m.setErr(err)
		return nil, err
	}

	b, err := LoadBundle(m.cfg.Dir)
	if err != nil {
		m.setErr(err)
		return nil, err
	}

	m.current.Store(b)
	m.setErr(nil)
	common.LogInfo("模型已載入",
		zap.String("model", m.cfg.Name),
		zap.String("run_id", b.RunID),
		zap.Int("features", b.Vectorizer.NumFeatures()),
	)
	return b, nil
}

// Available 模型是否可用（必要時會嘗試載入）
func (m *Model) Available() bool {
	_, err := m.Bundle()
	return err == nil
}

// Predict 預測單筆文字
func (m *Model) Predict(text string) (*Prediction, error) {
	b, err := m.Bundle()
	if err != nil {
		return nil, err
	}

	x := b.Vectorizer.Transform(text)
	proba := b.Classifier.PredictProba(x)

	best := 0
	probs := make(map[string]float64, len(proba))
	for c, p := range proba {
		probs[b.Labels.Inverse(c)] = p
		if p > proba[best] {
			best = c
		}
	}

	return &Prediction{
		Label:         b.Labels.Inverse(best),
		Confidence:    proba[best],
		Probabilities: probs,
	}, nil
}

// Train 重新訓練並發布新模型。同一模型同時只允許一個訓練；
// 樣本不足時回傳 ErrInsufficientTrainingData，既有模型維持不變。
func (m *Model) Train(docs, labels []string) (*Bundle, error) {
	if !m.trainMu.TryLock() {
		return nil, common.ErrRetrainInProgress
	}
	defer m.trainMu.Unlock()

	start := time.Now()
	b, err := m.fit(docs, labels)
	if err == nil && m.cfg.Dir != "" {
		err = SaveBundle(m.cfg.Dir, b)
	}
	common.LogTraining(m.cfg.Name, len(docs), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	m.current.Store(b)
	m.setErr(nil)
	return b, nil
}

func (m *Model) fit(docs, labels []string) (*Bundle, error) {
	if len(docs) != len(labels) {
		return nil, fmt.Errorf("got %d documents but %d labels", len(docs), len(labels))
	}
	if len(docs) < m.cfg.MinExamples {
		return nil, common.Wrap(common.ErrInsufficientTrainingData,
			fmt.Errorf("model %s needs at least %d examples, got %d", m.cfg.Name, m.cfg.MinExamples, len(docs)))
	}
	if len(docs) == 0 {
		return nil, common.Wrap(common.ErrInsufficientTrainingData, errors.New("no training examples"))
	}

	enc := &LabelEncoder{}
	enc.Fit(labels)
	y := make([]int, len(labels))
	for i, label := range labels {
		idx, err := enc.Transform(label)
		if err != nil {
			return nil, err
		}
		y[i] = idx
	}

	vec := NewVectorizer(m.cfg.Vectorizer)
	X := vec.FitTransform(docs)
	if vec.NumFeatures() == 0 {
		return nil, common.Wrap(common.ErrInsufficientTrainingData,
			fmt.Errorf("model %s: training texts produced an empty vocabulary", m.cfg.Name))
	}

	clf := NewNaiveBayes(m.cfg.Alpha)
	if err := clf.Fit(X, y, vec.NumFeatures(), len(enc.Classes)); err != nil {
		return nil, err
	}

	return &Bundle{
		RunID:      uuid.NewString(),
		TrainedAt:  time.Now().UTC(),
		Examples:   len(docs),
		Vectorizer: vec,
		Classifier: clf,
		Labels:     enc,
	}, nil
}

// Status 目前狀態，不會觸發載入
func (m *Model) Status() Status {
	st := Status{Name: m.cfg.Name}
	if b := m.current.Load(); b != nil {
		st.Loaded = true
		st.RunID = b.RunID
		st.TrainedAt = b.TrainedAt
		st.Examples = b.Examples
		st.Features = b.Vectorizer.NumFeatures()
		st.Classes = append([]string(nil), b.Labels.Classes...)
	}

	m.errMu.RLock()
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	m.errMu.RUnlock()
	return st
}

func (m *Model) setErr(err error) {
	m.errMu.Lock()
	m.lastErr = err
	m.errMu.Unlock()
}
