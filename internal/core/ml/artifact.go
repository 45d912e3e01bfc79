package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"allergy-menu-guard/internal/pkg/common"
)

// FormatVersion 模型檔案格式版本，升版後舊檔視為不相容
const FormatVersion = 1

const (
	vectorizerFile = "vectorizer.json"
	classifierFile = "classifier.json"
	labelsFile     = "labels.json"
)

// Bundle 同一次訓練產出的向量化器、分類器與標籤，必須成組使用
type Bundle struct {
	RunID      string
	TrainedAt  time.Time
	Examples   int
	Vectorizer *Vectorizer
	Classifier *NaiveBayes
	Labels     *LabelEncoder
}

type envelope[T any] struct {
	FormatVersion int       `json:"format_version"`
	RunID         string    `json:"run_id"`
	TrainedAt     time.Time `json:"trained_at"`
	Examples      int       `json:"examples"`
	Payload       T         `json:"payload"`
}

func wrapPayload[T any](b *Bundle, payload T) envelope[T] {
	return envelope[T]{
		FormatVersion: FormatVersion,
		RunID:         b.RunID,
		TrainedAt:     b.TrainedAt,
		Examples:      b.Examples,
		Payload:       payload,
	}
}

// SaveBundle 寫入模型目錄。先寫到暫存目錄再替換，讀取端不會看到寫到一半的檔案組合。
func SaveBundle(dir string, b *Bundle) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create model parent dir: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-")
	if err != nil {
		return fmt.Errorf("create temp model dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	files := map[string]interface{}{
		vectorizerFile: wrapPayload(b, b.Vectorizer),
		classifierFile: wrapPayload(b, b.Classifier),
		labelsFile:     wrapPayload(b, b.Labels),
	}
	for name, payload := range files {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(tmp, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	old := dir + ".old"
	_ = os.RemoveAll(old)
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("move previous model aside: %w", err)
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		// 還原舊模型
		_ = os.Rename(old, dir)
		return fmt.Errorf("publish model dir: %w", err)
	}
	_ = os.RemoveAll(old)

	return nil
}

func readEnvelope[T any](dir, name string) (envelope[T], error) {
	var env envelope[T]
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return env, common.Wrap(common.ErrDataUnavailable, fmt.Errorf("%s not found in %s", name, dir))
		}
		return env, common.Wrap(common.ErrDataUnavailable, err)
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, common.Wrap(common.ErrDataUnavailable, fmt.Errorf("decode %s: %w", name, err))
	}
	if env.FormatVersion != FormatVersion {
		return env, common.Wrap(common.ErrArtifactMismatch,
			fmt.Errorf("%s format version %d, want %d", name, env.FormatVersion, FormatVersion))
	}
	return env, nil
}

// LoadBundle 讀取模型目錄，三個檔案必須來自同一次訓練
func LoadBundle(dir string) (*Bundle, error) {
	vec, err := readEnvelope[*Vectorizer](dir, vectorizerFile)
	if err != nil {
		return nil, err
	}
	clf, err := readEnvelope[*NaiveBayes](dir, classifierFile)
	if err != nil {
		return nil, err
	}
	lbl, err := readEnvelope[*LabelEncoder](dir, labelsFile)
	if err != nil {
		return nil, err
	}

	if vec.RunID == "" || vec.RunID != clf.RunID || vec.RunID != lbl.RunID {
		return nil, common.Wrap(common.ErrArtifactMismatch,
			fmt.Errorf("run ids differ: vectorizer=%s classifier=%s labels=%s", vec.RunID, clf.RunID, lbl.RunID))
	}
	if vec.Payload == nil || clf.Payload == nil || lbl.Payload == nil {
		return nil, common.Wrap(common.ErrDataUnavailable, fmt.Errorf("empty artifact in %s", dir))
	}
	if clf.Payload.NumFeatures != vec.Payload.NumFeatures() {
		return nil, common.Wrap(common.ErrArtifactMismatch,
			fmt.Errorf("classifier expects %d features, vectorizer has %d", clf.Payload.NumFeatures, vec.Payload.NumFeatures()))
	}
	if clf.Payload.NumClasses() != len(lbl.Payload.Classes) {
		return nil, common.Wrap(common.ErrArtifactMismatch,
			fmt.Errorf("classifier has %d classes, label encoder has %d", clf.Payload.NumClasses(), len(lbl.Payload.Classes)))
	}

	return &Bundle{
		RunID:      vec.RunID,
		TrainedAt:  vec.TrainedAt,
		Examples:   vec.Examples,
		Vectorizer: vec.Payload,
		Classifier: clf.Payload,
		Labels:     lbl.Payload,
	}, nil
}
