package ml

import (
	"fmt"
	"math"
)

// NaiveBayes 多項式單純貝氏分類器
type NaiveBayes struct {
	Alpha          float64     `json:"alpha"`
	NumFeatures    int         `json:"num_features"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
}

// NewNaiveBayes alpha 為 Laplace 平滑參數
func NewNaiveBayes(alpha float64) *NaiveBayes {
	if alpha <= 0 {
		alpha = 1.0
	}
	return &NaiveBayes{Alpha: alpha}
}

// NumClasses 類別數量
func (nb *NaiveBayes) NumClasses() int {
	return len(nb.ClassLogPrior)
}

// Fit 訓練；y 為 0..numClasses-1 的類別索引
func (nb *NaiveBayes) Fit(X []Vector, y []int, numFeatures, numClasses int) error {
	if len(X) != len(y) {
		return fmt.Errorf("got %d samples but %d labels", len(X), len(y))
	}
	if len(X) == 0 || numClasses == 0 {
		return fmt.Errorf("empty training set")
	}

	classCount := make([]float64, numClasses)
	featureCount := make([][]float64, numClasses)
	for c := range featureCount {
		featureCount[c] = make([]float64, numFeatures)
	}

	for i, x := range X {
		c := y[i]
		if c < 0 || c >= numClasses {
			return fmt.Errorf("label %d out of range", c)
		}
		classCount[c]++
		for k, idx := range x.Indices {
			featureCount[c][idx] += x.Values[k]
		}
	}

	n := float64(len(X))
	nb.NumFeatures = numFeatures
	nb.ClassLogPrior = make([]float64, numClasses)
	nb.FeatureLogProb = make([][]float64, numClasses)

	for c := 0; c < numClasses; c++ {
		if classCount[c] == 0 {
			return fmt.Errorf("class %d has no samples", c)
		}
		nb.ClassLogPrior[c] = math.Log(classCount[c] / n)

		var total float64
		for _, v := range featureCount[c] {
			total += v + nb.Alpha
		}
		row := make([]float64, numFeatures)
		for j, v := range featureCount[c] {
			row[j] = math.Log(v+nb.Alpha) - math.Log(total)
		}
		nb.FeatureLogProb[c] = row
	}

	return nil
}

// PredictProba 各類別後驗機率
func (nb *NaiveBayes) PredictProba(x Vector) []float64 {
	jll := make([]float64, len(nb.ClassLogPrior))
	maxLL := math.Inf(-1)
	for c := range jll {
		ll := nb.ClassLogPrior[c]
		for k, idx := range x.Indices {
			if idx < len(nb.FeatureLogProb[c]) {
				ll += x.Values[k] * nb.FeatureLogProb[c][idx]
			}
		}
		jll[c] = ll
		if ll > maxLL {
			maxLL = ll
		}
	}

	// log-sum-exp
	var sum float64
	for c, ll := range jll {
		jll[c] = math.Exp(ll - maxLL)
		sum += jll[c]
	}
	for c := range jll {
		jll[c] /= sum
	}
	return jll
}

// Predict 回傳機率最高的類別與其機率，同分取索引較小者
func (nb *NaiveBayes) Predict(x Vector) (int, float64) {
	proba := nb.PredictProba(x)
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best, proba[best]
}
