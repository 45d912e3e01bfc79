package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// VectorizerConfig TF-IDF 參數
type VectorizerConfig struct {
	NgramMin    int `json:"ngram_min"`
	NgramMax    int `json:"ngram_max"`
	MaxFeatures int `json:"max_features"`
}

// Vectorizer TF-IDF 向量化器（smooth idf、L2 正規化）
type Vectorizer struct {
	Config VectorizerConfig `json:"config"`
	Terms  []string         `json:"terms"`
	IDF    []float64        `json:"idf"`

	vocab map[string]int
}

// NewVectorizer 建立未訓練的向量化器
func NewVectorizer(cfg VectorizerConfig) *Vectorizer {
	return &Vectorizer{Config: cfg}
}

// Fit 以語料建立詞彙表與 IDF。
// 超過 MaxFeatures 時依語料總詞頻保留前段（同頻以字典序），詞彙表最後依字典序編號。
func (v *Vectorizer) Fit(docs []string) {
	counts := make(map[string]int)
	df := make(map[string]int)

	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range Analyze(doc, v.Config.NgramMin, v.Config.NgramMax) {
			counts[term]++
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}

	if v.Config.MaxFeatures > 0 && len(terms) > v.Config.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if counts[terms[i]] != counts[terms[j]] {
				return counts[terms[i]] > counts[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.Config.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Terms = terms
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	v.buildVocab()
}

func (v *Vectorizer) buildVocab() {
	v.vocab = make(map[string]int, len(v.Terms))
	for i, term := range v.Terms {
		v.vocab[term] = i
	}
}

// UnmarshalJSON 還原後重建詞彙索引，Transform 之後可安全並行呼叫
func (v *Vectorizer) UnmarshalJSON(data []byte) error {
	type plain Vectorizer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.Terms) != len(p.IDF) {
		return fmt.Errorf("vectorizer has %d terms but %d idf weights", len(p.Terms), len(p.IDF))
	}
	*v = Vectorizer(p)
	v.buildVocab()
	return nil
}

// NumFeatures 詞彙數量
func (v *Vectorizer) NumFeatures() int {
	return len(v.Terms)
}

// Transform 將文字轉為 L2 正規化的 TF-IDF 向量
func (v *Vectorizer) Transform(doc string) Vector {
	tf := make(map[int]float64)
	for _, term := range Analyze(doc, v.Config.NgramMin, v.Config.NgramMax) {
		if idx, ok := v.vocab[term]; ok {
			tf[idx]++
		}
	}
	if len(tf) == 0 {
		return Vector{}
	}

	indices := make([]int, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, idx := range indices {
		values[i] = tf[idx] * v.IDF[idx]
		norm += values[i] * values[i]
	}
	norm = math.Sqrt(norm)
	for i := range values {
		values[i] /= norm
	}

	return Vector{Indices: indices, Values: values}
}

// FitTransform 訓練並轉換整個語料
func (v *Vectorizer) FitTransform(docs []string) []Vector {
	v.Fit(docs)
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}
