package similarity

import (
	"fmt"
	"sort"

	"allergy-menu-guard/internal/core/catalog"
	"allergy-menu-guard/internal/core/ingredient"
	"allergy-menu-guard/internal/core/ml"
	"allergy-menu-guard/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultMinSimilarity 相似度下限，低於此值不列入結果
const DefaultMinSimilarity = 0.1

// Options 索引參數
type Options struct {
	MinSimilarity float64
	MaxFeatures   int
	MinDocuments  int
}

// Result 相似菜單
type Result struct {
	Menu       catalog.MenuItem `json:"menu"`
	Similarity float64          `json:"similarity"`
	Rank       int              `json:"rank"`
}

// Index 菜單相似度索引。詞彙表一次以整份菜單（含變體名稱）建立，之後唯讀。
type Index struct {
	catalog    *catalog.Catalog
	graph      *ingredient.Graph
	vectorizer *ml.Vectorizer
	docs       []ml.Vector
	docItem    []int
	opts       Options
}

// NewIndex 建立索引
func NewIndex(c *catalog.Catalog, g *ingredient.Graph, opts Options) (*Index, error) {
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = DefaultMinSimilarity
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = 1000
	}

	texts, owners := Documents(c)
	if len(texts) < opts.MinDocuments || len(texts) == 0 {
		return nil, common.Wrap(common.ErrInsufficientTrainingData,
			fmt.Errorf("similarity index needs at least %d menu texts, got %d", opts.MinDocuments, len(texts)))
	}

	vec := ml.NewVectorizer(ml.VectorizerConfig{NgramMin: 1, NgramMax: 3, MaxFeatures: opts.MaxFeatures})
	ix := &Index{
		catalog:    c,
		graph:      g,
		vectorizer: vec,
		docs:       vec.FitTransform(texts),
		docItem:    owners,
		opts:       opts,
	}

	common.LogInfo("相似度索引已建立",
		zap.Int("documents", len(texts)),
		zap.Int("features", vec.NumFeatures()),
	)
	return ix, nil
}

// Documents 每個品項的名稱、英文名稱與不重複的變體名稱各為一份文件
func Documents(c *catalog.Catalog) (texts []string, owners []int) {
	for i, item := range c.Items() {
		seen := make(map[string]bool)
		for _, text := range append([]string{item.Name, item.EnglishName}, item.Variations...) {
			key := ingredient.Clean(text)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			texts = append(texts, text)
			owners = append(owners, i)
		}
	}
	return texts, owners
}

// Catalog 索引所依據的菜單
func (ix *Index) Catalog() *catalog.Catalog {
	return ix.catalog
}

// Graph 索引使用的同義詞圖
func (ix *Index) Graph() *ingredient.Graph {
	return ix.graph
}

// NumDocuments 文件數量
func (ix *Index) NumDocuments() int {
	return len(ix.docs)
}

// NumFeatures 詞彙數量
func (ix *Index) NumFeatures() int {
	return ix.vectorizer.NumFeatures()
}

// FindSimilar 依餘弦相似度由高到低回傳前 k 個品項；同分依菜單順序。
// 每個品項取其所有文件中的最高分，低於下限者不列入。k <= 0 表示不限。
func (ix *Index) FindSimilar(query string, k int) []Result {
	out := []Result{}
	q := ix.vectorizer.Transform(query)
	if q.Len() == 0 {
		return out
	}

	best := make([]float64, ix.catalog.Len())
	for d, doc := range ix.docs {
		if s := ml.Cosine(q, doc); s > best[ix.docItem[d]] {
			best[ix.docItem[d]] = s
		}
	}

	type scored struct {
		item  int
		score float64
	}
	candidates := make([]scored, 0, len(best))
	for i, s := range best {
		if s >= ix.opts.MinSimilarity {
			candidates = append(candidates, scored{item: i, score: s})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	for rank, c := range candidates {
		out = append(out, Result{
			Menu:       ix.catalog.ItemAt(c.item),
			Similarity: c.score,
			Rank:       rank + 1,
		})
	}
	return out
}
