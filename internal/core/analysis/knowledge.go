package analysis

import (
	"fmt"
	"time"

	"allergy-menu-guard/internal/core/catalog"
	"allergy-menu-guard/internal/core/ingredient"
	"allergy-menu-guard/internal/core/risk"
	"allergy-menu-guard/internal/core/similarity"
	"allergy-menu-guard/internal/pkg/common"

	"go.uber.org/zap"
)

// Knowledge 同一份菜單資料建出的唯讀快照：同義詞圖、規則評估器與相似度索引一起發布、一起替換
type Knowledge struct {
	Catalog  *catalog.Catalog
	Graph    *ingredient.Graph
	Scorer   *risk.RuleScorer
	Index    *similarity.Index
	IndexErr error
	Version  string
	LoadedAt time.Time
}

// BuildKnowledge 由菜單資料建立快照。資料集自帶同義詞時取代內建同義詞表。
// 相似度索引建立失敗不算致命錯誤，記錄在 IndexErr，分析時由該階段降級。
func BuildKnowledge(c *catalog.Catalog, opts Options) (*Knowledge, error) {
	groups := c.Synonyms()
	if len(groups) == 0 {
		groups = ingredient.DefaultSynonyms
	}

	graph, err := ingredient.NewGraph(groups)
	if err != nil {
		return nil, fmt.Errorf("failed to build synonym graph: %w", err)
	}

	k := &Knowledge{
		Catalog:  c,
		Graph:    graph,
		Scorer:   risk.NewRuleScorer(graph, opts.Thresholds),
		Version:  common.GenerateUUID(),
		LoadedAt: time.Now().UTC(),
	}

	k.Index, k.IndexErr = similarity.NewIndex(c, graph, similarity.Options{
		MinSimilarity: opts.MinSimilarity,
		MaxFeatures:   opts.SimilarityMaxFeatures,
	})
	if k.IndexErr != nil {
		common.LogWarn("相似度索引不可用",
			zap.String("source", c.Source()),
			zap.Error(k.IndexErr),
		)
	}

	return k, nil
}
