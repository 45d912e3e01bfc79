package risk

import (
	"allergy-menu-guard/internal/core/ingredient"
	"allergy-menu-guard/internal/pkg/common"
)

// Match 單一食材的過敏原比對結果
type Match struct {
	Ingredient string               `json:"ingredient"`
	Allergy    string               `json:"allergy"`
	MatchType  ingredient.MatchType `json:"match_type"`
}

// RuleResult 規則式風險評估結果
type RuleResult struct {
	RiskLevel        Level    `json:"risk_level"`
	RiskRatio        float64  `json:"risk_ratio"`
	RiskyIngredients []Match  `json:"risky_ingredients"`
	SafeIngredients  []string `json:"safe_ingredients"`
	TotalIngredients int      `json:"total_ingredients"`
	RiskyCount       int      `json:"risky_count"`
}

// HasMatches 是否有任何食材對應到使用者過敏原
func (r RuleResult) HasMatches() bool {
	return r.RiskyCount > 0
}

// RuleScorer 規則式風險評估，結果只取決於輸入與同義詞圖
type RuleScorer struct {
	graph      *ingredient.Graph
	thresholds Thresholds
}

// NewRuleScorer 建立規則評估器
func NewRuleScorer(graph *ingredient.Graph, th Thresholds) *RuleScorer {
	if th.LowRisk <= 0 || th.Dangerous <= th.LowRisk {
		th = DefaultThresholds
	}
	return &RuleScorer{graph: graph, thresholds: th}
}

// Score 逐一比對食材與過敏原，每個食材只記錄第一個相符的過敏原
func (s *RuleScorer) Score(ingredients, allergies []string) RuleResult {
	ingredients = common.CompactStrings(ingredients)
	allergies = common.CompactStrings(allergies)

	res := RuleResult{
		RiskyIngredients: []Match{},
		SafeIngredients:  []string{},
		TotalIngredients: len(ingredients),
	}

	for _, ing := range ingredients {
		if allergy, mt, ok := s.graph.MatchAny(ing, allergies); ok {
			res.RiskyIngredients = append(res.RiskyIngredients, Match{
				Ingredient: ing,
				Allergy:    allergy,
				MatchType:  mt,
			})
			continue
		}
		res.SafeIngredients = append(res.SafeIngredients, ing)
	}

	res.RiskyCount = len(res.RiskyIngredients)
	if res.TotalIngredients > 0 {
		res.RiskRatio = float64(res.RiskyCount) / float64(res.TotalIngredients)
	}
	res.RiskLevel = FromRatio(res.RiskRatio, s.thresholds)
	return res
}
