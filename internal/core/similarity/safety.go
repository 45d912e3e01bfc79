package similarity

import (
	"sort"

	"allergy-menu-guard/internal/core/catalog"
	"allergy-menu-guard/internal/pkg/common"
)

// Safety 建議品項的安全狀態
type Safety string

const (
	SafetySafe    Safety = "safe"
	SafetyWarning Safety = "warning"
)

const safeReason = "不含您的過敏原"

// SafeMenu 不含使用者過敏原的品項
type SafeMenu struct {
	Menu        catalog.MenuItem `json:"menu"`
	SafetyScore float64          `json:"safety_score"`
	Reason      string           `json:"reason"`
}

// Suggestion 附帶安全標示的相似菜單
type Suggestion struct {
	Result
	Safety         Safety   `json:"safety,omitempty"`
	AllergensFound []string `json:"allergens_found,omitempty"`
}

// SuggestionResult 菜單建議
type SuggestionResult struct {
	Query       string       `json:"query"`
	Suggestions []Suggestion `json:"suggestions"`
	TotalFound  int          `json:"total_found"`
	SafeCount   *int         `json:"safe_count,omitempty"`
}

// IngredientMatch 含有指定食材的品項
type IngredientMatch struct {
	Menu            catalog.MenuItem `json:"menu"`
	IngredientMatch string           `json:"ingredient_match"`
	IngredientCount int              `json:"ingredient_count"`
}

// matchedAllergies 品項過敏原中與使用者過敏原相符者，依使用者輸入順序
func (ix *Index) matchedAllergies(item catalog.MenuItem, allergies []string) []string {
	var found []string
	for _, allergy := range allergies {
		for _, allergen := range item.Allergens {
			if _, ok := ix.graph.Match(allergen, allergy); ok {
				found = append(found, allergy)
				break
			}
		}
	}
	return found
}

// SafeMenus 過敏原與使用者過敏原無交集的品項，依菜單順序，k <= 0 表示全部
func (ix *Index) SafeMenus(allergies []string, k int) []SafeMenu {
	allergies = common.CompactStrings(allergies)
	out := []SafeMenu{}
	for _, item := range ix.catalog.Items() {
		if len(ix.matchedAllergies(item, allergies)) > 0 {
			continue
		}
		out = append(out, SafeMenu{Menu: item, SafetyScore: 1.0, Reason: safeReason})
		if k > 0 && len(out) >= k {
			break
		}
	}
	return out
}

// Suggestions 相似菜單加上安全標示；未提供過敏原時只回傳相似度結果
func (ix *Index) Suggestions(query string, allergies []string, k int) SuggestionResult {
	allergies = common.CompactStrings(allergies)
	similar := ix.FindSimilar(query, k)

	res := SuggestionResult{
		Query:       query,
		Suggestions: make([]Suggestion, 0, len(similar)),
		TotalFound:  len(similar),
	}

	if len(allergies) == 0 {
		for _, r := range similar {
			res.Suggestions = append(res.Suggestions, Suggestion{Result: r})
		}
		return res
	}

	safeCount := 0
	for _, r := range similar {
		s := Suggestion{Result: r, Safety: SafetySafe}
		if found := ix.matchedAllergies(r.Menu, allergies); len(found) > 0 {
			s.Safety = SafetyWarning
			s.AllergensFound = found
		} else {
			safeCount++
		}
		res.Suggestions = append(res.Suggestions, s)
	}
	res.SafeCount = &safeCount
	return res
}

// MenusByIngredient 含有指定食材的品項，依相符食材數量排序
func (ix *Index) MenusByIngredient(name string, k int) []IngredientMatch {
	out := []IngredientMatch{}
	canonical := ix.graph.Normalize(name)
	if canonical == "" {
		return out
	}

	for _, item := range ix.catalog.Items() {
		count := 0
		for _, ing := range item.Ingredients {
			if _, ok := ix.graph.Match(ing, name); ok {
				count++
			}
		}
		if count > 0 {
			out = append(out, IngredientMatch{Menu: item, IngredientMatch: canonical, IngredientCount: count})
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].IngredientCount > out[b].IngredientCount
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
