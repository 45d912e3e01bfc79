package ingredient

import (
	"strings"
)

// Normalize 將單一食材或過敏原詞彙轉為標準名稱；查無群組時原樣回傳（去除前後空白）
func (g *Graph) Normalize(term string) string {
	if gi, ok := g.lookup(Clean(term)); ok {
		return g.groups[gi].canonical
	}
	return strings.TrimSpace(term)
}

// Synonyms 回傳詞彙所屬群組的所有寫法，標準名稱在前；查無群組時只回傳詞彙本身
func (g *Graph) Synonyms(term string) []string {
	if gi, ok := g.lookup(Clean(term)); ok {
		return append([]string(nil), g.groups[gi].display...)
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}
	}
	return []string{term}
}

// Extract 從自由文字中擷取標準食材，結果不重複並依群組順序排列
func (g *Graph) Extract(text string) []string {
	cleaned := Clean(text)
	found := []string{}
	if cleaned == "" {
		return found
	}

	for _, grp := range g.groups {
		for _, s := range grp.surfaces {
			if strings.Contains(cleaned, s) {
				found = append(found, grp.canonical)
				break
			}
		}
	}
	return found
}

// Match 判斷食材是否對應到過敏原。標準名稱相同為 direct，
// 兩個詞彙提及的群組有交集則為 synonym。
func (g *Graph) Match(ingredient, allergy string) (MatchType, bool) {
	a, b := Clean(ingredient), Clean(allergy)
	if a == "" || b == "" {
		return "", false
	}

	if Clean(g.Normalize(ingredient)) == Clean(g.Normalize(allergy)) {
		return MatchDirect, true
	}

	left := g.mentions(a)
	if len(left) == 0 {
		return "", false
	}
	for gi := range g.mentions(b) {
		if _, ok := left[gi]; ok {
			return MatchSynonym, true
		}
	}
	return "", false
}

// MatchAny 回傳第一個與食材相符的過敏原
func (g *Graph) MatchAny(ingredient string, allergies []string) (string, MatchType, bool) {
	for _, allergy := range allergies {
		if mt, ok := g.Match(ingredient, allergy); ok {
			return allergy, mt, true
		}
	}
	return "", "", false
}

// Suggest 食材名稱自動完成：標準名稱或任一寫法包含輸入片段即列入
func (g *Graph) Suggest(partial string, k int) []string {
	cleaned := Clean(partial)
	out := []string{}
	if cleaned == "" {
		return out
	}

	for _, grp := range g.groups {
		for _, s := range grp.surfaces {
			if strings.Contains(s, cleaned) {
				out = append(out, grp.canonical)
				break
			}
		}
		if k > 0 && len(out) >= k {
			break
		}
	}
	return out
}
