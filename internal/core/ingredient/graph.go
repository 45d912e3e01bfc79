package ingredient

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"allergy-menu-guard/internal/core/catalog"
	"allergy-menu-guard/internal/pkg/common"
)

// MatchType 食材與過敏原的比對方式
type MatchType string

const (
	MatchDirect  MatchType = "direct"
	MatchSynonym MatchType = "synonym"
)

type group struct {
	canonical string
	display   []string // 標準名稱在前，其餘為原始寫法
	surfaces  []string // 清理後的寫法
}

type surface struct {
	text  string
	group int
	runes int
}

// Graph 同義詞圖：標準食材與其所有寫法的雙向對應，建立後唯讀
type Graph struct {
	groups  []group
	index   map[string]int
	byRunes []surface // 依長度由長到短，用於最長子字串比對
}

// NewGraph 建立同義詞圖，同一個寫法出現在兩個群組時回傳 ErrSynonymConflict
func NewGraph(groups []catalog.SynonymGroup) (*Graph, error) {
	g := &Graph{
		groups: make([]group, 0, len(groups)),
		index:  make(map[string]int),
	}

	for _, sg := range groups {
		canonical := strings.TrimSpace(sg.Canonical)
		if Clean(canonical) == "" {
			continue
		}

		gi := len(g.groups)
		grp := group{canonical: canonical}

		// 標準名稱一定屬於自己的群組
		forms := append([]string{canonical}, sg.Synonyms...)
		for _, form := range forms {
			cleaned := Clean(form)
			if cleaned == "" {
				continue
			}
			if owner, exists := g.index[cleaned]; exists {
				if owner == gi {
					continue
				}
				return nil, common.Wrap(common.ErrSynonymConflict,
					fmt.Errorf("%q belongs to both %q and %q", form, g.groups[owner].canonical, canonical))
			}
			g.index[cleaned] = gi
			grp.surfaces = append(grp.surfaces, cleaned)
			grp.display = append(grp.display, strings.TrimSpace(form))
			g.byRunes = append(g.byRunes, surface{text: cleaned, group: gi, runes: utf8.RuneCountInString(cleaned)})
		}

		g.groups = append(g.groups, grp)
	}

	sort.SliceStable(g.byRunes, func(i, j int) bool {
		if g.byRunes[i].runes != g.byRunes[j].runes {
			return g.byRunes[i].runes > g.byRunes[j].runes
		}
		return g.byRunes[i].group < g.byRunes[j].group
	})

	return g, nil
}

// MustDefaultGraph 以內建同義詞表建立同義詞圖
func MustDefaultGraph() *Graph {
	g, err := NewGraph(DefaultSynonyms)
	if err != nil {
		panic(err)
	}
	return g
}

// Len 群組數量
func (g *Graph) Len() int {
	return len(g.groups)
}

// Canonicals 依建立順序列出標準食材名稱
func (g *Graph) Canonicals() []string {
	out := make([]string, len(g.groups))
	for i, grp := range g.groups {
		out[i] = grp.canonical
	}
	return out
}

// lookup 找出詞彙所屬群組：先精確比對，再取包含於詞彙中的最長寫法
func (g *Graph) lookup(cleaned string) (int, bool) {
	if cleaned == "" {
		return 0, false
	}
	if gi, ok := g.index[cleaned]; ok {
		return gi, true
	}
	for _, s := range g.byRunes {
		if strings.Contains(cleaned, s.text) {
			return s.group, true
		}
	}
	return 0, false
}

// mentions 詞彙中出現過的所有群組
func (g *Graph) mentions(cleaned string) map[int]struct{} {
	found := make(map[int]struct{})
	if cleaned == "" {
		return found
	}
	for _, s := range g.byRunes {
		if _, ok := found[s.group]; ok {
			continue
		}
		if strings.Contains(cleaned, s.text) {
			found[s.group] = struct{}{}
		}
	}
	return found
}
