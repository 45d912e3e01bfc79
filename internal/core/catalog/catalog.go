package catalog

import (
	"fmt"
	"sort"
	"strings"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Catalog 菜單資料集，建立後唯讀，可被多個請求同時讀取
type Catalog struct {
	items      []MenuItem
	categories []AllergenCategory
	synonyms   []SynonymGroup
	byID       map[string]int
	source     string
}

// New 由品項與過敏原分類建立資料集並驗證
func New(items []MenuItem, categories []AllergenCategory, synonyms []SynonymGroup) (*Catalog, error) {
	c := &Catalog{
		items:      make([]MenuItem, 0, len(items)),
		categories: make([]AllergenCategory, 0, len(categories)),
		synonyms:   make([]SynonymGroup, 0, len(synonyms)),
		byID:       make(map[string]int, len(items)),
	}

	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			return nil, common.NewValidationError(fmt.Sprintf("menu item %d: %v", i, err))
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, common.NewValidationError(fmt.Sprintf("duplicate menu item id: %s", item.ID))
		}
		c.byID[item.ID] = len(c.items)
		c.items = append(c.items, cloneItem(item))
	}

	seen := make(map[string]bool, len(categories))
	for _, cat := range categories {
		if err := validate.Struct(cat); err != nil {
			return nil, common.NewValidationError(fmt.Sprintf("allergen category %q: %v", cat.Key, err))
		}
		if seen[cat.Key] {
			return nil, common.NewValidationError(fmt.Sprintf("duplicate allergen category: %s", cat.Key))
		}
		seen[cat.Key] = true
		cat.Ingredients = append([]string(nil), cat.Ingredients...)
		c.categories = append(c.categories, cat)
	}

	for _, group := range synonyms {
		if err := validate.Struct(group); err != nil {
			return nil, common.NewValidationError(fmt.Sprintf("synonym group %q: %v", group.Canonical, err))
		}
		group.Synonyms = append([]string(nil), group.Synonyms...)
		c.synonyms = append(c.synonyms, group)
	}

	return c, nil
}

func fromDataset(ds *dataset) (*Catalog, error) {
	keys := make([]string, 0, len(ds.Categories))
	for key := range ds.Categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	categories := make([]AllergenCategory, 0, len(keys))
	for _, key := range keys {
		entry := ds.Categories[key]
		severity := entry.Severity
		if severity == "" {
			severity = SeverityMedium
		}
		categories = append(categories, AllergenCategory{
			Key:         key,
			Name:        entry.Name,
			Ingredients: entry.Ingredients,
			Severity:    Severity(strings.ToLower(string(severity))),
		})
	}

	return New(ds.Items, categories, ds.Synonyms)
}

func cloneItem(item MenuItem) MenuItem {
	item.Ingredients = append([]string(nil), item.Ingredients...)
	item.Allergens = append([]string(nil), item.Allergens...)
	item.Variations = append([]string(nil), item.Variations...)
	return item
}

// Len 品項數量
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items 依載入順序回傳所有品項
func (c *Catalog) Items() []MenuItem {
	return c.items
}

// ItemAt 依索引取得品項
func (c *Catalog) ItemAt(i int) MenuItem {
	return c.items[i]
}

// Item 依 ID 取得品項
func (c *Catalog) Item(id string) (MenuItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return MenuItem{}, false
	}
	return c.items[i], true
}

// Categories 依 key 排序的過敏原分類
func (c *Catalog) Categories() []AllergenCategory {
	return c.categories
}

// Synonyms 資料檔內自帶的同義詞表，未提供時為空
func (c *Catalog) Synonyms() []SynonymGroup {
	return c.synonyms
}

// Source 資料來源路徑
func (c *Catalog) Source() string {
	return c.source
}
