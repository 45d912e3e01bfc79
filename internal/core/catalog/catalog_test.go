package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "cafe_beverages": [
    {"id": "1", "name": "美式咖啡", "english_name": "Americano", "category": "咖啡",
     "ingredients": ["濃縮咖啡", "飲用水"], "allergens": [], "variations": ["Americano", "아메리카노"]},
    {"id": "2", "name": "拿鐵", "english_name": "Caffe Latte", "category": "咖啡",
     "ingredients": ["濃縮咖啡", "牛奶"], "allergens": ["牛奶"], "variations": ["Caffe Latte"]}
  ],
  "allergen_categories": {
    "gluten": {"name": "麩質", "ingredients": ["小麥"], "severity": "medium"},
    "dairy": {"name": "乳製品", "ingredients": ["牛奶", "鮮奶油"], "severity": "high"}
  }
}`

const sampleYAML = `
cafe_beverages:
  - id: "1"
    name: 美式咖啡
    category: 咖啡
    ingredients: [濃縮咖啡, 飲用水]
    allergens: []
allergen_categories:
  dairy:
    name: 乳製品
    ingredients: [牛奶]
    severity: HIGH
ingredient_synonyms:
  - canonical: 牛奶
    synonyms: [milk, 우유]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	c, err := Load(writeFile(t, "menu.json", sampleJSON))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "美式咖啡", c.ItemAt(0).Name)

	item, ok := c.Item("2")
	require.True(t, ok)
	assert.Equal(t, []string{"牛奶"}, item.Allergens)

	// 分類依 key 排序，確保訓練資料可重現
	cats := c.Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, "dairy", cats[0].Key)
	assert.Equal(t, SeverityHigh, cats[0].Severity)
	assert.Equal(t, "gluten", cats[1].Key)
	assert.Empty(t, c.Synonyms())
}

func TestLoad_YAML(t *testing.T) {
	c, err := Load(writeFile(t, "menu.yml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	require.Len(t, c.Categories(), 1)
	assert.Equal(t, SeverityHigh, c.Categories()[0].Severity)
	require.Len(t, c.Synonyms(), 1)
	assert.Equal(t, "牛奶", c.Synonyms()[0].Canonical)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Malformed", `{"cafe_beverages": [`},
		{"NoItems", `{"cafe_beverages": [], "allergen_categories": {}}`},
		{"MissingName", `{"cafe_beverages": [{"id": "1", "category": "咖啡"}]}`},
		{"DuplicateID", `{"cafe_beverages": [
			{"id": "1", "name": "a", "category": "c"},
			{"id": "1", "name": "b", "category": "c"}]}`},
		{"BadSeverity", `{"cafe_beverages": [{"id": "1", "name": "a", "category": "c"}],
			"allergen_categories": {"x": {"ingredients": ["牛奶"], "severity": "extreme"}}}`},
		{"EmptyCategory", `{"cafe_beverages": [{"id": "1", "name": "a", "category": "c"}],
			"allergen_categories": {"x": {"ingredients": [], "severity": "low"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body), FormatJSON)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrDataUnavailable))
		})
	}
}

func TestParse_DefaultSeverity(t *testing.T) {
	c, err := Parse([]byte(`{"cafe_beverages": [{"id": "1", "name": "a", "category": "c"}],
		"allergen_categories": {"x": {"ingredients": ["牛奶"]}}}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, SeverityMedium, c.Categories()[0].Severity)
}

func TestNew_CopiesInput(t *testing.T) {
	items := []MenuItem{{ID: "1", Name: "拿鐵", Category: "咖啡", Ingredients: []string{"牛奶"}}}
	c, err := New(items, nil, nil)
	require.NoError(t, err)

	items[0].Ingredients[0] = "changed"
	assert.Equal(t, "牛奶", c.ItemAt(0).Ingredients[0])
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("a/b.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("x.yml"))
	assert.Equal(t, FormatJSON, FormatFromPath("x.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("x"))
}
