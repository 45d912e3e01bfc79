// Package catalogtest 提供測試用的小型咖啡廳菜單
package catalogtest

import (
	"testing"

	"allergy-menu-guard/internal/core/catalog"

	"github.com/stretchr/testify/require"
)

// Items 測試菜單品項
func Items() []catalog.MenuItem {
	return []catalog.MenuItem{
		{ID: "1", Name: "美式咖啡", EnglishName: "Americano", Category: "咖啡",
			Ingredients: []string{"濃縮咖啡", "飲用水"}, Allergens: []string{},
			Variations: []string{"Americano", "아메리카노", "冰美式"}},
		{ID: "2", Name: "拿鐵", EnglishName: "Caffe Latte", Category: "咖啡",
			Ingredients: []string{"濃縮咖啡", "牛奶"}, Allergens: []string{"牛奶"},
			Variations: []string{"Caffe Latte", "Latte", "카페라떼", "冰拿鐵"}},
		{ID: "3", Name: "摩卡", EnglishName: "Cafe Mocha", Category: "咖啡",
			Ingredients: []string{"濃縮咖啡", "牛奶", "巧克力", "鮮奶油"}, Allergens: []string{"牛奶", "巧克力"},
			Variations: []string{"Cafe Mocha", "카페모카"}},
		{ID: "4", Name: "榛果拿鐵", EnglishName: "Hazelnut Latte", Category: "咖啡",
			Ingredients: []string{"濃縮咖啡", "牛奶", "榛果", "糖漿"}, Allergens: []string{"牛奶", "榛果"},
			Variations: []string{"Hazelnut Latte", "헤이즐넛 라떼"}},
		{ID: "5", Name: "檸檬冰茶", EnglishName: "Iced Lemon Tea", Category: "茶飲",
			Ingredients: []string{"紅茶", "檸檬", "冰塊"}, Allergens: []string{},
			Variations: []string{"Iced Lemon Tea", "레몬 아이스티"}},
		{ID: "6", Name: "抹茶拿鐵", EnglishName: "Matcha Latte", Category: "茶飲",
			Ingredients: []string{"綠茶", "牛奶"}, Allergens: []string{"牛奶"},
			Variations: []string{"Matcha Latte", "Green Tea Latte", "녹차라떼"}},
		{ID: "7", Name: "芒果冰沙", EnglishName: "Mango Smoothie", Category: "冰沙",
			Ingredients: []string{"芒果", "冰塊", "砂糖"}, Allergens: []string{},
			Variations: []string{"Mango Smoothie", "망고 스무디"}},
		{ID: "8", Name: "可頌", EnglishName: "Croissant", Category: "甜點",
			Ingredients: []string{"小麥", "奶油", "雞蛋"}, Allergens: []string{"小麥", "雞蛋"},
			Variations: []string{"Croissant", "크로아상"}},
	}
}

// Categories 測試過敏原分類，共 8 個成員，搭配 8 個品項可產生 64 筆風險訓練資料
func Categories() []catalog.AllergenCategory {
	return []catalog.AllergenCategory{
		{Key: "chocolate", Name: "巧克力", Ingredients: []string{"巧克力"}, Severity: catalog.SeverityLow},
		{Key: "dairy", Name: "乳製品", Ingredients: []string{"牛奶", "鮮奶油", "奶油", "起司"}, Severity: catalog.SeverityHigh},
		{Key: "gluten", Name: "麩質", Ingredients: []string{"小麥"}, Severity: catalog.SeverityMedium},
		{Key: "nuts", Name: "堅果", Ingredients: []string{"榛果", "杏仁"}, Severity: catalog.SeverityMedium},
	}
}

// Cafe 建立測試用菜單
func Cafe(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(Items(), Categories(), nil)
	require.NoError(t, err)
	return c
}
