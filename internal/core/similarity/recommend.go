package similarity

import (
	"fmt"
	"strings"

	"allergy-menu-guard/internal/pkg/common"
)

// Warning 警示訊息
type Warning struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Recommendations 個人化建議
type Recommendations struct {
	SafeAlternatives []SafeMenu `json:"safe_alternatives"`
	WarningMessages  []Warning  `json:"warning_messages"`
	SafetyTips       []string   `json:"safety_tips"`
}

// safetyTips 依標準過敏原名稱提供的飲食建議
var safetyTips = map[string]string{
	"牛奶":  "可請店家改用燕麥奶或杏仁奶等植物奶。",
	"小麥":  "詢問店家是否提供無麩質選項。",
	"堅果":  "選擇不含堅果的品項，並留意糖漿與配料。",
	"榛果":  "榛果風味多來自糖漿，點餐時請要求不加。",
	"花生":  "留意甜點與醬料中的花生成分，必要時詢問製程是否共用設備。",
	"雞蛋":  "烘焙點心大多含蛋，點餐前請向店員確認。",
	"大豆":  "豆漿飲品可改為其他奶類或不加奶。",
	"巧克力": "摩卡與可可飲品含巧克力，可改點美式或茶飲。",
}

// Tip 取得過敏原的飲食建議，不在表內時回傳 false
func (ix *Index) Tip(allergy string) (string, bool) {
	tip, ok := safetyTips[ix.graph.Normalize(allergy)]
	return tip, ok
}

// Recommend 組合安全替代品項、整合後的過敏警示與飲食建議
func (ix *Index) Recommend(allergies, extracted []string, k int) Recommendations {
	allergies = common.CompactStrings(allergies)
	rec := Recommendations{
		SafeAlternatives: ix.SafeMenus(allergies, k),
		WarningMessages:  []Warning{},
		SafetyTips:       []string{},
	}

	var risky []string
	for _, ing := range common.CompactStrings(extracted) {
		if _, _, ok := ix.graph.MatchAny(ing, allergies); ok {
			risky = append(risky, ing)
		}
	}
	if len(risky) > 0 {
		rec.WarningMessages = append(rec.WarningMessages, Warning{
			Type:     "allergy_warning",
			Message:  fmt.Sprintf("以下成分可能含有您的過敏原：%s", strings.Join(risky, "、")),
			Severity: "high",
		})
	}

	seen := make(map[string]bool)
	for _, allergy := range allergies {
		tip, ok := ix.Tip(allergy)
		if !ok || seen[tip] {
			continue
		}
		seen[tip] = true
		rec.SafetyTips = append(rec.SafetyTips, tip)
	}

	return rec
}
