package ingredient

import "allergy-menu-guard/internal/core/catalog"

// DefaultSynonyms 內建跨語言（繁中／英／韓／日）同義詞表，資料檔未提供時使用。
// 同一個寫法只能屬於一個標準食材。
var DefaultSynonyms = []catalog.SynonymGroup{
	// 乳製品
	{Canonical: "牛奶", Synonyms: []string{"milk", "dairy", "鮮奶", "牛乳", "乳製品", "우유", "밀크", "유제품", "ミルク",
		"latte", "拿鐵", "라떼", "ラテ", "cappuccino", "卡布奇諾", "카푸치노", "カプチーノ",
		"mocha", "摩卡", "모카", "モカ", "hot chocolate", "熱可可", "핫초코", "ホットチョコレート"}},
	{Canonical: "鮮奶油", Synonyms: []string{"cream", "whipped cream", "ice cream", "冰淇淋", "크림", "휘핑크림", "아이스크림", "クリーム", "生クリーム", "ホイップ"}},
	{Canonical: "奶油", Synonyms: []string{"butter", "牛油", "버터", "バター"}},
	{Canonical: "起司", Synonyms: []string{"cheese", "cream cheese", "芝士", "乳酪", "奶油起司", "치즈", "크림치즈", "チーズ", "クリームチーズ"}},
	{Canonical: "優格", Synonyms: []string{"yogurt", "yoghurt", "優酪乳", "요거트", "요구르트", "ヨーグルト"}},

	// 堅果
	{Canonical: "堅果", Synonyms: []string{"nut", "nuts", "堅果類", "견과류", "ナッツ"}},
	{Canonical: "榛果", Synonyms: []string{"hazelnut", "榛子", "헤이즐넛", "헤즐넛", "ヘーゼルナッツ"}},
	{Canonical: "杏仁", Synonyms: []string{"almond", "杏仁果", "아몬드", "アーモンド"}},
	{Canonical: "花生", Synonyms: []string{"peanut", "落花生", "땅콩", "ピーナッツ"}},
	{Canonical: "核桃", Synonyms: []string{"walnut", "호두", "くるみ", "クルミ"}},
	{Canonical: "腰果", Synonyms: []string{"cashew", "캐슈넛", "カシューナッツ"}},

	// 麩質
	{Canonical: "小麥", Synonyms: []string{"wheat", "gluten", "flour", "麩質", "麵粉", "小麦", "小麦粉", "밀가루", "글루텐", "グルテン",
		"croissant", "可頌", "크로아상", "クロワッサン", "muffin", "瑪芬", "머핀", "マフィン",
		"cookie", "餅乾", "쿠키", "クッキー", "cake", "蛋糕", "케이크", "ケーキ",
		"bread", "麵包", "빵", "パン", "toast", "吐司", "토스트", "トースト",
		"waffle", "鬆餅", "와플", "ワッフル", "scone", "司康", "스콘", "スコーン"}},
	{Canonical: "大麥", Synonyms: []string{"barley", "보리", "大麦"}},
	{Canonical: "黑麥", Synonyms: []string{"rye", "호밀", "ライ麦"}},
	{Canonical: "燕麥", Synonyms: []string{"oat", "oats", "oatmeal", "oat milk", "燕麥奶", "귀리", "오트밀", "オーツ", "オートミール"}},

	// 巧克力
	{Canonical: "巧克力", Synonyms: []string{"chocolate", "choco", "초콜릿", "초코", "チョコ", "チョコレート"}},
	{Canonical: "可可", Synonyms: []string{"cocoa", "可可粉", "코코아", "ココア"}},
	{Canonical: "可可豆", Synonyms: []string{"cacao", "카카오", "カカオ"}},

	// 蛋
	{Canonical: "雞蛋", Synonyms: []string{"egg", "eggs", "蛋", "계란", "에그", "卵", "たまご", "玉子"}},
	{Canonical: "蛋白", Synonyms: []string{"egg white", "계란 흰자", "卵白"}},
	{Canonical: "蛋黃", Synonyms: []string{"egg yolk", "계란 노른자", "卵黄"}},

	// 豆類
	{Canonical: "大豆", Synonyms: []string{"soy", "soybean", "soy milk", "豆漿", "黃豆", "두유", "콩", "豆乳"}},

	// 海鮮
	{Canonical: "蝦", Synonyms: []string{"shrimp", "prawn", "蝦子", "鮮蝦", "새우", "エビ", "えび"}},
	{Canonical: "蟹", Synonyms: []string{"crab", "螃蟹", "꽃게", "게살", "カニ"}},
	{Canonical: "貝類", Synonyms: []string{"shellfish", "clam", "蛤蜊", "조개"}},
	{Canonical: "魷魚", Synonyms: []string{"squid", "오징어", "イカ"}},

	// 水果
	{Canonical: "草莓", Synonyms: []string{"strawberry", "딸기", "いちご", "イチゴ", "苺"}},
	{Canonical: "奇異果", Synonyms: []string{"kiwi", "키위", "キウイ"}},
	{Canonical: "芒果", Synonyms: []string{"mango", "망고", "マンゴー"}},
	{Canonical: "水蜜桃", Synonyms: []string{"peach", "桃子", "복숭아", "ピーチ"}},
	{Canonical: "蘋果", Synonyms: []string{"apple", "사과", "りんご", "リンゴ", "アップル"}},
	{Canonical: "鳳梨", Synonyms: []string{"pineapple", "파인애플", "パイナップル"}},
	{Canonical: "柳橙", Synonyms: []string{"orange", "柳丁", "오렌지", "オレンジ"}},
	{Canonical: "檸檬", Synonyms: []string{"lemon", "레몬", "レモン"}},
	{Canonical: "萊姆", Synonyms: []string{"lime", "라임", "ライム"}},
	{Canonical: "藍莓", Synonyms: []string{"blueberry", "블루베리", "ブルーベリー"}},
	{Canonical: "香蕉", Synonyms: []string{"banana", "바나나", "バナナ"}},

	// 其他
	{Canonical: "砂糖", Synonyms: []string{"sugar", "설탕", "슈가", "シュガー"}},
	{Canonical: "蜂蜜", Synonyms: []string{"honey", "꿀", "はちみつ", "ハチミツ"}},
	{Canonical: "糖漿", Synonyms: []string{"syrup", "시럽", "シロップ"}},
	{Canonical: "焦糖", Synonyms: []string{"caramel", "카라멜", "캐러멜", "キャラメル"}},
	{Canonical: "香草", Synonyms: []string{"vanilla", "바닐라", "バニラ"}},
	{Canonical: "肉桂", Synonyms: []string{"cinnamon", "시나몬", "シナモン"}},
	{Canonical: "綠茶", Synonyms: []string{"green tea", "matcha", "抹茶", "녹차", "말차", "緑茶"}},
	{Canonical: "冰塊", Synonyms: []string{"ice", "얼음"}},
	{Canonical: "飲用水", Synonyms: []string{"water", "開水", "물", "お水"}},
	{Canonical: "濃縮咖啡", Synonyms: []string{"espresso", "義式濃縮", "에스프레소", "エスプレッソ"}},
	{Canonical: "咖啡豆", Synonyms: []string{"coffee bean", "coffee beans", "커피 원두", "원두", "コーヒー豆"}},
}
