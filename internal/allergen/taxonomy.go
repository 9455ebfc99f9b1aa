// Package allergen implements the eight-class allergen taxonomy, the
// keyword detector, and the fusion engine that merges keyword, AI and
// recipe-graph findings into one provenance-annotated result.
package allergen

import "strings"

// Canonical allergen codes. The set is fixed and closed.
const (
	CodeMilk      = "milk"
	CodeEgg       = "egg"
	CodeFish      = "fish"
	CodeShellfish = "shellfish"
	CodePeanut    = "peanut"
	CodeTreeNut   = "tree_nut"
	CodeWheat     = "wheat"
	CodeSoy       = "soy"
)

// Confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// Detection sources.
const (
	SourceKeyword    = "keyword"
	SourceAI         = "ai"
	SourceKeywordAI  = "keyword+ai"
	SourceGraph      = "graph"
)

// Class describes one allergen class with its keyword set.
type Class struct {
	Code        string
	NameCN      string
	NameEN      string
	Description string
	Keywords    []string
}

// Taxonomy is the closed eight-class table, in stable order.
var Taxonomy = []Class{
	{
		Code: CodeMilk, NameCN: "牛奶", NameEN: "Milk",
		Description: "牛奶及乳制品, 含乳糖和乳蛋白",
		Keywords: []string{
			"牛奶", "鲜奶", "奶油", "黄油", "奶酪", "芝士", "起司", "酸奶", "炼乳",
			"奶粉", "乳清", "奶昔", "奶茶", "冰淇淋", "雪糕", "布丁", "提拉米苏",
			"milk", "cream", "butter", "cheese", "yogurt", "whey", "latte",
		},
	},
	{
		Code: CodeEgg, NameCN: "鸡蛋", NameEN: "Egg",
		Description: "蛋类及含蛋制品",
		Keywords: []string{
			"鸡蛋", "蛋清", "蛋黄", "蛋白", "鸭蛋", "鹌鹑蛋", "皮蛋", "咸蛋",
			"蛋糕", "蛋挞", "蛋炒饭", "炒蛋", "煎蛋", "蒸蛋", "荷包蛋", "蛋花",
			"蛋黄酱", "美乃滋", "egg", "omelette", "mayonnaise", "custard",
		},
	},
	{
		Code: CodeFish, NameCN: "鱼类", NameEN: "Fish",
		Description: "鱼类及鱼制品, 含鱼露等调味品",
		Keywords: []string{
			"鱼", "鲈鱼", "鲫鱼", "草鱼", "带鱼", "黄鱼", "三文鱼", "金枪鱼",
			"鳕鱼", "鳗鱼", "秋刀鱼", "鱼露", "鱼丸", "鱼片", "鱼汤", "烤鱼",
			"酸菜鱼", "鳀鱼", "fish", "salmon", "tuna", "cod", "anchovy",
		},
	},
	{
		Code: CodeShellfish, NameCN: "甲壳类", NameEN: "Shellfish",
		Description: "虾蟹贝类等甲壳和软体水产",
		Keywords: []string{
			"虾", "龙虾", "小龙虾", "虾仁", "虾米", "虾皮", "蟹", "螃蟹", "蟹黄",
			"贝", "扇贝", "生蚝", "牡蛎", "蛤蜊", "花甲", "鱿鱼", "章鱼", "墨鱼",
			"蚝油", "shrimp", "prawn", "crab", "lobster", "oyster", "squid",
		},
	},
	{
		Code: CodePeanut, NameCN: "花生", NameEN: "Peanut",
		Description: "花生及花生制品",
		Keywords: []string{
			"花生", "花生米", "花生酱", "花生油", "花生碎", "宫保", "沙茶",
			"怪味", "peanut", "satay",
		},
	},
	{
		Code: CodeTreeNut, NameCN: "坚果", NameEN: "Tree Nut",
		Description: "树坚果类, 不含花生",
		Keywords: []string{
			"核桃", "杏仁", "腰果", "榛子", "开心果", "夏威夷果", "碧根果",
			"松子", "栗子", "坚果", "果仁", "巴旦木", "nut", "almond", "cashew",
			"walnut", "pistachio", "pecan",
		},
	},
	{
		Code: CodeWheat, NameCN: "小麦", NameEN: "Wheat",
		Description: "小麦及含麸质制品",
		Keywords: []string{
			"小麦", "面粉", "面条", "面包", "馒头", "包子", "饺子", "馄饨", "拉面",
			"油条", "饼干", "蛋糕", "披萨", "意面", "乌冬", "麸质", "全麦",
			"wheat", "flour", "noodle", "bread", "pasta", "pizza", "gluten",
		},
	},
	{
		Code: CodeSoy, NameCN: "大豆", NameEN: "Soy",
		Description: "大豆及豆制品, 含酱油豆瓣酱等发酵调味品",
		Keywords: []string{
			"大豆", "黄豆", "豆腐", "豆浆", "豆干", "豆皮", "腐竹", "豆芽",
			"酱油", "生抽", "老抽", "豆瓣酱", "豆豉", "味噌", "纳豆", "毛豆",
			"soy", "tofu", "miso", "edamame", "tempeh",
		},
	},
}

var classByCode = func() map[string]Class {
	m := make(map[string]Class, len(Taxonomy))
	for _, c := range Taxonomy {
		m[c.Code] = c
	}
	return m
}()

// ClassFor returns the class for a canonical code.
func ClassFor(code string) (Class, bool) {
	c, ok := classByCode[strings.ToLower(strings.TrimSpace(code))]
	return c, ok
}

// IsCanonicalCode reports whether code is one of the eight canonical codes.
func IsCanonicalCode(code string) bool {
	_, ok := classByCode[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// FilterCanonical lowercases, trims and drops unknown codes, preserving
// first-seen order.
func FilterCanonical(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		c := strings.ToLower(strings.TrimSpace(code))
		if !IsCanonicalCode(c) {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
