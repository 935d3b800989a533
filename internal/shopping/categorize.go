// Package shopping turns planned meals into a shopping list grouped by
// store aisle.
package shopping

import "strings"

const (
	AisleProduce    = "Produce"
	AisleMeat       = "Meat"
	AisleSeafood    = "Seafood"
	AisleTofuEggs   = "Tofu & Eggs"
	AisleDairy      = "Dairy"
	AisleGrains     = "Rice, Noodles & Flour"
	AisleCondiments = "Sauces & Condiments"
	AisleSpices     = "Spices"
	AisleDried      = "Dried Goods"
	AisleOther      = "Other"
)

// aisles lists keywords per aisle in display order. Both English and Chinese
// ingredient names are recognised.
var aisles = []struct {
	name     string
	keywords []string
}{
	{AisleProduce, []string{
		"tomato", "potato", "onion", "scallion", "spring onion", "leek", "garlic", "ginger",
		"cabbage", "bok choy", "lettuce", "spinach", "celery", "carrot", "cucumber", "eggplant",
		"aubergine", "zucchini", "pepper", "chili pepper", "mushroom", "broccoli", "cauliflower",
		"bean sprout", "green bean", "corn", "pumpkin", "radish", "lotus root", "cilantro",
		"coriander", "lemon", "lime", "apple", "pear", "orange",
		"番茄", "西红柿", "土豆", "马铃薯", "洋葱", "葱", "大葱", "小葱", "韭菜", "蒜", "大蒜",
		"姜", "生姜", "白菜", "包菜", "卷心菜", "青菜", "菠菜", "芹菜", "胡萝卜", "萝卜", "黄瓜",
		"茄子", "西葫芦", "青椒", "辣椒", "尖椒", "彩椒", "蘑菇", "香菇", "金针菇", "西兰花",
		"花菜", "豆芽", "四季豆", "豆角", "玉米", "南瓜", "莲藕", "香菜", "生菜", "柠檬",
	}},
	{AisleMeat, []string{
		"pork", "beef", "lamb", "mutton", "chicken", "duck", "bacon", "ham", "sausage",
		"ribs", "mince", "ground meat", "steak",
		"猪肉", "五花肉", "里脊", "排骨", "肉末", "牛肉", "牛腩", "羊肉", "鸡肉", "鸡胸",
		"鸡腿", "鸡翅", "鸭", "培根", "火腿", "香肠", "腊肉",
	}},
	{AisleSeafood, []string{
		"fish", "salmon", "cod", "shrimp", "prawn", "crab", "squid", "clam", "mussel", "scallop",
		"鱼", "鲈鱼", "草鱼", "三文鱼", "虾", "虾仁", "蟹", "鱿鱼", "蛤蜊", "扇贝",
	}},
	{AisleTofuEggs, []string{
		"egg", "tofu", "bean curd", "tofu skin",
		"鸡蛋", "蛋", "鸭蛋", "皮蛋", "豆腐", "豆干", "腐竹", "千张",
	}},
	{AisleDairy, []string{
		"milk", "butter", "cream", "cheese", "yogurt",
		"牛奶", "黄油", "奶油", "芝士", "奶酪", "酸奶",
	}},
	{AisleGrains, []string{
		"rice", "noodle", "pasta", "spaghetti", "flour", "starch", "bread", "dumpling wrapper",
		"米", "大米", "米饭", "糯米", "面条", "挂面", "米粉", "粉丝", "面粉", "淀粉", "馒头",
		"饺子皮", "年糕",
	}},
	{AisleCondiments, []string{
		"soy sauce", "light soy", "dark soy", "oyster sauce", "vinegar", "cooking wine",
		"shaoxing", "sesame oil", "chili oil", "doubanjiang", "bean paste", "ketchup", "sugar",
		"honey", "peanut butter", "oil", "salt",
		"酱油", "生抽", "老抽", "蚝油", "醋", "陈醋", "料酒", "香油", "麻油", "辣椒油", "红油",
		"豆瓣酱", "甜面酱", "番茄酱", "糖", "冰糖", "蜂蜜", "油", "盐", "鸡精", "味精",
	}},
	{AisleSpices, []string{
		"sichuan pepper", "peppercorn", "star anise", "cinnamon", "bay leaf", "cumin",
		"five spice", "white pepper", "black pepper", "chili flakes", "dried chili",
		"花椒", "麻椒", "八角", "桂皮", "香叶", "孜然", "五香粉", "胡椒", "胡椒粉", "干辣椒",
		"辣椒面", "十三香",
	}},
	{AisleDried, []string{
		"peanut", "sesame", "walnut", "cashew", "dried shiitake", "wood ear", "red date",
		"goji", "seaweed", "kelp",
		"花生", "芝麻", "核桃", "腰果", "木耳", "红枣", "枸杞", "紫菜", "海带",
	}},
}

var keywordAisle = func() map[string]string {
	m := make(map[string]string)
	for _, a := range aisles {
		for _, k := range a.keywords {
			m[k] = a.name
		}
	}
	return m
}()

// Categorize returns the aisle for an ingredient name. An exact keyword wins;
// otherwise the longest keyword contained in the name decides, so
// "peanut butter" is not filed under dairy. Unknown names go to AisleOther.
func Categorize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return AisleOther
	}
	if a, ok := keywordAisle[n]; ok {
		return a
	}

	best, bestLen := AisleOther, 0
	for k, a := range keywordAisle {
		if len(k) > bestLen && strings.Contains(n, k) {
			best, bestLen = a, len(k)
		} else if len(k) == bestLen && strings.Contains(n, k) && aisleRank(a) < aisleRank(best) {
			best = a
		}
	}
	return best
}

func aisleRank(name string) int {
	for i, a := range aisles {
		if a.name == name {
			return i
		}
	}
	return len(aisles)
}
