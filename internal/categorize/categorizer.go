// Package categorize assigns spending categories to transactions by
// matching keywords against their descriptions.
package categorize

import "strings"

// DefaultCategory is assigned when no rule matches.
const DefaultCategory = "uncategorized"

// Rule maps a set of description keywords to a category. Matching is
// case-insensitive substring containment.
type Rule struct {
	Category string
	Keywords []string
}

// Categorizer resolves transaction descriptions to categories. Rules
// are evaluated in order and the first matching rule wins, so more
// specific rules should come before general ones.
type Categorizer struct {
	rules []Rule
}

// DefaultRules returns the built-in Hong Kong oriented rule set.
// Keywords cover both English merchant names and the Chinese labels
// that appear in local bank statements.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "dining", Keywords: []string{
			"restaurant", "cafe", "starbucks", "mcdonald", "kfc",
			"deliveroo", "foodpanda", "keeta", "pacific coffee",
			"餐廳", "茶餐廳", "飯店", "美食", "咖啡",
		}},
		{Category: "transport", Keywords: []string{
			"mtr", "octopus", "taxi", "uber", "bus", "ferry", "tunnel",
			"港鐵", "八達通", "的士", "巴士", "渡輪",
		}},
		{Category: "entertainment", Keywords: []string{
			"netflix", "spotify", "steam", "playstation", "nintendo",
			"disney", "youtube", "cinema", "apple.com/bill",
			"電影", "戲院", "遊戲",
		}},
		{Category: "groceries", Keywords: []string{
			"parknshop", "wellcome", "market", "supermarket", "7-eleven",
			"circle k", "百佳", "惠康", "超市", "街市",
		}},
		{Category: "health", Keywords: []string{
			"hospital", "clinic", "pharmacy", "mannings", "watsons",
			"dental", "醫院", "診所", "藥房", "牙科",
		}},
		{Category: "utilities", Keywords: []string{
			"clp", "towngas", "water supplies", "hkbn", "netvigator",
			"broadband", "csl", "smartone", "中電", "煤氣", "水費", "電訊",
		}},
		{Category: "fees", Keywords: []string{
			"fee", "charge", "interest", "annual", "handling",
			"手續費", "年費", "利息", "服務費",
		}},
		{Category: "salary", Keywords: []string{
			"salary", "payroll", "wages", "薪金", "糧", "工資",
		}},
		{Category: "transfer", Keywords: []string{
			"transfer", "fps", "payme", "轉賬", "轉帳", "過數",
		}},
	}
}

// New creates a Categorizer with the given rules. A nil rule slice
// falls back to DefaultRules.
func New(rules []Rule) *Categorizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Categorizer{rules: rules}
}

// Categorize resolves a description to a category name.
func (c *Categorizer) Categorize(description string) string {
	lower := strings.ToLower(description)

	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				return rule.Category
			}
		}
	}
	return DefaultCategory
}

// Categories returns the category names in rule order, ending with
// the default category.
func (c *Categorizer) Categories() []string {
	names := make([]string, 0, len(c.rules)+1)
	for _, rule := range c.rules {
		names = append(names, rule.Category)
	}
	return append(names, DefaultCategory)
}
