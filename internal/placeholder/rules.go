package placeholder

import "strings"

// DefaultAsset is used when neither a keyword nor a category matches.
const DefaultAsset = "placeholder_food"

type keywordRule struct {
	keywords []string
	asset    string
}

// keywordRules are evaluated in order; the first rule with a keyword
// contained in the name wins.
var keywordRules = []keywordRule{
	{[]string{"salad"}, "placeholder_salad"},
	{[]string{"pizza"}, "placeholder_pizza"},
	{[]string{"soup", "stew"}, "placeholder_soup"},
	{[]string{"dessert", "cake", "cookie", "sweet", "chocolate", "pie"}, "placeholder_dessert"},
	{[]string{"pasta", "spaghetti", "noodle", "macaroni"}, "placeholder_pasta"},
	{[]string{"chicken", "turkey"}, "placeholder_poultry"},
	{[]string{"beef", "steak", "pork", "meat", "burger"}, "placeholder_meat"},
	{[]string{"sandwich", "toast", "bread", "wrap"}, "placeholder_sandwich"},
	{[]string{"salmon", "fish", "seafood", "shrimp", "tuna"}, "placeholder_seafood"},
	{[]string{"pancake", "waffle", "breakfast", "egg", "omelet"}, "placeholder_breakfast"},
	{[]string{"stir fry", "curry", "asian", "chinese", "thai"}, "placeholder_asian"},
	{[]string{"vegetable", "vegan", "vegetarian"}, "placeholder_vegetable"},
	{[]string{"rice", "grain", "quinoa"}, "placeholder_grain"},
}

var categoryAssets = map[Category]string{
	Breakfast:  "placeholder_breakfast",
	Lunch:      "placeholder_lunch",
	Dinner:     "placeholder_dinner",
	Dessert:    "placeholder_dessert",
	Appetizer:  "placeholder_appetizer",
	Salad:      "placeholder_salad",
	Soup:       "placeholder_soup",
	MainCourse: "placeholder_main",
	SideDish:   "placeholder_side",
	Beverage:   "placeholder_beverage",
	Snack:      "placeholder_snack",
	Other:      DefaultAsset,
}

// KeywordAsset returns the asset of the first keyword rule matching name.
func KeywordAsset(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, r := range keywordRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.asset, true
			}
		}
	}
	return "", false
}

// CategoryAsset returns the asset mapped to c.
func CategoryAsset(c Category) (string, bool) {
	asset, ok := categoryAssets[c]
	return asset, ok
}

// AssetIDs returns every asset the rules can name, without duplicates.
func AssetIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, r := range keywordRules {
		add(r.asset)
	}
	for _, c := range Categories {
		add(categoryAssets[c])
	}
	add(DefaultAsset)
	return ids
}
