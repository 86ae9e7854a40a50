package placeholder

import "strings"

// Category is the meal category a request may carry.
type Category string

const (
	Breakfast  Category = "breakfast"
	Lunch      Category = "lunch"
	Dinner     Category = "dinner"
	Dessert    Category = "dessert"
	Appetizer  Category = "appetizer"
	Salad      Category = "salad"
	Soup       Category = "soup"
	MainCourse Category = "mainCourse"
	SideDish   Category = "sideDish"
	Beverage   Category = "beverage"
	Snack      Category = "snack"
	Other      Category = "other"
)

// Categories lists every known category.
var Categories = []Category{
	Breakfast, Lunch, Dinner, Dessert, Appetizer, Salad,
	Soup, MainCourse, SideDish, Beverage, Snack, Other,
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}
