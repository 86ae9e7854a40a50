package placeholder

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

type mapBundle map[string]image.Image

func (m mapBundle) Lookup(name string) (image.Image, bool) {
	img, ok := m[name]
	return img, ok
}

func fullBundle() mapBundle {
	b := mapBundle{}
	for _, id := range AssetIDs() {
		b[id] = imaging.New(8, 8, color.White)
	}
	return b
}

func categoryPtr(c Category) *Category {
	return &c
}

func TestKeywordAsset(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"Chicken Caesar Salad", "placeholder_salad", true},
		{"Tomato Basil Soup", "placeholder_soup", true},
		{"Pepperoni Pizza", "placeholder_pizza", true},
		{"Beef Stew", "placeholder_soup", true},
		{"Chocolate Chip Cookies", "placeholder_dessert", true},
		{"Spaghetti Carbonara", "placeholder_pasta", true},
		{"Roast Turkey", "placeholder_poultry", true},
		{"Grilled Steak", "placeholder_meat", true},
		{"Chicken Burger", "placeholder_poultry", true},
		{"Turkey Club Sandwich", "placeholder_poultry", true},
		{"Tuna Melt Sandwich", "placeholder_sandwich", true},
		{"Garlic Butter Shrimp", "placeholder_seafood", true},
		{"Belgian Waffles", "placeholder_breakfast", true},
		{"Blueberry Pancakes", "placeholder_dessert", true}, // "cake" rule comes first
		{"Tofu Stir Fry", "placeholder_asian", true},
		{"Thai Green Curry", "placeholder_asian", true},
		{"Roasted Vegetable Medley", "placeholder_vegetable", true},
		{"Quinoa Bowl", "placeholder_grain", true},
		{"SALAD", "placeholder_salad", true},
		{"recipe1", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeywordAsset(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("KeywordAsset(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCategoryAssetCoversAllCategories(t *testing.T) {
	for _, c := range Categories {
		if _, ok := CategoryAsset(c); !ok {
			t.Errorf("category %s has no asset", c)
		}
	}
	if got, _ := CategoryAsset(Breakfast); got != "placeholder_breakfast" {
		t.Errorf("CategoryAsset(breakfast) = %q", got)
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory("MainCourse"); !ok || c != MainCourse {
		t.Errorf("ParseCategory(MainCourse) = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("brunch"); ok {
		t.Error("ParseCategory(brunch) should fail")
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver(fullBundle())

	tests := []struct {
		name      string
		input     string
		category  *Category
		wantAsset string
		wantRule  Rule
	}{
		{"keyword beats category", "Chicken Caesar Salad", categoryPtr(Dinner), "placeholder_salad", RuleKeyword},
		{"soup keyword", "Tomato Basil Soup", nil, "placeholder_soup", RuleKeyword},
		{"category when no keyword", "recipe1", categoryPtr(Beverage), "placeholder_beverage", RuleCategory},
		{"default when nothing matches", "recipe1", nil, DefaultAsset, RuleDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.input, tt.category)
			if got.AssetID != tt.wantAsset || got.Rule != tt.wantRule {
				t.Errorf("Resolve(%q) = %s/%s, want %s/%s", tt.input, got.AssetID, got.Rule, tt.wantAsset, tt.wantRule)
			}
			if got.Image == nil {
				t.Error("Resolve returned nil image")
			}
		})
	}
}

func TestResolveForCategory(t *testing.T) {
	r := NewResolver(fullBundle())

	got := r.ResolveForCategory(categoryPtr(Breakfast), "recipe1")
	if got.AssetID != "placeholder_breakfast" || got.Rule != RuleCategory {
		t.Errorf("ResolveForCategory(breakfast) = %s/%s", got.AssetID, got.Rule)
	}

	// Category wins over keyword here
	got = r.ResolveForCategory(categoryPtr(Dessert), "Chicken Caesar Salad")
	if got.AssetID != "placeholder_dessert" {
		t.Errorf("ResolveForCategory(dessert, salad name) = %s", got.AssetID)
	}

	// No category: keyword, then default
	got = r.ResolveForCategory(nil, "Fish Tacos")
	if got.AssetID != "placeholder_seafood" || got.Rule != RuleKeyword {
		t.Errorf("ResolveForCategory(nil, Fish Tacos) = %s/%s", got.AssetID, got.Rule)
	}
}

func TestResolveFallsThroughMissingAssets(t *testing.T) {
	b := mapBundle{DefaultAsset: imaging.New(4, 4, color.Black)}
	r := NewResolver(b)

	got := r.Resolve("Chicken Caesar Salad", categoryPtr(Lunch))
	if got.AssetID != DefaultAsset || got.Rule != RuleDefault {
		t.Errorf("Resolve with missing assets = %s/%s, want default", got.AssetID, got.Rule)
	}
}

func TestResolveGlyphAlwaysSucceeds(t *testing.T) {
	for _, r := range []*Resolver{NewResolver(nil), NewResolver(mapBundle{})} {
		got := r.Resolve("anything", nil)
		if got.Rule != RuleGlyph || got.AssetID != GlyphAsset {
			t.Errorf("Resolve on empty bundle = %s/%s, want glyph", got.AssetID, got.Rule)
		}
		if got.Image == nil || got.Image.Bounds().Empty() {
			t.Fatal("glyph image is empty")
		}
		if again := r.Resolve("other", nil); again.Image != got.Image {
			t.Error("glyph should be generated once and reused")
		}
	}
}

func TestAssetIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range AssetIDs() {
		if seen[id] {
			t.Errorf("duplicate asset id %s", id)
		}
		seen[id] = true
	}
	for _, want := range []string{"placeholder_salad", "placeholder_breakfast", DefaultAsset} {
		if !seen[want] {
			t.Errorf("AssetIDs() missing %s", want)
		}
	}
}
