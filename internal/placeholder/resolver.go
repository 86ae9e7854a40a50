package placeholder

import (
	"image"
	"image/color"
	"sync"

	"asset-cache/internal/logging"
	"asset-cache/internal/metrics"

	"github.com/disintegration/imaging"
)

// Rule names which step produced a placeholder.
type Rule string

const (
	RuleKeyword  Rule = "keyword"
	RuleCategory Rule = "category"
	RuleDefault  Rule = "default"
	RuleGlyph    Rule = "glyph"
)

// GlyphAsset is the AssetID reported for the generated glyph.
const GlyphAsset = "system_photo_glyph"

// Bundle looks up images shipped with the application by name.
type Bundle interface {
	Lookup(name string) (image.Image, bool)
}

// Result is a resolved placeholder.
type Result struct {
	Image   image.Image
	AssetID string
	Rule    Rule
}

// Resolver picks a placeholder image for a name and optional category.
// Resolution always succeeds: when no rule names an asset present in the
// bundle, a generated glyph is returned.
type Resolver struct {
	bundle Bundle

	glyphOnce sync.Once
	glyph     image.Image
}

// NewResolver creates a resolver over bundle, which may be nil.
func NewResolver(bundle Bundle) *Resolver {
	return &Resolver{bundle: bundle}
}

type step struct {
	rule  Rule
	asset func() (string, bool)
}

// Resolve tries the keyword rules first, then the category, then the
// default asset.
func (r *Resolver) Resolve(name string, category *Category) Result {
	return r.first(name,
		step{RuleKeyword, func() (string, bool) { return KeywordAsset(name) }},
		step{RuleCategory, categoryStep(category)},
	)
}

// ResolveForCategory tries the category first and falls back to the
// keyword rules. It is used when a remote image could not be fetched.
func (r *Resolver) ResolveForCategory(category *Category, name string) Result {
	return r.first(name,
		step{RuleCategory, categoryStep(category)},
		step{RuleKeyword, func() (string, bool) { return KeywordAsset(name) }},
	)
}

func categoryStep(category *Category) func() (string, bool) {
	return func() (string, bool) {
		if category == nil {
			return "", false
		}
		return CategoryAsset(*category)
	}
}

func (r *Resolver) first(name string, steps ...step) Result {
	steps = append(steps, step{RuleDefault, func() (string, bool) { return DefaultAsset, true }})

	for _, s := range steps {
		asset, ok := s.asset()
		if !ok {
			continue
		}
		if img, found := r.lookup(asset); found {
			metrics.PlaceholdersTotal.WithLabelValues(string(s.rule)).Inc()
			logging.Debug("Placeholder for %q: %s (%s)", name, asset, s.rule)
			return Result{Image: img, AssetID: asset, Rule: s.rule}
		}
		logging.Debug("Placeholder asset %s missing from bundle, trying next rule", asset)
	}

	metrics.PlaceholdersTotal.WithLabelValues(string(RuleGlyph)).Inc()
	return Result{Image: r.systemGlyph(), AssetID: GlyphAsset, Rule: RuleGlyph}
}

func (r *Resolver) lookup(asset string) (image.Image, bool) {
	if r.bundle == nil {
		return nil, false
	}
	return r.bundle.Lookup(asset)
}

// systemGlyph draws a neutral photo frame.
func (r *Resolver) systemGlyph() image.Image {
	r.glyphOnce.Do(func() {
		const size = 96
		frame := imaging.New(size, size, color.NRGBA{R: 210, G: 210, B: 215, A: 255})
		inner := imaging.New(size-24, size-24, color.NRGBA{R: 238, G: 238, B: 242, A: 255})
		sun := imaging.New(14, 14, color.NRGBA{R: 180, G: 180, B: 190, A: 255})
		hill := imaging.New(size-24, 20, color.NRGBA{R: 160, G: 160, B: 172, A: 255})

		glyph := imaging.Paste(frame, inner, image.Pt(12, 12))
		glyph = imaging.Paste(glyph, sun, image.Pt(24, 24))
		r.glyph = imaging.Paste(glyph, hill, image.Pt(12, size-32))
	})
	return r.glyph
}
