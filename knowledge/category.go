package knowledge

import (
	"fmt"
	"strings"
)

// Category is the fact category a context item belongs to.
type Category int

const (
	Uncategorized Category = iota
	Slang
	Food
	Transport
	Culture
	Weather
	Festivals
	Pricing
	Safety
	Timing
)

var categoryNames = [...]string{
	Uncategorized: "uncategorized",
	Slang:         "slang",
	Food:          "food",
	Transport:     "transport",
	Culture:       "culture",
	Weather:       "weather",
	Festivals:     "festivals",
	Pricing:       "pricing",
	Safety:        "safety",
	Timing:        "timing",
}

// FactCategories lists every category except Uncategorized, in enum order.
func FactCategories() []Category {
	return []Category{Slang, Food, Transport, Culture, Weather, Festivals, Pricing, Safety, Timing}
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// MarshalText renders the category by name in JSON payloads.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseCategory resolves a category name, case-insensitively.
func ParseCategory(name string) (Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return Uncategorized, false
}

// SectionKeywords maps normalised heading tokens onto categories.
// Checked in FactCategories order so ties resolve deterministically.
var SectionKeywords = map[Category][]string{
	Slang:     {"slang", "phrases", "phrase", "lingo", "language", "vocabulary", "expressions"},
	Food:      {"food", "foods", "cuisine", "eating", "eats", "dining", "snacks", "vendors", "restaurants"},
	Transport: {"transport", "transportation", "commute", "commuting", "trains", "buses", "rickshaws", "taxis", "getting"},
	Culture:   {"culture", "cultural", "etiquette", "customs", "dos", "donts", "manners", "traditions"},
	Weather:   {"weather", "climate", "seasons", "seasonal", "monsoon"},
	Festivals: {"festivals", "festival", "events", "celebrations", "holidays"},
	Pricing:   {"pricing", "prices", "price", "costs", "cost", "fares", "budget"},
	Safety:    {"safety", "safe", "security", "scams", "emergency"},
	Timing:    {"timing", "timings", "hours", "schedule", "schedules", "logic", "patterns", "rhythm"},
}

// classifyHeading returns the first category whose keywords appear in the heading.
func classifyHeading(heading string) Category {
	tokens := make(map[string]struct{})
	for _, tok := range normalizeWords(heading) {
		tokens[tok] = struct{}{}
	}
	for _, cat := range FactCategories() {
		for _, kw := range SectionKeywords[cat] {
			if _, ok := tokens[kw]; ok {
				return cat
			}
		}
	}
	return Uncategorized
}

// classifyPath walks a heading path outermost first; the first heading
// that names a category decides.
func classifyPath(path []string) Category {
	for _, heading := range path {
		if cat := classifyHeading(heading); cat != Uncategorized {
			return cat
		}
	}
	return Uncategorized
}
