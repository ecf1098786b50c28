package knowledge

import (
	"slices"
	"time"
)

// CityInfo identifies the locality a knowledge base describes.
type CityInfo struct {
	Name      string `json:"name"`
	LocalName string `json:"local_name,omitempty"`
	Region    string `json:"region,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

// ContextItem is one atomic fact lifted from the document.
type ContextItem struct {
	ID            int             `json:"id"`
	Text          string          `json:"text"`
	Label         string          `json:"label,omitempty"`
	Category      Category        `json:"category"`
	SourceLocator string          `json:"source"`
	TimeWindows   []TimeWindow    `json:"time_windows,omitempty"`
	PriceRange    *PriceRange     `json:"price_range,omitempty"`
	Months        *MonthWindow    `json:"months,omitempty"`
	Durations     []time.Duration `json:"durations,omitempty"`
	LocationTags  []string        `json:"location_tags,omitempty"`
	Keywords      []string        `json:"keywords"` // sorted, unique
}

// HasKeyword reports whether token is one of the item's keywords.
func (c ContextItem) HasKeyword(token string) bool {
	_, ok := slices.BinarySearch(c.Keywords, token)
	return ok
}

// ActiveAt reports whether any of the item's windows contains minute.
func (c ContextItem) ActiveAt(minute int) bool {
	for _, w := range c.TimeWindows {
		if w.Contains(minute) {
			return true
		}
	}
	return false
}

// IsTravelFigure reports whether the item states a transport duration.
func (c ContextItem) IsTravelFigure() bool {
	return len(c.Durations) > 0 && (c.Category == Transport || c.Category == Timing)
}

// KnowledgeBase is the immutable, indexed form of a locality document.
// It is safe for concurrent readers; nothing mutates it after Build.
type KnowledgeBase struct {
	title       string
	city        CityInfo
	items       []ContextItem
	byCategory  map[Category][]int
	index       map[string][]int
	gazetteer   Gazetteer
	fingerprint string
}

// Title returns the document title, if it had one.
func (kb *KnowledgeBase) Title() string { return kb.title }

// City returns the locality identity.
func (kb *KnowledgeBase) City() CityInfo { return kb.city }

// Fingerprint identifies the document text the base was built from.
func (kb *KnowledgeBase) Fingerprint() string { return kb.fingerprint }

// Gazetteer returns the place names declared by the document.
func (kb *KnowledgeBase) Gazetteer() Gazetteer { return kb.gazetteer }

// Len returns the number of items.
func (kb *KnowledgeBase) Len() int { return len(kb.items) }

// Item returns the item with the given id.
func (kb *KnowledgeBase) Item(id int) (ContextItem, bool) {
	if id < 0 || id >= len(kb.items) {
		return ContextItem{}, false
	}
	return kb.items[id], true
}

// Items returns every item in document order.
func (kb *KnowledgeBase) Items() []ContextItem {
	return slices.Clone(kb.items)
}

// ItemsIn returns the items of one category in document order.
func (kb *KnowledgeBase) ItemsIn(cat Category) []ContextItem {
	ids := kb.byCategory[cat]
	out := make([]ContextItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, kb.items[id])
	}
	return out
}

// HasCategory reports whether at least one item carries cat.
func (kb *KnowledgeBase) HasCategory(cat Category) bool {
	return len(kb.byCategory[cat]) > 0
}

// Categories returns the populated fact categories in enum order.
func (kb *KnowledgeBase) Categories() []Category {
	var cats []Category
	for _, cat := range FactCategories() {
		if kb.HasCategory(cat) {
			cats = append(cats, cat)
		}
	}
	return cats
}

// Postings returns the ids of items whose keywords include token, ascending.
func (kb *KnowledgeBase) Postings(token string) []int {
	return kb.index[token]
}

// Contains reports whether any item carries token as a keyword.
func (kb *KnowledgeBase) Contains(token string) bool {
	return len(kb.index[token]) > 0
}

// Stats summarises the base for logging and the status endpoint.
type Stats struct {
	City       string         `json:"city"`
	Items      int            `json:"items"`
	Keywords   int            `json:"keywords"`
	Places     int            `json:"places"`
	Categories map[string]int `json:"categories"`
}

// Stats returns item, keyword and per-category counts.
func (kb *KnowledgeBase) Stats() Stats {
	counts := make(map[string]int)
	for cat, ids := range kb.byCategory {
		counts[cat.String()] = len(ids)
	}
	return Stats{
		City:       kb.city.Name,
		Items:      len(kb.items),
		Keywords:   len(kb.index),
		Places:     kb.gazetteer.Len(),
		Categories: counts,
	}
}
