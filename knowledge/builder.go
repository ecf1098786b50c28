package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	apperrors "local-guide/errors"
)

const (
	citySection       = "City Information"
	categoriesSection = "fact categories"
)

// Fingerprint hashes document text; equal texts build equal bases.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Build parses a locality document into an indexed knowledge base. It
// fails with *errors.ParseError when the city identity is missing or no
// fact category is populated.
func Build(text string) (*KnowledgeBase, error) {
	outline := ParseOutline(text)

	city, err := extractCity(outline)
	if err != nil {
		return nil, err
	}

	kb := &KnowledgeBase{
		title:       outline.Title,
		city:        city,
		byCategory:  make(map[Category][]int),
		index:       make(map[string][]int),
		gazetteer:   gazetteerFromOutline(outline),
		fingerprint: Fingerprint(text),
	}

	outline.Walk(func(s *Section) {
		category := classifyPath(s.Path)
		for _, block := range s.Blocks {
			item := kb.newItem(s, block, category)
			kb.items = append(kb.items, item)
			kb.byCategory[category] = append(kb.byCategory[category], item.ID)
			for _, kw := range item.Keywords {
				kb.index[kw] = append(kb.index[kw], item.ID)
			}
		}
	})

	if len(kb.Categories()) == 0 {
		return nil, apperrors.NewParseError(categoriesSection, "no section maps to a fact category")
	}
	return kb, nil
}

func (kb *KnowledgeBase) newItem(s *Section, block Block, category Category) ContextItem {
	item := ContextItem{
		ID:            len(kb.items),
		Text:          block.Text,
		Label:         block.Label,
		Category:      category,
		SourceLocator: s.Locator(),
		TimeWindows:   ExtractTimeWindows(block.Text),
		Durations:     ExtractDurations(block.Text),
		LocationTags:  kb.gazetteer.tag(block.Text),
	}
	if price, ok := ExtractPriceRange(block.Text, category != Pricing); ok {
		item.PriceRange = price
	}
	if months, ok := ExtractMonthWindow(block.Text); ok {
		item.Months = &months
	} else if months, ok := ExtractMonthWindow(s.Title); ok {
		item.Months = &months
	}
	item.Keywords = keywordsFor(block.Text, s.Path)
	return item
}

// keywordsFor merges the item's own words with the words of its heading
// path, sorted for binary search.
func keywordsFor(text string, path []string) []string {
	set := make(map[string]struct{})
	for _, w := range Tokenize(text) {
		set[w] = struct{}{}
	}
	for _, heading := range path {
		for _, w := range normalizeWords(heading) {
			if isContent(w) {
				set[w] = struct{}{}
			}
		}
	}
	keywords := make([]string, 0, len(set))
	for w := range set {
		keywords = append(keywords, w)
	}
	slices.Sort(keywords)
	return keywords
}

// extractCity reads the city identity section. It is found by heading
// words ("city" plus an identity word) and must carry a City Name label.
func extractCity(o *Outline) (CityInfo, error) {
	var section *Section
	o.Walk(func(s *Section) {
		if section == nil && isCitySection(s.Title) {
			section = s
		}
	})
	if section == nil {
		return CityInfo{}, apperrors.NewParseError(citySection, "section is missing")
	}

	var city CityInfo
	for _, b := range section.Blocks {
		value := labelValue(b)
		switch strings.ToLower(b.Label) {
		case "city name", "city", "name":
			city.Name = value
		case "local name":
			city.LocalName = value
		case "region", "state":
			city.Region = value
		case "currency":
			city.Currency = value
		}
	}
	if city.Name == "" {
		return CityInfo{}, apperrors.NewParseError(citySection, "city name is missing")
	}
	return city, nil
}

func isCitySection(title string) bool {
	hasCity, hasIdentity := false, false
	for _, w := range normalizeWords(title) {
		switch w {
		case "city":
			hasCity = true
		case "information", "info", "identity", "profile", "overview", "details":
			hasIdentity = true
		}
	}
	return hasCity && hasIdentity
}

// labelValue returns the text after a block's label, e.g. "Mumbai" for
// "City Name: Mumbai".
func labelValue(b Block) string {
	if b.Label == "" || !strings.HasPrefix(b.Text, b.Label) {
		return ""
	}
	rest := strings.TrimSpace(b.Text[len(b.Label):])
	return strings.TrimSpace(strings.TrimLeft(rest, ":-–— "))
}
