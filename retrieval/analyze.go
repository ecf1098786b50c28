package retrieval

import (
	"strings"

	"local-guide/knowledge"
)

// intentPriority orders intents when a query matches several.
var intentPriority = []knowledge.Category{
	knowledge.Pricing,
	knowledge.Timing,
	knowledge.Safety,
	knowledge.Weather,
	knowledge.Festivals,
	knowledge.Culture,
	knowledge.Slang,
	knowledge.Transport,
	knowledge.Food,
}

var intentKeywords = map[knowledge.Category][]string{
	knowledge.Pricing:   {"price", "prices", "pricing", "cost", "costs", "expensive", "cheap", "fare", "fares", "budget", "rupees", "pay", "charge", "charges", "much"},
	knowledge.Timing:    {"when", "time", "timing", "timings", "hours", "open", "opening", "close", "closing", "schedule", "early", "late", "tonight"},
	knowledge.Safety:    {"safe", "safety", "unsafe", "danger", "dangerous", "scam", "scams", "risk", "risky", "pickpockets", "crime", "police", "emergency"},
	knowledge.Weather:   {"weather", "rain", "rains", "raining", "monsoon", "hot", "cold", "humid", "temperature", "climate", "season", "umbrella"},
	knowledge.Festivals: {"festival", "festivals", "event", "events", "celebration", "celebrations", "diwali", "ganesh", "navratri", "holi", "holiday", "holidays"},
	knowledge.Culture:   {"culture", "cultural", "etiquette", "custom", "customs", "dress", "wear", "polite", "rude", "respect", "temple", "temples", "tradition", "manners", "tipping"},
	knowledge.Slang:     {"slang", "phrase", "phrases", "say", "saying", "mean", "meaning", "means", "word", "words", "language", "speak", "hindi", "marathi"},
	knowledge.Transport: {"transport", "train", "trains", "bus", "buses", "taxi", "taxis", "cab", "cabs", "auto", "rickshaw", "metro", "travel", "commute", "reach", "route", "station", "ride", "directions"},
	knowledge.Food:      {"food", "eat", "eating", "breakfast", "lunch", "dinner", "snack", "snacks", "restaurant", "restaurants", "dish", "dishes", "chai", "tea", "hungry", "vegetarian", "cuisine"},
}

var intentIndex = func() map[string][]knowledge.Category {
	index := make(map[string][]knowledge.Category)
	for _, cat := range intentPriority {
		for _, w := range intentKeywords[cat] {
			index[w] = append(index[w], cat)
		}
	}
	return index
}()

// Analysis is what the pipeline learns about a query before scoring.
type Analysis struct {
	Tokens         []string             // content words, deduplicated
	Intents        []knowledge.Category // detected intents, highest priority first
	PresentIntents []knowledge.Category // detected intents the knowledge base covers
	ConcreteNouns  []string
	Locations      []string // canonical place names
	Unmatched      []string // content words no item mentions
	WordCount      int
	TimeRequested  bool
	PriceRequested bool
}

// Primary returns the highest priority intent, or Uncategorized.
func (a Analysis) Primary() knowledge.Category {
	if len(a.Intents) == 0 {
		return knowledge.Uncategorized
	}
	return a.Intents[0]
}

// HasIntent reports whether cat was detected.
func (a Analysis) HasIntent(cat knowledge.Category) bool {
	for _, c := range a.Intents {
		if c == cat {
			return true
		}
	}
	return false
}

// LocationRequested reports whether the query names or hints at a place.
func (a Analysis) LocationRequested() bool {
	return len(a.Locations) > 0
}

// Analyze tokenises and tags the query, detects intents and resolves
// place names. kb may be nil, in which case nothing is matched against it.
func Analyze(q Query, kb *knowledge.KnowledgeBase) Analysis {
	a := Analysis{WordCount: len(strings.Fields(q.Text))}

	detected := make(map[knowledge.Category]struct{})
	seen := make(map[string]struct{})
	nouns := make(map[string]struct{})
	for _, tok := range knowledge.TagTokens(q.Text, true) {
		for _, cat := range intentIndex[tok.Text] {
			detected[cat] = struct{}{}
		}
		if tok.Stop {
			continue
		}
		if strings.HasPrefix(tok.Tag, "NN") {
			if _, ok := nouns[tok.Text]; !ok {
				nouns[tok.Text] = struct{}{}
				a.ConcreteNouns = append(a.ConcreteNouns, tok.Text)
			}
		}
		if _, ok := seen[tok.Text]; ok {
			continue
		}
		seen[tok.Text] = struct{}{}
		a.Tokens = append(a.Tokens, tok.Text)
	}

	for _, cat := range intentPriority {
		if _, ok := detected[cat]; ok {
			a.Intents = append(a.Intents, cat)
		}
	}
	a.TimeRequested = q.HasClock || a.HasIntent(knowledge.Timing)
	a.PriceRequested = a.HasIntent(knowledge.Pricing)

	if q.LocationHint != "" {
		if kb != nil {
			if name, ok := kb.Gazetteer().Resolve(q.LocationHint); ok {
				a.Locations = append(a.Locations, name)
			} else {
				a.Locations = append(a.Locations, q.LocationHint)
			}
		} else {
			a.Locations = append(a.Locations, q.LocationHint)
		}
	}

	if kb == nil {
		a.Unmatched = append(a.Unmatched, a.Tokens...)
		return a
	}

	for _, name := range kb.Gazetteer().FindIn(q.Text) {
		if !containsPlace(a.Locations, name) {
			a.Locations = append(a.Locations, name)
		}
	}
	for _, cat := range a.Intents {
		if kb.HasCategory(cat) {
			a.PresentIntents = append(a.PresentIntents, cat)
		}
	}
	for _, tok := range a.Tokens {
		if !kb.Contains(tok) {
			a.Unmatched = append(a.Unmatched, tok)
		}
	}
	return a
}

func containsPlace(places []string, name string) bool {
	for _, p := range places {
		if knowledge.SamePlace(p, name) {
			return true
		}
	}
	return false
}
