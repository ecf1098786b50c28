package knowledge

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// LocationMatchThreshold is the minimum Jaro-Winkler similarity for two
// place names to be considered the same place.
const LocationMatchThreshold = 0.9

var areaHeadingWords = map[string]struct{}{
	"area": {}, "areas": {}, "neighbourhood": {}, "neighbourhoods": {}, "neighborhood": {},
	"neighborhoods": {}, "location": {}, "locations": {}, "place": {}, "places": {},
	"localities": {}, "locality": {},
}

// Gazetteer holds the place names the document itself declares.
type Gazetteer struct {
	names []string
}

// NewGazetteer builds a gazetteer from explicit names, keeping the first
// spelling of each.
func NewGazetteer(names ...string) Gazetteer {
	g := Gazetteer{}
	seen := make(map[string]struct{})
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		g.names = append(g.names, name)
	}
	return g
}

// gazetteerFromOutline collects labels and leaf headings found under any
// heading that names areas, neighbourhoods, locations or places.
func gazetteerFromOutline(o *Outline) Gazetteer {
	var names []string
	o.Walk(func(s *Section) {
		if !namesAreas(s.Title) {
			return
		}
		s.Walk(func(sub *Section) {
			if sub != s && sub.IsLeaf() {
				names = append(names, sub.Title)
			}
			for _, b := range sub.Blocks {
				if b.Label != "" {
					names = append(names, b.Label)
				}
			}
		})
	})
	return NewGazetteer(names...)
}

func namesAreas(title string) bool {
	for _, w := range normalizeWords(title) {
		if _, ok := areaHeadingWords[w]; ok {
			return true
		}
	}
	return false
}

// Names returns the canonical place names in document order.
func (g Gazetteer) Names() []string {
	return append([]string(nil), g.names...)
}

// Len returns the number of known places.
func (g Gazetteer) Len() int {
	return len(g.names)
}

// Resolve maps a free-form place reference onto a canonical name.
func (g Gazetteer) Resolve(ref string) (string, bool) {
	ref = strings.ToLower(strings.Join(normalizeWords(ref), " "))
	if ref == "" {
		return "", false
	}
	best, bestScore := "", float32(0)
	for _, name := range g.names {
		candidate := strings.ToLower(strings.Join(normalizeWords(name), " "))
		score := edlib.JaroWinklerSimilarity(ref, candidate)
		if first := strings.Fields(candidate); len(first) > 1 && len(ref) >= 4 && ref == first[0] {
			score = 1
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore >= LocationMatchThreshold {
		return best, true
	}
	return "", false
}

// FindIn returns every known place mentioned in free text, matching word
// n-grams of up to three words.
func (g Gazetteer) FindIn(text string) []string {
	words := normalizeWords(text)
	found := make(map[string]struct{})
	var out []string
	for n := 3; n >= 1; n-- {
		for i := 0; i+n <= len(words); i++ {
			gram := strings.Join(words[i:i+n], " ")
			if n == 1 && (len(gram) < 4 || IsStopword(gram)) {
				continue
			}
			name, ok := g.Resolve(gram)
			if !ok {
				continue
			}
			if _, dup := found[name]; dup {
				continue
			}
			found[name] = struct{}{}
			out = append(out, name)
		}
	}
	return g.ordered(out)
}

// tag returns the places mentioned by capitalised phrases in item text.
func (g Gazetteer) tag(text string) []string {
	if len(g.names) == 0 {
		return nil
	}
	found := make(map[string]struct{})
	var out []string
	for _, phrase := range capitalPhrases(text) {
		for _, name := range g.names {
			if !phraseNames(phrase, name) {
				continue
			}
			if _, dup := found[name]; dup {
				continue
			}
			found[name] = struct{}{}
			out = append(out, name)
		}
	}
	return g.ordered(out)
}

func phraseNames(phrase, name string) bool {
	p := " " + strings.ToLower(phrase) + " "
	n := strings.ToLower(name)
	if strings.Contains(p, " "+n+" ") {
		return true
	}
	words := strings.Fields(n)
	return len(words) > 1 && len(words[0]) >= 4 && strings.TrimSpace(p) == words[0]
}

func (g Gazetteer) ordered(found []string) []string {
	if len(found) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(found))
	for _, f := range found {
		set[f] = struct{}{}
	}
	out := make([]string, 0, len(found))
	for _, name := range g.names {
		if _, ok := set[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// SamePlace reports whether two place names refer to the same place.
func SamePlace(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return a == b || edlib.JaroWinklerSimilarity(a, b) >= LocationMatchThreshold
}
