package reasoning

import (
	"fmt"
	"strings"

	"local-guide/knowledge"
	"local-guide/retrieval"
)

// Stage orders rule evaluation. Filter rules see every candidate; adjust
// rules see the selected draft items.
type Stage int

const (
	StageFilter Stage = iota
	StageAdjust
)

func (s Stage) String() string {
	switch s {
	case StageFilter:
		return "filter"
	case StageAdjust:
		return "adjust"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Travel time multipliers applied when the calendar says roads are slow.
const (
	FestivalTrafficMultiplier = 2.0
	MonsoonTrafficMultiplier  = 1.5
)

// Rule is one declarative piece of local logic. When decides whether it
// fires; Effect changes the evaluation; Assumption, if set, states what
// the rule took for granted.
type Rule struct {
	Name       string
	Stage      Stage
	When       func(*Evaluation) bool
	Effect     func(*Evaluation)
	Assumption func(*Evaluation) string
}

// DefaultRules returns the built-in rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "out-of-hours-drop",
			Stage: StageFilter,
			When: func(ev *Evaluation) bool {
				return ev.Time.HasClock && len(ev.closedWithOpenAlternative()) > 0
			},
			Effect: func(ev *Evaluation) {
				drop := ev.closedWithOpenAlternative()
				ev.Candidates = removeItems(ev.Candidates, drop)
			},
			Assumption: func(ev *Evaluation) string {
				return fmt.Sprintf("preferred places open at %s over ones that are closed", ev.Time.Clock())
			},
		},
		{
			Name:  "budget-band",
			Stage: StageFilter,
			When: func(ev *Evaluation) bool {
				band, ok := BudgetFromTokens(ev.Analysis.Tokens)
				return ok && len(ev.outOfBand(band)) > 0
			},
			Effect: func(ev *Evaluation) {
				band, _ := BudgetFromTokens(ev.Analysis.Tokens)
				ev.Candidates = removeItems(ev.Candidates, ev.outOfBand(band))
			},
			Assumption: func(ev *Evaluation) string {
				band, _ := BudgetFromTokens(ev.Analysis.Tokens)
				return fmt.Sprintf("assumed a %s budget and left out prices outside it", band)
			},
		},
		{
			Name:  "cultural-caution",
			Stage: StageAdjust,
			When: func(ev *Evaluation) bool {
				return len(ev.cautionsInDraft()) > 0
			},
			Effect: func(ev *Evaluation) {
				if ev.Cautions == nil {
					ev.Cautions = make(map[int]struct{})
				}
				for _, item := range ev.cautionsInDraft() {
					ev.Cautions[item.ID] = struct{}{}
				}
			},
			Assumption: func(*Evaluation) string {
				return "items listed under don'ts describe things to avoid"
			},
		},
		{
			Name:  "out-of-hours-note",
			Stage: StageAdjust,
			When: func(ev *Evaluation) bool {
				return ev.Time.HasClock && len(ev.closedInDraft()) > 0
			},
			Assumption: func(ev *Evaluation) string {
				notes := make([]string, 0)
				for _, item := range ev.closedInDraft() {
					notes = append(notes, fmt.Sprintf("%s: listed hours %s do not include %s",
						itemName(item), windowList(item.TimeWindows), ev.Time.Clock()))
				}
				return strings.Join(notes, "; ")
			},
		},
		{
			Name:  "festival-traffic",
			Stage: StageAdjust,
			When: func(ev *Evaluation) bool {
				return ev.Time.HasDate && len(ev.Time.Festivals) > 0 && ev.draftHasTravelFigure()
			},
			Effect: func(ev *Evaluation) {
				ev.Multiplier *= FestivalTrafficMultiplier
			},
			Assumption: func(ev *Evaluation) string {
				return fmt.Sprintf("festival traffic multiplier ×2 applied to travel times (%s)",
					strings.Join(ev.Time.Festivals, ", "))
			},
		},
		{
			Name:  "monsoon-traffic",
			Stage: StageAdjust,
			When: func(ev *Evaluation) bool {
				return ev.Time.HasDate && ev.Time.Monsoon && ev.draftHasTravelFigure()
			},
			Effect: func(ev *Evaluation) {
				ev.Multiplier *= MonsoonTrafficMultiplier
			},
			Assumption: func(*Evaluation) string {
				return "monsoon travel time multiplier ×1.3-1.5 applied to travel times, using ×1.5"
			},
		},
		{
			Name:  "peak-hours",
			Stage: StageAdjust,
			When: func(ev *Evaluation) bool {
				return ev.Time.Peak && ev.draftHas(knowledge.Transport)
			},
			Assumption: func(ev *Evaluation) string {
				return fmt.Sprintf("peak hours (%s): expect crowded trains and slower roads", ev.Time.PeakWindow)
			},
		},
		{
			Name:  "late-night-safety",
			Stage: StageAdjust,
			When: func(ev *Evaluation) bool {
				if !ev.Time.LateNight || !(ev.draftHas(knowledge.Food) || ev.draftHas(knowledge.Transport)) {
					return false
				}
				_, ok := ev.nightSafetyItem()
				return ok
			},
			Effect: func(ev *Evaluation) {
				item, _ := ev.nightSafetyItem()
				ev.Draft = append(ev.Draft, retrieval.ScoredItem{Item: item})
			},
			Assumption: func(ev *Evaluation) string {
				item := ev.Draft[len(ev.Draft)-1].Item
				return fmt.Sprintf("late-night safety note added from %s", item.SourceLocator)
			},
		},
	}
}

var cautionPrefixes = []string{"don't ", "don’t ", "dont ", "do not ", "never ", "avoid "}

// isCaution reports whether a culture item tells the reader what not to
// do, either by its heading or by its wording.
func isCaution(item knowledge.ContextItem) bool {
	if item.Category != knowledge.Culture {
		return false
	}
	path := strings.Split(item.SourceLocator, ">")
	heading := strings.Join(normalizeHeading(path[len(path)-1]), " ")
	donts := strings.Contains(heading, "donts") || strings.Contains(heading, "avoid")
	if donts && !strings.Contains(heading, "dos") {
		return true
	}
	_, ok := trimCautionPrefix(item.Text)
	return ok
}

func normalizeHeading(heading string) []string {
	heading = strings.NewReplacer("'", "", "’", "").Replace(strings.ToLower(heading))
	return strings.Fields(heading)
}

func trimCautionPrefix(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range cautionPrefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(text[len(p):]), true
		}
	}
	return text, false
}

// cautionSubject strips a leading negation so the text reads after "Avoid:".
func cautionSubject(text string) string {
	subject, _ := trimCautionPrefix(text)
	return subject
}

func itemName(item knowledge.ContextItem) string {
	if item.Label != "" {
		return item.Label
	}
	return item.SourceLocator
}

func windowList(windows []knowledge.TimeWindow) string {
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, w.String())
	}
	return strings.Join(parts, ", ")
}

func removeItems(items []retrieval.ScoredItem, drop map[int]struct{}) []retrieval.ScoredItem {
	kept := make([]retrieval.ScoredItem, 0, len(items))
	for _, c := range items {
		if _, ok := drop[c.Item.ID]; !ok {
			kept = append(kept, c)
		}
	}
	return kept
}
