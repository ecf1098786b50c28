package reasoning

import (
	"fmt"
	"strings"

	"local-guide/knowledge"
	"local-guide/retrieval"
)

// WeakRetrievalScore is the top relevance below which retrieval is
// reported as weak in missing information.
const WeakRetrievalScore = 0.3

// Evaluation is the mutable state rules operate on during one Reason call.
type Evaluation struct {
	Query      retrieval.Query
	Analysis   retrieval.Analysis
	Time       TimeContext
	KB         *knowledge.KnowledgeBase
	Candidates []retrieval.ScoredItem
	Draft      []retrieval.ScoredItem
	Multiplier float64
	Cautions   map[int]struct{} // drafted items rendered as things to avoid
}

func (ev *Evaluation) cautionsInDraft() []knowledge.ContextItem {
	var items []knowledge.ContextItem
	for _, d := range ev.Draft {
		if isCaution(d.Item) {
			items = append(items, d.Item)
		}
	}
	return items
}

func (ev *Evaluation) closedWithOpenAlternative() map[int]struct{} {
	minute := ev.Time.Minute
	open := make(map[knowledge.Category]bool)
	for _, c := range ev.Candidates {
		if len(c.Item.TimeWindows) > 0 && c.Item.ActiveAt(minute) {
			open[c.Item.Category] = true
		}
	}
	drop := make(map[int]struct{})
	for _, c := range ev.Candidates {
		if len(c.Item.TimeWindows) > 0 && !c.Item.ActiveAt(minute) && open[c.Item.Category] {
			drop[c.Item.ID] = struct{}{}
		}
	}
	return drop
}

func (ev *Evaluation) closedInDraft() []knowledge.ContextItem {
	var closed []knowledge.ContextItem
	for _, d := range ev.Draft {
		if len(d.Item.TimeWindows) > 0 && !d.Item.ActiveAt(ev.Time.Minute) {
			closed = append(closed, d.Item)
		}
	}
	return closed
}

func (ev *Evaluation) draftHas(cat knowledge.Category) bool {
	for _, d := range ev.Draft {
		if d.Item.Category == cat {
			return true
		}
	}
	return false
}

func (ev *Evaluation) draftHasTravelFigure() bool {
	for _, d := range ev.Draft {
		if d.Item.IsTravelFigure() {
			return true
		}
	}
	return false
}

func (ev *Evaluation) inDraft(id int) bool {
	for _, d := range ev.Draft {
		if d.Item.ID == id {
			return true
		}
	}
	return false
}

// nightSafetyItem finds a safety item about night time not yet drafted.
func (ev *Evaluation) nightSafetyItem() (knowledge.ContextItem, bool) {
	if ev.KB == nil {
		return knowledge.ContextItem{}, false
	}
	for _, item := range ev.KB.ItemsIn(knowledge.Safety) {
		text := strings.ToLower(item.Label + " " + item.Text)
		if strings.Contains(text, "night") && !ev.inDraft(item.ID) {
			return item, true
		}
	}
	return knowledge.ContextItem{}, false
}

// Result is the reasoner's output for one query.
type Result struct {
	AnswerDraft          *string                `json:"answer_draft"`
	Sources              []string               `json:"sources"`
	Assumptions          []string               `json:"assumptions"`
	MissingInfo          []string               `json:"missing_info"`
	Used                 []retrieval.ScoredItem `json:"used"`
	Considered           []retrieval.ScoredItem `json:"-"`
	TravelTimeMultiplier float64                `json:"travel_time_multiplier"`
	FiredRules           []string               `json:"fired_rules"`
	Time                 TimeContext            `json:"time"`
}

// TopScore returns the best relevance among the drafted items.
func (r Result) TopScore() float64 {
	top := 0.0
	for _, u := range r.Used {
		if u.Score > top {
			top = u.Score
		}
	}
	return top
}

// Options tunes draft assembly.
type Options struct {
	MaxDraftItems   int
	DraftScoreRatio float64
	Rules           []Rule // nil means DefaultRules
}

// Reasoner turns retrieval results into an answer draft by running the
// rule table. It holds no per-query state and is safe for concurrent use.
type Reasoner struct {
	maxItems int
	ratio    float64
	rules    []Rule
}

func New(opts Options) *Reasoner {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	maxItems := opts.MaxDraftItems
	if maxItems < 1 {
		maxItems = 1
	}
	ratio := opts.DraftScoreRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return &Reasoner{maxItems: maxItems, ratio: ratio, rules: rules}
}

// Reason runs filter rules over the candidates, selects the draft items,
// runs adjust rules over them and assembles the draft. Every assumption a
// fired rule makes is reported; no fact outside kb enters the draft.
func (r *Reasoner) Reason(res retrieval.Result, kb *knowledge.KnowledgeBase) Result {
	ev := &Evaluation{
		Query:      res.Query,
		Analysis:   res.Analysis,
		Time:       NewTimeContext(res.Query, kb),
		KB:         kb,
		Candidates: append([]retrieval.ScoredItem(nil), res.Items...),
		Multiplier: 1,
	}

	out := Result{Time: ev.Time}
	out.FiredRules, out.Assumptions = r.run(ev, StageFilter, out.FiredRules, out.Assumptions)
	ev.Draft = r.selectDraft(ev.Candidates, ev.Analysis)
	out.FiredRules, out.Assumptions = r.run(ev, StageAdjust, out.FiredRules, out.Assumptions)

	out.Considered = ev.Candidates
	out.Used = ev.Draft
	out.TravelTimeMultiplier = ev.Multiplier
	if len(ev.Draft) > 0 {
		draft := assemble(ev.Draft, ev.Cautions)
		out.AnswerDraft = &draft
		out.Sources = sources(ev.Draft)
	}
	out.MissingInfo = missingInfo(res, ev.Draft)
	return out
}

func (r *Reasoner) run(ev *Evaluation, stage Stage, fired, assumptions []string) ([]string, []string) {
	for _, rule := range r.rules {
		if rule.Stage != stage || rule.When == nil || !rule.When(ev) {
			continue
		}
		if rule.Effect != nil {
			rule.Effect(ev)
		}
		fired = append(fired, rule.Name)
		if rule.Assumption != nil {
			if a := rule.Assumption(ev); a != "" {
				assumptions = append(assumptions, a)
			}
		}
	}
	return fired, assumptions
}

// selectDraft keeps the top-ranked candidates scoring within ratio of
// the best one. A requested attribute the selection lacks is taken from
// the best candidate supplying it, so a better match elsewhere in the
// guide never pushes the only price or time out of the draft.
func (r *Reasoner) selectDraft(candidates []retrieval.ScoredItem, a retrieval.Analysis) []retrieval.ScoredItem {
	if len(candidates) == 0 {
		return nil
	}
	floor := candidates[0].Score * r.ratio
	draft := make([]retrieval.ScoredItem, 0, r.maxItems)
	for _, c := range candidates {
		if len(draft) == r.maxItems || c.Score < floor {
			break
		}
		draft = append(draft, c)
	}

	attrs := RequestedAttributes(a)
	for _, attr := range attrs {
		if anySupplies(attr, draft, a) {
			continue
		}
		for _, c := range candidates {
			if Supplies(attr, c.Item, a) {
				draft = r.makeRoom(draft, c, attrs, a)
				break
			}
		}
	}
	return draft
}

// makeRoom adds supplier to the draft, evicting the lowest-ranked item
// that carries no requested attribute when the draft is full. The best
// item is never evicted.
func (r *Reasoner) makeRoom(draft []retrieval.ScoredItem, supplier retrieval.ScoredItem, attrs []Attribute, a retrieval.Analysis) []retrieval.ScoredItem {
	if len(draft) < r.maxItems {
		return append(draft, supplier)
	}
	for i := len(draft) - 1; i > 0; i-- {
		if !suppliesAny(attrs, draft[i].Item, a) {
			kept := append(draft[:i:i], draft[i+1:]...)
			return append(kept, supplier)
		}
	}
	return draft
}

// assemble joins the drafted texts. Items marked as cautions are
// rendered as things to avoid.
func assemble(items []retrieval.ScoredItem, cautions map[int]struct{}) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := cautions[it.Item.ID]; ok {
			lines = append(lines, "Avoid: "+cautionSubject(it.Item.Text))
			continue
		}
		lines = append(lines, it.Item.Text)
	}
	return strings.Join(lines, " ")
}

func sources(items []retrieval.ScoredItem) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.Item.SourceLocator]; ok {
			continue
		}
		seen[it.Item.SourceLocator] = struct{}{}
		out = append(out, it.Item.SourceLocator)
	}
	return out
}

// missingInfo names every detected intent the guide has no section for.
// Empty or weak retrieval is explained on top of that.
func missingInfo(res retrieval.Result, draft []retrieval.ScoredItem) []string {
	missing := make([]string, 0)
	present := make(map[knowledge.Category]bool)
	for _, c := range res.Analysis.PresentIntents {
		present[c] = true
	}
	for _, c := range res.Analysis.Intents {
		if !present[c] {
			missing = append(missing, fmt.Sprintf("no %s information in the local guide", c))
		}
	}
	if len(draft) > 0 && res.TopScore() >= WeakRetrievalScore {
		return missing
	}

	if len(res.Analysis.Unmatched) > 0 {
		missing = append(missing, "no local context for: "+strings.Join(res.Analysis.Unmatched, ", "))
	}
	if len(draft) > 0 {
		missing = append(missing, "only weakly related local context was found")
	}
	if len(missing) == 0 {
		missing = append(missing, "query did not match any local context")
	}
	return missing
}
