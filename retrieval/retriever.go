package retrieval

import (
	"fmt"
	"math"
	"sort"

	"local-guide/knowledge"
)

// Relevance weights. They must sum to one so scores stay within [0,1].
const (
	TokenOverlapWeight  = 0.5
	CategoryMatchWeight = 0.2
	TimeWindowWeight    = 0.2
	LocationWeight      = 0.1
)

// Component values for signals that cannot be judged either way.
const (
	neutralSignal   = 0.5
	secondaryIntent = 0.5
)

func init() {
	sum := TokenOverlapWeight + CategoryMatchWeight + TimeWindowWeight + LocationWeight
	if math.Abs(sum-1) > 1e-9 {
		panic(fmt.Sprintf("retrieval: relevance weights sum to %v, want 1", sum))
	}
}

// Breakdown holds the unweighted relevance components of one item.
type Breakdown struct {
	TokenOverlap  float64 `json:"token_overlap"`
	CategoryMatch float64 `json:"category_match"`
	TimeWindow    float64 `json:"time_window"`
	Location      float64 `json:"location"`
}

// Score combines the components with the relevance weights.
func (b Breakdown) Score() float64 {
	return TokenOverlapWeight*b.TokenOverlap +
		CategoryMatchWeight*b.CategoryMatch +
		TimeWindowWeight*b.TimeWindow +
		LocationWeight*b.Location
}

// ScoredItem is a context item with its relevance to one query.
type ScoredItem struct {
	Item      knowledge.ContextItem `json:"item"`
	Score     float64               `json:"score"`
	Breakdown Breakdown             `json:"breakdown"`
}

// Result is the ranked outcome of one retrieval.
type Result struct {
	Query    Query
	Analysis Analysis
	Items    []ScoredItem
}

// Empty reports whether nothing cleared the relevance cutoff.
func (r Result) Empty() bool {
	return len(r.Items) == 0
}

// TopScore returns the best relevance, or 0 when empty.
func (r Result) TopScore() float64 {
	if len(r.Items) == 0 {
		return 0
	}
	return r.Items[0].Score
}

// Options tunes the retriever.
type Options struct {
	Cutoff     float64
	MaxResults int
}

// Retriever ranks knowledge base items against queries. It holds no
// per-query state and is safe for concurrent use.
type Retriever struct {
	cutoff     float64
	maxResults int
}

// New returns a retriever; non-positive MaxResults means unlimited.
func New(opts Options) *Retriever {
	return &Retriever{cutoff: opts.Cutoff, maxResults: opts.MaxResults}
}

// Retrieve scores every item sharing at least one content word with the
// query and returns those at or above the cutoff, best first. Ties are
// broken by ascending item id so equal inputs always rank identically.
func (r *Retriever) Retrieve(q Query, kb *knowledge.KnowledgeBase) Result {
	result := Result{Query: q, Analysis: Analyze(q, kb)}
	if kb == nil || len(result.Analysis.Tokens) == 0 {
		return result
	}

	candidates := make(map[int]struct{})
	for _, tok := range result.Analysis.Tokens {
		for _, id := range kb.Postings(tok) {
			candidates[id] = struct{}{}
		}
	}

	for id := range candidates {
		item, ok := kb.Item(id)
		if !ok {
			continue
		}
		b := r.breakdown(q, result.Analysis, item)
		score := b.Score()
		if score < r.cutoff {
			continue
		}
		result.Items = append(result.Items, ScoredItem{Item: item, Score: score, Breakdown: b})
	}

	sort.Slice(result.Items, func(i, j int) bool {
		if result.Items[i].Score != result.Items[j].Score {
			return result.Items[i].Score > result.Items[j].Score
		}
		return result.Items[i].Item.ID < result.Items[j].Item.ID
	})
	if r.maxResults > 0 && len(result.Items) > r.maxResults {
		result.Items = result.Items[:r.maxResults]
	}
	return result
}

func (r *Retriever) breakdown(q Query, a Analysis, item knowledge.ContextItem) Breakdown {
	var b Breakdown

	matched := 0
	for _, tok := range a.Tokens {
		if item.HasKeyword(tok) {
			matched++
		}
	}
	b.TokenOverlap = float64(matched) / float64(len(a.Tokens))

	switch {
	case a.Primary() != knowledge.Uncategorized && item.Category == a.Primary():
		b.CategoryMatch = 1
	case a.HasIntent(item.Category):
		b.CategoryMatch = secondaryIntent
	}

	switch {
	case !q.HasClock || len(item.TimeWindows) == 0:
		b.TimeWindow = neutralSignal
	case item.ActiveAt(q.MinuteOfDay()):
		b.TimeWindow = 1
	}

	switch {
	case len(a.Locations) == 0 || len(item.LocationTags) == 0:
		b.Location = neutralSignal
	case anySamePlace(a.Locations, item.LocationTags):
		b.Location = 1
	}
	return b
}

func anySamePlace(query, tags []string) bool {
	for _, q := range query {
		for _, t := range tags {
			if knowledge.SamePlace(q, t) {
				return true
			}
		}
	}
	return false
}
