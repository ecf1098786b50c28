package reasoning

import (
	"os"
	"strings"
	"testing"
	"time"

	"local-guide/knowledge"
	"local-guide/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleKB(t *testing.T) *knowledge.KnowledgeBase {
	t.Helper()
	data, err := os.ReadFile("../data/product.md")
	require.NoError(t, err)
	kb, err := knowledge.Build(string(data))
	require.NoError(t, err)
	return kb
}

func reason(t *testing.T, kb *knowledge.KnowledgeBase, q retrieval.Query) Result {
	t.Helper()
	res := retrieval.New(retrieval.Options{Cutoff: 0.15, MaxResults: 10}).Retrieve(q, kb)
	return New(Options{MaxDraftItems: 3, DraftScoreRatio: 0.8}).Reason(res, kb)
}

func at(t *testing.T, text, raw string) retrieval.Query {
	t.Helper()
	q, err := retrieval.NewQuery(text).WithTimestamp(raw)
	require.NoError(t, err)
	return q
}

func TestReasonPricingDraft(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, retrieval.NewQuery("vada pav price"))

	require.NotNil(t, out.AnswerDraft)
	assert.Equal(t, "Vada Pav: ₹15-25", *out.AnswerDraft)
	assert.Equal(t, []string{"Local Pricing Expectations > Street Food"}, out.Sources)
	assert.Empty(t, out.Assumptions)
	assert.Empty(t, out.MissingInfo)
	assert.NotContains(t, out.FiredRules, "cultural-caution")
	assert.Equal(t, 1.0, out.TravelTimeMultiplier)
}

func TestReasonOutOfHoursNote(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, at(t, "breakfast spot", "23:00"))

	require.NotNil(t, out.AnswerDraft)
	assert.True(t, strings.HasPrefix(*out.AnswerDraft, "Morning (6-10 AM)"))
	assert.Contains(t, out.FiredRules, "out-of-hours-note")
	require.NotEmpty(t, out.Assumptions)
	assert.Contains(t, out.Assumptions[0], "06:00-10:00 do not include 23:00")

	assert.Contains(t, out.FiredRules, "late-night-safety")
	assert.Contains(t, *out.AnswerDraft, "Stick to main roads")
	assert.Contains(t, out.Sources, "Safety Notes")
}

func TestReasonMorningNeedsNoNote(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, at(t, "breakfast spot", "07:00"))

	require.NotNil(t, out.AnswerDraft)
	assert.NotContains(t, out.FiredRules, "out-of-hours-note")
	assert.NotContains(t, out.FiredRules, "late-night-safety")
	assert.Empty(t, out.Assumptions)
}

func TestReasonDropsClosedAlternatives(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, at(t, "vada pav", "07:30"))

	assert.Contains(t, out.FiredRules, "out-of-hours-drop")
	for _, c := range out.Considered {
		assert.False(t, strings.HasPrefix(c.Item.Text, "Afternoon"), "closed stall kept: %q", c.Item.Text)
		assert.False(t, strings.HasPrefix(c.Item.Text, "Evening"), "closed stall kept: %q", c.Item.Text)
	}
	require.NotEmpty(t, out.Used)
	assert.True(t, strings.HasPrefix(out.Used[0].Item.Text, "Dadar:"))
}

func TestReasonFestivalTraffic(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, at(t, "how long to reach Dadar station by train", "2025-10-05T18:30"))

	require.NotNil(t, out.AnswerDraft)
	assert.Contains(t, *out.AnswerDraft, "takes about 15 minutes")
	assert.Contains(t, out.FiredRules, "festival-traffic")
	assert.NotContains(t, out.FiredRules, "monsoon-traffic")
	assert.Contains(t, out.FiredRules, "peak-hours")
	assert.Equal(t, 2.0, out.TravelTimeMultiplier)
	assert.Equal(t, []string{"Diwali", "Navratri"}, out.Time.Festivals)

	found := false
	for _, a := range out.Assumptions {
		if strings.Contains(a, "festival traffic multiplier ×2") {
			found = true
		}
	}
	assert.True(t, found, "assumptions: %v", out.Assumptions)
}

func TestReasonMultipliersCompose(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, at(t, "how long to reach Dadar station by train", "2025-09-02T18:30"))

	assert.Contains(t, out.FiredRules, "festival-traffic")
	assert.Contains(t, out.FiredRules, "monsoon-traffic")
	assert.InDelta(t, 3.0, out.TravelTimeMultiplier, 1e-9)
	assert.True(t, out.Time.Monsoon)
}

func TestReasonWithoutTimeContext(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, retrieval.NewQuery("how long to reach Dadar station by train"))

	require.NotNil(t, out.AnswerDraft)
	assert.Empty(t, out.FiredRules, "time rules need a timestamp")
	assert.Equal(t, 1.0, out.TravelTimeMultiplier)
}

func TestReasonEmptyRetrieval(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, retrieval.NewQuery("best restaurant in Paris"))

	assert.Nil(t, out.AnswerDraft)
	assert.Empty(t, out.Sources)
	require.NotEmpty(t, out.MissingInfo)
	assert.Contains(t, strings.Join(out.MissingInfo, " "), "paris")
}

func TestReasonCulturalCaution(t *testing.T) {
	kb := sampleKB(t)
	out := reason(t, kb, retrieval.NewQuery("what should I wear at religious places"))

	assert.Contains(t, out.FiredRules, "cultural-caution")
	assert.Contains(t, out.Assumptions, "items listed under don'ts describe things to avoid")
	require.NotNil(t, out.AnswerDraft)
	assert.Contains(t, *out.AnswerDraft, "Avoid: wear revealing clothes at religious places")
	assert.NotContains(t, *out.AnswerDraft, "Avoid: Dress")
}

func TestReasonCautionOnlyWhenDrafted(t *testing.T) {
	kb := sampleKB(t)
	res := retrieval.New(retrieval.Options{Cutoff: 0.15, MaxResults: 10}).Retrieve(retrieval.NewQuery("vada pav price"), kb)

	caution := false
	for _, c := range res.Items {
		if isCaution(c.Item) {
			caution = true
		}
	}
	require.True(t, caution, "a don'ts item should be among the candidates")

	out := New(Options{MaxDraftItems: 3, DraftScoreRatio: 0.8}).Reason(res, kb)
	assert.NotContains(t, out.FiredRules, "cultural-caution")
	assert.NotContains(t, *out.AnswerDraft, "Avoid:")
}

func TestIsCaution(t *testing.T) {
	tests := []struct {
		name string
		item knowledge.ContextItem
		want bool
	}{
		{
			name: "listed under don'ts",
			item: knowledge.ContextItem{Category: knowledge.Culture, SourceLocator: "Cultural Do's and Don'ts > Don'ts", Text: "Haggling at fixed-price shops"},
			want: true,
		},
		{
			name: "listed under do's",
			item: knowledge.ContextItem{Category: knowledge.Culture, SourceLocator: "Cultural Do's and Don'ts > Do's", Text: "Remove footwear before entering temples"},
			want: false,
		},
		{
			name: "negated wording in a mixed section",
			item: knowledge.ContextItem{Category: knowledge.Culture, SourceLocator: "Cultural Do's and Don'ts", Text: "Never point your feet at idols"},
			want: true,
		},
		{
			name: "outside culture",
			item: knowledge.ContextItem{Category: knowledge.Safety, SourceLocator: "Safety Notes", Text: "Don't swim during the monsoon"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isCaution(tt.item))
		})
	}
	assert.Equal(t, "touch anyone's head", cautionSubject("Don't touch anyone's head"))
	assert.Equal(t, "Remove footwear", cautionSubject("Remove footwear"))
}

func TestReasonBudgetBand(t *testing.T) {
	kb := sampleKB(t)

	tests := []struct {
		name     string
		query    string
		fired    bool
		contains string
		excludes string
	}{
		{"cheap drops pricier dishes", "cheap vada pav or pav bhaji", true, "₹15-25", "₹80-150"},
		{"no band without a budget word", "vada pav or pav bhaji price", false, "", ""},
		{"nothing dropped without an in-band option", "upscale vada pav or pav bhaji", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := reason(t, kb, retrieval.NewQuery(tt.query))
			if !tt.fired {
				assert.NotContains(t, out.FiredRules, "budget-band")
				return
			}
			assert.Contains(t, out.FiredRules, "budget-band")
			assert.Contains(t, out.Assumptions, "assumed a low (0-50) budget and left out prices outside it")
			for _, c := range out.Considered {
				if c.Item.PriceRange != nil {
					assert.LessOrEqual(t, c.Item.PriceRange.Min, 50, "out of band: %q", c.Item.Text)
				}
			}
			require.NotNil(t, out.AnswerDraft)
			assert.Contains(t, *out.AnswerDraft, tt.contains)
			assert.NotContains(t, *out.AnswerDraft, tt.excludes)
		})
	}
}

func TestBudgetFromTokens(t *testing.T) {
	band, ok := BudgetFromTokens([]string{"street", "affordable"})
	require.True(t, ok)
	assert.Equal(t, BudgetLow, band)

	band, ok = BudgetFromTokens([]string{"luxury", "cheap"})
	require.True(t, ok)
	assert.Equal(t, BudgetHigh, band)
	assert.Equal(t, "high (150 and above)", band.String())

	_, ok = BudgetFromTokens([]string{"vada", "pav"})
	assert.False(t, ok)

	assert.True(t, BudgetMedium.Contains(50))
	assert.True(t, BudgetMedium.Contains(150))
	assert.False(t, BudgetMedium.Contains(151))
}

func TestReasonReportsAbsentIntents(t *testing.T) {
	kb, err := knowledge.Build("# Pune\n\n## City Information\n- **City Name:** Pune\n\n## Local Food\n- **Misal:** Spicy misal pav at Bedekar near Tulshibaug (8-11 AM)\n")
	require.NoError(t, err)

	out := reason(t, kb, retrieval.NewQuery("misal pav price"))
	require.NotNil(t, out.AnswerDraft)
	assert.Contains(t, out.MissingInfo, "no pricing information in the local guide")
}

func TestSelectDraftKeepsRequestedAttributes(t *testing.T) {
	priced := &knowledge.PriceRange{Currency: "₹", Min: 15, Max: 25}
	item := func(id int, score float64, price *knowledge.PriceRange) retrieval.ScoredItem {
		return retrieval.ScoredItem{Item: knowledge.ContextItem{ID: id, PriceRange: price}, Score: score}
	}
	wantPrice := retrieval.Analysis{PriceRequested: true}

	tests := []struct {
		name       string
		maxItems   int
		analysis   retrieval.Analysis
		candidates []retrieval.ScoredItem
		want       []int
	}{
		{"supplier added below the floor", 3, wantPrice, []retrieval.ScoredItem{item(1, 1.0, nil), item(2, 0.9, nil), item(3, 0.5, priced)}, []int{1, 2, 3}},
		{"full draft evicts the weakest", 2, wantPrice, []retrieval.ScoredItem{item(1, 1.0, nil), item(2, 0.95, nil), item(3, 0.5, priced)}, []int{1, 3}},
		{"best item is never evicted", 1, wantPrice, []retrieval.ScoredItem{item(1, 1.0, nil), item(3, 0.5, priced)}, []int{1}},
		{"already supplied", 3, wantPrice, []retrieval.ScoredItem{item(1, 1.0, priced), item(2, 0.5, priced)}, []int{1}},
		{"nothing requested", 3, retrieval.Analysis{}, []retrieval.ScoredItem{item(1, 1.0, nil), item(2, 0.9, nil), item(3, 0.5, priced)}, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(Options{MaxDraftItems: tt.maxItems, DraftScoreRatio: 0.8, Rules: []Rule{}})
			var ids []int
			for _, d := range r.selectDraft(tt.candidates, tt.analysis) {
				ids = append(ids, d.Item.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestReasonKeepsPriceWhenBetterMatchAdded(t *testing.T) {
	data, err := os.ReadFile("../data/product.md")
	require.NoError(t, err)
	extended := strings.Replace(string(data), "- Vada Pav: ₹15-25\n", "- Vada Pav: ₹15-25\n- Vada Pav price differs at every stall\n", 1)
	require.NotEqual(t, string(data), extended)
	kb, err := knowledge.Build(extended)
	require.NoError(t, err)

	out := reason(t, kb, retrieval.NewQuery("vada pav price stall"))
	require.NotNil(t, out.AnswerDraft)
	assert.Contains(t, *out.AnswerDraft, "Vada Pav price differs at every stall")
	assert.Contains(t, *out.AnswerDraft, "₹15-25")
}

func TestReasonDraftBounds(t *testing.T) {
	kb := sampleKB(t)
	res := retrieval.New(retrieval.Options{Cutoff: 0.15, MaxResults: 10}).Retrieve(retrieval.NewQuery("pav bhaji vada pav bhel puri"), kb)
	require.NotEmpty(t, res.Items)

	out := New(Options{MaxDraftItems: 2, DraftScoreRatio: 0.5}).Reason(res, kb)
	assert.LessOrEqual(t, len(out.Used), 2)
	for _, u := range out.Used {
		assert.GreaterOrEqual(t, u.Score, 0.5*res.Items[0].Score)
	}
}

func TestCustomRuleTable(t *testing.T) {
	kb := sampleKB(t)
	rules := []Rule{{
		Name:       "always",
		Stage:      StageAdjust,
		When:       func(*Evaluation) bool { return true },
		Effect:     func(ev *Evaluation) { ev.Multiplier = 1.25 },
		Assumption: func(*Evaluation) string { return "custom" },
	}}
	res := retrieval.New(retrieval.Options{Cutoff: 0.15}).Retrieve(retrieval.NewQuery("vada pav price"), kb)
	out := New(Options{MaxDraftItems: 3, DraftScoreRatio: 0.8, Rules: rules}).Reason(res, kb)

	assert.Equal(t, []string{"always"}, out.FiredRules)
	assert.Equal(t, []string{"custom"}, out.Assumptions)
	assert.Equal(t, 1.25, out.TravelTimeMultiplier)
}

func TestNewTimeContext(t *testing.T) {
	kb := sampleKB(t)

	q := retrieval.NewQuery("x").WithTime(time.Date(2025, time.July, 10, 23, 30, 0, 0, time.UTC))
	tc := NewTimeContext(q, kb)
	assert.Equal(t, Night, tc.Period)
	assert.True(t, tc.LateNight)
	assert.False(t, tc.Peak)
	assert.True(t, tc.Monsoon)
	assert.Empty(t, tc.Festivals)

	q = retrieval.NewQuery("x").WithTime(time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC))
	tc = NewTimeContext(q, kb)
	assert.Equal(t, Morning, tc.Period)
	assert.True(t, tc.Peak)
	require.NotNil(t, tc.PeakWindow)
	assert.Equal(t, "08:00-11:00", tc.PeakWindow.String())
	assert.False(t, tc.Monsoon)

	tc = NewTimeContext(retrieval.NewQuery("x"), kb)
	assert.Equal(t, Unknown, tc.Period)
	assert.False(t, tc.LateNight)
}
