package knowledge

import (
	"os"
	"strings"
	"testing"
	"time"

	apperrors "local-guide/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSample(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../data/product.md")
	require.NoError(t, err)
	return string(data)
}

func buildSample(t *testing.T) *KnowledgeBase {
	t.Helper()
	kb, err := Build(loadSample(t))
	require.NoError(t, err)
	return kb
}

func findItem(t *testing.T, kb *KnowledgeBase, prefix string) ContextItem {
	t.Helper()
	for _, item := range kb.Items() {
		if strings.HasPrefix(item.Text, prefix) {
			return item
		}
	}
	t.Fatalf("no item starts with %q", prefix)
	return ContextItem{}
}

func TestBuildSampleDocument(t *testing.T) {
	kb := buildSample(t)

	assert.Equal(t, "The Local Guide: Mumbai", kb.Title())
	assert.Equal(t, "Mumbai", kb.City().Name)
	assert.Equal(t, "Bambai", kb.City().LocalName)
	assert.Equal(t, FactCategories(), kb.Categories())
	assert.Equal(t, []string{"Juhu Beach", "Mohammed Ali Road", "Dadar"}, kb.Gazetteer().Names())

	for i, item := range kb.Items() {
		assert.Equal(t, i, item.ID)
		assert.NotEmpty(t, item.SourceLocator, "item %d", i)
		assert.NotContains(t, item.SourceLocator, "The Local Guide", "title must not appear in locators")
		assert.NotEmpty(t, item.Keywords, "item %d", i)
	}
}

func TestBuildExtractsStructuredFacts(t *testing.T) {
	kb := buildSample(t)

	vadaPav := findItem(t, kb, "Vada Pav: ")
	assert.Equal(t, Pricing, vadaPav.Category)
	assert.Equal(t, "Local Pricing Expectations > Street Food", vadaPav.SourceLocator)
	assert.Equal(t, &PriceRange{Currency: "INR", Min: 15, Max: 25}, vadaPav.PriceRange)
	assert.Equal(t, "Vada Pav", vadaPav.Label)

	morning := findItem(t, kb, "Morning (6-10 AM)")
	assert.Equal(t, Food, morning.Category)
	assert.Equal(t, "Local Food & Street Vendors > Street Food Timings", morning.SourceLocator)
	assert.Equal(t, []TimeWindow{{Start: 6 * 60, End: 10 * 60}}, morning.TimeWindows)
	assert.Nil(t, morning.PriceRange, "clock ranges are not prices")
	assert.True(t, morning.HasKeyword("breakfast"))

	lateNight := findItem(t, kb, "Late Night (11 PM-2 AM)")
	assert.Equal(t, []TimeWindow{{Start: 23 * 60, End: 2 * 60}}, lateNight.TimeWindows)
	assert.Equal(t, []string{"Mohammed Ali Road"}, lateNight.LocationTags)

	peak := findItem(t, kb, "Peak hours")
	assert.Equal(t, Transport, peak.Category)
	assert.Equal(t, []TimeWindow{{Start: 8 * 60, End: 11 * 60}, {Start: 18 * 60, End: 21 * 60}}, peak.TimeWindows)

	auto := findItem(t, kb, "An auto ride")
	assert.Equal(t, []time.Duration{15 * time.Minute}, auto.Durations)
	assert.Equal(t, []string{"Dadar"}, auto.LocationTags)
	assert.True(t, auto.IsTravelFigure())

	rain := findItem(t, kb, "Heavy rain")
	assert.Equal(t, Weather, rain.Category)
	require.NotNil(t, rain.Months, "month window inherited from the heading")
	assert.Equal(t, MonthWindow{From: time.June, To: time.September}, *rain.Months)

	ganesh := findItem(t, kb, "Ganesh Chaturthi")
	assert.Equal(t, Festivals, ganesh.Category)
	assert.Equal(t, MonthWindow{From: time.August, To: time.September}, *ganesh.Months)

	winter := findItem(t, kb, "Pleasant 15-30")
	assert.Nil(t, winter.PriceRange, "temperatures are not prices")

	logic := findItem(t, kb, "After 7 PM roads")
	assert.Equal(t, Timing, logic.Category, "quotes are stripped and logic patterns are timing facts")

	dont := findItem(t, kb, "Don't touch")
	assert.Equal(t, Culture, dont.Category)
	assert.Equal(t, "Cultural Do's and Don'ts > Don'ts", dont.SourceLocator)
}

func TestBuildIndex(t *testing.T) {
	kb := buildSample(t)
	morning := findItem(t, kb, "Morning (6-10 AM)")

	assert.Equal(t, []int{morning.ID}, kb.Postings("breakfast"))
	assert.True(t, kb.Contains("dadar"))
	assert.False(t, kb.Contains("paris"))
	assert.False(t, kb.Contains("the"), "stopwords are not indexed")

	for token, ids := range kb.index {
		assert.IsIncreasing(t, ids, "postings for %q", token)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	text := loadSample(t)
	first, err := Build(text)
	require.NoError(t, err)
	second, err := Build(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, Fingerprint(text), first.Fingerprint())
}

func TestBuildParseErrors(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		wantSection string
	}{
		{
			name:        "empty document",
			doc:         "",
			wantSection: "City Information",
		},
		{
			name:        "no city section",
			doc:         "# Guide\n\n## Transport\n- Trains run all day\n",
			wantSection: "City Information",
		},
		{
			name:        "city section without a name",
			doc:         "## City Information\n- **Region:** Somewhere\n\n## Transport\n- Trains run all day\n",
			wantSection: "City Information",
		},
		{
			name:        "no fact category",
			doc:         "## City Information\n- **City Name:** Pune\n\n## Miscellany\n- Nothing to see\n",
			wantSection: "fact categories",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb, err := Build(tt.doc)
			require.Error(t, err)
			assert.Nil(t, kb)

			pe, ok := apperrors.AsParseError(err)
			require.True(t, ok, "expected a ParseError, got %v", err)
			assert.Equal(t, tt.wantSection, pe.Section)
		})
	}
}

func TestBuildMinimalDocument(t *testing.T) {
	doc := "## City Information\n- **City Name:** Pune\n\n## Transport\n- Buses run 6-11 PM\n"
	kb, err := Build(doc)
	require.NoError(t, err)

	assert.Equal(t, "Pune", kb.City().Name)
	assert.Equal(t, []Category{Transport}, kb.Categories())
	bus := findItem(t, kb, "Buses")
	assert.Equal(t, "Transport", bus.SourceLocator)
	assert.Equal(t, []TimeWindow{{Start: 18 * 60, End: 23 * 60}}, bus.TimeWindows)
}

func TestBuildCache(t *testing.T) {
	cache, err := NewBuildCache(2)
	require.NoError(t, err)
	text := loadSample(t)

	first, hit, err := cache.Build(text)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := cache.Build(text)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)

	_, _, err = cache.Build("## Nothing here\n")
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len(), "failed builds are not cached")
}
