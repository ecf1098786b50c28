package reasoning

import (
	"strings"
	"time"

	"local-guide/knowledge"
	"local-guide/retrieval"
)

// Period names the part of the day a query falls in.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
	Night     Period = "night"
	Unknown   Period = "unknown"
)

var (
	// Used when the document declares no peak hours of its own.
	defaultPeakWindows = []knowledge.TimeWindow{
		{Start: 8 * 60, End: 11 * 60},
		{Start: 18 * 60, End: 21 * 60},
	}
	lateNightWindow = knowledge.TimeWindow{Start: 22 * 60, End: 5 * 60}
)

// TimeContext is what the clock and calendar imply for a query.
type TimeContext struct {
	HasClock   bool                  `json:"has_clock"`
	HasDate    bool                  `json:"has_date"`
	Minute     int                   `json:"minute"`
	Month      time.Month            `json:"month,omitempty"`
	Period     Period                `json:"period"`
	Peak       bool                  `json:"peak"`
	PeakWindow *knowledge.TimeWindow `json:"peak_window,omitempty"`
	LateNight  bool                  `json:"late_night"`
	Festivals  []string              `json:"festivals,omitempty"`
	Monsoon    bool                  `json:"monsoon"`
}

// Clock renders the query time as HH:MM.
func (tc TimeContext) Clock() string {
	return knowledge.ClockString(tc.Minute)
}

// NewTimeContext derives peak, late night, festival and monsoon flags.
// Peak windows, festivals and the monsoon season come from kb.
func NewTimeContext(q retrieval.Query, kb *knowledge.KnowledgeBase) TimeContext {
	tc := TimeContext{HasClock: q.HasClock, HasDate: q.HasDate, Minute: q.MinuteOfDay(), Period: Unknown}

	if q.HasClock {
		tc.Period = periodOf(tc.Minute)
		for _, w := range peakWindows(kb) {
			if w.Contains(tc.Minute) {
				w := w
				tc.Peak = true
				tc.PeakWindow = &w
				break
			}
		}
		tc.LateNight = lateNightWindow.Contains(tc.Minute)
	}

	if q.HasDate && kb != nil {
		tc.Month = q.At.Month()
		for _, item := range kb.ItemsIn(knowledge.Festivals) {
			if item.Months != nil && item.Months.Contains(tc.Month) {
				tc.Festivals = append(tc.Festivals, festivalName(item))
			}
		}
		for _, item := range kb.ItemsIn(knowledge.Weather) {
			if item.Months != nil && item.Months.Contains(tc.Month) && mentionsMonsoon(item) {
				tc.Monsoon = true
				break
			}
		}
	}
	return tc
}

func periodOf(minute int) Period {
	switch hour := minute / 60; {
	case hour >= 6 && hour < 10:
		return Morning
	case hour >= 10 && hour < 15:
		return Afternoon
	case hour >= 15 && hour < 20:
		return Evening
	default:
		return Night
	}
}

func peakWindows(kb *knowledge.KnowledgeBase) []knowledge.TimeWindow {
	if kb == nil {
		return defaultPeakWindows
	}
	var windows []knowledge.TimeWindow
	for _, item := range kb.ItemsIn(knowledge.Transport) {
		if strings.Contains(strings.ToLower(item.Text), "peak") {
			windows = append(windows, item.TimeWindows...)
		}
	}
	if len(windows) == 0 {
		return defaultPeakWindows
	}
	return windows
}

func festivalName(item knowledge.ContextItem) string {
	name := item.Label
	if name == "" {
		name = item.Text
	}
	if i := strings.Index(name, " ("); i > 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func mentionsMonsoon(item knowledge.ContextItem) bool {
	return strings.Contains(strings.ToLower(item.SourceLocator), "monsoon") ||
		strings.Contains(strings.ToLower(item.Text), "monsoon")
}
