package knowledge

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay bounds the minute-of-day values held by a TimeWindow.
const MinutesPerDay = 24 * 60

// TimeWindow is a half-open [Start, End) span of minutes of the day.
// Start > End wraps past midnight.
type TimeWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether minute falls inside the window.
func (w TimeWindow) Contains(minute int) bool {
	minute = ((minute % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	switch {
	case w.Start == w.End:
		return false
	case w.Start < w.End:
		return minute >= w.Start && minute < w.End
	default:
		return minute >= w.Start || minute < w.End
	}
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s-%s", ClockString(w.Start), ClockString(w.End))
}

// ClockString renders a minute of the day as HH:MM.
func ClockString(minute int) string {
	minute = ((minute % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// MonthWindow is an inclusive span of months; From > To wraps the year end.
type MonthWindow struct {
	From time.Month `json:"from"`
	To   time.Month `json:"to"`
}

// Contains reports whether m falls inside the window.
func (w MonthWindow) Contains(m time.Month) bool {
	if w.From <= w.To {
		return m >= w.From && m <= w.To
	}
	return m >= w.From || m <= w.To
}

func (w MonthWindow) String() string {
	return fmt.Sprintf("%s-%s", w.From, w.To)
}

// PriceRange is a min..max price found in an item.
type PriceRange struct {
	Currency string `json:"currency,omitempty"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
}

var (
	clockRangePattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap]\.?m\.?)?\s*(?:-|–|\bto\b)\s*(\d{1,2})(?::(\d{2}))?\s*([ap]\.?m)\b`)
	clock24Pattern    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\s*(?:-|–|to)\s*([01]?\d|2[0-3]):([0-5]\d)\b`)
	monthRangePattern = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\s*(?:-|–|\bto\b)\s*(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`)
	pricePattern      = regexp.MustCompile(`(?i)(₹|\brs\.?|\binr)?\s*(\d+)\s*(?:-|–)\s*(?:₹|rs\.?|inr)?\s*(\d+)\b(\s*(?:[ap]\.?m\b|°|%|x\b))?`)
	durationPattern   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(minutes?|mins?|hours?|hrs?)\b`)
	capitalPhrase     = regexp.MustCompile(`\b[A-Z][\p{L}'’]*(?:[ -][A-Z][\p{L}'’]*)*`)
)

// ExtractTimeWindows finds clock ranges such as "6-10 AM", "11 PM-2 AM"
// or "06:00-10:00". A start without a meridian inherits the end's, and
// flips to the other meridian when that would put it after the end.
func ExtractTimeWindows(text string) []TimeWindow {
	var windows []TimeWindow
	var covered [][]int
	for _, idx := range clockRangePattern.FindAllStringSubmatchIndex(text, -1) {
		covered = append(covered, idx[:2])
		m := submatches(text, idx)
		startH, _ := strconv.Atoi(m[1])
		startM := atoiOr(m[2], 0)
		endH, _ := strconv.Atoi(m[4])
		endM := atoiOr(m[5], 0)
		if startH > 12 || endH > 12 || startH == 0 || endH == 0 || startM > 59 || endM > 59 {
			continue
		}
		endPM := isPM(m[6])
		end := to24(endH, endPM)*60 + endM

		var start int
		if m[3] != "" {
			start = to24(startH, isPM(m[3]))*60 + startM
		} else {
			start = to24(startH, endPM)*60 + startM
			if start > end {
				start = to24(startH, !endPM)*60 + startM
			}
		}
		windows = append(windows, TimeWindow{Start: start, End: end})
	}
	for _, idx := range clock24Pattern.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(covered, idx[0], idx[1]) {
			continue
		}
		m := submatches(text, idx)
		startH, _ := strconv.Atoi(m[1])
		startM, _ := strconv.Atoi(m[2])
		endH, _ := strconv.Atoi(m[3])
		endM, _ := strconv.Atoi(m[4])
		windows = append(windows, TimeWindow{Start: startH*60 + startM, End: endH*60 + endM})
	}
	return windows
}

func submatches(text string, idx []int) []string {
	m := make([]string, len(idx)/2)
	for i := range m {
		if idx[2*i] >= 0 {
			m[i] = text[idx[2*i]:idx[2*i+1]]
		}
	}
	return m
}

func overlaps(spans [][]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

func isPM(meridian string) bool {
	return strings.HasPrefix(strings.ToLower(meridian), "p")
}

func to24(hour int, pm bool) int {
	hour %= 12
	if pm {
		hour += 12
	}
	return hour
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

// ExtractMonthWindow finds the first month range such as "June-September".
func ExtractMonthWindow(text string) (MonthWindow, bool) {
	m := monthRangePattern.FindStringSubmatch(text)
	if m == nil {
		return MonthWindow{}, false
	}
	from, okFrom := parseMonth(m[1])
	to, okTo := parseMonth(m[2])
	if !okFrom || !okTo {
		return MonthWindow{}, false
	}
	return MonthWindow{From: from, To: to}, true
}

func parseMonth(name string) (time.Month, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), name[:3]) {
			return m, true
		}
	}
	return 0, false
}

// ExtractPriceRange finds the first price range in text. Outside the
// pricing category a currency marker is required; ranges followed by a
// meridian, a degree sign or a percent are never prices.
func ExtractPriceRange(text string, requireCurrency bool) (*PriceRange, bool) {
	for _, m := range pricePattern.FindAllStringSubmatch(text, -1) {
		if m[4] != "" {
			continue
		}
		currency := ""
		if m[1] != "" {
			currency = "INR"
		}
		if requireCurrency && currency == "" {
			continue
		}
		lo, err1 := strconv.Atoi(m[2])
		hi, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil || lo > hi {
			continue
		}
		return &PriceRange{Currency: currency, Min: lo, Max: hi}, true
	}
	return nil, false
}

// ExtractDurations finds travel figures such as "20 minutes" or "1.5 hours".
func ExtractDurations(text string) []time.Duration {
	var durations []time.Duration
	for _, m := range durationPattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		unit := time.Minute
		if strings.HasPrefix(strings.ToLower(m[2]), "h") {
			unit = time.Hour
		}
		durations = append(durations, time.Duration(value*float64(unit)))
	}
	return durations
}

// capitalPhrases returns runs of capitalised words, e.g. "Mohammed Ali Road".
func capitalPhrases(text string) []string {
	return capitalPhrase.FindAllString(text, -1)
}
