package retrieval

import (
	"strings"
	"time"

	apperrors "local-guide/errors"
)

// Query is one user question plus its optional time and place context.
type Query struct {
	Text         string
	At           time.Time
	HasClock     bool // At carries a meaningful time of day
	HasDate      bool // At carries a meaningful calendar date
	LocationHint string
}

// NewQuery returns a query with no time or place context.
func NewQuery(text string) Query {
	return Query{Text: text}
}

// WithTime attaches a full timestamp.
func (q Query) WithTime(t time.Time) Query {
	q.At = t
	q.HasClock = true
	q.HasDate = true
	return q
}

// WithLocation attaches a caller supplied place hint.
func (q Query) WithLocation(hint string) Query {
	q.LocationHint = strings.TrimSpace(hint)
	return q
}

// WithTimestamp parses raw and attaches whatever it carries: a clock
// time, a date, or both. An empty string leaves the query unchanged.
func (q Query) WithTimestamp(raw string) (Query, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return q, nil
	}
	t, hasClock, hasDate, err := ParseTimestamp(raw)
	if err != nil {
		return q, err
	}
	q.At = t
	q.HasClock = hasClock
	q.HasDate = hasDate
	return q, nil
}

// MinuteOfDay returns the query's minute of the day, or -1 without a clock.
func (q Query) MinuteOfDay() int {
	if !q.HasClock {
		return -1
	}
	return q.At.Hour()*60 + q.At.Minute()
}

var (
	fullLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
	clockLayouts = []string{"15:04", "15:04:05", "3:04PM", "3:04 PM", "3PM", "3 PM"}
	dateLayouts  = []string{"2006-01-02", "02 Jan 2006", "Jan 2 2006"}
)

// ParseTimestamp accepts RFC 3339 and common date, clock and date-time
// layouts, reporting which parts were present.
func ParseTimestamp(raw string) (t time.Time, hasClock, hasDate bool, err error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range fullLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, true, nil
		}
	}
	upper := strings.ToUpper(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t, true, false, nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, false, true, nil
		}
	}
	return time.Time{}, false, false, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "unrecognised timestamp %q", raw)
}
