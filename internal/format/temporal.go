package format

import (
	"strings"
	"time"
)

// timestampLayouts are the date-time forms producers have emitted for event starts,
// sleep windows and update stamps. All carry a calendar date, so parsed values compare.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// dateLayouts extend timestampLayouts with date-only forms.
var dateLayouts = append(append([]string{}, timestampLayouts...),
	"2006-01-02",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
)

// ParseTimestamp parses s as a date-time. Values without an offset are read in UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	return parseWith(strings.TrimSpace(s), timestampLayouts)
}

// ParseClock parses a bare wall-clock time ("09:30", "9:30").
// The result carries the zero date and is only comparable with other clock values.
func ParseClock(s string) (time.Time, bool) {
	return parseWith(strings.TrimSpace(s), []string{"15:04", "15:04:05"})
}

// DateLabel renders a recognised date as "Monday, 19 Oct". Unrecognised text passes
// through unchanged and empty text yields fallback.
func DateLabel(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	t, ok := parseWith(s, dateLayouts)
	if !ok {
		return s
	}
	return DateLabelOf(t)
}

// DateLabelOf renders t as "Monday, 19 Oct".
func DateLabelOf(t time.Time) string {
	return t.Format("Monday, 02 Jan")
}

func parseWith(s string, layouts []string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
