package canon

import "strings"

// Period is the time-of-day bucket that selects the greeting and theme of a brief.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
	Night     Period = "night"
)

// PeriodForHour maps a local hour: [5,12) morning, [12,17) afternoon, [17,22) evening,
// anything else night.
func PeriodForHour(hour int) Period {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 22:
		return Evening
	default:
		return Night
	}
}

// ParsePeriod accepts a period name in any case.
func ParsePeriod(s string) (Period, bool) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Morning, Afternoon, Evening, Night:
		return p, true
	}
	return "", false
}

func (p Period) Greeting() string {
	switch p {
	case Morning:
		return "Good morning"
	case Afternoon:
		return "Good afternoon"
	case Evening:
		return "Good evening"
	default:
		return "Good night"
	}
}

func (p Period) Label() string {
	switch p {
	case Morning:
		return "Morning brief"
	case Afternoon:
		return "Afternoon brief"
	case Evening:
		return "Evening brief"
	default:
		return "Night brief"
	}
}
