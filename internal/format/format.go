// Package format holds total, side-effect free conversions from raw scalar values to
// canonical numbers and display strings. Nothing here reads a clock or locale; callers
// pass any reference time explicitly.
package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kjstillabower/status-brief-service/internal/models"
)

// Placeholder is rendered wherever a value is absent or unusable.
const Placeholder = "—"

// CoerceNumber converts v to a finite number. Strings are stripped of every character
// other than digits, '.' and a leading '-' before parsing ("12°C" -> 12, "1,234" -> 1234).
// Anything else (nil, bools, objects, arrays, NaN, ±Inf) yields the no-value marker.
func CoerceNumber(v any) models.Number {
	switch x := v.(type) {
	case float64:
		return models.NumberOf(x)
	case float32:
		return models.NumberOf(float64(x))
	case int:
		return models.NumberOf(float64(x))
	case int64:
		return models.NumberOf(float64(x))
	case int32:
		return models.NumberOf(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return CoerceNumber(x.String())
		}
		return models.NumberOf(f)
	case string:
		return parseStripped(x)
	}
	return models.Number{}
}

func parseStripped(s string) models.Number {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return models.Number{}
	}
	return models.NumberOf(f)
}

// Temperature renders n as a rounded Celsius value ("12°C").
func Temperature(n models.Number) string {
	if !n.Valid {
		return Placeholder
	}
	return fmt.Sprintf("%d°C", round(n.Value))
}

// Percentage renders n as a rounded percentage ("40%").
func Percentage(n models.Number) string {
	if !n.Valid {
		return Placeholder
	}
	return fmt.Sprintf("%d%%", round(n.Value))
}

// SpeedMph renders n as a rounded wind speed ("12 mph").
func SpeedMph(n models.Number) string {
	if !n.Valid {
		return Placeholder
	}
	return fmt.Sprintf("%d mph", round(n.Value))
}

// DistanceKm uses two decimals below one kilometre and one decimal at or above it.
func DistanceKm(n models.Number) string {
	if !n.Valid || n.Value < 0 {
		return Placeholder
	}
	if n.Value < 1 {
		return fmt.Sprintf("%.2f km", n.Value)
	}
	return fmt.Sprintf("%.1f km", n.Value)
}

// DurationHM renders a minute count as "7h 05m", or "45m" when under an hour.
// Negative durations are never displayed.
func DurationHM(minutes models.Number) string {
	if !minutes.Valid || minutes.Value < 0 {
		return Placeholder
	}
	m := round(minutes.Value)
	h, r := m/60, m%60
	if h == 0 {
		return fmt.Sprintf("%dm", r)
	}
	return fmt.Sprintf("%dh %02dm", h, r)
}

// Count renders n as a whole number with thousands separators ("12,345").
func Count(n models.Number) string {
	if !n.Valid {
		return Placeholder
	}
	return humanize.Comma(int64(round(n.Value)))
}

// Ago renders t relative to now ("3 hours ago").
func Ago(t, now time.Time) string {
	if t.IsZero() || now.IsZero() {
		return Placeholder
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Text returns the value of t or the placeholder.
func Text(t models.Text) string {
	if !t.Valid || strings.TrimSpace(t.Value) == "" {
		return Placeholder
	}
	return t.Value
}

func round(v float64) int {
	return int(math.Round(v))
}
