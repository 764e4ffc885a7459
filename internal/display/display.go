// Package display turns a canonical brief into the strings a dashboard shows.
package display

import (
	"strings"
	"time"

	"github.com/kjstillabower/status-brief-service/internal/format"
	"github.com/kjstillabower/status-brief-service/internal/models"
)

// MaxItems caps each list panel.
const MaxItems = 6

const sep = " • "

// Line is one row of a list panel.
type Line struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status string `json:"status,omitempty"`
}

// View is the display-string rendering of a brief. Every field holds display text;
// missing values are shown as format.Placeholder.
type View struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Label    string `json:"label"`
	Updated  string `json:"updated"`

	WeatherMain     string `json:"weatherMain"`
	WeatherFeels    string `json:"weatherFeels"`
	WeatherTonight  string `json:"weatherTonight"`
	WeatherWind     string `json:"weatherWind"`
	WeatherTomorrow string `json:"weatherTomorrow"`
	AirQuality      string `json:"airQuality"`

	SleepMain    string `json:"sleepMain"`
	SleepBadge   string `json:"sleepBadge"`
	SleepQuality string `json:"sleepQuality"`
	SleepNote    string `json:"sleepNote"`

	StepsMain     string `json:"stepsMain"`
	StepsDistance string `json:"stepsDistance"`
	StepsCalories string `json:"stepsCalories"`
	ActiveMinutes string `json:"activeMinutes"`
	HeartRate     string `json:"heartRate"`

	Events    []Line `json:"events"`
	News      []Line `json:"news"`
	Downloads []Line `json:"downloads"`
}

// Build renders b. now is only used for the relative update age.
func Build(b models.Brief, now time.Time) View {
	sleep := b.Health.Sleep
	badge := "No data"
	if sleep.DurationMinutes.Valid {
		badge = "Last night"
	}

	return View{
		Title:    b.Meta.Greeting,
		Subtitle: join(format.Text(b.Meta.Date), textOrEmpty(b.Meta.Location)),
		Label:    b.Meta.Label,
		Updated:  updated(b.Meta.UpdatedAt, now),

		WeatherMain:     weatherMain(b.Weather),
		WeatherFeels:    format.Temperature(b.Weather.FeelsLikeC),
		WeatherTonight:  tonight(b.Weather.Tonight),
		WeatherWind:     format.SpeedMph(b.Weather.Tonight.WindMph),
		WeatherTomorrow: tomorrow(b.Weather.Tomorrow),
		AirQuality:      airQuality(b.Weather.AirQuality),

		SleepMain:    format.DurationHM(sleep.DurationMinutes),
		SleepBadge:   badge,
		SleepQuality: format.Text(sleep.Quality),
		SleepNote:    textOrEmpty(sleep.Notes),

		StepsMain:     format.Count(b.Health.Steps.Count),
		StepsDistance: format.DistanceKm(b.Health.Steps.DistanceKm),
		StepsCalories: calories(b.Health.Steps.Calories),
		ActiveMinutes: format.DurationHM(b.Health.Steps.ActiveMinutes),
		HeartRate:     heartRate(b.Health.HeartRateBpm),

		Events:    eventLines(b.Events),
		News:      newsLines(b.News),
		Downloads: downloadLines(b.Downloads),
	}
}

func weatherMain(w models.Weather) string {
	if !w.TempC.Valid {
		return format.Text(w.Condition)
	}
	return join(format.Temperature(w.TempC), textOrEmpty(w.Condition))
}

func tonight(t models.Tonight) string {
	if !t.Summary.Valid {
		return format.Placeholder
	}
	if !t.RainChancePercent.Valid {
		return t.Summary.Value
	}
	return join(t.Summary.Value, format.Percentage(t.RainChancePercent))
}

// tomorrow renders "2°C – 8°C • Bright".
func tomorrow(t models.Tomorrow) string {
	var rng string
	if t.MinC.Valid || t.MaxC.Valid {
		rng = format.Temperature(t.MinC) + " – " + format.Temperature(t.MaxC)
	}
	if s := join(rng, textOrEmpty(t.Summary)); s != "" {
		return s
	}
	return format.Placeholder
}

func airQuality(a models.AirQuality) string {
	var idx string
	if a.Index.Valid {
		idx = "AQI " + format.Count(a.Index)
	}
	if s := join(textOrEmpty(a.Level), idx); s != "" {
		return s
	}
	return format.Placeholder
}

func calories(n models.Number) string {
	if !n.Valid {
		return format.Placeholder
	}
	return format.Count(n) + " kcal"
}

func heartRate(n models.Number) string {
	if !n.Valid {
		return format.Placeholder
	}
	return format.Count(n) + " bpm"
}

func updated(t models.Text, now time.Time) string {
	if !t.Valid {
		return format.Placeholder
	}
	if ts, ok := format.ParseTimestamp(t.Value); ok {
		return format.Ago(ts, now)
	}
	return t.Value
}

func eventLines(evs []models.Event) []Line {
	out := make([]Line, 0, min(len(evs), MaxItems))
	for _, ev := range evs[:min(len(evs), MaxItems)] {
		detail := join(eventTime(ev.Time), textOrEmpty(ev.Location))
		if detail == "" {
			detail = format.Placeholder
		}
		out = append(out, Line{Title: ev.Title, Detail: detail})
	}
	return out
}

// eventTime shortens full timestamps to their wall-clock part.
func eventTime(t models.Text) string {
	if !t.Valid {
		return ""
	}
	if ts, ok := format.ParseTimestamp(t.Value); ok {
		return ts.Format("15:04")
	}
	return t.Value
}

func newsLines(items []models.NewsItem) []Line {
	out := make([]Line, 0, min(len(items), MaxItems))
	for _, n := range items[:min(len(items), MaxItems)] {
		out = append(out, Line{Title: format.Text(n.Title), Detail: textOrEmpty(n.Source)})
	}
	return out
}

func downloadLines(items []models.Download) []Line {
	out := make([]Line, 0, min(len(items), MaxItems))
	for _, d := range items[:min(len(items), MaxItems)] {
		out = append(out, Line{Title: d.Title, Detail: textOrEmpty(d.Date), Status: d.Status})
	}
	return out
}

func textOrEmpty(t models.Text) string {
	if !t.Valid {
		return ""
	}
	return strings.TrimSpace(t.Value)
}

// join concatenates the non-empty parts with the bullet separator.
func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
