package display

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/status-brief-service/internal/canon"
	"github.com/kjstillabower/status-brief-service/internal/format"
	"github.com/kjstillabower/status-brief-service/internal/models"
)

var now = time.Date(2025, 12, 26, 9, 15, 0, 0, time.UTC)

func sampleBrief() models.Brief {
	b := canon.DefaultBrief(now)
	b.Meta.Location = models.TextOf("Hackney")
	b.Meta.UpdatedAt = models.TextOf("2025-12-26T06:15:00Z")
	b.Weather = models.Weather{
		TempC:      models.NumberOf(11.6),
		FeelsLikeC: models.NumberOf(9.2),
		Condition:  models.TextOf("Cloudy"),
		Tonight: models.Tonight{
			Summary:           models.TextOf("Light rain"),
			RainChancePercent: models.NumberOf(40),
			WindMph:           models.NumberOf(12.4),
		},
		Tomorrow:   models.Tomorrow{MinC: models.NumberOf(2), MaxC: models.NumberOf(8), Summary: models.TextOf("Bright")},
		AirQuality: models.AirQuality{Level: models.TextOf("Good"), Index: models.NumberOf(31)},
	}
	b.Health = models.Health{
		Steps: models.Steps{
			Count:      models.NumberOf(12345),
			DistanceKm: models.NumberOf(0.75),
			Calories:   models.NumberOf(40),
		},
		HeartRateBpm: models.NumberOf(58),
		Sleep:        models.Sleep{DurationMinutes: models.NumberOf(425), Quality: models.TextOf("Restful")},
	}
	b.Events = []models.Event{
		{Title: "Standup", Time: models.TextOf("2025-12-26T09:30:00Z"), Location: models.TextOf("Zoom")},
		{Title: "Lunch", Time: models.TextOf("12:30")},
		{Title: "Call"},
	}
	b.News = []models.NewsItem{{Title: models.TextOf("Rates held"), Source: models.TextOf("BBC")}}
	b.Downloads = []models.Download{{Title: "Wired", Date: models.TextOf("Fri"), Status: "Downloaded"}}
	return b
}

// TestBuild_Populated verifies every panel of a fully populated brief.
func TestBuild_Populated(t *testing.T) {
	v := Build(sampleBrief(), now)

	require.Equal(t, "Good morning", v.Title)
	require.Equal(t, "Friday, 26 Dec • Hackney", v.Subtitle)
	require.Equal(t, "Morning brief", v.Label)
	require.Equal(t, "3 hours ago", v.Updated)

	require.Equal(t, "12°C • Cloudy", v.WeatherMain)
	require.Equal(t, "9°C", v.WeatherFeels)
	require.Equal(t, "Light rain • 40%", v.WeatherTonight)
	require.Equal(t, "12 mph", v.WeatherWind)
	require.Equal(t, "2°C – 8°C • Bright", v.WeatherTomorrow)
	require.Equal(t, "Good • AQI 31", v.AirQuality)

	require.Equal(t, "7h 05m", v.SleepMain)
	require.Equal(t, "Last night", v.SleepBadge)
	require.Equal(t, "Restful", v.SleepQuality)
	require.Equal(t, "", v.SleepNote)

	require.Equal(t, "12,345", v.StepsMain)
	require.Equal(t, "0.75 km", v.StepsDistance)
	require.Equal(t, "40 kcal", v.StepsCalories)
	require.Equal(t, format.Placeholder, v.ActiveMinutes)
	require.Equal(t, "58 bpm", v.HeartRate)

	require.Equal(t, []Line{
		{Title: "Standup", Detail: "09:30 • Zoom"},
		{Title: "Lunch", Detail: "12:30"},
		{Title: "Call", Detail: format.Placeholder},
	}, v.Events)
	require.Equal(t, []Line{{Title: "Rates held", Detail: "BBC"}}, v.News)
	require.Equal(t, []Line{{Title: "Wired", Detail: "Fri", Status: "Downloaded"}}, v.Downloads)
}

func TestBuild_DefaultBriefUsesPlaceholders(t *testing.T) {
	v := Build(canon.DefaultBrief(now), now)

	require.Equal(t, "Friday, 26 Dec", v.Subtitle)
	require.Equal(t, format.Placeholder, v.Updated)
	require.Equal(t, format.Placeholder, v.WeatherMain)
	require.Equal(t, format.Placeholder, v.WeatherTonight)
	require.Equal(t, format.Placeholder, v.WeatherTomorrow)
	require.Equal(t, format.Placeholder, v.AirQuality)
	require.Equal(t, format.Placeholder, v.SleepMain)
	require.Equal(t, "No data", v.SleepBadge)
	require.Equal(t, format.Placeholder, v.StepsMain)
	require.Equal(t, format.Placeholder, v.StepsCalories)
	require.NotNil(t, v.Events)
	require.Empty(t, v.Events)
	require.NotNil(t, v.News)
	require.NotNil(t, v.Downloads)
}

func TestBuild_Partials(t *testing.T) {
	b := canon.DefaultBrief(now)
	b.Weather.Condition = models.TextOf("Fog")
	b.Weather.Tonight.Summary = models.TextOf("Clear")
	b.Weather.Tomorrow.MaxC = models.NumberOf(4)
	b.Meta.UpdatedAt = models.TextOf("earlier today")

	v := Build(b, now)
	require.Equal(t, "Fog", v.WeatherMain)
	require.Equal(t, "Clear", v.WeatherTonight)
	require.Equal(t, "— – 4°C", v.WeatherTomorrow)
	require.Equal(t, "earlier today", v.Updated)
}

func TestBuild_CapsLists(t *testing.T) {
	b := canon.DefaultBrief(now)
	for i := 0; i < MaxItems+3; i++ {
		b.Events = append(b.Events, models.Event{Title: "e"})
		b.News = append(b.News, models.NewsItem{})
		b.Downloads = append(b.Downloads, models.Download{Title: "d", Status: "Queued"})
	}
	v := Build(b, now)
	require.Len(t, v.Events, MaxItems)
	require.Len(t, v.News, MaxItems)
	require.Equal(t, format.Placeholder, v.News[0].Title)
	require.Len(t, v.Downloads, MaxItems)
}
