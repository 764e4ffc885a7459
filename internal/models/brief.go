package models

import "encoding/json"

// Brief is the canonical status brief handed to the presentation layer.
// Every field is always present; absent source data is carried as a no-value Number or Text.
type Brief struct {
	Meta      Meta       `json:"meta"`
	Weather   Weather    `json:"weather"`
	Health    Health     `json:"health"`
	Events    []Event    `json:"events"`
	News      []NewsItem `json:"news"`
	Downloads []Download `json:"downloads"`
}

type Meta struct {
	Date      Text   `json:"date"`
	Time      Text   `json:"time"`
	Location  Text   `json:"location"` // human string, never raw coordinates
	TimeOfDay string `json:"timeOfDay"`
	Greeting  string `json:"greeting"`
	Label     string `json:"label"`
	UpdatedAt Text   `json:"updatedAt"`
}

type Weather struct {
	TempC      Number     `json:"tempC"`
	FeelsLikeC Number     `json:"feelsLikeC"`
	Condition  Text       `json:"condition"`
	Tonight    Tonight    `json:"tonight"`
	Tomorrow   Tomorrow   `json:"tomorrow"`
	AirQuality AirQuality `json:"airQuality"`
}

type Tonight struct {
	Summary           Text   `json:"summary"`
	RainChancePercent Number `json:"rainChancePercent"`
	WindMph           Number `json:"windMph"`
}

type Tomorrow struct {
	MinC    Number `json:"minC"`
	MaxC    Number `json:"maxC"`
	Summary Text   `json:"summary"`
}

type AirQuality struct {
	Level Text   `json:"level"`
	Index Number `json:"index"`
}

type Health struct {
	Steps        Steps  `json:"steps"`
	HeartRateBpm Number `json:"heartRateBpm"`
	Sleep        Sleep  `json:"sleep"`
}

type Steps struct {
	Count         Number `json:"count"`
	DistanceKm    Number `json:"distanceKm"`
	Calories      Number `json:"calories"`
	ActiveMinutes Number `json:"activeMinutes"`
}

type Sleep struct {
	DurationMinutes Number `json:"durationMinutes"`
	Quality         Text   `json:"quality"`
	Notes           Text   `json:"notes"`
	StartLocal      Text   `json:"startLocal"`
	EndLocal        Text   `json:"endLocal"`
}

type Event struct {
	Title    string `json:"title"`
	Time     Text   `json:"time"`
	Location Text   `json:"location"`
}

type NewsItem struct {
	Title  Text `json:"title"`
	Source Text `json:"source"`
}

// Download is a magazine issue fetched by the producer alongside the brief.
type Download struct {
	Title  string `json:"title"`
	Date   Text   `json:"date"`
	Status string `json:"status"`
}

// MarshalJSON keeps the sequences as [] rather than null when empty.
func (b Brief) MarshalJSON() ([]byte, error) {
	type plain Brief
	out := plain(b)
	if out.Events == nil {
		out.Events = []Event{}
	}
	if out.News == nil {
		out.News = []NewsItem{}
	}
	if out.Downloads == nil {
		out.Downloads = []Download{}
	}
	return json.Marshal(out)
}
