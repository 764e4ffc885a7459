// Package canon maps decoded brief documents of any known producer generation onto one
// fully populated models.Brief.
//
// A document is matched against an ordered, closed set of Shapes. Each shape owns a
// table of fallback Chains, one per canonical field; the first present value along a
// chain wins. Derived values (sleep duration, step estimates, greeting) are computed by
// shared rules. Canonicalize never fails: unrecognised input yields DefaultBrief, and the
// canonical JSON of a brief is itself recognised, so canonicalization is idempotent for a
// fixed clock.
package canon

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/status-brief-service/internal/format"
	"github.com/kjstillabower/status-brief-service/internal/models"
)

const (
	kmPerStep       = 0.00075
	caloriesPerStep = 0.04
	clockLayout     = "15:04"
)

// Canonicalize maps doc onto a Brief using now for any clock-derived fields.
func Canonicalize(doc any, now time.Time) models.Brief {
	b, _ := CanonicalizeShape(doc, now)
	return b
}

// CanonicalizeShape is Canonicalize that also reports the matched shape name, or
// ShapeDefault when no shape matched.
func CanonicalizeShape(doc any, now time.Time) (models.Brief, string) {
	shape, err := Detect(doc)
	if err != nil {
		return DefaultBrief(now), ShapeDefault
	}
	return project(doc, shape.Rules, now), shape.Name
}

// DefaultBrief is the demo brief rendered when there is no usable input: meta derived
// from now, every other leaf no value, and empty sequences.
func DefaultBrief(now time.Time) models.Brief {
	period := PeriodForHour(now.Hour())
	return models.Brief{
		Meta: models.Meta{
			Date:      models.TextOf(format.DateLabelOf(now)),
			Time:      models.TextOf(now.Format(clockLayout)),
			TimeOfDay: string(period),
			Greeting:  period.Greeting(),
			Label:     period.Label(),
		},
		Events:    []models.Event{},
		News:      []models.NewsItem{},
		Downloads: []models.Download{},
	}
}

func project(doc any, r Rules, now time.Time) models.Brief {
	steps := number(doc, r, FieldSteps)
	distance := number(doc, r, FieldDistanceKm)
	calories := number(doc, r, FieldCalories)
	if steps.Valid && steps.Value >= 0 {
		if !distance.Valid {
			distance = models.NumberOf(steps.Value * kmPerStep)
		}
		if !calories.Valid {
			calories = models.NumberOf(math.Round(steps.Value * caloriesPerStep))
		}
	}

	return models.Brief{
		Meta: meta(doc, r, now),
		Weather: models.Weather{
			TempC:      number(doc, r, FieldTempC),
			FeelsLikeC: number(doc, r, FieldFeelsLikeC),
			Condition:  text(doc, r, FieldCondition),
			Tonight: models.Tonight{
				Summary:           text(doc, r, FieldTonightSummary),
				RainChancePercent: number(doc, r, FieldTonightRain),
				WindMph:           number(doc, r, FieldTonightWind),
			},
			Tomorrow: models.Tomorrow{
				MinC:    number(doc, r, FieldTomorrowMin),
				MaxC:    number(doc, r, FieldTomorrowMax),
				Summary: text(doc, r, FieldTomorrowSummary),
			},
			AirQuality: models.AirQuality{
				Level: text(doc, r, FieldAirQualityLevel),
				Index: number(doc, r, FieldAirQualityIndex),
			},
		},
		Health: models.Health{
			Steps: models.Steps{
				Count:         steps,
				DistanceKm:    distance,
				Calories:      calories,
				ActiveMinutes: number(doc, r, FieldActiveMinutes),
			},
			HeartRateBpm: number(doc, r, FieldHeartRate),
			Sleep: models.Sleep{
				DurationMinutes: sleepMinutes(doc, r),
				Quality:         text(doc, r, FieldSleepQuality),
				Notes:           text(doc, r, FieldSleepNotes),
				StartLocal:      text(doc, r, FieldSleepStart),
				EndLocal:        text(doc, r, FieldSleepEnd),
			},
		},
		Events:    events(doc, r[FieldEvents]),
		News:      news(doc, r[FieldNews]),
		Downloads: downloads(doc, r[FieldDownloads]),
	}
}

// meta resolves the header. Explicit period and greeting fields always beat values
// derived from an explicit local hour, which beat the clock.
func meta(doc any, r Rules, now time.Time) models.Meta {
	period := resolvePeriod(doc, r, now)
	greeting := period.Greeting()
	if t := text(doc, r, FieldGreeting); t.Valid {
		greeting = t.Value
	}

	nowLabel := format.DateLabelOf(now)
	date := models.TextOf(nowLabel)
	if t := text(doc, r, FieldDate); t.Valid {
		date = models.TextOf(format.DateLabel(t.Value, nowLabel))
	}

	clock := text(doc, r, FieldTime).Or(models.TextOf(now.Format(clockLayout)))

	var location models.Text
	if v, ok := r[FieldLocation].Any(doc); ok {
		location = format.Location(v)
	}

	return models.Meta{
		Date:      date,
		Time:      clock,
		Location:  location,
		TimeOfDay: string(period),
		Greeting:  greeting,
		Label:     period.Label(),
		UpdatedAt: text(doc, r, FieldUpdatedAt),
	}
}

func resolvePeriod(doc any, r Rules, now time.Time) Period {
	if t := text(doc, r, FieldTimeOfDay); t.Valid {
		if p, ok := ParsePeriod(t.Value); ok {
			return p
		}
	}
	if v, ok := r[FieldLocalHour].Scalar(doc); ok {
		if h, ok := localHour(v); ok {
			return PeriodForHour(h)
		}
	}
	return PeriodForHour(now.Hour())
}

// localHour accepts 0-23 as a number or numeric string, or a "20:15" clock string.
func localHour(v any) (int, bool) {
	if s, ok := v.(string); ok {
		if t, ok := format.ParseClock(s); ok {
			return t.Hour(), true
		}
	}
	n := format.CoerceNumber(v)
	if !n.Valid || n.Value < 0 || n.Value >= 24 {
		return 0, false
	}
	return int(math.Floor(n.Value)), true
}

func number(doc any, r Rules, f Field) models.Number {
	v, ok := r[f].Scalar(doc)
	if !ok {
		return models.Number{}
	}
	return format.CoerceNumber(v)
}

func text(doc any, r Rules, f Field) models.Text {
	return scalarText(doc, r[f])
}

func scalarText(doc any, c Chain) models.Text {
	v, ok := c.Scalar(doc)
	if !ok {
		return models.Text{}
	}
	return toText(v)
}

// toText renders a scalar as trimmed text; numbers keep their shortest exact form.
func toText(v any) models.Text {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return models.Text{}
		}
		return models.TextOf(s)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return models.Text{}
		}
		return models.TextOf(strconv.FormatFloat(x, 'f', -1, 64))
	case json.Number:
		return models.TextOf(x.String())
	case bool:
		return models.TextOf(strconv.FormatBool(x))
	}
	return models.Text{}
}
