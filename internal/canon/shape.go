package canon

import "errors"

// ErrShapeUnrecognized is returned by Detect when a document matches no known producer generation.
var ErrShapeUnrecognized = errors.New("shape unrecognized")

// Field names one canonical leaf (or sequence) resolved through a fallback Chain.
type Field int

const (
	FieldDate Field = iota
	FieldTime
	FieldLocation
	FieldTimeOfDay
	FieldGreeting
	FieldLocalHour
	FieldUpdatedAt

	FieldTempC
	FieldFeelsLikeC
	FieldCondition
	FieldTonightSummary
	FieldTonightRain
	FieldTonightWind
	FieldTomorrowMin
	FieldTomorrowMax
	FieldTomorrowSummary
	FieldAirQualityLevel
	FieldAirQualityIndex

	FieldSteps
	FieldDistanceKm
	FieldCalories
	FieldActiveMinutes
	FieldHeartRate
	FieldSleepMinutes
	FieldSleepStart
	FieldSleepEnd
	FieldSleepText
	FieldSleepQuality
	FieldSleepNotes

	FieldEvents
	FieldNews
	FieldDownloads
)

// Rules is the per-shape field resolution table. A missing entry resolves to no value.
type Rules map[Field]Chain

// Shape is one known generation of the producer's output schema.
type Shape struct {
	Name   string
	Detect func(doc map[string]any) bool
	Rules  Rules
}

// ShapeDefault names the result of canonicalizing a document no shape recognised.
const ShapeDefault = "default"

// Shapes returns the detectors in evaluation order. New generations are added as new
// variants; existing tables are not edited.
func Shapes() []Shape {
	return []Shape{canonicalShape, nestedV3Shape, nestedV3PartialShape, nestedV2Shape, flatV1Shape, minimalShape}
}

// Detect returns the first shape whose detector matches doc.
func Detect(doc any) (Shape, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return Shape{}, ErrShapeUnrecognized
	}
	for _, s := range Shapes() {
		if s.Detect(m) {
			return s, nil
		}
	}
	return Shape{}, ErrShapeUnrecognized
}

// canonicalShape is the output of this package fed back in. Producers also send meta and
// health.steps objects, so detection requires keys only a marshalled Brief carries.
var canonicalShape = Shape{
	Name: "canonical",
	Detect: func(doc map[string]any) bool {
		return hasString(doc, "meta.label") && hasString(doc, "meta.timeOfDay") && hasString(doc, "meta.greeting") &&
			hasKey(doc, "weather.tonight.rainChancePercent") &&
			hasKey(doc, "weather.airQuality.index") &&
			hasKey(doc, "health.steps.count") &&
			hasKey(doc, "health.heartRateBpm") &&
			hasArray(doc, "downloads")
	},
	Rules: Rules{
		FieldDate:      C("meta.date"),
		FieldTime:      C("meta.time"),
		FieldLocation:  C("meta.location"),
		FieldTimeOfDay: C("meta.timeOfDay"),
		FieldGreeting:  C("meta.greeting"),
		FieldUpdatedAt: C("meta.updatedAt"),

		FieldTempC:           C("weather.tempC"),
		FieldFeelsLikeC:      C("weather.feelsLikeC"),
		FieldCondition:       C("weather.condition"),
		FieldTonightSummary:  C("weather.tonight.summary"),
		FieldTonightRain:     C("weather.tonight.rainChancePercent"),
		FieldTonightWind:     C("weather.tonight.windMph"),
		FieldTomorrowMin:     C("weather.tomorrow.minC"),
		FieldTomorrowMax:     C("weather.tomorrow.maxC"),
		FieldTomorrowSummary: C("weather.tomorrow.summary"),
		FieldAirQualityLevel: C("weather.airQuality.level"),
		FieldAirQualityIndex: C("weather.airQuality.index"),

		FieldSteps:         C("health.steps.count"),
		FieldDistanceKm:    C("health.steps.distanceKm"),
		FieldCalories:      C("health.steps.calories"),
		FieldActiveMinutes: C("health.steps.activeMinutes"),
		FieldHeartRate:     C("health.heartRateBpm"),
		FieldSleepMinutes:  C("health.sleep.durationMinutes"),
		FieldSleepStart:    C("health.sleep.startLocal"),
		FieldSleepEnd:      C("health.sleep.endLocal"),
		FieldSleepQuality:  C("health.sleep.quality"),
		FieldSleepNotes:    C("health.sleep.notes"),

		FieldEvents:    C("events"),
		FieldNews:      C("news"),
		FieldDownloads: C("downloads"),
	},
}

// nestedV3Shape is the generation that nests tonight's forecast and reports sleep as an
// explicit minute count.
var nestedV3Shape = Shape{
	Name: "nested-v3",
	Detect: func(doc map[string]any) bool {
		return hasObject(doc, "weather.tonight") &&
			hasAny(doc, "health.sleep.durationMinutes", "sleep.durationMinutes")
	},
	Rules: Rules{
		FieldDate:      C("meta.date", "date", "updatedAt", "updated_at"),
		FieldTime:      C("meta.time", "time", "localTime"),
		FieldLocation:  C("meta.location", "location", "city", "weather.location"),
		FieldTimeOfDay: C("meta.timeOfDay", "meta.briefType", "briefType", "brief_type", "timeOfDay"),
		FieldGreeting:  C("meta.greeting", "greeting"),
		FieldLocalHour: C("meta.localHour", "localHour", "local_hour"),
		FieldUpdatedAt: C("meta.updatedAt", "updatedAt", "updated_at", "generatedAt"),

		FieldTempC:           C("weather.tempC", "weather.temp_c", "weather.temperature"),
		FieldFeelsLikeC:      C("weather.feelsLikeC", "weather.feelsLike", "weather.feels_like_c"),
		FieldCondition:       C("weather.condition", "weather.summary"),
		FieldTonightSummary:  C("weather.tonight.summary"),
		FieldTonightRain:     C("weather.tonight.rainChancePercent", "weather.tonight.chance_of_rain_percent", "weather.tonight.rain_percent"),
		FieldTonightWind:     C("weather.tonight.windMph", "weather.tonight.wind_mph"),
		FieldTomorrowMin:     C("weather.tomorrow.minC", "weather.tomorrow.min_c", "weather.tomorrow.low"),
		FieldTomorrowMax:     C("weather.tomorrow.maxC", "weather.tomorrow.max_c", "weather.tomorrow.high"),
		FieldTomorrowSummary: C("weather.tomorrow.summary", "weather.tomorrow.condition"),
		FieldAirQualityLevel: C("weather.airQuality.level", "weather.air_quality.level", "weather.aqi.level"),
		FieldAirQualityIndex: C("weather.airQuality.index", "weather.air_quality.index", "weather.aqi.index", "weather.aqi"),

		FieldSteps:         C("health.steps.count", "health.steps", "steps.count", "steps"),
		FieldDistanceKm:    C("health.steps.distanceKm", "health.steps.distance_km", "health.distanceKm", "health.distance"),
		FieldCalories:      C("health.steps.calories", "health.activeCalories", "health.calories"),
		FieldActiveMinutes: C("health.steps.activeMinutes", "health.activeMinutes", "health.active_minutes"),
		FieldHeartRate:     C("health.heartRateBpm", "health.heartRate", "health.heart_rate_bpm", "health.restingHeartRate"),
		FieldSleepMinutes:  C("health.sleep.durationMinutes", "sleep.durationMinutes"),
		FieldSleepStart:    C("health.sleep.startLocal", "health.sleep.start", "sleep.startLocal", "sleep.start"),
		FieldSleepEnd:      C("health.sleep.endLocal", "health.sleep.end", "sleep.endLocal", "sleep.end"),
		FieldSleepText:     C("health.sleep.duration", "sleep.duration"),
		FieldSleepQuality:  C("health.sleep.quality", "sleep.quality"),
		FieldSleepNotes:    C("health.sleep.notes", "health.sleep.note", "sleep.notes"),

		FieldEvents:    C("events", "calendar.events", "calendarEvents"),
		FieldNews:      C("news", "headlines"),
		FieldDownloads: C("downloads", "magazines", "magazine"),
	},
}

// nestedV3PartialShape is a nested-v3 payload sent without tonight's forecast: steps as an
// object or sleep as an explicit minute count. Its chains fall back to the nested-v2 keys.
var nestedV3PartialShape = Shape{
	Name: "nested-v3-partial",
	Detect: func(doc map[string]any) bool {
		return hasObject(doc, "health.steps") ||
			hasAny(doc, "health.sleep.durationMinutes", "sleep.durationMinutes")
	},
	Rules: mergeRules(nestedV3Shape.Rules, nestedV2Shape.Rules),
}

// mergeRules builds a table whose chains try primary's paths before fallback's.
func mergeRules(primary, fallback Rules) Rules {
	out := make(Rules, len(primary)+len(fallback))
	for f, c := range primary {
		out[f] = append(Chain(nil), c...)
	}
	for f, c := range fallback {
		for _, p := range c {
			if !out[f].has(p) {
				out[f] = append(out[f], p)
			}
		}
	}
	return out
}

// nestedV2Shape is the generation with weather/health objects that still mixed in
// flat keys for tonight's forecast and sleep.
var nestedV2Shape = Shape{
	Name: "nested-v2",
	Detect: func(doc map[string]any) bool {
		return hasObject(doc, "weather") || hasObject(doc, "health")
	},
	Rules: Rules{
		FieldDate:      C("date", "updatedAt"),
		FieldTime:      C("time"),
		FieldLocation:  C("location", "city"),
		FieldTimeOfDay: C("briefType", "timeOfDay"),
		FieldGreeting:  C("greeting"),
		FieldLocalHour: C("localHour", "hour"),
		FieldUpdatedAt: C("updatedAt"),

		FieldTempC:           C("weather.tempC", "current_temperature_c", "tempC"),
		FieldFeelsLikeC:      C("weather.feelsLike", "feels_like_c", "weather.feelsLikeC"),
		FieldCondition:       C("weather.condition", "tonight_summary", "condition"),
		FieldTonightSummary:  C("tonight_summary", "weather.tonight.summary", "tonight_conditions.summary"),
		FieldTonightRain:     C("tonight_rain_percent", "weather.tonight.chance_of_rain_percent", "tonight_conditions.chance_of_rain_percent"),
		FieldTonightWind:     C("tonight_wind_mph", "weather.tonight.wind_mph", "tonight_conditions.wind_mph"),
		FieldTomorrowMin:     C("weather.tomorrow.min_c", "tomorrow_min_c"),
		FieldTomorrowMax:     C("weather.tomorrow.max_c", "tomorrow_max_c"),
		FieldTomorrowSummary: C("weather.tomorrow.summary", "tomorrow_summary"),
		FieldAirQualityLevel: C("weather.air_quality.level", "air_quality_level"),
		FieldAirQualityIndex: C("weather.air_quality.index", "air_quality_index", "aqi"),

		FieldSteps:         C("health.steps", "steps_today", "stepsToday", "steps"),
		FieldDistanceKm:    C("health.distance", "distance", "distance_km"),
		FieldCalories:      C("health.activeCalories", "calories"),
		FieldActiveMinutes: C("health.activeMinutes", "active_minutes"),
		FieldHeartRate:     C("health.heartRate", "heart_rate"),
		FieldSleepMinutes:  C("health.sleepMinutes", "sleep_minutes"),
		FieldSleepStart:    C("health.sleepStart", "sleep_start"),
		FieldSleepEnd:      C("health.sleepEnd", "sleep_end"),
		FieldSleepText:     C("health.sleep", "sleepDuration", "sleep"),
		FieldSleepQuality:  C("health.sleepQuality", "sleepQuality"),
		FieldSleepNotes:    C("health.sleepNote", "sleepNote"),

		FieldEvents:    C("events", "calendarEvents"),
		FieldNews:      C("news"),
		FieldDownloads: C("magazine", "magazines", "downloads"),
	},
}

// flatV1Shape is the oldest, fully flattened generation.
var flatV1Shape = Shape{
	Name: "flat-v1",
	Detect: func(doc map[string]any) bool {
		return hasAny(doc, "current_temperature_c", "steps_today", "stepsToday", "tonight_summary", "sleepDuration", "feels_like_c")
	},
	Rules: Rules{
		FieldDate:      C("date", "updatedAt"),
		FieldTime:      C("time"),
		FieldLocation:  C("location", "city", "coords"),
		FieldTimeOfDay: C("brief_type"),
		FieldGreeting:  C("greeting"),
		FieldLocalHour: C("local_hour", "hour"),
		FieldUpdatedAt: C("updated_at", "updatedAt"),

		FieldTempC:           C("current_temperature_c", "tempC", "temperature_c"),
		FieldFeelsLikeC:      C("feels_like_c"),
		FieldCondition:       C("condition", "current_condition", "tonight_summary"),
		FieldTonightSummary:  C("tonight_summary"),
		FieldTonightRain:     C("tonight_rain_percent", "chance_of_rain_percent"),
		FieldTonightWind:     C("tonight_wind_mph", "wind_mph"),
		FieldTomorrowMin:     C("tomorrow_min_c"),
		FieldTomorrowMax:     C("tomorrow_max_c"),
		FieldTomorrowSummary: C("tomorrow_summary"),
		FieldAirQualityLevel: C("air_quality_level", "aqi_level"),
		FieldAirQualityIndex: C("air_quality_index", "aqi"),

		FieldSteps:         C("steps_today", "stepsToday", "steps"),
		FieldDistanceKm:    C("distance_km", "distance"),
		FieldCalories:      C("calories", "active_calories"),
		FieldActiveMinutes: C("active_minutes"),
		FieldHeartRate:     C("heart_rate_bpm", "heart_rate", "resting_heart_rate"),
		FieldSleepMinutes:  C("sleep_minutes"),
		FieldSleepStart:    C("sleep_start"),
		FieldSleepEnd:      C("sleep_end"),
		FieldSleepText:     C("sleepDuration", "sleep_duration", "sleep"),
		FieldSleepQuality:  C("sleepQuality", "sleep_quality"),
		FieldSleepNotes:    C("sleepNote", "sleep_note"),

		FieldEvents:    C("events", "calendarEvents", "calendar_events"),
		FieldNews:      C("news", "headlines"),
		FieldDownloads: C("downloads", "magazines"),
	},
}

// minimalShape covers hand-written payloads carrying only a few top-level keys.
var minimalShape = Shape{
	Name: "minimal",
	Detect: func(doc map[string]any) bool {
		return hasAny(doc, "location", "city", "date", "updatedAt", "events", "calendarEvents",
			"news", "magazines", "downloads", "steps", "sleep", "tempC")
	},
	Rules: Rules{
		FieldDate:      C("date", "updatedAt"),
		FieldTime:      C("time"),
		FieldLocation:  C("location", "city"),
		FieldTimeOfDay: C("timeOfDay", "briefType"),
		FieldGreeting:  C("greeting"),
		FieldLocalHour: C("localHour", "hour"),
		FieldUpdatedAt: C("updatedAt"),

		FieldTempC:     C("tempC"),
		FieldCondition: C("condition"),

		FieldSteps:     C("steps"),
		FieldSleepText: C("sleep"),

		FieldEvents:    C("events", "calendarEvents"),
		FieldNews:      C("news"),
		FieldDownloads: C("magazine", "magazines", "downloads"),
	},
}
