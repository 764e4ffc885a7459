package canon

import (
	"math"
	"regexp"

	"github.com/kjstillabower/status-brief-service/internal/format"
	"github.com/kjstillabower/status-brief-service/internal/models"
)

var (
	hourMarker   = regexp.MustCompile(`(?i)\{?(\d+(?:\.\d+)?)\}?\s*h`)
	minuteMarker = regexp.MustCompile(`(?i)\{?(\d+(?:\.\d+)?)\}?\s*m`)
)

// The 24 and 10000 boundaries decide how a unitless sleep value is read. Values near
// them are inherently ambiguous; changing either is a behaviour change.
const (
	bareSecondsThreshold = 10000
	bareHoursCeiling     = 24
)

// sleepMinutes resolves the sleep duration: an explicit minute count, then end minus
// start, then "7h 30m" style text, then a bare number read by magnitude. The first
// finite non-negative candidate wins.
func sleepMinutes(doc any, r Rules) models.Number {
	if v, ok := r[FieldSleepMinutes].Scalar(doc); ok {
		if n := format.CoerceNumber(v); n.Valid && n.Value >= 0 {
			return wholeMinutes(n.Value)
		}
	}
	if n := sleepWindow(doc, r); n.Valid {
		return n
	}
	if v, ok := r[FieldSleepText].Scalar(doc); ok {
		return ParseSleep(v)
	}
	return models.Number{}
}

func sleepWindow(doc any, r Rules) models.Number {
	sv, ok := r[FieldSleepStart].Scalar(doc)
	if !ok {
		return models.Number{}
	}
	ev, ok := r[FieldSleepEnd].Scalar(doc)
	if !ok {
		return models.Number{}
	}
	ss, sok := sv.(string)
	es, eok := ev.(string)
	if !sok || !eok {
		return models.Number{}
	}
	start, sok := format.ParseTimestamp(ss)
	end, eok := format.ParseTimestamp(es)
	if !sok || !eok {
		return models.Number{}
	}
	d := end.Sub(start).Minutes()
	if d < 0 {
		return models.Number{}
	}
	return wholeMinutes(d)
}

// ParseSleep reads a textual or unitless sleep duration as minutes.
// "7h 30m" -> 450; 7.5 -> 450 (hours); 450 -> 450 (minutes); 27000 -> 450 (seconds).
func ParseSleep(v any) models.Number {
	s, isString := v.(string)
	if !isString {
		return bareMinutes(format.CoerceNumber(v))
	}
	h := hourMarker.FindStringSubmatch(s)
	m := minuteMarker.FindStringSubmatch(s)
	if h != nil || m != nil {
		var total float64
		if h != nil {
			total += markerValue(h[1]) * 60
		}
		if m != nil {
			total += markerValue(m[1])
		}
		if n := models.NumberOf(total); n.Valid && total >= 0 {
			return wholeMinutes(total)
		}
	}
	return bareMinutes(format.CoerceNumber(s))
}

func bareMinutes(n models.Number) models.Number {
	if !n.Valid {
		return models.Number{}
	}
	v := n.Value
	switch {
	case v >= bareSecondsThreshold:
		v /= 60
	case v > 0 && v < bareHoursCeiling:
		v *= 60
	}
	if v < 0 {
		return models.Number{}
	}
	return wholeMinutes(v)
}

func markerValue(s string) float64 {
	n := format.CoerceNumber(s)
	if !n.Valid {
		return 0
	}
	return n.Value
}

func wholeMinutes(v float64) models.Number {
	return models.NumberOf(math.Round(v))
}
