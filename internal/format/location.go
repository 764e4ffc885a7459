package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kjstillabower/status-brief-service/internal/models"
)

var coordPair = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// Location renders a location for display. A "lat,lon" string or an object carrying
// lat/lon (or latitude/longitude) is shown as "Lat 51.54 • Lon 0.06"; raw coordinates
// are never passed through. Other strings are returned unchanged.
func Location(v any) models.Text {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return models.Text{}
		}
		if m := coordPair.FindStringSubmatch(s); m != nil {
			lat, _ := strconv.ParseFloat(m[1], 64)
			lon, _ := strconv.ParseFloat(m[2], 64)
			if validCoords(lat, lon) {
				return models.TextOf(coordLabel(lat, lon))
			}
		}
		return models.TextOf(s)
	case map[string]any:
		lat := CoerceNumber(firstOf(x, "lat", "latitude"))
		lon := CoerceNumber(firstOf(x, "lon", "lng", "longitude"))
		if lat.Valid && lon.Valid && validCoords(lat.Value, lon.Value) {
			return models.TextOf(coordLabel(lat.Value, lon.Value))
		}
		if name, ok := firstOf(x, "name", "city", "label").(string); ok {
			return Location(name)
		}
	}
	return models.Text{}
}

func coordLabel(lat, lon float64) string {
	return fmt.Sprintf("Lat %.2f • Lon %.2f", lat, lon)
}

func validCoords(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
