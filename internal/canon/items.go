package canon

import (
	"sort"
	"time"

	"github.com/kjstillabower/status-brief-service/internal/format"
	"github.com/kjstillabower/status-brief-service/internal/models"
)

var (
	eventTitle    = C("title", "name", "summary")
	eventTime     = C("time", "start", "startTime", "start_time")
	eventLocation = C("location", "place", "where")

	newsTitle  = C("title", "headline", "name")
	newsSource = C("source", "source.name", "publisher")

	downloadTitle  = C("title", "name")
	downloadDate   = C("date", "when")
	downloadStatus = C("status", "state")
)

const (
	defaultEventTitle     = "Event"
	defaultDownloadTitle  = "Issue"
	defaultDownloadStatus = "Downloaded"
)

// sequence returns the first present value of c when it is an array.
func sequence(doc any, c Chain) []any {
	v, ok := c.Any(doc)
	if !ok {
		return nil
	}
	arr, _ := v.([]any)
	return arr
}

// events normalizes the calendar. Items are sorted by time (stable) only when every
// item's time is comparable: all full timestamps, or all bare clock times.
func events(doc any, c Chain) []models.Event {
	raw := sequence(doc, c)
	out := make([]models.Event, 0, len(raw))
	for _, item := range raw {
		switch x := item.(type) {
		case map[string]any:
			out = append(out, models.Event{
				Title:    textOr(scalarText(x, eventTitle), defaultEventTitle),
				Time:     scalarText(x, eventTime),
				Location: scalarText(x, eventLocation),
			})
		case string:
			if t := toText(x); t.Valid {
				out = append(out, models.Event{Title: t.Value})
			}
		}
	}
	sortEvents(out)
	return out
}

func sortEvents(evs []models.Event) {
	if len(evs) < 2 {
		return
	}
	keys, ok := eventKeys(evs, format.ParseTimestamp)
	if !ok {
		keys, ok = eventKeys(evs, format.ParseClock)
	}
	if !ok {
		return
	}
	idx := make([]int, len(evs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]].Before(keys[idx[b]])
	})
	sorted := make([]models.Event, len(evs))
	for i, j := range idx {
		sorted[i] = evs[j]
	}
	copy(evs, sorted)
}

func eventKeys(evs []models.Event, parse func(string) (time.Time, bool)) ([]time.Time, bool) {
	keys := make([]time.Time, len(evs))
	for i, ev := range evs {
		if !ev.Time.Valid {
			return nil, false
		}
		t, ok := parse(ev.Time.Value)
		if !ok {
			return nil, false
		}
		keys[i] = t
	}
	return keys, true
}

func news(doc any, c Chain) []models.NewsItem {
	raw := sequence(doc, c)
	out := make([]models.NewsItem, 0, len(raw))
	for _, item := range raw {
		switch x := item.(type) {
		case map[string]any:
			out = append(out, models.NewsItem{
				Title:  scalarText(x, newsTitle),
				Source: scalarText(x, newsSource),
			})
		case string:
			if t := toText(x); t.Valid {
				out = append(out, models.NewsItem{Title: t})
			}
		}
	}
	return out
}

func downloads(doc any, c Chain) []models.Download {
	raw := sequence(doc, c)
	out := make([]models.Download, 0, len(raw))
	for _, item := range raw {
		switch x := item.(type) {
		case map[string]any:
			out = append(out, models.Download{
				Title:  textOr(scalarText(x, downloadTitle), defaultDownloadTitle),
				Date:   scalarText(x, downloadDate),
				Status: textOr(scalarText(x, downloadStatus), defaultDownloadStatus),
			})
		case string:
			if t := toText(x); t.Valid {
				out = append(out, models.Download{Title: t.Value, Status: defaultDownloadStatus})
			}
		}
	}
	return out
}

func textOr(t models.Text, fallback string) string {
	if t.Valid {
		return t.Value
	}
	return fallback
}
