// Package quake holds the earthquake record decoded from the USGS GeoJSON feed.
package quake

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event is one feature from the feed. Optional properties are pointers so a
// null or absent value can be told apart from zero.
type Event struct {
	ID         string
	Magnitude  *float64
	Place      *string
	URL        string
	TimeMillis *int64
}

// Complete reports whether the fields needed to render an alert are present.
func (e Event) Complete() bool {
	return e.Magnitude != nil && e.Place != nil && strings.TrimSpace(*e.Place) != "" && e.TimeMillis != nil
}

// Time returns the occurrence time in UTC, or the zero time when missing.
func (e Event) Time() time.Time {
	if e.TimeMillis == nil {
		return time.Time{}
	}
	return time.UnixMilli(*e.TimeMillis).UTC()
}

type properties struct {
	Mag   *float64 `json:"mag"`
	Place *string  `json:"place"`
	URL   string   `json:"url"`
	Time  *int64   `json:"time"`
}

type feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// Decode parses a GeoJSON FeatureCollection. Features without an id are dropped
// since they cannot be deduplicated.
func Decode(body []byte) ([]Event, error) {
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if fc.Type != "" && fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected geojson type %q", fc.Type)
	}
	out := make([]Event, 0, len(fc.Features))
	for _, f := range fc.Features {
		id := strings.TrimSpace(f.ID)
		if id == "" {
			continue
		}
		out = append(out, Event{
			ID:         id,
			Magnitude:  f.Properties.Mag,
			Place:      f.Properties.Place,
			URL:        f.Properties.URL,
			TimeMillis: f.Properties.Time,
		})
	}
	return out, nil
}
