package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MetadataFields are the values written into imported files. Empty fields
// are never written.
type MetadataFields struct {
	Author    string
	Copyright string
	Credit    string
	Event     string
	Location  string
	Tags      []string
	GPS       *GPS
}

func (f MetadataFields) Empty() bool {
	return f.Author == "" && f.Copyright == "" && f.Credit == "" && f.Event == "" &&
		f.Location == "" && len(f.Tags) == 0 && f.GPS == nil
}

type GPS struct {
	Latitude  float64
	Longitude float64
}

// ParseGPS reads a "lat,lon" pair in decimal degrees.
func ParseGPS(value string) (*GPS, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("gps %q: expected lat,lon", value)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("gps %q: latitude: %w", value, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("gps %q: longitude: %w", value, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("gps %q: out of range", value)
	}
	return &GPS{Latitude: lat, Longitude: lon}, nil
}

// LatitudeRef returns "N" or "S".
func (g GPS) LatitudeRef() string {
	if g.Latitude < 0 {
		return "S"
	}
	return "N"
}

// LongitudeRef returns "E" or "W".
func (g GPS) LongitudeRef() string {
	if g.Longitude < 0 {
		return "W"
	}
	return "E"
}

// SplitTags splits a comma-joined tag list, dropping blanks.
func SplitTags(joined string) []string {
	var tags []string
	for _, tag := range strings.Split(joined, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
