package domain

import (
	"time"
)

const DayLayout = "2006-01-02"

// Shot groups the files believed to come from one exposure. Raw and Images
// are disjoint and each sorted by path.
type Shot struct {
	Key     string
	Day     string
	BaseKey string
	Raw     []SourceFile
	Images  []SourceFile
	Seq     int
}

func ShotKey(takenAt time.Time, baseKey string) string {
	return takenAt.Format(DayLayout) + "/" + baseKey
}

// Members returns RAW members first, then image members.
func (s Shot) Members() []SourceFile {
	members := make([]SourceFile, 0, len(s.Raw)+len(s.Images))
	members = append(members, s.Raw...)
	members = append(members, s.Images...)
	return members
}

// Earliest is the member with the smallest (capture time, path).
func (s Shot) Earliest() SourceFile {
	var earliest SourceFile
	for i, m := range s.Members() {
		if i == 0 || CaptureBefore(m, earliest) {
			earliest = m
		}
	}
	return earliest
}

func (s Shot) CapturedAt() time.Time {
	return s.Earliest().TakenAt
}

func (s Shot) HasFallback() bool {
	for _, m := range s.Members() {
		if m.IsFallback() {
			return true
		}
	}
	return false
}

// CaptureBefore orders files by capture time, breaking ties by path.
func CaptureBefore(a, b SourceFile) bool {
	if a.TakenAt.Equal(b.TakenAt) {
		return a.Path < b.Path
	}
	return a.TakenAt.Before(b.TakenAt)
}

// NamingContext holds the resolved template variables for one shot.
type NamingContext struct {
	CapturedAt time.Time
	Event      string
	Seq        int
	Camera     string
}
