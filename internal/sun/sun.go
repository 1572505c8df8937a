// Package sun computes sunrise and sunset times to annotate prediction
// series: daylight windows matter when reading a tide calendar.
package sun

import (
	"math"
	"time"

	"github.com/keep94/sunrise"
)

// EventKind distinguishes a sunrise from a sunset.
type EventKind int

const (
	Sunrise EventKind = iota
	Sunset
)

func (k EventKind) String() string {
	if k == Sunset {
		return "sunset"
	}
	return "sunrise"
}

// Event is one sunrise or sunset instant.
type Event struct {
	Time time.Time
	Kind EventKind
}

// Events returns the ordered sunrise/sunset pairs at (lat, lon) covering the
// given span, starting with the sunrise on or after start's day.
func Events(lat, lon float64, start time.Time, span time.Duration) []Event {
	var s sunrise.Sunrise
	s.Around(lat, lon, start)

	// Around may land on the previous day; walk forward to the day that
	// contains start.
	for !sameDay(start, s.Sunrise()) {
		s.AddDays(1)
	}

	days := int(math.Ceil(span.Hours() / 24))
	events := make([]Event, 0, days*2)
	for i := 0; i < days; i++ {
		events = append(events,
			Event{Time: s.Sunrise(), Kind: Sunrise},
			Event{Time: s.Sunset(), Kind: Sunset},
		)
		s.AddDays(1)
	}
	return events
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
