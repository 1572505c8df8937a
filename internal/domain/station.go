package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SeriesKind distinguishes water-level series from current-velocity series.
type SeriesKind int

const (
	// WaterLevel series predict heights relative to the station datum.
	WaterLevel SeriesKind = iota
	// CurrentVelocity series predict signed velocities; positive is flood.
	CurrentVelocity
)

func (k SeriesKind) String() string {
	if k == CurrentVelocity {
		return "current"
	}
	return "tide"
}

// StationHarmonic is one constituent's contribution at one station.
type StationHarmonic struct {
	Constituent string
	Amplitude   float64
	PhaseDeg    float64
}

// Reference links a subordinate station to the station whose harmonics it is
// derived from: the reference harmonics are scaled by Ratio and shifted by
// PhaseOffsetDeg at load time.
type Reference struct {
	StationID      string
	Ratio          float64
	PhaseOffsetDeg float64
}

// Station is a tide or current observation point. Stations are created by
// the database loader on first catalog load and are read-only afterward.
type Station struct {
	ID            string
	Name          string
	Latitude      float64
	Longitude     float64
	MeridianHours float64
	Kind          SeriesKind
	DatumOffset   float64
	Depth         *float64 // Current stations only.
	Ref           *Reference
	Harmonics     []StationHarmonic
}

// Subordinate reports whether the station's harmonics are defined relative
// to a reference station.
func (s *Station) Subordinate() bool {
	return s.Ref != nil
}

// noDataSentinel is the literal some harmonics databases store in place of a
// missing meridian.
const noDataSentinel = "no data"

// ParseMeridian converts a timezone meridian string of the form "±HH:MM:SS"
// into fractional hours. A nil pointer, an empty string and the "no data"
// sentinel all parse to zero.
func ParseMeridian(raw *string) (float64, error) {
	if raw == nil {
		return 0.0, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" || strings.EqualFold(s, noDataSentinel) {
		return 0.0, nil
	}

	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1.0
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid meridian %q: expected HH:MM:SS", *raw)
	}
	var fields [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid meridian %q: bad field %q", *raw, p)
		}
		fields[i] = v
	}

	return sign * (fields[0] + fields[1]/60.0 + fields[2]/3600.0), nil
}
