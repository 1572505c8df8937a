package domain

import (
	"math"
	"sort"
	"time"
)

// PeakType classifies a detected extremum.
type PeakType int

const (
	// High and Low classify water-level extrema.
	High PeakType = iota
	Low
	// Slack, MaxFlood and MaxEbb classify current-velocity events.
	Slack
	MaxFlood
	MaxEbb
)

func (t PeakType) String() string {
	switch t {
	case High:
		return "high"
	case Low:
		return "low"
	case Slack:
		return "slack"
	case MaxFlood:
		return "max flood"
	case MaxEbb:
		return "max ebb"
	default:
		return "unknown"
	}
}

// PeakEvent is a classified extremum with its interpolated time and
// magnitude; events carry sub-sample precision, not the nearest raw sample.
type PeakEvent struct {
	Time  time.Time
	Type  PeakType
	Value float64
}

// DetectPeaks scans a series for local extrema and classifies them.
// Water-level series yield alternating High/Low events; current series
// additionally yield Slack events at zero crossings, with extrema split into
// MaxFlood (positive polarity) and MaxEbb (negative polarity).
func DetectPeaks(s *Series) []PeakEvent {
	if s == nil || len(s.Points) < 3 {
		return []PeakEvent{}
	}

	pts := s.Points
	events := make([]PeakEvent, 0)

	for i := 1; i < len(pts)-1; i++ {
		prev, curr, next := pts[i-1].Value, pts[i].Value, pts[i+1].Value

		// The strict comparison against the previous sample means only the
		// leading edge of a flat plateau qualifies.
		isMax := curr > prev && curr >= next
		isMin := curr < prev && curr <= next
		if !isMax && !isMin {
			continue
		}

		when, value := refineExtremum(pts[i-1], pts[i], pts[i+1])
		if s.Kind == CurrentVelocity {
			if isMax && value > 0 {
				events = append(events, PeakEvent{Time: when, Type: MaxFlood, Value: value})
			} else if isMin && value < 0 {
				events = append(events, PeakEvent{Time: when, Type: MaxEbb, Value: value})
			}
			continue
		}
		if isMax {
			events = append(events, PeakEvent{Time: when, Type: High, Value: value})
		} else {
			events = append(events, PeakEvent{Time: when, Type: Low, Value: value})
		}
	}

	if s.Kind == CurrentVelocity {
		events = append(events, detectSlacks(pts)...)
		sort.Slice(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	}

	return events
}

// detectSlacks finds zero crossings of a signed velocity series and places
// a Slack event at the linearly interpolated crossing instant.
func detectSlacks(pts []PredictionPoint) []PeakEvent {
	slacks := make([]PeakEvent, 0)
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		if a.Value == 0 {
			slacks = append(slacks, PeakEvent{Time: a.Time, Type: Slack, Value: 0})
			continue
		}
		if (a.Value > 0) == (b.Value > 0) || b.Value == 0 {
			continue
		}
		frac := a.Value / (a.Value - b.Value)
		dt := time.Duration(frac * float64(b.Time.Sub(a.Time)))
		slacks = append(slacks, PeakEvent{Time: a.Time.Add(dt), Type: Slack, Value: 0})
	}
	return slacks
}

// refineExtremum fits a parabola through three bracketing samples and
// returns the vertex time and value. On a plateau (negligible curvature) it
// bisects on the first-difference sign instead: the extremum is taken at the
// midpoint of the flat bracket.
func refineExtremum(before, peak, after PredictionPoint) (time.Time, float64) {
	dt := peak.Time.Sub(before.Time).Hours()
	dt2 := after.Time.Sub(peak.Time).Hours()
	if dt <= 0 || math.Abs(dt-dt2) > 1e-9 {
		// Non-uniform spacing: fall back to the discrete peak.
		return peak.Time, peak.Value
	}

	h0, h1, h2 := before.Value, peak.Value, after.Value
	a := (h2 - 2*h1 + h0) / (2 * dt * dt)
	b := (h2 - h0) / (2 * dt)

	if math.Abs(a) < 1e-12 {
		// Plateau: bisect the bracket on the derivative sign.
		left, right := before.Time, after.Time
		mid := left.Add(right.Sub(left) / 2)
		return mid, h1
	}

	vertex := -b / (2 * a)
	if math.Abs(vertex) > dt {
		return peak.Time, peak.Value
	}

	refinedTime := peak.Time.Add(time.Duration(vertex * float64(time.Hour)))
	refinedValue := h1 + b*vertex + a*vertex*vertex
	return refinedTime, refinedValue
}
