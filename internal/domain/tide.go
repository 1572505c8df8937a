package domain

import (
	"fmt"
	"time"
)

// PredictionPoint is one sampled output value: a height in the station's
// units for water-level series, a signed velocity for current series.
type PredictionPoint struct {
	Time  time.Time
	Value float64
}

// Series is an ordered prediction time series for one station.
type Series struct {
	StationID string
	Kind      SeriesKind
	Interval  time.Duration
	Points    []PredictionPoint
}

// DefaultInterval resolves the fastest catalog constituent (M8, ~3.1 hour
// period) at roughly 30 samples per cycle, which the peak detector needs for
// sub-sample refinement.
const DefaultInterval = 6 * time.Minute

// correctionSpan bounds how long a single {f, u, V0} evaluation is reused.
// The corrections vary on the 18.6-year nodal cycle, so a start+midpoint
// evaluation is accurate over months but drifts over years; long requests
// are chunked and each chunk gets its own argument sets.
const correctionSpan = 180 * 24 * time.Hour

// GenerateSeries synthesizes a prediction series for a station by summing
// every constituent's contribution at each sample instant:
//
//	value(t) = datum + sum_k f_k * A_k * cos(speed_k*dt + V0_k + u_k - phase_k)
//
// Corrections are computed once per (constituent, chunk) from the chunk's
// start and midpoint argument sets, not per sample. A station with no
// harmonics yields an empty series, not an error.
func GenerateSeries(st *Station, cat *ConstituentCatalog, start, end time.Time, interval time.Duration) (*Series, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %v", interval)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %v precedes start %v", end, start)
	}

	series := &Series{
		StationID: st.ID,
		Kind:      st.Kind,
		Interval:  interval,
		Points:    make([]PredictionPoint, 0),
	}
	if len(st.Harmonics) == 0 {
		return series, nil
	}

	// Pair each harmonic with its catalog speed up front.
	type term struct {
		h     StationHarmonic
		speed float64
	}
	terms := make([]term, 0, len(st.Harmonics))
	for _, h := range st.Harmonics {
		speed, ok := cat.Speed(h.Constituent)
		if !ok {
			return nil, fmt.Errorf("station %s uses unknown constituent %s", st.ID, h.Constituent)
		}
		terms = append(terms, term{h: h, speed: speed})
	}

	t := start
	for chunkStart := start; !chunkStart.After(end); {
		chunkEnd := chunkStart.Add(correctionSpan)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		mid := chunkStart.Add(chunkEnd.Sub(chunkStart) / 2)

		corr, err := cat.IntervalCorrections(ArgsAt(chunkStart), ArgsAt(mid))
		if err != nil {
			return nil, err
		}

		for ; !t.After(chunkEnd); t = t.Add(interval) {
			hours := t.Sub(chunkStart).Hours()
			value := st.DatumOffset
			for _, tm := range terms {
				c := corr[tm.h.Constituent]
				phase := tm.speed*hours + c.V0 + c.U - tm.h.PhaseDeg
				value += c.F * tm.h.Amplitude * Cosd(phase)
			}
			series.Points = append(series.Points, PredictionPoint{Time: t, Value: value})
		}
		if !chunkEnd.Before(end) {
			break
		}
		chunkStart = t
	}

	return series, nil
}
