package store

import (
	"fmt"

	"go.seastate.io/tidecore/internal/domain"
)

// ResolveSubordinates expands every subordinate station's harmonics in place:
// the reference station's resolved harmonics are scaled by the subordinate's
// amplitude ratio and shifted by its phase offset. References may themselves
// be subordinate; resolution follows the chain and memoizes each station so
// shared references are expanded once. A reference loop or a dangling
// reference ID fails the whole load.
func ResolveSubordinates(stations []*domain.Station) error {
	byID := make(map[string]*domain.Station, len(stations))
	for _, st := range stations {
		byID[st.ID] = st
	}

	const (
		unresolved = iota
		resolving
		resolved
	)
	state := make(map[string]int, len(stations))

	var resolve func(st *domain.Station) error
	resolve = func(st *domain.Station) error {
		switch state[st.ID] {
		case resolved:
			return nil
		case resolving:
			return fmt.Errorf("station %s: subordinate reference loop", st.ID)
		}

		if !st.Subordinate() {
			state[st.ID] = resolved
			return nil
		}

		state[st.ID] = resolving
		ref, ok := byID[st.Ref.StationID]
		if !ok {
			return fmt.Errorf("station %s references unknown station %s", st.ID, st.Ref.StationID)
		}
		if err := resolve(ref); err != nil {
			return err
		}

		st.Harmonics = make([]domain.StationHarmonic, len(ref.Harmonics))
		for i, h := range ref.Harmonics {
			st.Harmonics[i] = domain.StationHarmonic{
				Constituent: h.Constituent,
				Amplitude:   h.Amplitude * st.Ref.Ratio,
				PhaseDeg:    domain.Norm360(h.PhaseDeg + st.Ref.PhaseOffsetDeg),
			}
		}
		if st.DatumOffset == 0 {
			st.DatumOffset = ref.DatumOffset
		}
		state[st.ID] = resolved
		return nil
	}

	for _, st := range stations {
		if err := resolve(st); err != nil {
			return err
		}
	}
	return nil
}
