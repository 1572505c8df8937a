// Package jsondb reads and writes the JSON harmonics document. It converges
// to the same in-memory catalog as the binary container and serves as the
// interchange format for tooling.
package jsondb

import (
	"encoding/json"
	"fmt"
	"os"

	"go.seastate.io/tidecore/internal/adapter/store"
	"go.seastate.io/tidecore/internal/domain"
)

type document struct {
	Stations []stationDoc `json:"stations"`
}

type stationDoc struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Latitude     float64       `json:"latitude"`
	Longitude    float64       `json:"longitude"`
	Meridian     *string       `json:"meridian,omitempty"`
	Datum        float64       `json:"datum"`
	Type         string        `json:"type"`
	Depth        *float64      `json:"depth,omitempty"`
	Reference    *referenceDoc `json:"reference,omitempty"`
	Constituents []harmonicDoc `json:"constituents"`
}

type referenceDoc struct {
	StationID   string  `json:"station_id"`
	Ratio       float64 `json:"ratio"`
	PhaseOffset float64 `json:"phase_offset"`
}

type harmonicDoc struct {
	Name      string  `json:"name"`
	Amplitude float64 `json:"amplitude"`
	Phase     float64 `json:"phase"`
}

// Source reads stations from a JSON harmonics document.
type Source struct {
	path string
}

// New returns a source backed by the given file path.
func New(path string) *Source {
	return &Source{path: path}
}

// Load parses the document. A syntactically broken document aborts the load;
// a station entry with a bad shape (missing ID, unknown type or constituent,
// malformed meridian or reference) is skipped and counted.
func (s *Source) Load() (*store.LoadResult, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read harmonics document: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse harmonics document: %w", err)
	}

	cat, err := domain.NewConstituentCatalog()
	if err != nil {
		return nil, err
	}

	result := &store.LoadResult{Stations: make([]*domain.Station, 0, len(doc.Stations))}
	for _, sd := range doc.Stations {
		st, err := sd.toDomain(cat)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Stations = append(result.Stations, st)
	}
	return result, nil
}

func (sd *stationDoc) toDomain(cat *domain.ConstituentCatalog) (*domain.Station, error) {
	if sd.ID == "" {
		return nil, fmt.Errorf("station %q has no ID", sd.Name)
	}

	var kind domain.SeriesKind
	switch sd.Type {
	case "", "tide":
		kind = domain.WaterLevel
	case "current":
		kind = domain.CurrentVelocity
	default:
		return nil, fmt.Errorf("station %s: unknown type %q", sd.ID, sd.Type)
	}

	meridian, err := domain.ParseMeridian(sd.Meridian)
	if err != nil {
		return nil, fmt.Errorf("station %s: %w", sd.ID, err)
	}

	st := &domain.Station{
		ID:            sd.ID,
		Name:          sd.Name,
		Latitude:      sd.Latitude,
		Longitude:     sd.Longitude,
		MeridianHours: meridian,
		Kind:          kind,
		DatumOffset:   sd.Datum,
		Depth:         sd.Depth,
	}

	if sd.Reference != nil {
		if sd.Reference.StationID == "" || sd.Reference.Ratio <= 0 {
			return nil, fmt.Errorf("station %s: malformed reference", sd.ID)
		}
		st.Ref = &domain.Reference{
			StationID:      sd.Reference.StationID,
			Ratio:          sd.Reference.Ratio,
			PhaseOffsetDeg: sd.Reference.PhaseOffset,
		}
	}

	for _, h := range sd.Constituents {
		if _, ok := cat.Speed(h.Name); !ok {
			return nil, fmt.Errorf("station %s: unknown constituent %s", sd.ID, h.Name)
		}
		if h.Amplitude < 0 {
			return nil, fmt.Errorf("station %s: negative amplitude for %s", sd.ID, h.Name)
		}
		st.Harmonics = append(st.Harmonics, domain.StationHarmonic{
			Constituent: h.Name,
			Amplitude:   h.Amplitude,
			PhaseDeg:    h.Phase,
		})
	}

	return st, nil
}

// Marshal renders stations back into the document form, indented for
// diff-friendly output.
func Marshal(stations []*domain.Station) ([]byte, error) {
	doc := document{Stations: make([]stationDoc, 0, len(stations))}
	for _, st := range stations {
		sd := stationDoc{
			ID:        st.ID,
			Name:      st.Name,
			Latitude:  st.Latitude,
			Longitude: st.Longitude,
			Datum:     st.DatumOffset,
			Type:      st.Kind.String(),
			Depth:     st.Depth,
		}
		if st.MeridianHours != 0 {
			m := formatMeridian(st.MeridianHours)
			sd.Meridian = &m
		}
		if st.Subordinate() {
			sd.Reference = &referenceDoc{
				StationID:   st.Ref.StationID,
				Ratio:       st.Ref.Ratio,
				PhaseOffset: st.Ref.PhaseOffsetDeg,
			}
		}
		for _, h := range st.Harmonics {
			sd.Constituents = append(sd.Constituents, harmonicDoc{
				Name:      h.Constituent,
				Amplitude: h.Amplitude,
				Phase:     h.PhaseDeg,
			})
		}
		doc.Stations = append(doc.Stations, sd)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func formatMeridian(hours float64) string {
	sign := "+"
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	total := int(hours*3600 + 0.5)
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, (total/60)%60, total%60)
}
