package usecase

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"go.seastate.io/tidecore/internal/adapter/store"
	"go.seastate.io/tidecore/internal/adapter/store/gridded"
	"go.seastate.io/tidecore/internal/adapter/store/hdb"
	"go.seastate.io/tidecore/internal/adapter/store/jsondb"
	"go.seastate.io/tidecore/internal/domain"
)

// Engine is the prediction façade. The station catalog and constituent
// tables are loaded once, on the first operation that needs them; after that
// every method is safe to call from any goroutine.
type Engine struct {
	cfg Config

	loadOnce sync.Once
	loadErr  error

	cat      *domain.ConstituentCatalog
	stations []*domain.Station
	byID     map[string]*domain.Station
	grid     *gridded.Store
}

// New builds an engine around the given configuration. No files are touched
// until the first operation.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) load() error {
	e.loadOnce.Do(func() { e.loadErr = e.doLoad() })
	return e.loadErr
}

func (e *Engine) doLoad() error {
	cat, err := domain.NewConstituentCatalog()
	if err != nil {
		return err
	}
	e.cat = cat
	e.byID = make(map[string]*domain.Station)

	// The binary database is authoritative; JSON stations are added only
	// for IDs the binary does not carry. A missing file is not an error,
	// a present-but-broken one is.
	sources := []struct {
		path string
		src  store.StationSource
	}{
		{e.cfg.BinaryPath, hdb.New(e.cfg.BinaryPath)},
		{e.cfg.JSONPath, jsondb.New(e.cfg.JSONPath)},
	}
	for _, s := range sources {
		if s.path == "" {
			continue
		}
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			continue
		}
		result, err := s.src.Load()
		if err != nil {
			return err
		}
		if result.Skipped > 0 {
			log.Printf("harmonics: skipped %d malformed records in %s", result.Skipped, s.path)
		}
		for _, st := range result.Stations {
			if _, dup := e.byID[st.ID]; dup {
				continue
			}
			e.byID[st.ID] = st
			e.stations = append(e.stations, st)
		}
	}

	if err := store.ResolveSubordinates(e.stations); err != nil {
		return err
	}

	if e.cfg.GridDir != "" {
		e.grid = gridded.New(e.cfg.GridDir, cat)
	}
	return nil
}

// Stations returns the station catalog in load order. The slice is a copy;
// the stations themselves are shared and read-only.
func (e *Engine) Stations() ([]*domain.Station, error) {
	if err := e.load(); err != nil {
		return nil, err
	}
	out := make([]*domain.Station, len(e.stations))
	copy(out, e.stations)
	return out, nil
}

// HarmonicsAvailable reports whether a backing database file exists. It does
// not force a load: a present file that later fails to parse still counts as
// available, and the parse error surfaces from the operation that loads it.
func (e *Engine) HarmonicsAvailable() bool {
	for _, path := range []string{e.cfg.BinaryPath, e.cfg.JSONPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// GeneratePredictions synthesizes a series for a station at the default
// sampling interval.
func (e *Engine) GeneratePredictions(stationID string, start, end time.Time) (*domain.Series, error) {
	if err := e.load(); err != nil {
		return nil, err
	}
	st, ok := e.byID[stationID]
	if !ok {
		return nil, fmt.Errorf("unknown station %s", stationID)
	}
	return domain.GenerateSeries(st, e.cat, start, end, domain.DefaultInterval)
}

// DetectPeaks classifies the extrema of a generated series.
func (e *Engine) DetectPeaks(series *domain.Series) []domain.PeakEvent {
	return domain.DetectPeaks(series)
}

// Nearest returns the catalog station closest to (lat, lon) by great-circle
// distance.
func (e *Engine) Nearest(lat, lon float64) (*domain.Station, error) {
	if err := e.load(); err != nil {
		return nil, err
	}
	if len(e.stations) == 0 {
		return nil, fmt.Errorf("no stations loaded")
	}

	target := s2.LatLngFromDegrees(lat, lon)
	var best *domain.Station
	var bestDist s1.Angle
	for _, st := range e.stations {
		d := target.Distance(s2.LatLngFromDegrees(st.Latitude, st.Longitude))
		if best == nil || d < bestDist {
			best, bestDist = st, d
		}
	}
	return best, nil
}

// PredictAt synthesizes a series for an arbitrary coordinate by sampling the
// gridded constituent fields. Requires GridDir to be configured.
func (e *Engine) PredictAt(lat, lon float64, start, end time.Time) (*domain.Series, error) {
	if err := e.load(); err != nil {
		return nil, err
	}
	if e.grid == nil {
		return nil, fmt.Errorf("no grid directory configured")
	}

	harmonics, err := e.grid.HarmonicsAt(lat, lon)
	if err != nil {
		return nil, err
	}
	st := &domain.Station{
		ID:        fmt.Sprintf("grid:%.4f,%.4f", lat, lon),
		Name:      "grid point",
		Latitude:  lat,
		Longitude: lon,
		Harmonics: harmonics,
	}
	return domain.GenerateSeries(st, e.cat, start, end, domain.DefaultInterval)
}
