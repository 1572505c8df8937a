// Package gridded reads constituent amplitude and phase fields from NetCDF
// grid files, one constituent per file pair, and samples them at arbitrary
// coordinates. It backs predictions for locations with no harmonic station.
package gridded

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fhs/go-netcdf/netcdf"

	"go.seastate.io/tidecore/internal/adapter/interp"
	"go.seastate.io/tidecore/internal/domain"
)

// Store samples constituent grids from a directory of NetCDF files. Grids
// are loaded on first use and cached; the store is safe for concurrent use.
type Store struct {
	dir string
	cat *domain.ConstituentCatalog

	mu    sync.Mutex
	cache map[string]*constituentGrid
}

type constituentGrid struct {
	amplitude *interp.Grid
	phase     *interp.Grid
}

// New returns a store reading from dir. Grid files are named
// "<constituent>_amplitude.nc" and "<constituent>_phase.nc", lower case.
func New(dir string, cat *domain.ConstituentCatalog) *Store {
	return &Store{
		dir:   dir,
		cat:   cat,
		cache: make(map[string]*constituentGrid),
	}
}

// Available lists the constituents with a complete grid pair on disk,
// sorted. Constituents the catalog does not know are ignored.
func (s *Store) Available() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read grid directory: %w", err)
	}

	amps := make(map[string]bool)
	phases := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, "_amplitude.nc"):
			amps[strings.TrimSuffix(name, "_amplitude.nc")] = true
		case strings.HasSuffix(name, "_phase.nc"):
			phases[strings.TrimSuffix(name, "_phase.nc")] = true
		}
	}

	var names []string
	for base := range amps {
		if !phases[base] {
			continue
		}
		upper := strings.ToUpper(base)
		if _, ok := s.cat.Speed(upper); ok {
			names = append(names, upper)
		}
	}
	sort.Strings(names)
	return names, nil
}

// HarmonicsAt samples every available constituent at (lat, lon). A
// constituent whose grid is masked at the location is skipped; no usable
// constituent at all is an error.
func (s *Store) HarmonicsAt(lat, lon float64) ([]domain.StationHarmonic, error) {
	names, err := s.Available()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no constituent grids in %s", s.dir)
	}

	// Grid longitude axes run 0-360.
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}

	harmonics := make([]domain.StationHarmonic, 0, len(names))
	for _, name := range names {
		g, err := s.load(name)
		if err != nil {
			return nil, err
		}
		amp, err := g.amplitude.Sample(lat, lon)
		if err != nil {
			continue
		}
		phase, err := g.phase.SamplePhase(lat, lon)
		if err != nil {
			continue
		}
		harmonics = append(harmonics, domain.StationHarmonic{
			Constituent: name,
			Amplitude:   amp,
			PhaseDeg:    phase,
		})
	}
	if len(harmonics) == 0 {
		return nil, fmt.Errorf("no grid data at (%.4f, %.4f)", lat, lon)
	}
	return harmonics, nil
}

func (s *Store) load(name string) (*constituentGrid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.cache[name]; ok {
		return g, nil
	}

	base := strings.ToLower(name)
	amp, err := readGrid(filepath.Join(s.dir, base+"_amplitude.nc"), "amplitude")
	if err != nil {
		return nil, fmt.Errorf("constituent %s: %w", name, err)
	}
	phase, err := readGrid(filepath.Join(s.dir, base+"_phase.nc"), "phase")
	if err != nil {
		return nil, fmt.Errorf("constituent %s: %w", name, err)
	}

	g := &constituentGrid{amplitude: amp, phase: phase}
	s.cache[name] = g
	return g, nil
}

// readGrid reads one 2D field plus its lat/lon axes. Fill values become NaN
// so the sampler can mask them.
func readGrid(path, varName string) (*interp.Grid, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = nc.Close() }()

	lat, err := readAxis(nc, "lat", "latitude", "y")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lon, err := readAxis(nc, "lon", "longitude", "x")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	v, err := nc.Var(varName)
	if err != nil {
		return nil, fmt.Errorf("%s: variable %q not found", path, varName)
	}
	values, err := readField(v, len(lat), len(lon))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if fill, ok := fillValue(v); ok {
		for i, val := range values {
			if val == fill {
				values[i] = math.NaN()
			}
		}
	}

	g := &interp.Grid{Lat: lat, Lon: lon, Values: values}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func readAxis(nc netcdf.Dataset, names ...string) ([]float64, error) {
	for _, name := range names {
		v, err := nc.Var(name)
		if err != nil {
			continue
		}
		dims, err := v.Dims()
		if err != nil || len(dims) != 1 {
			continue
		}
		n, err := dims[0].Len()
		if err != nil {
			continue
		}
		data, err := readNumeric(v, int(n))
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, fmt.Errorf("axis variable not found (tried %v)", names)
}

// readField reads a 2D variable into a flat row-major slice, transposing
// when the file stores [lon, lat].
func readField(v netcdf.Var, nLat, nLon int) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("get dimensions: %w", err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("expected 2D field, got %dD", len(dims))
	}
	d0, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	d1, err := dims[1].Len()
	if err != nil {
		return nil, err
	}

	flat, err := readNumeric(v, int(d0*d1))
	if err != nil {
		return nil, err
	}

	switch {
	case d0 == uint64(nLat) && d1 == uint64(nLon):
		return flat, nil
	case d0 == uint64(nLon) && d1 == uint64(nLat):
		out := make([]float64, len(flat))
		for i := 0; i < nLat; i++ {
			for j := 0; j < nLon; j++ {
				out[i*nLon+j] = flat[j*nLat+i]
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field is [%d, %d], want [%d, %d] either way", d0, d1, nLat, nLon)
	}
}

func readNumeric(v netcdf.Var, n int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("get var type: %w", err)
	}
	switch t {
	case netcdf.DOUBLE:
		out := make([]float64, n)
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
		return out, nil
	case netcdf.FLOAT:
		tmp := make([]float32, n)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, n)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, n)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

// fillValue returns the variable's _FillValue or missing_value attribute.
func fillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if a == (netcdf.Attr{}) {
			continue
		}
		n, err := a.Len()
		if err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
	}
	return 0, false
}
