package usecase

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.seastate.io/tidecore/internal/adapter/store/hdb"
	"go.seastate.io/tidecore/internal/domain"
)

func writeTestDB(t *testing.T) string {
	t.Helper()
	stations := []*domain.Station{
		{
			ID:        "100",
			Name:      "Main Harbor",
			Latitude:  47.6,
			Longitude: -122.3,
			Harmonics: []domain.StationHarmonic{
				{Constituent: "M2", Amplitude: 1.0, PhaseDeg: 0},
				{Constituent: "K1", Amplitude: 0.5, PhaseDeg: 90},
			},
		},
		{
			ID:        "200",
			Name:      "Far Point",
			Latitude:  36.6,
			Longitude: -121.9,
			Harmonics: []domain.StationHarmonic{
				{Constituent: "M2", Amplitude: 0.8, PhaseDeg: 45},
			},
		},
		{
			ID:       "300",
			Name:     "Side Channel",
			Latitude: 47.61,
			Ref:      &domain.Reference{StationID: "100", Ratio: 0.5, PhaseOffsetDeg: 15},
		},
	}

	var buf bytes.Buffer
	if err := hdb.Write(&buf, stations); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(t.TempDir(), "harmonics.hdb")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Config{BinaryPath: writeTestDB(t)})
}

func TestEngineStations(t *testing.T) {
	e := testEngine(t)
	stations, err := e.Stations()
	if err != nil {
		t.Fatalf("Stations: %v", err)
	}
	if len(stations) != 3 {
		t.Fatalf("got %d stations, want 3", len(stations))
	}
	for i, want := range []string{"100", "200", "300"} {
		if stations[i].ID != want {
			t.Errorf("station %d is %s, want %s (load order)", i, stations[i].ID, want)
		}
	}
	if !e.HarmonicsAvailable() {
		t.Error("HarmonicsAvailable() = false with a loaded database")
	}
}

func TestEngineMissingFiles(t *testing.T) {
	dir := t.TempDir()
	e := New(Config{
		BinaryPath: filepath.Join(dir, "absent.hdb"),
		JSONPath:   filepath.Join(dir, "absent.json"),
	})

	stations, err := e.Stations()
	if err != nil {
		t.Fatalf("Stations with missing files: %v", err)
	}
	if len(stations) != 0 {
		t.Errorf("got %d stations, want 0", len(stations))
	}
	if e.HarmonicsAvailable() {
		t.Error("HarmonicsAvailable() = true with no backing files")
	}
}

func TestHarmonicsAvailableTracksFilePresence(t *testing.T) {
	// An empty but well-formed database file is still an available backing
	// file, even though it loads zero stations.
	var buf bytes.Buffer
	if err := hdb.Write(&buf, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(t.TempDir(), "empty.hdb")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e := New(Config{BinaryPath: path})
	if !e.HarmonicsAvailable() {
		t.Error("HarmonicsAvailable() = false for a present database file")
	}
	stations, err := e.Stations()
	if err != nil {
		t.Fatalf("Stations: %v", err)
	}
	if len(stations) != 0 {
		t.Errorf("got %d stations from an empty database, want 0", len(stations))
	}

	// A present-but-corrupt file also counts as available; the parse error
	// belongs to the loading operation.
	badPath := filepath.Join(t.TempDir(), "bad.hdb")
	if err := os.WriteFile(badPath, []byte("not a database"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	e = New(Config{BinaryPath: badPath})
	if !e.HarmonicsAvailable() {
		t.Error("HarmonicsAvailable() = false for a present corrupt file")
	}
	if _, err := e.Stations(); err == nil {
		t.Error("Stations on a corrupt database returned no error")
	}
}

func TestEngineJSONSupplementsBinary(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "harmonics.json")
	doc := `{"stations": [
  {"id": "100", "name": "Shadowed", "type": "tide", "constituents": []},
  {"id": "900", "name": "JSON Only", "type": "tide",
   "constituents": [{"name": "M2", "amplitude": 1, "phase": 0}]}
]}`
	if err := os.WriteFile(jsonPath, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e := New(Config{BinaryPath: writeTestDB(t), JSONPath: jsonPath})
	stations, err := e.Stations()
	if err != nil {
		t.Fatalf("Stations: %v", err)
	}
	if len(stations) != 4 {
		t.Fatalf("got %d stations, want 4", len(stations))
	}

	// Binary record 100 wins over the JSON entry with the same ID.
	var hundred, nine *domain.Station
	for _, st := range stations {
		switch st.ID {
		case "100":
			hundred = st
		case "900":
			nine = st
		}
	}
	if hundred == nil || hundred.Name != "Main Harbor" {
		t.Errorf("station 100 = %+v, want the binary record", hundred)
	}
	if nine == nil || nine.Name != "JSON Only" {
		t.Errorf("station 900 = %+v, want the JSON record", nine)
	}
}

func TestEngineConcurrentFirstAccess(t *testing.T) {
	e := testEngine(t)

	const n = 16
	results := make([][]*domain.Station, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stations, err := e.Stations()
			if err != nil {
				t.Errorf("Stations: %v", err)
				return
			}
			results[i] = stations
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if len(results[i]) != len(results[0]) {
			t.Fatalf("goroutine %d saw %d stations, goroutine 0 saw %d", i, len(results[i]), len(results[0]))
		}
		for j := range results[i] {
			if results[i][j] != results[0][j] {
				t.Fatalf("goroutine %d saw a different station instance at %d", i, j)
			}
		}
	}
}

func TestEngineSubordinatePredictions(t *testing.T) {
	e := testEngine(t)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	// Station 300 is defined as half of station 100 with a phase shift;
	// its peak deviations must be half the reference's.
	stations, err := e.Stations()
	if err != nil {
		t.Fatalf("Stations: %v", err)
	}
	var sub *domain.Station
	for _, st := range stations {
		if st.ID == "300" {
			sub = st
		}
	}
	if sub == nil {
		t.Fatal("subordinate station missing")
	}
	if len(sub.Harmonics) != 2 {
		t.Fatalf("subordinate has %d harmonics, want 2 resolved from its reference", len(sub.Harmonics))
	}

	for i, h := range sub.Harmonics {
		ref := []domain.StationHarmonic{
			{Constituent: "M2", Amplitude: 0.5, PhaseDeg: 15},
			{Constituent: "K1", Amplitude: 0.25, PhaseDeg: 105},
		}[i]
		if h.Constituent != ref.Constituent ||
			math.Abs(h.Amplitude-ref.Amplitude) > 1e-9 ||
			math.Abs(h.PhaseDeg-ref.PhaseDeg) > 1e-9 {
			t.Errorf("resolved harmonic %d = %+v, want %+v", i, h, ref)
		}
	}

	subSeries, err := e.GeneratePredictions("300", start, end)
	if err != nil {
		t.Fatalf("GeneratePredictions(300): %v", err)
	}
	if len(subSeries.Points) == 0 {
		t.Fatal("subordinate series is empty")
	}

	// A phase-aligned subordinate with half the ratio halves every sample;
	// check against a directly synthesized station with the same harmonics.
	manual := &domain.Station{ID: "manual", Harmonics: sub.Harmonics}
	cat, err := domain.NewConstituentCatalog()
	if err != nil {
		t.Fatalf("NewConstituentCatalog: %v", err)
	}
	want, err := domain.GenerateSeries(manual, cat, start, end, domain.DefaultInterval)
	if err != nil {
		t.Fatalf("GenerateSeries: %v", err)
	}
	for i := range want.Points {
		if math.Abs(subSeries.Points[i].Value-want.Points[i].Value) > 1e-9 {
			t.Fatalf("sample %d: engine %v, direct synthesis %v",
				i, subSeries.Points[i].Value, want.Points[i].Value)
		}
	}
}

func TestEngineUnknownStation(t *testing.T) {
	e := testEngine(t)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := e.GeneratePredictions("404", start, start.Add(time.Hour)); err == nil {
		t.Fatal("unknown station accepted")
	}
}

func TestEngineNearest(t *testing.T) {
	e := testEngine(t)

	// Monterey is far closer to Far Point than to the Puget Sound pair.
	st, err := e.Nearest(36.6, -121.9)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if st.ID != "200" {
		t.Errorf("Nearest returned %s, want 200", st.ID)
	}

	st, err = e.Nearest(47.59, -122.31)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if st.ID != "100" {
		t.Errorf("Nearest returned %s, want 100", st.ID)
	}
}

func TestEngineNearestNoStations(t *testing.T) {
	e := New(Config{BinaryPath: filepath.Join(t.TempDir(), "absent.hdb")})
	if _, err := e.Nearest(0, 0); err == nil {
		t.Fatal("Nearest with no stations accepted")
	}
}

func TestEnginePredictAtUnconfigured(t *testing.T) {
	e := testEngine(t)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := e.PredictAt(47.6, -122.3, start, start.Add(time.Hour)); err == nil {
		t.Fatal("PredictAt without a grid directory accepted")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("HARMONICS_DB_PATH", "/tmp/custom.hdb")
	t.Setenv("HARMONICS_JSON_PATH", "")
	t.Setenv("HARMONICS_GRID_DIR", "/tmp/grids")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.BinaryPath != "/tmp/custom.hdb" {
		t.Errorf("BinaryPath = %q", cfg.BinaryPath)
	}
	if cfg.GridDir != "/tmp/grids" {
		t.Errorf("GridDir = %q", cfg.GridDir)
	}
}
