// Package main provides the hcindex command: builds a SQLite index of a
// harmonics database so stations can be browsed and queried with ordinary
// SQL tooling.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"go.seastate.io/tidecore/internal/adapter/store"
	"go.seastate.io/tidecore/internal/adapter/store/hdb"
	"go.seastate.io/tidecore/internal/adapter/store/jsondb"
)

func main() {
	in := flag.String("in", "data/harmonics.hdb", "Harmonics database (.hdb or .json)")
	out := flag.String("out", "data/harmonics-index.db", "SQLite index to write")
	flag.Parse()

	var src store.StationSource
	switch filepath.Ext(*in) {
	case ".hdb":
		src = hdb.New(*in)
	case ".json":
		src = jsondb.New(*in)
	default:
		fmt.Fprintf(os.Stderr, "unrecognized extension on %s (want .hdb or .json)\n", *in)
		os.Exit(2)
	}

	result, err := src.Load()
	if err != nil {
		log.Fatalf("load %s: %v", *in, err)
	}
	if result.Skipped > 0 {
		log.Printf("skipped %d malformed records in %s", result.Skipped, *in)
	}
	if err := store.ResolveSubordinates(result.Stations); err != nil {
		log.Fatalf("resolve subordinates: %v", err)
	}

	if err := buildIndex(*out, result); err != nil {
		log.Fatal(err)
	}
	log.Printf("indexed %d stations into %s", len(result.Stations), *out)
}

func buildIndex(path string, result *store.LoadResult) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS stations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			meridian_hours REAL NOT NULL,
			datum REAL NOT NULL,
			subordinate INTEGER NOT NULL,
			reference_id TEXT
		);
		CREATE TABLE IF NOT EXISTS harmonics (
			station_id TEXT NOT NULL REFERENCES stations(id),
			constituent TEXT NOT NULL,
			amplitude REAL NOT NULL,
			phase_deg REAL NOT NULL,
			PRIMARY KEY (station_id, constituent)
		);
		CREATE INDEX IF NOT EXISTS idx_stations_name ON stations(name);
		DELETE FROM harmonics;
		DELETE FROM stations;
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertStation, err := tx.Prepare(`
		INSERT INTO stations (id, name, kind, latitude, longitude, meridian_hours, datum, subordinate, reference_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare station insert: %w", err)
	}
	defer insertStation.Close()

	insertHarmonic, err := tx.Prepare(`
		INSERT INTO harmonics (station_id, constituent, amplitude, phase_deg)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare harmonic insert: %w", err)
	}
	defer insertHarmonic.Close()

	for _, st := range result.Stations {
		var refID *string
		subordinate := 0
		if st.Subordinate() {
			subordinate = 1
			refID = &st.Ref.StationID
		}
		if _, err := insertStation.Exec(
			st.ID, st.Name, st.Kind.String(),
			st.Latitude, st.Longitude, st.MeridianHours, st.DatumOffset,
			subordinate, refID,
		); err != nil {
			return fmt.Errorf("insert station %s: %w", st.ID, err)
		}
		for _, h := range st.Harmonics {
			if _, err := insertHarmonic.Exec(st.ID, h.Constituent, h.Amplitude, h.PhaseDeg); err != nil {
				return fmt.Errorf("insert harmonic %s/%s: %w", st.ID, h.Constituent, err)
			}
		}
	}

	return tx.Commit()
}
