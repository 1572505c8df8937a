// Package store defines the station source abstraction shared by the binary
// and JSON harmonics databases, plus subordinate station resolution.
package store

import "go.seastate.io/tidecore/internal/domain"

// LoadResult carries the outcome of reading a harmonics database. Malformed
// records are skipped rather than aborting the load; Skipped counts them so
// callers can log the damage.
type LoadResult struct {
	Stations []*domain.Station
	Skipped  int
}

// StationSource is the interface for loading station harmonic data.
type StationSource interface {
	// Load reads every station in the source. Subordinate references are
	// left unresolved; run ResolveSubordinates on the result.
	Load() (*LoadResult, error)
}
