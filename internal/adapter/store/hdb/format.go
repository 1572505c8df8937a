// Package hdb reads and writes the binary harmonics database container.
//
// The container is little-endian. A fixed header carries the magic, format
// version and table sizes; a constituent name table follows; then one
// length-prefixed record per station. The length prefix lets the decoder skip
// a malformed record whole and keep going.
package hdb

// Container layout constants. Bump formatVersion on any layout change.
const (
	headerMagic   = "THDB"
	formatVersion = 1

	// Constituent names are stored fixed-width, NUL padded.
	constituentNameLen = 8

	flagCurrent     = 1 << 0
	flagHasDepth    = 1 << 1
	flagSubordinate = 1 << 2

	// Amplitudes are stored in units of 1e-4, phases in centidegrees.
	ampScale   = 1e4
	phaseScale = 1e2
)
