package hdb

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"go.seastate.io/tidecore/internal/adapter/store"
	"go.seastate.io/tidecore/internal/domain"
)

// Source reads stations from a binary harmonics database file.
type Source struct {
	path string
}

// New returns a source backed by the given file path. The file is opened on
// Load, not here.
func New(path string) *Source {
	return &Source{path: path}
}

// Load reads the whole database. Container-level damage (bad magic, wrong
// version, truncated header or name table) aborts the load; damage inside a
// single station record skips that record and increments the skipped count.
func (s *Source) Load() (*store.LoadResult, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open harmonics database: %w", err)
	}
	defer func() { _ = f.Close() }()

	return decode(bufio.NewReader(f))
}

// pendingRef holds an unresolved subordinate link: the referenced station is
// identified by record index, which may not be decoded yet.
type pendingRef struct {
	station  *domain.Station
	refIdx   int32
	ratio    float64
	phaseOff float64
}

func decode(r io.Reader) (*store.LoadResult, error) {
	var header struct {
		Magic        [4]byte
		Version      uint16
		Constituents uint16
		Stations     uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(header.Magic[:]) != headerMagic {
		return nil, fmt.Errorf("bad magic %q: not a harmonics database", header.Magic)
	}
	if header.Version != formatVersion {
		return nil, fmt.Errorf("unsupported database version %d", header.Version)
	}

	names := make([]string, header.Constituents)
	nameBuf := make([]byte, constituentNameLen)
	for i := range names {
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return nil, fmt.Errorf("read constituent table: %w", err)
		}
		names[i] = string(bytes.TrimRight(nameBuf, "\x00"))
	}

	result := &store.LoadResult{Stations: make([]*domain.Station, 0, header.Stations)}

	// Station ID per record index, for resolving subordinate links; the
	// empty string marks a skipped record.
	recordIDs := make([]string, header.Stations)
	var pending []pendingRef

	for i := uint32(0); i < header.Stations; i++ {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("read record %d length: %w", i, err)
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("read record %d body: %w", i, err)
		}

		st, ref, err := decodeRecord(body, names)
		if err != nil {
			result.Skipped++
			continue
		}
		recordIDs[i] = st.ID
		result.Stations = append(result.Stations, st)
		if ref != nil {
			ref.station = st
			pending = append(pending, *ref)
		}
	}

	// Second pass: turn record indices into station IDs. A link to a
	// missing or skipped record makes its subordinate unusable, so that
	// station is dropped too.
	dropped := make(map[string]bool)
	for _, p := range pending {
		if p.refIdx < 0 || int(p.refIdx) >= len(recordIDs) || recordIDs[p.refIdx] == "" {
			dropped[p.station.ID] = true
			result.Skipped++
			continue
		}
		p.station.Ref = &domain.Reference{
			StationID:      recordIDs[p.refIdx],
			Ratio:          p.ratio,
			PhaseOffsetDeg: p.phaseOff,
		}
	}
	if len(dropped) > 0 {
		kept := result.Stations[:0]
		for _, st := range result.Stations {
			if !dropped[st.ID] {
				kept = append(kept, st)
			}
		}
		result.Stations = kept
	}

	return result, nil
}

func decodeRecord(body []byte, names []string) (*domain.Station, *pendingRef, error) {
	c := cursor{buf: body}

	id := c.uint32()
	flags := c.uint8()
	name := c.shortString()
	meridianRaw := c.shortString()
	lat := c.float64()
	lon := c.float64()
	datum := c.float64()

	st := &domain.Station{
		ID:          strconv.FormatUint(uint64(id), 10),
		Name:        name,
		Latitude:    lat,
		Longitude:   lon,
		DatumOffset: datum,
	}
	if flags&flagCurrent != 0 {
		st.Kind = domain.CurrentVelocity
	}
	if flags&flagHasDepth != 0 {
		depth := c.float64()
		st.Depth = &depth
	}

	var ref *pendingRef
	if flags&flagSubordinate != 0 {
		ref = &pendingRef{
			refIdx:   c.int32(),
			ratio:    c.float64(),
			phaseOff: c.float64(),
		}
	}

	nHarm := int(c.uint16())
	harmonics := make([]domain.StationHarmonic, 0, nHarm)
	for i := 0; i < nHarm; i++ {
		idx := int(c.uint16())
		amp := c.uint32()
		phase := c.uint32()
		if c.err == nil && idx >= len(names) {
			return nil, nil, fmt.Errorf("record %d: constituent index %d out of range", id, idx)
		}
		if c.err == nil {
			harmonics = append(harmonics, domain.StationHarmonic{
				Constituent: names[idx],
				Amplitude:   float64(amp) / ampScale,
				PhaseDeg:    float64(phase) / phaseScale,
			})
		}
	}
	if c.err != nil {
		return nil, nil, fmt.Errorf("record %d: %w", id, c.err)
	}
	if c.pos != len(body) {
		return nil, nil, fmt.Errorf("record %d: %d trailing bytes", id, len(body)-c.pos)
	}
	st.Harmonics = harmonics

	meridian, err := domain.ParseMeridian(&meridianRaw)
	if err != nil {
		return nil, nil, fmt.Errorf("record %d: %w", id, err)
	}
	st.MeridianHours = meridian

	return st, ref, nil
}

// cursor walks a record body, latching the first overrun instead of
// returning an error at every read.
type cursor struct {
	buf []byte
	pos int
	err error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if c.pos+n > len(c.buf) {
		c.err = fmt.Errorf("truncated record at byte %d", c.pos)
		return nil
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *cursor) uint8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) uint16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (c *cursor) uint32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) int32() int32 {
	return int32(c.uint32())
}

func (c *cursor) float64() float64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (c *cursor) shortString() string {
	n := int(c.uint8())
	b := c.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}
