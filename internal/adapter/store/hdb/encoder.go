package hdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"go.seastate.io/tidecore/internal/domain"
)

// Write encodes stations into the binary container. Station IDs must be
// decimal uint32 strings, constituent names at most eight bytes, and every
// subordinate reference must point at a station in the slice. The encoding is
// deterministic: the same input always yields the same bytes.
func Write(w io.Writer, stations []*domain.Station) error {
	names, nameIndex, err := buildNameTable(stations)
	if err != nil {
		return err
	}

	recordIndex := make(map[string]int32, len(stations))
	for i, st := range stations {
		if _, dup := recordIndex[st.ID]; dup {
			return fmt.Errorf("duplicate station ID %s", st.ID)
		}
		recordIndex[st.ID] = int32(i)
	}

	header := struct {
		Magic        [4]byte
		Version      uint16
		Constituents uint16
		Stations     uint32
	}{
		Version:      formatVersion,
		Constituents: uint16(len(names)),
		Stations:     uint32(len(stations)),
	}
	copy(header.Magic[:], headerMagic)
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	padded := make([]byte, constituentNameLen)
	for _, name := range names {
		for i := range padded {
			padded[i] = 0
		}
		copy(padded, name)
		if _, err := w.Write(padded); err != nil {
			return fmt.Errorf("write constituent table: %w", err)
		}
	}

	for _, st := range stations {
		body, err := encodeRecord(st, nameIndex, recordIndex)
		if err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(body))); err != nil {
			return fmt.Errorf("write record length: %w", err)
		}
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	return nil
}

func buildNameTable(stations []*domain.Station) ([]string, map[string]uint16, error) {
	seen := make(map[string]bool)
	for _, st := range stations {
		for _, h := range st.Harmonics {
			if len(h.Constituent) > constituentNameLen {
				return nil, nil, fmt.Errorf("constituent name %q exceeds %d bytes", h.Constituent, constituentNameLen)
			}
			seen[h.Constituent] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	index := make(map[string]uint16, len(names))
	for i, name := range names {
		index[name] = uint16(i)
	}
	return names, index, nil
}

func encodeRecord(st *domain.Station, nameIndex map[string]uint16, recordIndex map[string]int32) ([]byte, error) {
	id, err := strconv.ParseUint(st.ID, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("station ID %q is not a uint32", st.ID)
	}

	var flags uint8
	if st.Kind == domain.CurrentVelocity {
		flags |= flagCurrent
	}
	if st.Depth != nil {
		flags |= flagHasDepth
	}
	if st.Subordinate() {
		flags |= flagSubordinate
	}

	var buf bytes.Buffer
	le := binary.LittleEndian
	write := func(v any) { _ = binary.Write(&buf, le, v) }

	write(uint32(id))
	write(flags)
	if err := writeShortString(&buf, st.Name); err != nil {
		return nil, fmt.Errorf("station %s: %w", st.ID, err)
	}
	if err := writeShortString(&buf, formatMeridian(st.MeridianHours)); err != nil {
		return nil, fmt.Errorf("station %s: %w", st.ID, err)
	}
	write(st.Latitude)
	write(st.Longitude)
	write(st.DatumOffset)
	if st.Depth != nil {
		write(*st.Depth)
	}
	if st.Subordinate() {
		refIdx, ok := recordIndex[st.Ref.StationID]
		if !ok {
			return nil, fmt.Errorf("station %s references %s, which is not being written", st.ID, st.Ref.StationID)
		}
		write(refIdx)
		write(st.Ref.Ratio)
		write(st.Ref.PhaseOffsetDeg)
	}

	write(uint16(len(st.Harmonics)))
	for _, h := range st.Harmonics {
		write(nameIndex[h.Constituent])
		write(uint32(math.Round(h.Amplitude * ampScale)))
		write(uint32(math.Round(domain.Norm360(h.PhaseDeg) * phaseScale)))
	}

	return buf.Bytes(), nil
}

func writeShortString(buf *bytes.Buffer, s string) error {
	if len(s) > 255 {
		return fmt.Errorf("string %q exceeds 255 bytes", s[:16]+"...")
	}
	buf.WriteByte(uint8(len(s)))
	buf.WriteString(s)
	return nil
}

// formatMeridian renders fractional hours back to the ±HH:MM:SS form the
// container stores. Zero renders as the empty string, matching how absent
// meridians are parsed.
func formatMeridian(hours float64) string {
	if hours == 0 {
		return ""
	}
	sign := "+"
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	total := int(math.Round(hours * 3600))
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, (total/60)%60, total%60)
}
