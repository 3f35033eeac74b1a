// Package lfn reconstructs and matches Long File Name directory entries:
// the chain of 32-byte records that precede a Short File Name entry,
// each carrying a 13-UCS-2-unit fragment of the full name. This is the LFN
// half of Component D (spec.md section 4.D, step 3).
package lfn

import "encoding/binary"

const (
	// Size is the size in bytes of one long directory entry.
	Size = 32

	// Attr is the attribute byte value (0x0F) that marks an entry as a long
	// name fragment rather than a short entry.
	Attr = 0x0F

	// OrdinalLastFlag marks the fragment carrying the *last*
	// (highest-numbered) chunk of the name. LFN fragments are stored in
	// reverse order on disk, so this fragment is the one physically furthest
	// from the SFN.
	OrdinalLastFlag = 0x40

	// OrdinalDeleted marks a long entry whose SFN has been deleted.
	OrdinalDeleted = 0xE5

	name1Units = 5
	name2Units = 6
	name3Units = 2
	// UnitsPerEntry is the number of UCS-2 code units packed into a single
	// long entry: 5 + 6 + 2.
	UnitsPerEntry = name1Units + name2Units + name3Units

	unitTerminator = 0x0000
	unitPadding    = 0xFFFF
)

// Entry is one parsed long directory entry.
type Entry struct {
	Ordinal  uint8
	Checksum uint8
	Units    [UnitsPerEntry]uint16
}

// IsLastFragment reports whether this entry carries the last (highest
// numbered) chunk of the name, i.e. it is the fragment physically furthest
// from the SFN record.
func (e Entry) IsLastFragment() bool {
	return e.Ordinal&OrdinalLastFlag != 0
}

// SequenceNumber returns the 1-based position of this fragment within the
// name (1 == nearest the start of the name), stripping the "last fragment"
// marker bit.
func (e Entry) SequenceNumber() int {
	return int(e.Ordinal &^ OrdinalLastFlag)
}

// ParseEntry decodes a 32-byte raw long directory entry. Callers are
// expected to have already checked that the attribute byte at offset 11 is
// Attr before calling this.
func ParseEntry(raw []byte) Entry {
	e := Entry{
		Ordinal:  raw[0],
		Checksum: raw[13],
	}

	u := 0
	for i := 0; i < name1Units; i++ {
		e.Units[u] = binary.LittleEndian.Uint16(raw[1+i*2:])
		u++
	}
	for i := 0; i < name2Units; i++ {
		e.Units[u] = binary.LittleEndian.Uint16(raw[14+i*2:])
		u++
	}
	for i := 0; i < name3Units; i++ {
		e.Units[u] = binary.LittleEndian.Uint16(raw[28+i*2:])
		u++
	}

	return e
}
