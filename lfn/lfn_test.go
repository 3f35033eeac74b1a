package lfn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dargueta/fat32vfs/lfn"
)

func unitsOf(s string) []uint16 {
	units := make([]uint16, len(s))
	for i, r := range s {
		units[i] = lfn.EncodeUnit(r)
	}
	return units
}

func entryFromUnits(ordinal uint8, units []uint16) lfn.Entry {
	var e lfn.Entry
	e.Ordinal = ordinal
	padded := make([]uint16, lfn.UnitsPerEntry)
	i := 0
	for ; i < len(units) && i < lfn.UnitsPerEntry; i++ {
		padded[i] = units[i]
	}
	if i < lfn.UnitsPerEntry {
		padded[i] = 0x0000
		i++
	}
	for ; i < lfn.UnitsPerEntry; i++ {
		padded[i] = 0xFFFF
	}
	copy(e.Units[:], padded)
	return e
}

func TestMatchAgainstChainSingleFragment(t *testing.T) {
	chain := []lfn.Entry{
		entryFromUnits(lfn.OrdinalLastFlag|1, unitsOf("todo.txt")),
	}
	assert.True(t, lfn.MatchAgainstChain(chain, "todo.txt"))
	assert.False(t, lfn.MatchAgainstChain(chain, "todo2.txt"))
}

func TestDecodeConcatenatesFragmentsInGivenOrder(t *testing.T) {
	// Decode simply concatenates whatever order it's handed and stops at the
	// first terminator/padding unit it meets -- callers are responsible for
	// supplying fragments in name order (start of name first).
	chain := []lfn.Entry{
		entryFromUnits(1, unitsOf("abcdefghijklm")),
		entryFromUnits(lfn.OrdinalLastFlag|2, unitsOf("nop")),
	}
	assert.Equal(t, "abcdefghijklmnop", lfn.Decode(chain))
}

func TestDecodeStopsAtTerminator(t *testing.T) {
	chain := []lfn.Entry{
		entryFromUnits(lfn.OrdinalLastFlag|1, unitsOf("short")),
	}
	assert.Equal(t, "short", lfn.Decode(chain))
}

func TestEntryIsLastFragmentAndSequenceNumber(t *testing.T) {
	e := entryFromUnits(lfn.OrdinalLastFlag|2, unitsOf("x"))
	assert.True(t, e.IsLastFragment())
	assert.Equal(t, 2, e.SequenceNumber())
}

func TestParseEntry(t *testing.T) {
	raw := make([]byte, 32)
	raw[0] = lfn.OrdinalLastFlag | 1
	raw[11] = lfn.Attr
	raw[13] = 0x42
	raw[1] = 'h'
	raw[3] = 'i'
	entry := lfn.ParseEntry(raw)
	assert.Equal(t, uint8(0x42), entry.Checksum)
	assert.True(t, entry.IsLastFragment())
}
