package lfn

import "unicode/utf16"

// decodeUTF16 turns UCS-2 code units into a Go string. UCS-2 is a strict
// subset of UTF-16 (no surrogate pairs), so the standard library's UTF-16
// decoder is exact here; no library in the retrieval pack exposes a public
// UCS-2/UTF-16 codec (soypat/fat's equivalent lives in an unexported
// internal package of a different module and cannot be imported), so this
// one conversion is justified stdlib use -- see DESIGN.md.
func decodeUTF16(units []uint16) string {
	return string(utf16.Decode(units))
}

// EncodeUnit encodes a single rune as its UTF-16 code unit, for building LFN
// fixtures in tests. Runes outside the basic multilingual plane are not
// representable in a single UCS-2 unit and are encoded as the replacement
// character.
func EncodeUnit(r rune) uint16 {
	units := utf16.Encode([]rune{r})
	if len(units) != 1 {
		return 0xFFFD
	}
	return units[0]
}
