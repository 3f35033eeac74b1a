package lfn

// MatchAgainstChain implements spec.md section 4.D step 3: walk the given
// chain of long entries, in name order (the fragment covering the start of
// the name first -- the reverse of their on-disk order, since on disk the
// fragment furthest from the SFN carries the end of the name), and try to match
// target against the concatenation of their UCS-2 fragments.
//
// The running match index j is checked after each entry is fully
// processed, not only once all entries are exhausted -- an entry chain of
// length 1 whose 13 units already cover all of target succeeds without
// needing to consult its predecessor, matching the source's per-entry
// "goto find_lookup_success" check.
func MatchAgainstChain(entries []Entry, target string) bool {
	j := 0
	targetLen := len(target)

	for _, entry := range entries {
		for _, u := range entry.Units {
			switch {
			case j >= targetLen && (u == unitPadding || u == unitTerminator):
				// The terminator and any 0xFFFF filler beyond the end of the
				// name; keep scanning this entry's remaining units.
				continue
			case j >= targetLen || u != uint16(target[j]):
				return false
			default:
				j++
			}
		}

		if j >= targetLen {
			return true
		}
	}

	return false
}

// Decode reconstructs the full name carried by a chain of long entries
// (again in name order) into a Go string, stopping at the first 0x0000
// terminator unit or the first 0xFFFF padding unit.
func Decode(entries []Entry) string {
	units := make([]uint16, 0, len(entries)*UnitsPerEntry)
	for _, entry := range entries {
		for _, u := range entry.Units {
			if u == unitTerminator || u == unitPadding {
				return decodeUTF16(units)
			}
			units = append(units, u)
		}
	}
	return decodeUTF16(units)
}
