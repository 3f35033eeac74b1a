// Package sfn implements matching of an 8.3 short directory-entry name
// against a target path component, including the Windows NT
// lowercase-compatibility bits. This is the SFN fallback half of Component D
// (spec.md section 4.D, step 4).
package sfn

const (
	// NameLen is the length of the packed 8.3 name: 8 base bytes plus 3
	// extension bytes.
	NameLen = 11
	baseLen = 8
	extLen  = 3

	// LowercaseBase marks that the base (8-byte) portion of the name should
	// be interpreted as lowercase even though it's stored upper-case on
	// disk. Windows NT convention: bit 0x08 of DIR_NTRes.
	LowercaseBase = 0x08
	// LowercaseExt marks that the 3-byte extension should be interpreted as
	// lowercase. Windows NT convention: bit 0x10 of DIR_NTRes.
	LowercaseExt = 0x10

	attrDirectory = 0x10
)

// Match reports whether the packed 11-byte short name (8 base bytes + 3
// extension bytes, space-padded) matches target, a single path component
// (no '/'). attr is the entry's attribute byte and ntRes is its NT-reserved
// byte, supplying the directory bit and the two lowercase-compatibility
// bits.
//
// The algorithm is spec.md section 4.D step 4, reproduced faithfully
// including its one quirk: a base-name byte that is none of space,
// letter, or digit (i.e. an extended code-page character) advances the
// match cursor without being compared at all.
func Match(name [NameLen]byte, attr uint8, ntRes uint8, target string) bool {
	isDir := attr&attrDirectory != 0
	j := 0
	targetLen := len(target)

	lowerBase := ntRes&LowercaseBase != 0
	lowerExt := ntRes&LowercaseExt != 0

	for x := 0; x < baseLen; x++ {
		b := name[x]
		switch {
		case b == ' ':
			if !isDir {
				if j < targetLen && target[j] == '.' {
					continue
				}
				if j < targetLen && b == target[j] {
					j++
					continue
				}
				return false
			}
			// Directory: trailing spaces pad out the name once the target
			// is exhausted.
			if j < targetLen && b == target[j] {
				j++
				continue
			}
			if j == targetLen {
				continue
			}
			return false

		case isAlpha(b):
			want := b
			if lowerBase {
				want = b + 32
			}
			if j < targetLen && want == target[j] {
				j++
				continue
			}
			return false

		case isDigit(b):
			if j < targetLen && b == target[j] {
				j++
				continue
			}
			return false

		default:
			// Extended code-page byte: the source never compares these, it
			// just advances the cursor. Reproduced verbatim per spec.md 4.D.
			j++
		}
	}

	if isDir {
		return j == targetLen
	}

	// Regular file: consume the '.' separator, then match the extension.
	if j >= targetLen || target[j] != '.' {
		// A name with no extension (all spaces) and no '.' in target is
		// still a match if j already reached the end and the extension is
		// blank.
		if j == targetLen && isBlank(name[baseLen:]) {
			return true
		}
		return false
	}
	j++

	for x := baseLen; x < NameLen; x++ {
		b := name[x]
		switch {
		case isAlpha(b):
			want := b
			if lowerExt {
				want = b + 32
			}
			if j < targetLen && want == target[j] {
				j++
				continue
			}
			return false

		case isDigit(b) || b == ' ':
			if j < targetLen && b == target[j] {
				j++
				continue
			}
			return false

		default:
			return false
		}
	}

	return j == targetLen
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isBlank(b []byte) bool {
	for _, c := range b {
		if c != ' ' {
			return false
		}
	}
	return true
}
