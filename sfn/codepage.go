package sfn

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Display decodes a packed 11-byte short name into a human-readable string
// for display purposes (e.g. populating a Dirent's Name field). It is never
// consulted by Match: the matcher compares raw bytes per spec.md section
// 4.D. FAT 8.3 names are encoded in an OEM code page, not ASCII or UTF-8, so
// bytes above 0x7F are decoded via CP437 (the code page used by the FAT
// specification's reference implementation) rather than reinterpreted as
// Latin-1 or dropped.
func Display(name [NameLen]byte, lowerBase, lowerExt bool) string {
	base := decodeRegion(name[:baseLen], lowerBase)
	ext := decodeRegion(name[baseLen:], lowerExt)

	base = strings.TrimRight(base, " ")
	ext = strings.TrimRight(ext, " ")

	if ext == "" {
		return base
	}
	return base + "." + ext
}

func decodeRegion(region []byte, lower bool) string {
	var sb strings.Builder
	for _, b := range region {
		r := charmap.CodePage437.DecodeByte(b)
		if lower && r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
