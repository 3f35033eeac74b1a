package geometry

import (
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// mediaType associates a BIOS Parameter Block Media descriptor byte with its
// historical name, the way disks/disks.go associates a disk geometry slug
// with its physical parameters. This is purely diagnostic: it is consulted
// when formatting InvalidBootSector messages (geometry/bootsector.go) and by
// the CLI's verbose mount report (cmd/fat32lookup/main.go), never for
// correctness.
type mediaType struct {
	Byte uint8  `csv:"byte"`
	Name string `csv:"name"`
}

const mediaTypesCSV = `byte,name
0xF0,3.5-inch 1.44MB floppy
0xF8,fixed disk
0xF9,3.5-inch 720KB floppy / 5.25-inch 1.2MB floppy
0xFA,5.25-inch 320KB single-sided floppy
0xFB,3.5-inch 640KB floppy
0xFC,5.25-inch 180KB single-sided floppy
0xFD,5.25-inch 360KB floppy
0xFE,5.25-inch 160KB single-sided floppy
0xFF,5.25-inch 320KB floppy
`

var mediaTypesByByte map[uint8]string

func init() {
	var rows []mediaType
	if err := gocsv.UnmarshalString(mediaTypesCSV, &rows); err != nil {
		panic(fmt.Sprintf("geometry: malformed embedded media type table: %s", err))
	}

	mediaTypesByByte = make(map[uint8]string, len(rows))
	for _, row := range rows {
		mediaTypesByByte[row.Byte] = row.Name
	}
}

// DescribeMediaType returns a human-readable name for a BPB_Media byte, or
// "unknown media type (0xNN)" with the byte in hex if it isn't one of the
// historically defined values.
func DescribeMediaType(b uint8) string {
	if name, ok := mediaTypesByByte[b]; ok {
		return name
	}
	return strings.TrimSpace(fmt.Sprintf("unknown media type (0x%02X)", b))
}
