// Package mbr specifies the Master Boot Record partition table reader
// consumed by the FAT32 geometry loader, and provides a reference reader
// over a single boot sector buffer.
//
// Per spec.md section 1, the MBR partition table reader is an external
// collaborator: the VFS mount path reads its partition entry through this
// package's Table (the reference PartitionTableReader below), but a
// real kernel's MBR reader typically lives closer to the block layer than to
// any one filesystem driver. This package specifies the contract and ships a
// reference implementation grounded on the classic MBR layout (bootstrap
// code, four 16-byte partition table entries, 0x55AA signature).
package mbr

import (
	"encoding/binary"

	"github.com/dargueta/fat32vfs/ferrors"
)

const (
	partitionTableOffset = 446
	partitionEntrySize   = 16
	signatureOffset      = 510
	bootSignature        = 0xAA55
	maxPartitionEntries  = 4
)

// PartitionType is the one-byte type code of a partition table entry.
type PartitionType byte

const (
	PartitionTypeEmpty    PartitionType = 0x00
	PartitionTypeFAT12    PartitionType = 0x01
	PartitionTypeFAT16    PartitionType = 0x04
	PartitionTypeExtended PartitionType = 0x05
	PartitionTypeFAT32CHS PartitionType = 0x0B
	PartitionTypeFAT32LBA PartitionType = 0x0C
)

// IsFAT32 reports whether the type byte names one of the two FAT32
// partition type codes.
func (t PartitionType) IsFAT32() bool {
	return t == PartitionTypeFAT32CHS || t == PartitionTypeFAT32LBA
}

// Entry is one parsed partition table entry: a starting LBA, a sector
// count, and a partition type byte, per spec.md section 1.
type Entry struct {
	Bootable    bool
	Type        PartitionType
	StartingLBA uint32
	TotalSectors uint32
}

// PartitionTableReader is the consumed interface: given a 512-byte MBR
// sector, it must yield the requested partition's starting LBA, sector
// count, and type byte.
type PartitionTableReader interface {
	ReadPartitionEntry(index int) (Entry, error)
}

// Table is a reference PartitionTableReader over an in-memory 512-byte MBR
// sector.
type Table struct {
	sector [512]byte
}

// Parse validates sector as an MBR (checking the 0x55AA boot signature) and
// returns a Table that can answer ReadPartitionEntry.
func Parse(sector []byte) (*Table, error) {
	if len(sector) < 512 {
		return nil, ferrors.ErrInvalidBootSector.WithMessage("MBR sector shorter than 512 bytes")
	}

	t := &Table{}
	copy(t.sector[:], sector[:512])

	sig := binary.LittleEndian.Uint16(t.sector[signatureOffset : signatureOffset+2])
	if sig != bootSignature {
		return nil, ferrors.ErrUnsupportedPartitionScheme.WithMessage(
			"missing 0x55AA boot signature")
	}

	return t, nil
}

// ReadPartitionEntry returns the index'th (0-based) partition table entry.
func (t *Table) ReadPartitionEntry(index int) (Entry, error) {
	if index < 0 || index >= maxPartitionEntries {
		return Entry{}, ferrors.ErrInvalidBootSector.WithMessage("partition index out of range [0, 4)")
	}

	off := partitionTableOffset + index*partitionEntrySize
	raw := t.sector[off : off+partitionEntrySize]

	entry := Entry{
		Bootable:     raw[0] == 0x80,
		Type:         PartitionType(raw[4]),
		StartingLBA:  binary.LittleEndian.Uint32(raw[8:12]),
		TotalSectors: binary.LittleEndian.Uint32(raw[12:16]),
	}

	if entry.Type == PartitionTypeEmpty {
		return entry, ferrors.ErrInvalidBootSector.WithMessage("partition table entry is unused")
	}

	return entry, nil
}
