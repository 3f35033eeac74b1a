// Package geometry parses the FAT32 boot sector (BPB) and FSInfo block and
// derives the sector/cluster map a mount needs: the reserved area, the two
// FAT regions, the data region, and cluster size. This is Component A of the
// driver (spec.md section 4.A).
package geometry

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/ferrors"
)

// rawBPB is the on-disk layout of the FAT32 boot sector's BIOS Parameter
// Block, bit-exact and little-endian per spec.md section 6.
type rawBPB struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSec       uint16
	SecPerClus        uint8
	RsvdSecCnt        uint16
	NumFATs           uint8
	RootEntryCount    uint16
	_                 uint16 // totalSectors16: unused by FAT32, see TotSec32
	Media             uint8
	_                 uint16 // sectorsPerFAT16: unused by FAT32, see FATSz32
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotSec32          uint32
	FATSz32           uint32
	ExtFlags          uint16
	FSVersionMinor    uint8
	FSVersionMajor    uint8
	RootClus          uint32
	FSInfo            uint16
	BkBootSec         uint16
	_                 [12]byte // reserved
	DriveNumber       uint8
	_                 uint8 // ntReserved
	ExBootSignature   uint8
	VolumeID          uint32
	VolumeLabel       [11]byte
	FileSystemType    [8]byte
}

const (
	bootSectorSize   = 512
	bootSigOffset    = 510
	bootSignature    = 0xAA55
	fat32ExtBootSig1 = 0x28
	fat32ExtBootSig2 = 0x29
)

// Geometry is the immutable, per-mount boot geometry derived from the BPB.
// All fields are fixed once the volume is mounted (spec.md section 3).
type Geometry struct {
	// StartingLBA is the absolute LBA of the first sector of the partition.
	StartingLBA devio.LBA
	// TotalSectors is the partition's total sector count, from the MBR entry.
	TotalSectors uint32

	BytesPerSector    uint16
	SectorsPerCluster uint8
	NumFATs           uint8
	SectorsPerFAT     uint32
	Media             uint8

	// FAT1Base is the LBA of the first sector of the first FAT.
	FAT1Base devio.LBA
	// FAT2Base is the LBA of the first sector of the second (mirror) FAT.
	// Invariant: FAT2Base == FAT1Base + SectorsPerFAT.
	FAT2Base devio.LBA
	// FirstDataSector is the LBA of cluster 2.
	FirstDataSector devio.LBA

	BytesPerCluster  uint32
	RootCluster      uint32
	FSInfoSector     devio.LBA
	BackupBootSector devio.LBA

	VolumeLabel string
	OEMName     string
}

// TotalClusters returns the number of addressable data clusters on the
// volume, derived from TotalSectors and the geometry above.
func (g *Geometry) TotalClusters() uint32 {
	reservedAndFATs := uint32(g.FAT1Base-g.StartingLBA) + uint32(g.NumFATs)*g.SectorsPerFAT
	if g.TotalSectors <= reservedAndFATs {
		return 0
	}
	dataSectors := g.TotalSectors - reservedAndFATs
	return dataSectors / uint32(g.SectorsPerCluster)
}

// Parse reads a 512-byte boot sector buffer and the partition's starting LBA
// and total sector count (both supplied by the MBR reader) and derives the
// full geometry. It accumulates every validation failure it finds via
// hashicorp/go-multierror rather than stopping at the first one, so a
// corrupt BPB produces a complete diagnostic in one pass.
func Parse(sector []byte, startingLBA devio.LBA, totalSectors uint32) (*Geometry, error) {
	if len(sector) < bootSectorSize {
		return nil, ferrors.ErrInvalidBootSector.WithMessage(
			fmt.Sprintf("boot sector buffer too small: got %d bytes", len(sector)))
	}

	sig := binary.LittleEndian.Uint16(sector[bootSigOffset : bootSigOffset+2])
	if sig != bootSignature {
		return nil, ferrors.ErrInvalidBootSector.WithMessage("missing 0x55AA boot sector signature")
	}

	var raw rawBPB
	if err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &raw); err != nil {
		return nil, ferrors.ErrInvalidBootSector.WrapError(err)
	}

	var errs *multierror.Error
	errs = validateBytesPerSector(raw.BytesPerSec, errs)
	errs = validateSectorsPerCluster(raw.SecPerClus, errs)

	if raw.NumFATs == 0 {
		errs = multierror.Append(errs, fmt.Errorf("NumFATs is zero"))
	}
	if raw.FATSz32 == 0 {
		errs = multierror.Append(errs, fmt.Errorf("FATSz32 is zero: not a FAT32 BPB (FAT12/16 use FATSz16)"))
	}
	if raw.RootClus < 2 {
		errs = multierror.Append(errs, fmt.Errorf("BPB_RootClus %d is not a legal cluster number", raw.RootClus))
	}
	if raw.ExBootSignature != fat32ExtBootSig1 && raw.ExBootSignature != fat32ExtBootSig2 {
		errs = multierror.Append(errs, fmt.Errorf(
			"extended boot signature 0x%02x is neither 0x28 nor 0x29", raw.ExBootSignature))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, ferrors.ErrInvalidBootSector.WithMessage(
			fmt.Sprintf("media type %s (0x%02X): %s", DescribeMediaType(raw.Media), raw.Media, err.Error()))
	}

	fat1Base := startingLBA + devio.LBA(raw.RsvdSecCnt)
	fat2Base := fat1Base + devio.LBA(raw.FATSz32)
	firstDataSector := startingLBA + devio.LBA(uint32(raw.RsvdSecCnt)+uint32(raw.NumFATs)*raw.FATSz32)
	bytesPerCluster := uint32(raw.BytesPerSec) * uint32(raw.SecPerClus)

	return &Geometry{
		StartingLBA:       startingLBA,
		TotalSectors:      totalSectors,
		BytesPerSector:    raw.BytesPerSec,
		SectorsPerCluster: raw.SecPerClus,
		NumFATs:           raw.NumFATs,
		SectorsPerFAT:     raw.FATSz32,
		Media:             raw.Media,
		FAT1Base:          fat1Base,
		FAT2Base:          fat2Base,
		FirstDataSector:   firstDataSector,
		BytesPerCluster:   bytesPerCluster,
		RootCluster:       raw.RootClus,
		FSInfoSector:      startingLBA + devio.LBA(raw.FSInfo),
		BackupBootSector:  startingLBA + devio.LBA(raw.BkBootSec),
		VolumeLabel:       trimTrailingSpaces(raw.VolumeLabel[:]),
		OEMName:           trimTrailingSpaces(raw.OEMName[:]),
	}, nil
}

func validateBytesPerSector(value uint16, errs *multierror.Error) *multierror.Error {
	switch value {
	case 512, 1024, 2048, 4096:
		return errs
	default:
		return multierror.Append(errs, fmt.Errorf(
			"BytesPerSec must be 512, 1024, 2048, or 4096, got %d", value))
	}
}

func validateSectorsPerCluster(value uint8, errs *multierror.Error) *multierror.Error {
	for shift := uint(0); shift < 8; shift++ {
		if value == 1<<shift {
			return errs
		}
	}
	return multierror.Append(errs, fmt.Errorf(
		"SecPerClus must be a power of two in [1, 128], got %d", value))
}

func trimTrailingSpaces(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}
