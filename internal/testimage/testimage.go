// Package testimage builds in-memory FAT32 disk images for tests: an MBR, a
// boot sector and FSInfo block, two mirrored FATs, and a data region whose
// root directory is populated from caller-supplied raw entries. It plays the
// role the teacher's testing package plays for disko's block cache tests,
// grounded on the same "build a fixture, hand back raw bytes" shape.
package testimage

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// Params are the geometry knobs used to build a fixture image. DefaultParams
// returns a small but spec-valid set.
type Params struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	SectorsPerFAT     uint32
	DataClusters      uint32
	StartingLBA       uint32
	RootCluster       uint32
}

// DefaultParams returns a minimal geometry: 512-byte sectors, 1
// sector/cluster, 32 reserved sectors, 2 FATs, and a handful of data
// clusters -- enough to exercise a root directory plus a couple of chained
// files without building a multi-megabyte fixture.
func DefaultParams() Params {
	return Params{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   32,
		NumFATs:           2,
		SectorsPerFAT:     8,
		DataClusters:      16,
		StartingLBA:       1,
		RootCluster:       2,
	}
}

// TotalSectors returns the partition's total sector count implied by p:
// reserved area + both FATs + the data region.
func (p Params) TotalSectors() uint32 {
	return uint32(p.ReservedSectors) + uint32(p.NumFATs)*p.SectorsPerFAT + p.DataClusters*uint32(p.SectorsPerCluster)
}

// Disk assembles a complete disk image: sector 0 is the MBR naming a single
// FAT32LBA partition at p.StartingLBA; the partition's boot sector, FSInfo
// sector, and mirrored FATs follow per p; rootEntries (each a packed 32-byte
// directory record, e.g. from ShortEntry or LongEntry) are written
// back-to-back into the root directory's first cluster. fatOverrides lets a
// test wire up cluster chains beyond the root cluster's implicit
// end-of-chain marker.
func Disk(t *testing.T, p Params, rootEntries [][]byte, fatOverrides map[uint32]uint32) []byte {
	totalSectors := p.TotalSectors()
	imageSectors := p.StartingLBA + totalSectors
	image := make([]byte, uint32(imageSectors)*uint32(p.BytesPerSector))

	writeMBR(image, p)
	writeBootSector(image, p, totalSectors)
	writeFSInfo(image, p)

	entries := map[uint32]uint32{p.RootCluster: 0x0FFFFFFF}
	for k, v := range fatOverrides {
		entries[k] = v
	}
	writeFATs(image, p, entries)

	rootOffset := dataRegionOffset(p) + uint32(p.RootCluster-2)*uint32(p.SectorsPerCluster)*uint32(p.BytesPerSector)
	clusterBytes := uint32(p.SectorsPerCluster) * uint32(p.BytesPerSector)
	require.LessOrEqual(t, uint32(len(rootEntries))*32, clusterBytes, "root entries overflow one cluster")

	cursor := rootOffset
	for _, e := range rootEntries {
		require.Len(t, e, 32, "a packed directory entry must be exactly 32 bytes")
		copy(image[cursor:cursor+32], e)
		cursor += 32
	}

	return image
}

func dataRegionOffset(p Params) uint32 {
	return (p.StartingLBA + uint32(p.ReservedSectors) + uint32(p.NumFATs)*p.SectorsPerFAT) * uint32(p.BytesPerSector)
}

func writeMBR(image []byte, p Params) {
	const (
		partitionTableOffset = 446
		signatureOffset      = 510
	)
	entry := image[partitionTableOffset : partitionTableOffset+16]
	entry[0] = 0x00 // not bootable
	entry[4] = 0x0C // FAT32LBA
	binary.LittleEndian.PutUint32(entry[8:12], p.StartingLBA)
	binary.LittleEndian.PutUint32(entry[12:16], p.TotalSectors())

	binary.LittleEndian.PutUint16(image[signatureOffset:signatureOffset+2], 0xAA55)
}

func writeBootSector(image []byte, p Params, totalSectors uint32) {
	base := p.StartingLBA * uint32(p.BytesPerSector)
	sector := image[base : base+uint32(p.BytesPerSector)]

	sector[0], sector[1], sector[2] = 0xEB, 0x58, 0x90
	copy(sector[3:11], []byte("MSWIN4.1"))
	binary.LittleEndian.PutUint16(sector[11:13], p.BytesPerSector)
	sector[13] = p.SectorsPerCluster
	binary.LittleEndian.PutUint16(sector[14:16], p.ReservedSectors)
	sector[16] = p.NumFATs
	// RootEntryCount, TotSec16, SectorsPerFAT16 all zero: FAT32 signals this
	// via FATSz32 below instead.
	sector[21] = 0xF8 // Media: fixed disk
	binary.LittleEndian.PutUint32(sector[36:40], p.SectorsPerFAT)
	binary.LittleEndian.PutUint32(sector[44:48], p.RootCluster)
	binary.LittleEndian.PutUint16(sector[48:50], 1) // FSInfo sector
	binary.LittleEndian.PutUint16(sector[50:52], 6) // backup boot sector
	sector[64] = 0x80                               // DriveNumber
	sector[66] = 0x29                                // ExBootSignature
	binary.LittleEndian.PutUint32(sector[67:71], 0x12345678)
	copy(sector[71:82], []byte("NO NAME    "))
	copy(sector[82:90], []byte("FAT32   "))

	binary.LittleEndian.PutUint32(sector[32:36], totalSectors) // TotSec32

	binary.LittleEndian.PutUint16(sector[510:512], 0xAA55)
}

func writeFSInfo(image []byte, p Params) {
	base := (p.StartingLBA + 1) * uint32(p.BytesPerSector)
	sector := image[base : base+uint32(p.BytesPerSector)]

	binary.LittleEndian.PutUint32(sector[0:4], 0x41615252)
	binary.LittleEndian.PutUint32(sector[484:488], 0x61417272)
	binary.LittleEndian.PutUint32(sector[488:492], 0xFFFFFFFF) // free count unknown
	binary.LittleEndian.PutUint32(sector[492:496], 0xFFFFFFFF) // next free unknown
	binary.LittleEndian.PutUint32(sector[508:512], 0xAA550000)
}

func writeFATs(image []byte, p Params, entries map[uint32]uint32) {
	fat1Base := (p.StartingLBA + uint32(p.ReservedSectors)) * uint32(p.BytesPerSector)
	fat2Base := fat1Base + p.SectorsPerFAT*uint32(p.BytesPerSector)

	binary.LittleEndian.PutUint32(image[fat1Base:fat1Base+4], 0x0FFFFFF8)
	binary.LittleEndian.PutUint32(image[fat1Base+4:fat1Base+8], 0x0FFFFFFF)

	for cluster, value := range entries {
		off := fat1Base + cluster*4
		binary.LittleEndian.PutUint32(image[off:off+4], value&0x0FFFFFFF)
	}

	copy(image[fat2Base:fat2Base+p.SectorsPerFAT*uint32(p.BytesPerSector)],
		image[fat1Base:fat1Base+p.SectorsPerFAT*uint32(p.BytesPerSector)])
}
