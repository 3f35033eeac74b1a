// Package fat implements the FAT entry engine (Component B) and the
// cluster-chain iterator (Component C) of the FAT32 driver: reading and
// writing 28-bit FAT entries with dual-mirror writes, and translating a
// starting cluster into a lazy sequence of data LBAs.
package fat

import (
	"fmt"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/ferrors"
	"github.com/dargueta/fat32vfs/geometry"
	"github.com/noxer/bytewriter"
)

// ClusterID is a cluster number. Legal data cluster numbers are >= 2.
type ClusterID uint32

const (
	// ClusterFree marks an unallocated cluster.
	ClusterFree ClusterID = 0
	// ClusterReserved is a reserved FAT entry value.
	ClusterReserved ClusterID = 1
	// ClusterEndOfChainMin is the lowest value treated as end-of-chain or a
	// bad cluster marker; spec.md section 3.
	ClusterEndOfChainMin ClusterID = 0x0FFFFFF7

	fatEntryMask   = 0x0FFFFFFF
	fatEntryTopMask = 0xF0000000
)

// IsEndOfChain reports whether cluster is an end-of-chain or bad-cluster
// sentinel (>= 0x0FFFFFF7).
func IsEndOfChain(cluster ClusterID) bool {
	return cluster >= ClusterEndOfChainMin
}

// IsLegalCluster reports whether cluster could name a real data cluster,
// i.e. it is neither free, reserved, nor an end-of-chain/bad marker.
func IsLegalCluster(cluster ClusterID) bool {
	return cluster >= 2 && cluster < ClusterEndOfChainMin
}

// Table is the FAT entry engine for one mounted volume. It holds no cache:
// every read and write goes straight to the device, per spec.md's explicit
// Non-goal on FAT sector caching.
type Table struct {
	dev              devio.BlockTransfer
	geo              *geometry.Geometry
	entriesPerSector uint32
}

// NewTable builds a FAT entry engine over dev using geo's FAT1/FAT2 base
// LBAs.
func NewTable(dev devio.BlockTransfer, geo *geometry.Geometry) *Table {
	return &Table{
		dev:              dev,
		geo:              geo,
		entriesPerSector: uint32(geo.BytesPerSector) / 4,
	}
}

// TotalClusters returns the volume's addressable data cluster count.
func (t *Table) TotalClusters() uint32 {
	return t.geo.TotalClusters()
}

func (t *Table) checkClusterRange(cluster ClusterID) error {
	total := t.TotalClusters()
	if uint32(cluster) < 2 || uint32(cluster) >= total+2 {
		return ferrors.ErrInvalidCluster.WithMessage(
			fmt.Sprintf("cluster %d not in range [2, %d)", cluster, total+2))
	}
	return nil
}

// ReadEntry returns the 28-bit FAT entry for cluster, per spec.md 4.B:
// entries_per_sector = bytes_per_sector / 4; the sector read is
// FAT1_base + cluster / entries_per_sector, and the returned value is
// word[cluster mod entries_per_sector] & 0x0FFFFFFF.
func (t *Table) ReadEntry(cluster ClusterID) (ClusterID, error) {
	if err := t.checkClusterRange(cluster); err != nil {
		return 0, err
	}

	sectorOffset := devio.LBA(uint32(cluster) / t.entriesPerSector)
	sector := t.geo.FAT1Base + sectorOffset

	buffer := make([]byte, t.geo.BytesPerSector)
	if err := t.dev.Transfer(devio.OpRead, sector, 1, buffer); err != nil {
		return 0, ferrors.ErrDeviceIO.WrapError(err)
	}

	wordIndex := uint32(cluster) % t.entriesPerSector
	raw := readUint32LE(buffer[wordIndex*4:])
	return ClusterID(raw & fatEntryMask), nil
}

// WriteEntry performs a read-modify-write of cluster's FAT1 entry,
// preserving the top 4 reserved bits, then writes the identical sector to
// the mirrored offset in FAT2. The two writes are not atomic with respect
// to each other: per spec.md section 5, FAT1 is authoritative if a crash
// occurs between them, so FAT1 is always written first.
func (t *Table) WriteEntry(cluster ClusterID, value ClusterID) error {
	if err := t.checkClusterRange(cluster); err != nil {
		return err
	}

	sectorOffset := devio.LBA(uint32(cluster) / t.entriesPerSector)
	fat1Sector := t.geo.FAT1Base + sectorOffset

	buffer := make([]byte, t.geo.BytesPerSector)
	if err := t.dev.Transfer(devio.OpRead, fat1Sector, 1, buffer); err != nil {
		return ferrors.ErrDeviceIO.WrapError(err)
	}

	wordIndex := uint32(cluster) % t.entriesPerSector
	old := readUint32LE(buffer[wordIndex*4:])
	newWord := (old & fatEntryTopMask) | (uint32(value) & fatEntryMask)

	// Stage the updated sector in a scratch buffer before either transfer
	// goes out, so a failure composing the sector never produces a partial
	// on-disk write to either mirror.
	staged := bytewriter.New()
	if err := writeStagedSector(staged, buffer, wordIndex, newWord); err != nil {
		return ferrors.ErrDeviceIO.WrapError(err)
	}
	out := staged.Bytes()

	if err := t.dev.Transfer(devio.OpWrite, fat1Sector, 1, out); err != nil {
		return ferrors.ErrDeviceIO.WrapError(err)
	}

	if t.geo.NumFATs < 2 {
		return nil
	}

	fat2Sector := t.geo.FAT2Base + sectorOffset
	if err := t.dev.Transfer(devio.OpWrite, fat2Sector, 1, out); err != nil {
		return ferrors.ErrDeviceIO.WrapError(err)
	}

	return nil
}

func writeStagedSector(w *bytewriter.Writer, sector []byte, wordIndex uint32, newWord uint32) error {
	putUint32LE(sector[wordIndex*4:], newWord)
	_, err := w.Write(sector)
	return err
}

func readUint32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
