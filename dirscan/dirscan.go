// Package dirscan implements the directory scanner and LFN matcher,
// Component D of the FAT32 driver (spec.md section 4.D): it iterates
// 32-byte directory entries across a directory's cluster chain,
// reconstructs the Long File Name chain preceding a Short File Name entry,
// and matches a target path component against either.
package dirscan

import (
	"encoding/binary"
	"time"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/fat"
	"github.com/dargueta/fat32vfs/ferrors"
	"github.com/dargueta/fat32vfs/geometry"
	"github.com/dargueta/fat32vfs/lfn"
	"github.com/dargueta/fat32vfs/sfn"
)

// Attribute bits for a short directory entry, spec.md section 6.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = 0x0F
)

const (
	direntSize  = 32
	nameFree    = 0x00
	nameDeleted = 0xE5
	nameE5Lit   = 0x05
)

// Dirent is a resolved directory entry: the fields spec.md section 4.D
// step 5 says lookup must fill in.
type Dirent struct {
	Name         string
	Attr         uint8
	NTRes        uint8
	FirstCluster fat.ClusterID
	FileSize     uint32
	Created      time.Time
	LastModified time.Time

	// LocationCluster and LocationOffset pin down the 32-byte SFN record
	// this Dirent was read from, for write_inode (spec.md section 4.E).
	LocationCluster fat.ClusterID
	LocationOffset  int
}

// IsDir reports whether the entry names a directory.
func (d Dirent) IsDir() bool {
	return d.Attr&AttrDirectory != 0
}

// Scanner reads and matches directory entries over a mounted volume's
// device and FAT.
type Scanner struct {
	dev   devio.BlockTransfer
	geo   *geometry.Geometry
	table *fat.Table
}

// NewScanner builds a Scanner over the given device, geometry, and FAT
// entry engine.
func NewScanner(dev devio.BlockTransfer, geo *geometry.Geometry, table *fat.Table) *Scanner {
	return &Scanner{dev: dev, geo: geo, table: table}
}

func (s *Scanner) readCluster(loc fat.ClusterLocation) ([]byte, error) {
	buffer := make([]byte, int(loc.SectorsPerCluster)*int(s.geo.BytesPerSector))
	if err := s.dev.Transfer(devio.OpRead, loc.DataLBA, uint(loc.SectorsPerCluster), buffer); err != nil {
		return nil, ferrors.ErrDeviceIO.WrapError(err)
	}
	return buffer, nil
}

// Lookup scans parentFirstCluster's cluster chain for a directory entry
// whose name matches target, returning ferrors.ErrNotFound if the chain is
// exhausted (or a 0x00 "free, no further entries" marker is hit) without a
// match.
func (s *Scanner) Lookup(parentFirstCluster fat.ClusterID, target string) (*Dirent, error) {
	chain, err := fat.NewChain(s.table, parentFirstCluster)
	if err != nil {
		return nil, err
	}

	for {
		loc, ok, err := chain.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ferrors.ErrNotFound
		}

		buffer, err := s.readCluster(loc)
		if err != nil {
			return nil, err
		}

		dirent, found, stop := s.scanCluster(buffer, loc.Cluster, target)
		if found {
			return dirent, nil
		}
		if stop {
			return nil, ferrors.ErrNotFound
		}
	}
}

// scanCluster scans one cluster's worth of 32-byte entries for target. If a
// match is found, found is true and dirent is populated. If a 0x00
// first-name-byte terminator is encountered, stop is true: per spec.md
// section 9's resolved Open Question, this driver adopts the canonical
// FAT32 semantics that a free entry with a null first byte ends the
// directory, rather than the source's laxer "skip it" behavior.
func (s *Scanner) scanCluster(buffer []byte, cluster fat.ClusterID, target string) (dirent *Dirent, found bool, stop bool) {
	entriesPerCluster := len(buffer) / direntSize

	for i := 0; i < entriesPerCluster; i++ {
		offset := i * direntSize
		entry := buffer[offset : offset+direntSize]
		attr := entry[11]

		if attr == AttrLongName {
			continue
		}

		switch entry[0] {
		case nameFree:
			return nil, false, true
		case nameDeleted, nameE5Lit:
			continue
		}

		if s.tryMatch(buffer, offset, target) {
			return s.buildDirent(entry, cluster, offset), true, false
		}
	}

	return nil, false, false
}

// tryMatch attempts the LFN match first (spec.md 4.D step 3), falling back
// to the SFN match (step 4) if no LFN chain matches.
func (s *Scanner) tryMatch(buffer []byte, sfnOffset int, target string) bool {
	chain := collectLFNChain(buffer, sfnOffset)
	if len(chain) > 0 && lfn.MatchAgainstChain(chain, target) {
		return true
	}

	entry := buffer[sfnOffset : sfnOffset+direntSize]
	var rawName [sfn.NameLen]byte
	copy(rawName[:], entry[0:11])
	return sfn.Match(rawName, entry[11], entry[12], target)
}

// collectLFNChain walks backward from the SFN at sfnOffset, gathering
// consecutive long entries as long as their attribute is 0x0F and their
// ordinal isn't the deleted marker, per spec.md section 4.D step 3. Entries
// are stored on disk in reverse name order: the fragment with ordinal 1 (the
// start of the name) sits closest to the SFN, and the fragment carrying the
// *end* of the name (0x40 flag set) sits furthest away. The backward walk
// therefore already encounters them in name order (start of the name first),
// which is the order lfn.MatchAgainstChain and lfn.Decode expect. The
// walk never crosses into a previous cluster: an LFN chain split across a
// cluster boundary is not supported, matching the original driver.
func collectLFNChain(buffer []byte, sfnOffset int) []lfn.Entry {
	var entries []lfn.Entry

	for pos := sfnOffset - direntSize; pos >= 0; pos -= direntSize {
		raw := buffer[pos : pos+direntSize]
		if raw[11] != lfn.Attr || raw[0] == lfn.OrdinalDeleted {
			break
		}
		entries = append(entries, lfn.ParseEntry(raw))
	}

	return entries
}

func (s *Scanner) buildDirent(entry []byte, cluster fat.ClusterID, offset int) *Dirent {
	fstClusHI := binary.LittleEndian.Uint16(entry[20:22])
	fstClusLO := binary.LittleEndian.Uint16(entry[26:28])
	fileSize := binary.LittleEndian.Uint32(entry[28:32])

	var rawName [sfn.NameLen]byte
	copy(rawName[:], entry[0:11])
	ntRes := entry[12]

	return &Dirent{
		Name:            sfn.Display(rawName, ntRes&sfn.LowercaseBase != 0, ntRes&sfn.LowercaseExt != 0),
		Attr:            entry[11],
		NTRes:           ntRes,
		FirstCluster:    fat.ClusterID(uint32(fstClusHI)<<16 | uint32(fstClusLO)),
		FileSize:        fileSize,
		Created:         decodeTimestamp(binary.LittleEndian.Uint16(entry[16:18]), binary.LittleEndian.Uint16(entry[14:16]), entry[13]),
		LastModified:    decodeTimestamp(binary.LittleEndian.Uint16(entry[24:26]), binary.LittleEndian.Uint16(entry[22:24]), 0),
		LocationCluster: cluster,
		LocationOffset:  offset,
	}
}

// decodeTimestamp turns a FAT date/time/hundredths triple into a time.Time,
// matching the packing used by the teacher's fat dirent reader.
func decodeTimestamp(datePart, timePart uint16, hundredths uint8) time.Time {
	day := int(datePart & 0x001F)
	month := time.Month((datePart >> 5) & 0x000F)
	year := 1980 + int(datePart>>9)

	seconds := int((timePart & 0x001F) * 2)
	if hundredths >= 100 {
		seconds++
		hundredths -= 100
	}
	minutes := int((timePart >> 5) & 0x003F)
	hours := int(timePart >> 11)
	nanoseconds := int(hundredths) * 10_000_000

	return time.Date(year, month, day, hours, minutes, seconds, nanoseconds, time.UTC)
}
