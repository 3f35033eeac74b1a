package geometry

import (
	"bytes"
	"encoding/binary"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/ferrors"
)

const (
	fsInfoLeadSignature  = 0x41615252
	fsInfoStrucSignature = 0x61417272
)

// rawFSInfo is the on-disk layout of the subset of the FSInfo sector this
// driver consumes: the two signatures bracketing the free-cluster and
// next-free hints.
type rawFSInfo struct {
	LeadSignature  uint32
	_              [480]byte
	StrucSignature uint32
	FreeCount      uint32
	NextFree       uint32
	_              [12]byte
	TrailSignature uint32
}

// FSInfo is the informational snapshot of the FSInfo sector: free-cluster
// count and next-free-cluster hints. Per spec.md section 3 these are
// advisory only and are never required for lookup or chain-walk
// correctness.
type FSInfo struct {
	FreeClusterCount uint32
	NextFreeCluster  uint32
	valid            bool
}

// Valid reports whether both FSInfo signatures were present. An invalid
// FSInfo sector is not a mount error: the hints are simply treated as
// unknown.
func (f FSInfo) Valid() bool {
	return f.valid
}

// ReadFSInfo reads the FSInfo sector via dev and parses its signatures and
// hint fields.
func ReadFSInfo(dev devio.BlockTransfer, fsInfoSector devio.LBA) (FSInfo, error) {
	buffer := make([]byte, dev.BytesPerSector())
	if err := dev.Transfer(devio.OpRead, fsInfoSector, 1, buffer); err != nil {
		return FSInfo{}, ferrors.ErrDeviceIO.WrapError(err)
	}

	var raw rawFSInfo
	if err := binary.Read(bytes.NewReader(buffer), binary.LittleEndian, &raw); err != nil {
		return FSInfo{}, ferrors.ErrDeviceIO.WrapError(err)
	}

	info := FSInfo{
		FreeClusterCount: raw.FreeCount,
		NextFreeCluster:  raw.NextFree,
		valid:            raw.LeadSignature == fsInfoLeadSignature && raw.StrucSignature == fsInfoStrucSignature,
	}
	return info, nil
}
