// Package fat32fs is the filesystem_type glue (spec.md section 4.A): it
// reads the MBR, parses the boot sector and FSInfo block, and assembles a
// vfs.Superblock ready for path_walk.
package fat32fs

import (
	"fmt"

	"github.com/dsoprea/go-logging"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/fat"
	"github.com/dargueta/fat32vfs/ferrors"
	"github.com/dargueta/fat32vfs/geometry"
	"github.com/dargueta/fat32vfs/mbr"
	"github.com/dargueta/fat32vfs/vfs"
)

var cl = log.NewLogger("fat32fs")

// Mount reads dev's MBR, locates the partitionIndex'th entry, validates that
// it names a FAT32 partition, and parses the boot sector and FSInfo block at
// the offsets that partition gives, per spec.md section 4.A's mount
// sequence. The first sector of dev is assumed to be the MBR.
func Mount(dev devio.BlockTransfer, partitionIndex int) (*vfs.Superblock, error) {
	cl.Debugf(nil, "mounting partition %d", partitionIndex)

	mbrSector := make([]byte, dev.BytesPerSector())
	if err := dev.Transfer(devio.OpRead, 0, 1, mbrSector); err != nil {
		return nil, ferrors.ErrDeviceIO.WrapError(err)
	}

	table, err := mbr.Parse(mbrSector)
	if err != nil {
		cl.Warningf(nil, "MBR parse failed: %s", err.Error())
		return nil, err
	}

	partition, err := table.ReadPartitionEntry(partitionIndex)
	if err != nil {
		return nil, err
	}
	if !partition.Type.IsFAT32() {
		return nil, ferrors.ErrUnsupportedPartitionScheme.WithMessage(
			fmt.Sprintf("partition %d has type 0x%02x, not a FAT32 type code", partitionIndex, partition.Type))
	}

	startingLBA := devio.LBA(partition.StartingLBA)

	bootSector := make([]byte, dev.BytesPerSector())
	if err := dev.Transfer(devio.OpRead, startingLBA, 1, bootSector); err != nil {
		return nil, ferrors.ErrDeviceIO.WrapError(err)
	}

	geo, err := geometry.Parse(bootSector, startingLBA, partition.TotalSectors)
	if err != nil {
		cl.Warningf(nil, "boot sector parse failed: %s", err.Error())
		return nil, err
	}

	fsInfo, err := geometry.ReadFSInfo(dev, geo.FSInfoSector)
	if err != nil {
		// The FSInfo block is advisory (spec.md section 3): a read failure
		// here doesn't fail the mount, it just means free-space hints are
		// unavailable.
		cl.Warningf(nil, "FSInfo read failed, continuing without hints: %s", err.Error())
		fsInfo = geometry.FSInfo{}
	} else if !fsInfo.Valid() {
		cl.Warningf(nil, "FSInfo signatures invalid, continuing without hints")
	}

	fatTable := fat.NewTable(dev, geo)
	sb := vfs.NewSuperblock(dev, geo, fatTable, fsInfo)

	cl.Debugf(nil, "mounted volume %q: %d bytes/cluster, root cluster %d, media %s",
		geo.VolumeLabel, geo.BytesPerCluster, geo.RootCluster, geometry.DescribeMediaType(geo.Media))

	return sb, nil
}
