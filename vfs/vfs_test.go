package vfs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/fat"
	"github.com/dargueta/fat32vfs/geometry"
	"github.com/dargueta/fat32vfs/internal/testimage"
	"github.com/dargueta/fat32vfs/vfs"
)

func mountedSuperblock(t *testing.T, rootEntries [][]byte, fatOverrides map[uint32]uint32) (*vfs.Superblock, []byte, testimage.Params) {
	p := testimage.DefaultParams()
	image := testimage.Disk(t, p, rootEntries, fatOverrides)
	dev := devio.NewSeekerDevice(devio.NewMemoryImage(image), devio.NewMemoryImage(image), p.BytesPerSector)

	bootSectorOffset := p.StartingLBA * uint32(p.BytesPerSector)
	bootSector := image[bootSectorOffset : bootSectorOffset+uint32(p.BytesPerSector)]
	geo, err := geometry.Parse(bootSector, devio.LBA(p.StartingLBA), p.TotalSectors())
	require.NoError(t, err)

	table := fat.NewTable(dev, geo)
	return vfs.NewSuperblock(dev, geo, table, geometry.FSInfo{}), image, p
}

func TestPathWalkResolvesTopLevelFile(t *testing.T) {
	entries := [][]byte{
		testimage.ShortEntry("README", "TXT", 0, 0, 3, 100),
	}
	sb, _, _ := mountedSuperblock(t, entries, nil)

	dentry, err := vfs.PathWalk(sb, "/README.TXT", vfs.WalkFinal)
	require.NoError(t, err)
	assert.Equal(t, "README.TXT", dentry.Name)
	assert.EqualValues(t, 100, dentry.Inode.Size)
}

func TestPathWalkCachesResolvedChildren(t *testing.T) {
	entries := [][]byte{
		testimage.ShortEntry("README", "TXT", 0, 0, 3, 100),
	}
	sb, _, _ := mountedSuperblock(t, entries, nil)

	first, err := vfs.PathWalk(sb, "/README.TXT", vfs.WalkFinal)
	require.NoError(t, err)

	second, err := vfs.PathWalk(sb, "/README.TXT", vfs.WalkFinal)
	require.NoError(t, err)

	assert.Same(t, first, second, "repeated lookups in the same directory should hit the dentry cache")
}

func TestPathWalkParentOnly(t *testing.T) {
	entries := [][]byte{
		testimage.ShortEntry("README", "TXT", 0, 0, 3, 100),
	}
	sb, _, _ := mountedSuperblock(t, entries, nil)

	parent, err := vfs.PathWalk(sb, "/README.TXT", vfs.WalkParentOnly)
	require.NoError(t, err)
	assert.Same(t, sb.Root, parent)
}

func TestPathWalkRejectsFileAsDirectory(t *testing.T) {
	entries := [][]byte{
		testimage.ShortEntry("README", "TXT", 0, 0, 3, 100),
	}
	sb, _, _ := mountedSuperblock(t, entries, nil)

	_, err := vfs.PathWalk(sb, "/README.TXT/NOPE", vfs.WalkFinal)
	assert.Error(t, err)
}

func TestWriteInodeRefusesRoot(t *testing.T) {
	sb, _, _ := mountedSuperblock(t, nil, nil)
	err := vfs.WriteInode(sb, sb.Root.Inode)
	assert.Error(t, err)
}

func TestWriteInodeFlushesSizeAndCluster(t *testing.T) {
	entries := [][]byte{
		testimage.ShortEntry("README", "TXT", 0, 0, 3, 100),
	}
	sb, image, p := mountedSuperblock(t, entries, map[uint32]uint32{7: 0x0FFFFFFF})

	dentry, err := vfs.PathWalk(sb, "/README.TXT", vfs.WalkFinal)
	require.NoError(t, err)

	dentry.Inode.Size = 999
	dentry.Inode.FirstCluster = 7
	require.NoError(t, vfs.WriteInode(sb, dentry.Inode))

	rootClusterOffset := (p.StartingLBA + uint32(p.ReservedSectors) + uint32(p.NumFATs)*p.SectorsPerFAT) * uint32(p.BytesPerSector)
	record := image[rootClusterOffset : rootClusterOffset+32]

	assert.EqualValues(t, 999, leUint32(record[28:32]))
	assert.EqualValues(t, 7, leUint16(record[26:28]))
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
