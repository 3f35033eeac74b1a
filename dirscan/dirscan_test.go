package dirscan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/dirscan"
	"github.com/dargueta/fat32vfs/fat"
	"github.com/dargueta/fat32vfs/geometry"
	"github.com/dargueta/fat32vfs/internal/testimage"
)

func buildScanner(t *testing.T, rootEntries [][]byte, fatOverrides map[uint32]uint32) (*dirscan.Scanner, testimage.Params) {
	p := testimage.DefaultParams()
	image := testimage.Disk(t, p, rootEntries, fatOverrides)
	dev := devio.NewSeekerDevice(devio.NewMemoryImage(image), devio.NewMemoryImage(image), p.BytesPerSector)

	bootSectorOffset := p.StartingLBA * uint32(p.BytesPerSector)
	bootSector := image[bootSectorOffset : bootSectorOffset+uint32(p.BytesPerSector)]
	geo, err := geometry.Parse(bootSector, devio.LBA(p.StartingLBA), p.TotalSectors())
	require.NoError(t, err)

	table := fat.NewTable(dev, geo)
	return dirscan.NewScanner(dev, geo, table), p
}

func TestLookupFindsShortNameFile(t *testing.T) {
	entries := [][]byte{
		testimage.ShortEntry("README", "TXT", 0, 0, 3, 42),
	}
	scanner, _ := buildScanner(t, entries, nil)

	entry, err := scanner.Lookup(2, "README.TXT")
	require.NoError(t, err)
	assert.EqualValues(t, 3, entry.FirstCluster)
	assert.EqualValues(t, 42, entry.FileSize)
	assert.False(t, entry.IsDir())
}

func TestLookupFindsDirectory(t *testing.T) {
	entries := [][]byte{
		testimage.ShortEntry("DIR", "", 0x10, 0, 4, 0),
	}
	scanner, _ := buildScanner(t, entries, nil)

	entry, err := scanner.Lookup(2, "DIR")
	require.NoError(t, err)
	assert.True(t, entry.IsDir())
	assert.EqualValues(t, 4, entry.FirstCluster)
}

func TestLookupUsesLongNameWhenPresent(t *testing.T) {
	sfn := testimage.ShortEntry("README~1", "TXT", 0, 0, 5, 7)
	chain := testimage.LongChain("readme-longer-name.txt", sfn)
	scanner, _ := buildScanner(t, chain, nil)

	entry, err := scanner.Lookup(2, "readme-longer-name.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 5, entry.FirstCluster)
}

func TestLookupSkipsDeletedEntry(t *testing.T) {
	deleted := testimage.ShortEntry("GONE", "TXT", 0, 0, 9, 1)
	deleted[0] = 0xE5
	live := testimage.ShortEntry("HERE", "TXT", 0, 0, 3, 1)

	scanner, _ := buildScanner(t, [][]byte{deleted, live}, nil)

	_, err := scanner.Lookup(2, "GONE.TXT")
	assert.Error(t, err)

	entry, err := scanner.Lookup(2, "HERE.TXT")
	require.NoError(t, err)
	assert.EqualValues(t, 3, entry.FirstCluster)
}

func TestLookupStopsAtFreeMarker(t *testing.T) {
	free := make([]byte, 32) // all-zero: first byte 0x00
	after := testimage.ShortEntry("AFTER", "TXT", 0, 0, 3, 1)

	scanner, _ := buildScanner(t, [][]byte{free, after}, nil)

	_, err := scanner.Lookup(2, "AFTER.TXT")
	assert.Error(t, err)
}

func TestLookupReturnsNotFoundForMissingName(t *testing.T) {
	entries := [][]byte{
		testimage.ShortEntry("README", "TXT", 0, 0, 3, 1),
	}
	scanner, _ := buildScanner(t, entries, nil)

	_, err := scanner.Lookup(2, "NOTHERE.TXT")
	assert.Error(t, err)
}
