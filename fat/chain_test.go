package fat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/fat"
	"github.com/dargueta/fat32vfs/ferrors"
	"github.com/dargueta/fat32vfs/internal/testimage"
)

func TestChainWalksMultipleClusters(t *testing.T) {
	p := testimage.DefaultParams()
	image := testimage.Disk(t, p, nil, map[uint32]uint32{
		3: 4,
		4: 5,
		5: 0x0FFFFFFF,
	})
	table, _ := mountedTable(t, p, image)

	chain, err := fat.NewChain(table, 3)
	require.NoError(t, err)

	var seen []fat.ClusterID
	for {
		loc, ok, err := chain.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, loc.Cluster)
	}

	assert.Equal(t, []fat.ClusterID{3, 4, 5}, seen)
}

func TestChainDetectsCycle(t *testing.T) {
	p := testimage.DefaultParams()
	image := testimage.Disk(t, p, nil, map[uint32]uint32{
		3: 4,
		4: 3,
	})
	table, _ := mountedTable(t, p, image)

	chain, err := fat.NewChain(table, 3)
	require.NoError(t, err)

	_, _, _ = chain.Next()
	_, _, _ = chain.Next()
	_, _, err = chain.Next()
	assert.ErrorIs(t, err, ferrors.ErrCorruptChain)
}

func TestClusterToLBAMatchesInvariant(t *testing.T) {
	p := testimage.DefaultParams()
	image := testimage.Disk(t, p, nil, nil)
	table, geo := mountedTable(t, p, image)

	lba, err := table.ClusterToLBA(4)
	require.NoError(t, err)
	assert.EqualValues(t, geo.FirstDataSector+devio.LBA(uint32(4-2)*uint32(geo.SectorsPerCluster)), lba)
}
