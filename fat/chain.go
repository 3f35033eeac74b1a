package fat

import (
	"github.com/boljen/go-bitmap"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/ferrors"
)

// ClusterLocation is one element of a cluster-chain walk: the cluster
// number, the LBA of its first sector, and the volume's sectors-per-cluster
// (carried along so callers don't need to thread the geometry through).
type ClusterLocation struct {
	Cluster           ClusterID
	DataLBA           devio.LBA
	SectorsPerCluster uint8
}

// Chain is a lazy, non-restartable iterator over a cluster chain, per
// spec.md section 4.C: each traversal re-reads the FAT and terminates when
// the next FAT entry is >= 0x0FFFFFF7. It guards against corrupt,
// self-referential FATs by bounding the walk to the volume's total cluster
// count, using a bitmap.Bitmap (rather than a growing slice-membership
// scan) to recognize a revisited cluster in O(1) -- the same allocator
// pattern disko's drivers/common/allocatormap.go uses for free-block
// tracking.
type Chain struct {
	table   *Table
	visited bitmap.Bitmap
	current ClusterID
	started bool
	done    bool
}

// NewChain starts a lazy walk of the cluster chain beginning at start. The
// walk is not valid until the first call to Next.
func NewChain(table *Table, start ClusterID) (*Chain, error) {
	if !IsLegalCluster(start) {
		return nil, ferrors.ErrInvalidCluster.WithMessage("chain cannot start at an invalid cluster")
	}

	return &Chain{
		table:   table,
		visited: bitmap.New(int(table.TotalClusters()) + 2),
		current: start,
	}, nil
}

// Next returns the next cluster location in the chain, or ok=false once the
// chain is exhausted. An error return means the FAT is corrupt (a cycle, an
// out-of-range cluster, or more clusters than TotalClusters) and the walk
// stops at that point.
func (c *Chain) Next() (loc ClusterLocation, ok bool, err error) {
	if c.done {
		return ClusterLocation{}, false, nil
	}

	if !c.started {
		c.started = true
	} else {
		next, readErr := c.table.ReadEntry(c.current)
		if readErr != nil {
			c.done = true
			return ClusterLocation{}, false, readErr
		}
		if IsEndOfChain(next) {
			c.done = true
			return ClusterLocation{}, false, nil
		}
		c.current = next
	}

	if !IsLegalCluster(c.current) || c.table.checkClusterRange(c.current) != nil {
		c.done = true
		return ClusterLocation{}, false, ferrors.ErrCorruptChain.WithMessage(
			"chain stepped to an invalid or out-of-range cluster")
	}

	bitIndex := int(c.current)
	if c.visited.Get(bitIndex) {
		c.done = true
		return ClusterLocation{}, false, ferrors.ErrCorruptChain.WithMessage(
			"cluster chain loops back on itself")
	}
	c.visited.Set(bitIndex, true)

	loc = c.toLocation(c.current)
	return loc, true, nil
}

func (c *Chain) toLocation(cluster ClusterID) ClusterLocation {
	geo := c.table.geo
	lba := geo.FirstDataSector + devio.LBA(uint32(cluster-2)*uint32(geo.SectorsPerCluster))
	return ClusterLocation{
		Cluster:           cluster,
		DataLBA:           lba,
		SectorsPerCluster: geo.SectorsPerCluster,
	}
}

// ClusterToLBA converts a cluster number directly to its data LBA without
// walking a chain, per spec.md section 8's invariant:
// cluster_to_LBA(c) = first_data_sector + (c - 2) * sectors_per_cluster.
func (t *Table) ClusterToLBA(cluster ClusterID) (devio.LBA, error) {
	if err := t.checkClusterRange(cluster); err != nil {
		return 0, err
	}
	return t.geo.FirstDataSector + devio.LBA(uint32(cluster-2)*uint32(t.geo.SectorsPerCluster)), nil
}
