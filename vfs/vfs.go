// Package vfs implements Component E of the FAT32 driver: the superblock,
// inode, and dentry contracts a kernel VFS layer expects from a mounted
// filesystem, plus path_walk and write_inode built on top of Component D's
// directory scanner.
package vfs

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/dargueta/fat32vfs/devio"
	"github.com/dargueta/fat32vfs/dirscan"
	"github.com/dargueta/fat32vfs/fat"
	"github.com/dargueta/fat32vfs/ferrors"
	"github.com/dargueta/fat32vfs/geometry"
)

// WalkFlags controls path_walk's handling of the final path component.
type WalkFlags int

const (
	// WalkFinal resolves every component, including the last.
	WalkFinal WalkFlags = 0
	// WalkParentOnly resolves every component except the last, returning the
	// parent directory's dentry; the final component is left unresolved for
	// the caller to create or inspect itself.
	WalkParentOnly WalkFlags = 1
)

// Inode is the in-memory representation of one file or directory, carrying
// exactly the fields needed to read its data and to write its SFN record
// back out (spec.md section 3).
type Inode struct {
	FirstCluster fat.ClusterID
	Size         uint32
	Attr         uint8
	NTRes        uint8

	// dentryCluster and dentryOffset locate this inode's 32-byte SFN record
	// within its parent directory, for write_inode. The root inode has no
	// backing record: both are zero and isRoot is true.
	dentryCluster fat.ClusterID
	dentryOffset  int
	isRoot        bool
}

// IsDir reports whether the inode names a directory.
func (i *Inode) IsDir() bool {
	return i.Attr&dirscan.AttrDirectory != 0
}

// Dentry links a name to an Inode within its parent directory, and caches
// the children resolved under it so repeated lookups in the same directory
// don't re-scan the device.
type Dentry struct {
	Name     string
	Inode    *Inode
	Parent   *Dentry
	children []*Dentry
}

// child finds a cached child dentry by name, or nil if not yet resolved.
func (d *Dentry) child(name string) *Dentry {
	i, found := slices.BinarySearchFunc(d.children, name, func(c *Dentry, target string) int {
		return strings.Compare(c.Name, target)
	})
	if !found {
		return nil
	}
	return d.children[i]
}

// addChild inserts child into d's cache in name-sorted order, keeping it
// searchable by child() above.
func (d *Dentry) addChild(child *Dentry) {
	i, found := slices.BinarySearchFunc(d.children, child.Name, func(c *Dentry, target string) int {
		return strings.Compare(c.Name, target)
	})
	if found {
		d.children[i] = child
		return
	}
	d.children = slices.Insert(d.children, i, child)
}

// Superblock is the per-mount state: the device, geometry, FAT engine, and
// directory scanner produced by a successful mount, plus the dentry/inode of
// the volume root.
type Superblock struct {
	Device  devio.BlockTransfer
	Geo     *geometry.Geometry
	Table   *fat.Table
	Scanner *dirscan.Scanner
	Root    *Dentry

	// FSInfo is the advisory free-cluster snapshot read at mount time
	// (spec.md section 3). It is never required for lookup or chain-walk
	// correctness and may be the zero value if the FSInfo sector couldn't
	// be read or failed its signature check -- check FSInfo.Valid().
	FSInfo geometry.FSInfo
}

// rootInode builds the Inode for a volume's root directory. The root has no
// SFN record of its own -- it's named by BPB_RootClus, not a directory
// entry -- so its size is reported as zero and write_inode refuses it.
func rootInode(geo *geometry.Geometry) *Inode {
	return &Inode{
		FirstCluster: fat.ClusterID(geo.RootCluster),
		Attr:         dirscan.AttrDirectory,
		isRoot:       true,
	}
}

// NewSuperblock assembles a Superblock from an already-parsed geometry, FAT
// engine, and FSInfo snapshot, as produced by fat32fs.Mount, and seeds its
// root dentry.
func NewSuperblock(dev devio.BlockTransfer, geo *geometry.Geometry, table *fat.Table, fsInfo geometry.FSInfo) *Superblock {
	scanner := dirscan.NewScanner(dev, geo, table)
	root := &Dentry{Name: "/", Inode: rootInode(geo)}

	return &Superblock{
		Device:  dev,
		Geo:     geo,
		Table:   table,
		Scanner: scanner,
		Root:    root,
		FSInfo:  fsInfo,
	}
}

// PathWalk resolves path (an absolute, '/'-separated path rooted at the
// volume root) to a Dentry, per spec.md section 4.E. With flags ==
// WalkParentOnly, the last path component is not resolved: path_walk
// returns the dentry of its containing directory instead, leaving the
// caller to inspect or create the final component itself.
func PathWalk(sb *Superblock, path string, flags WalkFlags) (*Dentry, error) {
	components := splitPath(path)
	if flags == WalkParentOnly && len(components) > 0 {
		components = components[:len(components)-1]
	}

	current := sb.Root
	for _, name := range components {
		next, err := resolveChild(sb, current, name)
		if err != nil {
			return nil, err
		}
		current = next
	}

	return current, nil
}

func splitPath(path string) []string {
	var out []string
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveChild looks up name within parent, directory-entry semantics per
// spec.md section 4.D, consulting and populating parent's dentry cache.
func resolveChild(sb *Superblock, parent *Dentry, name string) (*Dentry, error) {
	if !parent.Inode.IsDir() {
		return nil, ferrors.ErrNotADirectory
	}

	if cached := parent.child(name); cached != nil {
		return cached, nil
	}

	entry, err := sb.Scanner.Lookup(parent.Inode.FirstCluster, name)
	if err != nil {
		return nil, err
	}

	inode := &Inode{
		FirstCluster:  entry.FirstCluster,
		Size:          entry.FileSize,
		Attr:          entry.Attr,
		NTRes:         entry.NTRes,
		dentryCluster: entry.LocationCluster,
		dentryOffset:  entry.LocationOffset,
	}
	dentry := &Dentry{Name: name, Inode: inode, Parent: parent}
	parent.addChild(dentry)

	return dentry, nil
}

// WriteInode flushes inode's size and first-cluster fields back to its SFN
// record, per spec.md section 4.E: a read-modify-write of the cluster
// holding the record, preserving the top 4 reserved bits of DIR_FstClusHI.
// The root inode has no backing record and is always refused.
func WriteInode(sb *Superblock, inode *Inode) error {
	if inode.isRoot {
		return ferrors.ErrRefusedRootInodeWrite
	}

	loc, err := clusterLocation(sb, inode.dentryCluster)
	if err != nil {
		return err
	}

	buffer := make([]byte, int(loc.SectorsPerCluster)*int(sb.Geo.BytesPerSector))
	if err := sb.Device.Transfer(devio.OpRead, loc.DataLBA, uint(loc.SectorsPerCluster), buffer); err != nil {
		return ferrors.ErrDeviceIO.WrapError(err)
	}

	record := buffer[inode.dentryOffset : inode.dentryOffset+32]

	fstClusHI := uint16(inode.FirstCluster>>16) & 0x0FFF
	preserved := (uint16(record[20]) | uint16(record[21])<<8) & 0xF000
	putUint16LE(record[20:22], preserved|fstClusHI)
	putUint16LE(record[26:28], uint16(inode.FirstCluster&0xFFFF))
	putUint32LE(record[28:32], inode.Size)

	if err := sb.Device.Transfer(devio.OpWrite, loc.DataLBA, uint(loc.SectorsPerCluster), buffer); err != nil {
		return ferrors.ErrDeviceIO.WrapError(err)
	}

	return nil
}

func clusterLocation(sb *Superblock, cluster fat.ClusterID) (fat.ClusterLocation, error) {
	lba, err := sb.Table.ClusterToLBA(cluster)
	if err != nil {
		return fat.ClusterLocation{}, err
	}
	return fat.ClusterLocation{
		Cluster:           cluster,
		DataLBA:           lba,
		SectorsPerCluster: sb.Geo.SectorsPerCluster,
	}, nil
}

// PutSuperblock releases a mounted volume. This driver holds no dirty
// in-memory state beyond what WriteInode already flushes synchronously, so
// releasing amounts to dropping the dentry cache; it exists as an explicit
// step because the VFS contract (spec.md section 3) requires a superblock
// release hook regardless.
func PutSuperblock(sb *Superblock) {
	sb.Root.children = nil
}

func putUint16LE(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
