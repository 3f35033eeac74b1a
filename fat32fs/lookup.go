package fat32fs

import (
	"github.com/dargueta/fat32vfs/vfs"
)

// Lookup resolves path against the mounted volume sb, logging the outcome
// at debug level. It is a thin wrapper around vfs.PathWalk: the filesystem
// glue's job is orchestration and logging, not path-walking itself.
func Lookup(sb *vfs.Superblock, path string) (*vfs.Dentry, error) {
	dentry, err := vfs.PathWalk(sb, path, vfs.WalkFinal)
	if err != nil {
		cl.Debugf(nil, "lookup %q failed: %s", path, err.Error())
		return nil, err
	}

	cl.Debugf(nil, "lookup %q resolved to first cluster %d", path, dentry.Inode.FirstCluster)
	return dentry, nil
}

// Flush writes inode's SFN record back to disk and logs the outcome.
func Flush(sb *vfs.Superblock, inode *vfs.Inode) error {
	if err := vfs.WriteInode(sb, inode); err != nil {
		cl.Warningf(nil, "flush failed: %s", err.Error())
		return err
	}
	cl.Debugf(nil, "flushed inode, size now %d", inode.Size)
	return nil
}

// Unmount releases the superblock's cached state.
func Unmount(sb *vfs.Superblock) {
	cl.Debugf(nil, "unmounting volume %q", sb.Geo.VolumeLabel)
	vfs.PutSuperblock(sb)
}
