// Package ferrors defines the error taxonomy for the FAT32 VFS backend.
package ferrors

import (
	"errors"
	"fmt"
	"syscall"
)

// DriverError is a wrapper around a system errno code, with a customizable
// error message, mirroring the error contract the rest of the VFS expects
// from a filesystem driver.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Errno() syscall.Errno
}

type customDriverError struct {
	errno         syscall.Errno
	message       string
	originalError error
}

func (e customDriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.errno.Error()
}

func (e customDriverError) Errno() syscall.Errno {
	return e.errno
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		errno:         e.errno,
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: errors.Join(e, err),
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}

// New creates a new DriverError from an errno code with the errno's default
// message text.
func New(errno syscall.Errno) DriverError {
	return customDriverError{errno: errno, message: errno.Error()}
}

// NewWithMessage creates a new DriverError from an errno code with a custom
// message.
func NewWithMessage(errno syscall.Errno, message string) DriverError {
	return customDriverError{
		errno:   errno,
		message: fmt.Sprintf("%s: %s", errno.Error(), message),
	}
}

// -----------------------------------------------------------------------------
// Sentinel errors from spec.md section 7. Each is tied to the POSIX errno that
// best approximates its meaning, the way errors/errno.go ties disko's error
// taxonomy to syscall.Errno.

var (
	// ErrUnsupportedPartitionScheme means the partition table presented to
	// Mount was not an MBR table, or the selected partition's type code is
	// not a FAT32 one.
	ErrUnsupportedPartitionScheme = New(syscall.ENOTSUP).WithMessage(
		"unsupported partition table scheme, only MBR is supported")

	// ErrInvalidBootSector means the BPB failed signature or sanity checks.
	ErrInvalidBootSector = New(syscall.EINVAL).WithMessage(
		"invalid or unrecognized FAT32 boot sector")

	// ErrDeviceIO wraps a failure from the block-device transfer primitive.
	ErrDeviceIO = New(syscall.EIO).WithMessage("device I/O error")

	// ErrNotFound means a path component could not be resolved.
	ErrNotFound = New(syscall.ENOENT).WithMessage("no such file or directory")

	// ErrCorruptChain means a cluster chain walk found a corrupt FAT: the
	// chain revisits a cluster (so it would exceed the total cluster count
	// without reaching an end-of-chain marker) or steps to a cluster number
	// outside the volume's data region.
	ErrCorruptChain = New(syscall.EUCLEAN).WithMessage(
		"cluster chain exceeds total cluster count; FAT is likely corrupt")

	// ErrRefusedRootInodeWrite means the caller attempted to flush the root
	// inode, which has no backing directory entry.
	ErrRefusedRootInodeWrite = New(syscall.EROFS).WithMessage(
		"refusing to write back the root inode: it has no parent directory entry")

	// ErrNotADirectory means an operation that requires a directory was given
	// a regular file.
	ErrNotADirectory = New(syscall.ENOTDIR)

	// ErrInvalidCluster means a cluster number fell outside the legal range
	// for the volume ([2, totalClusters+2)).
	ErrInvalidCluster = New(syscall.EINVAL).WithMessage("cluster number out of range")
)
