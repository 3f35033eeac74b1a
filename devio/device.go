// Package devio specifies the block-device transfer primitive the FAT32
// driver is built on top of, and provides a concrete adapter for an
// io.ReaderAt/io.WriterAt-backed disk image.
//
// The primitive itself -- moving whole sectors between a device and a memory
// buffer -- is an external collaborator per spec.md section 1: this package
// specifies its interface and offers a reference adapter, but the real
// transfer mechanism (AHCI, NVMe, a loopback file, ...) lives outside this
// module.
package devio

import (
	"fmt"
	"io"

	"github.com/dargueta/fat32vfs/ferrors"
)

// LBA is an absolute, zero-based logical block address. It is never
// partition-relative: callers add the partition's starting LBA themselves.
type LBA uint64

// TransferOp selects the direction of a Transfer call.
type TransferOp int

const (
	OpRead TransferOp = iota
	OpWrite
)

// BlockTransfer is the block-device transfer primitive consumed by every
// other component in this module. A conformant implementation performs a
// contiguous, synchronous transfer of whole sectors; it does not retry on
// failure and does not reorder or coalesce requests.
type BlockTransfer interface {
	// Transfer moves sectorCount sectors beginning at lba between the device
	// and buffer. For OpRead, buffer is filled from the device; for OpWrite,
	// the device is written from buffer. len(buffer) must be at least
	// sectorCount * BytesPerSector().
	Transfer(op TransferOp, lba LBA, sectorCount uint, buffer []byte) error

	// BytesPerSector gives the device's native sector size.
	BytesPerSector() uint16
}

// SeekerDevice adapts any io.ReaderAt/io.WriterAt pair -- for example a
// github.com/xaionaro-go/bytesextra.ReadWriteSeeker wrapping an in-memory
// disk image, or an *os.File opened on a raw device node -- into a
// BlockTransfer. This is the reference adapter used by tests and by the
// fat32lookup CLI; production kernels supply their own BlockTransfer backed
// by the real storage stack.
type SeekerDevice struct {
	stream        io.ReaderAt
	writer        io.WriterAt
	bytesPerSector uint16
}

// NewSeekerDevice wraps stream as a BlockTransfer with the given sector size.
// writer may be nil for a read-only device; Transfer(OpWrite, ...) then
// returns ferrors.ErrDeviceIO.
func NewSeekerDevice(stream io.ReaderAt, writer io.WriterAt, bytesPerSector uint16) *SeekerDevice {
	return &SeekerDevice{stream: stream, writer: writer, bytesPerSector: bytesPerSector}
}

func (d *SeekerDevice) BytesPerSector() uint16 {
	return d.bytesPerSector
}

func (d *SeekerDevice) Transfer(op TransferOp, lba LBA, sectorCount uint, buffer []byte) error {
	need := int(sectorCount) * int(d.bytesPerSector)
	if len(buffer) < need {
		return ferrors.ErrDeviceIO.WithMessage(
			fmt.Sprintf("buffer too small: need %d bytes, got %d", need, len(buffer)))
	}

	offset := int64(lba) * int64(d.bytesPerSector)

	switch op {
	case OpRead:
		n, err := d.stream.ReadAt(buffer[:need], offset)
		if err != nil && err != io.EOF {
			return ferrors.ErrDeviceIO.WrapError(err)
		}
		if n < need {
			return ferrors.ErrDeviceIO.WithMessage(
				fmt.Sprintf("short read at LBA %d: wanted %d bytes, got %d", lba, need, n))
		}
		return nil
	case OpWrite:
		if d.writer == nil {
			return ferrors.ErrDeviceIO.WithMessage("device was opened read-only")
		}
		n, err := d.writer.WriteAt(buffer[:need], offset)
		if err != nil {
			return ferrors.ErrDeviceIO.WrapError(err)
		}
		if n < need {
			return ferrors.ErrDeviceIO.WithMessage(
				fmt.Sprintf("short write at LBA %d: wanted %d bytes, wrote %d", lba, need, n))
		}
		return nil
	default:
		return ferrors.ErrDeviceIO.WithMessage("unknown transfer op")
	}
}
