package devio

import (
	"sync"

	"github.com/xaionaro-go/bytesextra"
)

// MemoryImage adapts a plain in-memory disk image (a []byte) into the
// io.ReaderAt/io.WriterAt pair SeekerDevice requires, the way a real kernel
// would adapt a raw device node. It is the backing store used by this
// module's tests; the fat32lookup CLI passes its opened image file to
// SeekerDevice directly instead.
type MemoryImage struct {
	mu     sync.Mutex
	stream *bytesextra.ReadWriteSeeker
}

// NewMemoryImage wraps data as a seekable stream. Mutations to the returned
// MemoryImage are visible in data since bytesextra.ReadWriteSeeker operates
// on the slice in place.
func NewMemoryImage(data []byte) *MemoryImage {
	return &MemoryImage{stream: bytesextra.NewReadWriteSeeker(data)}
}

func (m *MemoryImage) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.stream.Seek(off, 0); err != nil {
		return 0, err
	}
	return m.stream.Read(p)
}

func (m *MemoryImage) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.stream.Seek(off, 0); err != nil {
		return 0, err
	}
	return m.stream.Write(p)
}
