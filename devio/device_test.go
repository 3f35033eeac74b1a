package devio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/fat32vfs/devio"
)

func TestSeekerDeviceReadWriteRoundTrip(t *testing.T) {
	backing := make([]byte, 4*512)
	image := devio.NewMemoryImage(backing)
	dev := devio.NewSeekerDevice(image, image, 512)

	payload := make([]byte, 512)
	for i := range payload {
		payload[i] = byte(i)
	}

	require.NoError(t, dev.Transfer(devio.OpWrite, 2, 1, payload))

	readBack := make([]byte, 512)
	require.NoError(t, dev.Transfer(devio.OpRead, 2, 1, readBack))
	assert.Equal(t, payload, readBack)

	// Sector 1 was never written, still zero.
	untouched := make([]byte, 512)
	require.NoError(t, dev.Transfer(devio.OpRead, 1, 1, untouched))
	assert.Equal(t, make([]byte, 512), untouched)
}

func TestSeekerDeviceBufferTooSmall(t *testing.T) {
	backing := make([]byte, 512)
	image := devio.NewMemoryImage(backing)
	dev := devio.NewSeekerDevice(image, image, 512)

	err := dev.Transfer(devio.OpRead, 0, 1, make([]byte, 10))
	assert.Error(t, err)
}

func TestSeekerDeviceReadOnlyRejectsWrite(t *testing.T) {
	backing := make([]byte, 512)
	image := devio.NewMemoryImage(backing)
	dev := devio.NewSeekerDevice(image, nil, 512)

	err := dev.Transfer(devio.OpWrite, 0, 1, make([]byte, 512))
	assert.Error(t, err)
}

func TestBytesPerSector(t *testing.T) {
	dev := devio.NewSeekerDevice(devio.NewMemoryImage(make([]byte, 512)), nil, 512)
	assert.EqualValues(t, 512, dev.BytesPerSector())
}
