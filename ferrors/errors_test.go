package ferrors_test

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dargueta/fat32vfs/ferrors"
)

func TestWithMessage(t *testing.T) {
	err := ferrors.ErrNotFound.WithMessage("readme.txt")
	assert.Contains(t, err.Error(), "readme.txt")
	assert.ErrorIs(t, err, ferrors.ErrNotFound)
	assert.Equal(t, syscall.ENOENT, err.Errno())
}

func TestWrapError(t *testing.T) {
	original := errors.New("short read")
	err := ferrors.ErrDeviceIO.WrapError(original)

	assert.Contains(t, err.Error(), "short read")
	assert.ErrorIs(t, err, original)
	assert.ErrorIs(t, err, ferrors.ErrDeviceIO)
}

func TestNewWithMessage(t *testing.T) {
	err := ferrors.NewWithMessage(syscall.EINVAL, "bad cluster")
	assert.Contains(t, err.Error(), "bad cluster")
	assert.Equal(t, syscall.EINVAL, err.Errno())
}
