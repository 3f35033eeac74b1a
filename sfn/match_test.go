package sfn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dargueta/fat32vfs/sfn"
)

func pack(base, ext string) [sfn.NameLen]byte {
	var out [sfn.NameLen]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[0:8], base)
	copy(out[8:11], ext)
	return out
}

func TestMatchDirectoryNoExtension(t *testing.T) {
	name := pack("DIR", "")
	assert.True(t, sfn.Match(name, 0x10, 0, "DIR"))
	assert.False(t, sfn.Match(name, 0x10, 0, "DIRX"))
}

func TestMatchFileWithLowercaseFlags(t *testing.T) {
	name := pack("README", "TXT")
	ntRes := uint8(sfn.LowercaseBase | sfn.LowercaseExt)
	assert.True(t, sfn.Match(name, 0, ntRes, "readme.txt"))
	assert.False(t, sfn.Match(name, 0, ntRes, "README.TXT"))
}

func TestMatchFileWithoutLowercaseFlags(t *testing.T) {
	name := pack("README", "TXT")
	assert.True(t, sfn.Match(name, 0, 0, "README.TXT"))
	assert.False(t, sfn.Match(name, 0, 0, "readme.txt"))
}

func TestMatchDotAndDotDot(t *testing.T) {
	dot := pack(".", "")
	dotdot := pack("..", "")
	assert.True(t, sfn.Match(dot, 0x10, 0, "."))
	assert.True(t, sfn.Match(dotdot, 0x10, 0, ".."))
}

func TestMatchRejectsPartialPrefix(t *testing.T) {
	name := pack("README", "TXT")
	assert.False(t, sfn.Match(name, 0, 0, "README"))
}
