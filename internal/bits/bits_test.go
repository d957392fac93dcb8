package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetUnsetIsSet(t *testing.T) {
	var b Bits

	b = SetBit(b, 0)
	b = SetBit(b, 5)
	b = SetBit(b, 31)

	assert.True(t, IsSet(b, 0))
	assert.True(t, IsSet(b, 5))
	assert.True(t, IsSet(b, 31))
	assert.False(t, IsSet(b, 1))
	assert.False(t, IsSet(b, 30))

	b = UnsetBit(b, 5)
	assert.False(t, IsSet(b, 5))
	// clearing a clear bit is a no-op
	b = UnsetBit(b, 5)
	assert.False(t, IsSet(b, 5))
	assert.True(t, IsSet(b, 0))
}

func TestLower(t *testing.T) {
	b := Bits(0b1011_0110)

	assert.Equal(t, Bits(0), Lower(b, 0))
	assert.Equal(t, Bits(0b0), Lower(b, 1))
	assert.Equal(t, Bits(0b10), Lower(b, 2))
	assert.Equal(t, Bits(0b110), Lower(b, 3))
	assert.Equal(t, Bits(0b0110), Lower(b, 4))
	assert.Equal(t, b, Lower(b, 8))
	assert.Equal(t, b, Lower(b, Width))
	assert.Equal(t, b, Lower(b, Width+1))
}

func TestString(t *testing.T) {
	assert.Equal(t, "00000000000000000000000000000000", Bits(0).String())
	assert.Equal(t, "00000000000000000000000000000101", Bits(5).String())
	assert.Equal(t, "10000000000000000000000000000000", SetBit(0, 31).String())
}
