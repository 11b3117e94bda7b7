package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFirstFreeIsLSBFirstWithinAByte(t *testing.T) {
	dev := newMemDevice(4)
	r := freemapRange{start: 0, end: 1}

	// Set bit 1 (the least significant bit of byte 0) so the scanner should
	// report bit 2 next, per the ascending-significance contract.
	var buf [BlockSize]byte
	buf[0] = 1 << 0
	require.NoError(t, dev.WriteBlock(0, buf[:]))

	rel, byteIdx, bit, err := scanFirstFree(dev, r)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rel)
	assert.EqualValues(t, 0, byteIdx)
	assert.EqualValues(t, 2, bit, "scanner should pick the next-least-significant free bit")
}

func TestAllocateNumberingIsAscendingFromLSB(t *testing.T) {
	dev := newMemDevice(4)
	r := freemapRange{start: 0, end: 1}

	n0, err := allocate(dev, r)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n0, "first allocation should be object number 0 (bit 0 of byte 0)")

	n1, err := allocate(dev, r)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n1)
}

func TestAllocateExhaustsRangeWithNoSpace(t *testing.T) {
	dev := newMemDevice(1)
	r := freemapRange{start: 0, end: 1}

	var full [BlockSize]byte
	for i := range full {
		full[i] = 0xFF
	}
	require.NoError(t, dev.WriteBlock(0, full[:]))

	_, err := allocate(dev, r)
	require.ErrorIs(t, err, ErrNoSpace)
}

func TestClearBitUndoesAllocate(t *testing.T) {
	dev := newMemDevice(1)
	r := freemapRange{start: 0, end: 1}

	n, err := allocate(dev, r)
	require.NoError(t, err)

	set, err := testBit(dev, r, n)
	require.NoError(t, err)
	assert.True(t, set)

	require.NoError(t, clearBit(dev, r, n))

	set, err = testBit(dev, r, n)
	require.NoError(t, err)
	assert.False(t, set)
}
