// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorReads(t *testing.T) {
	t.Parallel()

	w := Window{Base: 100, Data: []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
	}}
	c := NewCursor(w)

	v8, err := c.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), v8)

	v16, err := c.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), v16)

	v32, err := c.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07060504), v32)

	v64, err := c.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0F0E0D0C0B0A0908), v64)

	assert.Equal(t, uint64(115), c.Offset())
	assert.Equal(t, 0, c.Remaining())
}

func TestCursorBigEndian(t *testing.T) {
	t.Parallel()

	c := NewCursor(Window{Data: []byte{0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC}})

	v16, err := c.U16BE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v16)

	v32, err := c.U32BE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x56789ABC), v32)
}

func TestCursorNeedMoreDoesNotAdvance(t *testing.T) {
	t.Parallel()

	c := NewCursor(Window{Base: 50, Data: []byte{0xAA, 0xBB}})

	_, err := c.U32()
	nm, ok := NeedMore(err)
	require.True(t, ok)
	assert.Equal(t, uint64(50), nm.Off)
	assert.Equal(t, uint64(50), c.Offset(), "failed read must not move the cursor")

	// The shorter read at the same position still works.
	v, err := c.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBBAA), v)
}

func TestCursorOutsideWindow(t *testing.T) {
	t.Parallel()

	c := NewCursorAt(Window{Base: 10, Data: []byte{1, 2, 3}}, 40)

	_, err := c.U8()
	_, ok := NeedMore(err)
	assert.True(t, ok)
	assert.Equal(t, 0, c.Remaining())
}

func TestCursorBytesAliasesWindow(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3, 4}
	c := NewCursor(Window{Data: data})

	b, err := c.Bytes(4)
	require.NoError(t, err)

	data[0] = 9
	assert.Equal(t, byte(9), b[0], "Bytes must alias the window, not copy it")
}

func TestCursorBytesNegative(t *testing.T) {
	t.Parallel()

	c := NewCursor(Window{Data: []byte{1, 2, 3}})
	_, err := c.Bytes(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCursorSkipOverflow(t *testing.T) {
	t.Parallel()

	c := NewCursorAt(Window{}, math.MaxUint64-1)
	assert.ErrorIs(t, c.Skip(2), ErrOutOfRange)

	require.NoError(t, c.Skip(1))
	assert.Equal(t, uint64(math.MaxUint64), c.Offset())
}

func TestCheckedArithmetic(t *testing.T) {
	t.Parallel()

	sum, err := AddU64(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sum)

	_, err = AddU64(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	prod, err := MulU64(6, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), prod)

	_, err = MulU64(math.MaxUint64/2+1, 2)
	assert.ErrorIs(t, err, ErrOutOfRange)

	prod, err = MulU64(0, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), prod)
}
