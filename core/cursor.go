// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Cursor is a position-tracking view over one window. Every primitive read
// either returns the value and advances the position, or returns a
// NeedMoreError without mutating the cursor, so the caller can supply a
// larger window and retry the same logical read. Bounds are checked before
// any access and offset arithmetic is checked for overflow.
type Cursor struct {
	win Window
	pos uint64 // absolute offset of the next read
}

// NewCursor returns a cursor positioned at the start of the window.
func NewCursor(w Window) Cursor {
	return Cursor{win: w, pos: w.Base}
}

// NewCursorAt returns a cursor positioned at absolute offset off, which need
// not lie within the window; the first read reports NeedMore if it does not.
func NewCursorAt(w Window, off uint64) Cursor {
	return Cursor{win: w, pos: off}
}

// Offset returns the absolute offset of the next read.
func (c *Cursor) Offset() uint64 { return c.pos }

// Remaining returns the number of window bytes left past the cursor, or zero
// when the cursor sits outside the window.
func (c *Cursor) Remaining() int {
	if c.pos < c.win.Base || c.pos > c.win.End() {
		return 0
	}
	return int(c.win.End() - c.pos)
}

// take returns the next n bytes without consuming them.
func (c *Cursor) take(n int) ([]byte, error) {
	return c.win.Slice(c.pos, n)
}

// Bytes returns the next n bytes of the window and advances past them. The
// returned slice aliases the window.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 || uint64(n) > math.MaxUint64-c.pos {
		return nil, fmt.Errorf("%w: span of %d bytes at offset %d", ErrOutOfRange, n, c.pos)
	}
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	c.pos += uint64(n)
	return b, nil
}

// Skip advances the cursor n bytes without touching the window contents. The
// target offset may lie beyond the window; only overflow is rejected.
func (c *Cursor) Skip(n uint64) error {
	if n > math.MaxUint64-c.pos {
		return fmt.Errorf("%w: skip of %d bytes at offset %d", ErrOutOfRange, n, c.pos)
	}
	c.pos += n
	return nil
}

// U8 reads one byte.
func (c *Cursor) U8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	c.pos++
	return b[0], nil
}

// U16 reads a little-endian uint16.
func (c *Cursor) U16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return binary.LittleEndian.Uint16(b), nil
}

// U32 reads a little-endian uint32.
func (c *Cursor) U32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (c *Cursor) U64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	c.pos += 8
	return binary.LittleEndian.Uint64(b), nil
}

// U16BE reads a big-endian uint16. Foreign container formats sniffed by the
// dispatcher use network byte order for some fields.
func (c *Cursor) U16BE() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return binary.BigEndian.Uint16(b), nil
}

// U32BE reads a big-endian uint32.
func (c *Cursor) U32BE() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return binary.BigEndian.Uint32(b), nil
}

// AddU64 returns a+b, or ErrOutOfRange when the sum would wrap. Untrusted
// offset and length fields must be combined through this helper before use.
func AddU64(a, b uint64) (uint64, error) {
	if b > math.MaxUint64-a {
		return 0, fmt.Errorf("%w: %d + %d overflows", ErrOutOfRange, a, b)
	}
	return a + b, nil
}

// MulU64 returns a*b, or ErrOutOfRange when the product would wrap.
func MulU64(a, b uint64) (uint64, error) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, fmt.Errorf("%w: %d * %d overflows", ErrOutOfRange, a, b)
	}
	return a * b, nil
}
