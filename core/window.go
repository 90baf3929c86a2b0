// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import "fmt"

// Window is a borrowed, caller-owned span of archive bytes together with its
// absolute offset in the logical archive stream. The engine never copies or
// retains a window beyond the call it was supplied to; byte slices carried by
// emitted events alias the window and are only valid until the caller reuses
// the underlying buffer.
type Window struct {
	Base uint64
	Data []byte
}

// End returns the absolute offset one past the last byte of the window.
func (w Window) End() uint64 { return w.Base + uint64(len(w.Data)) }

// Contains reports whether the region [off, off+n) lies within the window.
func (w Window) Contains(off uint64, n int) bool {
	if off < w.Base || n < 0 {
		return false
	}
	rel := off - w.Base
	return rel <= uint64(len(w.Data)) && uint64(n) <= uint64(len(w.Data))-rel
}

// Slice returns the n bytes at absolute offset off, or a NeedMoreError when
// the window does not cover them.
func (w Window) Slice(off uint64, n int) ([]byte, error) {
	if !w.Contains(off, n) {
		return nil, &NeedMoreError{Off: off, N: n}
	}
	rel := off - w.Base
	return w.Data[rel : rel+uint64(n)], nil
}

// Provider is the byte-window capability a caller implements to let the
// high-level driver pull archive bytes on demand. It may be backed by a file,
// a memory buffer, or a network stream; random access is only exercised where
// a backend's algorithm requires it (the ZIP backward scan reads near the end
// of the stream).
type Provider interface {
	// Size returns the total size of the archive in bytes.
	Size() int64

	// ReadWindow returns a window of up to n bytes starting at off. The
	// returned window may be shorter than n when the archive ends first.
	// The window's bytes stay valid until the next ReadWindow call.
	ReadWindow(off int64, n int) (Window, error)
}

// BytesProvider adapts an in-memory archive to the Provider interface.
type BytesProvider []byte

func (b BytesProvider) Size() int64 { return int64(len(b)) }

func (b BytesProvider) ReadWindow(off int64, n int) (Window, error) {
	if off < 0 || n < 0 || off > int64(len(b)) {
		return Window{}, fmt.Errorf("%w: window [%d, +%d) outside archive of %d bytes",
			ErrOutOfRange, off, n, len(b))
	}
	end := off + int64(n)
	if end > int64(len(b)) {
		end = int64(len(b))
	}
	return Window{Base: uint64(off), Data: b[off:end]}, nil
}

// Sink is the output capability a writer serializes into. Ordering of blocks
// is significant and must be preserved by the implementation.
type Sink interface {
	WriteBlock(p []byte) error
}

// SliceSink accumulates written blocks into a byte slice.
type SliceSink struct {
	Buf []byte
}

func (s *SliceSink) WriteBlock(p []byte) error {
	s.Buf = append(s.Buf, p...)
	return nil
}

// Bytes returns the accumulated output.
func (s *SliceSink) Bytes() []byte { return s.Buf }
