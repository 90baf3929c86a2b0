// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package handle mirrors the parsing surface across a foreign function
// boundary: opaque int64 handles, flat status codes instead of wrapped
// errors, and scalar accessors instead of shared structs. No error value
// and no panic ever crosses the boundary.
package handle

import (
	"errors"
	"sync"

	"github.com/arkivdev/arkiv"
	"github.com/arkivdev/arkiv/core"
)

// Status is the flat result code of every boundary call. Zero means OK.
type Status int32

const (
	StatusOK Status = iota
	StatusNeedMore
	StatusEnd
	StatusMalformed
	StatusOutOfRange
	StatusUnsupported
	StatusUnknownFormat
	StatusCapacity
	StatusBadHandle
	StatusInternal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNeedMore:
		return "need more"
	case StatusEnd:
		return "end"
	case StatusMalformed:
		return "malformed"
	case StatusOutOfRange:
		return "out of range"
	case StatusUnsupported:
		return "unsupported"
	case StatusUnknownFormat:
		return "unknown format"
	case StatusCapacity:
		return "capacity exceeded"
	case StatusBadHandle:
		return "bad handle"
	case StatusInternal:
		return "internal"
	default:
		return "invalid"
	}
}

// Event kinds as flat codes, matching core.EventKind.
const (
	EventNone           = int32(core.EventNone)
	EventEnd            = int32(core.EventEnd)
	EventEntry          = int32(core.EventEntry)
	EventLocalHeader    = int32(core.EventLocalHeader)
	EventDataDescriptor = int32(core.EventDataDescriptor)
)

// Format codes accepted by New, matching arkiv.Format.
const (
	FormatUnknown  = int32(arkiv.FormatUnknown)
	FormatZip      = int32(arkiv.FormatZip)
	FormatTar      = int32(arkiv.FormatTar)
	FormatSevenZip = int32(arkiv.FormatSevenZip)
	FormatRar      = int32(arkiv.FormatRar)
)

func statusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, core.ErrNeedMore):
		return StatusNeedMore
	case errors.Is(err, core.ErrMalformed):
		return StatusMalformed
	case errors.Is(err, core.ErrOutOfRange):
		return StatusOutOfRange
	case errors.Is(err, core.ErrUnsupported):
		return StatusUnsupported
	case errors.Is(err, core.ErrUnknownFormat):
		return StatusUnknownFormat
	case errors.Is(err, core.ErrCapacity):
		return StatusCapacity
	default:
		return StatusInternal
	}
}

// EntryStat is the scalar projection of the current entry. Variable-length
// fields travel separately through EntryName and EntryComment.
type EntryStat struct {
	CompressedSize   uint64
	UncompressedSize uint64
	HeaderOffset     uint64
	PayloadOffset    uint64
	CRC32            uint32
	Method           uint16
	Flags            uint16
	SizesDeferred    bool
	Zip64            bool
}

// EndStat is the scalar projection of the archive summary.
type EndStat struct {
	EntryCount      uint64
	DirectoryOffset uint64
	DirectorySize   uint64
	Zip64           bool
}

type session struct {
	mu sync.Mutex

	machine core.Machine
	buf     []byte
	bufCap  int
	win     core.Window
	fed     bool

	entry core.Entry
	end   core.EndSummary
	last  int32
}

var (
	mu       sync.Mutex
	sessions = make(map[int64]*session)
	lastID   int64
)

func get(h int64) *session {
	mu.Lock()
	defer mu.Unlock()
	return sessions[h]
}

// New creates a walker session for a detected format over an archive of
// the given total size. bufCap caps how many bytes one Feed may transfer;
// it bounds the session's memory regardless of what the peer sends.
func New(format int32, size int64, bufCap int) (h int64, st Status) {
	defer backstop(&st)

	if bufCap <= 0 {
		return 0, StatusOutOfRange
	}
	m, err := arkiv.NewMachine(arkiv.Format(format), size)
	if err != nil {
		return 0, statusOf(err)
	}

	s := &session{machine: m, bufCap: bufCap}
	mu.Lock()
	lastID++
	h = lastID
	sessions[h] = s
	mu.Unlock()
	return h, StatusOK
}

// Feed supplies the window the next Poll will parse. The bytes are copied;
// the caller's buffer is not retained. Data larger than the session's
// buffer cap is refused with StatusCapacity.
func Feed(h int64, base uint64, data []byte) (st Status) {
	defer backstop(&st)

	s := get(h)
	if s == nil {
		return StatusBadHandle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data) > s.bufCap {
		return StatusCapacity
	}
	if s.buf == nil {
		s.buf = make([]byte, 0, s.bufCap)
	}
	s.buf = append(s.buf[:0], data...)
	s.win = core.Window{Base: base, Data: s.buf}
	s.fed = true
	return StatusOK
}

// Poll advances the walker one step against the last fed window. On
// StatusOK the event kind is returned and its fields become readable via
// the accessors; StatusNeedMore means Feed must supply the region reported
// by NeededBytes; StatusEnd means the walk is over.
func Poll(h int64) (kind int32, st Status) {
	defer backstop(&st)

	s := get(h)
	if s == nil {
		return EventNone, StatusBadHandle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fed {
		return EventNone, StatusNeedMore
	}
	if s.machine.Done() {
		return EventNone, StatusEnd
	}

	ev, err := s.machine.Advance(s.win)
	if err != nil {
		return EventNone, statusOf(err)
	}
	if ev.Kind == core.EventNone {
		return EventNone, StatusEnd
	}

	if ev.Entry != nil {
		s.entry = ev.Entry.Clone()
	}
	if ev.End != nil {
		s.end = *ev.End
		s.end.Comment = append([]byte(nil), ev.End.Comment...)
	}
	s.last = int32(ev.Kind)
	return s.last, StatusOK
}

// NeededBytes reports the absolute region the walker wants next.
func NeededBytes(h int64) (off uint64, n int64, st Status) {
	defer backstop(&st)

	s := get(h)
	if s == nil {
		return 0, 0, StatusBadHandle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	wantOff, wantN := s.machine.Want()
	return wantOff, int64(wantN), StatusOK
}

// EntryStatOf returns the scalar fields of the most recent entry event.
func EntryStatOf(h int64) (stat EntryStat, st Status) {
	defer backstop(&st)

	s := get(h)
	if s == nil {
		return EntryStat{}, StatusBadHandle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &s.entry
	return EntryStat{
		CompressedSize:   e.CompressedSize,
		UncompressedSize: e.UncompressedSize,
		HeaderOffset:     e.HeaderOffset,
		PayloadOffset:    e.PayloadOffset,
		CRC32:            e.CRC32,
		Method:           e.Method,
		Flags:            e.Flags,
		SizesDeferred:    e.SizesDeferred,
		Zip64:            e.Zip64,
	}, StatusOK
}

// EntryName copies the most recent entry's name into dst and returns its
// length. A dst smaller than the name is refused with StatusCapacity; the
// required length is still returned so the caller can retry.
func EntryName(h int64, dst []byte) (n int, st Status) {
	defer backstop(&st)

	s := get(h)
	if s == nil {
		return 0, StatusBadHandle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyField(dst, s.entry.Name)
}

// EntryComment is EntryName for the entry comment.
func EntryComment(h int64, dst []byte) (n int, st Status) {
	defer backstop(&st)

	s := get(h)
	if s == nil {
		return 0, StatusBadHandle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyField(dst, s.entry.Comment)
}

// ArchiveComment is EntryName for the archive comment.
func ArchiveComment(h int64, dst []byte) (n int, st Status) {
	defer backstop(&st)

	s := get(h)
	if s == nil {
		return 0, StatusBadHandle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyField(dst, s.end.Comment)
}

// EndStatOf returns the scalar fields of the archive summary event.
func EndStatOf(h int64) (stat EndStat, st Status) {
	defer backstop(&st)

	s := get(h)
	if s == nil {
		return EndStat{}, StatusBadHandle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return EndStat{
		EntryCount:      s.end.EntryCount,
		DirectoryOffset: s.end.DirectoryOffset,
		DirectorySize:   s.end.DirectorySize,
		Zip64:           s.end.Zip64,
	}, StatusOK
}

// Close releases the session. Closing an unknown or already closed handle
// reports StatusBadHandle.
func Close(h int64) (st Status) {
	defer backstop(&st)

	mu.Lock()
	defer mu.Unlock()
	if _, ok := sessions[h]; !ok {
		return StatusBadHandle
	}
	delete(sessions, h)
	return StatusOK
}

func copyField(dst, src []byte) (int, Status) {
	if len(src) > len(dst) {
		return len(src), StatusCapacity
	}
	copy(dst, src)
	return len(src), StatusOK
}

// backstop converts a runtime panic into StatusInternal. Nothing in the
// library is expected to panic on any input; this is the boundary's last
// line, not a control-flow mechanism.
func backstop(st *Status) {
	if recover() != nil {
		*st = StatusInternal
	}
}
