// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zip

import (
	"errors"
	"fmt"

	"github.com/arkivdev/arkiv/core"
)

type directoryState uint8

const (
	stateLocateEnd directoryState = iota
	stateReadEndRecord
	stateReadZip64Locator
	stateReadZip64EndRecord
	stateReadDirectoryEntry
	stateDone
	stateFaulted
)

func (s directoryState) String() string {
	switch s {
	case stateLocateEnd:
		return "LocateEnd"
	case stateReadEndRecord:
		return "ReadEndRecord"
	case stateReadZip64Locator:
		return "ReadZip64Locator"
	case stateReadZip64EndRecord:
		return "ReadZip64EndRecord"
	case stateReadDirectoryEntry:
		return "ReadDirectoryEntry"
	case stateDone:
		return "Done"
	case stateFaulted:
		return "Faulted"
	default:
		return "invalid"
	}
}

var endSignature = []byte{'P', 'K', 0x05, 0x06}

// DirectoryParser walks a ZIP archive's central directory:
//
//	LocateEnd -> ReadEndRecord -> [ReadZip64Locator -> ReadZip64EndRecord]
//	          -> ReadDirectoryEntry x count -> Done
//
// The end record is located by a bounded backward scan over the archive
// tail; the entry walk is bounded by the entry count validated against the
// declared directory size, so a forged count can never force iteration past
// the bytes actually declared. The parser performs no I/O and holds one
// in-flight record of state; every Advance emits at most one event.
type DirectoryParser struct {
	size uint64

	state directoryState
	fault error

	endOffset uint64
	locOffset uint64
	z64Offset uint64

	summary core.EndSummary

	remaining  uint64
	nextOffset uint64
	dirEnd     uint64

	entry core.Entry
}

// NewDirectoryParser returns a parser for an archive of the given total
// size. The size is the one bound no archive field is allowed to exceed.
func NewDirectoryParser(size int64) *DirectoryParser {
	p := &DirectoryParser{state: stateLocateEnd}
	if size < endRecordLen {
		p.state = stateFaulted
		p.fault = core.Fault(core.ErrMalformed, p.state.String(), "archive size")
		return p
	}
	p.size = uint64(size)
	return p
}

// State returns the current state name, for diagnostics.
func (p *DirectoryParser) State() string { return p.state.String() }

// Done reports whether every structurally relevant record has been read.
func (p *DirectoryParser) Done() bool { return p.state == stateDone }

// Summary returns the archive-level summary once the end record has been
// parsed, nil before that.
func (p *DirectoryParser) Summary() *core.EndSummary {
	if p.state <= stateReadZip64EndRecord && p.state != stateDone {
		return nil
	}
	return &p.summary
}

// Want reports the absolute region the next Advance will read.
func (p *DirectoryParser) Want() (uint64, int) {
	switch p.state {
	case stateLocateEnd, stateReadEndRecord:
		start := uint64(0)
		if p.size > maxEndSearch {
			start = p.size - maxEndSearch
		}
		return start, int(p.size - start)
	case stateReadZip64Locator:
		return p.locOffset, zip64LocatorLen
	case stateReadZip64EndRecord:
		return p.z64Offset, zip64EndRecordLen
	case stateReadDirectoryEntry:
		n := p.dirEnd - p.nextOffset
		if max := uint64(directoryHeaderLen + 3*0xFFFF); n > max {
			n = max
		}
		return p.nextOffset, int(n)
	default:
		return 0, 0
	}
}

// Advance runs one step of the walk against the supplied window.
func (p *DirectoryParser) Advance(w core.Window) (core.Event, error) {
	switch p.state {
	case stateLocateEnd:
		return p.locateEnd(w)
	case stateReadEndRecord:
		return p.readEndRecord(w)
	case stateReadZip64Locator:
		return p.readZip64Locator(w)
	case stateReadZip64EndRecord:
		return p.readZip64EndRecord(w)
	case stateReadDirectoryEntry:
		return p.readDirectoryEntry(w)
	case stateFaulted:
		return core.Event{}, p.fault
	default: // stateDone
		return core.Event{Kind: core.EventNone}, nil
	}
}

// fail transitions to Faulted. The fault is sticky: every later Advance
// returns it unchanged.
func (p *DirectoryParser) fail(err error) (core.Event, error) {
	var f *core.FaultError
	if !errors.As(err, &f) {
		f = &core.FaultError{State: p.state.String(), Err: err}
	}
	p.state = stateFaulted
	p.fault = f
	return core.Event{}, f
}

// step classifies a decode error: a NeedMoreError passes through without
// touching state, anything else is terminal.
func (p *DirectoryParser) step(err error) (core.Event, error) {
	if _, ok := core.NeedMore(err); ok {
		return core.Event{}, err
	}
	return p.fail(err)
}

// locateEnd scans backward over the archive tail for the end record
// signature, accepting the candidate closest to the end whose comment
// length field concords with the archive size. Fake signatures embedded in
// a real record's comment are skipped by the concordance check.
func (p *DirectoryParser) locateEnd(w core.Window) (core.Event, error) {
	required := uint64(0)
	if p.size > maxEndSearch {
		required = p.size - maxEndSearch
	}

	if w.End() < p.size {
		missing := p.size - w.End()
		n := int(min(missing, uint64(maxEndSearch)))
		if n == 0 {
			n = 1
		}
		return core.Event{}, &core.NeedMoreError{Off: w.End(), N: n}
	}

	lo := required
	if w.Base > lo {
		lo = w.Base
	}

	region, err := w.Slice(lo, int(p.size-lo))
	if err != nil {
		return p.step(err)
	}

	for search := region; ; {
		i := core.FindSignatureBackward(search, endSignature, len(search))
		if i < 0 {
			break
		}
		cand := lo + uint64(i)

		// Concordance: the record plus its declared comment must end
		// exactly at the end of the archive.
		if cand+endRecordLen <= p.size {
			c := core.NewCursorAt(w, cand+20)
			if clen, err := c.U16(); err == nil && cand+endRecordLen+uint64(clen) == p.size {
				p.endOffset = cand
				p.state = stateReadEndRecord
				return p.readEndRecord(w)
			}
		}

		search = search[:i]
	}

	if lo > required {
		return core.Event{}, &core.NeedMoreError{Off: required, N: int(lo - required)}
	}
	return p.fail(core.Fault(core.ErrMalformed, p.state.String(), "end of central directory signature"))
}

func (p *DirectoryParser) readEndRecord(w core.Window) (core.Event, error) {
	c := core.NewCursorAt(w, p.endOffset)
	rec, err := decodeEndRecord(&c)
	if err != nil {
		return p.step(err)
	}

	if (rec.DiskNum != 0 && rec.DiskNum != sentinel16) ||
		(rec.DirDisk != 0 && rec.DirDisk != sentinel16) {
		return p.fail(core.Fault(core.ErrUnsupported, p.state.String(), "multi-disk archive"))
	}

	p.summary = core.EndSummary{
		EntryCount:      uint64(rec.TotalEntries),
		DirectoryOffset: uint64(rec.DirOffset32),
		DirectorySize:   uint64(rec.DirSize32),
		Comment:         rec.Comment,
	}

	if rec.TotalEntries == sentinel16 || rec.DirOffset32 == sentinel32 || rec.DirSize32 == sentinel32 {
		if p.endOffset < zip64LocatorLen {
			return p.fail(core.Fault(core.ErrMalformed, p.state.String(), "zip64 locator"))
		}
		p.locOffset = p.endOffset - zip64LocatorLen
		p.state = stateReadZip64Locator
		return p.readZip64Locator(w)
	}

	return p.finishEnd()
}

func (p *DirectoryParser) readZip64Locator(w core.Window) (core.Event, error) {
	c := core.NewCursorAt(w, p.locOffset)
	loc, err := decodeZip64Locator(&c)
	if err != nil {
		return p.step(err)
	}

	if loc.DirDisk != 0 || loc.TotalDisks > 1 {
		return p.fail(core.Fault(core.ErrUnsupported, p.state.String(), "multi-disk archive"))
	}
	if p.locOffset < zip64EndRecordLen || loc.EndOffset > p.locOffset-zip64EndRecordLen {
		return p.fail(core.Fault(core.ErrOutOfRange, p.state.String(), "zip64 end record offset"))
	}

	p.z64Offset = loc.EndOffset
	p.state = stateReadZip64EndRecord
	return p.readZip64EndRecord(w)
}

func (p *DirectoryParser) readZip64EndRecord(w core.Window) (core.Event, error) {
	c := core.NewCursorAt(w, p.z64Offset)
	rec, err := decodeZip64EndRecord(&c)
	if err != nil {
		return p.step(err)
	}

	if rec.DiskNum != 0 || rec.DirDisk != 0 {
		return p.fail(core.Fault(core.ErrUnsupported, p.state.String(), "multi-disk archive"))
	}

	// The zip64 record is authoritative over every field the classic
	// record stored as a sentinel.
	p.summary.EntryCount = rec.TotalEntries
	p.summary.DirectoryOffset = rec.DirOffset
	p.summary.DirectorySize = rec.DirSize
	p.summary.Zip64 = true

	return p.finishEnd()
}

// finishEnd validates the directory bounds and entry count before the walk
// begins, then emits the summary event.
func (p *DirectoryParser) finishEnd() (core.Event, error) {
	s := &p.summary

	bound := p.endOffset
	if s.Zip64 {
		bound = p.z64Offset
	}

	dirEnd, err := core.AddU64(s.DirectoryOffset, s.DirectorySize)
	if err != nil || dirEnd > bound {
		return p.fail(core.Fault(core.ErrOutOfRange, p.state.String(), "central directory bounds"))
	}

	// A forged count cannot exceed what the declared directory size can
	// hold: every entry is at least directoryHeaderLen bytes.
	minBytes, err := core.MulU64(s.EntryCount, directoryHeaderLen)
	if err != nil || minBytes > s.DirectorySize {
		return p.fail(core.Fault(core.ErrOutOfRange, p.state.String(), "entry count"))
	}

	p.remaining = s.EntryCount
	p.nextOffset = s.DirectoryOffset
	p.dirEnd = dirEnd
	if p.remaining == 0 {
		p.state = stateDone
	} else {
		p.state = stateReadDirectoryEntry
	}

	return core.Event{Kind: core.EventEnd, End: s}, nil
}

func (p *DirectoryParser) readDirectoryEntry(w core.Window) (core.Event, error) {
	c := core.NewCursorAt(w, p.nextOffset)
	h, err := decodeDirectoryHeader(&c)
	if err != nil {
		return p.step(err)
	}

	if c.Offset() > p.dirEnd {
		return p.fail(core.Fault(core.ErrOutOfRange, p.state.String(), "entry length"))
	}
	if h.DiskStart != 0 && h.DiskStart != sentinel16 {
		return p.fail(core.Fault(core.ErrUnsupported, p.state.String(), "multi-disk archive"))
	}

	uncompressed := uint64(h.UncompressedSize32)
	compressed := uint64(h.CompressedSize32)
	offset := uint64(h.HeaderOffset32)

	zip64, err := resolveZip64(h.Extra, p.state.String(), &uncompressed, &compressed, &offset)
	if err != nil {
		return p.fail(err)
	}

	if offset >= p.summary.DirectoryOffset {
		return p.fail(core.Fault(core.ErrOutOfRange, p.state.String(), "local header offset"))
	}
	if end, err := core.AddU64(offset+localHeaderLen, compressed); err != nil || end > p.size {
		return p.fail(core.Fault(core.ErrOutOfRange, p.state.String(), "compressed size"))
	}

	p.entry = core.Entry{
		Name:             h.Name,
		Comment:          h.Comment,
		CompressedSize:   compressed,
		UncompressedSize: uncompressed,
		Method:           h.Method,
		Flags:            h.Flags,
		CRC32:            h.CRC32,
		ModTime:          h.ModTime,
		ModDate:          h.ModDate,
		HeaderOffset:     offset,
		Zip64:            zip64,
	}

	p.remaining--
	p.nextOffset = c.Offset()
	if p.remaining == 0 {
		p.state = stateDone
	}

	return core.Event{Kind: core.EventEntry, Entry: &p.entry}, nil
}

// PayloadOffset decodes the local header referenced by a directory entry and
// returns the absolute offset of its payload. The window must cover the
// local header including its variable-length fields.
func PayloadOffset(w core.Window, e *core.Entry) (uint64, error) {
	c := core.NewCursorAt(w, e.HeaderOffset)
	if _, err := decodeLocalHeader(&c); err != nil {
		return 0, fmt.Errorf("local header at %d: %w", e.HeaderOffset, err)
	}
	return c.Offset(), nil
}
