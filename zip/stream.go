// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zip

import (
	"fmt"

	"github.com/arkivdev/arkiv/core"
)

type streamState uint8

const (
	streamReadLocalHeader streamState = iota
	streamSkipPayload
	streamReadDescriptor
	streamDone
	streamFaulted
)

func (s streamState) String() string {
	switch s {
	case streamReadLocalHeader:
		return "ReadLocalHeader"
	case streamSkipPayload:
		return "SkipPayload"
	case streamReadDescriptor:
		return "ReadDescriptor"
	case streamDone:
		return "Done"
	case streamFaulted:
		return "Faulted"
	default:
		return "invalid"
	}
}

// StreamParser walks an archive front to back, local header by local
// header, without consulting the central directory. It is the right tool
// when the tail of the archive is not yet available.
//
// Entries written with deferred sizes carry no length in their local
// header, so the parser cannot skip the payload by itself: after such an
// EventLocalHeader the caller must locate the payload end (normally by
// decompressing) and report it with PayloadEnd before calling Advance
// again.
type StreamParser struct {
	size uint64

	state streamState
	fault error

	nextOffset uint64
	descOffset uint64

	seen    uint64
	summary core.EndSummary
	entry   core.Entry
}

// NewStreamParser returns a parser for an archive of the given total size.
func NewStreamParser(size int64) *StreamParser {
	p := &StreamParser{state: streamReadLocalHeader}
	if size < 0 {
		p.state = streamFaulted
		p.fault = core.Fault(core.ErrMalformed, p.state.String(), "archive size")
		return p
	}
	p.size = uint64(size)
	return p
}

// State returns the current state name, for diagnostics.
func (p *StreamParser) State() string { return p.state.String() }

// Done reports whether the walk has reached the central directory or the
// end of the archive.
func (p *StreamParser) Done() bool { return p.state == streamDone }

// Want reports the absolute region the next Advance will read. In the
// SkipPayload state the region is empty: the parser is waiting on
// PayloadEnd, not on bytes.
func (p *StreamParser) Want() (uint64, int) {
	switch p.state {
	case streamReadLocalHeader:
		n := p.size - p.nextOffset
		if max := uint64(localHeaderLen + 2*0xFFFF); n > max {
			n = max
		}
		return p.nextOffset, int(n)
	case streamReadDescriptor:
		return p.descOffset, descriptorSigLen
	default:
		return 0, 0
	}
}

// PayloadEnd reports the absolute offset at which the current entry's
// payload stopped. It is only valid while the parser is waiting after a
// deferred-size local header.
func (p *StreamParser) PayloadEnd(off uint64) error {
	if p.state != streamSkipPayload {
		return fmt.Errorf("%w: no payload pending in state %s", core.ErrOutOfRange, p.state)
	}
	if off < p.entry.PayloadOffset || off > p.size {
		return fmt.Errorf("%w: payload end %d", core.ErrOutOfRange, off)
	}
	p.descOffset = off
	p.state = streamReadDescriptor
	return nil
}

// Advance runs one step of the walk against the supplied window.
func (p *StreamParser) Advance(w core.Window) (core.Event, error) {
	switch p.state {
	case streamReadLocalHeader:
		return p.readLocalHeader(w)
	case streamSkipPayload:
		return core.Event{}, fmt.Errorf("%w: payload end not reported", core.ErrNeedMore)
	case streamReadDescriptor:
		return p.readDescriptor(w)
	case streamFaulted:
		return core.Event{}, p.fault
	default: // streamDone
		return core.Event{Kind: core.EventNone}, nil
	}
}

func (p *StreamParser) fail(err error) (core.Event, error) {
	f, ok := err.(*core.FaultError)
	if !ok {
		f = &core.FaultError{State: p.state.String(), Err: err}
	}
	p.state = streamFaulted
	p.fault = f
	return core.Event{}, f
}

func (p *StreamParser) step(err error) (core.Event, error) {
	if _, ok := core.NeedMore(err); ok {
		return core.Event{}, err
	}
	return p.fail(err)
}

func (p *StreamParser) finish() (core.Event, error) {
	p.summary = core.EndSummary{
		EntryCount:      p.seen,
		DirectoryOffset: p.nextOffset,
	}
	p.state = streamDone
	return core.Event{Kind: core.EventEnd, End: &p.summary}, nil
}

func (p *StreamParser) readLocalHeader(w core.Window) (core.Event, error) {
	if p.nextOffset == p.size {
		return p.finish()
	}

	c := core.NewCursorAt(w, p.nextOffset)
	sig, err := c.U32()
	if err != nil {
		return p.step(err)
	}
	switch sig {
	case sigDirectoryHeader, sigEndRecord, sigZip64EndRecord:
		// Start of the archive's tail structures: the stream of local
		// entries is over.
		return p.finish()
	case sigLocalHeader:
	default:
		return p.fail(core.Fault(core.ErrMalformed, p.state.String(), "local header signature"))
	}

	c = core.NewCursorAt(w, p.nextOffset)
	h, err := decodeLocalHeader(&c)
	if err != nil {
		return p.step(err)
	}

	uncompressed := uint64(h.UncompressedSize32)
	compressed := uint64(h.CompressedSize32)
	zip64, err := resolveZip64(h.Extra, p.state.String(), &uncompressed, &compressed, nil)
	if err != nil {
		return p.fail(err)
	}

	deferred := h.Flags&core.FlagDataDescriptor != 0 && compressed == 0 && h.CRC32 == 0

	p.entry = core.Entry{
		Name:             h.Name,
		CompressedSize:   compressed,
		UncompressedSize: uncompressed,
		Method:           h.Method,
		Flags:            h.Flags,
		CRC32:            h.CRC32,
		ModTime:          h.ModTime,
		ModDate:          h.ModDate,
		HeaderOffset:     p.nextOffset,
		PayloadOffset:    c.Offset(),
		SizesDeferred:    deferred,
		Zip64:            zip64,
	}
	p.seen++

	if deferred {
		p.state = streamSkipPayload
	} else {
		end, err := core.AddU64(p.entry.PayloadOffset, compressed)
		if err != nil || end > p.size {
			return p.fail(core.Fault(core.ErrOutOfRange, p.state.String(), "compressed size"))
		}
		p.nextOffset = end
	}

	return core.Event{Kind: core.EventLocalHeader, Entry: &p.entry}, nil
}

func (p *StreamParser) readDescriptor(w core.Window) (core.Event, error) {
	c := core.NewCursorAt(w, p.descOffset)
	d, err := decodeDataDescriptor(&c)
	if err != nil {
		return p.step(err)
	}

	// The descriptor's compressed size must agree with the span the
	// caller actually consumed.
	span := p.descOffset - p.entry.PayloadOffset
	if uint64(d.CompressedSize32) != span {
		return p.fail(core.Fault(core.ErrMalformed, p.state.String(), "data descriptor compressed size"))
	}

	p.entry.CompressedSize = span
	p.entry.UncompressedSize = uint64(d.UncompressedSize32)
	p.entry.CRC32 = d.CRC32
	p.entry.SizesDeferred = false

	p.nextOffset = c.Offset()
	p.state = streamReadLocalHeader
	return core.Event{Kind: core.EventDataDescriptor, Entry: &p.entry}, nil
}
