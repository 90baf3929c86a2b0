// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zip

import (
	"fmt"
	"hash/crc32"

	"github.com/arkivdev/arkiv/core"
)

const (
	versionDefault = 20
	versionZip64   = 45
)

type writerState uint8

const (
	writerOpen writerState = iota
	writerInEntry
	writerFinished
)

// EntryInfo describes an entry to be written. Name is required; everything
// else has a usable zero value. For Stored payloads the writer derives the
// CRC and uncompressed size itself, for compressed payloads the caller
// supplies them.
type EntryInfo struct {
	Name             []byte
	Comment          []byte
	Method           Method
	Flags            uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	UncompressedSize uint64
}

type writerEntry struct {
	name         []byte
	comment      []byte
	method       uint16
	flags        uint16
	modTime      uint16
	modDate      uint16
	crc          uint32
	compressed   uint64
	uncompressed uint64
	headerOffset uint64
	zip64        bool
}

// Writer emits a well-formed archive to a Sink, block by block in file
// order: local headers and payloads as entries are added, the central
// directory and end records on Finish. One scratch buffer is reused for
// every record, so the only allocations after construction are directory
// bookkeeping and name copies.
//
// ZIP64 records are emitted exactly when a value cannot be represented in
// its classic field, so the same logical content always produces the same
// bytes.
type Writer struct {
	sink core.Sink
	buf  []byte

	offset  uint64
	entries []writerEntry
	comment []byte
	state   writerState
	err     error

	cur     writerEntry
	curSpan uint64
	curCRC  uint32
}

// NewWriter returns a Writer emitting to sink.
func NewWriter(sink core.Sink) *Writer {
	return &Writer{sink: sink, buf: make([]byte, 0, 512)}
}

// Offset returns the number of bytes emitted so far.
func (w *Writer) Offset() uint64 { return w.offset }

// SetComment sets the archive comment written with the end record.
func (w *Writer) SetComment(comment []byte) error {
	if len(comment) > 0xFFFF {
		return fmt.Errorf("%w: archive comment length %d", core.ErrOutOfRange, len(comment))
	}
	w.comment = append([]byte(nil), comment...)
	return nil
}

func (w *Writer) flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.sink.WriteBlock(w.buf); err != nil {
		w.err = err
		return err
	}
	w.offset += uint64(len(w.buf))
	return nil
}

func (w *Writer) checkInfo(info *EntryInfo) error {
	if w.err != nil {
		return w.err
	}
	if w.state != writerOpen {
		return fmt.Errorf("%w: writer state", core.ErrOutOfRange)
	}
	if len(info.Name) == 0 || len(info.Name) > 0xFFFF {
		return fmt.Errorf("%w: entry name length %d", core.ErrOutOfRange, len(info.Name))
	}
	if len(info.Comment) > 0xFFFF {
		return fmt.Errorf("%w: entry comment length %d", core.ErrOutOfRange, len(info.Comment))
	}
	return nil
}

func (w *Writer) record(info *EntryInfo) writerEntry {
	return writerEntry{
		name:         append([]byte(nil), info.Name...),
		comment:      append([]byte(nil), info.Comment...),
		method:       uint16(info.Method),
		flags:        info.Flags,
		modTime:      info.ModTime,
		modDate:      info.ModDate,
		headerOffset: w.offset,
	}
}

// localHeader builds the local header for e, attaching a ZIP64 extra block
// holding both sizes when either one overflows its classic field.
func localHeader(e *writerEntry, deferred bool) LocalHeader {
	h := LocalHeader{
		VersionNeeded: versionDefault,
		Flags:         e.flags,
		Method:        e.method,
		ModTime:       e.modTime,
		ModDate:       e.modDate,
		Name:          e.name,
	}

	if deferred {
		h.Flags |= core.FlagDataDescriptor
		return h
	}

	h.CRC32 = e.crc
	if e.compressed >= sentinel32 || e.uncompressed >= sentinel32 {
		e.zip64 = true
		h.VersionNeeded = versionZip64
		h.CompressedSize32 = sentinel32
		h.UncompressedSize32 = sentinel32
		h.Extra = appendZip64Extra(nil, &e.uncompressed, &e.compressed, nil)
	} else {
		h.CompressedSize32 = uint32(e.compressed)
		h.UncompressedSize32 = uint32(e.uncompressed)
	}
	return h
}

// AddEntry writes a complete entry: local header followed by payload. For
// the Stored method the payload is the file content verbatim and the
// writer fills in CRC and sizes; for any other method payload holds the
// already compressed bytes and info must carry CRC32 and UncompressedSize.
func (w *Writer) AddEntry(info EntryInfo, payload []byte) error {
	if err := w.checkInfo(&info); err != nil {
		return err
	}

	e := w.record(&info)
	e.compressed = uint64(len(payload))
	if info.Method == Stored {
		e.uncompressed = uint64(len(payload))
		e.crc = crc32.ChecksumIEEE(payload)
	} else {
		e.uncompressed = info.UncompressedSize
		e.crc = info.CRC32
	}

	h := localHeader(&e, false)
	w.buf = appendLocalHeader(w.buf[:0], &h)
	if err := w.flush(); err != nil {
		return err
	}

	w.buf = append(w.buf[:0], payload...)
	if err := w.flush(); err != nil {
		return err
	}

	w.entries = append(w.entries, e)
	return nil
}

// BeginEntry starts a streaming entry whose sizes are not yet known. The
// local header is written with zero sizes and the descriptor flag set;
// payload bytes follow via Write and the trailing descriptor via EndEntry.
func (w *Writer) BeginEntry(info EntryInfo) error {
	if err := w.checkInfo(&info); err != nil {
		return err
	}

	e := w.record(&info)
	h := localHeader(&e, true)
	w.buf = appendLocalHeader(w.buf[:0], &h)
	if err := w.flush(); err != nil {
		return err
	}

	e.flags |= core.FlagDataDescriptor
	w.cur = e
	w.curSpan = 0
	w.curCRC = 0
	w.state = writerInEntry
	return nil
}

// Write emits payload bytes for the entry opened by BeginEntry.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.state != writerInEntry {
		return 0, fmt.Errorf("%w: no open entry", core.ErrOutOfRange)
	}

	w.buf = append(w.buf[:0], p...)
	if err := w.flush(); err != nil {
		return 0, err
	}
	w.curSpan += uint64(len(p))
	if Method(w.cur.method) == Stored {
		w.curCRC = crc32.Update(w.curCRC, crc32.IEEETable, p)
	}
	return len(p), nil
}

// EndEntry closes a streaming entry by writing its data descriptor. For
// the Stored method pass zero values and the writer derives both; for
// other methods the caller supplies the uncompressed size and CRC.
func (w *Writer) EndEntry(uncompressedSize uint64, crc uint32) error {
	if w.err != nil {
		return w.err
	}
	if w.state != writerInEntry {
		return fmt.Errorf("%w: no open entry", core.ErrOutOfRange)
	}
	if w.curSpan >= sentinel32 || uncompressedSize >= sentinel32 {
		return fmt.Errorf("%w: deferred sizes beyond 4 GiB", core.ErrUnsupported)
	}

	e := w.cur
	e.compressed = w.curSpan
	if Method(e.method) == Stored {
		e.uncompressed = w.curSpan
		e.crc = w.curCRC
	} else {
		e.uncompressed = uncompressedSize
		e.crc = crc
	}

	d := DataDescriptor{
		CRC32:              e.crc,
		CompressedSize32:   uint32(e.compressed),
		UncompressedSize32: uint32(e.uncompressed),
		HasSignature:       true,
	}
	w.buf = appendDataDescriptor(w.buf[:0], &d)
	if err := w.flush(); err != nil {
		return err
	}

	w.entries = append(w.entries, e)
	w.state = writerOpen
	return nil
}

// directoryHeader builds the central record for e, escaping each
// overflowing field into the ZIP64 extra block individually.
func directoryHeader(e *writerEntry) DirectoryHeader {
	h := DirectoryHeader{
		VersionMadeBy: versionDefault,
		VersionNeeded: versionDefault,
		Flags:         e.flags,
		Method:        e.method,
		ModTime:       e.modTime,
		ModDate:       e.modDate,
		CRC32:         e.crc,
		Name:          e.name,
		Comment:       e.comment,
	}

	var uncompressed, compressed, offset *uint64
	if e.uncompressed >= sentinel32 {
		h.UncompressedSize32 = sentinel32
		uncompressed = &e.uncompressed
	} else {
		h.UncompressedSize32 = uint32(e.uncompressed)
	}
	if e.compressed >= sentinel32 {
		h.CompressedSize32 = sentinel32
		compressed = &e.compressed
	} else {
		h.CompressedSize32 = uint32(e.compressed)
	}
	if e.headerOffset >= sentinel32 {
		h.HeaderOffset32 = sentinel32
		offset = &e.headerOffset
	} else {
		h.HeaderOffset32 = uint32(e.headerOffset)
	}

	if uncompressed != nil || compressed != nil || offset != nil {
		e.zip64 = true
		h.VersionNeeded = versionZip64
		h.Extra = appendZip64Extra(nil, uncompressed, compressed, offset)
	}
	return h
}

// Finish writes the central directory and the end records. The Writer is
// unusable afterwards.
func (w *Writer) Finish() error {
	if w.err != nil {
		return w.err
	}
	if w.state != writerOpen {
		return fmt.Errorf("%w: writer state", core.ErrOutOfRange)
	}

	dirOffset := w.offset
	for i := range w.entries {
		h := directoryHeader(&w.entries[i])
		w.buf = appendDirectoryHeader(w.buf[:0], &h)
		if err := w.flush(); err != nil {
			return err
		}
	}
	dirSize := w.offset - dirOffset

	count := uint64(len(w.entries))
	needZip64 := count >= sentinel16 || dirSize >= sentinel32 || dirOffset >= sentinel32

	if needZip64 {
		z := Zip64EndRecord{
			RecordSize:    zip64EndRecordLen - 12,
			VersionMadeBy: versionZip64,
			VersionNeeded: versionZip64,
			DiskEntries:   count,
			TotalEntries:  count,
			DirSize:       dirSize,
			DirOffset:     dirOffset,
		}
		z64Offset := w.offset
		w.buf = appendZip64EndRecord(w.buf[:0], &z)
		loc := Zip64Locator{EndOffset: z64Offset, TotalDisks: 1}
		w.buf = appendZip64Locator(w.buf, &loc)
		if err := w.flush(); err != nil {
			return err
		}
	}

	end := EndRecord{Comment: w.comment}
	if count >= sentinel16 {
		end.DiskEntries = sentinel16
		end.TotalEntries = sentinel16
	} else {
		end.DiskEntries = uint16(count)
		end.TotalEntries = uint16(count)
	}
	if dirSize >= sentinel32 {
		end.DirSize32 = sentinel32
	} else {
		end.DirSize32 = uint32(dirSize)
	}
	if dirOffset >= sentinel32 {
		end.DirOffset32 = sentinel32
	} else {
		end.DirOffset32 = uint32(dirOffset)
	}
	w.buf = appendEndRecord(w.buf[:0], &end)
	if err := w.flush(); err != nil {
		return err
	}

	w.state = writerFinished
	return nil
}
