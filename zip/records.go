// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zip

import (
	"encoding/binary"
	"fmt"

	"github.com/arkivdev/arkiv/core"
)

// LocalHeader is the raw local file header record. The 32-bit size fields
// hold the on-disk values, including ZIP64 sentinels; resolution against the
// extra field happens in the parsers.
type LocalHeader struct {
	VersionNeeded      uint16
	Flags              uint16
	Method             uint16
	ModTime            uint16
	ModDate            uint16
	CRC32              uint32
	CompressedSize32   uint32
	UncompressedSize32 uint32
	Name               []byte // aliases the decoded window
	Extra              []byte // aliases the decoded window
}

// decodeLocalHeader reads a local file header at the cursor position. The
// name and extra lengths are read before the corresponding spans, and the
// span reads are bounds-checked against the window before any access.
func decodeLocalHeader(c *core.Cursor) (LocalHeader, error) {
	var h LocalHeader

	sig, err := c.U32()
	if err != nil {
		return h, err
	}
	if sig != sigLocalHeader {
		return h, fmt.Errorf("%w: expected local file header signature, got %#08x", core.ErrMalformed, sig)
	}

	fields := []*uint16{&h.VersionNeeded, &h.Flags, &h.Method, &h.ModTime, &h.ModDate}
	for _, f := range fields {
		if *f, err = c.U16(); err != nil {
			return h, err
		}
	}
	if h.CRC32, err = c.U32(); err != nil {
		return h, err
	}
	if h.CompressedSize32, err = c.U32(); err != nil {
		return h, err
	}
	if h.UncompressedSize32, err = c.U32(); err != nil {
		return h, err
	}

	nameLen, err := c.U16()
	if err != nil {
		return h, err
	}
	extraLen, err := c.U16()
	if err != nil {
		return h, err
	}

	if h.Name, err = c.Bytes(int(nameLen)); err != nil {
		return h, err
	}
	if h.Extra, err = c.Bytes(int(extraLen)); err != nil {
		return h, err
	}

	return h, nil
}

func appendLocalHeader(buf []byte, h *LocalHeader) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, sigLocalHeader)
	buf = binary.LittleEndian.AppendUint16(buf, h.VersionNeeded)
	buf = binary.LittleEndian.AppendUint16(buf, h.Flags)
	buf = binary.LittleEndian.AppendUint16(buf, h.Method)
	buf = binary.LittleEndian.AppendUint16(buf, h.ModTime)
	buf = binary.LittleEndian.AppendUint16(buf, h.ModDate)
	buf = binary.LittleEndian.AppendUint32(buf, h.CRC32)
	buf = binary.LittleEndian.AppendUint32(buf, h.CompressedSize32)
	buf = binary.LittleEndian.AppendUint32(buf, h.UncompressedSize32)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(h.Name)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(h.Extra)))
	buf = append(buf, h.Name...)
	buf = append(buf, h.Extra...)
	return buf
}

// DirectoryHeader is the raw central directory file header record.
type DirectoryHeader struct {
	VersionMadeBy      uint16
	VersionNeeded      uint16
	Flags              uint16
	Method             uint16
	ModTime            uint16
	ModDate            uint16
	CRC32              uint32
	CompressedSize32   uint32
	UncompressedSize32 uint32
	DiskStart          uint16
	InternalAttrs      uint16
	ExternalAttrs      uint32
	HeaderOffset32     uint32
	Name               []byte // aliases the decoded window
	Extra              []byte // aliases the decoded window
	Comment            []byte // aliases the decoded window
}

func decodeDirectoryHeader(c *core.Cursor) (DirectoryHeader, error) {
	var h DirectoryHeader

	sig, err := c.U32()
	if err != nil {
		return h, err
	}
	if sig != sigDirectoryHeader {
		return h, fmt.Errorf("%w: expected central directory signature, got %#08x", core.ErrMalformed, sig)
	}

	fields := []*uint16{&h.VersionMadeBy, &h.VersionNeeded, &h.Flags, &h.Method, &h.ModTime, &h.ModDate}
	for _, f := range fields {
		if *f, err = c.U16(); err != nil {
			return h, err
		}
	}
	if h.CRC32, err = c.U32(); err != nil {
		return h, err
	}
	if h.CompressedSize32, err = c.U32(); err != nil {
		return h, err
	}
	if h.UncompressedSize32, err = c.U32(); err != nil {
		return h, err
	}

	nameLen, err := c.U16()
	if err != nil {
		return h, err
	}
	extraLen, err := c.U16()
	if err != nil {
		return h, err
	}
	commentLen, err := c.U16()
	if err != nil {
		return h, err
	}

	if h.DiskStart, err = c.U16(); err != nil {
		return h, err
	}
	if h.InternalAttrs, err = c.U16(); err != nil {
		return h, err
	}
	if h.ExternalAttrs, err = c.U32(); err != nil {
		return h, err
	}
	if h.HeaderOffset32, err = c.U32(); err != nil {
		return h, err
	}

	if h.Name, err = c.Bytes(int(nameLen)); err != nil {
		return h, err
	}
	if h.Extra, err = c.Bytes(int(extraLen)); err != nil {
		return h, err
	}
	if h.Comment, err = c.Bytes(int(commentLen)); err != nil {
		return h, err
	}

	return h, nil
}

func appendDirectoryHeader(buf []byte, h *DirectoryHeader) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, sigDirectoryHeader)
	buf = binary.LittleEndian.AppendUint16(buf, h.VersionMadeBy)
	buf = binary.LittleEndian.AppendUint16(buf, h.VersionNeeded)
	buf = binary.LittleEndian.AppendUint16(buf, h.Flags)
	buf = binary.LittleEndian.AppendUint16(buf, h.Method)
	buf = binary.LittleEndian.AppendUint16(buf, h.ModTime)
	buf = binary.LittleEndian.AppendUint16(buf, h.ModDate)
	buf = binary.LittleEndian.AppendUint32(buf, h.CRC32)
	buf = binary.LittleEndian.AppendUint32(buf, h.CompressedSize32)
	buf = binary.LittleEndian.AppendUint32(buf, h.UncompressedSize32)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(h.Name)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(h.Extra)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(h.Comment)))
	buf = binary.LittleEndian.AppendUint16(buf, h.DiskStart)
	buf = binary.LittleEndian.AppendUint16(buf, h.InternalAttrs)
	buf = binary.LittleEndian.AppendUint32(buf, h.ExternalAttrs)
	buf = binary.LittleEndian.AppendUint32(buf, h.HeaderOffset32)
	buf = append(buf, h.Name...)
	buf = append(buf, h.Extra...)
	buf = append(buf, h.Comment...)
	return buf
}

// EndRecord is the raw end of central directory record.
type EndRecord struct {
	DiskNum      uint16
	DirDisk      uint16
	DiskEntries  uint16
	TotalEntries uint16
	DirSize32    uint32
	DirOffset32  uint32
	Comment      []byte // aliases the decoded window
}

// decodeEndRecord reads the end record at the cursor position, including the
// trailing comment. A comment length that places the comment's end past the
// window yields a NeedMoreError, not a fault.
func decodeEndRecord(c *core.Cursor) (EndRecord, error) {
	var r EndRecord

	sig, err := c.U32()
	if err != nil {
		return r, err
	}
	if sig != sigEndRecord {
		return r, fmt.Errorf("%w: expected end of central directory signature, got %#08x", core.ErrMalformed, sig)
	}

	fields := []*uint16{&r.DiskNum, &r.DirDisk, &r.DiskEntries, &r.TotalEntries}
	for _, f := range fields {
		if *f, err = c.U16(); err != nil {
			return r, err
		}
	}
	if r.DirSize32, err = c.U32(); err != nil {
		return r, err
	}
	if r.DirOffset32, err = c.U32(); err != nil {
		return r, err
	}

	commentLen, err := c.U16()
	if err != nil {
		return r, err
	}
	if r.Comment, err = c.Bytes(int(commentLen)); err != nil {
		return r, err
	}

	return r, nil
}

func appendEndRecord(buf []byte, r *EndRecord) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, sigEndRecord)
	buf = binary.LittleEndian.AppendUint16(buf, r.DiskNum)
	buf = binary.LittleEndian.AppendUint16(buf, r.DirDisk)
	buf = binary.LittleEndian.AppendUint16(buf, r.DiskEntries)
	buf = binary.LittleEndian.AppendUint16(buf, r.TotalEntries)
	buf = binary.LittleEndian.AppendUint32(buf, r.DirSize32)
	buf = binary.LittleEndian.AppendUint32(buf, r.DirOffset32)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(r.Comment)))
	buf = append(buf, r.Comment...)
	return buf
}

// Zip64EndRecord is the raw ZIP64 end of central directory record.
type Zip64EndRecord struct {
	RecordSize    uint64
	VersionMadeBy uint16
	VersionNeeded uint16
	DiskNum       uint32
	DirDisk       uint32
	DiskEntries   uint64
	TotalEntries  uint64
	DirSize       uint64
	DirOffset     uint64
}

func decodeZip64EndRecord(c *core.Cursor) (Zip64EndRecord, error) {
	var r Zip64EndRecord

	sig, err := c.U32()
	if err != nil {
		return r, err
	}
	if sig != sigZip64EndRecord {
		return r, fmt.Errorf("%w: expected zip64 end of central directory signature, got %#08x", core.ErrMalformed, sig)
	}

	if r.RecordSize, err = c.U64(); err != nil {
		return r, err
	}
	if r.VersionMadeBy, err = c.U16(); err != nil {
		return r, err
	}
	if r.VersionNeeded, err = c.U16(); err != nil {
		return r, err
	}
	if r.DiskNum, err = c.U32(); err != nil {
		return r, err
	}
	if r.DirDisk, err = c.U32(); err != nil {
		return r, err
	}
	if r.DiskEntries, err = c.U64(); err != nil {
		return r, err
	}
	if r.TotalEntries, err = c.U64(); err != nil {
		return r, err
	}
	if r.DirSize, err = c.U64(); err != nil {
		return r, err
	}
	if r.DirOffset, err = c.U64(); err != nil {
		return r, err
	}

	return r, nil
}

func appendZip64EndRecord(buf []byte, r *Zip64EndRecord) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, sigZip64EndRecord)
	buf = binary.LittleEndian.AppendUint64(buf, r.RecordSize)
	buf = binary.LittleEndian.AppendUint16(buf, r.VersionMadeBy)
	buf = binary.LittleEndian.AppendUint16(buf, r.VersionNeeded)
	buf = binary.LittleEndian.AppendUint32(buf, r.DiskNum)
	buf = binary.LittleEndian.AppendUint32(buf, r.DirDisk)
	buf = binary.LittleEndian.AppendUint64(buf, r.DiskEntries)
	buf = binary.LittleEndian.AppendUint64(buf, r.TotalEntries)
	buf = binary.LittleEndian.AppendUint64(buf, r.DirSize)
	buf = binary.LittleEndian.AppendUint64(buf, r.DirOffset)
	return buf
}

// Zip64Locator is the raw ZIP64 end of central directory locator.
type Zip64Locator struct {
	DirDisk    uint32
	EndOffset  uint64
	TotalDisks uint32
}

func decodeZip64Locator(c *core.Cursor) (Zip64Locator, error) {
	var l Zip64Locator

	sig, err := c.U32()
	if err != nil {
		return l, err
	}
	if sig != sigZip64Locator {
		return l, fmt.Errorf("%w: expected zip64 locator signature, got %#08x", core.ErrMalformed, sig)
	}

	if l.DirDisk, err = c.U32(); err != nil {
		return l, err
	}
	if l.EndOffset, err = c.U64(); err != nil {
		return l, err
	}
	if l.TotalDisks, err = c.U32(); err != nil {
		return l, err
	}

	return l, nil
}

func appendZip64Locator(buf []byte, l *Zip64Locator) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, sigZip64Locator)
	buf = binary.LittleEndian.AppendUint32(buf, l.DirDisk)
	buf = binary.LittleEndian.AppendUint64(buf, l.EndOffset)
	buf = binary.LittleEndian.AppendUint32(buf, l.TotalDisks)
	return buf
}

// DataDescriptor is the trailing record carrying deferred sizes and CRC.
// Both documented forms exist in the wild: with and without the leading
// signature word.
type DataDescriptor struct {
	CRC32              uint32
	CompressedSize32   uint32
	UncompressedSize32 uint32
	HasSignature       bool
}

// decodeDataDescriptor reads a data descriptor at the cursor position,
// accepting either form. The signatureless form is only distinguishable by
// its first word not matching the descriptor signature.
func decodeDataDescriptor(c *core.Cursor) (DataDescriptor, error) {
	var d DataDescriptor

	first, err := c.U32()
	if err != nil {
		return d, err
	}

	if first == sigDataDescriptor {
		d.HasSignature = true
		if d.CRC32, err = c.U32(); err != nil {
			return d, err
		}
	} else {
		d.CRC32 = first
	}

	if d.CompressedSize32, err = c.U32(); err != nil {
		return d, err
	}
	if d.UncompressedSize32, err = c.U32(); err != nil {
		return d, err
	}

	return d, nil
}

func appendDataDescriptor(buf []byte, d *DataDescriptor) []byte {
	if d.HasSignature {
		buf = binary.LittleEndian.AppendUint32(buf, sigDataDescriptor)
	}
	buf = binary.LittleEndian.AppendUint32(buf, d.CRC32)
	buf = binary.LittleEndian.AppendUint32(buf, d.CompressedSize32)
	buf = binary.LittleEndian.AppendUint32(buf, d.UncompressedSize32)
	return buf
}
