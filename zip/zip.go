// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zip implements the ZIP backend: incremental, allocation-free
// parsing and writing of ZIP structural metadata.
//
// The package locates and decodes the four structural record types — local
// file headers, central directory file headers, the end of central directory
// record, and data descriptors — plus the ZIP64 extensions, without ever
// touching payload bytes. Compressed spans are exposed to the caller by
// offset and length; decompression is out of scope.
//
// Two parsers cover the two traversal orders the format supports:
//
//   - [DirectoryParser] walks the central directory, located through a
//     bounded backward scan over the archive tail. This is the authoritative
//     listing of an archive's members.
//   - [StreamParser] walks local file headers front to back, for streaming
//     contexts where the central directory is not reachable yet.
//
// Both are driven window-by-window by the caller and hold at most one
// in-flight record of state; see the [core.Machine] contract. [Writer]
// serializes the symmetric records back to a caller sink, selecting the
// ZIP64 record forms deterministically whenever a size, offset or count
// exceeds the 32-bit (or 16-bit) field range.
package zip

// Record signatures. Each begins with the two byte marker "PK".
const (
	sigLocalHeader     uint32 = 0x04034b50
	sigDirectoryHeader uint32 = 0x02014b50
	sigEndRecord       uint32 = 0x06054b50
	sigZip64EndRecord  uint32 = 0x06064b50
	sigZip64Locator    uint32 = 0x07064b50
	sigDataDescriptor  uint32 = 0x08074b50
)

// Fixed record sizes, excluding variable-length fields.
const (
	localHeaderLen     = 30
	directoryHeaderLen = 46
	endRecordLen       = 22
	zip64EndRecordLen  = 56 // the fixed portion actually written, size field 44
	zip64LocatorLen    = 20
	descriptorLen      = 12
	descriptorSigLen   = 16
)

// Sentinels activating the ZIP64 encoding per field.
const (
	sentinel16 = 0xFFFF
	sentinel32 = 0xFFFFFFFF
)

// zip64ExtraID identifies the extra field block carrying 64-bit sizes and
// offsets for fields stored as sentinels.
const zip64ExtraID uint16 = 0x0001

// maxEndSearch bounds the backward scan for the end record: the record's own
// comment length field is 16 bits wide, so the record starts within the last
// 22+65535 bytes of the archive.
const maxEndSearch = endRecordLen + 0xFFFF

// Method identifies a compression method as recorded in entry headers. The
// engine never decodes payloads; the identifier is surfaced as-is.
type Method uint16

// Compression methods defined by the ZIP specification.
const (
	Stored    Method = 0
	Deflated  Method = 8
	Deflate64 Method = 9
	BZIP2     Method = 12
	LZMA      Method = 14
	ZStandard Method = 93
)

func (m Method) String() string {
	switch m {
	case Stored:
		return "stored"
	case Deflated:
		return "deflated"
	case Deflate64:
		return "deflate64"
	case BZIP2:
		return "bzip2"
	case LZMA:
		return "lzma"
	case ZStandard:
		return "zstd"
	default:
		return "unknown"
	}
}
