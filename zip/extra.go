// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zip

import (
	"encoding/binary"

	"github.com/arkivdev/arkiv/core"
)

// findExtra walks the tag/size blocks of an extra field and returns the
// payload of the block with the given id, or nil. Truncated trailing blocks
// are ignored, matching what common producers emit.
func findExtra(extra []byte, id uint16) []byte {
	for off := 0; off+4 <= len(extra); {
		tag := binary.LittleEndian.Uint16(extra[off : off+2])
		size := int(binary.LittleEndian.Uint16(extra[off+2 : off+4]))
		off += 4

		if off+size > len(extra) {
			return nil
		}
		if tag == id {
			return extra[off : off+size]
		}
		off += size
	}
	return nil
}

// resolveZip64 substitutes 64-bit values from the ZIP64 extra block into
// every field currently holding the 32-bit sentinel. Fields appear in the
// block in a fixed order (uncompressed size, compressed size, header offset)
// and only sentinel fields are present. A sentinel without a corresponding
// block value is a structural fault, never a fallback to the literal
// sentinel value.
//
// offset may be nil for local headers, which never carry one.
func resolveZip64(extra []byte, state string, uncompressed, compressed, offset *uint64) (bool, error) {
	needU := uncompressed != nil && *uncompressed == sentinel32
	needC := compressed != nil && *compressed == sentinel32
	needO := offset != nil && *offset == sentinel32

	if !needU && !needC && !needO {
		return false, nil
	}

	block := findExtra(extra, zip64ExtraID)
	if block == nil {
		return false, core.Fault(core.ErrMalformed, state, "zip64 extra record")
	}

	pos := 0
	read := func(dst *uint64) error {
		if pos+8 > len(block) {
			return core.Fault(core.ErrMalformed, state, "zip64 extra record")
		}
		*dst = binary.LittleEndian.Uint64(block[pos : pos+8])
		pos += 8
		return nil
	}

	if needU {
		if err := read(uncompressed); err != nil {
			return false, err
		}
	}
	if needC {
		if err := read(compressed); err != nil {
			return false, err
		}
	}
	if needO {
		if err := read(offset); err != nil {
			return false, err
		}
	}

	return true, nil
}

// appendZip64Extra builds the ZIP64 extra block for the given values,
// emitting only the fields the caller marked present, in the fixed order
// the format defines.
func appendZip64Extra(buf []byte, uncompressed, compressed, offset *uint64) []byte {
	n := 0
	if uncompressed != nil {
		n += 8
	}
	if compressed != nil {
		n += 8
	}
	if offset != nil {
		n += 8
	}
	if n == 0 {
		return buf
	}

	buf = binary.LittleEndian.AppendUint16(buf, zip64ExtraID)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(n))
	if uncompressed != nil {
		buf = binary.LittleEndian.AppendUint64(buf, *uncompressed)
	}
	if compressed != nil {
		buf = binary.LittleEndian.AppendUint64(buf, *compressed)
	}
	if offset != nil {
		buf = binary.LittleEndian.AppendUint64(buf, *offset)
	}
	return buf
}
