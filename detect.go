// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arkiv

import (
	"bytes"

	"github.com/arkivdev/arkiv/core"
)

// Format identifies a container format by its signature.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatSevenZip
	FormatRar
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatSevenZip:
		return "7z"
	case FormatRar:
		return "rar"
	default:
		return "unknown"
	}
}

// tar has no leading magic; the ustar field sits at offset 257 inside the
// first header block, so detection may need up to 262 bytes.
const (
	tarMagicOffset  = 257
	detectPrefixLen = tarMagicOffset + 5
)

var (
	magicZipLocal   = []byte{'P', 'K', 0x03, 0x04}
	magicZipEmpty   = []byte{'P', 'K', 0x05, 0x06}
	magicZipCentral = []byte{'P', 'K', 0x01, 0x02}
	magicSevenZip   = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicRar4       = []byte("Rar!\x1a\x07\x00")
	magicRar5       = []byte("Rar!\x1a\x07\x01\x00")
	magicTar        = []byte("ustar")
)

func matchHead(prefix []byte, magic []byte) bool {
	return len(prefix) >= len(magic) && bytes.Equal(prefix[:len(magic)], magic)
}

// Detect identifies the format of an input from its leading bytes. prefix
// holds the first bytes of the input and total is the input's full size.
//
// A short prefix that could still turn into a match yields a NeedMoreError
// naming the missing region; a prefix long enough to rule everything out
// yields ErrUnknownFormat. Detection never reads beyond the first
// detectPrefixLen bytes.
func Detect(prefix []byte, total int64) (Format, error) {
	if total >= 0 && int64(len(prefix)) > total {
		prefix = prefix[:total]
	}

	// RAR 4 and 5 share a 7-byte prefix; test the longer magic first.
	switch {
	case matchHead(prefix, magicRar5):
		return FormatRar, nil
	case matchHead(prefix, magicRar4):
		return FormatRar, nil
	case matchHead(prefix, magicSevenZip):
		return FormatSevenZip, nil
	case matchHead(prefix, magicZipLocal), matchHead(prefix, magicZipEmpty), matchHead(prefix, magicZipCentral):
		return FormatZip, nil
	}

	if len(prefix) >= detectPrefixLen &&
		bytes.Equal(prefix[tarMagicOffset:tarMagicOffset+len(magicTar)], magicTar) {
		return FormatTar, nil
	}

	// Nothing matched yet. If the input still holds undecided bytes the
	// verdict is not final.
	need := int64(detectPrefixLen)
	if total >= 0 && total < need {
		need = total
	}
	if int64(len(prefix)) < need {
		return FormatUnknown, &core.NeedMoreError{Off: uint64(len(prefix)), N: int(need - int64(len(prefix)))}
	}
	return FormatUnknown, core.ErrUnknownFormat
}
