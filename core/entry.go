// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import "bytes"

// General purpose bit flags shared by ZIP-family records. Other formats map
// their own flags onto the semantically comparable bits where possible.
const (
	FlagEncrypted      uint16 = 0x0001 // payload is encrypted
	FlagDataDescriptor uint16 = 0x0008 // sizes and CRC follow the payload
	FlagUTF8Name       uint16 = 0x0800 // name and comment are UTF-8
)

// Entry is the uniform shape of one archive member's structural metadata.
//
// Name and Comment are raw byte spans; the engine performs no encoding
// interpretation. Timestamp fields are format-native (MS-DOS encoding for
// ZIP) with no calendar conversion. When an entry was produced by a parser,
// Name and Comment alias the window the entry was parsed from and must be
// copied by callers that retain them; the high-level driver does this when
// accumulating an Index.
type Entry struct {
	Name    []byte
	Comment []byte

	CompressedSize   uint64
	UncompressedSize uint64

	Method uint16 // compression method identifier, format-native
	Flags  uint16 // raw general purpose bit flags
	CRC32  uint32 // raw, unverified

	ModTime uint16 // format-native time encoding
	ModDate uint16 // format-native date encoding

	HeaderOffset  uint64 // offset of the entry's header record
	PayloadOffset uint64 // offset of the payload start, when known

	// SizesDeferred marks streaming entries whose sizes and CRC are only
	// authoritative after the trailing data descriptor has been read.
	SizesDeferred bool

	// Zip64 records that the 64-bit extension encoded this entry's sizes
	// or offset.
	Zip64 bool
}

// Encrypted reports whether the payload is encrypted.
func (e *Entry) Encrypted() bool { return e.Flags&FlagEncrypted != 0 }

// UsesDescriptor reports whether sizes and CRC trail the payload in a data
// descriptor record.
func (e *Entry) UsesDescriptor() bool { return e.Flags&FlagDataDescriptor != 0 }

// UTF8Name reports whether the producer declared the name and comment to be
// UTF-8 encoded.
func (e *Entry) UTF8Name() bool { return e.Flags&FlagUTF8Name != 0 }

// Clone returns a deep copy of the entry whose byte spans no longer alias
// the window they were parsed from.
func (e *Entry) Clone() Entry {
	out := *e
	out.Name = bytes.Clone(e.Name)
	out.Comment = bytes.Clone(e.Comment)
	return out
}

// Index is an ordered sequence of entries produced by a directory walk.
// Insertion order is on-disk order. Duplicate names are legal in most
// container formats and are preserved, never deduplicated.
type Index struct {
	entries []Entry
}

// Append adds a deep copy of the entry to the index.
func (x *Index) Append(e *Entry) {
	x.entries = append(x.entries, e.Clone())
}

// Len returns the number of entries.
func (x *Index) Len() int { return len(x.entries) }

// At returns a pointer to the i-th entry in on-disk order.
func (x *Index) At(i int) *Entry { return &x.entries[i] }

// Entries returns the backing slice in on-disk order. The slice is shared;
// callers must not reorder it.
func (x *Index) Entries() []Entry { return x.entries }

// Lookup returns pointers to every entry whose name equals name, in on-disk
// order. Multiple results are possible because duplicates are preserved.
func (x *Index) Lookup(name []byte) []*Entry {
	var out []*Entry
	for i := range x.entries {
		if bytes.Equal(x.entries[i].Name, name) {
			out = append(out, &x.entries[i])
		}
	}
	return out
}
