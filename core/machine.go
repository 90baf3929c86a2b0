// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

// EventKind tags the structural record carried by an Event.
type EventKind uint8

const (
	// EventNone is emitted by an Advance that had nothing left to report,
	// such as a call on a machine that is already done.
	EventNone EventKind = iota

	// EventEnd carries the archive-level summary record (for ZIP, the end
	// of central directory), emitted once before the entry walk.
	EventEnd

	// EventEntry carries one fully parsed directory entry.
	EventEntry

	// EventLocalHeader carries one entry parsed from its local header
	// during a streaming walk. Sizes may be deferred.
	EventLocalHeader

	// EventDataDescriptor carries an entry whose deferred sizes and CRC
	// have been resolved from a trailing data descriptor.
	EventDataDescriptor
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "none"
	case EventEnd:
		return "end"
	case EventEntry:
		return "entry"
	case EventLocalHeader:
		return "local-header"
	case EventDataDescriptor:
		return "data-descriptor"
	default:
		return "invalid"
	}
}

// EndSummary is the archive-level structural summary emitted as an EventEnd.
type EndSummary struct {
	EntryCount      uint64
	DirectoryOffset uint64
	DirectorySize   uint64
	Comment         []byte // aliases the window it was parsed from
	Zip64           bool
}

// Event is one structural record emitted by a machine. Exactly one of Entry
// and End is set, according to Kind.
type Event struct {
	Kind  EventKind
	Entry *Entry
	End   *EndSummary
}

// Machine is the contract every format backend implements.
//
// Advance consumes the supplied window and either emits one structural event
// (nil error), requests more input (*NeedMoreError), or reports a terminal
// structural fault (*FaultError). A machine never performs I/O, never
// recurses, and never iterates more times than a previously validated count
// field allows. On a NeedMoreError no state is mutated: re-advancing with a
// larger window yields the same event sequence as feeding the whole archive
// at once.
//
// Want reports the absolute region the next Advance will read, so callers
// drive random-access layouts (such as ZIP's backward scan over the archive
// tail) without the machine owning any I/O.
type Machine interface {
	Advance(w Window) (Event, error)
	Want() (off uint64, n int)
	State() string
	Done() bool
}
