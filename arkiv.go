// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arkiv

import "github.com/arkivdev/arkiv/core"

// The primitives live in core so the format backends can share them
// without importing this package back. They are aliased here because this
// is the surface callers program against.
type (
	Window        = core.Window
	Cursor        = core.Cursor
	Entry         = core.Entry
	Index         = core.Index
	Event         = core.Event
	EventKind     = core.EventKind
	EndSummary    = core.EndSummary
	Machine       = core.Machine
	Provider      = core.Provider
	Sink          = core.Sink
	BytesProvider = core.BytesProvider
	SliceSink     = core.SliceSink
	NeedMoreError = core.NeedMoreError
	FaultError    = core.FaultError
)

const (
	EventNone           = core.EventNone
	EventEnd            = core.EventEnd
	EventEntry          = core.EventEntry
	EventLocalHeader    = core.EventLocalHeader
	EventDataDescriptor = core.EventDataDescriptor
)

const (
	FlagEncrypted      = core.FlagEncrypted
	FlagDataDescriptor = core.FlagDataDescriptor
	FlagUTF8Name       = core.FlagUTF8Name
)

var (
	ErrNeedMore      = core.ErrNeedMore
	ErrMalformed     = core.ErrMalformed
	ErrOutOfRange    = core.ErrOutOfRange
	ErrUnsupported   = core.ErrUnsupported
	ErrUnknownFormat = core.ErrUnknownFormat
	ErrCapacity      = core.ErrCapacity
)

// NewCursor returns a cursor at the start of w.
func NewCursor(w Window) Cursor { return core.NewCursor(w) }

// NewCursorAt returns a cursor at absolute offset off within w.
func NewCursorAt(w Window, off uint64) Cursor { return core.NewCursorAt(w, off) }

// FindSignatureBackward reports the last occurrence of sig within the
// trailing max bytes of data, -1 when absent.
func FindSignatureBackward(data, sig []byte, max int) int {
	return core.FindSignatureBackward(data, sig, max)
}

// FindSignatureForward reports the first occurrence of sig within the
// leading max bytes of data, -1 when absent.
func FindSignatureForward(data, sig []byte, max int) int {
	return core.FindSignatureForward(data, sig, max)
}

// NeedMore extracts the retry descriptor from an Advance error.
func NeedMore(err error) (*NeedMoreError, bool) { return core.NeedMore(err) }

// IsFault reports whether err is a terminal parse fault.
func IsFault(err error) bool { return core.IsFault(err) }
