// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedMore signals that the supplied window is too short for the
	// requested read. It is a control-flow signal, not a structural fault:
	// the caller retries the same operation with a larger window.
	ErrNeedMore = errors.New("arkiv: need more input")

	// ErrMalformed is returned when a field value is internally inconsistent
	// or violates the format grammar.
	ErrMalformed = errors.New("arkiv: malformed structure")

	// ErrOutOfRange is returned when a declared offset, length or count
	// exceeds the bounds of the archive, or an arithmetic combination of
	// untrusted fields would overflow.
	ErrOutOfRange = errors.New("arkiv: declared value out of range")

	// ErrUnsupported is returned for structurally valid but unimplemented
	// variants, such as multi-disk archives or recognized foreign formats
	// that have no backend.
	ErrUnsupported = errors.New("arkiv: unsupported feature")

	// ErrUnknownFormat is returned when no backend signature matched.
	ErrUnknownFormat = errors.New("arkiv: unknown archive format")

	// ErrCapacity is returned when a caller-supplied buffer is smaller than
	// a field that must be staged into it.
	ErrCapacity = errors.New("arkiv: buffer capacity exceeded")
)

// NeedMoreError reports the absolute region a parser needs before it can make
// progress. N is a lower bound: supplying at least N more bytes covering Off
// allows the same logical operation to be retried.
type NeedMoreError struct {
	Off uint64 // absolute offset of the first missing byte
	N   int    // minimum number of additional bytes required
}

func (e *NeedMoreError) Error() string {
	return fmt.Sprintf("arkiv: need %d more bytes at offset %d", e.N, e.Off)
}

func (e *NeedMoreError) Unwrap() error { return ErrNeedMore }

// NeedMore returns the typed NeedMoreError wrapped anywhere in err's chain.
func NeedMore(err error) (*NeedMoreError, bool) {
	var nm *NeedMoreError
	if errors.As(err, &nm) {
		return nm, true
	}
	return nil, false
}

// FaultError is a terminal structural violation. It records the machine state
// and the offending field so a fault is diagnosable, and wraps one of the
// sentinel kinds above.
type FaultError struct {
	State string // machine state at the point of detection
	Field string // offending field, empty when not tied to a single field
	Err   error  // ErrMalformed, ErrOutOfRange or ErrUnsupported
}

func (e *FaultError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v (state %s)", e.Err, e.State)
	}
	return fmt.Sprintf("%v: field %s (state %s)", e.Err, e.Field, e.State)
}

func (e *FaultError) Unwrap() error { return e.Err }

// Fault builds a FaultError for the given state and field.
func Fault(kind error, state, field string) *FaultError {
	return &FaultError{State: state, Field: field, Err: kind}
}

// IsFault reports whether err is terminal for the machine that produced it.
func IsFault(err error) bool {
	var f *FaultError
	return errors.As(err, &f)
}
