// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arkiv reads and writes the structural metadata of container
// archives. ZIP archives are parsed and written in full structural detail;
// TAR, 7z and RAR inputs are recognized by signature only.
//
// The package is built for untrusted input. Every length, count and offset
// an archive declares is validated against the input's real size before it
// is used, iteration is bounded by cross-checked fields, and parsing holds
// a constant amount of state regardless of input size.
//
// # Reading
//
// Open drives the whole walk against a core.Provider and returns an
// indexed view:
//
//	a, err := arkiv.OpenBytes(data)
//	if err != nil { ... }
//	for _, e := range a.Entries() {
//		fmt.Printf("%s (%d bytes)\n", e.Name, e.UncompressedSize)
//	}
//
// Callers that manage their own buffering can instead run a core.Machine
// directly: NewMachine returns a resumable parser that consumes caller
// supplied windows and reports, via Want and NeedMoreError, exactly which
// region of the input it needs next.
//
// # Writing
//
// zip.NewWriter emits a well-formed archive to a core.Sink, including
// streaming entries with trailing data descriptors and ZIP64 records
// whenever a value outgrows its classic field.
package arkiv
