// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arkiv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkivdev/arkiv/core"
	"github.com/arkivdev/arkiv/zip"
)

// FuzzOpenBytes asserts the no-panic guarantee: any input either opens or
// fails with a structured error, and the entry walk stays inside the
// declared bounds.
func FuzzOpenBytes(f *testing.F) {
	var sink SliceSink
	w := zip.NewWriter(&sink)
	if err := w.SetComment([]byte("seed comment")); err != nil {
		f.Fatal(err)
	}
	if err := w.AddEntry(zip.EntryInfo{Name: []byte("a.txt")}, []byte("hello")); err != nil {
		f.Fatal(err)
	}
	if err := w.AddEntry(zip.EntryInfo{Name: []byte("b/c.bin")}, []byte{0, 1, 2}); err != nil {
		f.Fatal(err)
	}
	if err := w.Finish(); err != nil {
		f.Fatal(err)
	}
	seed := sink.Bytes()

	f.Add(seed)
	f.Add(seed[:len(seed)-1])
	f.Add(seed[5:])
	f.Add([]byte("PK\x05\x06"))
	f.Add([]byte("PK\x03\x04"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		a, err := OpenBytes(data)
		if err != nil {
			return
		}
		for i := range a.Entries() {
			e := a.Index().At(i)
			require.Less(t, e.HeaderOffset, uint64(len(data)))
		}
	})
}

// FuzzStreamParser drives the front-to-back walker over arbitrary bytes.
func FuzzStreamParser(f *testing.F) {
	lfh := []byte("PK\x03\x04")
	f.Add(lfh)
	f.Add([]byte{})
	f.Add(make([]byte, 64))

	f.Fuzz(func(t *testing.T, data []byte) {
		par := zip.NewStreamParser(int64(len(data)))
		w := core.Window{Data: data}
		for i := 0; i < 1000 && !par.Done(); i++ {
			ev, err := par.Advance(w)
			if err != nil {
				return
			}
			if ev.Kind == core.EventLocalHeader && ev.Entry.SizesDeferred {
				if par.PayloadEnd(ev.Entry.PayloadOffset) != nil {
					return
				}
			}
		}
	})
}
