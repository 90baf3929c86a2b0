// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryFlags(t *testing.T) {
	t.Parallel()

	e := Entry{Flags: FlagEncrypted | FlagUTF8Name}
	assert.True(t, e.Encrypted())
	assert.True(t, e.UTF8Name())
	assert.False(t, e.UsesDescriptor())
}

func TestEntryClone(t *testing.T) {
	t.Parallel()

	win := []byte("a.txt")
	e := Entry{Name: win, CompressedSize: 5}

	c := e.Clone()
	win[0] = 'b'

	assert.Equal(t, []byte("a.txt"), c.Name, "clone must not alias the window")
	assert.Equal(t, uint64(5), c.CompressedSize)
}

func TestIndexPreservesDuplicates(t *testing.T) {
	t.Parallel()

	var x Index
	x.Append(&Entry{Name: []byte("dup"), HeaderOffset: 0})
	x.Append(&Entry{Name: []byte("other"), HeaderOffset: 40})
	x.Append(&Entry{Name: []byte("dup"), HeaderOffset: 80})

	require.Equal(t, 3, x.Len())

	got := x.Lookup([]byte("dup"))
	require.Len(t, got, 2)
	assert.Equal(t, uint64(0), got[0].HeaderOffset)
	assert.Equal(t, uint64(80), got[1].HeaderOffset)

	assert.Empty(t, x.Lookup([]byte("missing")))
	assert.Equal(t, []byte("other"), x.At(1).Name)
}

func TestFaultErrorChain(t *testing.T) {
	t.Parallel()

	f := Fault(ErrMalformed, "ReadEndRecord", "signature")
	assert.ErrorIs(t, f, ErrMalformed)
	assert.True(t, IsFault(f))
	assert.Contains(t, f.Error(), "ReadEndRecord")

	nm := &NeedMoreError{Off: 7, N: 3}
	assert.ErrorIs(t, nm, ErrNeedMore)
	assert.False(t, IsFault(nm))
}
