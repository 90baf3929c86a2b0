// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivdev/arkiv/core"
	"github.com/arkivdev/arkiv/zip"
)

func buildArchive(t *testing.T) []byte {
	t.Helper()

	var sink core.SliceSink
	w := zip.NewWriter(&sink)
	require.NoError(t, w.SetComment([]byte("boundary test")))
	require.NoError(t, w.AddEntry(zip.EntryInfo{Name: []byte("a.txt")}, []byte("hello")))
	require.NoError(t, w.AddEntry(zip.EntryInfo{Name: []byte("b.txt")}, []byte("world!!")))
	require.NoError(t, w.Finish())
	return sink.Bytes()
}

// feedWanted supplies the region the walker asks for next.
func feedWanted(t *testing.T, h int64, data []byte) {
	t.Helper()

	off, n, st := NeededBytes(h)
	require.Equal(t, StatusOK, st)
	end := off + uint64(n)
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	require.Equal(t, StatusOK, Feed(h, off, data[off:end]))
}

func TestHandleFullWalk(t *testing.T) {
	data := buildArchive(t)

	h, st := New(FormatZip, int64(len(data)), len(data))
	require.Equal(t, StatusOK, st)
	defer Close(h)

	// Nothing fed yet.
	_, st = Poll(h)
	assert.Equal(t, StatusNeedMore, st)

	feedWanted(t, h, data)
	kind, st := Poll(h)
	require.Equal(t, StatusOK, st)
	require.Equal(t, EventEnd, kind)

	end, st := EndStatOf(h)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, uint64(2), end.EntryCount)

	comment := make([]byte, 64)
	n, st := ArchiveComment(h, comment)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, []byte("boundary test"), comment[:n])

	var names []string
	for {
		feedWanted(t, h, data)
		kind, st = Poll(h)
		if st == StatusEnd {
			break
		}
		require.Equal(t, StatusOK, st)
		require.Equal(t, EventEntry, kind)

		buf := make([]byte, 16)
		n, st := EntryName(h, buf)
		require.Equal(t, StatusOK, st)
		names = append(names, string(buf[:n]))

		stat, st := EntryStatOf(h)
		require.Equal(t, StatusOK, st)
		assert.NotZero(t, stat.UncompressedSize)
	}
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)

	// Polling a finished walker stays at StatusEnd.
	_, st = Poll(h)
	assert.Equal(t, StatusEnd, st)
}

func TestHandleBadHandle(t *testing.T) {
	const bogus = int64(999999)

	assert.Equal(t, StatusBadHandle, Feed(bogus, 0, nil))
	_, st := Poll(bogus)
	assert.Equal(t, StatusBadHandle, st)
	_, _, st = NeededBytes(bogus)
	assert.Equal(t, StatusBadHandle, st)
	_, st = EntryStatOf(bogus)
	assert.Equal(t, StatusBadHandle, st)
	assert.Equal(t, StatusBadHandle, Close(bogus))
}

func TestHandleCloseIsFinal(t *testing.T) {
	h, st := New(FormatZip, 100, 64)
	require.Equal(t, StatusOK, st)
	require.Equal(t, StatusOK, Close(h))
	assert.Equal(t, StatusBadHandle, Close(h))
	assert.Equal(t, StatusBadHandle, Feed(h, 0, nil))
}

func TestHandleFeedCapacity(t *testing.T) {
	h, st := New(FormatZip, 1000, 8)
	require.Equal(t, StatusOK, st)
	defer Close(h)

	assert.Equal(t, StatusOK, Feed(h, 0, make([]byte, 8)))
	assert.Equal(t, StatusCapacity, Feed(h, 0, make([]byte, 9)))
}

func TestHandleNameCapacity(t *testing.T) {
	data := buildArchive(t)

	h, st := New(FormatZip, int64(len(data)), len(data))
	require.Equal(t, StatusOK, st)
	defer Close(h)

	feedWanted(t, h, data)
	_, st = Poll(h) // end summary
	require.Equal(t, StatusOK, st)
	feedWanted(t, h, data)
	_, st = Poll(h) // first entry
	require.Equal(t, StatusOK, st)

	small := make([]byte, 2)
	n, st := EntryName(h, small)
	assert.Equal(t, StatusCapacity, st)
	assert.Equal(t, 5, n, "required length must still be reported")
}

func TestHandleUnsupportedFormat(t *testing.T) {
	_, st := New(FormatTar, 100, 64)
	assert.Equal(t, StatusUnsupported, st)

	_, st = New(FormatUnknown, 100, 64)
	assert.Equal(t, StatusUnknownFormat, st)

	_, st = New(FormatZip, 100, 0)
	assert.Equal(t, StatusOutOfRange, st)
}

func TestHandleMalformedInput(t *testing.T) {
	junk := make([]byte, 200)

	h, st := New(FormatZip, int64(len(junk)), len(junk))
	require.Equal(t, StatusOK, st)
	defer Close(h)

	require.Equal(t, StatusOK, Feed(h, 0, junk))
	_, st = Poll(h)
	assert.Equal(t, StatusMalformed, st)

	// Faults are terminal for the session's machine.
	_, st = Poll(h)
	assert.Equal(t, StatusMalformed, st)
}

func TestHandleFeedCopiesData(t *testing.T) {
	data := buildArchive(t)

	h, st := New(FormatZip, int64(len(data)), len(data))
	require.Equal(t, StatusOK, st)
	defer Close(h)

	clone := append([]byte(nil), data...)
	require.Equal(t, StatusOK, Feed(h, 0, clone))
	for i := range clone {
		clone[i] = 0xFF
	}

	_, st = Poll(h)
	assert.Equal(t, StatusOK, st, "walker must parse its own copy of the bytes")
}
