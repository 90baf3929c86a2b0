// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arkiv

import (
	"bytes"
	"hash/crc32"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivdev/arkiv/core"
	"github.com/arkivdev/arkiv/zip"
)

func buildStored(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var sink SliceSink
	w := zip.NewWriter(&sink)
	for name, content := range files {
		require.NoError(t, w.AddEntry(zip.EntryInfo{Name: []byte(name)}, []byte(content)))
	}
	require.NoError(t, w.Finish())
	return sink.Bytes()
}

func TestOpenStoredArchive(t *testing.T) {
	t.Parallel()

	data := buildStored(t, map[string]string{"a.txt": "hello"})

	a, err := OpenBytes(data)
	require.NoError(t, err)
	assert.Equal(t, FormatZip, a.Format())
	assert.Equal(t, int64(len(data)), a.Size())

	entries := a.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, []byte("a.txt"), entries[0].Name)
	assert.Equal(t, uint64(5), entries[0].UncompressedSize)

	off, err := a.PayloadOffset(&entries[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data[off:off+5])
}

func TestOpenDeflatedArchive(t *testing.T) {
	t.Parallel()

	plain := bytes.Repeat([]byte("compressible content "), 100)

	var comp bytes.Buffer
	fw, err := flate.NewWriter(&comp, flate.BestCompression)
	require.NoError(t, err)
	_, err = fw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	var sink SliceSink
	w := zip.NewWriter(&sink)
	require.NoError(t, w.AddEntry(zip.EntryInfo{
		Name:             []byte("text.txt"),
		Method:           zip.Deflated,
		CRC32:            crc32.ChecksumIEEE(plain),
		UncompressedSize: uint64(len(plain)),
	}, comp.Bytes()))
	require.NoError(t, w.Finish())

	a, err := OpenBytes(sink.Bytes())
	require.NoError(t, err)
	entries := a.Entries()
	require.Len(t, entries, 1)
	e := &entries[0]
	assert.Equal(t, uint16(zip.Deflated), e.Method)
	assert.Equal(t, uint64(len(plain)), e.UncompressedSize)
	assert.Equal(t, uint64(comp.Len()), e.CompressedSize)

	// The payload offset must point at valid deflate data.
	off, err := a.PayloadOffset(e)
	require.NoError(t, err)
	raw := sink.Bytes()[off : off+e.CompressedSize]
	got, err := io.ReadAll(flate.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, plain, got)
	assert.Equal(t, e.CRC32, crc32.ChecksumIEEE(got))
}

func TestOpenPreservesDuplicatesAndOrder(t *testing.T) {
	t.Parallel()

	var sink SliceSink
	w := zip.NewWriter(&sink)
	require.NoError(t, w.AddEntry(zip.EntryInfo{Name: []byte("dup")}, []byte("first")))
	require.NoError(t, w.AddEntry(zip.EntryInfo{Name: []byte("mid")}, nil))
	require.NoError(t, w.AddEntry(zip.EntryInfo{Name: []byte("dup")}, []byte("second!")))
	require.NoError(t, w.Finish())

	a, err := OpenBytes(sink.Bytes())
	require.NoError(t, err)
	require.Equal(t, 3, a.Index().Len())
	assert.Equal(t, []byte("dup"), a.Index().At(0).Name)
	assert.Equal(t, []byte("mid"), a.Index().At(1).Name)

	dups := a.Lookup("dup")
	require.Len(t, dups, 2)
	assert.Equal(t, uint64(5), dups[0].UncompressedSize)
	assert.Equal(t, uint64(7), dups[1].UncompressedSize)
}

func TestOpenWithComment(t *testing.T) {
	t.Parallel()

	var sink SliceSink
	w := zip.NewWriter(&sink)
	require.NoError(t, w.SetComment([]byte("the comment")))
	require.NoError(t, w.AddEntry(zip.EntryInfo{Name: []byte("f")}, nil))
	require.NoError(t, w.Finish())

	a, err := OpenBytes(sink.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte("the comment"), a.Comment())

	// The comment must be owned, not aliased to provider memory.
	data := sink.Bytes()
	for i := range data {
		data[i] = 0
	}
	assert.Equal(t, []byte("the comment"), a.Comment())
}

func TestOpenEmptyArchive(t *testing.T) {
	t.Parallel()

	var sink SliceSink
	w := zip.NewWriter(&sink)
	require.NoError(t, w.Finish())

	a, err := OpenBytes(sink.Bytes())
	require.NoError(t, err)
	assert.Equal(t, FormatZip, a.Format())
	assert.Empty(t, a.Entries())
}

func TestOpenSignatureOnlyFormats(t *testing.T) {
	t.Parallel()

	sevenZip := append([]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, make([]byte, 64)...)
	a, err := OpenBytes(sevenZip)
	require.NoError(t, err)
	assert.Equal(t, FormatSevenZip, a.Format())
	assert.Empty(t, a.Entries())

	_, err = a.PayloadOffset(&Entry{})
	assert.ErrorIs(t, err, ErrUnsupported)

	tar := make([]byte, 10240)
	copy(tar[tarMagicOffset:], "ustar")
	a, err = OpenBytes(tar)
	require.NoError(t, err)
	assert.Equal(t, FormatTar, a.Format())
}

func TestOpenGarbage(t *testing.T) {
	t.Parallel()

	_, err := OpenBytes(bytes.Repeat([]byte{0xAB}, 500))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = OpenBytes(nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestOpenTruncatedZip(t *testing.T) {
	t.Parallel()

	data := buildStored(t, map[string]string{"a.txt": "hello"})

	// Keep the signature but cut the tail off: the walk must fail with a
	// structured error, never hang or panic.
	_, err := OpenBytes(data[:len(data)-10])
	require.ErrorIs(t, err, ErrMalformed)
	assert.True(t, core.IsFault(err))
}
