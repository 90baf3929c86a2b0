// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arkiv

import (
	"fmt"

	"github.com/arkivdev/arkiv/core"
	"github.com/arkivdev/arkiv/zip"
)

// Archive is the random-access view of a container. Open detects the
// format and, for ZIP, walks the central directory into an index; the
// other recognized formats expose their identity only.
type Archive struct {
	provider core.Provider
	size     int64
	format   Format

	index   core.Index
	summary core.EndSummary
}

// Open detects the format of the input behind p and reads its structural
// metadata. The provider is retained for later PayloadOffset calls.
func Open(p core.Provider) (*Archive, error) {
	size := p.Size()
	if size < 0 {
		return nil, fmt.Errorf("%w: provider size %d", core.ErrOutOfRange, size)
	}

	a := &Archive{provider: p, size: size}

	format, err := a.detect()
	if err != nil {
		return nil, err
	}
	a.format = format

	if format == FormatZip {
		if err := a.readDirectory(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// OpenBytes opens an archive held entirely in memory.
func OpenBytes(data []byte) (*Archive, error) {
	return Open(core.BytesProvider(data))
}

func (a *Archive) detect() (Format, error) {
	need := detectPrefixLen
	if int64(need) > a.size {
		need = int(a.size)
	}

	for n := 8; ; {
		if n > need {
			n = need
		}
		w, err := a.provider.ReadWindow(0, n)
		if err != nil {
			return FormatUnknown, err
		}
		f, err := Detect(w.Data, a.size)
		if nm, ok := core.NeedMore(err); ok && n < need {
			n = int(nm.Off) + nm.N
			continue
		}
		return f, err
	}
}

// readDirectory drives the central directory walk, pulling each window the
// parser asks for from the provider and accumulating owned entry copies.
func (a *Archive) readDirectory() error {
	par := zip.NewDirectoryParser(a.size)
	for !par.Done() {
		off, n := par.Want()
		w, err := a.provider.ReadWindow(int64(off), n)
		if err != nil {
			return err
		}
		ev, err := par.Advance(w)
		if err != nil {
			if nm, ok := core.NeedMore(err); ok {
				return fmt.Errorf("short read at %d: %w", nm.Off, err)
			}
			return err
		}
		switch ev.Kind {
		case core.EventEnd:
			a.summary = *ev.End
			a.summary.Comment = append([]byte(nil), ev.End.Comment...)
		case core.EventEntry:
			a.index.Append(ev.Entry)
		}
	}
	return nil
}

// Format returns the detected container format.
func (a *Archive) Format() Format { return a.format }

// Size returns the total size of the underlying input.
func (a *Archive) Size() int64 { return a.size }

// Zip64 reports whether the archive's end records use the ZIP64 layout.
func (a *Archive) Zip64() bool { return a.summary.Zip64 }

// Comment returns the archive comment, nil when absent.
func (a *Archive) Comment() []byte { return a.summary.Comment }

// Entries returns the indexed entries in central directory order. It is
// empty for non-ZIP formats.
func (a *Archive) Entries() []core.Entry { return a.index.Entries() }

// Index returns the entry index.
func (a *Archive) Index() *core.Index { return &a.index }

// Lookup returns all entries with the given name, preserving duplicates in
// directory order.
func (a *Archive) Lookup(name string) []*core.Entry { return a.index.Lookup([]byte(name)) }

// PayloadOffset reads the entry's local header and returns the absolute
// offset of its payload. Directory entries do not carry this offset, so it
// costs one provider read.
func (a *Archive) PayloadOffset(e *core.Entry) (uint64, error) {
	if a.format != FormatZip {
		return 0, fmt.Errorf("%w: %s archive", core.ErrUnsupported, a.format)
	}
	if e.PayloadOffset != 0 {
		return e.PayloadOffset, nil
	}

	n := uint64(30 + 2*0xFFFF)
	if rest := uint64(a.size) - e.HeaderOffset; rest < n {
		n = rest
	}
	w, err := a.provider.ReadWindow(int64(e.HeaderOffset), int(n))
	if err != nil {
		return 0, err
	}
	return zip.PayloadOffset(w, e)
}
