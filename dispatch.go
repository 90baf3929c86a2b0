// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arkiv

import (
	"fmt"

	"github.com/arkivdev/arkiv/core"
	"github.com/arkivdev/arkiv/zip"
)

// NewMachine returns the structural walker for a detected format over an
// input of the given total size. The dispatch is closed: TAR, 7z and RAR
// are recognized by Detect but have no walker, which is reported as
// ErrUnsupported rather than a parse fault.
func NewMachine(f Format, size int64) (core.Machine, error) {
	switch f {
	case FormatZip:
		return zip.NewDirectoryParser(size), nil
	case FormatTar, FormatSevenZip, FormatRar:
		return nil, fmt.Errorf("%w: no structural walker for %s", core.ErrUnsupported, f)
	default:
		return nil, core.ErrUnknownFormat
	}
}

// NewStreamMachine is NewMachine's front-to-back counterpart, for inputs
// whose tail is not yet available.
func NewStreamMachine(f Format, size int64) (core.Machine, error) {
	switch f {
	case FormatZip:
		return zip.NewStreamParser(size), nil
	case FormatTar, FormatSevenZip, FormatRar:
		return nil, fmt.Errorf("%w: no structural walker for %s", core.ErrUnsupported, f)
	default:
		return nil, core.ErrUnknownFormat
	}
}
