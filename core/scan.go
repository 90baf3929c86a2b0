// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import "bytes"

// FindSignatureBackward searches for sig scanning backward from the end of
// data, looking at most max bytes back. It returns the offset of the last
// occurrence, or -1 when the signature does not appear in the search region.
// The number of byte comparisons is bounded by max regardless of archive
// contents, so a crafted archive cannot induce unbounded scanning.
func FindSignatureBackward(data, sig []byte, max int) int {
	if len(sig) == 0 || len(data) < len(sig) || max <= 0 {
		return -1
	}

	// A signature starting just before the search region can still end
	// inside it, so widen the region by len(sig)-1.
	start := len(data) - max - (len(sig) - 1)
	if start < 0 {
		start = 0
	}

	i := bytes.LastIndex(data[start:], sig)
	if i < 0 {
		return -1
	}
	return start + i
}

// FindSignatureForward searches for sig in the first max bytes of data and
// returns the offset of the first occurrence, or -1.
func FindSignatureForward(data, sig []byte, max int) int {
	if len(sig) == 0 || max <= 0 {
		return -1
	}

	end := max + len(sig) - 1
	if end > len(data) {
		end = len(data)
	}

	return bytes.Index(data[:end], sig)
}
