// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package simd

import (
	"fmt"
	"unsafe"

	"github.com/grailbio/base/errors"
	gunsafe "github.com/grailbio/fastlen/unsafe"
)

// StrlenUnsafe returns the number of units preceding the first zero unit of
// the sequence starting at p.
//
// The sequence is first scanned a machine word at a time; once a word
// containing a zero unit is found, the units from the start of that word on
// are checked one at a time.  (Extracting the position from the mask with
// bits.TrailingZeros would save a few comparisons, but would have to account
// for byte order and for false positives above the first zero unit.)
//
// WARNING: This is a function designed to be used in inner loops, which makes
// assumptions which aren't checked at runtime.  Use Strlen when that's a
// problem.
// These assumptions are always satisfied when the sequence was allocated by
// MakeTerminated(), or lives in a MakeUnsafe() buffer.
//
// 1. A zero unit is present, and all memory from p to the end of the word
// containing the first zero unit (i.e. the first RoundUpPow2(n+1,
// UnitsPerWord) units, where n is the result) is readable and part of the
// same allocation.
//
// 2. On architectures which fault on misaligned loads, p is word-aligned.
//
// At least one full word is always read, even when *p == 0.
func StrlenUnsafe[U Unit](p *U) int {
	lo, hi := zeroMasks[U]()
	base := unsafe.Pointer(p)
	// end is the byte offset just past the last word known to be free of zero
	// units.
	var end uintptr
	for !hasZeroUnit(gunsafe.LoadWord(base, end), lo, hi) {
		end += BytesPerWord
	}
	unitSize := unsafe.Sizeof(*p)
	for gunsafe.LoadUnit[U](base, end) != 0 {
		end += unitSize
	}
	return int(end / unitSize)
}

// NaiveStrlenUnsafe is the one-unit-at-a-time equivalent of StrlenUnsafe.  It
// only reads units up to and including the terminator, so it does not share
// StrlenUnsafe's word-readability requirement; a zero unit must still be
// present.  It serves as the baseline in benchmarks.
func NaiveStrlenUnsafe[U Unit](p *U) int {
	base := unsafe.Pointer(p)
	unitSize := unsafe.Sizeof(*p)
	var end uintptr
	for gunsafe.LoadUnit[U](base, end) != 0 {
		end += unitSize
	}
	return int(end / unitSize)
}

// StrlenBytesUnsafe returns the number of bytes preceding the first zero byte
// of b[:cap(b)].  It panics if cap(b) == 0.  Otherwise the same assumptions
// as StrlenUnsafe apply; they are satisfied when b was (sub)sliced from a
// MakeUnsafe() buffer containing a zero byte at or after b's start.
func StrlenBytesUnsafe(b []byte) int {
	return StrlenUnsafe(&b[:1][0])
}

// Strlen returns the index of the first zero unit of s.  It reads s a word at
// a time like StrlenUnsafe, but never past len(s): the trailing partial word
// is scanned a unit at a time.  If s contains no zero unit, Strlen returns
// len(s) and an error of kind errors.NotExist.
func Strlen[U Unit](s []U) (int, error) {
	lo, hi := zeroMasks[U]()
	b := gunsafe.UnitsToBytes(s)
	end := 0
	for ; end+BytesPerWord <= len(b); end += BytesPerWord {
		if hasZeroUnit(gunsafe.LoadWordBytes(b, end), lo, hi) {
			break
		}
	}
	var u U
	for i := end / int(unsafe.Sizeof(u)); i < len(s); i++ {
		if s[i] == 0 {
			return i, nil
		}
	}
	return len(s), errors.E(errors.NotExist, fmt.Sprintf("simd.Strlen: no terminator within %d units", len(s)))
}

// CString returns a copy of the zero-terminated prefix of b as a string.  If
// b holds no zero byte, it returns "" and the error from Strlen.
func CString(b []byte) (string, error) {
	n, err := Strlen(b)
	if err != nil {
		return "", err
	}
	return string(b[:n]), nil
}

// GoStringUnsafe returns a copy of the zero-terminated byte sequence starting
// at p, e.g. a C string received over cgo.  The assumptions of StrlenUnsafe
// apply.
func GoStringUnsafe(p *byte) string {
	return string(unsafe.Slice(p, StrlenUnsafe(p)))
}

// SplitTerminated splits a block of consecutive zero-terminated strings, such
// as an environment or argv block, into its entries.  Empty entries are
// dropped, as are trailing bytes after the last terminator.
func SplitTerminated(b []byte) []string {
	var entries []string
	for len(b) > 0 {
		n, err := Strlen(b)
		if err != nil {
			break
		}
		if n > 0 {
			entries = append(entries, string(b[:n]))
		}
		b = b[n+1:]
	}
	return entries
}
