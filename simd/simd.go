// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package simd

import (
	"math/bits"
	"unsafe"
)

// BytesPerWord is the number of bytes in a machine word.
// This is kept as an untyped constant; bits.UintSize is the same as the size
// of uintptr on every supported platform.
const BytesPerWord = bits.UintSize / 8

// Log2BytesPerWord is log2(BytesPerWord).  This is relevant for manual
// bit-shifting when we know that's a safe way to divide and the compiler does
// not (e.g. dividend is of signed int type).
const Log2BytesPerWord = uint(2 + bits.UintSize>>6)

// BitsPerWord is the number of bits in a machine word.
const BitsPerWord = BytesPerWord * 8

// Unit is the set of storage-unit types a terminated sequence may be made of.
// Only the width matters; signed and unsigned units of the same width are
// scanned identically.
type Unit interface {
	~uint8 | ~uint16 | ~uint32 | ~int8 | ~int16 | ~int32
}

// Zero-unit detection masks.  loN has the lowest bit of every N-bit group of
// a word set, hiN the highest bit.
const (
	lo8  = ^uintptr(0) / 0xff
	hi8  = lo8 << 7
	lo16 = ^uintptr(0) / 0xffff
	hi16 = lo16 << 15
	lo32 = ^uintptr(0) / 0xffffffff
	hi32 = lo32 << 31
)

// zeroMasks returns the (lo, hi) mask pair for units of type U.  The switch
// depends only on U, and is evaluated once per call, never per unit.
func zeroMasks[U Unit]() (lo, hi uintptr) {
	var u U
	switch unsafe.Sizeof(u) {
	case 1:
		return lo8, hi8
	case 2:
		return lo16, hi16
	default:
		return lo32, hi32
	}
}

// hasZeroUnit reports whether some lo/hi-sized group of w is all-zero bits.
func hasZeroUnit(w, lo, hi uintptr) bool {
	return (w-lo)&^w&hi != 0
}

// UnitsPerWord returns the number of U-typed units in a machine word.  It is
// always a power of 2.
func UnitsPerWord[U Unit]() int {
	var u U
	return BytesPerWord / int(unsafe.Sizeof(u))
}

// RoundUpPow2 returns val rounded up to a multiple of alignment, assuming
// alignment is a power of 2.
func RoundUpPow2(val, alignment int) int {
	return (val + alignment - 1) & (^(alignment - 1))
}

// MakeUnsafe returns a byte slice of the given length which is guaranteed to
// have enough capacity for StrlenBytesUnsafe to work on it, and on any
// subslice of it, as long as a zero byte is present within the length.  (It
// is not itself an unsafe function: allocated memory is zero-initialized.)
func MakeUnsafe(len int) []byte {
	// RoundUpPow2(len, BytesPerWord) is enough for b itself; the extra word
	// makes subslicing at an arbitrary offset safe.
	return make([]byte, len, RoundUpPow2(len, BytesPerWord)+BytesPerWord)
}

// MakeTerminated returns a terminated sequence of n copies of fill: the
// returned slice has length n+1, its last element is the terminator, and its
// capacity covers the whole word containing the terminator, so StrlenUnsafe
// may be called on &s[0].  If fill is zero the sequence is (trivially) of
// length 0.
func MakeTerminated[U Unit](n int, fill U) []U {
	perWord := UnitsPerWord[U]()
	s := make([]U, n+1, RoundUpPow2(n+1, perWord)+perWord)
	Memset(s[:n], fill)
	return s
}

// Memset sets all values of dst[] to val.  (For val == 0, a range-for loop
// assigning zero is better: the compiler turns it into a memclr call.)
func Memset[U Unit](dst []U, val U) {
	if len(dst) == 0 {
		return
	}
	dst[0] = val
	for i := 1; i < len(dst); {
		i += copy(dst[i:], dst[:i])
	}
}
