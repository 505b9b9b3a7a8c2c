// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package unsafe collects the pointer reinterpretations used by the rest of
// this module. Nothing outside this package casts between pointer types;
// callers deal in base pointers plus byte offsets, or in slices.
package unsafe

import (
	"unsafe"
)

// WordSize is the number of bytes in a machine word (uintptr).
const WordSize = int(unsafe.Sizeof(uintptr(0)))

// LoadWord returns the machine word stored at base+off.
//
// WARNING: nothing is checked. All WordSize bytes starting at base+off must be
// readable and belong to the same allocation as base. On architectures that
// fault on misaligned loads, base+off must also be word-aligned; amd64 and
// arm64 do not have this restriction.
func LoadWord(base unsafe.Pointer, off uintptr) uintptr {
	return *(*uintptr)(unsafe.Add(base, off))
}

// LoadUnit returns the element of type T stored at base+off. The same caveats
// as LoadWord apply, for unsafe.Sizeof(T) bytes.
func LoadUnit[T any](base unsafe.Pointer, off uintptr) T {
	return *(*T)(unsafe.Add(base, off))
}

// LoadWordBytes returns the machine word stored in b[off:off+WordSize], in
// native byte order. Unlike LoadWord it is memory-safe: it panics if the range
// is out of bounds.
func LoadWordBytes(b []byte, off int) uintptr {
	_ = b[off+WordSize-1]
	return *(*uintptr)(unsafe.Pointer(&b[off]))
}

// UnitsToBytes returns the memory backing s[:len(s)] as a byte slice, without
// copying. The two slices alias.
func UnitsToBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// BytesToUnits returns the memory backing b as a []T, without copying. Any
// trailing bytes that do not make up a whole T are not part of the result.
// The caller is responsible for b being suitably aligned for T on
// architectures where that matters.
func BytesToUnits[T any](b []byte) []T {
	var zero T
	n := len(b) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// BytesToString casts src to a string without extra memory allocation. The
// string returned by this function shares memory with "src".
func BytesToString(src []byte) string {
	if len(src) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(src), len(src))
}

// StringToBytes casts src to []byte without extra memory allocation. The data
// returned by this function shares memory with "src" and must not be
// modified.
func StringToBytes(src string) []byte {
	if len(src) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(src), len(src))
}
