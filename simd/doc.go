// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package simd computes the length of zero-terminated sequences (C strings,
// and their 16- and 32-bit unit analogues) a machine word at a time, using
// the "SIMD within a register" zero-detection trick
//
//	(w - lo) &^ w & hi != 0
//
// where lo has the lowest bit of every unit set and hi the highest. No vector
// instructions are used; the package is portable Go.
//
// Two classes of functions are exported, following the usual convention:
//
// - Functions with 'Unsafe' in their names are the fast path. They are
// memory-unsafe, do not validate documented preconditions, and read whole
// words, i.e. up to BytesPerWord-1 bytes *past* the terminator. MakeUnsafe()
// and MakeTerminated() allocate buffers with enough trailing capacity for
// this to stay inside the allocation.
//
// - Their safe analogues take a slice, never read outside it, and report a
// missing terminator as an error of kind errors.NotExist.
//
// All functions are stateless and may be called concurrently on shared,
// read-only input. Concurrent modification of the input is a data race.
package simd
