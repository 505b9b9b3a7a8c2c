// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package membuf

import (
	"os"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const meminfo = `MemTotal:       16314952 kB
MemFree:          893440 kB
MemAvailable:    9420412 kB
`

func TestParseMemTotal(t *testing.T) {
	n, err := parseMemTotal(strings.NewReader(meminfo))
	assert.NoError(t, err)
	expect.EQ(t, n, int64(16314952)<<10)

	_, err = parseMemTotal(strings.NewReader("MemFree: 1 kB\n"))
	expect.True(t, errors.Is(errors.NotExist, err))
	_, err = parseMemTotal(strings.NewReader("MemTotal: 1 MB\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = parseMemTotal(strings.NewReader("MemTotal: x kB\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestMemTotal(t *testing.T) {
	if _, err := os.Stat("/proc/meminfo"); err != nil {
		t.Skip("no /proc/meminfo")
	}
	n, err := MemTotal()
	assert.NoError(t, err)
	expect.True(t, n > 0)
}

func TestAlloc(t *testing.T) {
	const size = 1 << 24
	b, err := Alloc(size)
	assert.NoError(t, err)
	buf := b.Bytes()
	assert.EQ(t, len(buf), size)
	expect.EQ(t, buf[size-1], byte(0))
	buf[0], buf[size-1] = 1, 2
	expect.EQ(t, buf[size-1], byte(2))
	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
	expect.EQ(t, len(b.Bytes()), 0)

	_, err = Alloc(0)
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestGuarded(t *testing.T) {
	page := os.Getpagesize()
	for _, size := range []int{0, 1, 7, page - 1, page, page + 3} {
		b, err := Guarded(size)
		assert.NoError(t, err)
		buf := b.Bytes()
		assert.EQ(t, len(buf), size)
		for i := range buf {
			buf[i] = 'g'
		}
		// The mapping ends with the guard page, right after the buffer.
		expect.EQ(t, cap(buf), size+page)
		assert.NoError(t, b.Close())
	}
	_, err := Guarded(-1)
	expect.True(t, errors.Is(errors.Invalid, err))
}
