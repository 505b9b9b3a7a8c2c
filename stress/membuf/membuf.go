// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

// Package membuf allocates large byte buffers directly from the kernel. It
// is meant for benchmarks and tests that work on buffers of tens of
// gigabytes, which make() would zero (and thereby commit) eagerly, and for
// tests that need a buffer ending exactly at an unreadable page.
package membuf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"golang.org/x/sys/unix"
)

var (
	prot = unix.PROT_READ | unix.PROT_WRITE
	flag = unix.MAP_PRIVATE | unix.MAP_ANON | unix.MAP_NORESERVE
)

// Buf is a kernel-allocated buffer. It must be released with Close; the
// slice returned by Bytes is invalid afterwards.
type Buf struct {
	mapping []byte
	b       []byte
}

// Alloc maps size bytes of anonymous, zero-filled memory. Pages are
// committed as they are first written.
func Alloc(size int) (*Buf, error) {
	if size <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("membuf.Alloc: invalid size %d", size))
	}
	log.Debug.Printf("membuf: mapping %d bytes", size)
	m, err := unix.Mmap(-1, 0, size, prot, flag)
	if err != nil {
		return nil, errors.E(errors.OOM, fmt.Sprintf("membuf.Alloc: mmap %d bytes", size), err)
	}
	return &Buf{mapping: m, b: m}, nil
}

// Guarded maps a buffer of size bytes whose last byte is immediately
// followed by an inaccessible page: reading past the end of Bytes() faults
// instead of returning garbage.
func Guarded(size int) (*Buf, error) {
	if size < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("membuf.Guarded: invalid size %d", size))
	}
	page := os.Getpagesize()
	n := (size + page - 1) / page * page
	m, err := unix.Mmap(-1, 0, n+page, prot, flag)
	if err != nil {
		return nil, errors.E(errors.OOM, fmt.Sprintf("membuf.Guarded: mmap %d bytes", n+page), err)
	}
	if err := unix.Mprotect(m[n:], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(m)
		return nil, errors.E("membuf.Guarded: mprotect", err)
	}
	return &Buf{mapping: m, b: m[n-size : n]}, nil
}

// Bytes returns the usable part of the buffer.
func (b *Buf) Bytes() []byte {
	return b.b
}

// Close unmaps the buffer.
func (b *Buf) Close() error {
	if b.mapping == nil {
		return nil
	}
	err := unix.Munmap(b.mapping)
	b.mapping, b.b = nil, nil
	return err
}

// MemTotal returns the amount of physical memory of the host, in bytes, as
// reported by /proc/meminfo.
func MemTotal() (int64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, errors.E("membuf.MemTotal", err)
	}
	defer f.Close() // nolint: errcheck
	return parseMemTotal(f)
}

func parseMemTotal(r io.Reader) (int64, error) {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		fields := strings.Fields(scan.Text())
		if len(fields) < 3 || fields[0] != "MemTotal:" {
			continue
		}
		if fields[2] != "kB" {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("membuf: expected kilobytes, got %s", fields[2]))
		}
		kb, err := strconv.ParseInt(fields[1], 0, 64)
		if err != nil {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("membuf: parsing %q", fields[1]), err)
		}
		return kb << 10, nil
	}
	if err := scan.Err(); err != nil {
		return 0, err
	}
	return 0, errors.E(errors.NotExist, "membuf: MemTotal not found in /proc/meminfo")
}
