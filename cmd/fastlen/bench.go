// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package main

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"
	"unsafe"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/fastlen/simd"
	"github.com/grailbio/fastlen/stress/membuf"
	gunsafe "github.com/grailbio/fastlen/unsafe"
)

type config struct {
	size, min, max int64
	fill           int64
	seed           int64
	trials         int
	parallel       int
}

// timing is the outcome of one scan function over all sequences.
type timing struct {
	name string
	lens []int
	best time.Duration
}

type result struct {
	width  int
	length int64
	fill   int64
	naive  timing
	word   timing
}

// equal reports whether both scans found the expected length in every
// sequence.
func (r result) equal() bool {
	for i := range r.naive.lens {
		if int64(r.naive.lens[i]) != r.length || r.word.lens[i] != r.naive.lens[i] {
			return false
		}
	}
	return true
}

func (r result) report(w io.Writer) {
	fmt.Fprintf(w, "%d sequence(s) of %d %d-byte units, fill %#x\n\n", len(r.naive.lens), r.length, r.width, r.fill)
	for _, t := range []timing{r.naive, r.word} {
		fmt.Fprintf(w, "%s\n%d\n%s took %s", t.name, t.lens[0], t.name, t.best)
		if secs := t.best.Seconds(); secs > 0 {
			bytes := float64(r.length) * float64(r.width) * float64(len(t.lens))
			fmt.Fprintf(w, " (%.2f GB/s)", bytes/secs/1e9)
		}
		fmt.Fprint(w, "\n\n")
	}
	ratio := r.naive.best.Seconds() / r.word.best.Seconds()
	how := "x slower"
	if ratio > 1 {
		how = "x faster"
	}
	equal := "not equal"
	if r.equal() {
		equal = "equal"
	}
	fmt.Fprintf(w, "%s was %.3g%s and the results are %s\n", r.word.name, ratio, how, equal)
}

// pickLength returns the sequence length to benchmark: cfg.size, or a random
// length in [cfg.min, cfg.max] if cfg.size is negative. The length is capped
// so that all buffers fit in half of physical memory when that is known, and
// must be addressable as a single buffer.
func pickLength(cfg config, unitSize int64, memTotal int64) (int64, error) {
	n := cfg.size
	if n < 0 {
		if cfg.min < 0 || cfg.max < cfg.min {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("invalid length range [%d, %d]", cfg.min, cfg.max))
		}
		seed := cfg.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		n = cfg.min + rand.New(rand.NewSource(seed)).Int63n(cfg.max-cfg.min+1)
	}
	if memTotal > 0 {
		limit := memTotal/2/int64(cfg.parallel)/unitSize - 2*simd.BytesPerWord
		if n > limit {
			log.Printf("capping length %d to %d units to fit in memory", n, limit)
			n = limit
		}
	}
	// The buffer holds n units, the terminator and up to two words of slack.
	if maxLen := (int64(math.MaxInt)-2*simd.BytesPerWord)/unitSize - 1; n > maxLen {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("length %d of %d-byte units exceeds the %d-unit maximum buffer on this platform", n, unitSize, maxLen))
	}
	return n, nil
}

// run allocates cfg.parallel terminated sequences of U and times both scans
// over them.
func run[U simd.Unit](cfg config) (result, error) {
	var u U
	unitSize := int64(unsafe.Sizeof(u))
	memTotal, err := membuf.MemTotal()
	if err != nil {
		log.Debug.Printf("not capping length: %v", err)
		memTotal = 0
	}
	n, err := pickLength(cfg, unitSize, memTotal)
	if err != nil {
		return result{}, err
	}
	fill := cfg.fill
	if fill == 0 {
		fill = 1 + n%64
	}
	if U(fill) == 0 || int64(U(fill)) != fill {
		return result{}, errors.E(errors.Invalid, fmt.Sprintf("fill value %d is not a non-zero %d-byte unit", fill, unitSize))
	}

	// Word slack past the terminator, for StrlenUnsafe's last read.
	nByte := simd.RoundUpPow2(int((n+1)*unitSize), simd.BytesPerWord) + simd.BytesPerWord
	seqs := make([][]U, cfg.parallel)
	for i := range seqs {
		buf, err := membuf.Alloc(nByte)
		if err != nil {
			return result{}, err
		}
		defer buf.Close() // nolint: errcheck
		seq := gunsafe.BytesToUnits[U](buf.Bytes())[:n+1]
		log.Debug.Printf("filling sequence %d: %d units of %#x", i, n, fill)
		simd.Memset(seq[:n], U(fill))
		seqs[i] = seq
	}

	r := result{width: int(unitSize), length: n, fill: fill}
	r.naive, err = timeScan("naive", seqs, cfg.trials, simd.NaiveStrlenUnsafe[U])
	if err != nil {
		return result{}, err
	}
	r.word, err = timeScan("word", seqs, cfg.trials, simd.StrlenUnsafe[U])
	return r, err
}

// timeScan runs scan over all seqs concurrently, trials times, and returns
// the lengths and the best wall-clock time.
func timeScan[U simd.Unit](name string, seqs [][]U, trials int, scan func(*U) int) (timing, error) {
	t := timing{name: name, lens: make([]int, len(seqs))}
	for trial := 0; trial < trials; trial++ {
		start := time.Now()
		err := traverse.Each(len(seqs), func(i int) error {
			t.lens[i] = scan(&seqs[i][0])
			return nil
		})
		if err != nil {
			return t, err
		}
		elapsed := time.Since(start)
		log.Debug.Printf("%s trial %d: %s", name, trial, elapsed)
		if trial == 0 || elapsed < t.best {
			t.best = elapsed
		}
	}
	return t, nil
}
