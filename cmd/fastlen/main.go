// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/must"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("fastlen: ")
	log.AddFlags()
	var (
		cfg   config
		width = flag.Int("width", 1, "unit width in bytes: 1, 2 or 4")
	)
	flag.Int64Var(&cfg.size, "size", -1, "sequence length in units; picked at random from [min, max] if negative")
	flag.Int64Var(&cfg.min, "min", 14000000000, "minimum random sequence length in units")
	flag.Int64Var(&cfg.max, "max", 15000000000, "maximum random sequence length in units")
	flag.Int64Var(&cfg.fill, "fill", 0, "non-zero fill value; 1 + length%64 if zero")
	flag.Int64Var(&cfg.seed, "seed", 0, "random seed; derived from the clock if zero")
	flag.IntVar(&cfg.trials, "trials", 1, "number of timed runs per scan; the best is reported")
	flag.IntVar(&cfg.parallel, "parallel", 1, "number of sequences scanned concurrently")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `usage: fastlen [flags]

Fastlen fills a large buffer with a non-zero unit value, terminates it,
and times a unit-at-a-time scan and a word-at-a-time scan of it. It
prints both lengths and timings, and exits with status 1 if the lengths
differ.

`)
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 0 {
		flag.Usage()
	}
	must.Truef(cfg.trials > 0, "-trials must be positive, got %d", cfg.trials)
	must.Truef(cfg.parallel > 0, "-parallel must be positive, got %d", cfg.parallel)

	var (
		r   result
		err error
	)
	switch *width {
	case 1:
		r, err = run[uint8](cfg)
	case 2:
		r, err = run[uint16](cfg)
	case 4:
		r, err = run[uint32](cfg)
	default:
		log.Error.Printf("invalid -width %d", *width)
		flag.Usage()
	}
	must.Nil(err)
	r.report(os.Stdout)
	if !r.equal() {
		os.Exit(1)
	}
}
