// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package simd_test

import (
	"runtime"
	"testing"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/fastlen/simd"
)

// Utility functions to assist with benchmarking of embarrassingly parallel
// jobs.

// multiBenchFunc is expected to scan the terminated sequence src nIter times.
type multiBenchFunc func(src []byte, nIter int) int

type taggedMultiBenchFunc struct {
	f   multiBenchFunc
	tag string
}

func multiBenchmark(bf multiBenchFunc, benchmarkSubtype string, nSrcByte, nJob int, b *testing.B) {
	// For each of the 3 nCpu settings below, multiBenchmark launches nCpu
	// goroutines, where each goroutine has nIter set to roughly (nJob / nCpu),
	// so that the total number of benchmark-target-function invocations across
	// all threads is nJob.  Each goroutine scans its own copy of the input.
	totalCpu := runtime.NumCPU()
	cases := []struct {
		nCpu    int
		descrip string
	}{
		{
			nCpu:    1,
			descrip: "1Cpu",
		},
		// 'Half' is often the saturation point, due to hyperthreading.
		{
			nCpu:    (totalCpu + 1) / 2,
			descrip: "HalfCpu",
		},
		{
			nCpu:    totalCpu,
			descrip: "AllCpu",
		},
	}
	for _, c := range cases {
		success := b.Run(benchmarkSubtype+c.descrip, func(b *testing.B) {
			srcs := make([][]byte, c.nCpu)
			for i := 0; i < c.nCpu; i++ {
				// Add 63 to prevent false sharing.
				newArrSrc := simd.MakeUnsafe(nSrcByte + 1 + 63)
				if i == 0 {
					for j := 0; j < nSrcByte; j++ {
						newArrSrc[j] = byte(1 + (j*3)%255)
					}
				} else {
					copy(newArrSrc[:nSrcByte], srcs[0])
				}
				srcs[i] = newArrSrc[:nSrcByte+1]
			}
			b.SetBytes(int64(nSrcByte) * int64(nJob))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = traverse.Each(c.nCpu, func(threadIdx int) error {
					nIter := (((threadIdx + 1) * nJob) / c.nCpu) - ((threadIdx * nJob) / c.nCpu)
					_ = bf(srcs[threadIdx], nIter)
					return nil
				})
			}
		})
		if !success {
			panic("benchmark failed")
		}
	}
}
