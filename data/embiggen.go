// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import "math"

// Sentinel marks embiggened pixels that no source pixel maps onto: the
// physical inter-ASIC gaps and the oversized ASIC border pixels.
const Sentinel int32 = -1

// Embiggen remaps a packed (512,1024) module frame onto the physically
// correct (514,1030) grid. ASIC border rows and columns are dropped
// (those pixels are double sized in hardware), two gap rows open up at
// the module's vertical middle, and the vertical order flips. Every
// destination pixel is written by at most one source pixel; the rest
// keep Sentinel.
func Embiggen(packed []int32) ([]int32, error) {
	if len(packed) != ModPixels {
		return nil, integrityf("embiggen input has %d pixels, want %d (512x1024)", len(packed), ModPixels)
	}

	bigger := make([]int32, BigPixels)
	for i := range bigger {
		bigger[i] = Sentinel
	}

	for i := 0; i < 2; i++ {
		for j := 0; j < 4; j++ {
			dstCol := 1
			if j > 0 {
				dstCol = j*258 - 1 + 1
			}
			srcCol := j*256 + 1
			for k := 1; k < 255; k++ {
				srcRow := i*256 + k
				dstRow := 513 - i*258 - k
				src := srcRow*ModCols + srcCol
				dst := dstRow*BigCols + dstCol
				copy(bigger[dst:dst+254], packed[src:src+254])
			}
		}
	}

	return bigger, nil
}

// Round converts a corrected frame to integer counts, rounding to
// nearest with ties away from zero.
func Round(frame []float64) []int32 {
	out := make([]int32, len(frame))
	for i, v := range frame {
		out[i] = int32(math.Round(v))
	}
	return out
}
