// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// AveragePedestal aggregates a calibration stack into per-pixel mean and
// variance of the ADC reading for one gain mode. Pixels that were never
// observed in the target mode are flagged in zeroObs; their mean and
// variance are computed with a count of one so the division is safe.
//
// The whole build aborts if no pixel in the entire stack was observed in
// the target mode: a totally blank pedestal must never be written.
func AveragePedestal(mode GainMode, stack Stack, progress Progress) (mean, variance []float64, zeroObs []bool, err error) {
	n := stack.Frames()
	if n == 0 {
		return nil, nil, nil, integrityf("pedestal stack for %s is empty", mode)
	}

	sum := make([]float64, ModPixels)
	sumSq := make([]float64, ModPixels)
	count := make([]float64, ModPixels)
	vals := make([]float64, ModPixels)
	sqs := make([]float64, ModPixels)

	for j := 0; j < n; j++ {
		raw, err := stack.Frame(j)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("pedestal frame %d: %w", j, err)
		}
		if len(raw) != ModPixels {
			return nil, nil, nil, integrityf("pedestal frame %d has %d pixels, want %d", j, len(raw), ModPixels)
		}

		for i, rv := range raw {
			m, adc, err := DecodePixel(rv)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("pedestal frame %d pixel (%d,%d): %w", j, i/ModCols, i%ModCols, err)
			}
			if m != mode {
				vals[i], sqs[i] = 0, 0
				continue
			}
			v := float64(adc)
			vals[i] = v
			sqs[i] = v * v
			count[i]++
		}

		floats.Add(sum, vals)
		floats.Add(sumSq, sqs)
		progress.report(j+1, n)
	}

	total := floats.Sum(count)
	if total == 0 {
		return nil, nil, nil, integrityf("no %s observations in any of %d frames; refusing to build a blank pedestal", mode, n)
	}

	zeroObs = make([]bool, ModPixels)
	for i, c := range count {
		if c == 0 {
			zeroObs[i] = true
			count[i] = 1
		}
	}

	mean = make([]float64, ModPixels)
	variance = make([]float64, ModPixels)
	for i := range mean {
		m := sum[i] / count[i]
		mean[i] = m
		variance[i] = sumSq[i]/count[i] - m*m
	}

	return mean, variance, zeroObs, nil
}
