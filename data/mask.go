// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DispersionLimit is the variance-to-mean ratio above which a pixel is
// excluded. Poisson-consistent photon counting sits near 1.
const DispersionLimit = 3.0

// CalculateMask runs the corrector over a uniform-illumination stack and
// flags pixels whose corrected-value dispersion (variance / mean)
// exceeds DispersionLimit. The per-pixel dispersion grid is returned
// alongside the mask for QC plotting. The caller is responsible for
// checking that the stack was acquired in dynamic gain mode.
func CalculateMask(stack Stack, c *Corrector, progress Progress) (mask []bool, dispersion []float64, err error) {
	n := stack.Frames()
	if n == 0 {
		return nil, nil, integrityf("flat-field stack is empty")
	}

	sum := make([]float64, ModPixels)
	sumSq := make([]float64, ModPixels)
	sqs := make([]float64, ModPixels)

	for j := 0; j < n; j++ {
		raw, err := stack.Frame(j)
		if err != nil {
			return nil, nil, fmt.Errorf("flat-field frame %d: %w", j, err)
		}
		frame, err := c.Frame(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("flat-field frame %d: %w", j, err)
		}

		for i, v := range frame {
			sqs[i] = v * v
		}
		floats.Add(sum, frame)
		floats.Add(sumSq, sqs)
		progress.report(j+1, n)
	}

	mask = make([]bool, ModPixels)
	dispersion = make([]float64, ModPixels)
	fn := float64(n)
	for i := range sum {
		mean := sum[i] / fn
		variance := sumSq[i]/fn - mean*mean
		if mean == 0 {
			mean = 1
		}
		dispersion[i] = variance / mean
		mask[i] = dispersion[i] > DispersionLimit
	}

	return mask, dispersion, nil
}
