// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import "fmt"

// Corrector converts raw module frames into calibrated photon counts
// using per-mode gain maps and pedestals. It is pure; the same input
// frame always produces the same output.
type Corrector struct {
	gain   [NGainModes][]float64
	mean   [NGainModes][]float64
	valid  [NGainModes][]bool
	energy float64
}

// NewCorrector validates the calibration inputs and prepares a corrector.
// All three gain modes must be present in both the gain map and the
// pedestal, every grid must match the module shape, and energy (keV) must
// be positive. badPixels may be nil.
func NewCorrector(gainMap, pedestal [NGainModes][]float64, badPixels []bool, energyKeV float64) (*Corrector, error) {
	if energyKeV <= 0 {
		return nil, integrityf("photon energy must be positive, got %g keV", energyKeV)
	}
	if badPixels != nil && len(badPixels) != ModPixels {
		return nil, integrityf("bad pixel mask has %d pixels, want %d", len(badPixels), ModPixels)
	}

	var missing []GainMode
	for g := Gain0; g < NGainModes; g++ {
		if pedestal[g] == nil {
			missing = append(missing, g)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompletePedestalError{Missing: missing}
	}

	c := &Corrector{energy: energyKeV}
	for g := Gain0; g < NGainModes; g++ {
		if len(gainMap[g]) != ModPixels {
			return nil, integrityf("%s gain map has %d pixels, want %d", g, len(gainMap[g]), ModPixels)
		}
		if len(pedestal[g]) != ModPixels {
			return nil, integrityf("%s pedestal has %d pixels, want %d", g, len(pedestal[g]), ModPixels)
		}

		c.gain[g] = gainMap[g]
		c.mean[g] = pedestal[g]

		// A pedestal mean of exactly zero marks a pixel that was never
		// observed in this mode; its ADC reading cannot be trusted.
		valid := make([]bool, ModPixels)
		for i, m := range pedestal[g] {
			valid[i] = m != 0 && (badPixels == nil || !badPixels[i])
		}
		c.valid[g] = valid
	}

	return c, nil
}

// Energy returns the photon energy (keV) the corrector was built for.
func (c *Corrector) Energy() float64 { return c.energy }

// Frame corrects a single raw frame. Per pixel, the ADC reading in the
// selected gain mode g becomes ((adc * valid[g]) - mean[g]) / (gain[g] *
// energy); the two unselected modes contribute nothing. A reserved gain
// bit pattern on any pixel fails the whole frame.
func (c *Corrector) Frame(raw []uint16) ([]float64, error) {
	if len(raw) != ModPixels {
		return nil, integrityf("raw frame has %d pixels, want %d", len(raw), ModPixels)
	}

	out := make([]float64, ModPixels)
	for i, rv := range raw {
		mode, adc, err := DecodePixel(rv)
		if err != nil {
			return nil, fmt.Errorf("pixel (%d,%d): %w", i/ModCols, i%ModCols, err)
		}
		v := float64(0)
		if c.valid[mode][i] {
			v = float64(adc)
		}
		out[i] = (v - c.mean[mode][i]) / (c.gain[mode][i] * c.energy)
	}
	return out, nil
}
