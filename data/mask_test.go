// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data_test

import (
	"testing"

	"github.com/dials/morgul/data"
)

func TestCalculateMaskFlagsNoisyPixel(t *testing.T) {
	c, err := data.NewCorrector(constGrids(1.0), constGrids(100.0), nil, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	// Steady pixels read 150 every frame; pixel 9 swings between 100
	// and 200, so its corrected values are 0 and 100.
	frameA := constRaw(data.Gain0, 150)
	frameB := constRaw(data.Gain0, 150)
	frameA[9] = data.EncodePixel(data.Gain0, 100)
	frameB[9] = data.EncodePixel(data.Gain0, 200)

	mask, dispersion, err := data.CalculateMask(sliceStack{frameA, frameB}, c, nil)
	if err != nil {
		t.Fatal(err)
	}

	flagged := 0
	for _, bad := range mask {
		if bad {
			flagged++
		}
	}
	if flagged != 1 || !mask[9] {
		t.Errorf("flagged %d pixels (pixel 9: %v), want exactly pixel 9", flagged, mask[9])
	}

	// variance 2500 over mean 50.
	if dispersion[9] != 50 {
		t.Errorf("noisy pixel dispersion = %g, want 50", dispersion[9])
	}
	if dispersion[10] != 0 {
		t.Errorf("steady pixel dispersion = %g, want 0", dispersion[10])
	}
}

func TestCalculateMaskRejectsEmptyStack(t *testing.T) {
	c, err := data.NewCorrector(constGrids(1.0), constGrids(100.0), nil, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := data.CalculateMask(sliceStack{}, c, nil); err == nil {
		t.Error("want error for empty flat-field stack, got nil")
	}
}
