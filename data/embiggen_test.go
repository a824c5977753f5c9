// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data_test

import (
	"testing"

	"github.com/dials/morgul/data"
)

func TestEmbiggenRejectsWrongShape(t *testing.T) {
	if _, err := data.Embiggen(make([]int32, 10)); err == nil {
		t.Error("want error for wrong input shape, got nil")
	}
}

func TestEmbiggenCoverage(t *testing.T) {
	packed := make([]int32, data.ModPixels)
	for i := range packed {
		packed[i] = 7
	}
	bigger, err := data.Embiggen(packed)
	if err != nil {
		t.Fatal(err)
	}

	written := 0
	for _, v := range bigger {
		switch v {
		case 7:
			written++
		case data.Sentinel:
		default:
			t.Fatalf("unexpected value %d in embiggened frame", v)
		}
	}

	// 2x254 interior rows of 4x254 interior columns survive the remap.
	want := 2 * 254 * 4 * 254
	if written != want {
		t.Errorf("written pixels = %d, want %d", written, want)
	}
	if sentinels := data.BigPixels - want; len(bigger)-written != sentinels {
		t.Errorf("sentinel pixels = %d, want %d", len(bigger)-written, sentinels)
	}
}

func TestEmbiggenSpotMappings(t *testing.T) {
	cases := []struct {
		srcRow, srcCol int
		dstRow, dstCol int
	}{
		// First interior pixel of the bottom-left tile flips to the top.
		{1, 1, 512, 1},
		{254, 254, 259, 254},
		// Second column block shifts by the two-pixel gap.
		{1, 257, 512, 258},
		// Top half lands below the middle gap rows.
		{257, 1, 254, 1},
		{510, 1022, 1, 1027},
	}

	for _, c := range cases {
		packed := make([]int32, data.ModPixels)
		packed[c.srcRow*data.ModCols+c.srcCol] = 42
		bigger, err := data.Embiggen(packed)
		if err != nil {
			t.Fatal(err)
		}
		got := bigger[c.dstRow*data.BigCols+c.dstCol]
		if got != 42 {
			t.Errorf("src (%d,%d): dst (%d,%d) = %d, want 42", c.srcRow, c.srcCol, c.dstRow, c.dstCol, got)
		}
	}
}

func TestRoundTiesAwayFromZero(t *testing.T) {
	out := data.Round([]float64{0.5, -0.5, 2.4, 2.6, -3.5, 0})
	want := []int32{1, -1, 2, 3, -4, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("Round[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}
