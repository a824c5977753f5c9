// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data_test

import (
	"testing"

	"github.com/dials/morgul/data"
)

func TestDecodePixel(t *testing.T) {
	cases := []struct {
		raw  uint16
		mode data.GainMode
		adc  uint16
	}{
		{0x0000, data.Gain0, 0},
		{0x3FFF, data.Gain0, 0x3FFF},
		{0x4001, data.Gain1, 1},
		{0x7FFF, data.Gain1, 0x3FFF},
		{0xC005, data.Gain2, 5},
		{0xFFFF, data.Gain2, 0x3FFF},
	}
	for _, c := range cases {
		mode, adc, err := data.DecodePixel(c.raw)
		if err != nil {
			t.Errorf("DecodePixel(%#04x): unexpected error %v", c.raw, err)
			continue
		}
		if mode != c.mode || adc != c.adc {
			t.Errorf("DecodePixel(%#04x) = (%v, %d), want (%v, %d)", c.raw, mode, adc, c.mode, c.adc)
		}
	}
}

func TestDecodePixelRejectsReservedPattern(t *testing.T) {
	for _, raw := range []uint16{0x8000, 0x8001, 0xBFFF} {
		if _, _, err := data.DecodePixel(raw); err == nil {
			t.Errorf("DecodePixel(%#04x): want error for reserved gain bits, got nil", raw)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	modes := []data.GainMode{data.Gain0, data.Gain1, data.Gain2}
	adcs := []uint16{0, 1, 0x1FFF, 0x3FFF}
	for _, mode := range modes {
		for _, adc := range adcs {
			gotMode, gotADC, err := data.DecodePixel(data.EncodePixel(mode, adc))
			if err != nil {
				t.Fatalf("round trip (%v, %d): %v", mode, adc, err)
			}
			if gotMode != mode || gotADC != adc {
				t.Errorf("round trip (%v, %d) = (%v, %d)", mode, adc, gotMode, gotADC)
			}
		}
	}
}
