// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

// A module is a 2x4 grid of 256x256 ASIC tiles read out as a single
// 512x1024 frame. Grids are flat slices in row-major order.
const (
	ModRows   = 512
	ModCols   = 1024
	ModPixels = ModRows * ModCols

	// Embiggened geometry, see Embiggen.
	BigRows   = 514
	BigCols   = 1030
	BigPixels = BigRows * BigCols
)

// GainMode is one of the three adaptive amplification settings a pixel
// selects per exposure.
type GainMode int

const (
	Gain0 GainMode = iota
	Gain1
	Gain2

	NGainModes = 3
)

func (g GainMode) String() string {
	switch g {
	case Gain0:
		return "gain mode 0"
	case Gain1:
		return "gain mode 1"
	case Gain2:
		return "gain mode 2"
	}
	return "invalid gain mode"
}

const (
	gainShift = 14
	adcMask   = 0x3FFF

	// Gain mode 2 is carried on the wire as bit pattern 3. Pattern 2 is
	// reserved and never produced by the hardware mode table.
	gain2Bits = 3
)

// DecodePixel splits a packed readout value into its gain mode and 14-bit
// ADC reading. The reserved gain bit pattern 2 is rejected.
func DecodePixel(raw uint16) (GainMode, uint16, error) {
	adc := raw & adcMask
	switch raw >> gainShift {
	case 0:
		return Gain0, adc, nil
	case 1:
		return Gain1, adc, nil
	case gain2Bits:
		return Gain2, adc, nil
	}
	return 0, 0, integrityf("reserved gain bit pattern 2 (raw value %#04x)", raw)
}

// EncodePixel packs a gain mode and ADC value into the wire encoding.
// EncodePixel is the inverse of DecodePixel for adc values in [0, 0x3FFF].
func EncodePixel(mode GainMode, adc uint16) uint16 {
	bits := uint16(mode)
	if mode == Gain2 {
		bits = gain2Bits
	}
	return bits<<gainShift | adc&adcMask
}

// Stack is a source of raw module frames, typically backed by an
// acquisition container on disk.
type Stack interface {
	Frames() int
	Frame(i int) ([]uint16, error)
}

// Progress reports completion of long stack loops to the caller. A nil
// Progress is valid and reports nothing.
type Progress func(done, total int)

func (p Progress) report(done, total int) {
	if p != nil {
		p(done, total)
	}
}
