// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data_test

import (
	"testing"

	"github.com/dials/morgul/data"
)

// sliceStack serves in-memory frames as a data.Stack.
type sliceStack [][]uint16

func (s sliceStack) Frames() int { return len(s) }

func (s sliceStack) Frame(i int) ([]uint16, error) { return s[i], nil }

func TestAveragePedestal(t *testing.T) {
	frameA := constRaw(data.Gain1, 10)
	frameB := constRaw(data.Gain1, 20)
	// Pixel 5 never reports in the target mode.
	frameA[5] = data.EncodePixel(data.Gain0, 123)
	frameB[5] = data.EncodePixel(data.Gain0, 456)

	mean, variance, zeroObs, err := data.AveragePedestal(data.Gain1, sliceStack{frameA, frameB}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if mean[0] != 15 {
		t.Errorf("mean = %g, want 15", mean[0])
	}
	// (100 + 400)/2 - 15^2
	if variance[0] != 25 {
		t.Errorf("variance = %g, want 25", variance[0])
	}
	if zeroObs[0] {
		t.Error("observed pixel flagged as zero-observation")
	}

	if !zeroObs[5] {
		t.Error("never-observed pixel not flagged")
	}
	if mean[5] != 0 || variance[5] != 0 {
		t.Errorf("never-observed pixel stats = (%g, %g), want (0, 0)", mean[5], variance[5])
	}
}

func TestAveragePedestalRefusesBlankStack(t *testing.T) {
	stack := sliceStack{constRaw(data.Gain0, 10), constRaw(data.Gain0, 10)}
	if _, _, _, err := data.AveragePedestal(data.Gain2, stack, nil); err == nil {
		t.Error("want error for a stack with no target-mode observations, got nil")
	}
}

func TestAveragePedestalRejectsEmptyStack(t *testing.T) {
	if _, _, _, err := data.AveragePedestal(data.Gain0, sliceStack{}, nil); err == nil {
		t.Error("want error for empty stack, got nil")
	}
}

func TestAveragePedestalReportsProgress(t *testing.T) {
	stack := sliceStack{constRaw(data.Gain0, 10), constRaw(data.Gain0, 11), constRaw(data.Gain0, 12)}
	var calls int
	var lastDone, lastTotal int
	progress := func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	}
	if _, _, _, err := data.AveragePedestal(data.Gain0, stack, progress); err != nil {
		t.Fatal(err)
	}
	if calls != 3 || lastDone != 3 || lastTotal != 3 {
		t.Errorf("progress calls = %d (last %d/%d), want 3 calls ending 3/3", calls, lastDone, lastTotal)
	}
}
