// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package container_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dials/morgul/container"
	"github.com/dials/morgul/data"
)

func bigFrame(fill int32) []int32 {
	frame := make([]int32, data.BigPixels)
	for i := range frame {
		frame[i] = fill
	}
	return frame
}

func TestCorrectedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrected.fits")
	w, err := container.CreateCorrected(path, testMeta(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame(bigFrame(3)); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame(bigFrame(-1)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	done, err := container.IsCorrected(path)
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("finished container does not carry the corrected marker")
	}

	frame, err := container.ReadCorrectedFrame(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != data.BigPixels || frame[0] != -1 {
		t.Errorf("frame 1 = len %d first %d, want len %d first -1", len(frame), frame[0], data.BigPixels)
	}
}

func TestCorrectedShortWriteDoesNotPublish(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrected.fits")
	w, err := container.CreateCorrected(path, testMeta(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame(bigFrame(3)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err == nil {
		t.Fatal("want error closing a short container, got nil")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("short container was published")
	}
}

func TestCorrectedRejectsWrongShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrected.fits")
	w, err := container.CreateCorrected(path, testMeta(), 1)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Abort()
	if err := w.WriteFrame(make([]int32, data.ModPixels)); err == nil {
		t.Error("want error for a packed-geometry frame, got nil")
	}
}

func TestIsCorrectedOnRawInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.fits")
	if err := container.WriteRawStack(path, testMeta(), testFrames(1)); err != nil {
		t.Fatal(err)
	}
	done, err := container.IsCorrected(path)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("raw container reported as corrected")
	}
}
