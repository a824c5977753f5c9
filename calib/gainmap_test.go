// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib_test

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/dials/morgul/calib"
	"github.com/dials/morgul/data"
)

func writeGainFile(t *testing.T, path string, tables int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for g := 0; g < tables; g++ {
		table := make([]float64, data.ModPixels)
		for i := range table {
			table[i] = float64(g + 1)
		}
		if err := binary.Write(f, binary.LittleEndian, table); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadGainMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gains.bin")
	writeGainFile(t, path, 3)

	gm, err := calib.LoadGainMap(context.Background(), path, "")
	if err != nil {
		t.Fatal(err)
	}
	for g := data.Gain0; g < data.NGainModes; g++ {
		if gm[g][0] != float64(g+1) || gm[g][data.ModPixels-1] != float64(g+1) {
			t.Errorf("%s table = %g, want %g", g, gm[g][0], float64(g+1))
		}
	}
}

func TestLoadGainMapShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gains.bin")
	writeGainFile(t, path, 2)

	if _, err := calib.LoadGainMap(context.Background(), path, ""); err == nil {
		t.Error("want error for a short gain file, got nil")
	}
}

func TestLoadGainMapTrailingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gains.bin")
	writeGainFile(t, path, 4)

	if _, err := calib.LoadGainMap(context.Background(), path, ""); err == nil {
		t.Error("want error for trailing data, got nil")
	}
}
