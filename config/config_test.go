// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package config_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/dials/morgul/config"
)

const sampleConfig = `
calibration: /cal/jungfrau
catalog: /cal/calibration.log
detector: jf1m

detectors:
  jf1m:
    modules:
      - id: M420
        row: 0
        column: 0
      - id: M418
        row: 1
        column: 0
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "morgul.yml")
	if err := ioutil.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Calibration != "/cal/jungfrau" {
		t.Errorf("calibration = %q", cfg.Calibration)
	}
	if cfg.Catalog != "/cal/calibration.log" {
		t.Errorf("catalog = %q", cfg.Catalog)
	}

	det, err := cfg.Active()
	if err != nil {
		t.Fatal(err)
	}
	if len(det.Modules) != 2 {
		t.Fatalf("modules = %d, want 2", len(det.Modules))
	}

	mod, err := det.ModuleAt(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mod.ID != "M418" {
		t.Errorf("module at (1,0) = %s, want M418", mod.ID)
	}

	mod, err = det.ModuleByID("M420")
	if err != nil {
		t.Fatal(err)
	}
	if mod.Row != 0 || mod.Column != 0 {
		t.Errorf("M420 at (%d,%d), want (0,0)", mod.Row, mod.Column)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	os.Setenv("JUNGFRAU_GAIN_MAPS", "/other/root")
	os.Setenv("JUNGFRAU_CALIBRATION_LOG", "/other/log")
	defer os.Unsetenv("JUNGFRAU_GAIN_MAPS")
	defer os.Unsetenv("JUNGFRAU_CALIBRATION_LOG")

	cfg, err := config.Load(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Calibration != "/other/root" {
		t.Errorf("calibration = %q, want the environment override", cfg.Calibration)
	}
	if cfg.Catalog != "/other/log" {
		t.Errorf("catalog = %q, want the environment override", cfg.Catalog)
	}
}

func TestUnknownDetector(t *testing.T) {
	cfg, err := config.Load(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Detector = "jf9m"
	if _, err := cfg.Active(); err == nil {
		t.Error("want error for unknown detector, got nil")
	}
}

func TestUnknownModulePosition(t *testing.T) {
	cfg, err := config.Load(writeConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	det, err := cfg.Active()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := det.ModuleAt(7, 7); err == nil {
		t.Error("want error for unmapped position, got nil")
	}
	if _, err := det.ModuleByID("M999"); err == nil {
		t.Error("want error for unknown module id, got nil")
	}
}
