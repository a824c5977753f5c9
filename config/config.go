// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package config loads the installation configuration consumed by the
// calibration pipeline: where the vendor calibration files live, where
// the calibration catalog is, and which detector (and module layout) is
// active. The pipeline only reads this surface; it is owned by the
// installation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
)

// ConfigurationError reports a missing or inconsistent installation
// mapping (unknown detector, module position with no entry, ...).
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return e.Reason }

// Module identifies one physical detector tile and its position.
type Module struct {
	ID     string `koanf:"id"`
	Row    int    `koanf:"row"`
	Column int    `koanf:"column"`
}

// Detector is the module layout of one named detector.
type Detector struct {
	Modules []Module `koanf:"modules"`
}

// Config is the consumed configuration surface.
type Config struct {
	// Calibration is the calibration root URL (bare path, file:// or
	// gs://) holding the vendor gain-map directories.
	Calibration string `koanf:"calibration"`
	// Catalog is the path of the append-only calibration log.
	Catalog string `koanf:"catalog"`
	// Detector names the active detector in Detectors.
	Detector string `koanf:"detector"`
	// Credentials optionally holds bucket credentials JSON for gs://
	// calibration roots.
	Credentials string `koanf:"credentials"`

	Detectors map[string]Detector `koanf:"detectors"`
}

// Load reads the yaml configuration at path, then applies the
// JUNGFRAU_GAIN_MAPS and JUNGFRAU_CALIBRATION_LOG environment overrides.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Config{}, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("loading config defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}

	if root := os.Getenv("JUNGFRAU_GAIN_MAPS"); root != "" {
		cfg.Calibration = root
	}
	if log := os.Getenv("JUNGFRAU_CALIBRATION_LOG"); log != "" {
		cfg.Catalog = log
	}

	return cfg, nil
}

// Active returns the module layout for the configured detector.
func (c Config) Active() (Detector, error) {
	det, ok := c.Detectors[strings.ToLower(c.Detector)]
	if !ok {
		known := make([]string, 0, len(c.Detectors))
		for name := range c.Detectors {
			known = append(known, name)
		}
		return Detector{}, &ConfigurationError{Reason: fmt.Sprintf(
			"no configuration for detector %q (known: %s)", c.Detector, strings.Join(known, ", "))}
	}
	return det, nil
}

// ModuleAt resolves the module mounted at a (row, column) position.
func (d Detector) ModuleAt(row, col int) (Module, error) {
	for _, m := range d.Modules {
		if m.Row == row && m.Column == col {
			return m, nil
		}
	}
	return Module{}, &ConfigurationError{Reason: fmt.Sprintf(
		"no module configured at row %d, column %d", row, col)}
}

// ModuleByID resolves a module entry from its serial.
func (d Detector) ModuleByID(id string) (Module, error) {
	for _, m := range d.Modules {
		if m.ID == id {
			return m, nil
		}
	}
	return Module{}, &ConfigurationError{Reason: fmt.Sprintf("no module entry for %q", id)}
}
