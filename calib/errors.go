// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"fmt"
	"strings"
)

// LookupError is the common type of the calibration catalog resolution
// failures. Each concrete error names what constraint could not be met.
type LookupError interface {
	error
	lookupError()
}

// NoEntryError: the catalog has no records at all of the requested kind.
type NoEntryError struct {
	Kind Kind
}

func (e *NoEntryError) Error() string {
	return fmt.Sprintf("could not find any %s entry in the calibration catalog", strings.Title(strings.ToLower(string(e.Kind))))
}
func (*NoEntryError) lookupError() {}

// WindowError: entries exist, but none within the requested time window.
type WindowError struct {
	Kind    Kind
	Minutes int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("could not find a %s entry taken within %d minutes",
		strings.Title(strings.ToLower(string(e.Kind))), e.Minutes)
}
func (*WindowError) lookupError() {}

// ExposureError: entries exist, but none with a matching exposure time.
type ExposureError struct {
	Kind     Kind
	Exposure float64
}

func (e *ExposureError) Error() string {
	return fmt.Sprintf("could not find a %s entry taken with exposure %v s",
		strings.Title(strings.ToLower(string(e.Kind))), e.Exposure)
}
func (*ExposureError) lookupError() {}

// CollisionError: one or more output paths already exist and overwriting
// was not authorized. All collisions in a batch are reported together.
type CollisionError struct {
	Paths []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("output already exists (pass overwrite to replace): %s", strings.Join(e.Paths, ", "))
}
