// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"fmt"
	"sort"

	"github.com/dials/morgul/container"
	"github.com/dials/morgul/data"
)

// DynamicGainMode is the adaptive acquisition mode; flat-field stacks
// for mask building must be taken in it.
const DynamicGainMode = "dynamic"

// MaskSet is one bad-pixel mask artifact: per-module exclusion grids
// valid for a single exposure time. Masked pixels are excluded from
// correction.
type MaskSet struct {
	Exposure float64 // seconds
	modules  map[string][]bool
}

func NewMaskSet(exposure float64) *MaskSet {
	return &MaskSet{Exposure: exposure, modules: make(map[string][]bool)}
}

func (s *MaskSet) Put(id string, mask []bool) {
	s.modules[id] = mask
}

// Module returns the exclusion grid for one module.
func (s *MaskSet) Module(id string) ([]bool, error) {
	m, ok := s.modules[id]
	if !ok {
		return nil, &data.IntegrityError{Reason: fmt.Sprintf("mask set has no module %s", id)}
	}
	return m, nil
}

// ModuleIDs lists the covered modules in stable order.
func (s *MaskSet) ModuleIDs() []string {
	ids := make([]string, 0, len(s.modules))
	for id := range s.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildMask derives a module's bad-pixel mask from a flat-field stack,
// checking the acquisition gain mode precondition before any frame work.
// The dispersion grid comes back alongside the mask for QC plotting.
func BuildMask(stack *container.RawStack, c *data.Corrector, progress data.Progress) (mask []bool, dispersion []float64, err error) {
	if err := stack.RequireGainMode(DynamicGainMode); err != nil {
		return nil, nil, err
	}
	return data.CalculateMask(stack, c, progress)
}
