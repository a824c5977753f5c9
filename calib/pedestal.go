// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"fmt"
	"sort"
	"time"

	"github.com/dials/morgul/container"
	"github.com/dials/morgul/data"
)

// Acquisition gain-mode names recorded by the control system. Pedestal
// runs come one fixed mode per acquisition; flat fields for mask
// building are taken in the adaptive mode.
const (
	ForceGain1Mode = "forceswitchg1"
	ForceGain2Mode = "forceswitchg2"
)

// PedestalGainMode maps an acquisition gain-mode name to the gain table
// that run calibrates.
func PedestalGainMode(mode string) (data.GainMode, error) {
	switch mode {
	case DynamicGainMode:
		return data.Gain0, nil
	case ForceGain1Mode:
		return data.Gain1, nil
	case ForceGain2Mode:
		return data.Gain2, nil
	}
	return 0, &data.IntegrityError{Reason: fmt.Sprintf(
		"unknown acquisition gain mode %q for a pedestal run", mode)}
}

// ModulePedestal holds one module's per-mode pedestal statistics for a
// single exposure time. All three gain modes must be present before the
// module may be corrected.
type ModulePedestal struct {
	mean     [data.NGainModes][]float64
	variance [data.NGainModes][]float64
	zeroObs  [data.NGainModes][]bool

	timestamps [data.NGainModes]time.Time
	sources    [data.NGainModes]string
}

// SetMode stores the aggregated statistics for one gain mode.
func (m *ModulePedestal) SetMode(g data.GainMode, mean, variance []float64, zeroObs []bool, ts time.Time, source string) {
	m.mean[g] = mean
	m.variance[g] = variance
	m.zeroObs[g] = zeroObs
	m.timestamps[g] = ts
	m.sources[g] = source
}

// Mode returns the statistics for one gain mode.
func (m *ModulePedestal) Mode(g data.GainMode) (mean, variance []float64, zeroObs []bool, err error) {
	if m.mean[g] == nil {
		return nil, nil, nil, &data.IncompletePedestalError{Missing: []data.GainMode{g}}
	}
	return m.mean[g], m.variance[g], m.zeroObs[g], nil
}

// ModeInfo returns the provenance of one gain mode's statistics.
func (m *ModulePedestal) ModeInfo(g data.GainMode) (ts time.Time, source string) {
	return m.timestamps[g], m.sources[g]
}

// Missing lists the gain modes not yet present.
func (m *ModulePedestal) Missing() []data.GainMode {
	var missing []data.GainMode
	for g := data.Gain0; g < data.NGainModes; g++ {
		if m.mean[g] == nil {
			missing = append(missing, g)
		}
	}
	return missing
}

// Complete reports whether all three gain modes are present.
func (m *ModulePedestal) Complete() bool { return len(m.Missing()) == 0 }

// Corrector builds a corrector for this module. It fails before any
// frame is touched if the pedestal set is incomplete.
func (m *ModulePedestal) Corrector(moduleID string, gm GainMap, badPixels []bool, energyKeV float64) (*data.Corrector, error) {
	if missing := m.Missing(); len(missing) > 0 {
		return nil, &data.IncompletePedestalError{Module: moduleID, Missing: missing}
	}
	return data.NewCorrector([data.NGainModes][]float64(gm), m.mean, badPixels, energyKeV)
}

// PedestalSet is one pedestal artifact: per-module statistics valid for
// a single exposure time.
type PedestalSet struct {
	Exposure float64 // seconds
	modules  map[string]*ModulePedestal
}

func NewPedestalSet(exposure float64) *PedestalSet {
	return &PedestalSet{Exposure: exposure, modules: make(map[string]*ModulePedestal)}
}

// Module returns the statistics for one module, creating the (empty)
// entry if it does not exist yet. Builders fill it mode by mode.
func (s *PedestalSet) Module(id string) *ModulePedestal {
	m, ok := s.modules[id]
	if !ok {
		m = &ModulePedestal{}
		s.modules[id] = m
	}
	return m
}

// Lookup returns the statistics for one module, or an error naming the
// module when the artifact does not cover it.
func (s *PedestalSet) Lookup(id string) (*ModulePedestal, error) {
	m, ok := s.modules[id]
	if !ok {
		return nil, &data.IntegrityError{Reason: fmt.Sprintf("pedestal set has no module %s", id)}
	}
	return m, nil
}

// ModuleIDs lists the covered modules in stable order.
func (s *PedestalSet) ModuleIDs() []string {
	ids := make([]string, 0, len(s.modules))
	for id := range s.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate fails unless every module in the set is complete.
func (s *PedestalSet) Validate() error {
	for _, id := range s.ModuleIDs() {
		if missing := s.modules[id].Missing(); len(missing) > 0 {
			return &data.IncompletePedestalError{Module: id, Missing: missing}
		}
	}
	return nil
}

// BuildPedestal aggregates per-mode pedestal runs into one set. All
// runs must share one exposure time, and each (module, gain mode) pair
// may appear at most once.
func BuildPedestal(stacks []*container.RawStack, progress func(input string) data.Progress) (*PedestalSet, error) {
	if len(stacks) == 0 {
		return nil, &data.IntegrityError{Reason: "no pedestal runs given"}
	}

	set := NewPedestalSet(stacks[0].Meta.ExposureTime)
	for _, stack := range stacks {
		if !SameExposure(stack.Meta.ExposureTime, set.Exposure) {
			return nil, &data.IntegrityError{Reason: fmt.Sprintf(
				"%s: exposure %g does not match the run's %g",
				stack.Path, stack.Meta.ExposureTime, set.Exposure)}
		}
		g, err := PedestalGainMode(stack.Meta.GainMode)
		if err != nil {
			return nil, err
		}
		mod := set.Module(stack.Meta.Module)
		if _, _, _, err := mod.Mode(g); err == nil {
			return nil, &data.IntegrityError{Reason: fmt.Sprintf(
				"%s: duplicate %s run for module %s", stack.Path, g, stack.Meta.Module)}
		}

		var p data.Progress
		if progress != nil {
			p = progress(stack.Path)
		}
		mean, variance, zeroObs, err := data.AveragePedestal(g, stack, p)
		if err != nil {
			return nil, err
		}
		mod.SetMode(g, mean, variance, zeroObs, epochToTime(stack.Meta.Timestamp), stack.Path)
	}

	return set, nil
}

// PedestalStore serves pedestal sets keyed by exposure time.
type PedestalStore struct {
	sets []*PedestalSet
}

// Add registers a set. Re-adding an exposure replaces the earlier set.
func (st *PedestalStore) Add(set *PedestalSet) {
	for i, s := range st.sets {
		if SameExposure(s.Exposure, set.Exposure) {
			st.sets[i] = set
			return
		}
	}
	st.sets = append(st.sets, set)
}

// ByExposure resolves the set for an exposure time, compared through
// the epsilon comparator.
func (st *PedestalStore) ByExposure(exposure float64) (*PedestalSet, error) {
	for _, s := range st.sets {
		if SameExposure(s.Exposure, exposure) {
			return s, nil
		}
	}
	return nil, &ExposureError{Kind: Pedestal, Exposure: exposure}
}
