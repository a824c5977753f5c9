// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"strings"
)

// IntegrityError reports raw data that violates the detector encoding or
// an expected shape.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string { return e.Reason }

func integrityf(format string, a ...interface{}) error {
	return &IntegrityError{Reason: fmt.Sprintf(format, a...)}
}

// IncompletePedestalError reports a pedestal set that is missing one or
// more of the three required gain modes.
type IncompletePedestalError struct {
	Module  string
	Missing []GainMode
}

func (e *IncompletePedestalError) Error() string {
	names := make([]string, len(e.Missing))
	for i, g := range e.Missing {
		names[i] = g.String()
	}
	if e.Module == "" {
		return fmt.Sprintf("incomplete pedestal set: missing %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("incomplete pedestal set for module %s: missing %s",
		e.Module, strings.Join(names, ", "))
}
