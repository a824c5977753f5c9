// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import "math"

// ExposureEpsilon is the tolerance for exposure-time equality, in
// seconds. Every exposure comparison in the pipeline goes through
// SameExposure; exact equality is only valid for keys passed through
// unchanged from file metadata.
const ExposureEpsilon = 1e-9

// SameExposure reports whether two exposure times (seconds) are equal
// within ExposureEpsilon.
func SameExposure(a, b float64) bool {
	return math.Abs(a-b) < ExposureEpsilon
}
