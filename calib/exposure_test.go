// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib_test

import (
	"testing"

	"github.com/dials/morgul/calib"
)

func TestSameExposure(t *testing.T) {
	cases := []struct {
		a, b float64
		want bool
	}{
		{1.0, 1.0, true},
		{0.1, 0.1 + 5e-10, true},
		{0.1, 0.1 - 5e-10, true},
		{1.0, 1.0 + 2e-9, false},
		{0.1, 0.2, false},
	}
	for _, c := range cases {
		if got := calib.SameExposure(c.a, c.b); got != c.want {
			t.Errorf("SameExposure(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
