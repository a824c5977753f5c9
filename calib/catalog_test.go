// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dials/morgul/calib"
)

func testCatalog(t *testing.T) calib.Catalog {
	t.Helper()
	return calib.Catalog{Path: filepath.Join(t.TempDir(), "calibration.log")}
}

func TestCatalogAppendAndRecords(t *testing.T) {
	cat := testCatalog(t)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := cat.Append(calib.Record{Kind: calib.Pedestal, Timestamp: ts, Exposure: 0.01, Path: "/cal/ped.fits"})
	if err != nil {
		t.Fatal(err)
	}
	err = cat.Append(calib.Record{Kind: calib.Mask, Timestamp: ts, Exposure: 0.01, Path: "/cal/mask.fits"})
	if err != nil {
		t.Fatal(err)
	}

	records, err := cat.Records(calib.Pedestal)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d pedestal records, want 1", len(records))
	}
	r := records[0]
	if r.Path != "/cal/ped.fits" || !r.Timestamp.Equal(ts) || r.Exposure != 0.01 {
		t.Errorf("round-tripped record = %+v", r)
	}
}

func TestCatalogAppendRejectsRelativePath(t *testing.T) {
	cat := testCatalog(t)
	err := cat.Append(calib.Record{Kind: calib.Pedestal, Timestamp: time.Now(), Exposure: 0.01, Path: "ped.fits"})
	if err == nil {
		t.Error("want error for relative artifact path, got nil")
	}
}

func TestCatalogAppendRejectsUnknownKind(t *testing.T) {
	cat := testCatalog(t)
	err := cat.Append(calib.Record{Kind: "GAIN", Timestamp: time.Now(), Exposure: 0.01, Path: "/cal/g.fits"})
	if err == nil {
		t.Error("want error for unknown record kind, got nil")
	}
}

func TestCatalogFindNearest(t *testing.T) {
	cat := testCatalog(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, r := range []calib.Record{
		{Kind: calib.Pedestal, Timestamp: base, Exposure: 0.01, Path: "/cal/far.fits"},
		{Kind: calib.Pedestal, Timestamp: base.Add(25 * time.Minute), Exposure: 0.01, Path: "/cal/near.fits"},
	} {
		if err := cat.Append(r); err != nil {
			t.Fatal(err)
		}
	}

	got, err := cat.Find(calib.Pedestal, base.Add(30*time.Minute), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "/cal/near.fits" {
		t.Errorf("Find = %s, want /cal/near.fits", got)
	}
}

func TestCatalogFindWindowIsStrict(t *testing.T) {
	cat := testCatalog(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := cat.Append(calib.Record{Kind: calib.Pedestal, Timestamp: base, Exposure: 0.01, Path: "/cal/ped.fits"})
	if err != nil {
		t.Fatal(err)
	}

	// The entry sits exactly 30 minutes away.
	query := base.Add(30 * time.Minute)

	within := 30
	_, err = cat.Find(calib.Pedestal, query, nil, &within)
	var window *calib.WindowError
	if !errors.As(err, &window) {
		t.Fatalf("want WindowError at the exact boundary, got %v", err)
	}

	within = 31
	got, err := cat.Find(calib.Pedestal, query, nil, &within)
	if err != nil {
		t.Fatal(err)
	}
	if got != "/cal/ped.fits" {
		t.Errorf("Find = %s, want /cal/ped.fits", got)
	}
}

func TestCatalogFindExposureFilter(t *testing.T) {
	cat := testCatalog(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, r := range []calib.Record{
		{Kind: calib.Pedestal, Timestamp: base, Exposure: 0.01, Path: "/cal/e10ms.fits"},
		{Kind: calib.Pedestal, Timestamp: base.Add(time.Minute), Exposure: 0.02, Path: "/cal/e20ms.fits"},
	} {
		if err := cat.Append(r); err != nil {
			t.Fatal(err)
		}
	}

	// The nearer entry loses to the exposure constraint.
	exposure := 0.01
	got, err := cat.Find(calib.Pedestal, base.Add(2*time.Minute), &exposure, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "/cal/e10ms.fits" {
		t.Errorf("Find = %s, want /cal/e10ms.fits", got)
	}

	exposure = 0.05
	_, err = cat.Find(calib.Pedestal, base, &exposure, nil)
	var expErr *calib.ExposureError
	if !errors.As(err, &expErr) {
		t.Fatalf("want ExposureError, got %v", err)
	}
}

func TestCatalogFindEmptyKind(t *testing.T) {
	cat := testCatalog(t)
	err := cat.Append(calib.Record{Kind: calib.Pedestal, Timestamp: time.Now(), Exposure: 0.01, Path: "/cal/ped.fits"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = cat.Find(calib.Mask, time.Now(), nil, nil)
	var noEntry *calib.NoEntryError
	if !errors.As(err, &noEntry) {
		t.Fatalf("want NoEntryError, got %v", err)
	}
}
