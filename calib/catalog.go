// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind distinguishes the two artifact types tracked by the catalog.
type Kind string

const (
	Pedestal Kind = "PEDESTAL"
	Mask     Kind = "MASK"
)

// Record is one append-only catalog entry: an artifact, when its source
// data was taken, at what exposure, and where it lives.
type Record struct {
	Kind      Kind
	Timestamp time.Time // UTC
	Exposure  float64   // seconds
	Path      string    // absolute
}

// Catalog is the flat append-only calibration log, one record per line:
//
//	<KIND> <ISO8601-UTC-timestamp> <exposure_seconds> <absolute_path>
//
// Records are never rewritten. Other processes may append between our
// calls, so every lookup reads a fresh snapshot.
type Catalog struct {
	Path string
}

// Append adds one record. The write is a single O_APPEND syscall, which
// keeps concurrent appenders from interleaving partial lines.
func (c Catalog) Append(r Record) error {
	if r.Kind != Pedestal && r.Kind != Mask {
		return fmt.Errorf("catalog: unknown record kind %q", r.Kind)
	}
	if !filepath.IsAbs(r.Path) {
		return fmt.Errorf("catalog: artifact path must be absolute, got %q", r.Path)
	}

	line := fmt.Sprintf("%s %s %s %s\n",
		r.Kind,
		r.Timestamp.UTC().Format(time.RFC3339),
		strconv.FormatFloat(r.Exposure, 'g', -1, 64),
		r.Path,
	)

	f, err := os.OpenFile(c.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

// Records reads a snapshot of all records of one kind.
func (c Catalog) Records(kind Kind) ([]Record, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("%s:%d: want 4 fields, got %d", c.Path, lineNum, len(fields))
		}
		if Kind(fields[0]) != kind {
			continue
		}
		ts, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad timestamp %q: %w", c.Path, lineNum, fields[1], err)
		}
		exposure, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad exposure %q: %w", c.Path, lineNum, fields[2], err)
		}
		records = append(records, Record{
			Kind:      kind,
			Timestamp: ts.UTC(),
			Exposure:  exposure,
			Path:      fields[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Find resolves the artifact of the given kind nearest in time to ts.
// A non-nil withinMinutes drops candidates further away than that
// window; a non-nil exposure drops candidates whose exposure differs by
// more than ExposureEpsilon. Each empty filter result is a distinct
// LookupError naming the constraint.
func (c Catalog) Find(kind Kind, ts time.Time, exposure *float64, withinMinutes *int) (string, error) {
	records, err := c.Records(kind)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", &NoEntryError{Kind: kind}
	}

	ts = ts.UTC()
	sort.SliceStable(records, func(i, j int) bool {
		return absSeconds(records[i].Timestamp.Sub(ts)) < absSeconds(records[j].Timestamp.Sub(ts))
	})

	if withinMinutes != nil {
		var kept []Record
		for _, r := range records {
			if absSeconds(r.Timestamp.Sub(ts)) < float64(*withinMinutes)*60 {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return "", &WindowError{Kind: kind, Minutes: *withinMinutes}
		}
		records = kept
	}

	if exposure != nil {
		var kept []Record
		for _, r := range records {
			if SameExposure(r.Exposure, *exposure) {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return "", &ExposureError{Kind: kind, Exposure: *exposure}
		}
		records = kept
	}

	return records[0].Path, nil
}

func absSeconds(d time.Duration) float64 {
	return math.Abs(d.Seconds())
}
