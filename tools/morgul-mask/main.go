// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dials/morgul/calib"
	"github.com/dials/morgul/config"
	"github.com/dials/morgul/container"
	"github.com/dials/morgul/plot"
	"github.com/dials/morgul/ui"
)

var (
	configPath = flag.String("c", "morgul.yml", "installation configuration file")
	outPath    = flag.String("o", "mask.fits", "output mask artifact")
	pedPath    = flag.String("p", "", "pedestal artifact (default: resolve from the catalog)")
	energy     = flag.Float64("e", 0, "photon energy in keV")
	within     = flag.Int("w", 0, "catalog window in minutes when resolving the pedestal (0 = unbounded)")
	qcPath     = flag.String("q", "", "dispersion QC plot (default: output with a .png suffix)")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options] flat-field

Derive a bad-pixel mask from a dynamic-mode flat field, using a
pedestal artifact at the same exposure time. The mask is registered in
the calibration catalog and a dispersion QC plot is written alongside.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}
	if *energy <= 0 {
		log.Fatalln("a positive -e energy is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	ctx := context.Background()

	flat, err := container.OpenRawStack(ctx, flag.Arg(0), cfg.Credentials)
	if err != nil {
		log.Fatalln(err)
	}

	catalog := calib.Catalog{Path: cfg.Catalog}
	pedestal := *pedPath
	if pedestal == "" {
		var window *int
		if *within > 0 {
			window = within
		}
		pedestal, err = catalog.Find(calib.Pedestal, epochToTime(flat.Meta.Timestamp), &flat.Meta.ExposureTime, window)
		if err != nil {
			log.Fatalln(err)
		}
		log.Println("resolved pedestal artifact:", pedestal)
	}

	set, _, err := calib.ReadPedestalSet(ctx, pedestal, cfg.Credentials)
	if err != nil {
		log.Fatalln(err)
	}
	if !calib.SameExposure(set.Exposure, flat.Meta.ExposureTime) {
		log.Fatalf("pedestal exposure %gs does not match flat exposure %gs\n", set.Exposure, flat.Meta.ExposureTime)
	}

	maps, err := calib.GainMaps(ctx, cfg)
	if err != nil {
		log.Fatalln(err)
	}
	gm, ok := maps[flat.Meta.Module]
	if !ok {
		log.Fatalln("no gain map for module", flat.Meta.Module)
	}
	mod, err := set.Lookup(flat.Meta.Module)
	if err != nil {
		log.Fatalln(err)
	}
	c, err := mod.Corrector(flat.Meta.Module, gm, nil, *energy)
	if err != nil {
		log.Fatalln(err)
	}

	sp, err := ui.NewSpinner("deriving bad-pixel mask")
	if err != nil {
		log.Fatalln(err)
	}
	mask, dispersion, err := calib.BuildMask(flat, c, sp.Progress)
	if err != nil {
		sp.Fail()
		log.Fatalln(err)
	}
	sp.Done()

	masks := calib.NewMaskSet(flat.Meta.ExposureTime)
	masks.Put(flat.Meta.Module, mask)
	if err := calib.WriteMaskSet(*outPath, masks); err != nil {
		log.Fatalln(err)
	}

	qc := *qcPath
	if qc == "" {
		qc = strings.TrimSuffix(*outPath, filepath.Ext(*outPath)) + ".png"
	}
	if err := plot.WriteDispersionQC(qc, flat.Meta.Module, dispersion); err != nil {
		log.Fatalln(err)
	}

	absPath, err := filepath.Abs(*outPath)
	if err != nil {
		log.Fatalln(err)
	}
	err = catalog.Append(calib.Record{
		Kind:      calib.Mask,
		Timestamp: epochToTime(flat.Meta.Timestamp),
		Exposure:  flat.Meta.ExposureTime,
		Path:      absPath,
	})
	if err != nil {
		log.Fatalln(err)
	}

	flagged := 0
	for _, bad := range mask {
		if bad {
			flagged++
		}
	}
	log.Printf("registered %s: %d pixels flagged, QC at %s\n", absPath, flagged, qc)
}

func epochToTime(epoch float64) time.Time {
	return time.Unix(0, int64(epoch*1e9)).UTC()
}
