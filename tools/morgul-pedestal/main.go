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
	"time"

	"github.com/dials/morgul/calib"
	"github.com/dials/morgul/config"
	"github.com/dials/morgul/container"
	"github.com/dials/morgul/data"
	"github.com/dials/morgul/ui"
)

var (
	configPath = flag.String("c", "morgul.yml", "installation configuration file")
	outPath    = flag.String("o", "pedestal.fits", "output pedestal artifact")
	flatPath   = flag.String("f", "", "optional dynamic-mode flat field for an inline bad-pixel mask")
	energy     = flag.Float64("e", 0, "photon energy in keV (required with -f)")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options] pedestal-run [pedestal-run ...]

Build a pedestal artifact from fixed-gain pedestal runs, one acquisition
per gain mode per module, all at one exposure time. The artifact is
registered in the calibration catalog. With -f, a bad-pixel mask derived
from the flat field is embedded and registered as well.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}
	if *flatPath != "" && *energy <= 0 {
		log.Fatalln("a positive -e energy is required with -f")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	ctx := context.Background()

	stacks := make([]*container.RawStack, 0, flag.NArg())
	for _, path := range flag.Args() {
		stack, err := container.OpenRawStack(ctx, path, cfg.Credentials)
		if err != nil {
			log.Fatalln(err)
		}
		stacks = append(stacks, stack)
	}

	sp, err := ui.NewSpinner("averaging pedestal runs")
	if err != nil {
		log.Fatalln(err)
	}
	progress := func(input string) data.Progress {
		base := filepath.Base(input)
		return func(done, total int) {
			sp.Message(fmt.Sprintf("%s frame %d/%d", base, done, total))
		}
	}
	set, err := calib.BuildPedestal(stacks, progress)
	if err != nil {
		sp.Fail()
		log.Fatalln(err)
	}
	sp.Done()

	var masks *calib.MaskSet
	var flatTimestamp float64
	if *flatPath != "" {
		masks, flatTimestamp, err = inlineMask(ctx, cfg, set)
		if err != nil {
			log.Fatalln(err)
		}
	}

	if err := calib.WritePedestalSet(*outPath, set, masks); err != nil {
		log.Fatalln(err)
	}

	absPath, err := filepath.Abs(*outPath)
	if err != nil {
		log.Fatalln(err)
	}
	catalog := calib.Catalog{Path: cfg.Catalog}
	err = catalog.Append(calib.Record{
		Kind:      calib.Pedestal,
		Timestamp: earliest(stacks),
		Exposure:  set.Exposure,
		Path:      absPath,
	})
	if err != nil {
		log.Fatalln(err)
	}
	if masks != nil {
		err = catalog.Append(calib.Record{
			Kind:      calib.Mask,
			Timestamp: epochToTime(flatTimestamp),
			Exposure:  set.Exposure,
			Path:      absPath,
		})
		if err != nil {
			log.Fatalln(err)
		}
	}
	log.Printf("registered %s for %d modules at %gs exposure\n", absPath, len(set.ModuleIDs()), set.Exposure)
}

func inlineMask(ctx context.Context, cfg config.Config, set *calib.PedestalSet) (*calib.MaskSet, float64, error) {
	flat, err := container.OpenRawStack(ctx, *flatPath, cfg.Credentials)
	if err != nil {
		return nil, 0, err
	}
	if !calib.SameExposure(flat.Meta.ExposureTime, set.Exposure) {
		return nil, 0, fmt.Errorf("%s: flat exposure %g does not match pedestal exposure %g",
			flat.Path, flat.Meta.ExposureTime, set.Exposure)
	}

	maps, err := calib.GainMaps(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	gm, ok := maps[flat.Meta.Module]
	if !ok {
		return nil, 0, fmt.Errorf("no gain map for module %s", flat.Meta.Module)
	}
	mod, err := set.Lookup(flat.Meta.Module)
	if err != nil {
		return nil, 0, err
	}
	c, err := mod.Corrector(flat.Meta.Module, gm, nil, *energy)
	if err != nil {
		return nil, 0, err
	}

	sp, err := ui.NewSpinner("deriving bad-pixel mask")
	if err != nil {
		return nil, 0, err
	}
	mask, _, err := calib.BuildMask(flat, c, sp.Progress)
	if err != nil {
		sp.Fail()
		return nil, 0, err
	}
	sp.Done()

	masks := calib.NewMaskSet(set.Exposure)
	masks.Put(flat.Meta.Module, mask)
	return masks, flat.Meta.Timestamp, nil
}

func earliest(stacks []*container.RawStack) time.Time {
	min := stacks[0].Meta.Timestamp
	for _, s := range stacks[1:] {
		if s.Meta.Timestamp < min {
			min = s.Meta.Timestamp
		}
	}
	return epochToTime(min)
}

func epochToTime(epoch float64) time.Time {
	return time.Unix(0, int64(epoch*1e9)).UTC()
}
