// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
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
	"github.com/dials/morgul/ui"
)

var (
	configPath = flag.String("c", "morgul.yml", "installation configuration file")
	energy     = flag.Float64("e", 0, "photon energy in keV")
	outDir     = flag.String("d", "", "output directory (default: next to each input)")
	within     = flag.Int("w", 0, "catalog window in minutes when resolving calibrations (0 = unbounded)")
	overwrite  = flag.Bool("overwrite", false, "replace existing corrected outputs")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options] raw-stack [raw-stack ...]

Correct raw adaptive-gain stacks into photon-count containers. The
pedestal and mask artifacts are resolved per input from the calibration
catalog by acquisition timestamp and exposure time. The whole batch is
validated before any frame work starts.

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
	if *energy <= 0 {
		log.Fatalln("a positive -e energy is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	ctx := context.Background()

	plan, err := calib.PlanCorrection(ctx, flag.Args(), outputFor, *overwrite, cfg.Credentials)
	if err != nil {
		log.Fatalln(err)
	}
	for _, p := range plan.Skipped {
		log.Printf("skipping %s: %v\n", p.Path, p.Err)
	}
	if len(plan.Jobs) == 0 {
		log.Fatalln("nothing to correct")
	}

	maps, err := calib.GainMaps(ctx, cfg)
	if err != nil {
		log.Fatalln(err)
	}
	catalog := calib.Catalog{Path: cfg.Catalog}
	var window *int
	if *within > 0 {
		window = within
	}

	var pedestals calib.PedestalStore
	loadedPeds := make(map[string]bool)
	maskSets := make(map[string]*calib.MaskSet)

	for _, job := range plan.Jobs {
		ts := epochToTime(job.Meta.Timestamp)
		exposure := job.Meta.ExposureTime

		pedPath, err := catalog.Find(calib.Pedestal, ts, &exposure, window)
		if err != nil {
			log.Fatalf("%s: %v\n", job.Input, err)
		}
		if !loadedPeds[pedPath] {
			loaded, _, err := calib.ReadPedestalSet(ctx, pedPath, cfg.Credentials)
			if err != nil {
				log.Fatalln(err)
			}
			pedestals.Add(loaded)
			loadedPeds[pedPath] = true
		}
		set, err := pedestals.ByExposure(exposure)
		if err != nil {
			log.Fatalf("%s: %v\n", job.Input, err)
		}

		badPixels := resolveMask(ctx, cfg, catalog, maskSets, job, ts, window)

		gm, ok := maps[job.Meta.Module]
		if !ok {
			log.Fatalln("no gain map for module", job.Meta.Module)
		}
		mod, err := set.Lookup(job.Meta.Module)
		if err != nil {
			log.Fatalln(err)
		}
		c, err := mod.Corrector(job.Meta.Module, gm, badPixels, *energy)
		if err != nil {
			log.Fatalln(err)
		}

		stack, err := container.OpenRawStack(ctx, job.Input, cfg.Credentials)
		if err != nil {
			log.Fatalln(err)
		}

		sp, err := ui.NewSpinner("correcting " + filepath.Base(job.Input))
		if err != nil {
			log.Fatalln(err)
		}
		if err := calib.CorrectStack(stack, c, job.Output, sp.Progress); err != nil {
			sp.Fail()
			log.Fatalln(err)
		}
		sp.Done()
		log.Printf("wrote %s (%d frames)\n", job.Output, job.Frames)
	}
}

// resolveMask finds the nearest mask artifact for a job. A missing mask
// is a warning, not a failure: correction proceeds without exclusions.
func resolveMask(ctx context.Context, cfg config.Config, catalog calib.Catalog, cache map[string]*calib.MaskSet, job calib.CorrectionJob, ts time.Time, window *int) []bool {
	exposure := job.Meta.ExposureTime
	maskPath, err := catalog.Find(calib.Mask, ts, &exposure, window)
	if err != nil {
		var lookup calib.LookupError
		if errors.As(err, &lookup) {
			log.Printf("%s: no bad-pixel mask (%v), correcting without one\n", job.Input, err)
			return nil
		}
		log.Fatalln(err)
	}

	masks, ok := cache[maskPath]
	if !ok {
		masks, err = calib.ReadMaskSet(ctx, maskPath, cfg.Credentials)
		if err != nil {
			log.Fatalln(err)
		}
		cache[maskPath] = masks
	}

	mask, err := masks.Module(job.Meta.Module)
	if err != nil {
		log.Printf("%s: mask %s does not cover module %s, correcting without one\n", job.Input, maskPath, job.Meta.Module)
		return nil
	}
	return mask
}

func outputFor(input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, stem+"_corrected.fits")
}

func epochToTime(epoch float64) time.Time {
	return time.Unix(0, int64(epoch*1e9)).UTC()
}
