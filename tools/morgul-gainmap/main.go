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

	"github.com/dials/morgul/calib"
	"github.com/dials/morgul/config"
)

var (
	configPath = flag.String("c", "morgul.yml", "installation configuration file")
	outPath    = flag.String("o", "gainmaps.fits", "output gain-map artifact")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options]

Dump the vendor binary gain maps for the configured detector into a
single inspectable artifact with one G<g>_<module> dataset per module
and gain table.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()
	maps, err := calib.GainMaps(ctx, cfg)
	if err != nil {
		log.Fatalln(err)
	}

	if err := calib.WriteGainMapArtifact(*outPath, maps); err != nil {
		log.Fatalln(err)
	}
	log.Printf("wrote %d module gain maps to %s\n", len(maps), *outPath)
}
