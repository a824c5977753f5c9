// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/dials/morgul/config"
	"github.com/dials/morgul/container"
	"github.com/dials/morgul/data"
)

// GainMap holds one module's per-mode gain coefficient grids.
type GainMap [data.NGainModes][]float64

// Vendor gain files are raw little-endian float64, shape (3, 512, 1024),
// one file per module under <calibration root>/<module>_fullspeed/.

// LoadGainMap reads one vendor binary gain file.
func LoadGainMap(ctx context.Context, urlString, credentials string) (GainMap, error) {
	var gm GainMap

	r, err := container.GetReader(ctx, urlString, credentials)
	if err != nil {
		return gm, fmt.Errorf("open gain map %s: %w", urlString, err)
	}
	defer r.Close()

	buffered := bufio.NewReaderSize(r, 1<<20)
	for g := data.Gain0; g < data.NGainModes; g++ {
		grid := make([]float64, data.ModPixels)
		if err := binary.Read(buffered, binary.LittleEndian, grid); err != nil {
			return gm, &data.IntegrityError{Reason: fmt.Sprintf(
				"gain map %s: short read in %s table: %v", urlString, g, err)}
		}
		gm[g] = grid
	}

	// The file must hold exactly the three tables.
	var trailing [1]byte
	if _, err := buffered.Read(trailing[:]); err != io.EOF {
		return gm, &data.IntegrityError{Reason: fmt.Sprintf(
			"gain map %s: trailing data after the three gain tables", urlString)}
	}

	return gm, nil
}

func findGainFile(ctx context.Context, root, moduleID, credentials string) (string, error) {
	pattern := fmt.Sprintf("%s/%s_fullspeed/*.bin", root, moduleID)
	matches, err := container.List(ctx, pattern, credentials)
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", &config.ConfigurationError{Reason: fmt.Sprintf(
			"want exactly one gain file matching %s, found %d", pattern, len(matches))}
	}
	return matches[0], nil
}

var gainMapsMutex sync.Mutex
var gainMapsCache = make(map[string]map[string]GainMap)

// GainMaps loads the gain maps for every module of the configured
// detector, cached per detector for the process lifetime. The maps are
// immutable after load.
func GainMaps(ctx context.Context, cfg config.Config) (map[string]GainMap, error) {
	gainMapsMutex.Lock()
	defer gainMapsMutex.Unlock()

	if cached, ok := gainMapsCache[cfg.Detector]; ok {
		return cached, nil
	}

	det, err := cfg.Active()
	if err != nil {
		return nil, err
	}

	log.Println("reading gain maps from:", cfg.Calibration)
	maps := make(map[string]GainMap, len(det.Modules))
	for _, mod := range det.Modules {
		gainFile, err := findGainFile(ctx, cfg.Calibration, mod.ID, cfg.Credentials)
		if err != nil {
			return nil, err
		}
		gm, err := LoadGainMap(ctx, gainFile, cfg.Credentials)
		if err != nil {
			return nil, err
		}
		maps[mod.ID] = gm
	}
	if len(maps) == 0 {
		return nil, &config.ConfigurationError{Reason: fmt.Sprintf(
			"no gain map results for detector %s", cfg.Detector)}
	}

	gainMapsCache[cfg.Detector] = maps
	return maps, nil
}
