// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/astrogo/fitsio"

	"github.com/dials/morgul/container"
	"github.com/dials/morgul/data"
)

// Artifact containers are FITS files with one group of extensions per
// module:
//
//	PED<g>_<module>     pedestal mean (float64)
//	PED<g>VAR_<module>  pedestal variance (float64)
//	PED<g>ZOB_<module>  zero-observation mask (int 0/1)
//	MASK_<module>       bad-pixel mask (int 0/1), when derived
//	G<g>_<module>       gain coefficients (float64), gain-map artifacts
//
// Mean/variance/zero-observation extensions carry TIMESTMP (epoch
// seconds) and SRCFILE cards; the primary header carries EXPTIME.

func provenanceCards(ts time.Time, source string) []fitsio.Card {
	return []fitsio.Card{
		{Name: "TIMESTMP", Value: float64(ts.UnixNano()) / 1e9, Comment: "source acquisition (epoch s, UTC)"},
		{Name: "SRCFILE", Value: source, Comment: "source acquisition file"},
	}
}

// writeArtifact writes a whole artifact through a temporary path and an
// atomic rename so a failed build never publishes a partial file.
func writeArtifact(path string, fill func(f *fitsio.File) error) error {
	tmpPath := path + ".partial"
	osFile, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		osFile.Close()
		os.Remove(tmpPath)
		return err
	}

	f, err := fitsio.Create(osFile)
	if err != nil {
		return fail(err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	if err := osFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

func moduleGrid(f *fitsio.File, path, name string) ([]float64, error) {
	img, err := container.FindImage(f, path, name)
	if err != nil {
		return nil, err
	}
	grid := make([]float64, container.ImageLen(img))
	if err := img.Read(&grid); err != nil {
		return nil, fmt.Errorf("%s: reading %s: %w", path, name, err)
	}
	if len(grid) != data.ModPixels {
		return nil, &data.IntegrityError{Reason: fmt.Sprintf(
			"%s: %s has %d pixels, want %d (512x1024)", path, name, len(grid), data.ModPixels)}
	}
	return grid, nil
}

func moduleBoolGrid(f *fitsio.File, path, name string) ([]bool, error) {
	img, err := container.FindImage(f, path, name)
	if err != nil {
		return nil, err
	}
	grid := make([]int32, container.ImageLen(img))
	if err := img.Read(&grid); err != nil {
		return nil, fmt.Errorf("%s: reading %s: %w", path, name, err)
	}
	if len(grid) != data.ModPixels {
		return nil, &data.IntegrityError{Reason: fmt.Sprintf(
			"%s: %s has %d pixels, want %d (512x1024)", path, name, len(grid), data.ModPixels)}
	}
	return container.IntsToBools(grid), nil
}

// WritePedestalSet persists a pedestal artifact; masks may be nil, or a
// mask set derived from the same calibration session to embed.
func WritePedestalSet(path string, set *PedestalSet, masks *MaskSet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	return writeArtifact(path, func(f *fitsio.File) error {
		err := container.WritePrimary(f, fitsio.Card{Name: "EXPTIME", Value: set.Exposure, Comment: "exposure time (s)"})
		if err != nil {
			return err
		}

		for _, id := range set.ModuleIDs() {
			mod, err := set.Lookup(id)
			if err != nil {
				return err
			}
			for g := data.Gain0; g < data.NGainModes; g++ {
				mean, variance, zeroObs, err := mod.Mode(g)
				if err != nil {
					return err
				}
				ts, source := mod.ModeInfo(g)
				cards := provenanceCards(ts, source)

				name := fmt.Sprintf("PED%d_%s", g, id)
				if err := container.WriteModuleImage(f, name, -64, mean, cards...); err != nil {
					return err
				}
				name = fmt.Sprintf("PED%dVAR_%s", g, id)
				if err := container.WriteModuleImage(f, name, -64, variance, cards...); err != nil {
					return err
				}
				name = fmt.Sprintf("PED%dZOB_%s", g, id)
				if err := container.WriteModuleImage(f, name, 32, container.BoolsToInts(zeroObs), cards...); err != nil {
					return err
				}
			}
		}

		if masks != nil {
			for _, id := range masks.ModuleIDs() {
				mask, err := masks.Module(id)
				if err != nil {
					return err
				}
				name := fmt.Sprintf("MASK_%s", id)
				if err := container.WriteModuleImage(f, name, 32, container.BoolsToInts(mask)); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// ReadPedestalSet loads a pedestal artifact, enforcing the completeness
// gate: a set missing any gain mode for any module fails here, before
// any correction could try to use it. An embedded mask set is returned
// when present.
func ReadPedestalSet(ctx context.Context, urlString, credentials string) (*PedestalSet, *MaskSet, error) {
	r, err := container.GetReader(ctx, urlString, credentials)
	if err != nil {
		return nil, nil, fmt.Errorf("open pedestal artifact %s: %w", urlString, err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open pedestal artifact %s: %w", urlString, err)
	}
	defer f.Close()

	exposure, err := container.CardFloat(f.HDU(0).Header(), urlString, "EXPTIME")
	if err != nil {
		return nil, nil, err
	}
	set := NewPedestalSet(exposure)

	var maskIDs []string
	moduleIDs := make(map[string]bool)
	for _, hdu := range f.HDUs() {
		name := hdu.Name()
		switch {
		case strings.HasPrefix(name, "PED") && strings.Contains(name, "_"):
			moduleIDs[name[strings.Index(name, "_")+1:]] = true
		case strings.HasPrefix(name, "MASK_"):
			maskIDs = append(maskIDs, strings.TrimPrefix(name, "MASK_"))
		}
	}
	sort.Strings(maskIDs)

	for id := range moduleIDs {
		mod := set.Module(id)
		for g := data.Gain0; g < data.NGainModes; g++ {
			name := fmt.Sprintf("PED%d_%s", g, id)
			img, err := container.FindImage(f, urlString, name)
			if err != nil {
				return nil, nil, &data.IncompletePedestalError{Module: id, Missing: []data.GainMode{g}}
			}

			mean := make([]float64, container.ImageLen(img))
			if err := img.Read(&mean); err != nil {
				return nil, nil, fmt.Errorf("%s: reading %s: %w", urlString, name, err)
			}
			if len(mean) != data.ModPixels {
				return nil, nil, &data.IntegrityError{Reason: fmt.Sprintf(
					"%s: %s has %d pixels, want %d (512x1024)", urlString, name, len(mean), data.ModPixels)}
			}

			variance, err := moduleGrid(f, urlString, fmt.Sprintf("PED%dVAR_%s", g, id))
			if err != nil {
				return nil, nil, err
			}
			zeroObs, err := moduleBoolGrid(f, urlString, fmt.Sprintf("PED%dZOB_%s", g, id))
			if err != nil {
				return nil, nil, err
			}

			hdr := img.Header()
			epoch, err := container.CardFloat(hdr, urlString, "TIMESTMP")
			if err != nil {
				return nil, nil, err
			}
			source, err := container.CardString(hdr, urlString, "SRCFILE")
			if err != nil {
				return nil, nil, err
			}

			mod.SetMode(g, mean, variance, zeroObs, epochToTime(epoch), source)
		}
	}

	if err := set.Validate(); err != nil {
		return nil, nil, err
	}

	var masks *MaskSet
	if len(maskIDs) > 0 {
		masks = NewMaskSet(exposure)
		for _, id := range maskIDs {
			mask, err := moduleBoolGrid(f, urlString, fmt.Sprintf("MASK_%s", id))
			if err != nil {
				return nil, nil, err
			}
			masks.Put(id, mask)
		}
	}

	return set, masks, nil
}

// WriteMaskSet persists a standalone mask artifact.
func WriteMaskSet(path string, set *MaskSet) error {
	return writeArtifact(path, func(f *fitsio.File) error {
		err := container.WritePrimary(f, fitsio.Card{Name: "EXPTIME", Value: set.Exposure, Comment: "exposure time (s)"})
		if err != nil {
			return err
		}
		for _, id := range set.ModuleIDs() {
			mask, err := set.Module(id)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("MASK_%s", id)
			if err := container.WriteModuleImage(f, name, 32, container.BoolsToInts(mask)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadMaskSet loads a standalone mask artifact.
func ReadMaskSet(ctx context.Context, urlString, credentials string) (*MaskSet, error) {
	r, err := container.GetReader(ctx, urlString, credentials)
	if err != nil {
		return nil, fmt.Errorf("open mask artifact %s: %w", urlString, err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open mask artifact %s: %w", urlString, err)
	}
	defer f.Close()

	exposure, err := container.CardFloat(f.HDU(0).Header(), urlString, "EXPTIME")
	if err != nil {
		return nil, err
	}

	set := NewMaskSet(exposure)
	for _, hdu := range f.HDUs() {
		name := hdu.Name()
		if !strings.HasPrefix(name, "MASK_") {
			continue
		}
		id := strings.TrimPrefix(name, "MASK_")
		mask, err := moduleBoolGrid(f, urlString, name)
		if err != nil {
			return nil, err
		}
		set.Put(id, mask)
	}
	if len(set.ModuleIDs()) == 0 {
		return nil, &data.IntegrityError{Reason: fmt.Sprintf("%s: no MASK_<module> datasets", urlString)}
	}

	return set, nil
}

// WriteGainMapArtifact dumps a detector's binary gain maps into one
// inspectable artifact with G<g>_<module> extensions.
func WriteGainMapArtifact(path string, maps map[string]GainMap) error {
	ids := make([]string, 0, len(maps))
	for id := range maps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return writeArtifact(path, func(f *fitsio.File) error {
		if err := container.WritePrimary(f); err != nil {
			return err
		}
		for _, id := range ids {
			gm := maps[id]
			for g := data.Gain0; g < data.NGainModes; g++ {
				name := fmt.Sprintf("G%d_%s", g, id)
				if err := container.WriteModuleImage(f, name, -64, gm[g]); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func epochToTime(epoch float64) time.Time {
	return time.Unix(0, int64(epoch*1e9)).UTC()
}
