// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package container

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"
)

// FileKind is the closed set of file types the pipeline handles.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindGainMap
	KindRaw
	KindCorrected
	KindPedestal
	KindMask
)

func (k FileKind) String() string {
	switch k {
	case KindGainMap:
		return "gain map"
	case KindRaw:
		return "raw acquisition"
	case KindCorrected:
		return "corrected output"
	case KindPedestal:
		return "pedestal artifact"
	case KindMask:
		return "mask artifact"
	}
	return "unknown"
}

// DetectKind classifies a file by its content: vendor gain maps by
// their bare-binary extension, everything else by the markers its
// container carries.
func DetectKind(ctx context.Context, urlString, credentials string) (FileKind, error) {
	if filepath.Ext(urlString) == ".bin" {
		return KindGainMap, nil
	}

	r, err := GetReader(ctx, urlString, credentials)
	if err != nil {
		return KindUnknown, err
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return KindUnknown, nil
	}
	defer f.Close()

	hdr := f.HDU(0).Header()
	if card := hdr.Get("CORRECTD"); card != nil {
		if b, ok := card.Value.(bool); ok && b {
			return KindCorrected, nil
		}
	}
	if hdr.Get("NFRAMES") != nil && hdr.Get("GAINMODE") != nil {
		return KindRaw, nil
	}

	hasMask := false
	for _, hdu := range f.HDUs() {
		name := hdu.Name()
		switch {
		case strings.HasPrefix(name, "PED"):
			return KindPedestal, nil
		case strings.HasPrefix(name, "MASK_"):
			hasMask = true
		}
	}
	if hasMask {
		return KindMask, nil
	}
	return KindUnknown, nil
}
