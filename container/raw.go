// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package container

import (
	"context"
	"fmt"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/dials/morgul/data"
)

// RawMeta is the scalar metadata carried by a raw acquisition stack.
type RawMeta struct {
	Module       string
	Row, Column  int
	ExposureTime float64 // seconds
	Timestamp    float64 // epoch seconds, UTC
	GainMode     string
}

// RawStack is one raw acquisition container: a stack of packed module
// frames plus scalar metadata. It implements data.Stack.
type RawStack struct {
	Path string
	Meta RawMeta

	frames [][]uint16
}

func (s *RawStack) Frames() int { return len(s.frames) }

func (s *RawStack) Frame(i int) ([]uint16, error) {
	if i < 0 || i >= len(s.frames) {
		return nil, &data.IntegrityError{Reason: fmt.Sprintf("%s: frame %d out of range [0,%d)", s.Path, i, len(s.frames))}
	}
	return s.frames[i], nil
}

// OpenRawStack reads a raw acquisition container, validating that every
// required dataset and header is present before returning.
func OpenRawStack(ctx context.Context, urlString, credentials string) (*RawStack, error) {
	r, err := GetReader(ctx, urlString, credentials)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", urlString, err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", urlString, err)
	}
	defer f.Close()

	hdr := f.HDU(0).Header()
	s := &RawStack{Path: urlString}
	if s.Meta.ExposureTime, err = CardFloat(hdr, urlString, "EXPTIME"); err != nil {
		return nil, err
	}
	if s.Meta.Timestamp, err = CardFloat(hdr, urlString, "TIMESTMP"); err != nil {
		return nil, err
	}
	if s.Meta.GainMode, err = CardString(hdr, urlString, "GAINMODE"); err != nil {
		return nil, err
	}
	if s.Meta.Row, err = CardInt(hdr, urlString, "ROW"); err != nil {
		return nil, err
	}
	if s.Meta.Column, err = CardInt(hdr, urlString, "COLUMN"); err != nil {
		return nil, err
	}
	if s.Meta.Module, err = CardString(hdr, urlString, "MODULE"); err != nil {
		return nil, err
	}

	nFrames, err := CardInt(hdr, urlString, "NFRAMES")
	if err != nil {
		return nil, err
	}

	s.frames = make([][]uint16, 0, nFrames)
	for i := 0; i < nFrames; i++ {
		img, err := FindImage(f, urlString, frameExt(i))
		if err != nil {
			return nil, err
		}
		buf := make([]int16, ImageLen(img))
		if err := img.Read(&buf); err != nil {
			return nil, fmt.Errorf("%s: reading %s: %w", urlString, frameExt(i), err)
		}
		if len(buf) != data.ModPixels {
			return nil, &data.IntegrityError{Reason: fmt.Sprintf(
				"%s: %s has %d pixels, want %d (512x1024)", urlString, frameExt(i), len(buf), data.ModPixels)}
		}
		s.frames = append(s.frames, i16ToU16(buf))
	}

	return s, nil
}

// ProbeRawStack reads only the scalar metadata of a raw container,
// for cheap validation passes over a batch.
func ProbeRawStack(ctx context.Context, urlString, credentials string) (RawMeta, int, error) {
	var meta RawMeta

	r, err := GetReader(ctx, urlString, credentials)
	if err != nil {
		return meta, 0, fmt.Errorf("open %s: %w", urlString, err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return meta, 0, fmt.Errorf("open %s: %w", urlString, err)
	}
	defer f.Close()

	hdr := f.HDU(0).Header()
	if meta.ExposureTime, err = CardFloat(hdr, urlString, "EXPTIME"); err != nil {
		return meta, 0, err
	}
	if meta.Timestamp, err = CardFloat(hdr, urlString, "TIMESTMP"); err != nil {
		return meta, 0, err
	}
	if meta.GainMode, err = CardString(hdr, urlString, "GAINMODE"); err != nil {
		return meta, 0, err
	}
	if meta.Row, err = CardInt(hdr, urlString, "ROW"); err != nil {
		return meta, 0, err
	}
	if meta.Column, err = CardInt(hdr, urlString, "COLUMN"); err != nil {
		return meta, 0, err
	}
	if meta.Module, err = CardString(hdr, urlString, "MODULE"); err != nil {
		return meta, 0, err
	}
	nFrames, err := CardInt(hdr, urlString, "NFRAMES")
	if err != nil {
		return meta, 0, err
	}
	return meta, nFrames, nil
}

// RequireGainMode checks the acquisition gain mode recorded in the
// container against what an operation needs (mask building requires
// "dynamic").
func (s *RawStack) RequireGainMode(want string) error {
	if s.Meta.GainMode != want {
		return &data.IntegrityError{Reason: fmt.Sprintf(
			"%s: acquisition gain mode is %q, want %q", s.Path, s.Meta.GainMode, want)}
	}
	return nil
}

func metaCards(meta RawMeta, nFrames int) []fitsio.Card {
	return []fitsio.Card{
		{Name: "NFRAMES", Value: nFrames, Comment: "number of frames in this stack"},
		{Name: "EXPTIME", Value: meta.ExposureTime, Comment: "exposure time (s)"},
		{Name: "TIMESTMP", Value: meta.Timestamp, Comment: "acquisition start (epoch s, UTC)"},
		{Name: "GAINMODE", Value: meta.GainMode},
		{Name: "ROW", Value: meta.Row, Comment: "module row position"},
		{Name: "COLUMN", Value: meta.Column, Comment: "module column position"},
		{Name: "MODULE", Value: meta.Module, Comment: "module serial"},
	}
}

// WriteRawStack writes a raw acquisition container. Used by ingest
// conversions and test fixtures.
func WriteRawStack(path string, meta RawMeta, frames [][]uint16) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	f, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WritePrimary(f, metaCards(meta, len(frames))...); err != nil {
		return err
	}
	for i, frame := range frames {
		if len(frame) != data.ModPixels {
			return &data.IntegrityError{Reason: fmt.Sprintf(
				"%s: frame %d has %d pixels, want %d (512x1024)", path, i, len(frame), data.ModPixels)}
		}
		err := writeExtension(f, frameExt(i), 16, data.ModRows, data.ModCols, u16ToI16(frame),
			fitsio.Card{Name: "BZERO", Value: u16Offset},
			fitsio.Card{Name: "BSCALE", Value: 1.0},
		)
		if err != nil {
			return err
		}
	}
	return nil
}
