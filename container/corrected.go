// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package container

import (
	"fmt"
	"os"

	"github.com/astrogo/fitsio"
	"github.com/google/uuid"

	"github.com/dials/morgul/data"
)

// CorrectedWriter writes a corrected output container one frame at a
// time. Frames are in the embiggened (514,1030) geometry. The file is
// written to a temporary path and renamed into place on Close, so a
// partial run never publishes a partial artifact.
type CorrectedWriter struct {
	path    string
	tmpPath string
	osFile  *os.File
	fits    *fitsio.File
	next    int
	total   int
}

// CreateCorrected starts a corrected container for a stack of nFrames.
// The raw stack's scalar metadata is copied through unchanged.
func CreateCorrected(path string, meta RawMeta, nFrames int) (*CorrectedWriter, error) {
	tmpPath := path + ".partial"
	osFile, err := os.Create(tmpPath)
	if err != nil {
		return nil, err
	}

	f, err := fitsio.Create(osFile)
	if err != nil {
		osFile.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	cards := append(metaCards(meta, nFrames),
		fitsio.Card{Name: "CORRECTD", Value: true, Comment: "frames are calibrated photon counts"},
		fitsio.Card{Name: "RUNID", Value: uuid.New().String()},
	)
	if err := WritePrimary(f, cards...); err != nil {
		f.Close()
		osFile.Close()
		os.Remove(tmpPath)
		return nil, err
	}

	return &CorrectedWriter{
		path:    path,
		tmpPath: tmpPath,
		osFile:  osFile,
		fits:    f,
		total:   nFrames,
	}, nil
}

// WriteFrame appends the next corrected frame.
func (w *CorrectedWriter) WriteFrame(frame []int32) error {
	if len(frame) != data.BigPixels {
		return &data.IntegrityError{Reason: fmt.Sprintf(
			"%s: corrected frame has %d pixels, want %d (514x1030)", w.path, len(frame), data.BigPixels)}
	}
	if w.next >= w.total {
		return fmt.Errorf("%s: wrote more than the declared %d frames", w.path, w.total)
	}
	err := writeExtension(w.fits, frameExt(w.next), 32, data.BigRows, data.BigCols, frame)
	if err != nil {
		return err
	}
	w.next++
	return nil
}

// Close finishes the container and publishes it at its final path. It
// fails if fewer frames than declared were written.
func (w *CorrectedWriter) Close() error {
	if w.next != w.total {
		w.Abort()
		return fmt.Errorf("%s: wrote %d of %d frames", w.path, w.next, w.total)
	}
	if err := w.fits.Close(); err != nil {
		w.osFile.Close()
		os.Remove(w.tmpPath)
		return err
	}
	if err := w.osFile.Close(); err != nil {
		os.Remove(w.tmpPath)
		return err
	}
	return os.Rename(w.tmpPath, w.path)
}

// Abort discards the partial output.
func (w *CorrectedWriter) Abort() {
	w.fits.Close()
	w.osFile.Close()
	os.Remove(w.tmpPath)
}

// IsCorrected reports whether the container at path already carries the
// corrected marker.
func IsCorrected(path string) (bool, error) {
	r, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	card := f.HDU(0).Header().Get("CORRECTD")
	if card == nil {
		return false, nil
	}
	b, ok := card.Value.(bool)
	return ok && b, nil
}

// ReadCorrectedFrame reads one frame back from a corrected container.
func ReadCorrectedFrame(path string, i int) ([]int32, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := FindImage(f, path, frameExt(i))
	if err != nil {
		return nil, err
	}
	buf := make([]int32, ImageLen(img))
	if err := img.Read(&buf); err != nil {
		return nil, fmt.Errorf("%s: reading %s: %w", path, frameExt(i), err)
	}
	if len(buf) != data.BigPixels {
		return nil, &data.IntegrityError{Reason: fmt.Sprintf(
			"%s: %s has %d pixels, want %d (514x1030)", path, frameExt(i), len(buf), data.BigPixels)}
	}
	return buf, nil
}
