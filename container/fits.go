// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package container

import (
	"fmt"

	"github.com/astrogo/fitsio"

	"github.com/dials/morgul/data"
)

// Containers are FITS files: named IMAGE extensions stand in for
// datasets and header cards for their attributes. The unsigned 16-bit
// raw data uses the standard BZERO offset convention.

const u16Offset = 32768

func u16ToI16(in []uint16) []int16 {
	out := make([]int16, len(in))
	for i, v := range in {
		out[i] = int16(int32(v) - u16Offset)
	}
	return out
}

func i16ToU16(in []int16) []uint16 {
	out := make([]uint16, len(in))
	for i, v := range in {
		out[i] = uint16(int32(v) + u16Offset)
	}
	return out
}

// BoolsToInts converts a boolean grid to the 0/1 form stored on disk.
func BoolsToInts(in []bool) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		if v {
			out[i] = 1
		}
	}
	return out
}

// IntsToBools is the inverse of BoolsToInts.
func IntsToBools(in []int32) []bool {
	out := make([]bool, len(in))
	for i, v := range in {
		out[i] = v != 0
	}
	return out
}

// WritePrimary writes a data-less primary HDU carrying only header cards.
func WritePrimary(f *fitsio.File, cards ...fitsio.Card) error {
	im := fitsio.NewImage(8, []int{})
	defer im.Close()
	if err := im.Header().Append(cards...); err != nil {
		return err
	}
	return f.Write(im)
}

// writeExtension writes one named IMAGE extension.
func writeExtension(f *fitsio.File, name string, bitpix int, rows, cols int, buf interface{}, cards ...fitsio.Card) error {
	im := fitsio.NewImage(bitpix, []int{cols, rows})
	defer im.Close()
	named := append([]fitsio.Card{{Name: "EXTNAME", Value: name}}, cards...)
	if err := im.Header().Append(named...); err != nil {
		return err
	}
	if err := im.Write(buf); err != nil {
		return err
	}
	return f.Write(im)
}

// WriteModuleImage writes one named IMAGE extension in the (512,1024)
// module geometry.
func WriteModuleImage(f *fitsio.File, name string, bitpix int, buf interface{}, cards ...fitsio.Card) error {
	return writeExtension(f, name, bitpix, data.ModRows, data.ModCols, buf, cards...)
}

// ImageLen returns the pixel count of an IMAGE extension from its
// declared axes. Read destinations must be allocated to this length up
// front; fitsio resizes the caller's slice only within its capacity.
func ImageLen(img fitsio.Image) int {
	axes := img.Header().Axes()
	if len(axes) == 0 {
		return 0
	}
	n := 1
	for _, axis := range axes {
		if axis <= 0 {
			return 0
		}
		n *= axis
	}
	return n
}

// FindImage locates a named IMAGE extension, or reports which dataset is
// missing from which file.
func FindImage(f *fitsio.File, path, name string) (fitsio.Image, error) {
	for _, hdu := range f.HDUs() {
		if hdu.Name() != name {
			continue
		}
		img, ok := hdu.(fitsio.Image)
		if !ok {
			return nil, &data.IntegrityError{Reason: fmt.Sprintf("%s: dataset %q is not an image", path, name)}
		}
		return img, nil
	}
	return nil, &data.IntegrityError{Reason: fmt.Sprintf("%s: missing required dataset %q", path, name)}
}

// CardFloat reads a required numeric header card.
func CardFloat(hdr *fitsio.Header, path, name string) (float64, error) {
	card := hdr.Get(name)
	if card == nil {
		return 0, &data.IntegrityError{Reason: fmt.Sprintf("%s: missing required header %q", path, name)}
	}
	switch v := card.Value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, &data.IntegrityError{Reason: fmt.Sprintf("%s: header %q is %T, want a number", path, name, card.Value)}
}

// CardInt reads a required integer header card.
func CardInt(hdr *fitsio.Header, path, name string) (int, error) {
	card := hdr.Get(name)
	if card == nil {
		return 0, &data.IntegrityError{Reason: fmt.Sprintf("%s: missing required header %q", path, name)}
	}
	switch v := card.Value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	}
	return 0, &data.IntegrityError{Reason: fmt.Sprintf("%s: header %q is %T, want an integer", path, name, card.Value)}
}

// CardString reads a required string header card.
func CardString(hdr *fitsio.Header, path, name string) (string, error) {
	card := hdr.Get(name)
	if card == nil {
		return "", &data.IntegrityError{Reason: fmt.Sprintf("%s: missing required header %q", path, name)}
	}
	s, ok := card.Value.(string)
	if !ok {
		return "", &data.IntegrityError{Reason: fmt.Sprintf("%s: header %q is %T, want a string", path, name, card.Value)}
	}
	return s, nil
}

func frameExt(i int) string {
	return fmt.Sprintf("FRAME%06d", i)
}
