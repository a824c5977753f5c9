// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"fmt"
	"image/color"
	"image/png"
	"os"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	dispersionBins = 100
	dispersionMax  = 5.0
)

// DispersionHist books the per-pixel dispersion distribution used to
// judge a mask build. Flagged pixels land above the cut, so the tail of
// this histogram is exactly the flagged population.
func DispersionHist(dispersion []float64) *hbook.H1D {
	h := hbook.NewH1D(dispersionBins, 0, dispersionMax)
	for _, d := range dispersion {
		if d >= dispersionMax {
			d = dispersionMax - 1e-6
		}
		h.Fill(d, 1)
	}
	return h
}

// RenderHist draws a booked histogram to a PNG with a log count axis.
func RenderHist(h *hbook.H1D, title, xLabel, path string) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "pixels"
	p.Y.Scale = &FuncScale{Func: Log10Min3}
	p.Y.Tick.Marker = LogTicks{}
	p.BackgroundColor = color.White

	hp := &hplot.Plot{
		Plot:  p,
		Style: hplot.DefaultStyle,
	}
	hp.Add(hplot.NewH1D(h))
	hp.Add(hplot.NewGrid())

	img := vgimg.New(6*vg.Inch, 4*vg.Inch)
	c := draw.New(img)
	p.Draw(c)

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	return encoder.Encode(w, img.Image())
}

// WriteDispersionQC renders the dispersion distribution for one module.
func WriteDispersionQC(path, moduleID string, dispersion []float64) error {
	h := DispersionHist(dispersion)
	title := fmt.Sprintf("flat-field dispersion, module %s", moduleID)
	return RenderHist(h, title, "variance / mean", path)
}
