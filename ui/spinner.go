// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package ui holds the terminal progress reporting shared by the
// command-line tools.
package ui

import (
	"fmt"
	"time"

	"github.com/theckman/yacspin"
)

// Spinner shows one long-running batch stage on the terminal.
type Spinner struct {
	s *yacspin.Spinner
}

// NewSpinner starts a spinner for the named stage.
func NewSpinner(stage string) (*Spinner, error) {
	cfg := yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " " + stage,
		SuffixAutoColon:   true,
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
	}
	s, err := yacspin.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	return &Spinner{s: s}, nil
}

// Progress satisfies the frame-loop progress callback.
func (sp *Spinner) Progress(done, total int) {
	sp.s.Message(fmt.Sprintf("frame %d/%d", done, total))
}

// Message replaces the stage detail text.
func (sp *Spinner) Message(msg string) {
	sp.s.Message(msg)
}

// Done stops the spinner with the success mark.
func (sp *Spinner) Done() {
	sp.s.Stop()
}

// Fail stops the spinner with the failure mark.
func (sp *Spinner) Fail() {
	sp.s.StopFail()
}
