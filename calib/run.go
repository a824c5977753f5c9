// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package calib

import (
	"context"
	"fmt"
	"os"

	"github.com/dials/morgul/container"
	"github.com/dials/morgul/data"
)

// CorrectionJob is one validated input ready for per-frame work.
type CorrectionJob struct {
	Input  string
	Output string
	Meta   container.RawMeta
	Frames int
}

// Problem is a per-file condition found during the validation pre-pass.
type Problem struct {
	Path string
	Err  error
}

// CorrectionPlan is the outcome of the validation pre-pass over a batch.
type CorrectionPlan struct {
	Jobs    []CorrectionJob
	Skipped []Problem
}

// PlanCorrection validates a whole batch before any per-frame work:
// every input is opened and its required metadata checked, inputs that
// already carry the corrected marker (or cannot be read) are skipped and
// reported, and every output collision is collected so the operator sees
// the full set at once. Collisions abort the whole invocation unless
// overwrite is authorized.
func PlanCorrection(ctx context.Context, inputs []string, outputFor func(string) string, overwrite bool, credentials string) (*CorrectionPlan, error) {
	plan := &CorrectionPlan{}
	var collisions []string

	for _, input := range inputs {
		kind, err := container.DetectKind(ctx, input, credentials)
		if err != nil {
			plan.Skipped = append(plan.Skipped, Problem{Path: input, Err: err})
			continue
		}
		switch kind {
		case container.KindRaw:
		case container.KindCorrected:
			plan.Skipped = append(plan.Skipped, Problem{Path: input, Err: fmt.Errorf("already corrected")})
			continue
		default:
			plan.Skipped = append(plan.Skipped, Problem{Path: input, Err: fmt.Errorf("%s, want raw acquisition", kind)})
			continue
		}

		meta, nFrames, err := container.ProbeRawStack(ctx, input, credentials)
		if err != nil {
			plan.Skipped = append(plan.Skipped, Problem{Path: input, Err: err})
			continue
		}

		output := outputFor(input)
		if _, err := os.Stat(output); err == nil && !overwrite {
			collisions = append(collisions, output)
			continue
		}

		plan.Jobs = append(plan.Jobs, CorrectionJob{
			Input:  input,
			Output: output,
			Meta:   meta,
			Frames: nFrames,
		})
	}

	if len(collisions) > 0 {
		return nil, &CollisionError{Paths: collisions}
	}
	return plan, nil
}

// CorrectStack corrects every frame of one raw stack into a published
// corrected container: correct, round, embiggen, write. The output is
// only renamed into place once every frame has been written.
func CorrectStack(stack *container.RawStack, c *data.Corrector, output string, progress data.Progress) error {
	n := stack.Frames()
	w, err := container.CreateCorrected(output, stack.Meta, n)
	if err != nil {
		return err
	}

	for j := 0; j < n; j++ {
		raw, err := stack.Frame(j)
		if err != nil {
			w.Abort()
			return fmt.Errorf("%s frame %d: %w", stack.Path, j, err)
		}
		frame, err := c.Frame(raw)
		if err != nil {
			w.Abort()
			return fmt.Errorf("%s frame %d: %w", stack.Path, j, err)
		}
		bigger, err := data.Embiggen(data.Round(frame))
		if err != nil {
			w.Abort()
			return fmt.Errorf("%s frame %d: %w", stack.Path, j, err)
		}
		if err := w.WriteFrame(bigger); err != nil {
			w.Abort()
			return err
		}
		if progress != nil {
			progress(j+1, n)
		}
	}

	return w.Close()
}
