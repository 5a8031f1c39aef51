// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/reduce"
	"github.com/gomlx/ndreduce/pkg/core/shapes"
	"github.com/gomlx/ndreduce/pkg/core/tensors"
	"github.com/gomlx/ndreduce/pkg/core/tensors/numpy"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// Layouts accepted by -layout.
const (
	LayoutRowMajor   = "rowmajor"
	LayoutTransposed = "transposed"
	LayoutReversed   = "reversed"
)

// reductionCase is one reduction timed by the command.
type reductionCase struct {
	Name    string
	Lengths []int
	Axis    int
}

// caseResult holds the measurements of one reductionCase.
type caseResult struct {
	reductionCase
	Path    reduce.Path
	Input   shapes.Layout
	Size    int
	Bytes   int
	Elapsed time.Duration // Per reduction.
}

// parseShape parses comma-separated positive lengths, e.g. "64,128,32".
func parseShape(text string) ([]int, error) {
	parts := strings.Split(text, ",")
	lengths := make([]int, 0, len(parts))
	for _, part := range parts {
		length, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid shape %q", text)
		}
		if length <= 0 {
			return nil, errors.Errorf("invalid shape %q: lengths must be positive", text)
		}
		lengths = append(lengths, length)
	}
	return lengths, nil
}

func product(lengths []int) int {
	p := 1
	for _, length := range lengths {
		p *= length
	}
	return p
}

// buildCases returns the requested reduction and, if allPaths is set, reductions of the same number of elements
// rearranged so that each one takes a different path of reduce.Reduce.
func buildCases(lengths []int, axis int, allPaths bool) ([]reductionCase, error) {
	axis, err := shapes.NormalizeAxis(axis, len(lengths))
	if err != nil {
		return nil, err
	}
	cases := []reductionCase{{Name: "requested", Lengths: lengths, Axis: axis}}
	if !allPaths {
		return cases, nil
	}
	axisLength := lengths[axis]
	outer, inner := product(lengths[:axis]), product(lengths[axis+1:])
	cases = append(cases,
		reductionCase{Name: "flat", Lengths: []int{outer * axisLength * inner}, Axis: 0},
		reductionCase{Name: "rows", Lengths: []int{axisLength, outer * inner}, Axis: 0},
		reductionCase{Name: "columns", Lengths: []int{outer * inner, axisLength}, Axis: 1},
		reductionCase{Name: "rank-3", Lengths: []int{outer, axisLength, inner}, Axis: 1},
		reductionCase{Name: "length-1 axis", Lengths: []int{outer, 1, axisLength * inner}, Axis: 1},
	)
	return cases, nil
}

// makeInput returns a view with the given lengths and random values, laid out in memory according to layout.
func makeInput[T dtypes.Supported](rng *rand.Rand, random func(*rand.Rand) T, lengths []int, layout string) (tensors.View[T], error) {
	rank := len(lengths)
	storageLengths := lengths
	if layout == LayoutTransposed {
		storageLengths = make([]int, rank)
		for axis := range rank {
			storageLengths[axis] = lengths[rank-1-axis]
		}
	}
	flat := make([]T, product(storageLengths))
	for i := range flat {
		flat[i] = random(rng)
	}
	input := tensors.FromFlat(flat, storageLengths...)
	switch layout {
	case LayoutRowMajor:
	case LayoutTransposed:
		permutation := make([]int, rank)
		for axis := range rank {
			permutation[axis] = rank - 1 - axis
		}
		input = input.Transpose(permutation...)
	case LayoutReversed:
		for axis := range rank {
			input = input.Reverse(axis)
		}
	default:
		return input, errors.Errorf("unknown layout %q, valid layouts: %s, %s, %s",
			layout, LayoutRowMajor, LayoutTransposed, LayoutReversed)
	}
	return input, nil
}

// runCases times each case cfg.Repeats times with the reduction fn.
// The input of the first case is read from cfg.InputPath if set, and its result is printed (cfg.Print) and
// saved to cfg.OutputPath if requested.
func runCases[T dtypes.Supported](fn reduceFn[T], random func(*rand.Rand) T, cases []reductionCase,
	cfg config) ([]caseResult, error) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	progressWriter := cfg.ProgressWriter
	if progressWriter == nil {
		progressWriter = io.Discard
	}
	bar := progressbar.NewOptions(len(cases)*cfg.Repeats,
		progressbar.OptionSetDescription("reducing"),
		progressbar.OptionSetWriter(progressWriter),
		progressbar.OptionSetVisibility(cfg.ProgressWriter != nil),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionClearOnFinish(),
	)
	results := make([]caseResult, 0, len(cases))
	for caseIdx, c := range cases {
		var input tensors.View[T]
		var err error
		if caseIdx == 0 && cfg.InputPath != "" {
			input, err = numpy.ReadFile[T](cfg.InputPath)
		} else {
			input, err = makeInput(rng, random, c.Lengths, cfg.Layout)
		}
		if err != nil {
			return nil, err
		}
		outputLengths := input.Lengths()
		outputLengths[c.Axis] = 1
		output := tensors.Zeros[T](outputLengths...)
		bar.Describe(c.Name)
		klog.V(1).Infof("case %q: input %s, axis %d", c.Name, input.Layout, c.Axis)

		start := time.Now()
		for range cfg.Repeats {
			if err := fn(c.Axis, input, output); err != nil {
				return nil, errors.WithMessagef(err, "case %q", c.Name)
			}
			_ = bar.Add(1)
		}
		elapsed := time.Since(start)

		if caseIdx == 0 {
			if cfg.Print {
				fmt.Printf("Input %s:\n%s\n\nReduced on axis %d:\n%s\n\n", input.Layout, input, c.Axis, output)
			}
			if cfg.OutputPath != "" {
				if err := numpy.WriteFile(cfg.OutputPath, output); err != nil {
					return nil, err
				}
			}
		}
		results = append(results, caseResult{
			reductionCase: c,
			Path:          reduce.SelectPath(input.Layout, c.Axis),
			Input:         input.Layout,
			Size:          input.Size(),
			Bytes:         input.Size() * input.DType().Size(),
			Elapsed:       elapsed / time.Duration(max(cfg.Repeats, 1)),
		})
	}
	_ = bar.Finish()
	return results, nil
}
