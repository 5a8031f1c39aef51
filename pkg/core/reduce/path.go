// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"fmt"

	"github.com/gomlx/ndreduce/pkg/core/shapes"
)

// Path is the implementation chosen by Reduce for a given input layout and axis.
type Path int

const (
	// PathInvalid is returned by SelectPath for a scalar input, which can't be reduced.
	PathInvalid Path = iota

	// PathDegenerate: the reduced axis has length 1 (and rank > 1), the input is copied to the output.
	PathDegenerate

	// PathRank1: the only axis of a rank-1 input is folded into a single value.
	PathRank1

	// PathRank2Axis0: each column of a rank-2 input is folded over the rows.
	PathRank2Axis0

	// PathRank2Axis1: each row of a rank-2 input is folded over the columns.
	PathRank2Axis1

	// PathGeneral: any other rank and axis, folded with one elementwise combination per index of the axis.
	PathGeneral
)

// String implements fmt.Stringer.
func (p Path) String() string {
	switch p {
	case PathInvalid:
		return "Invalid"
	case PathDegenerate:
		return "Degenerate"
	case PathRank1:
		return "Rank1"
	case PathRank2Axis0:
		return "Rank2Axis0"
	case PathRank2Axis1:
		return "Rank2Axis1"
	case PathGeneral:
		return "General"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// SelectPath returns the path Reduce takes to reduce the input layout on the given (normalized) axis.
// The cases are checked in priority order: a length 1 axis is always copied, even for rank 2.
func SelectPath(input shapes.Layout, axis int) Path {
	rank := input.Rank()
	if rank == 0 || axis < 0 || axis >= rank {
		return PathInvalid
	}
	switch {
	case rank > 1 && input.Dimensions[axis].Length == 1:
		return PathDegenerate
	case rank == 1:
		return PathRank1
	case rank == 2 && axis == 0:
		return PathRank2Axis0
	case rank == 2 && axis == 1:
		return PathRank2Axis1
	default:
		return PathGeneral
	}
}
