// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// checkAxis panics with an error wrapping ErrInvalidAxis if axis is not in [0, limit).
func (l Layout) checkAxis(method string, axis, limit int) {
	if axis < 0 || axis >= limit {
		panic(errors.Wrapf(ErrInvalidAxis, "Layout.%s: axis %d out of range for layout %s", method, axis, l))
	}
}

// Transpose returns the layout with its axes permuted: axis i of the result is axis permutation[i] of l.
// No data is moved, only the dimensions are reordered.
func (l Layout) Transpose(permutation ...int) Layout {
	rank := l.Rank()
	if len(permutation) != rank {
		exceptions.Panicf("Layout.Transpose(%v): permutation must have %d axes for layout %s", permutation, rank, l)
	}
	used := make([]bool, rank)
	dims := make([]Dimension, rank)
	for i, axis := range permutation {
		l.checkAxis("Transpose", axis, rank)
		if used[axis] {
			exceptions.Panicf("Layout.Transpose(%v): axis %d used more than once", permutation, axis)
		}
		used[axis] = true
		dims[i] = l.Dimensions[axis]
	}
	return Layout{Dimensions: dims, Offset: l.Offset}
}

// T returns the transposed rank-2 layout.
func (l Layout) T() Layout {
	if l.Rank() != 2 {
		exceptions.Panicf("Layout.T() requires a rank-2 layout, got %s", l)
	}
	return l.Transpose(1, 0)
}

// Reverse returns the layout with the order of the elements along axis reversed. The resulting stride
// for axis is negated.
func (l Layout) Reverse(axis int) Layout {
	l.checkAxis("Reverse", axis, l.Rank())
	result := l.Clone()
	dim := &result.Dimensions[axis]
	if dim.Length > 0 {
		result.Offset += (dim.Length - 1) * dim.Stride
	}
	dim.Stride = -dim.Stride
	return result
}

// Slice selects the elements start, start+step, ... (up to end, exclusive) along axis.
// The step must be positive.
func (l Layout) Slice(axis, start, end, step int) Layout {
	l.checkAxis("Slice", axis, l.Rank())
	dim := l.Dimensions[axis]
	if step <= 0 {
		exceptions.Panicf("Layout.Slice(axis=%d): step must be positive, got %d", axis, step)
	}
	if start < 0 || end > dim.Length || start > end {
		exceptions.Panicf("Layout.Slice(axis=%d): invalid range [%d, %d) for length %d", axis, start, end, dim.Length)
	}
	result := l.Clone()
	result.Offset += start * dim.Stride
	result.Dimensions[axis] = Dimension{
		Length: (end - start + step - 1) / step,
		Stride: dim.Stride * step,
	}
	return result
}

// AtIndex returns the rank-reduced layout of the elements at the given index along axis.
func (l Layout) AtIndex(index, axis int) Layout {
	l.checkAxis("AtIndex", axis, l.Rank())
	dim := l.Dimensions[axis]
	if index < 0 || index >= dim.Length {
		exceptions.Panicf("Layout.AtIndex(index=%d, axis=%d): index out of range for layout %s", index, axis, l)
	}
	return Layout{
		Dimensions: slices.Delete(slices.Clone(l.Dimensions), axis, axis+1),
		Offset:     l.Offset + index*dim.Stride,
	}
}

// InsertAxis returns a layout with a new axis of length 1 (and stride 0) at position axis,
// 0 <= axis <= rank. It addresses exactly the same elements.
func (l Layout) InsertAxis(axis int) Layout {
	l.checkAxis("InsertAxis", axis, l.Rank()+1)
	return Layout{
		Dimensions: slices.Insert(slices.Clone(l.Dimensions), axis, Dimension{Length: 1}),
		Offset:     l.Offset,
	}
}

// DropAxis removes an axis of length 1. It addresses exactly the same elements.
func (l Layout) DropAxis(axis int) Layout {
	l.checkAxis("DropAxis", axis, l.Rank())
	if l.Dimensions[axis].Length != 1 {
		exceptions.Panicf("Layout.DropAxis(%d): axis has length %d, only axes of length 1 can be dropped, layout %s",
			axis, l.Dimensions[axis].Length, l)
	}
	return l.AtIndex(0, axis)
}

// Reshape returns a row-major layout with the given lengths over the same elements.
// It only works for row-major contiguous layouts with the same size.
func (l Layout) Reshape(lengths ...int) Layout {
	if !l.IsRowMajor() {
		exceptions.Panicf("Layout.Reshape(%v): layout %s is not contiguous in row-major order", lengths, l)
	}
	result := RowMajor(lengths...)
	if result.Size() != l.Size() {
		exceptions.Panicf("Layout.Reshape(%v): size %d differs from the size %d of layout %s",
			lengths, result.Size(), l.Size(), l)
	}
	result.Offset = l.Offset
	return result
}
