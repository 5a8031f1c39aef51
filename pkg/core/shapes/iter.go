// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"iter"
	"slices"

	"github.com/pkg/errors"
)

// Iter iterates over all the elements of the layout, in row-major logical order (the last axis changes fastest).
//
// It yields the flat index of the element in the buffer (following strides and offset) and a slice with the
// indices for each axis.
//
// To avoid allocating the slice of indices, the yielded indices is owned by the Iter() method:
// don't change it inside the loop.
func (l Layout) Iter() iter.Seq2[int, []int] {
	indices := make([]int, l.Rank())
	return l.IterOn(indices)
}

// IterOn is like Iter, but updates the given indices slice, which must have len(indices) == l.Rank().
// During the iteration the caller shouldn't modify the slice of indices, otherwise it will lead to undefined behavior.
func (l Layout) IterOn(indices []int) iter.Seq2[int, []int] {
	if len(indices) != l.Rank() {
		panic(errors.Errorf("Layout.IterOn given len(indices) == %d, want it to be equal to the rank %d", len(indices), l.Rank()))
	}
	return func(yield func(int, []int) bool) {
		if l.IsZeroSize() {
			return
		}
		clear(indices)
		rank := l.Rank()
		if rank == 0 {
			_ = yield(l.Offset, indices)
			return
		}

		// Only iterate over the "non-trivial" axes (length > 1), last axis first.
		spatialAxes := make([]int, 0, rank)
		for axis, dim := range l.Dimensions {
			if dim.Length > 1 {
				spatialAxes = append(spatialAxes, axis)
			}
		}
		slices.Reverse(spatialAxes)

		flatIdx := l.Offset
	yielder:
		for {
			if !yield(flatIdx, indices) {
				return
			}
			for _, axis := range spatialAxes {
				dim := l.Dimensions[axis]
				indices[axis]++
				flatIdx += dim.Stride
				if indices[axis] < dim.Length {
					continue yielder
				}
				// Carry over to the next axis.
				flatIdx -= indices[axis] * dim.Stride
				indices[axis] = 0
			}
			break
		}
	}
}

// IterTogether iterates jointly over layouts with the same lengths, in row-major logical order.
//
// For each element it yields the flat index of the element on each of the layouts: flatIndices[i] refers
// to layouts[i]. The yielded slice is owned by the iterator and must not be changed.
//
// It panics with an error wrapping ErrShapeMismatch if the layouts don't have the same lengths.
func IterTogether(layouts ...Layout) iter.Seq[[]int] {
	if len(layouts) == 0 {
		return func(func([]int) bool) {}
	}
	first := layouts[0]
	for i, l := range layouts[1:] {
		if !first.SameLengths(l) {
			panic(errors.Wrapf(ErrShapeMismatch, "IterTogether: layout #%d %s has different lengths than layout #0 %s",
				i+1, l, first))
		}
	}
	return func(yield func([]int) bool) {
		if first.IsZeroSize() {
			return
		}
		flatIndices := make([]int, len(layouts))
		for i, l := range layouts {
			flatIndices[i] = l.Offset
		}
		rank := first.Rank()
		indices := make([]int, rank)
	yielder:
		for {
			if !yield(flatIndices) {
				return
			}
			for axis := rank - 1; axis >= 0; axis-- {
				length := first.Dimensions[axis].Length
				if length == 1 {
					continue
				}
				indices[axis]++
				if indices[axis] < length {
					for i, l := range layouts {
						flatIndices[i] += l.Dimensions[axis].Stride
					}
					continue yielder
				}
				for i, l := range layouts {
					flatIndices[i] -= (length - 1) * l.Dimensions[axis].Stride
				}
				indices[axis] = 0
			}
			break
		}
	}
}
