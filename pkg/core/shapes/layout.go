// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Layout, the description of a strided view over a flat buffer:
// one Dimension (length and stride) per axis, plus the offset of the first element.
//
// Strides are counted in elements, not bytes, and may be negative (reversed views) or zero
// (an axis inserted with InsertAxis, or a broadcast). Layouts are small values: all the transformations
// (Transpose, Slice, AtIndex, ...) return a new Layout and never touch the data.
//
// Layouts created with RowMajor use the "row-major" convention, where the last axis is the contiguous one.
package shapes

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidAxis is returned (wrapped) when an axis is out of range for a layout.
	ErrInvalidAxis = errors.New("invalid axis")

	// ErrShapeMismatch is returned (wrapped) when two layouts were expected to have compatible lengths.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrOutOfBounds is returned (wrapped) when a layout reaches outside its buffer.
	ErrOutOfBounds = errors.New("layout out of buffer bounds")
)

// Dimension describes one axis of a Layout.
type Dimension struct {
	// Length is the number of elements along the axis.
	Length int

	// Stride is the number of elements to advance in the flat buffer to move one step along the axis.
	Stride int
}

// Layout of a strided view: its dimensions (one per axis) and the flat index of the first element.
type Layout struct {
	Dimensions []Dimension
	Offset     int
}

// Make returns a Layout with the given offset and dimensions.
// It panics if any length is negative.
func Make(offset int, dimensions ...Dimension) Layout {
	for axis, dim := range dimensions {
		if dim.Length < 0 {
			exceptions.Panicf("shapes.Make(): negative length %d for axis %d", dim.Length, axis)
		}
	}
	return Layout{Dimensions: dimensions, Offset: offset}
}

// RowMajor returns the contiguous, row-major layout for the given lengths, starting at offset 0.
func RowMajor(lengths ...int) Layout {
	dims := make([]Dimension, len(lengths))
	stride := 1
	for axis := len(lengths) - 1; axis >= 0; axis-- {
		if lengths[axis] < 0 {
			exceptions.Panicf("shapes.RowMajor(%v): negative length for axis %d", lengths, axis)
		}
		dims[axis] = Dimension{Length: lengths[axis], Stride: stride}
		stride *= max(lengths[axis], 1)
	}
	return Layout{Dimensions: dims}
}

// Rank of the layout: its number of axes.
func (l Layout) Rank() int {
	return len(l.Dimensions)
}

// Size returns the number of elements addressed by the layout.
// A scalar (rank 0) layout has size 1.
func (l Layout) Size() int {
	size := 1
	for _, dim := range l.Dimensions {
		size *= dim.Length
	}
	return size
}

// IsZeroSize returns whether any of the axes has length 0.
func (l Layout) IsZeroSize() bool {
	for _, dim := range l.Dimensions {
		if dim.Length == 0 {
			return true
		}
	}
	return false
}

// Lengths returns a newly allocated slice with the length of each axis.
func (l Layout) Lengths() []int {
	lengths := make([]int, len(l.Dimensions))
	for axis, dim := range l.Dimensions {
		lengths[axis] = dim.Length
	}
	return lengths
}

// Strides returns a newly allocated slice with the stride of each axis.
func (l Layout) Strides() []int {
	strides := make([]int, len(l.Dimensions))
	for axis, dim := range l.Dimensions {
		strides[axis] = dim.Stride
	}
	return strides
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	return Layout{Dimensions: append([]Dimension(nil), l.Dimensions...), Offset: l.Offset}
}

// Equal compares lengths, strides and offset.
func (l Layout) Equal(other Layout) bool {
	if l.Offset != other.Offset || len(l.Dimensions) != len(other.Dimensions) {
		return false
	}
	for axis, dim := range l.Dimensions {
		if dim != other.Dimensions[axis] {
			return false
		}
	}
	return true
}

// SameLengths returns whether both layouts have the same rank and lengths, regardless of strides and offsets.
func (l Layout) SameLengths(other Layout) bool {
	if len(l.Dimensions) != len(other.Dimensions) {
		return false
	}
	for axis, dim := range l.Dimensions {
		if dim.Length != other.Dimensions[axis].Length {
			return false
		}
	}
	return true
}

// IsRowMajor returns whether the layout is contiguous in row-major order (its offset can be anything).
func (l Layout) IsRowMajor() bool {
	stride := 1
	for axis := len(l.Dimensions) - 1; axis >= 0; axis-- {
		dim := l.Dimensions[axis]
		if dim.Length > 1 && dim.Stride != stride {
			return false
		}
		stride *= dim.Length
	}
	return true
}

// FlatIndex returns the index in the flat buffer of the element at the given indices.
// It panics if the number of indices doesn't match the rank or if an index is out of range.
func (l Layout) FlatIndex(indices ...int) int {
	if len(indices) != len(l.Dimensions) {
		exceptions.Panicf("Layout.FlatIndex(%v): expected %d indices for layout %s", indices, l.Rank(), l)
	}
	flatIdx := l.Offset
	for axis, idx := range indices {
		dim := l.Dimensions[axis]
		if idx < 0 || idx >= dim.Length {
			exceptions.Panicf("Layout.FlatIndex(%v): index %d out of range for axis %d of layout %s", indices, idx, axis, l)
		}
		flatIdx += idx * dim.Stride
	}
	return flatIdx
}

// Span returns the lowest and highest (inclusive) flat indices reachable through the layout.
//
// It follows negative strides, so lo may be lower than Offset. If the layout has zero size, nothing is
// reachable and ok is false.
func (l Layout) Span() (lo, hi int, ok bool) {
	if l.IsZeroSize() {
		return 0, 0, false
	}
	lo, hi = l.Offset, l.Offset
	for _, dim := range l.Dimensions {
		extent := (dim.Length - 1) * dim.Stride
		if extent < 0 {
			lo += extent
		} else {
			hi += extent
		}
	}
	return lo, hi, true
}

// CheckBounds returns an error wrapping ErrOutOfBounds if the layout reaches outside a buffer of the
// given length.
func (l Layout) CheckBounds(bufferLength int) error {
	lo, hi, ok := l.Span()
	if !ok {
		return nil
	}
	if lo < 0 || hi >= bufferLength {
		return errors.Wrapf(ErrOutOfBounds, "layout %s spans flat indices [%d, %d], buffer has %d elements",
			l, lo, hi, bufferLength)
	}
	return nil
}

// String implements fmt.Stringer. Each axis is printed as "length:stride", followed by the offset, e.g.
// "(2:3, 3:1)+0".
func (l Layout) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for axis, dim := range l.Dimensions {
		if axis > 0 {
			sb.WriteString(", ")
		}
		_, _ = fmt.Fprintf(&sb, "%d:%d", dim.Length, dim.Stride)
	}
	_, _ = fmt.Fprintf(&sb, ")+%d", l.Offset)
	return sb.String()
}

// NormalizeAxis converts a negative axis to its positive equivalent, counting from the end
// (-1 is the last axis), and checks that the result is within [0, rank).
//
// It returns an error wrapping ErrInvalidAxis otherwise.
func NormalizeAxis(axis, rank int) (int, error) {
	normalized := axis
	if normalized < 0 {
		normalized = rank + axis
	}
	if normalized < 0 || normalized >= rank {
		return 0, errors.Wrapf(ErrInvalidAxis, "axis %d out of range for rank %d", axis, rank)
	}
	return normalized, nil
}
