// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package reduce implements the reduction of a strided view along one axis with a binary operator.
//
// The reduction is a left fold: for each output position, the elements along the axis are combined in
// increasing index order, op(...op(op(x[0], x[1]), x[2])..., x[n-1]). Operators need not be associative nor
// commutative (ops.Sub and ops.Pow are valid), and the result is stored in the element type after every
// step, so integer types wrap around and narrow results are truncated as they go.
//
// Example:
//
//	input := tensors.FromValue[int32]([][]int32{{1, 2, 3}, {4, 5, 6}})
//	output := tensors.Zeros[int32](1, 3)
//	_, err := reduce.Reduce(ops.Add[int32]{}, 0, input, output) // output = [[5, 7, 9]]
package reduce

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/elementwise"
	"github.com/gomlx/ndreduce/pkg/core/ops"
	"github.com/gomlx/ndreduce/pkg/core/shapes"
	"github.com/gomlx/ndreduce/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrInvalidAxis is returned (wrapped) when the axis is out of range for the input rank, or the input is a scalar.
	ErrInvalidAxis = shapes.ErrInvalidAxis

	// ErrShapeMismatch is returned (wrapped) when the output lengths don't match the input lengths with
	// the reduced axis set to 1 (or removed).
	ErrShapeMismatch = shapes.ErrShapeMismatch

	// ErrEmptyReduction is returned (wrapped) when the reduced axis has length 0: there is no identity
	// for an arbitrary operator.
	ErrEmptyReduction = errors.New("empty reduction")

	// ErrBufferAccess is returned (wrapped) when the input can't be borrowed for reading or the output for writing,
	// including when the output shares the input's buffer.
	ErrBufferAccess = tensors.ErrBufferAccess
)

// Reduce folds input along axis with op, writing the results to output, which is also returned on success.
//
// A negative axis counts from the end: -1 is the last axis.
//
// The output must have the input lengths with the reduced axis set to 1 (keep-dims form). The input lengths
// with the axis removed (rank-reduced form) are also accepted: that view is read as if it had an axis of
// length 1 inserted at the reduced position.
//
// The output must not share the input's buffer: the input is borrowed for reading and the output for writing
// for the whole reduction. Argument errors are detected before anything is written to the output.
//
// Errors wrap one of ErrInvalidAxis, ErrShapeMismatch, ErrEmptyReduction or ErrBufferAccess.
func Reduce[T dtypes.Supported, Op ops.BinaryOp[T]](op Op, axis int, input, output tensors.View[T]) (tensors.View[T], error) {
	var err error
	panicErr := exceptions.TryCatch[error](func() {
		err = reduceImpl(op, axis, input, output)
	})
	if panicErr != nil {
		return output, errors.WithMessagef(panicErr, "reduce.Reduce(axis=%d) failed", axis)
	}
	return output, err
}

// keepDimsLayout returns the output layout in keep-dims form, checking that it matches the input.
func keepDimsLayout(input, output shapes.Layout, axis int) (shapes.Layout, error) {
	rank := input.Rank()
	expected := input.Lengths()
	expected[axis] = 1
	if output.Rank() == rank-1 {
		output = output.InsertAxis(axis)
	}
	if !slices.Equal(output.Lengths(), expected) {
		return output, errors.Wrapf(ErrShapeMismatch,
			"output lengths %v don't match input lengths %v reduced on axis %d: expected %v (or %v)",
			output.Lengths(), input.Lengths(), axis, expected, slices.Delete(slices.Clone(expected), axis, axis+1))
	}
	return output, nil
}

func reduceImpl[T dtypes.Supported, Op ops.BinaryOp[T]](op Op, axis int, input, output tensors.View[T]) error {
	rank := input.Rank()
	if rank == 0 {
		return errors.Wrapf(ErrInvalidAxis, "cannot reduce a scalar (axis %d)", axis)
	}
	axis, err := shapes.NormalizeAxis(axis, rank)
	if err != nil {
		return err
	}
	inLayout := input.Layout
	if inLayout.Dimensions[axis].Length == 0 {
		return errors.Wrapf(ErrEmptyReduction, "axis %d of input %s has length 0", axis, inLayout)
	}
	outLayout, err := keepDimsLayout(inLayout, output.Layout, axis)
	if err != nil {
		return err
	}

	inFlat, releaseIn, err := input.Pin()
	if err != nil {
		return errors.WithMessage(err, "reduce input")
	}
	defer releaseIn()
	outFlat, releaseOut, err := output.With(outLayout).PinMut()
	if err != nil {
		if output.Buffer == input.Buffer {
			return errors.WithMessage(err, "reduce output shares the input buffer")
		}
		return errors.WithMessage(err, "reduce output")
	}
	defer releaseOut()

	path := SelectPath(inLayout, axis)
	if klog.V(2).Enabled() {
		klog.Infof("reduce.Reduce[%s]: path %s, axis %d, input %s, output %s", input.DType(), path, axis, inLayout, outLayout)
	}
	switch path {
	case PathDegenerate:
		elementwise.CopyFlat(inFlat, inLayout.DropAxis(axis), outFlat, outLayout.DropAxis(axis))

	case PathRank1:
		dim := inLayout.Dimensions[0]
		outFlat[outLayout.Offset] = foldStrided(op, inFlat, inLayout.Offset, dim.Length, dim.Stride)

	case PathRank2Axis0, PathRank2Axis1:
		// Each output element is the fold of one run along the reduced axis; other is the kept axis.
		other := 1 - axis
		reduced := inLayout.Dimensions[axis]
		kept := inLayout.Dimensions[other]
		outStride := outLayout.Dimensions[other].Stride
		inStart, outIdx := inLayout.Offset, outLayout.Offset
		for range kept.Length {
			if klog.V(3).Enabled() {
				klog.Infof("reduce.Reduce: fold run of %d elements from flat index %d (stride %d) into %d",
					reduced.Length, inStart, reduced.Stride, outIdx)
			}
			outFlat[outIdx] = foldStrided(op, inFlat, inStart, reduced.Length, reduced.Stride)
			inStart += kept.Stride
			outIdx += outStride
		}

	case PathGeneral:
		acc := outLayout.AtIndex(0, axis)
		elementwise.CopyFlat(inFlat, inLayout.AtIndex(0, axis), outFlat, acc)
		for j := 1; j < inLayout.Dimensions[axis].Length; j++ {
			slice := inLayout.AtIndex(j, axis)
			if klog.V(3).Enabled() {
				klog.Infof("reduce.Reduce: combine slice %d of axis %d, layout %s", j, axis, slice)
			}
			elementwise.CombineFlat(op, outFlat, acc, inFlat, slice, outFlat, acc)
		}

	default:
		exceptions.Panicf("reduce.Reduce: no path for axis %d of layout %s", axis, inLayout)
	}
	return nil
}

// ReduceNew allocates a row-major output and reduces input along axis into it.
// If keepDims is false the reduced axis is removed from the returned view, otherwise it is kept with length 1.
func ReduceNew[T dtypes.Supported, Op ops.BinaryOp[T]](op Op, axis int, input tensors.View[T], keepDims bool) (tensors.View[T], error) {
	normalized, err := shapes.NormalizeAxis(axis, input.Rank())
	if err != nil {
		return tensors.View[T]{}, err
	}
	lengths := input.Lengths()
	if keepDims {
		lengths[normalized] = 1
	} else {
		lengths = slices.Delete(lengths, normalized, normalized+1)
	}
	return Reduce(op, axis, input, tensors.Zeros[T](lengths...))
}

// Sum returns the sum of input along axis, see ReduceNew.
func Sum[T dtypes.Number](axis int, input tensors.View[T], keepDims bool) (tensors.View[T], error) {
	return ReduceNew(ops.Add[T]{}, axis, input, keepDims)
}

// Product returns the product of input along axis, see ReduceNew.
func Product[T dtypes.Number](axis int, input tensors.View[T], keepDims bool) (tensors.View[T], error) {
	return ReduceNew(ops.Mul[T]{}, axis, input, keepDims)
}

// Max returns the maximum of input along axis, see ReduceNew.
func Max[T dtypes.Number](axis int, input tensors.View[T], keepDims bool) (tensors.View[T], error) {
	return ReduceNew(ops.Max[T]{}, axis, input, keepDims)
}

// Min returns the minimum of input along axis, see ReduceNew.
func Min[T dtypes.Number](axis int, input tensors.View[T], keepDims bool) (tensors.View[T], error) {
	return ReduceNew(ops.Min[T]{}, axis, input, keepDims)
}
