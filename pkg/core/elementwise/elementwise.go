// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package elementwise implements the elementwise copy and binary combination of strided views with
// the same lengths.
//
// Copy and Combine borrow the buffers themselves. CopyFlat and CombineFlat work on flat slices already
// borrowed by the caller, and are used by the reducer, which holds its borrows for the whole reduction.
package elementwise

import (
	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/ops"
	"github.com/gomlx/ndreduce/pkg/core/shapes"
	"github.com/gomlx/ndreduce/pkg/core/tensors"
	"github.com/pkg/errors"
)

// checkSameLengths returns an error wrapping shapes.ErrShapeMismatch if the layouts differ in lengths.
func checkSameLengths(method string, dst shapes.Layout, sources ...shapes.Layout) error {
	for _, src := range sources {
		if !src.SameLengths(dst) {
			return errors.Wrapf(shapes.ErrShapeMismatch, "elementwise.%s: source lengths %v don't match destination lengths %v",
				method, src.Lengths(), dst.Lengths())
		}
	}
	return nil
}

// Copy copies the elements of src to dst, which must have the same lengths. The layouts can be anything
// (transposed, reversed, ...).
//
// If src and dst share the same buffer, they must not overlap.
func Copy[T dtypes.Supported](src, dst tensors.View[T]) error {
	if err := checkSameLengths("Copy", dst.Layout, src.Layout); err != nil {
		return err
	}
	dstFlat, release, err := dst.PinMut()
	if err != nil {
		return err
	}
	defer release()
	srcFlat := dstFlat
	if src.Buffer != dst.Buffer {
		var releaseSrc func()
		srcFlat, releaseSrc, err = src.Pin()
		if err != nil {
			return err
		}
		defer releaseSrc()
	} else if err = src.Validate(); err != nil {
		return err
	}
	CopyFlat(srcFlat, src.Layout, dstFlat, dst.Layout)
	return nil
}

// Combine sets dst = op(lhs, rhs), elementwise. All three views must have the same lengths.
//
// dst may be the same view as lhs or rhs (in-place update).
func Combine[T dtypes.Supported, Op ops.BinaryOp[T]](op Op, lhs, rhs, dst tensors.View[T]) error {
	if err := checkSameLengths("Combine", dst.Layout, lhs.Layout, rhs.Layout); err != nil {
		return err
	}
	dstFlat, release, err := dst.PinMut()
	if err != nil {
		return err
	}
	defer release()
	var releases []func()
	defer func() {
		for _, releaseSrc := range releases {
			releaseSrc()
		}
	}()
	borrowSource := func(src tensors.View[T]) ([]T, error) {
		if src.Buffer == dst.Buffer {
			return dstFlat, src.Validate()
		}
		flat, releaseSrc, err := src.Pin()
		if err != nil {
			return nil, err
		}
		releases = append(releases, releaseSrc)
		return flat, nil
	}
	lhsFlat, err := borrowSource(lhs)
	if err != nil {
		return err
	}
	rhsFlat, err := borrowSource(rhs)
	if err != nil {
		return err
	}
	CombineFlat(op, lhsFlat, lhs.Layout, rhsFlat, rhs.Layout, dstFlat, dst.Layout)
	return nil
}

// CopyFlat copies the elements addressed by srcLayout in srcFlat to the ones addressed by dstLayout in dstFlat.
//
// The layouts must have the same lengths (it panics otherwise) and fit the flat slices.
func CopyFlat[T any](srcFlat []T, srcLayout shapes.Layout, dstFlat []T, dstLayout shapes.Layout) {
	if srcLayout.Rank() == 1 && dstLayout.Rank() == 1 {
		n := srcLayout.Dimensions[0].Length
		if n != dstLayout.Dimensions[0].Length {
			panic(errors.Wrapf(shapes.ErrShapeMismatch, "CopyFlat: lengths %d and %d", n, dstLayout.Dimensions[0].Length))
		}
		srcIdx, dstIdx := srcLayout.Offset, dstLayout.Offset
		srcStride, dstStride := srcLayout.Dimensions[0].Stride, dstLayout.Dimensions[0].Stride
		for range n {
			dstFlat[dstIdx] = srcFlat[srcIdx]
			srcIdx += srcStride
			dstIdx += dstStride
		}
		return
	}
	for flatIndices := range shapes.IterTogether(srcLayout, dstLayout) {
		dstFlat[flatIndices[1]] = srcFlat[flatIndices[0]]
	}
}

// CombineFlat sets the elements of dstFlat addressed by dstLayout to op(lhs, rhs), where lhs and rhs are
// the elements addressed by lhsLayout and rhsLayout in their flat slices.
//
// The layouts must have the same lengths (it panics otherwise) and fit the flat slices.
// The slices may be the same: each element is read before the corresponding destination element is written.
func CombineFlat[T any, Op ops.BinaryOp[T]](op Op, lhsFlat []T, lhsLayout shapes.Layout, rhsFlat []T, rhsLayout shapes.Layout,
	dstFlat []T, dstLayout shapes.Layout) {
	for flatIndices := range shapes.IterTogether(lhsLayout, rhsLayout, dstLayout) {
		dstFlat[flatIndices[2]] = op.Combine(lhsFlat[flatIndices[0]], rhsFlat[flatIndices[1]])
	}
}
