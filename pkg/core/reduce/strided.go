// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"unsafe"

	"github.com/gomlx/ndreduce/pkg/core/ops"
)

// This file holds the only unchecked memory accesses of the package.
//
// Bounds argument: Reduce checks, before taking any borrow, that the input layout's span (the lowest and
// highest flat index reachable from Offset through every Dimension, following negative strides) lies within
// the input buffer. Every run folded here starts at a flat index of that layout and takes n-1 steps of one of
// its strides along an axis of length n, so every element visited is inside the span. The pointer is only
// advanced n-1 times, so it never points past the last element of the run.

// foldStrided left-folds the n elements flat[start], flat[start+stride], ... with op, returning
// op(...op(op(flat[start], flat[start+stride]), flat[start+2*stride])...). It requires n >= 1.
func foldStrided[T any, Op ops.BinaryOp[T]](op Op, flat []T, start, n, stride int) T {
	var zero T
	elementSize := int(unsafe.Sizeof(zero))
	ptr := unsafe.Add(unsafe.Pointer(unsafe.SliceData(flat)), start*elementSize)
	step := stride * elementSize
	acc := *(*T)(ptr)
	for range n - 1 {
		ptr = unsafe.Add(ptr, step)
		acc = op.Combine(acc, *(*T)(ptr))
	}
	return acc
}
