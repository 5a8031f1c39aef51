// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"github.com/gomlx/ndreduce/pkg/core/dtypes"
)

// Half precision operators: values are converted to float32, combined, and rounded back to T.
// Rounding happens at every combination, so a reduction accumulates in half precision.

// HalfAdd returns a + b.
type HalfAdd[T dtypes.Half] struct{}

func (HalfAdd[T]) Combine(a, b T) T {
	return dtypes.HalfFromFloat32[T](dtypes.HalfToFloat32(a) + dtypes.HalfToFloat32(b))
}

// HalfSub returns a - b.
type HalfSub[T dtypes.Half] struct{}

func (HalfSub[T]) Combine(a, b T) T {
	return dtypes.HalfFromFloat32[T](dtypes.HalfToFloat32(a) - dtypes.HalfToFloat32(b))
}

// HalfMul returns a * b.
type HalfMul[T dtypes.Half] struct{}

func (HalfMul[T]) Combine(a, b T) T {
	return dtypes.HalfFromFloat32[T](dtypes.HalfToFloat32(a) * dtypes.HalfToFloat32(b))
}

// HalfMin returns the smallest of a and b, NaN if any of them is NaN.
type HalfMin[T dtypes.Half] struct{}

func (HalfMin[T]) Combine(a, b T) T {
	return dtypes.HalfFromFloat32[T](min(dtypes.HalfToFloat32(a), dtypes.HalfToFloat32(b)))
}

// HalfMax returns the largest of a and b, NaN if any of them is NaN.
type HalfMax[T dtypes.Half] struct{}

func (HalfMax[T]) Combine(a, b T) T {
	return dtypes.HalfFromFloat32[T](max(dtypes.HalfToFloat32(a), dtypes.HalfToFloat32(b)))
}
