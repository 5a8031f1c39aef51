// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package ops defines the binary operators used by reductions and elementwise combinations.
//
// An operator is any type implementing BinaryOp[T]. The ones defined here are zero-sized structs, meant to
// be used as type parameters: reduce.Reduce[float32, ops.Add[float32]] is compiled with the addition inlined,
// with no dynamic dispatch in the inner loops.
//
// Every combination returns a T, so fixed-width integer types wrap around at every step: int8 127+1 is -128.
package ops

import (
	"math"

	"github.com/gomlx/ndreduce/pkg/core/dtypes"
)

// BinaryOp combines two values. It must be pure and stateless.
//
// It doesn't need to be associative nor commutative: reductions fold left, in increasing index order,
// so Combine(Combine(Combine(a, b), c), d).
type BinaryOp[T any] interface {
	Combine(a, b T) T
}

// Add returns a + b.
type Add[T dtypes.Number] struct{}

func (Add[T]) Combine(a, b T) T { return a + b }

// Sub returns a - b.
type Sub[T dtypes.Number] struct{}

func (Sub[T]) Combine(a, b T) T { return a - b }

// Mul returns a * b.
type Mul[T dtypes.Number] struct{}

func (Mul[T]) Combine(a, b T) T { return a * b }

// Div returns a / b. For integers, division by zero panics, as Go does.
type Div[T dtypes.Number] struct{}

func (Div[T]) Combine(a, b T) T { return a / b }

// Mod returns the remainder a % b, with the sign of a.
type Mod[T dtypes.Integer] struct{}

func (Mod[T]) Combine(a, b T) T { return a % b }

// FloatMod returns math.Mod(a, b), computed in float64.
type FloatMod[T dtypes.Float] struct{}

func (FloatMod[T]) Combine(a, b T) T { return T(math.Mod(float64(a), float64(b))) }

// Min returns the smallest of a and b. For floats, if any is NaN the result is NaN.
type Min[T dtypes.Number] struct{}

func (Min[T]) Combine(a, b T) T { return min(a, b) }

// Max returns the largest of a and b. For floats, if any is NaN the result is NaN.
type Max[T dtypes.Number] struct{}

func (Max[T]) Combine(a, b T) T { return max(a, b) }

// Pow returns a**b, computed with math.Pow in float64 and converted back to T.
//
// For integers the conversion truncates the result at every step of a reduction; values out of range of T
// follow Go's float to integer conversion rules.
type Pow[T dtypes.Number] struct{}

func (Pow[T]) Combine(a, b T) T { return T(math.Pow(float64(a), float64(b))) }

// BitwiseAnd returns a & b.
type BitwiseAnd[T dtypes.Integer] struct{}

func (BitwiseAnd[T]) Combine(a, b T) T { return a & b }

// BitwiseOr returns a | b.
type BitwiseOr[T dtypes.Integer] struct{}

func (BitwiseOr[T]) Combine(a, b T) T { return a | b }

// BitwiseXor returns a ^ b.
type BitwiseXor[T dtypes.Integer] struct{}

func (BitwiseXor[T]) Combine(a, b T) T { return a ^ b }

// ShiftLeft returns a << b. Negative shift counts panic, as in Go.
type ShiftLeft[T dtypes.Integer] struct{}

func (ShiftLeft[T]) Combine(a, b T) T { return a << b }

// ShiftRight returns a >> b (arithmetic for signed types). Negative shift counts panic, as in Go.
type ShiftRight[T dtypes.Integer] struct{}

func (ShiftRight[T]) Combine(a, b T) T { return a >> b }

// LogicalAnd returns a && b.
type LogicalAnd struct{}

func (LogicalAnd) Combine(a, b bool) bool { return a && b }

// LogicalOr returns a || b.
type LogicalOr struct{}

func (LogicalOr) Combine(a, b bool) bool { return a || b }

// LogicalXor returns a != b.
type LogicalXor struct{}

func (LogicalXor) Combine(a, b bool) bool { return a != b }
