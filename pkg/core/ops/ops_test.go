// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"math"
	"testing"

	"github.com/gomlx/ndreduce/pkg/core/dtypes/bfloat16"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// combineAll folds op over values from the left.
func combineAll[T any, Op BinaryOp[T]](op Op, values ...T) T {
	acc := values[0]
	for _, v := range values[1:] {
		acc = op.Combine(acc, v)
	}
	return acc
}

func TestArithmetic(t *testing.T) {
	require.Equal(t, int32(10), combineAll[int32](Add[int32]{}, 1, 2, 3, 4))
	require.Equal(t, int32(-8), combineAll[int32](Sub[int32]{}, 1, 2, 3, 4))
	require.Equal(t, 24.0, combineAll[float64](Mul[float64]{}, 1, 2, 3, 4))
	require.Equal(t, float32(2.5), combineAll[float32](Div[float32]{}, 10, 2, 2))
	require.Equal(t, 2, combineAll[int](Div[int]{}, 9, 2, 2))
	require.Equal(t, int8(-1), combineAll[int8](Mod[int8]{}, -7, 3, 2))
	require.Equal(t, 1.5, combineAll[float64](FloatMod[float64]{}, 7.5, 3))
}

func TestPerStepWraparound(t *testing.T) {
	require.Equal(t, int8(-128), Add[int8]{}.Combine(127, 1))
	require.Equal(t, uint8(4), combineAll[uint8](Add[uint8]{}, 250, 5, 5))
	require.Equal(t, uint16(0), Mul[uint16]{}.Combine(256, 256))
	require.Equal(t, uint32(math.MaxUint32), Sub[uint32]{}.Combine(0, 1))
}

func TestMinMax(t *testing.T) {
	require.Equal(t, int16(-3), combineAll[int16](Min[int16]{}, 4, -3, 7))
	require.Equal(t, int16(7), combineAll[int16](Max[int16]{}, 4, -3, 7))
	require.True(t, math.IsNaN(Max[float64]{}.Combine(1, math.NaN())))
	require.True(t, math.IsNaN(float64(Min[float32]{}.Combine(float32(math.NaN()), 1))))
}

func TestPow(t *testing.T) {
	require.Equal(t, 64.0, combineAll[float64](Pow[float64]{}, 2, 3, 2))
	require.Equal(t, int32(64), combineAll[int32](Pow[int32]{}, 2, 3, 2))
	// 2**-1 is 0.5, truncated to 0 at this step, and 0**2 is 0.
	require.Equal(t, int32(0), combineAll[int32](Pow[int32]{}, 2, -1, 2))
	require.Equal(t, uint8(1), Pow[uint8]{}.Combine(7, 0))
}

func TestBitwiseAndLogical(t *testing.T) {
	require.Equal(t, uint8(0b0100), combineAll[uint8](BitwiseAnd[uint8]{}, 0b1110, 0b0111, 0b1100))
	require.Equal(t, uint8(0b1111), combineAll[uint8](BitwiseOr[uint8]{}, 0b1000, 0b0011, 0b0100))
	require.Equal(t, int64(0b0110), combineAll[int64](BitwiseXor[int64]{}, 0b1010, 0b1100))
	require.Equal(t, int32(16), combineAll[int32](ShiftLeft[int32]{}, 1, 2, 2))
	require.Equal(t, int32(-2), ShiftRight[int32]{}.Combine(-8, 2))
	require.True(t, combineAll[bool](LogicalAnd{}, true, true, true))
	require.False(t, combineAll[bool](LogicalAnd{}, true, false, true))
	require.True(t, combineAll[bool](LogicalOr{}, false, false, true))
	require.False(t, combineAll[bool](LogicalXor{}, true, true, false))
}

func TestHalf(t *testing.T) {
	f16 := func(v float32) float16.Float16 { return float16.Fromfloat32(v) }
	require.Equal(t, f16(6), combineAll[float16.Float16](HalfAdd[float16.Float16]{}, f16(1), f16(2), f16(3)))
	require.Equal(t, f16(-4), combineAll[float16.Float16](HalfSub[float16.Float16]{}, f16(1), f16(2), f16(3)))
	require.Equal(t, f16(6), combineAll[float16.Float16](HalfMul[float16.Float16]{}, f16(1), f16(2), f16(3)))

	// 2048 + 1 is not representable in float16: per step rounding keeps it at 2048.
	require.Equal(t, f16(2048), combineAll[float16.Float16](HalfAdd[float16.Float16]{}, f16(2048), f16(1), f16(1)))

	bf := bfloat16.FromFloat32
	require.Equal(t, bf(-1), combineAll[bfloat16.BFloat16](HalfMin[bfloat16.BFloat16]{}, bf(3), bf(-1), bf(2)))
	require.Equal(t, bf(3), combineAll[bfloat16.BFloat16](HalfMax[bfloat16.BFloat16]{}, bf(3), bf(-1), bf(2)))
}
