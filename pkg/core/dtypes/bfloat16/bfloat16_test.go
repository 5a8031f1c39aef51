// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package bfloat16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversions(t *testing.T) {
	for _, v := range []float32{0, 1, -1, 0.5, 2, 256, -1024} {
		require.Equal(t, v, FromFloat32(v).Float32(), "value %g should be exactly representable", v)
	}
	// 1 + 2^-8 is between two bfloat16 values, rounds to even (1.0).
	require.Equal(t, float32(1), FromFloat32(1+1.0/256).Float32())
	require.Equal(t, float32(3), FromFloat64(3).Float32())
	require.True(t, FromFloat32(float32(math.NaN())).IsNaN())
	require.False(t, FromFloat32(1).IsNaN())
}

func TestInf(t *testing.T) {
	require.True(t, math.IsInf(float64(Inf(1).Float32()), 1))
	require.True(t, math.IsInf(float64(Inf(-1).Float32()), -1))
	require.Equal(t, "+Inf", Inf(1).String())
	require.Equal(t, "1.5", FromFloat32(1.5).String())
	require.Equal(t, uint16(0x3F80), FromFloat32(1).Bits())
	require.Equal(t, FromFloat32(1), FromBits(0x3F80))
}
