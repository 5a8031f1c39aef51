// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"sync"
	"testing"

	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestFromValue(t *testing.T) {
	v := FromValue[int32]([][]int32{{1, 2, 3}, {4, 5, 6}})
	require.Equal(t, []int{2, 3}, v.Lengths())
	require.Equal(t, dtypes.Int32, v.DType())
	require.Equal(t, []int32{1, 2, 3, 4, 5, 6}, v.Flatten())
	require.Equal(t, [][]int32{{1, 2, 3}, {4, 5, 6}}, v.Value())
	require.Equal(t, int32(6), v.At(1, 2))

	scalar := FromValue[float64](3.0)
	require.Equal(t, 0, scalar.Rank())
	require.Equal(t, 3.0, scalar.Value())

	require.Panics(t, func() { FromValue[int32]([][]int32{{1, 2}, {3}}) })
	require.Panics(t, func() { FromValue[int32]([]float32{1}) })
	require.Panics(t, func() { FromValue[int32]([]int32{}) })
	require.Panics(t, func() { FromFlat([]int8{1, 2, 3}, 2, 2) })
}

func TestViewTransforms(t *testing.T) {
	v := FromFlat([]float32{0, 1, 2, 3, 4, 5}, 2, 3)
	require.Equal(t, [][]float32{{0, 3}, {1, 4}, {2, 5}}, v.T().Value())
	require.Equal(t, [][]float32{{2, 1, 0}, {5, 4, 3}}, v.Reverse(1).Value())
	require.Equal(t, [][]float32{{0, 2}, {3, 5}}, v.Slice(1, 0, 3, 2).Value())
	require.Equal(t, []float32{3, 4, 5}, v.AtIndex(1, 0).Value())
	require.Equal(t, [][][]float32{{{0, 1, 2}}, {{3, 4, 5}}}, v.InsertAxis(1).Value())
	require.Equal(t, []float32{0, 1, 2, 3, 4, 5}, v.Reshape(6).Value())
	require.Equal(t, []float32{1, 4}, v.T().AtIndex(1, 0).Value())

	// Views share the buffer.
	v.T().Set(-1, 2, 1)
	require.Equal(t, float32(-1), v.At(1, 2))

	clone := v.T().Clone()
	require.True(t, clone.Layout.IsRowMajor())
	clone.Set(100, 0, 0)
	require.Equal(t, float32(0), v.At(0, 0))
}

func TestZerosAndValidate(t *testing.T) {
	z := Zeros[uint16](3, 2)
	require.Equal(t, []uint16{0, 0, 0, 0, 0, 0}, z.Flatten())
	require.NoError(t, z.Validate())

	outside := z.With(shapes.Make(4, shapes.Dimension{Length: 3, Stride: 1}))
	err := outside.Validate()
	require.ErrorIs(t, err, ErrBufferAccess)
	require.ErrorIs(t, View[uint16]{Layout: shapes.RowMajor(1)}.Validate(), ErrBufferAccess)
	require.Panics(t, func() { outside.Flatten() })
}

func TestBufferBorrows(t *testing.T) {
	b := NewBuffer[int64](4)
	require.Equal(t, 4, b.Len())

	_, release1, err := b.Borrow()
	require.NoError(t, err)
	_, release2, err := b.Borrow()
	require.NoError(t, err)
	require.True(t, b.IsBorrowed())

	_, _, err = b.BorrowMut()
	require.ErrorIs(t, err, ErrBufferAccess)

	release1()
	release1() // Idempotent.
	_, _, err = b.BorrowMut()
	require.ErrorIs(t, err, ErrBufferAccess)
	release2()
	require.False(t, b.IsBorrowed())

	flat, releaseMut, err := b.BorrowMut()
	require.NoError(t, err)
	flat[0] = 7
	_, _, err = b.Borrow()
	require.ErrorIs(t, err, ErrBufferAccess)
	_, _, err = b.BorrowMut()
	require.ErrorIs(t, err, ErrBufferAccess)
	releaseMut()
	releaseMut()

	flat, release, err := b.Borrow()
	require.NoError(t, err)
	require.Equal(t, int64(7), flat[0])
	release()
}

func TestBufferConcurrentSharedBorrows(t *testing.T) {
	b := BufferFor([]float64{1, 2, 3})
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				flat, release, err := b.Borrow()
				assert.NoError(t, err)
				if err == nil {
					assert.Equal(t, 2.0, flat[1])
					release()
				}
			}
		}()
	}
	wg.Wait()
	require.False(t, b.IsBorrowed())
}

func TestSummary(t *testing.T) {
	v := FromValue[int32]([][]int32{{1, 2, 3}, {4, 5, 6}})
	require.Equal(t, "[2][3]int32{{1, 2, 3},\n {4, 5, 6}}", v.String())

	long := FromFlat([]int8{0, 1, 2, 3, 4, 5, 6, 7}, 8)
	require.Equal(t, "[8]int8{0, 1, 2, ..., 5, 6, 7}", long.String())

	half := FromFlat([]float16.Float16{float16.Fromfloat32(1.5)}, 1)
	require.Equal(t, "[1]float16.Float16{1.5}", half.String())

	require.Equal(t, "[2][0]float32{}", Zeros[float32](2, 0).String())

	_, release, err := v.PinMut()
	require.NoError(t, err)
	require.Contains(t, v.String(), "<unavailable>")
	release()
}
