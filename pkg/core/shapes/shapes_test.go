// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRowMajor(t *testing.T) {
	l := RowMajor(2, 3, 4)
	require.Equal(t, 3, l.Rank())
	require.Equal(t, 24, l.Size())
	require.Equal(t, []int{2, 3, 4}, l.Lengths())
	require.Equal(t, []int{12, 4, 1}, l.Strides())
	require.Equal(t, 0, l.Offset)
	require.True(t, l.IsRowMajor())
	require.Equal(t, "(2:12, 3:4, 4:1)+0", l.String())

	l = RowMajor(3, 1, 2)
	require.Equal(t, []int{2, 2, 1}, l.Strides())

	l = RowMajor(5)
	require.Equal(t, []int{1}, l.Strides())

	require.True(t, RowMajor(2, 0, 3).IsZeroSize())
	require.Panics(t, func() { RowMajor(2, -1) })
}

func TestLayout_Compare(t *testing.T) {
	a := RowMajor(2, 3)
	b := a.T()
	require.False(t, a.Equal(b))
	require.True(t, a.Equal(a.Clone()))
	require.False(t, a.SameLengths(b))
	require.True(t, a.SameLengths(b.T()))
	require.True(t, a.Equal(b.T()))

	c := Make(5, Dimension{Length: 2, Stride: 7}, Dimension{Length: 3, Stride: 1})
	require.True(t, a.SameLengths(c))
	require.False(t, a.Equal(c))
	require.Panics(t, func() { Make(0, Dimension{Length: -1}) })
}

func TestLayout_FlatIndex(t *testing.T) {
	l := RowMajor(2, 3)
	require.Equal(t, 5, l.FlatIndex(1, 2))
	require.Equal(t, 5, l.T().FlatIndex(2, 1))
	require.Panics(t, func() { l.FlatIndex(2, 0) })
	require.Panics(t, func() { l.FlatIndex(0) })
}

func TestLayout_Span(t *testing.T) {
	l := RowMajor(2, 3)
	lo, hi, ok := l.Span()
	require.True(t, ok)
	require.Equal(t, 0, lo)
	require.Equal(t, 5, hi)
	require.NoError(t, l.CheckBounds(6))
	err := l.CheckBounds(5)
	require.ErrorIs(t, err, ErrOutOfBounds)

	// Reversed axis: offset moves to the end, span stays the same.
	r := l.Reverse(1)
	require.Equal(t, 2, r.Offset)
	require.Equal(t, -1, r.Dimensions[1].Stride)
	lo, hi, ok = r.Span()
	require.True(t, ok)
	require.Equal(t, 0, lo)
	require.Equal(t, 5, hi)

	// A negative stride reaching below 0.
	bad := Make(1, Dimension{Length: 3, Stride: -1})
	require.ErrorIs(t, bad.CheckBounds(10), ErrOutOfBounds)

	// Zero size layouts reach nothing.
	_, _, ok = RowMajor(0, 3).Span()
	require.False(t, ok)
	require.NoError(t, RowMajor(0, 3).CheckBounds(0))
}

func TestLayout_Views(t *testing.T) {
	l := RowMajor(2, 3, 4)

	at := l.AtIndex(1, 1)
	require.Equal(t, []int{2, 4}, at.Lengths())
	require.Equal(t, []int{12, 1}, at.Strides())
	require.Equal(t, 4, at.Offset)

	inserted := at.InsertAxis(1)
	require.Equal(t, []int{2, 1, 4}, inserted.Lengths())
	require.Equal(t, 0, inserted.Dimensions[1].Stride)
	require.True(t, at.Equal(inserted.DropAxis(1)))
	require.Equal(t, []int{2, 4, 1}, at.InsertAxis(2).Lengths())
	require.Panics(t, func() { at.InsertAxis(3) })
	require.Panics(t, func() { l.DropAxis(0) })

	sliced := l.Slice(2, 1, 4, 2)
	require.Equal(t, []int{2, 3, 2}, sliced.Lengths())
	require.Equal(t, []int{12, 4, 2}, sliced.Strides())
	require.Equal(t, 1, sliced.Offset)
	require.Panics(t, func() { l.Slice(2, 0, 5, 1) })
	require.Panics(t, func() { l.Slice(2, 0, 4, 0) })

	transposed := l.Transpose(2, 0, 1)
	require.Equal(t, []int{4, 2, 3}, transposed.Lengths())
	require.Equal(t, []int{1, 12, 4}, transposed.Strides())
	require.False(t, transposed.IsRowMajor())
	require.Panics(t, func() { l.Transpose(0, 0, 1) })
	require.Panics(t, func() { l.Transpose(0, 1) })

	reshaped := l.Reshape(6, 4)
	require.Equal(t, []int{4, 1}, reshaped.Strides())
	require.Panics(t, func() { transposed.Reshape(24) })
	require.Panics(t, func() { l.Reshape(5) })
}

func TestLayout_InvalidAxisErrors(t *testing.T) {
	l := RowMajor(2, 3)
	err := catchError(func() { l.AtIndex(0, 2) })
	require.ErrorIs(t, err, ErrInvalidAxis)
	err = catchError(func() { l.Reverse(-1) })
	require.ErrorIs(t, err, ErrInvalidAxis)
}

func TestNormalizeAxis(t *testing.T) {
	for _, tc := range []struct {
		axis, rank, want int
	}{
		{0, 1, 0},
		{-1, 1, 0},
		{-1, 3, 2},
		{-3, 3, 0},
		{2, 3, 2},
	} {
		got, err := NormalizeAxis(tc.axis, tc.rank)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "NormalizeAxis(%d, %d)", tc.axis, tc.rank)
	}
	for _, tc := range []struct{ axis, rank int }{{3, 3}, {-4, 3}, {0, 0}} {
		_, err := NormalizeAxis(tc.axis, tc.rank)
		require.ErrorIs(t, err, ErrInvalidAxis)
		require.Contains(t, err.Error(), "rank")
	}
}

func catchError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if err, ok = r.(error); !ok {
				err = errors.Errorf("%v", r)
			}
		}
	}()
	fn()
	return nil
}
