// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package numpy

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/dtypes/bfloat16"
	"github.com/gomlx/ndreduce/pkg/core/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// rawNpy builds a version 1.0 .npy file with the given header dictionary and data.
func rawNpy(t *testing.T, dict string, order binary.ByteOrder, data any) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	buf.Write([]byte{1, 0})
	dict += "\n"
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(dict))))
	buf.WriteString(dict)
	require.NoError(t, binary.Write(&buf, order, data))
	return &buf
}

func TestWriteRead(t *testing.T) {
	src := tensors.FromValue[int32]([][]int32{{1, 2, 3}, {4, 5, 6}})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src))
	require.True(t, strings.HasPrefix(buf.String(), Magic))
	headerLen := int(binary.LittleEndian.Uint16(buf.Bytes()[8:10]))
	assert.Equal(t, 0, (10+headerLen)%64, "header must be padded to 64 bytes")
	assert.Contains(t, buf.String(), "'descr': '<i4', 'fortran_order': False, 'shape': (2, 3), }")

	got, err := Read[int32](&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Value(), got.Value())
	assert.True(t, got.Layout.IsRowMajor())

	// Contiguous rows of a larger buffer (non-zero offset).
	storage := tensors.FromValue[float32]([][]float32{{0, 0}, {1, 2}, {3, 4}, {0, 0}})
	buf.Reset()
	require.NoError(t, Write(&buf, storage.Slice(0, 1, 3, 1)))
	gotFloat, err := Read[float32](&buf)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, gotFloat.Value())
}

func TestFortranOrder(t *testing.T) {
	src := tensors.FromValue[float64]([][]float64{{1, 2, 3}, {4, 5, 6}})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src.T()))
	assert.Contains(t, buf.String(), "'fortran_order': True, 'shape': (3, 2)")

	got, err := Read[float64](&buf)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 4}, {2, 5}, {3, 6}}, got.Value())
	assert.Equal(t, []int{1, 3}, got.Layout.Strides())
}

func TestNonContiguous(t *testing.T) {
	src := tensors.FromValue[int16]([][]int16{{1, 2, 3}, {4, 5, 6}}).Reverse(1)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, src))
	assert.Contains(t, buf.String(), "'fortran_order': False")
	got, err := Read[int16](&buf)
	require.NoError(t, err)
	assert.Equal(t, [][]int16{{3, 2, 1}, {6, 5, 4}}, got.Value())
}

func TestOtherShapesAndTypes(t *testing.T) {
	half := tensors.FromValue[float16.Float16](float16.Fromfloat32(1.5))
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, half))
	assert.Contains(t, buf.String(), "'descr': '<f2'")
	assert.Contains(t, buf.String(), "'shape': ()")
	gotHalf, err := Read[float16.Float16](&buf)
	require.NoError(t, err)
	assert.Equal(t, float16.Fromfloat32(1.5), gotHalf.Value())

	flags := tensors.FromValue[bool]([]bool{true, false, true})
	buf.Reset()
	require.NoError(t, Write(&buf, flags))
	assert.Contains(t, buf.String(), "'shape': (3,)")
	gotFlags, err := Read[bool](&buf)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, gotFlags.Value())

	buf.Reset()
	require.NoError(t, Write(&buf, tensors.Zeros[uint8](2, 0)))
	gotEmpty, err := Read[uint8](&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, gotEmpty.Lengths())
}

func TestBigEndian(t *testing.T) {
	buf := rawNpy(t, "{'descr': '>i4', 'fortran_order': False, 'shape': (3,), }", binary.BigEndian, []int32{1, -2, 3})
	header, err := ReadHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, dtypes.Int32, header.DType)
	assert.Equal(t, []int{3}, header.Lengths)
	assert.Equal(t, binary.BigEndian, header.ByteOrder)
	got, err := ReadData[int32](buf, header)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, -2, 3}, got.Value())
}

func TestFiles(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "x.npy")
	src := tensors.FromValue[uint64]([][]uint64{{1}, {2}})
	require.NoError(t, WriteFile(filePath, src))
	header, err := ReadHeaderFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, Header{DType: dtypes.Uint64, Lengths: []int{2, 1}, ByteOrder: binary.LittleEndian}, header)
	got, err := ReadFile[uint64](filePath)
	require.NoError(t, err)
	assert.Equal(t, src.Value(), got.Value())

	_, err = ReadFile[uint64](filepath.Join(t.TempDir(), "missing.npy"))
	require.Error(t, err)
}

func TestErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tensors.FromValue[int32]([]int32{1})))
	_, err := Read[float32](&buf)
	require.ErrorContains(t, err, "can't be read as")

	_, err = Read[int32](strings.NewReader("NOTNUMPY.........."))
	require.ErrorContains(t, err, "magic string")

	err = Write(&buf, tensors.Zeros[bfloat16.BFloat16](2))
	require.ErrorContains(t, err, "no .npy equivalent")

	err = Write(&buf, tensors.Zeros[int](2))
	require.ErrorContains(t, err, "no fixed size")

	_, err = ReadHeader(rawNpy(t, "{'descr': '<c8', 'fortran_order': False, 'shape': (1,), }", binary.LittleEndian, []float32{0, 0}))
	require.ErrorContains(t, err, "unsupported NumPy dtype")
	_, err = ReadHeader(rawNpy(t, "{'descr': '<f4', 'shape': (1,), }", binary.LittleEndian, []float32{0}))
	require.ErrorContains(t, err, "fortran_order")
}
