// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package numpy reads and writes views in Python's NumPy .npy file format.
//
// Arrays stored in Fortran (column-major) order are read without reordering: the returned view has a
// column-major layout. Likewise, row-major and column-major contiguous views are written as they are in memory;
// any other layout is written in row-major order.
package numpy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/shapes"
	"github.com/gomlx/ndreduce/pkg/core/tensors"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Magic string that starts every .npy file.
const Magic = "\x93NUMPY"

// Header of a .npy file: it describes the array that follows.
type Header struct {
	DType        dtypes.DType
	Lengths      []int
	FortranOrder bool
	ByteOrder    binary.ByteOrder
}

// Layout of the array data that follows the header, in a buffer of its own.
func (h Header) Layout() shapes.Layout {
	if !h.FortranOrder || len(h.Lengths) <= 1 {
		return shapes.RowMajor(h.Lengths...)
	}
	dims := make([]shapes.Dimension, len(h.Lengths))
	stride := 1
	for axis, length := range h.Lengths {
		dims[axis] = shapes.Dimension{Length: length, Stride: stride}
		stride *= length
	}
	return shapes.Make(0, dims...)
}

var (
	reDescr   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	reFortran = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	reShape   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// ReadHeader reads the preamble and the header of a .npy file, leaving r at the start of the array data.
func ReadHeader(r io.Reader) (header Header, err error) {
	preamble := make([]byte, len(Magic)+2)
	if _, err = io.ReadFull(r, preamble); err != nil {
		return header, errors.Wrapf(err, "failed to read .npy magic string and version")
	}
	if string(preamble[:len(Magic)]) != Magic {
		return header, errors.Errorf("invalid .npy file format: magic string mismatch")
	}
	major, minor := preamble[len(Magic)], preamble[len(Magic)+1]
	var headerLen int
	switch major {
	case 1:
		lenBytes := make([]byte, 2)
		if _, err = io.ReadFull(r, lenBytes); err != nil {
			return header, errors.Wrapf(err, "failed to read .npy header length (v1)")
		}
		headerLen = int(binary.LittleEndian.Uint16(lenBytes))
	case 2, 3:
		lenBytes := make([]byte, 4)
		if _, err = io.ReadFull(r, lenBytes); err != nil {
			return header, errors.Wrapf(err, "failed to read .npy header length (v%d)", major)
		}
		headerLen = int(binary.LittleEndian.Uint32(lenBytes))
	default:
		return header, errors.Errorf("unsupported .npy version %d.%d", major, minor)
	}
	headerBytes := make([]byte, headerLen)
	if _, err = io.ReadFull(r, headerBytes); err != nil {
		return header, errors.Wrapf(err, "failed to read .npy header")
	}
	header, err = parseHeader(string(headerBytes))
	if err != nil {
		return header, errors.WithMessage(err, "failed to parse .npy header")
	}
	klog.V(2).Infof("numpy: read header v%d.%d: %s%v, fortran_order=%v", major, minor, header.DType, header.Lengths, header.FortranOrder)
	return header, nil
}

// parseHeader extracts the dtype, shape and fortran_order from the header dictionary, e.g.:
// "{'descr': '<f4', 'fortran_order': False, 'shape': (2, 3), }".
func parseHeader(text string) (header Header, err error) {
	mDescr := reDescr.FindStringSubmatch(text)
	if len(mDescr) < 2 {
		return header, errors.Errorf("could not find 'descr' in header %q", text)
	}
	header.DType, header.ByteOrder, err = fromDescr(mDescr[1])
	if err != nil {
		return header, err
	}

	mFortran := reFortran.FindStringSubmatch(text)
	if len(mFortran) < 2 {
		return header, errors.Errorf("could not find 'fortran_order' in header %q", text)
	}
	header.FortranOrder = mFortran[1] == "True"

	mShape := reShape.FindStringSubmatch(text)
	if len(mShape) < 2 {
		return header, errors.Errorf("could not find 'shape' in header %q", text)
	}
	header.Lengths = []int{}
	for _, part := range strings.Split(mShape[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			// Trailing comma of "(10,)", or the scalar "()".
			continue
		}
		length, err := strconv.Atoi(part)
		if err != nil {
			return header, errors.Wrapf(err, "invalid shape value %q in header", part)
		}
		if length < 0 {
			return header, errors.Errorf("negative length %d in header %q", length, text)
		}
		header.Lengths = append(header.Lengths, length)
	}
	return header, nil
}

// fromDescr converts a NumPy type description (e.g. "<f4") to a DType and byte order.
func fromDescr(descr string) (dtypes.DType, binary.ByteOrder, error) {
	var byteOrder binary.ByteOrder = binary.LittleEndian
	kind := descr
	if len(descr) > 0 {
		switch descr[0] {
		case '>':
			byteOrder = binary.BigEndian
			kind = descr[1:]
		case '<', '|', '=':
			kind = descr[1:]
		}
	}
	dtype, found := descrToDType[kind]
	if !found {
		return dtypes.InvalidDType, nil, errors.Errorf("unsupported NumPy dtype %q", descr)
	}
	return dtype, byteOrder, nil
}

var descrToDType = map[string]dtypes.DType{
	"?":  dtypes.Bool,
	"b1": dtypes.Bool,
	"i1": dtypes.Int8,
	"u1": dtypes.Uint8,
	"i2": dtypes.Int16,
	"u2": dtypes.Uint16,
	"i4": dtypes.Int32,
	"u4": dtypes.Uint32,
	"i8": dtypes.Int64,
	"u8": dtypes.Uint64,
	"f2": dtypes.Float16,
	"f4": dtypes.Float32,
	"f8": dtypes.Float64,
}

// toDescr converts a DType to the little-endian NumPy type description.
func toDescr(dtype dtypes.DType) (string, error) {
	switch dtype {
	case dtypes.Bool:
		return "|b1", nil
	case dtypes.Int8:
		return "|i1", nil
	case dtypes.Uint8:
		return "|u1", nil
	case dtypes.Int16:
		return "<i2", nil
	case dtypes.Uint16:
		return "<u2", nil
	case dtypes.Int32:
		return "<i4", nil
	case dtypes.Uint32:
		return "<u4", nil
	case dtypes.Int64:
		return "<i8", nil
	case dtypes.Uint64:
		return "<u8", nil
	case dtypes.Float16:
		return "<f2", nil
	case dtypes.Float32:
		return "<f4", nil
	case dtypes.Float64:
		return "<f8", nil
	default:
		// NumPy has no standard bfloat16 type.
		return "", errors.Errorf("dtype %s has no .npy equivalent", dtype)
	}
}

// checkFixedSize returns an error for Go's int, whose size depends on the platform and can't be read or written.
func checkFixedSize[T dtypes.Supported]() error {
	var zero T
	if _, isInt := any(zero).(int); isInt {
		return errors.Errorf("type int has no fixed size, use int32 or int64 for .npy files")
	}
	return nil
}

// ReadData reads the array data described by header from r into a new buffer.
// The header DType must match T.
func ReadData[T dtypes.Supported](r io.Reader, header Header) (tensors.View[T], error) {
	if err := checkFixedSize[T](); err != nil {
		return tensors.View[T]{}, err
	}
	if dtype := dtypes.FromGenericsType[T](); dtype != header.DType {
		return tensors.View[T]{}, errors.Errorf(".npy array has dtype %s, can't be read as %s", header.DType, dtype)
	}
	byteOrder := header.ByteOrder
	if byteOrder == nil {
		byteOrder = binary.LittleEndian
	}
	layout := header.Layout()
	flat := make([]T, layout.Size())
	if len(flat) > 0 {
		if err := binary.Read(r, byteOrder, flat); err != nil {
			return tensors.View[T]{}, errors.Wrapf(err, "failed to read .npy data (%d elements of %s)", len(flat), header.DType)
		}
	}
	return tensors.New(layout, tensors.BufferFor(flat)), nil
}

// Read reads a .npy file from r as a view of T.
func Read[T dtypes.Supported](r io.Reader) (tensors.View[T], error) {
	header, err := ReadHeader(r)
	if err != nil {
		return tensors.View[T]{}, err
	}
	return ReadData[T](r, header)
}

// ReadHeaderFile reads only the header of the .npy file in filePath.
func ReadHeaderFile(filePath string) (Header, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Header{}, errors.Wrapf(err, "failed to open .npy file %q", filePath)
	}
	defer func() { _ = file.Close() }()
	return ReadHeader(file)
}

// ReadFile reads the .npy file in filePath as a view of T.
func ReadFile[T dtypes.Supported](filePath string) (tensors.View[T], error) {
	file, err := os.Open(filePath)
	if err != nil {
		return tensors.View[T]{}, errors.Wrapf(err, "failed to open .npy file %q", filePath)
	}
	defer func() { _ = file.Close() }()
	view, err := Read[T](file)
	if err != nil {
		return view, errors.WithMessagef(err, "reading %q", filePath)
	}
	return view, nil
}

// columnMajorAsRowMajor returns the layout with the order of its axes reversed.
// A contiguous column-major layout becomes a contiguous row-major one.
func columnMajorAsRowMajor(layout shapes.Layout) shapes.Layout {
	permutation := make([]int, layout.Rank())
	for axis := range permutation {
		permutation[axis] = layout.Rank() - 1 - axis
	}
	return layout.Transpose(permutation...)
}

// Write writes the view to w in .npy format (version 1.0).
func Write[T dtypes.Supported](w io.Writer, view tensors.View[T]) error {
	if err := checkFixedSize[T](); err != nil {
		return err
	}
	descr, err := toDescr(view.DType())
	if err != nil {
		return err
	}
	flat, release, err := view.Pin()
	if err != nil {
		return err
	}
	defer release()

	layout := view.Layout
	var data []T
	var fortranOrder bool
	switch {
	case layout.IsZeroSize():
	case layout.IsRowMajor():
		data = flat[layout.Offset : layout.Offset+layout.Size()]
	case columnMajorAsRowMajor(layout).IsRowMajor():
		data = flat[layout.Offset : layout.Offset+layout.Size()]
		fortranOrder = true
	default:
		data = make([]T, 0, layout.Size())
		for flatIdx := range layout.Iter() {
			data = append(data, flat[flatIdx])
		}
	}

	var shapeTuple string
	lengths := layout.Lengths()
	switch len(lengths) {
	case 0:
		shapeTuple = "()"
	case 1:
		shapeTuple = fmt.Sprintf("(%d,)", lengths[0])
	default:
		parts := make([]string, len(lengths))
		for axis, length := range lengths {
			parts[axis] = strconv.Itoa(length)
		}
		shapeTuple = "(" + strings.Join(parts, ", ") + ")"
	}
	pythonBool := map[bool]string{false: "False", true: "True"}
	var header bytes.Buffer
	header.WriteString(fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }",
		descr, pythonBool[fortranOrder], shapeTuple))
	// The preamble (magic, version and header length: 10 bytes) plus the header, terminated by a new line,
	// is padded with spaces to a multiple of 64 bytes.
	for (len(Magic)+4+header.Len()+1)%64 != 0 {
		header.WriteByte(' ')
	}
	header.WriteByte('\n')

	preamble := slices.Concat([]byte(Magic), []byte{1, 0}, binary.LittleEndian.AppendUint16(nil, uint16(header.Len())))
	if _, err := w.Write(preamble); err != nil {
		return errors.Wrapf(err, "failed to write .npy preamble")
	}
	if _, err := w.Write(header.Bytes()); err != nil {
		return errors.Wrapf(err, "failed to write .npy header")
	}
	if len(data) > 0 {
		if err := binary.Write(w, binary.LittleEndian, data); err != nil {
			return errors.Wrapf(err, "failed to write .npy data")
		}
	}
	return nil
}

// WriteFile writes the view to filePath in .npy format.
func WriteFile[T dtypes.Supported](filePath string, view tensors.View[T]) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create .npy file %q", filePath)
	}
	if err = Write(file, view); err != nil {
		_ = file.Close()
		return errors.WithMessagef(err, "writing %q", filePath)
	}
	return errors.Wrapf(file.Close(), "failed to close %q", filePath)
}
