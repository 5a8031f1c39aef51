// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implements strided views over flat buffers.
//
// A View is a shapes.Layout plus a pointer to a Buffer. Views don't own the buffer: many views (transposed,
// sliced, reversed, ...) can share the same Buffer, which is kept alive as long as any of them is referenced.
//
// Views are values, and all the transformations (Transpose, AtIndex, ...) return a new View over the same Buffer.
package tensors

import (
	"reflect"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/shapes"
	"github.com/pkg/errors"
)

// View of a Buffer with a strided layout.
type View[T dtypes.Supported] struct {
	Layout shapes.Layout
	Buffer *Buffer[T]
}

// New returns a view of the buffer with the given layout. It doesn't check that the layout fits the buffer,
// see View.Validate.
func New[T dtypes.Supported](layout shapes.Layout, buffer *Buffer[T]) View[T] {
	return View[T]{Layout: layout, Buffer: buffer}
}

// Zeros allocates a new buffer and returns a row-major view over it with the given lengths.
func Zeros[T dtypes.Supported](lengths ...int) View[T] {
	layout := shapes.RowMajor(lengths...)
	return View[T]{Layout: layout, Buffer: NewBuffer[T](layout.Size())}
}

// FromFlat returns a row-major view with the given lengths over a copy of flat.
// It panics if the number of elements doesn't match the lengths.
func FromFlat[T dtypes.Supported](flat []T, lengths ...int) View[T] {
	layout := shapes.RowMajor(lengths...)
	if layout.Size() != len(flat) {
		exceptions.Panicf("tensors.FromFlat(lengths=%v): flat has %d elements, lengths require %d",
			lengths, len(flat), layout.Size())
	}
	return View[T]{Layout: layout, Buffer: BufferFor(append([]T(nil), flat...))}
}

// FromValue returns a row-major view over a copy of the given multi-dimensional slice (e.g.: [][]float32).
// A scalar value of type T returns a rank-0 view.
//
// It panics if the slices are irregular, empty or if their base type is not T.
func FromValue[T dtypes.Supported](value any) View[T] {
	var lengths []int
	var flat []T
	var walk func(v reflect.Value, depth int)
	walk = func(v reflect.Value, depth int) {
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			element, ok := v.Interface().(T)
			if !ok {
				exceptions.Panicf("tensors.FromValue[%s]: element of type %s not supported", dtypes.FromGenericsType[T](), v.Type())
			}
			if depth != len(lengths) {
				exceptions.Panicf("tensors.FromValue[%s]: irregular nesting of slices in %T", dtypes.FromGenericsType[T](), value)
			}
			flat = append(flat, element)
			return
		}
		if v.Len() == 0 {
			exceptions.Panicf("tensors.FromValue: empty slices can't be converted, use Zeros instead")
		}
		if depth == len(lengths) {
			lengths = append(lengths, v.Len())
		} else if depth > len(lengths) || lengths[depth] != v.Len() {
			exceptions.Panicf("tensors.FromValue: irregular slice lengths at depth %d in %T", depth, value)
		}
		for i := range v.Len() {
			walk(v.Index(i), depth+1)
		}
	}
	walk(reflect.ValueOf(value), 0)
	return FromFlat(flat, lengths...)
}

// With returns a view of the same buffer with a different layout.
func (v View[T]) With(layout shapes.Layout) View[T] {
	return View[T]{Layout: layout, Buffer: v.Buffer}
}

// DType of the elements of the view.
func (v View[T]) DType() dtypes.DType {
	return dtypes.FromGenericsType[T]()
}

// Rank of the view.
func (v View[T]) Rank() int { return v.Layout.Rank() }

// Lengths of each axis of the view.
func (v View[T]) Lengths() []int { return v.Layout.Lengths() }

// Size is the number of elements addressed by the view.
func (v View[T]) Size() int { return v.Layout.Size() }

// Validate checks that the view has a buffer and that its layout fits in it.
// Errors wrap ErrBufferAccess.
func (v View[T]) Validate() error {
	if v.Buffer == nil {
		return errors.Wrapf(ErrBufferAccess, "view %s has no buffer", v.Layout)
	}
	if err := v.Layout.CheckBounds(v.Buffer.Len()); err != nil {
		return errors.Wrapf(ErrBufferAccess, "invalid %s view: %v", v.DType(), err)
	}
	return nil
}

// Pin validates the view and takes a shared borrow on its buffer, see Buffer.Borrow.
// The returned flat slice is the whole buffer: index it with the view's layout.
func (v View[T]) Pin() (flat []T, release func(), err error) {
	if err = v.Validate(); err != nil {
		return
	}
	return v.Buffer.Borrow()
}

// PinMut validates the view and takes an exclusive borrow on its buffer, see Buffer.BorrowMut.
// The returned flat slice is the whole buffer: index it with the view's layout.
func (v View[T]) PinMut() (flat []T, release func(), err error) {
	if err = v.Validate(); err != nil {
		return
	}
	return v.Buffer.BorrowMut()
}

// At returns the element at the given indices. It panics if the buffer can't be borrowed.
func (v View[T]) At(indices ...int) T {
	flat, release, err := v.Pin()
	if err != nil {
		panic(err)
	}
	defer release()
	return flat[v.Layout.FlatIndex(indices...)]
}

// Set the element at the given indices. It panics if the buffer can't be borrowed.
func (v View[T]) Set(value T, indices ...int) {
	flat, release, err := v.PinMut()
	if err != nil {
		panic(err)
	}
	defer release()
	flat[v.Layout.FlatIndex(indices...)] = value
}

// Flatten returns a copy of the elements of the view, in row-major logical order.
// It panics if the buffer can't be borrowed.
func (v View[T]) Flatten() []T {
	flat, release, err := v.Pin()
	if err != nil {
		panic(err)
	}
	defer release()
	values := make([]T, 0, v.Size())
	for flatIdx := range v.Layout.Iter() {
		values = append(values, flat[flatIdx])
	}
	return values
}

// Value returns a copy of the view's elements as a multi-dimensional slice (e.g.: [][]float32 for a rank-2
// view of float32), or a T for a rank-0 view.
func (v View[T]) Value() any {
	values := v.Flatten()
	lengths := v.Lengths()
	if len(lengths) == 0 {
		return values[0]
	}
	sliceTypes := make([]reflect.Type, len(lengths)+1)
	sliceTypes[len(lengths)] = reflect.TypeFor[T]()
	for axis := len(lengths) - 1; axis >= 0; axis-- {
		sliceTypes[axis] = reflect.SliceOf(sliceTypes[axis+1])
	}
	var pos int
	var build func(axis int) reflect.Value
	build = func(axis int) reflect.Value {
		s := reflect.MakeSlice(sliceTypes[axis], lengths[axis], lengths[axis])
		for i := range lengths[axis] {
			if axis == len(lengths)-1 {
				s.Index(i).Set(reflect.ValueOf(values[pos]))
				pos++
			} else {
				s.Index(i).Set(build(axis + 1))
			}
		}
		return s
	}
	return build(0).Interface()
}

// Clone returns a row-major copy of the view on a new buffer.
func (v View[T]) Clone() View[T] {
	return FromFlat(v.Flatten(), v.Lengths()...)
}

// Transpose permutes the axes of the view, see shapes.Layout.Transpose.
func (v View[T]) Transpose(permutation ...int) View[T] { return v.With(v.Layout.Transpose(permutation...)) }

// T transposes a rank-2 view.
func (v View[T]) T() View[T] { return v.With(v.Layout.T()) }

// Reverse the order of the elements along axis.
func (v View[T]) Reverse(axis int) View[T] { return v.With(v.Layout.Reverse(axis)) }

// Slice selects elements start, start+step, ..., up to end (exclusive) along axis.
func (v View[T]) Slice(axis, start, end, step int) View[T] {
	return v.With(v.Layout.Slice(axis, start, end, step))
}

// AtIndex returns the rank-reduced view at index along axis.
func (v View[T]) AtIndex(index, axis int) View[T] { return v.With(v.Layout.AtIndex(index, axis)) }

// InsertAxis inserts an axis of length 1 at position axis.
func (v View[T]) InsertAxis(axis int) View[T] { return v.With(v.Layout.InsertAxis(axis)) }

// DropAxis removes an axis of length 1.
func (v View[T]) DropAxis(axis int) View[T] { return v.With(v.Layout.DropAxis(axis)) }

// Reshape a row-major contiguous view.
func (v View[T]) Reshape(lengths ...int) View[T] { return v.With(v.Layout.Reshape(lengths...)) }
