// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"sync/atomic"

	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/pkg/errors"
)

// ErrBufferAccess is returned (wrapped) when a buffer can't be borrowed, either because of a conflicting
// borrow or because the view reaches outside the buffer.
var ErrBufferAccess = errors.New("buffer access failure")

// exclusiveBorrow is the value of Buffer.borrows while an exclusive borrow is held.
const exclusiveBorrow = -1

// Buffer holds the flat storage shared by views.
//
// Access to the storage is scoped: Borrow (shared, read-only) and BorrowMut (exclusive) return the flat
// slice and a release function. Borrows never wait: a conflicting borrow fails immediately with an error
// wrapping ErrBufferAccess.
type Buffer[T dtypes.Supported] struct {
	flat []T

	// borrows counts the shared borrows, or is exclusiveBorrow.
	borrows atomic.Int32
}

// NewBuffer allocates a zero-initialized buffer with size elements.
func NewBuffer[T dtypes.Supported](size int) *Buffer[T] {
	return &Buffer[T]{flat: make([]T, size)}
}

// BufferFor wraps the given flat slice, without copying it. The caller should not use flat directly anymore.
func BufferFor[T dtypes.Supported](flat []T) *Buffer[T] {
	return &Buffer[T]{flat: flat}
}

// Len returns the number of elements in the buffer.
func (b *Buffer[T]) Len() int {
	return len(b.flat)
}

// DType of the elements of the buffer.
func (b *Buffer[T]) DType() dtypes.DType {
	return dtypes.FromGenericsType[T]()
}

// Borrow takes a shared borrow on the buffer and returns its flat storage, which must not be modified.
//
// The release function must be called (usually deferred) when done. It is safe to call it more than once.
func (b *Buffer[T]) Borrow() (flat []T, release func(), err error) {
	for {
		current := b.borrows.Load()
		if current == exclusiveBorrow {
			return nil, nil, errors.Wrapf(ErrBufferAccess, "cannot borrow %s buffer for reading: it is exclusively borrowed",
				b.DType())
		}
		if b.borrows.CompareAndSwap(current, current+1) {
			break
		}
	}
	var released atomic.Bool
	release = func() {
		if released.CompareAndSwap(false, true) {
			b.borrows.Add(-1)
		}
	}
	return b.flat, release, nil
}

// BorrowMut takes an exclusive borrow on the buffer and returns its flat storage, which can be modified
// until release is called.
//
// The release function must be called (usually deferred) when done. It is safe to call it more than once.
func (b *Buffer[T]) BorrowMut() (flat []T, release func(), err error) {
	if !b.borrows.CompareAndSwap(0, exclusiveBorrow) {
		return nil, nil, errors.Wrapf(ErrBufferAccess, "cannot borrow %s buffer for writing: it is already borrowed (state %d)",
			b.DType(), b.borrows.Load())
	}
	var released atomic.Bool
	release = func() {
		if released.CompareAndSwap(false, true) {
			b.borrows.Store(0)
		}
	}
	return b.flat, release, nil
}

// IsBorrowed returns whether there is any borrow currently held on the buffer.
func (b *Buffer[T]) IsBorrowed() bool {
	return b.borrows.Load() != 0
}
