// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dtypes names the element types handled by the ndreduce kernels, and defines the constraint
// interfaces used as generics traits by the operators and the reducer.
//
// Complex numbers and sub-byte types are not supported.
package dtypes

import (
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/ndreduce/pkg/core/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// panicf panics with the formatted description.
//
// It is only used for "bugs in the code": invalid parameters given by the caller.
func panicf(format string, args ...any) {
	panic(errors.Errorf(format, args...))
}

func init() {
	if strconv.IntSize != 32 && strconv.IntSize != 64 {
		panicf("cannot use int of %d bits with ndreduce -- only platforms with int32 or int64 are supported", strconv.IntSize)
	}

	keys := slices.Collect(maps.Keys(MapOfNames))
	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if _, found := MapOfNames[lowerKey]; found {
			continue
		}
		MapOfNames[lowerKey] = MapOfNames[key]
	}
}

// FromName returns the DType for the given name or alias (case-insensitive), or InvalidDType.
func FromName(name string) DType {
	if dtype, found := MapOfNames[name]; found {
		return dtype
	}
	return MapOfNames[strings.ToLower(name)]
}

// FromGenericsType returns the DType enum for the given type that this package knows about.
func FromGenericsType[T Supported]() DType {
	var t T
	switch (any(t)).(type) {
	case float64:
		return Float64
	case float32:
		return Float32
	case float16.Float16:
		return Float16
	case bfloat16.BFloat16:
		return BFloat16
	case int:
		if strconv.IntSize == 32 {
			return Int32
		}
		return Int64
	case int64:
		return Int64
	case int32:
		return Int32
	case int16:
		return Int16
	case int8:
		return Int8
	case bool:
		return Bool
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	}
	return InvalidDType
}

// Pre-generate constant reflect.TypeOf for convenience.
var (
	float16Type  = reflect.TypeOf(float16.Float16(0))
	bfloat16Type = reflect.TypeOf(bfloat16.BFloat16(0))
)

// GoType returns the Go `reflect.Type` corresponding to the DType.
// It panics for InvalidDType.
func (dtype DType) GoType() reflect.Type {
	switch dtype {
	case Int64:
		return reflect.TypeOf(int64(0))
	case Int32:
		return reflect.TypeOf(int32(0))
	case Int16:
		return reflect.TypeOf(int16(0))
	case Int8:
		return reflect.TypeOf(int8(0))
	case Uint64:
		return reflect.TypeOf(uint64(0))
	case Uint32:
		return reflect.TypeOf(uint32(0))
	case Uint16:
		return reflect.TypeOf(uint16(0))
	case Uint8:
		return reflect.TypeOf(uint8(0))
	case Bool:
		return reflect.TypeOf(true)
	case Float16:
		return float16Type
	case BFloat16:
		return bfloat16Type
	case Float32:
		return reflect.TypeOf(float32(0))
	case Float64:
		return reflect.TypeOf(float64(0))
	default:
		panicf("unknown dtype %q (%d) in DType.GoType", dtype, dtype)
		panic(nil)
	}
}

// Size returns the number of bytes for the given DType.
func (dtype DType) Size() int {
	return int(dtype.GoType().Size())
}

// IsFloat returns whether dtype is one of the supported floating point types.
func (dtype DType) IsFloat() bool {
	return dtype == Float32 || dtype == Float64 || dtype == Float16 || dtype == BFloat16
}

// IsHalf returns whether dtype is a float with 16 bits: Float16 or BFloat16.
func (dtype DType) IsHalf() bool {
	return dtype == Float16 || dtype == BFloat16
}

// IsInt returns whether dtype is a signed or unsigned integer type.
func (dtype DType) IsInt() bool {
	return dtype == Int64 || dtype == Int32 || dtype == Int16 || dtype == Int8 ||
		dtype == Uint8 || dtype == Uint16 || dtype == Uint32 || dtype == Uint64
}

// IsUnsigned returns whether dtype is one of the unsigned integer types.
func (dtype DType) IsUnsigned() bool {
	return dtype == Uint8 || dtype == Uint16 || dtype == Uint32 || dtype == Uint64
}

// LowestValue for dtype converted to the corresponding Go type.
// For float values it returns negative infinity.
func (dtype DType) LowestValue() any {
	switch dtype {
	case Int64:
		return int64(math.MinInt64)
	case Int32:
		return int32(math.MinInt32)
	case Int16:
		return int16(math.MinInt16)
	case Int8:
		return int8(math.MinInt8)
	case Uint64:
		return uint64(0)
	case Uint32:
		return uint32(0)
	case Uint16:
		return uint16(0)
	case Uint8:
		return uint8(0)
	case Bool:
		return false
	case Float32:
		return float32(math.Inf(-1))
	case Float64:
		return math.Inf(-1)
	case Float16:
		return float16.Inf(-1)
	case BFloat16:
		return bfloat16.Inf(-1)
	default:
		panicf("no lowest value for dtype %s", dtype)
		panic(nil)
	}
}

// HighestValue for dtype converted to the corresponding Go type.
// For float values it returns infinity.
func (dtype DType) HighestValue() any {
	switch dtype {
	case Int64:
		return int64(math.MaxInt64)
	case Int32:
		return int32(math.MaxInt32)
	case Int16:
		return int16(math.MaxInt16)
	case Int8:
		return int8(math.MaxInt8)
	case Uint64:
		return uint64(math.MaxUint64)
	case Uint32:
		return uint32(math.MaxUint32)
	case Uint16:
		return uint16(math.MaxUint16)
	case Uint8:
		return uint8(math.MaxUint8)
	case Bool:
		return true
	case Float32:
		return float32(math.Inf(1))
	case Float64:
		return math.Inf(1)
	case Float16:
		return float16.Inf(1)
	case BFloat16:
		return bfloat16.Inf(1)
	default:
		panicf("no highest value for dtype %s", dtype)
		panic(nil)
	}
}

// Supported lists the Go types that can be stored in a buffer and reduced.
//
// Notice Go's `int` type is not portable, since it may translate to dtypes Int32 or Int64 depending
// on the platform.
type Supported interface {
	bool | float16.Float16 | bfloat16.BFloat16 |
		float32 | float64 | int | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64
}

// Number represents the Go native numeric types.
// It doesn't include float16.Float16 or bfloat16.BFloat16 because they are not native number types.
type Number interface {
	float32 | float64 | int | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64
}

// Integer represents the Go native integer types, signed or not.
type Integer interface {
	int | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64
}

// Float represents the Go native floating point types.
type Float interface {
	float32 | float64
}

// Half represents the 16 bits floating point types, which are stored as uint16 and converted
// to float32 for arithmetic.
type Half interface {
	float16.Float16 | bfloat16.BFloat16
}

// HalfToFloat32 converts a half precision value to float32.
func HalfToFloat32[T Half](value T) float32 {
	switch v := any(value).(type) {
	case float16.Float16:
		return v.Float32()
	case bfloat16.BFloat16:
		return v.Float32()
	}
	return 0
}

// HalfFromFloat32 rounds a float32 to the half precision type T.
func HalfFromFloat32[T Half](value float32) T {
	var zero T
	switch any(zero).(type) {
	case float16.Float16:
		return any(float16.Fromfloat32(value)).(T)
	case bfloat16.BFloat16:
		return any(bfloat16.FromFloat32(value)).(T)
	}
	return zero
}
