// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dtypes

// DType is an enum that names the element type of a buffer.
//
// The numbering follows the one used by GoMLX/XLA, so values can be exchanged with those libraries,
// but only the types the reduction kernels handle are listed.
type DType int32

const (
	// InvalidDType is the zero value, used for unknown or unsupported Go types.
	InvalidDType DType = 0

	// Bool holds two-state booleans.
	Bool DType = 1

	// Int8 and the other IntN are signed integral values of fixed width.
	Int8  DType = 2
	Int16 DType = 3
	Int32 DType = 4
	Int64 DType = 5

	// Uint8 and the other UintN are unsigned integral values of fixed width.
	Uint8  DType = 6
	Uint16 DType = 7
	Uint32 DType = 8
	Uint64 DType = 9

	// Float16 is IEEE 754 half precision, represented by github.com/x448/float16.
	Float16 DType = 10

	Float32 DType = 11
	Float64 DType = 12

	// BFloat16 is the truncated 16 bits floating-point format: 1 bit for the sign, 8 bits for the exponent
	// and 7 bits for the mantissa.
	BFloat16 DType = 13
)

// Short aliases.
const (
	S8   = Int8
	S16  = Int16
	S32  = Int32
	S64  = Int64
	U8   = Uint8
	U16  = Uint16
	U32  = Uint32
	U64  = Uint64
	F16  = Float16
	F32  = Float32
	F64  = Float64
	BF16 = BFloat16
)

// MapOfNames maps names (and short aliases) to DType. Lower-case versions are added on init.
var MapOfNames = map[string]DType{
	"InvalidDType": InvalidDType,
	"Bool":         Bool,
	"Int8":         Int8,
	"S8":           Int8,
	"Int16":        Int16,
	"S16":          Int16,
	"Int32":        Int32,
	"S32":          Int32,
	"Int64":        Int64,
	"S64":          Int64,
	"Uint8":        Uint8,
	"U8":           Uint8,
	"Uint16":       Uint16,
	"U16":          Uint16,
	"Uint32":       Uint32,
	"U32":          Uint32,
	"Uint64":       Uint64,
	"U64":          Uint64,
	"Float16":      Float16,
	"F16":          Float16,
	"Float32":      Float32,
	"F32":          Float32,
	"Float64":      Float64,
	"F64":          Float64,
	"BFloat16":     BFloat16,
	"BF16":         BFloat16,
}

// String implements fmt.Stringer.
func (dtype DType) String() string {
	switch dtype {
	case Bool:
		return "Bool"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Uint8:
		return "Uint8"
	case Uint16:
		return "Uint16"
	case Uint32:
		return "Uint32"
	case Uint64:
		return "Uint64"
	case Float16:
		return "Float16"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case BFloat16:
		return "BFloat16"
	default:
		return "InvalidDType"
	}
}
