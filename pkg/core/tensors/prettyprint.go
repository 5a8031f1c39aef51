// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomlx/ndreduce/pkg/core/dtypes/bfloat16"
	"github.com/x448/float16"
)

// DefaultPrecision used by View.String.
const DefaultPrecision = 4

// String implements fmt.Stringer, using View.Summary with DefaultPrecision.
func (v View[T]) String() string {
	return v.Summary(DefaultPrecision)
}

// Summary returns a multi-line summary of the view's content, in the format "[2][3]int32{{1, 2, 3}, {4, 5, 6}}".
// Rows longer than 6 elements are elided in the middle.
//
// If the buffer can't be borrowed (e.g. it is exclusively borrowed), only the layout is printed.
func (v View[T]) Summary(precision int) string {
	var buf bytes.Buffer
	w := func(format string, args ...any) { _, _ = fmt.Fprintf(&buf, format, args...) }

	lengths := v.Lengths()
	for _, length := range lengths {
		w("[%d]", length)
	}
	var zero T
	w("%T", zero)
	if v.Layout.IsZeroSize() {
		w("{}")
		return buf.String()
	}
	flat, release, err := v.Pin()
	if err != nil {
		w("%s<unavailable>", v.Layout)
		return buf.String()
	}
	values := make([]T, 0, v.Size())
	for flatIdx := range v.Layout.Iter() {
		values = append(values, flat[flatIdx])
	}
	release()

	wValue := func(value T) {
		switch x := any(value).(type) {
		case float16.Float16:
			w("%.*g", precision, x.Float32())
		case bfloat16.BFloat16:
			w("%.*g", precision, x.Float32())
		case float32, float64:
			w("%.*g", precision, x)
		default:
			w("%v", x)
		}
	}
	if len(lengths) == 0 {
		w("(")
		wValue(values[0])
		w(")")
		return buf.String()
	}

	var printElements func(index, indent int, currentLengths []int)
	printElements = func(index, indent int, currentLengths []int) {
		if len(currentLengths) == 1 {
			w("{")
			length := currentLengths[0]
			for i := range length {
				if length > 6 && i >= 3 && i < length-3 {
					if i == 3 {
						w(", ...")
					}
					continue
				}
				if i > 0 {
					w(", ")
				}
				wValue(values[index+i])
			}
			w("}")
			return
		}
		stride := 1
		for _, length := range currentLengths[1:] {
			stride *= length
		}
		w("{")
		indentStr := strings.Repeat(" ", indent+1)
		for i := range currentLengths[0] {
			if i > 0 {
				w(",\n%s", indentStr)
			}
			printElements(index+i*stride, indent+1, currentLengths[1:])
		}
		w("}")
	}
	printElements(0, 0, lengths)
	return buf.String()
}
