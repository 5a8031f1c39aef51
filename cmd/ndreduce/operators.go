// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"slices"
	"strings"

	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/ops"
	"github.com/gomlx/ndreduce/pkg/core/reduce"
	"github.com/gomlx/ndreduce/pkg/core/tensors"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// reduceFn reduces input on axis into output with a fixed operator.
type reduceFn[T dtypes.Supported] func(axis int, input, output tensors.View[T]) error

// operators maps an operator name (as given in -op) to its reduction.
type operators[T dtypes.Supported] map[string]reduceFn[T]

// reduceWith binds op to a statically instantiated reduce.Reduce.
func reduceWith[T dtypes.Supported, Op ops.BinaryOp[T]](op Op) reduceFn[T] {
	return func(axis int, input, output tensors.View[T]) error {
		_, err := reduce.Reduce(op, axis, input, output)
		return err
	}
}

// Names returns the sorted operator names.
func (o operators[T]) Names() []string {
	names := maps.Keys(o)
	slices.Sort(names)
	return names
}

// Get returns the reduction for the operator name, or an error listing the valid names.
func (o operators[T]) Get(name string) (reduceFn[T], error) {
	fn, found := o[strings.ToLower(name)]
	if !found {
		return nil, errors.Errorf("operator %q not available for dtype %s, valid operators: %s",
			name, dtypes.FromGenericsType[T](), strings.Join(o.Names(), ", "))
	}
	return fn, nil
}

func numberOperators[T dtypes.Number]() operators[T] {
	return operators[T]{
		"add": reduceWith[T](ops.Add[T]{}),
		"sub": reduceWith[T](ops.Sub[T]{}),
		"mul": reduceWith[T](ops.Mul[T]{}),
		"div": reduceWith[T](ops.Div[T]{}),
		"min": reduceWith[T](ops.Min[T]{}),
		"max": reduceWith[T](ops.Max[T]{}),
		"pow": reduceWith[T](ops.Pow[T]{}),
	}
}

func integerOperators[T dtypes.Integer]() operators[T] {
	o := numberOperators[T]()
	o["mod"] = reduceWith[T](ops.Mod[T]{})
	o["and"] = reduceWith[T](ops.BitwiseAnd[T]{})
	o["or"] = reduceWith[T](ops.BitwiseOr[T]{})
	o["xor"] = reduceWith[T](ops.BitwiseXor[T]{})
	return o
}

func floatOperators[T dtypes.Float]() operators[T] {
	o := numberOperators[T]()
	o["mod"] = reduceWith[T](ops.FloatMod[T]{})
	return o
}

func halfOperators[T dtypes.Half]() operators[T] {
	return operators[T]{
		"add": reduceWith[T](ops.HalfAdd[T]{}),
		"sub": reduceWith[T](ops.HalfSub[T]{}),
		"mul": reduceWith[T](ops.HalfMul[T]{}),
		"min": reduceWith[T](ops.HalfMin[T]{}),
		"max": reduceWith[T](ops.HalfMax[T]{}),
	}
}

func boolOperators() operators[bool] {
	return operators[bool]{
		"and": reduceWith[bool](ops.LogicalAnd{}),
		"or":  reduceWith[bool](ops.LogicalOr{}),
		"xor": reduceWith[bool](ops.LogicalXor{}),
	}
}
