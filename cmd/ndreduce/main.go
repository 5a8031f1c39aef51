// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// ndreduce reduces random strided inputs along an axis and reports the path taken and the time per reduction.
//
// Example:
//
//	ndreduce -shape=64,128,32 -axis=1 -op=max -dtype=int16 -layout=transposed
//
// Besides the requested reduction it times the same number of elements rearranged to force each of the
// reduction paths (disable with -all_paths=false). The requested input can be read from a NumPy .npy file
// with -input, and its result saved with -output.
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"github.com/gomlx/ndreduce/pkg/core/dtypes"
	"github.com/gomlx/ndreduce/pkg/core/dtypes/bfloat16"
	"github.com/gomlx/ndreduce/pkg/core/tensors/numpy"
	"github.com/gomlx/ndreduce/pkg/support/fsutil"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"k8s.io/klog/v2"
)

var (
	flagShape    = flag.String("shape", "512,1024", "Comma-separated lengths of the input, e.g. \"64,128,32\".")
	flagAxis     = flag.Int("axis", -1, "Axis to reduce. Negative values count from the end: -1 is the last axis.")
	flagOp       = flag.String("op", "add", "Operator to reduce with, see -list_ops.")
	flagDType    = flag.String("dtype", "float32", "Element type of the input, e.g. float32, int8, bfloat16 or bool.")
	flagLayout   = flag.String("layout", LayoutRowMajor, "Memory layout of the input: rowmajor, transposed or reversed.")
	flagRepeats  = flag.Int("repeats", 20, "Number of times each case is reduced, for timing.")
	flagAllPaths = flag.Bool("all_paths", true, "Also reduce the same elements rearranged to force each of the reduction paths.")
	flagPrint    = flag.Bool("print", false, "Print the input and the result of the requested reduction.")
	flagListOps  = flag.Bool("list_ops", false, "List the operators available for -dtype and exit.")
	flagSeed     = flag.Uint64("seed", 42, "Seed for the random inputs.")
	flagInput    = flag.String("input", "", "Read the requested input from this .npy file: -shape and -dtype are "+
		"taken from the file, and the layout too if it is stored in Fortran order.")
	flagOutput    = flag.String("output", "", "Write the result of the requested reduction to this .npy file.")
	flagOverwrite = flag.Bool("overwrite", false, "Overwrite the -output file if it already exists.")
)

// config of a run, taken from the flags.
type config struct {
	Op, Layout            string
	Repeats               int
	Print                 bool
	Seed                  uint64
	InputPath, OutputPath string
	ProgressWriter        io.Writer // If nil, no progress bar is displayed.
}

// report holds what is displayed after a run.
type report struct {
	DType   dtypes.DType
	Op      string
	Layout  string
	Results []caseResult
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	dtype := dtypes.FromName(*flagDType)
	if dtype == dtypes.InvalidDType {
		klog.Errorf("Unknown -dtype=%q. See 'ndreduce -help'.", *flagDType)
		os.Exit(1)
	}
	if *flagListOps {
		fmt.Printf("Operators for %s: %s\n", dtype, strings.Join(must.M1(operatorNames(dtype)), ", "))
		return
	}
	inputPath, outputPath, err := resolvePaths(*flagInput, *flagOutput, *flagOverwrite)
	if err != nil {
		klog.Errorf("%v", err)
		os.Exit(1)
	}
	var lengths []int
	if inputPath != "" {
		var header numpy.Header
		header, err = numpy.ReadHeaderFile(inputPath)
		if err == nil && slices.Contains(header.Lengths, 0) {
			err = errors.Errorf("input %q has zero-size shape %v", inputPath, header.Lengths)
		}
		dtype, lengths = header.DType, header.Lengths
	} else {
		lengths, err = parseShape(*flagShape)
	}
	if err != nil {
		klog.Errorf("%v. See 'ndreduce -help'.", err)
		os.Exit(1)
	}
	cases, err := buildCases(lengths, *flagAxis, *flagAllPaths)
	if err != nil {
		klog.Errorf("Invalid -axis=%d for -shape=%s: %v", *flagAxis, *flagShape, err)
		os.Exit(1)
	}

	cfg := config{
		Op:         *flagOp,
		Layout:     *flagLayout,
		Repeats:    *flagRepeats,
		Print:      *flagPrint,
		Seed:       *flagSeed,
		InputPath:  inputPath,
		OutputPath: outputPath,
	}
	// Only show a progress bar on terminals.
	if termenv.NewOutput(os.Stderr).Profile != termenv.Ascii {
		cfg.ProgressWriter = os.Stderr
	}
	results, err := run(dtype, cases, cfg)
	if err != nil {
		klog.Errorf("Failed: %+v", err)
		os.Exit(1)
	}
	fmt.Println(renderReport(report{DType: dtype, Op: cfg.Op, Layout: cfg.Layout, Results: results}))
}

// resolvePaths expands the home directory in the paths, and checks that the output can be written.
// Empty paths are returned as they are.
func resolvePaths(input, output string, overwrite bool) (inputPath, outputPath string, err error) {
	if input != "" {
		if inputPath, err = fsutil.ExpandHome(input); err != nil {
			return
		}
	}
	if output != "" {
		if outputPath, err = fsutil.OutputPath(output, overwrite); err != nil {
			return
		}
	}
	return
}

// run dispatches the cases to the statically typed reductions for dtype.
func run(dtype dtypes.DType, cases []reductionCase, cfg config) ([]caseResult, error) {
	switch dtype {
	case dtypes.Bool:
		return runWith(boolOperators(), func(rng *rand.Rand) bool { return rng.IntN(2) == 1 }, cases, cfg)
	case dtypes.Int8:
		return runWith(integerOperators[int8](), randomInteger[int8], cases, cfg)
	case dtypes.Int16:
		return runWith(integerOperators[int16](), randomInteger[int16], cases, cfg)
	case dtypes.Int32:
		return runWith(integerOperators[int32](), randomInteger[int32], cases, cfg)
	case dtypes.Int64:
		return runWith(integerOperators[int64](), randomInteger[int64], cases, cfg)
	case dtypes.Uint8:
		return runWith(integerOperators[uint8](), randomInteger[uint8], cases, cfg)
	case dtypes.Uint16:
		return runWith(integerOperators[uint16](), randomInteger[uint16], cases, cfg)
	case dtypes.Uint32:
		return runWith(integerOperators[uint32](), randomInteger[uint32], cases, cfg)
	case dtypes.Uint64:
		return runWith(integerOperators[uint64](), randomInteger[uint64], cases, cfg)
	case dtypes.Float32:
		return runWith(floatOperators[float32](), randomFloat[float32], cases, cfg)
	case dtypes.Float64:
		return runWith(floatOperators[float64](), randomFloat[float64], cases, cfg)
	case dtypes.Float16:
		return runWith(halfOperators[float16.Float16](), func(rng *rand.Rand) float16.Float16 {
			return float16.Fromfloat32(randomFloat[float32](rng))
		}, cases, cfg)
	case dtypes.BFloat16:
		return runWith(halfOperators[bfloat16.BFloat16](), func(rng *rand.Rand) bfloat16.BFloat16 {
			return bfloat16.FromFloat32(randomFloat[float32](rng))
		}, cases, cfg)
	default:
		return nil, errors.Errorf("dtype %s not supported", dtype)
	}
}

// operatorNames lists the operators available for dtype.
func operatorNames(dtype dtypes.DType) ([]string, error) {
	switch dtype {
	case dtypes.Bool:
		return boolOperators().Names(), nil
	case dtypes.Float16:
		return halfOperators[float16.Float16]().Names(), nil
	case dtypes.BFloat16:
		return halfOperators[bfloat16.BFloat16]().Names(), nil
	case dtypes.Float32, dtypes.Float64:
		return floatOperators[float32]().Names(), nil
	default:
		if dtype.IsInt() {
			return integerOperators[int32]().Names(), nil
		}
		return nil, errors.Errorf("dtype %s not supported", dtype)
	}
}

func runWith[T dtypes.Supported](registry operators[T], random func(*rand.Rand) T, cases []reductionCase,
	cfg config) ([]caseResult, error) {
	fn, err := registry.Get(cfg.Op)
	if err != nil {
		return nil, err
	}
	return runCases(fn, random, cases, cfg)
}

// randomInteger returns values from 1 to 5: never 0, so division and modulo are always defined.
func randomInteger[T dtypes.Integer](rng *rand.Rand) T {
	return T(rng.IntN(5) + 1)
}

// randomFloat returns values in [-1, 1).
func randomFloat[T dtypes.Float](rng *rand.Rand) T {
	return T(2*rng.Float64() - 1)
}
