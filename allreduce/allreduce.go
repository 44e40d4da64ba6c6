// Package allreduce implements algorithms for summing or
// maxing vectors across every process.
//
// Every process calls the same algorithm with a vector of
// the same length, and every process gets back an
// identical reduced vector.
//
// An algorithm exchanges messages on a single tag.
// No other messages with that tag may be in flight while
// it runs.
package allreduce

import (
	"errors"

	"github.com/unixpickle/topocomm/mpiwrap"
	"github.com/unixpickle/topocomm/scalar"
)

// ErrNotCube is returned by Cube when the number of
// processes is not a power of two.
var ErrNotCube = errors.New("allreduce: process count is not a power of two")

// A ReduceFn combines equal-length vectors elementwise.
// Vectors are passed in rank order.
type ReduceFn[T scalar.Scalar] func(vecs ...[]T) []T

// An Allreducer is an algorithm that applies a ReduceFn to
// vectors that are distributed across processes.
type Allreducer[T scalar.Scalar] func(w *mpiwrap.Wrapper, data []T, fn ReduceFn[T],
	tag int) ([]T, error)

// Sum is a ReduceFn that computes a vector sum.
func Sum[T scalar.Scalar](vecs ...[]T) []T {
	checkLengths(vecs)
	res := make([]T, len(vecs[0]))
	for _, v := range vecs {
		for i, x := range v {
			res[i] += x
		}
	}
	return res
}

// Max is a ReduceFn that computes an elementwise maximum.
func Max[T scalar.Scalar](vecs ...[]T) []T {
	checkLengths(vecs)
	res := append([]T{}, vecs[0]...)
	for _, v := range vecs[1:] {
		for i, x := range v {
			res[i] = max(res[i], x)
		}
	}
	return res
}

func checkLengths[T scalar.Scalar](vecs [][]T) {
	for _, v := range vecs[1:] {
		if len(v) != len(vecs[0]) {
			panic("mismatching lengths")
		}
	}
}
