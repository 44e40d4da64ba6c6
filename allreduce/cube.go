package allreduce

import (
	"github.com/unixpickle/topocomm/mpiwrap"
	"github.com/unixpickle/topocomm/scalar"
	"github.com/unixpickle/topocomm/topology"
)

// Cube exchanges partial results with the partner along
// each hypercube dimension in turn.
//
// After the last dimension, every process has combined
// every other process's vector.
// The number of processes must be a power of two.
func Cube[T scalar.Scalar](w *mpiwrap.Wrapper, data []T, fn ReduceFn[T], tag int) ([]T, error) {
	dims, ok := topology.Dimensions(w.Size())
	if !ok {
		return nil, ErrNotCube
	}
	res := append([]T{}, data...)
	for dim := 0; dim < dims; dim++ {
		partner := w.CubeRank(dim)
		if err := mpiwrap.SendMultipleCube(w, res, dim, tag); err != nil {
			return nil, err
		}
		incoming, err := mpiwrap.ReceiveMultiple[T](w, len(res), partner, tag)
		if err != nil {
			return nil, err
		}
		// Both partners reduce in the same order so that
		// they end up with identical results.
		if partner < w.Rank() {
			res = fn(incoming, res)
		} else {
			res = fn(res, incoming)
		}
	}
	return res, nil
}
