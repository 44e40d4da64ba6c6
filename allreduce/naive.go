package allreduce

import (
	"github.com/unixpickle/topocomm/mpiwrap"
	"github.com/unixpickle/topocomm/scalar"
)

// Naive sends every vector from every process to every
// other process, and then reduces locally.
func Naive[T scalar.Scalar](w *mpiwrap.Wrapper, data []T, fn ReduceFn[T], tag int) ([]T, error) {
	for i := 0; i < w.Size(); i++ {
		if i == w.Rank() {
			continue
		}
		if err := mpiwrap.SendMultiple(w, data, i, tag); err != nil {
			return nil, err
		}
	}

	gatheredVecs := make([][]T, w.Size())
	gatheredVecs[w.Rank()] = data
	for i := range gatheredVecs {
		if i == w.Rank() {
			continue
		}
		incoming, err := mpiwrap.ReceiveMultiple[T](w, len(data), i, tag)
		if err != nil {
			return nil, err
		}
		gatheredVecs[i] = incoming
	}

	return fn(gatheredVecs...), nil
}
