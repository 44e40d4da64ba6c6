package allreduce

import (
	"github.com/unixpickle/topocomm/mpiwrap"
	"github.com/unixpickle/topocomm/scalar"
)

// Ring splits a vector into one chunk per process and
// streams the chunks around the ring.
//
// The reduction has two phases: Reduce and Broadcast.
// During Reduce, every chunk travels once around the ring
// and is reduced into each process's copy along the way,
// ending up fully reduced on a single process.
// During Broadcast, every reduced chunk travels around the
// ring again, overwriting the partial results.
func Ring[T scalar.Scalar](w *mpiwrap.Wrapper, data []T, fn ReduceFn[T], tag int) ([]T, error) {
	size := w.Size()
	if len(data) == 0 || size == 1 {
		return append([]T{}, data...), nil
	}
	chunks := chunkify(append([]T{}, data...), size)

	for step := 0; step < size-1; step++ {
		sendIdx := w.Offset(-step)
		recvIdx := w.Offset(-step - 1)
		if err := mpiwrap.SendMultipleRing(w, chunks[sendIdx], tag); err != nil {
			return nil, err
		}
		incoming, err := mpiwrap.ReceiveMultiple[T](w, len(chunks[recvIdx]), w.PrevRank(), tag)
		if err != nil {
			return nil, err
		}
		copy(chunks[recvIdx], fn(incoming, chunks[recvIdx]))
	}

	for step := 0; step < size-1; step++ {
		sendIdx := w.Offset(1 - step)
		recvIdx := w.Offset(-step)
		if err := mpiwrap.SendMultipleRing(w, chunks[sendIdx], tag); err != nil {
			return nil, err
		}
		incoming, err := mpiwrap.ReceiveMultiple[T](w, len(chunks[recvIdx]), w.PrevRank(), tag)
		if err != nil {
			return nil, err
		}
		copy(chunks[recvIdx], incoming)
	}

	res := make([]T, 0, len(data))
	for _, chunk := range chunks {
		res = append(res, chunk...)
	}
	return res, nil
}

// chunkify splits data into exactly n chunks that share
// its backing array.
// Some chunks are empty if data has fewer than n elements.
func chunkify[T scalar.Scalar](data []T, n int) [][]T {
	res := make([][]T, n)
	for i := range res {
		start := i * len(data) / n
		end := (i + 1) * len(data) / n
		res[i] = data[start:end]
	}
	return res
}
