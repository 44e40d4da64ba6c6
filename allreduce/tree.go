package allreduce

import (
	"github.com/unixpickle/topocomm/mpiwrap"
	"github.com/unixpickle/topocomm/scalar"
)

// Tree arranges the processes in a binary tree and
// performs a reduction by going up the tree to the root,
// and then back down the tree to the leaves.
func Tree[T scalar.Scalar](w *mpiwrap.Wrapper, data []T, fn ReduceFn[T], tag int) ([]T, error) {
	parent, children := positionInTree(w.Rank(), w.Size())

	messages := [][]T{data}
	for _, child := range children {
		msg, err := mpiwrap.ReceiveMultiple[T](w, len(data), child, tag)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	finalVector := fn(messages...)
	if parent >= 0 {
		if err := mpiwrap.SendMultiple(w, finalVector, parent, tag); err != nil {
			return nil, err
		}
		var err error
		finalVector, err = mpiwrap.ReceiveMultiple[T](w, len(data), parent, tag)
		if err != nil {
			return nil, err
		}
	}

	for _, child := range children {
		if err := mpiwrap.SendMultiple(w, finalVector, child, tag); err != nil {
			return nil, err
		}
	}

	return finalVector, nil
}

// positionInTree returns the parent and child ranks for a
// process in the reduction tree.
//
// There may be no children.
// The root has no parent, which is indicated by -1.
func positionInTree(rank, size int) (parent int, children []int) {
	parent = -1
	for depth := uint(0); true; depth++ {
		rowSize := 1 << depth
		rowStart := rowSize - 1
		if rank >= rowStart+rowSize {
			continue
		}
		rowIdx := rank - rowStart
		if depth > 0 {
			parent = rowIdx/2 + (rowSize/2 - 1)
		}
		firstChild := rowIdx*2 + (rowSize*2 - 1)
		for i := 0; i < 2; i++ {
			if firstChild+i < size {
				children = append(children, firstChild+i)
			}
		}
		return
	}
	panic("unreachable")
}
