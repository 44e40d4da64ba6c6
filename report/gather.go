package report

import (
	"io"

	"github.com/unixpickle/topocomm/collcomm"
	"github.com/unixpickle/topocomm/scalar"
)

// Table collects one value from every rank and prints
// them on the root rank as a table.
//
// Every rank must call Table. The call synchronizes all
// ranks before collecting and after printing, so output
// from earlier or later prints does not interleave.
func Table[T scalar.Scalar](t collcomm.Transport, out io.Writer, value T, label string) error {
	return FitTable(t, out, value, label, 0)
}

// FitTable is like Table, but prints a list when the table
// would be wider than maxWidth.
// A maxWidth of zero or less never falls back.
func FitTable[T scalar.Scalar](t collcomm.Transport, out io.Writer, value T, label string,
	maxWidth int) error {
	return collect(t, value, func(cells []string) error {
		if maxWidth > 0 && TableWidth(label, cells) > maxWidth {
			return RenderList(out, "", label, cells, AllRanks)
		}
		return RenderTable(out, label, cells)
	})
}

// List collects one value from every rank and prints a
// line per rank on the root rank.
//
// Every rank must call List, and all ranks must agree on
// the filter.
func List[T scalar.Scalar](t collcomm.Transport, out io.Writer, value T, label, marker string,
	filter int) error {
	return collect(t, value, func(cells []string) error {
		return RenderList(out, marker, label, cells, filter)
	})
}

// collect gathers the formatted values of all ranks to
// the root and calls render there.
func collect[T scalar.Scalar](t collcomm.Transport, value T, render func([]string) error) error {
	if err := t.Barrier(); err != nil {
		return err
	}
	results, err := t.Gather(scalar.Encode([]T{value}), scalar.KindOf[T](), collcomm.Root)
	if err != nil {
		return err
	}
	var renderErr error
	if results != nil {
		cells := make([]string, len(results))
		for i, data := range results {
			cells[i] = scalar.Format(scalar.Decode[T](data)[0])
		}
		renderErr = render(cells)
	}

	// The closing barrier is reached even if rendering
	// failed, since the other ranks are waiting on it.
	if err := t.Barrier(); err != nil {
		return err
	}
	return renderErr
}
