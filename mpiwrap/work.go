package mpiwrap

import (
	"fmt"

	"github.com/unixpickle/topocomm/report"
	"github.com/unixpickle/topocomm/scalar"
	"go.uber.org/zap"
)

// SetWorkFunc registers the unit of logic run by Work.
// Clones share the registration.
func (w *Wrapper) SetWorkFunc(f WorkFunc) {
	w.env.work = f
}

// Work calls the registered WorkFunc until it reports that
// it is finished, printing a notice before every retry.
//
// Each call receives a fresh clone, which is closed once
// the call returns.
// There is no limit on the number of calls.
// If no WorkFunc is registered, Work returns immediately.
func (w *Wrapper) Work() error {
	f := w.env.work
	if f == nil {
		return nil
	}
	for i := 0; ; i++ {
		c := w.Clone()
		done := f(c)
		if err := c.Close(); err != nil {
			return err
		}
		if done {
			Logger().Debug("work finished", zap.Int("rank", w.Rank()), zap.Int("calls", i+1))
			return nil
		}
		if _, err := fmt.Fprintln(w.env.out, "Iterating again..."); err != nil {
			return err
		}
	}
}

// Table prints one value per process as a table on the
// root process.
// Every process must call Table.
func Table[T scalar.Scalar](w *Wrapper, value T, label string) error {
	return report.Table(w.env.transport, w.env.out, value, label)
}

// FitTable is like Table, but prints a list if the table
// is wider than maxWidth.
func FitTable[T scalar.Scalar](w *Wrapper, value T, label string, maxWidth int) error {
	return report.FitTable(w.env.transport, w.env.out, value, label, maxWidth)
}

// List prints one line per process on the root process.
// A negative filter prints every line; otherwise only the
// line for that rank is printed.
// Every process must call List.
func List[T scalar.Scalar](w *Wrapper, value T, label, marker string, filter int) error {
	return report.List(w.env.transport, w.env.out, value, label, marker, filter)
}
