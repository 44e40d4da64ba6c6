// Package mpiwrap provides typed point-to-point messaging
// and rank-ordered reports on top of a collcomm.Transport.
//
// A Wrapper may be cloned. Clones share the transport and
// the status of the most recent receive; the transport is
// finalized once the last clone is closed.
package mpiwrap

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync/atomic"

	"github.com/unixpickle/topocomm/collcomm"
	"github.com/unixpickle/topocomm/topology"
	"go.uber.org/zap"
)

const (
	// DefaultTag is the tag used by callers that have no
	// reason to pick another.
	DefaultTag = 0

	// Receive filters that match any source or any
	// application tag.
	AnySource = collcomm.AnySource
	AnyTag    = collcomm.AnyTag
)

// A WorkFunc is a unit of application logic.
// It returns true once it has finished.
type WorkFunc func(w *Wrapper) bool

// env is the state shared by a wrapper and its clones.
type env struct {
	transport collcomm.Transport
	refs      atomic.Int32
	status    collcomm.Status
	rng       *rand.Rand
	out       io.Writer
	work      WorkFunc
}

// A Wrapper is one process's handle on a transport.
//
// A Wrapper and its clones must be used from a single
// Goroutine.
type Wrapper struct {
	env    *env
	closed bool
}

// An Option configures a new Wrapper.
type Option func(e *env)

// WithOutput sets the writer used for prints and reports.
// The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *env) {
		e.out = w
	}
}

// WithRand sets the source used by RandomRank.
func WithRand(r *rand.Rand) Option {
	return func(e *env) {
		e.rng = r
	}
}

// WithSeed seeds the source used by RandomRank.
// By default, the seed is the process's rank.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// New wraps a transport.
//
// The returned Wrapper owns the transport and finalizes it
// when it and all of its clones are closed.
func New(t collcomm.Transport, opts ...Option) *Wrapper {
	e := &env{
		transport: t,
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(int64(t.Rank())))
	}
	e.refs.Store(1)
	return &Wrapper{env: e}
}

// Clone creates another handle on the same transport.
// The clone must be closed separately.
//
// Cloning a closed handle, or any handle once the
// transport has been finalized, panics.
func (w *Wrapper) Clone() *Wrapper {
	if w.closed {
		panic("cannot clone a closed Wrapper")
	}
	for {
		refs := w.env.refs.Load()
		if refs == 0 {
			panic("cannot clone a Wrapper whose transport is finalized")
		}
		if w.env.refs.CompareAndSwap(refs, refs+1) {
			return &Wrapper{env: w.env}
		}
	}
}

// Close releases the handle.
// Closing the last open handle finalizes the transport,
// which synchronizes with every other process.
//
// Closing a handle twice has no effect.
func (w *Wrapper) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.env.refs.Add(-1) > 0 {
		return nil
	}
	Logger().Debug("finalizing transport", zap.Int("rank", w.Rank()))
	if err := w.env.transport.Finalize(); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	return nil
}

// Rank returns the process's rank.
func (w *Wrapper) Rank() int {
	return w.env.transport.Rank()
}

// Size returns the number of processes.
func (w *Wrapper) Size() int {
	return w.env.transport.Size()
}

// NextRank returns the next rank on the ring.
func (w *Wrapper) NextRank() int {
	return topology.Next(w.Rank(), w.Size())
}

// PrevRank returns the previous rank on the ring.
func (w *Wrapper) PrevRank() int {
	return topology.Prev(w.Rank(), w.Size())
}

// Offset returns the rank delta steps away on the ring.
// Negative deltas move backwards.
func (w *Wrapper) Offset(delta int) int {
	return topology.Wrap(w.Rank()+delta, w.Size())
}

// CubeRank returns the partner along a hypercube
// dimension.
// It is not checked against Size.
func (w *Wrapper) CubeRank(dimension int) int {
	return topology.CubePartner(w.Rank(), dimension)
}

// RandomRank returns a random rank other than this one.
func (w *Wrapper) RandomRank() int {
	return topology.RandomPeer(w.env.rng, w.Rank(), w.Size())
}

// Barrier blocks until every process reaches it.
func (w *Wrapper) Barrier() error {
	if err := w.env.transport.Barrier(); err != nil {
		return fmt.Errorf("barrier: %w", err)
	}
	return nil
}

// HasData checks, without blocking, if a message matching
// source and tag is pending.
//
// The last status is overwritten even if nothing was
// found.
func (w *Wrapper) HasData(source, tag int) (bool, error) {
	return w.HasDataStatus(source, tag, nil)
}

// HasDataStatus is like HasData, but writes the observed
// status to status if it is not nil.
func (w *Wrapper) HasDataStatus(source, tag int, status *collcomm.Status) (bool, error) {
	st, ok, err := w.env.transport.Probe(source, tag)
	if err != nil {
		return false, fmt.Errorf("probe: %w", err)
	}
	w.storeStatus(st, status)
	return ok, nil
}

// LastStatus returns the status of the most recent
// receive or probe.
func (w *Wrapper) LastStatus() collcomm.Status {
	return w.env.status
}

// LastSource returns the source of the most recent receive
// or probe.
func (w *Wrapper) LastSource() int {
	return w.env.status.Source
}

// LastTag returns the tag of the most recent receive or
// probe.
func (w *Wrapper) LastTag() int {
	return w.env.status.Tag
}

// Print writes a line prefixed with the process's rank.
func (w *Wrapper) Print(msg string) error {
	_, err := fmt.Fprintf(w.env.out, "Process %d: %s\n", w.Rank(), msg)
	return err
}

// Header writes a line from the root process only.
func (w *Wrapper) Header(msg string) error {
	if w.Rank() != collcomm.Root {
		return nil
	}
	_, err := fmt.Fprintln(w.env.out, msg)
	return err
}

// storeStatus records st in dst, or in the shared store if
// dst is nil or is the shared store itself.
func (w *Wrapper) storeStatus(st collcomm.Status, dst *collcomm.Status) {
	if dst != nil && dst != &w.env.status {
		*dst = st
		return
	}
	w.env.status = st
}
