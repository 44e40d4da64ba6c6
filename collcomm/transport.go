package collcomm

import "errors"

const (
	// AnySource matches a message from any rank.
	AnySource = -1

	// AnyTag matches a message with any non-negative tag.
	AnyTag = -1

	// Root is the rank that coordinates collective
	// operations.
	Root = 0
)

// Tags below AnyTag are reserved for collectives.
// They are never matched by AnyTag.
const (
	tagBarrier = -2 - iota
	tagRelease
	tagGather
)

var (
	ErrFinalized    = errors.New("communicator is finalized")
	ErrInvalidRank  = errors.New("invalid rank")
	ErrInvalidTag   = errors.New("invalid tag")
	ErrInvalidKind  = errors.New("invalid element kind")
	ErrBufferSize   = errors.New("buffer size does not match element count")
	ErrKindMismatch = errors.New("message element kind mismatch")
	ErrTruncate     = errors.New("message truncated")
)

// Status describes the outcome of a receive or a probe.
type Status struct {
	// Source is the rank that sent the message.
	Source int

	// Tag is the tag the message was sent with.
	Tag int

	// Count is the number of elements in the message.
	Count int

	// Matched is true if a message was actually found.
	Matched bool
}

// A Transport is one process's view of a fixed group of
// processes that exchange typed buffers.
//
// A Transport is used by a single Goroutine.
// Blocking operations block until their counterpart is
// reached on the other processes; there are no timeouts.
type Transport interface {
	// Rank returns the process's rank, in [0, Size()).
	Rank() int

	// Size returns the number of processes.
	Size() int

	// Send transmits count elements of the given kind to
	// dest with a non-negative tag.
	Send(data []byte, kind Kind, count, dest, tag int) error

	// Recv blocks until a message matching source and tag
	// arrives and returns its data.
	// The source may be AnySource and the tag may be
	// AnyTag.
	Recv(kind Kind, count, source, tag int) ([]byte, Status, error)

	// Probe reports, without blocking, whether a message
	// matching source and tag is waiting to be received.
	Probe(source, tag int) (Status, bool, error)

	// Barrier blocks until every process calls Barrier.
	Barrier() error

	// Gather collects one buffer from every process on
	// root, indexed by rank.
	// Processes other than root get a nil result.
	Gather(data []byte, kind Kind, root int) ([][]byte, error)

	// Finalize shuts down the process's participation.
	// No other methods may be used afterwards.
	Finalize() error
}
