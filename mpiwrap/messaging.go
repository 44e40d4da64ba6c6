package mpiwrap

import (
	"errors"
	"fmt"

	"github.com/unixpickle/topocomm/collcomm"
	"github.com/unixpickle/topocomm/scalar"
)

// ErrEmptyMessage is returned when a single value is
// expected but the matched message carries none.
var ErrEmptyMessage = errors.New("receive: message has no elements")

// Send transmits a single value to dest.
// It blocks until the transport accepts the message.
func Send[T scalar.Scalar](w *Wrapper, value T, dest, tag int) error {
	return SendMultiple(w, []T{value}, dest, tag)
}

// SendRing sends a value to the next rank on the ring.
func SendRing[T scalar.Scalar](w *Wrapper, value T, tag int) error {
	return SendMultiple(w, []T{value}, w.NextRank(), tag)
}

// SendCube sends a value to the partner along a hypercube
// dimension.
func SendCube[T scalar.Scalar](w *Wrapper, value T, dimension, tag int) error {
	return SendMultiple(w, []T{value}, w.CubeRank(dimension), tag)
}

// SendMultiple transmits values as one message.
func SendMultiple[T scalar.Scalar](w *Wrapper, values []T, dest, tag int) error {
	err := w.env.transport.Send(scalar.Encode(values), scalar.KindOf[T](), len(values), dest, tag)
	if err != nil {
		return fmt.Errorf("send to %d: %w", dest, err)
	}
	return nil
}

// SendMultipleRing sends values to the next rank on the
// ring.
func SendMultipleRing[T scalar.Scalar](w *Wrapper, values []T, tag int) error {
	return SendMultiple(w, values, w.NextRank(), tag)
}

// SendMultipleCube sends values to the partner along a
// hypercube dimension.
func SendMultipleCube[T scalar.Scalar](w *Wrapper, values []T, dimension, tag int) error {
	return SendMultiple(w, values, w.CubeRank(dimension), tag)
}

// Receive blocks until a single value matching source and
// tag arrives, and records its status.
func Receive[T scalar.Scalar](w *Wrapper, source, tag int) (T, error) {
	return ReceiveStatus[T](w, source, tag, nil)
}

// ReceiveStatus is like Receive, but writes the status to
// status instead of the shared store when status is not
// nil.
func ReceiveStatus[T scalar.Scalar](w *Wrapper, source, tag int, status *collcomm.Status) (T, error) {
	var zero T
	values, err := ReceiveMultipleStatus[T](w, 1, source, tag, status)
	if err != nil {
		return zero, err
	}
	if len(values) == 0 {
		return zero, ErrEmptyMessage
	}
	return values[0], nil
}

// ReceiveTagged receives a single value with the given tag
// from any source.
func ReceiveTagged[T scalar.Scalar](w *Wrapper, tag int) (T, error) {
	return ReceiveStatus[T](w, AnySource, tag, nil)
}

// ReceiveTaggedStatus is ReceiveTagged with an explicit
// status destination.
func ReceiveTaggedStatus[T scalar.Scalar](w *Wrapper, tag int, status *collcomm.Status) (T, error) {
	return ReceiveStatus[T](w, AnySource, tag, status)
}

// ReceiveMultiple receives a message of count values.
// The returned slice is owned by the caller.
func ReceiveMultiple[T scalar.Scalar](w *Wrapper, count, source, tag int) ([]T, error) {
	return ReceiveMultipleStatus[T](w, count, source, tag, nil)
}

// ReceiveMultipleStatus is ReceiveMultiple with an
// explicit status destination.
func ReceiveMultipleStatus[T scalar.Scalar](w *Wrapper, count, source, tag int,
	status *collcomm.Status) ([]T, error) {
	data, st, err := w.env.transport.Recv(scalar.KindOf[T](), count, source, tag)
	if st.Matched {
		w.storeStatus(st, status)
	}
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return scalar.Decode[T](data), nil
}

// ReceiveMultipleTagged receives count values with the
// given tag from any source.
func ReceiveMultipleTagged[T scalar.Scalar](w *Wrapper, count, tag int) ([]T, error) {
	return ReceiveMultipleStatus[T](w, count, AnySource, tag, nil)
}

// ReceiveMultipleTaggedStatus is ReceiveMultipleTagged
// with an explicit status destination.
func ReceiveMultipleTaggedStatus[T scalar.Scalar](w *Wrapper, count, tag int,
	status *collcomm.Status) ([]T, error) {
	return ReceiveMultipleStatus[T](w, count, AnySource, tag, status)
}
