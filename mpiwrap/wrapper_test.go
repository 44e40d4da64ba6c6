package mpiwrap

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/topocomm/collcomm"
	"github.com/unixpickle/topocomm/report"
	"github.com/unixpickle/topocomm/scalar"
)

// fakeTransport is a single process that counts how many
// times it is finalized.
// Methods that are not overridden panic.
type fakeTransport struct {
	collcomm.Transport

	rank      int
	size      int
	finalized int
}

func (f *fakeTransport) Rank() int {
	return f.rank
}

func (f *fakeTransport) Size() int {
	return f.size
}

func (f *fakeTransport) Finalize() error {
	f.finalized++
	return nil
}

func simulate(t *testing.T, numProcs int, out io.Writer, f func(w *Wrapper)) {
	_, err := collcomm.Simulate(numProcs, nil, func(c *collcomm.Comms) {
		w := New(c, WithOutput(out))
		f(w)
		if err := w.Close(); err != nil {
			t.Error(err)
		}
	})
	require.NoError(t, err)
}

func exchange[T scalar.Scalar](t *testing.T, w *Wrapper, values ...T) {
	if w.Rank() == 0 {
		for _, v := range values {
			if err := Send(w, v, 1, DefaultTag); err != nil {
				t.Error(err)
			}
		}
		return
	}
	for _, v := range values {
		got, err := ReceiveTagged[T](w, DefaultTag)
		if err != nil {
			t.Error(err)
			return
		}
		assert.Equal(t, v, got)
		assert.Equal(t, 0, w.LastSource())
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	simulate(t, 2, io.Discard, func(w *Wrapper) {
		exchange(t, w, scalar.Char('q'), scalar.Char(0), scalar.Char(255))
		exchange(t, w, int8(math.MinInt8), int8(math.MaxInt8))
		exchange(t, w, int16(math.MinInt16), int16(math.MaxInt16))
		exchange(t, w, int32(math.MinInt32), int32(math.MaxInt32))
		exchange(t, w, math.MinInt, math.MaxInt)
		exchange(t, w, int64(math.MinInt64), int64(math.MaxInt64))
		exchange(t, w, uint8(0), uint8(math.MaxUint8))
		exchange(t, w, uint16(0), uint16(math.MaxUint16))
		exchange(t, w, uint32(0), uint32(math.MaxUint32))
		exchange(t, w, uint(0), uint(math.MaxUint))
		exchange(t, w, uint64(0), uint64(math.MaxUint64))
		exchange(t, w, float32(-1.25), float32(math.MaxFloat32))
		exchange(t, w, math.SmallestNonzeroFloat64, math.MaxFloat64, math.Inf(1))
	})
}

func TestSendMultiple(t *testing.T) {
	simulate(t, 2, io.Discard, func(w *Wrapper) {
		if w.Rank() == 0 {
			if err := SendMultiple(w, []int32{3, -1, 4, 1, -5}, 1, 2); err != nil {
				t.Error(err)
			}
			return
		}
		values, err := ReceiveMultipleTagged[int32](w, 5, 2)
		if err != nil {
			t.Error(err)
			return
		}
		assert.Equal(t, []int32{3, -1, 4, 1, -5}, values)
		assert.Equal(t, collcomm.Status{Source: 0, Tag: 2, Count: 5, Matched: true}, w.LastStatus())
	})
}

func TestRingAndCube(t *testing.T) {
	simulate(t, 8, io.Discard, func(w *Wrapper) {
		if err := SendRing(w, w.Rank()*10, DefaultTag); err != nil {
			t.Error(err)
			return
		}
		got, err := Receive[int](w, w.PrevRank(), DefaultTag)
		if err != nil {
			t.Error(err)
			return
		}
		assert.Equal(t, w.PrevRank()*10, got)

		for dim := 0; dim < 3; dim++ {
			if err := SendMultipleCube(w, []uint16{uint16(w.Rank()), uint16(dim)}, dim, 1); err != nil {
				t.Error(err)
				return
			}
			values, err := ReceiveMultiple[uint16](w, 2, w.CubeRank(dim), 1)
			if err != nil {
				t.Error(err)
				return
			}
			assert.Equal(t, []uint16{uint16(w.CubeRank(dim)), uint16(dim)}, values)
		}
	})
}

func TestReceiveStatusDestination(t *testing.T) {
	simulate(t, 2, io.Discard, func(w *Wrapper) {
		if w.Rank() == 0 {
			Send(w, 1.5, 1, 5)
			Send(w, 2.5, 1, 6)
			return
		}
		v, err := ReceiveTagged[float64](w, 6)
		if err != nil {
			t.Error(err)
			return
		}
		assert.Equal(t, 2.5, v)
		assert.Equal(t, 6, w.LastTag())
		assert.Equal(t, 0, w.LastSource())

		var status collcomm.Status
		v, err = ReceiveTaggedStatus[float64](w, 5, &status)
		if err != nil {
			t.Error(err)
			return
		}
		assert.Equal(t, 1.5, v)
		assert.Equal(t, 5, status.Tag)
		assert.Equal(t, 6, w.LastTag(), "shared status should be untouched")
	})
}

func TestHasDataOverwritesStatus(t *testing.T) {
	simulate(t, 2, io.Discard, func(w *Wrapper) {
		if w.Rank() == 0 {
			Send(w, int64(77), 1, 3)
			w.Barrier()
			return
		}
		ok, err := w.HasData(AnySource, 9)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, collcomm.Status{Source: AnySource, Tag: 9}, w.LastStatus())

		w.Barrier()
		ok, err = w.HasData(0, AnyTag)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, collcomm.Status{Source: 0, Tag: 3, Count: 1, Matched: true}, w.LastStatus())

		ok, err = w.HasData(AnySource, 4)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, w.LastStatus().Matched)
		assert.Equal(t, 4, w.LastTag())

		var external collcomm.Status
		ok, err = w.HasDataStatus(0, 3, &external)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3, external.Tag)
		assert.Equal(t, 4, w.LastTag())

		v, err := Receive[int64](w, 0, 3)
		assert.NoError(t, err)
		assert.Equal(t, int64(77), v)
	})
}

func TestErrorsPropagate(t *testing.T) {
	simulate(t, 2, io.Discard, func(w *Wrapper) {
		if w.Rank() != 0 {
			return
		}
		err := Send(w, 1, 7, DefaultTag)
		assert.True(t, errors.Is(err, collcomm.ErrInvalidRank), "unexpected error: %v", err)
		_, err = Receive[int](w, -4, DefaultTag)
		assert.True(t, errors.Is(err, collcomm.ErrInvalidRank), "unexpected error: %v", err)
	})
}

func TestReportsThroughWrapper(t *testing.T) {
	var buf bytes.Buffer
	simulate(t, 4, &buf, func(w *Wrapper) {
		if err := Table(w, 100*w.Rank(), "label"); err != nil {
			t.Error(err)
		}
		if err := List(w, uint8(w.Rank()), "rank", "-", 2); err != nil {
			t.Error(err)
		}
	})
	var expected bytes.Buffer
	require.NoError(t, report.RenderTable(&expected, "label", []string{"0", "100", "200", "300"}))
	expected.WriteString("-2 rank: 2\n")
	assert.Equal(t, expected.String(), buf.String())
}

func TestTopologyMethods(t *testing.T) {
	w := New(&fakeTransport{rank: 2, size: 5}, WithSeed(3))
	assert.Equal(t, 3, w.NextRank())
	assert.Equal(t, 1, w.PrevRank())
	assert.Equal(t, 4, w.Offset(-3))
	assert.Equal(t, 4, w.Offset(7))
	assert.Equal(t, 3, w.CubeRank(0))
	assert.Equal(t, 6, w.CubeRank(2))
	for i := 0; i < 100; i++ {
		r := w.RandomRank()
		assert.NotEqual(t, 2, r)
		assert.True(t, r >= 0 && r < 5)
	}
}

func TestCloseRefCount(t *testing.T) {
	ft := &fakeTransport{size: 1}
	w := New(ft)
	c1 := w.Clone()
	c2 := c1.Clone()

	require.NoError(t, w.Close())
	require.NoError(t, c1.Close())
	require.NoError(t, c1.Close())
	assert.Equal(t, 0, ft.finalized)

	require.NoError(t, c2.Close())
	assert.Equal(t, 1, ft.finalized)
	require.NoError(t, w.Close())
	assert.Equal(t, 1, ft.finalized)
}

func TestCloneAfterClose(t *testing.T) {
	ft := &fakeTransport{size: 1}
	w := New(ft)
	require.NoError(t, w.Close())
	assert.Panics(t, func() {
		w.Clone()
	})
	assert.Equal(t, 1, ft.finalized)

	// A handle that was never closed still cannot revive a
	// finalized transport.
	ft = &fakeTransport{size: 1}
	w = New(ft)
	open := &Wrapper{env: w.env}
	require.NoError(t, w.Close())
	assert.Panics(t, func() {
		open.Clone()
	})
	assert.Equal(t, 1, ft.finalized)
}

func TestPrintAndHeader(t *testing.T) {
	var buf bytes.Buffer
	w := New(&fakeTransport{rank: 1, size: 2}, WithOutput(&buf))
	require.NoError(t, w.Print("hello"))
	require.NoError(t, w.Header("ignored"))
	assert.Equal(t, "Process 1: hello\n", buf.String())

	buf.Reset()
	root := New(&fakeTransport{rank: 0, size: 2}, WithOutput(&buf))
	require.NoError(t, root.Header("title"))
	assert.Equal(t, "title\n", buf.String())
}
