package mpiwrap

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkRetries(t *testing.T) {
	var buf bytes.Buffer
	ft := &fakeTransport{size: 1}
	w := New(ft, WithOutput(&buf))

	var calls int
	w.SetWorkFunc(func(c *Wrapper) bool {
		calls++
		assert.NotSame(t, w, c, "work should get a clone")
		return calls == 2
	})
	require.NoError(t, w.Work())
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Iterating again...\n", buf.String())
	assert.Equal(t, 0, ft.finalized, "clones must not finalize while w is open")

	require.NoError(t, w.Close())
	assert.Equal(t, 1, ft.finalized)
}

func TestWorkUnregistered(t *testing.T) {
	var buf bytes.Buffer
	w := New(&fakeTransport{size: 1}, WithOutput(&buf))
	require.NoError(t, w.Work())
	assert.Empty(t, buf.String())
}

func TestWorkSharedRegistration(t *testing.T) {
	w := New(&fakeTransport{size: 1}, WithOutput(io.Discard))
	c := w.Clone()
	var ran bool
	c.SetWorkFunc(func(*Wrapper) bool {
		ran = true
		return true
	})
	require.NoError(t, c.Close())
	require.NoError(t, w.Work())
	assert.True(t, ran)
}

// TestWorkCollective runs a unit that exchanges messages
// and only finishes once every rank agrees.
func TestWorkCollective(t *testing.T) {
	simulate(t, 3, io.Discard, func(w *Wrapper) {
		round := 0
		w.SetWorkFunc(func(c *Wrapper) bool {
			round++
			if err := SendRing(c, round, DefaultTag); err != nil {
				t.Error(err)
				return true
			}
			got, err := Receive[int](c, c.PrevRank(), DefaultTag)
			if err != nil {
				t.Error(err)
				return true
			}
			return got >= 3
		})
		if err := w.Work(); err != nil {
			t.Error(err)
		}
		assert.Equal(t, 3, round)
	})
}
