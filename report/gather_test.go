package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/topocomm/collcomm"
	"github.com/unixpickle/topocomm/scalar"
)

func TestTableGathersInRankOrder(t *testing.T) {
	var buf bytes.Buffer
	_, err := collcomm.Simulate(4, nil, func(c *collcomm.Comms) {
		if err := Table(c, &buf, 100*c.Rank(), "hundreds"); err != nil {
			t.Error(err)
		}
	})
	require.NoError(t, err)

	var expected bytes.Buffer
	require.NoError(t, RenderTable(&expected, "hundreds", []string{"0", "100", "200", "300"}))
	assert.Equal(t, expected.String(), buf.String())
}

func TestFitTableFallsBack(t *testing.T) {
	var buf bytes.Buffer
	_, err := collcomm.Simulate(3, nil, func(c *collcomm.Comms) {
		if err := FitTable(c, &buf, scalar.Char('a'+c.Rank()), "letter", 10); err != nil {
			t.Error(err)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "0 letter: a\n1 letter: b\n2 letter: c\n", buf.String())
}

func TestListFilter(t *testing.T) {
	var buf bytes.Buffer
	_, err := collcomm.Simulate(5, nil, func(c *collcomm.Comms) {
		if err := List(c, &buf, float64(c.Rank())/2, "half", "* ", 3); err != nil {
			t.Error(err)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "* 3 half: 1.5\n", buf.String())
}

func TestSequentialReports(t *testing.T) {
	var buf bytes.Buffer
	_, err := collcomm.Simulate(3, nil, func(c *collcomm.Comms) {
		for i := 0; i < 3; i++ {
			if err := List(c, &buf, int16(i*10+c.Rank()), "v", "", AllRanks); err != nil {
				t.Error(err)
				return
			}
		}
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "0 v: 0", lines[0])
	assert.Equal(t, "2 v: 12", lines[5])
	assert.Equal(t, "2 v: 22", lines[8])
}

func TestSingleRank(t *testing.T) {
	var buf bytes.Buffer
	_, err := collcomm.Simulate(1, nil, func(c *collcomm.Comms) {
		if err := Table(c, &buf, uint8(7), "only"); err != nil {
			t.Error(err)
		}
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "only")
	assert.Contains(t, buf.String(), "│  7 │")
}
