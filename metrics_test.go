package pcore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshotCountsCyclesAndTransitions(t *testing.T) {
	m := NewMetrics()
	m.ObserveCycle(3)
	m.ObserveCycle(1)
	m.ObserveCycle(4)

	cycles, transitions, _ := m.Snapshot()
	assert.Equal(t, uint64(3), cycles)
	assert.Equal(t, uint64(8), transitions)
}

func TestPSquareConvergesOnUniformSample(t *testing.T) {
	ps := newPSquare(0.9)
	for i := 1; i <= 1000; i++ {
		ps.observe(float64(i))
	}
	// The true P90 of 1..1000 is 900; the streaming estimate should land
	// within a small band of it.
	assert.InDelta(t, 900, ps.value(), 40)
}

func TestPSquareHandlesFewerThanFiveSamples(t *testing.T) {
	ps := newPSquare(0.9)
	assert.Equal(t, 0.0, ps.value())
	ps.observe(5)
	assert.Equal(t, 5.0, ps.value())
	ps.observe(1)
	assert.False(t, math.IsNaN(ps.value()))
}
