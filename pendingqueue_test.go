package pcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingQueueStableTieBreak(t *testing.T) {
	var q pendingQueue
	a := NewNode("a", EmptyNode)
	b := NewNode("b", EmptyNode)
	c := NewNode("c", EmptyNode)
	// all equal priority (0); document order (here also insertion order) must be preserved
	q.Insert(a)
	q.Insert(b)
	q.Insert(c)

	snap := q.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []*Node{a, b, c}, snap)
}

func TestPendingQueueRemoveReinsertKeepsDocPosition(t *testing.T) {
	var q pendingQueue
	a := NewNode("a", EmptyNode)
	b := NewNode("b", EmptyNode)
	c := NewNode("c", EmptyNode)
	q.Insert(a)
	q.Insert(b)
	q.Insert(c)

	q.Remove(b)
	q.Insert(b) // re-insert within the same cycle

	assert.Equal(t, []*Node{a, b, c}, q.Snapshot(), "re-insertion must return to the same relative position by docSeq")
}

func TestPendingQueuePriorityOrdering(t *testing.T) {
	var q pendingQueue
	low := NewNode("low", EmptyNode)
	low.Priority = 10
	high := NewNode("high", EmptyNode)
	high.Priority = 1

	q.Insert(low)
	q.Insert(high)

	assert.Equal(t, high, q.PopFront(), "lower Priority value must run first")
	assert.Equal(t, low, q.PopFront())
}

func TestPendingQueueInsertDeduplicates(t *testing.T) {
	var q pendingQueue
	a := NewNode("a", EmptyNode)
	q.Insert(a)
	q.Insert(a)
	assert.Equal(t, 1, q.Len())
}
