package pcore

// pendingQueue is a stable priority queue over *Node: lower Priority
// values run first, and nodes of equal priority are ordered by docSeq
// (document order, assigned at NewNode), whatever order they are
// inserted in, including across removal and re-insertion within the
// same macro step (Design Notes §9.3).
// Grounded in the original implementation's LinkedQueue.hh
// PriorityQueue::insert, which splices a new item in immediately
// before the first existing item it compares strictly less than —
// equivalently, immediately after every item it does not compare less
// than.
type pendingQueue struct {
	items []*Node
}

func (q *pendingQueue) less(a, b *Node) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.docSeq < b.docSeq
}

// Insert adds n, maintaining priority order with stable tie-breaking.
// A node already present is not duplicated.
func (q *pendingQueue) Insert(n *Node) {
	for _, existing := range q.items {
		if existing == n {
			return
		}
	}
	i := 0
	for i < len(q.items) && !q.less(n, q.items[i]) {
		i++
	}
	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = n
}

// Remove deletes n from the queue if present. The node's docSeq is
// never touched, so a later Insert of the same node returns it to the
// same relative position among equal-priority peers.
func (q *pendingQueue) Remove(n *Node) {
	for i, existing := range q.items {
		if existing == n {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

func (q *pendingQueue) Empty() bool { return len(q.items) == 0 }
func (q *pendingQueue) Len() int    { return len(q.items) }

// PopFront removes and returns the highest-priority (then
// earliest-inserted) node.
func (q *pendingQueue) PopFront() *Node {
	if len(q.items) == 0 {
		return nil
	}
	n := q.items[0]
	q.items = q.items[1:]
	return n
}

// Snapshot returns a copy of the queue contents, front to back.
func (q *pendingQueue) Snapshot() []*Node {
	return append([]*Node(nil), q.items...)
}
