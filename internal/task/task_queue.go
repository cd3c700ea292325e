package task

// pendingQueue is the FIFO of tasks waiting for a free slot.
// It is not safe for concurrent use; the scheduler guards it with the run mutex.
type pendingQueue struct {
	ids []TaskID
}

// newPendingQueue creates a queue seeded with the given tasks in order
func newPendingQueue(ids []TaskID) *pendingQueue {
	q := &pendingQueue{ids: make([]TaskID, 0, len(ids))}
	q.ids = append(q.ids, ids...)
	return q
}

// Push appends a task to the tail of the queue
func (q *pendingQueue) Push(id TaskID) {
	q.ids = append(q.ids, id)
}

// Pop removes and returns the task at the head of the queue.
// The boolean result is false when the queue is empty.
func (q *pendingQueue) Pop() (TaskID, bool) {
	if len(q.ids) == 0 {
		return "", false
	}
	id := q.ids[0]
	q.ids[0] = ""
	q.ids = q.ids[1:]
	return id, true
}

// Len returns the number of waiting tasks
func (q *pendingQueue) Len() int {
	return len(q.ids)
}

// Snapshot returns a copy of the waiting tasks in queue order
func (q *pendingQueue) Snapshot() []TaskID {
	out := make([]TaskID, len(q.ids))
	copy(out, q.ids)
	return out
}
