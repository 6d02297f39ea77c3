package workerpool

import "sync"

const (
	defaultQueueCap = 16
	compactMinHead  = 64
)

// taskQueue is the pool's pending work plus its shutdown flag. Both are
// guarded by mu; cond shares mu so that checking for work and starting to
// wait happen atomically.
type taskQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []Task
	head   int
	closed bool
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{
		tasks: make([]Task, 0, defaultQueueCap),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends task and wakes one waiting worker. It fails with
// ErrPoolClosed, without enqueuing, once close has been called.
func (q *taskQueue) push(task Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrPoolClosed
	}
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	q.cond.Signal()
	return nil
}

// pop blocks until a task is available or the queue is closed and empty.
// The second result is false only in the latter case.
func (q *taskQueue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.lenLocked() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.lenLocked() == 0 {
		return nil, false
	}

	task := q.tasks[q.head]
	q.tasks[q.head] = nil
	q.head++
	q.maybeCompactLocked()

	return task, true
}

// close sets the shutdown flag and wakes every waiting worker. It reports
// whether this call was the one that closed the queue.
func (q *taskQueue) close() bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.closed = true
	q.mu.Unlock()

	q.cond.Broadcast()
	return true
}

func (q *taskQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

func (q *taskQueue) lenLocked() int {
	return len(q.tasks) - q.head
}

// maybeCompactLocked moves the pending tail to the front of the backing
// array once at least half of it is consumed slots.
func (q *taskQueue) maybeCompactLocked() {
	if q.head == len(q.tasks) {
		q.tasks = q.tasks[:0]
		q.head = 0
		return
	}
	if q.head < compactMinHead || q.head*2 < len(q.tasks) {
		return
	}
	n := copy(q.tasks, q.tasks[q.head:])
	clear(q.tasks[n:])
	q.tasks = q.tasks[:n]
	q.head = 0
}
