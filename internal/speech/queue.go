package speech

import "sync"

// Utterance is one unit of text to speak. It is never mutated after
// creation.
type Utterance struct {
	ID   string
	Text string

	// gen is the cancellation generation at enqueue time. An utterance
	// whose gen is behind the signal was stopped before it could start.
	gen uint64
}

// queue is an unbounded FIFO with a single consumer. Producers may only
// push or clear.
type queue struct {
	mu    sync.Mutex
	items []Utterance
	ready chan struct{}
}

func newQueue() *queue {
	return &queue{ready: make(chan struct{}, 1)}
}

func (q *queue) push(u Utterance) {
	q.mu.Lock()
	q.items = append(q.items, u)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop takes the head of the queue. taken runs under the queue lock so the
// consumer can publish its state change atomically with the removal.
func (q *queue) pop(taken func()) (Utterance, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Utterance{}, false
	}
	u := q.items[0]
	q.items[0] = Utterance{}
	q.items = q.items[1:]
	if taken != nil {
		taken()
	}
	return u, true
}

// clear drops every pending utterance and returns how many were dropped.
func (q *queue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// empty runs check under the queue lock when the queue is empty.
func (q *queue) empty(check func() bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0 && (check == nil || check())
}

// wait returns a channel that receives after a push.
func (q *queue) wait() <-chan struct{} { return q.ready }
