package events

// Queue is a bounded single-producer/single-consumer FIFO. Publish never
// blocks: when the queue is full the oldest item is dropped.
type Queue[T any] struct {
	ch chan T
}

// NewQueue creates a queue holding at most size items
func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{ch: make(chan T, size)}
}

// Publish enqueues v, evicting the oldest item if full
func (q *Queue[T]) Publish(v T) {
	for {
		select {
		case q.ch <- v:
			return
		default:
		}
		// full: make room
		select {
		case <-q.ch:
		default:
		}
	}
}

// Next returns the oldest item, or false if the queue is empty
func (q *Queue[T]) Next() (T, bool) {
	select {
	case v := <-q.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Latest drains the queue and returns the newest item, or false if empty
func (q *Queue[T]) Latest() (T, bool) {
	var last T
	found := false
	for {
		select {
		case v := <-q.ch:
			last = v
			found = true
		default:
			return last, found
		}
	}
}

// Len returns the number of queued items
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
